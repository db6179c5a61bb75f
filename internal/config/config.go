// Package config loads backend settings from an optional YAML file, an
// optional .env file and MLX_TRANSCRIBE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmueller/mlx-transcribe/internal/platform"
	"github.com/fmueller/mlx-transcribe/internal/transcribe"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "MLX_TRANSCRIBE"
	DefaultBackend = "mlx"
	DefaultPython  = "python3"
	DefaultTimeout = 10 * time.Minute

	configFileName = "config.yml"
	defaultEnvFile = ".env"
)

var keys = []string{"backend", "python", "server.url", "server.api_key", "server.timeout"}

type Config struct {
	Backend string `mapstructure:"backend" json:"backend" validate:"oneof=mlx openai"`
	Python  string `mapstructure:"python" json:"python"`
	Server  Server `mapstructure:"server" json:"server"`
}

type Server struct {
	URL     string        `mapstructure:"url" json:"server-url"`
	APIKey  string        `mapstructure:"api_key" json:"-"`
	Timeout time.Duration `mapstructure:"timeout" json:"server-timeout"`
}

type Options struct {
	// ConfigFile must exist when set. When empty, config.yml in ConfigDir
	// is read if present.
	ConfigFile string
	// ConfigDir defaults to the per-user config directory.
	ConfigDir string
	// EnvFile defaults to .env in the working directory; a missing file is ignored.
	EnvFile string
}

func Load(opts Options) (Config, error) {
	v := viper.New()
	v.SetDefault("backend", DefaultBackend)
	v.SetDefault("python", DefaultPython)
	v.SetDefault("server.timeout", DefaultTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	configFile, err := resolveConfigFile(opts)
	if err != nil {
		return Config{}, err
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	if err := applyEnvFile(v, opts.EnvFile); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))

	if err := transcribe.ValidateStruct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// EnvName returns the environment variable backing a config key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func resolveConfigFile(opts Options) (string, error) {
	if explicit := strings.TrimSpace(opts.ConfigFile); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}

	dir := strings.TrimSpace(opts.ConfigDir)
	if dir == "" {
		resolved, err := platform.ResolveConfigDir()
		if err != nil {
			// No per-user config location on this platform; run on env and defaults.
			return "", nil
		}
		dir = resolved
	}

	candidate := filepath.Join(dir, configFileName)
	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("stat config file: %w", err)
	}
	return candidate, nil
}

// applyEnvFile feeds .env values into v for keys the real environment
// leaves unset, without touching the process environment.
func applyEnvFile(v *viper.Viper, path string) error {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = defaultEnvFile
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read env file %s: %w", path, err)
	}

	for _, key := range keys {
		name := EnvName(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if value, ok := values[name]; ok {
			v.Set(key, value)
		}
	}
	return nil
}
