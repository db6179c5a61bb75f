package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolated points every file lookup at an empty temp dir.
func isolated(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{ConfigDir: dir, EnvFile: ""}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(isolated(t))
	require.NoError(t, err)
	require.Equal(t, "mlx", cfg.Backend)
	require.Equal(t, "python3", cfg.Python)
	require.Equal(t, 10*time.Minute, cfg.Server.Timeout)
	require.Empty(t, cfg.Server.URL)
}

func TestLoadConfigFileFromConfigDir(t *testing.T) {
	t.Chdir(t.TempDir())

	opts := isolated(t)
	writeFile(t, opts.ConfigDir, "config.yml", `
backend: openai
python: /opt/homebrew/bin/python3.12
server:
  url: http://localhost:10240/v1
  api_key: secret
  timeout: 45s
`)

	cfg, err := Load(opts)
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.Backend)
	require.Equal(t, "/opt/homebrew/bin/python3.12", cfg.Python)
	require.Equal(t, "http://localhost:10240/v1", cfg.Server.URL)
	require.Equal(t, "secret", cfg.Server.APIKey)
	require.Equal(t, 45*time.Second, cfg.Server.Timeout)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())

	opts := isolated(t)
	writeFile(t, opts.ConfigDir, "config.yml", "backend: openai\n")
	t.Setenv("MLX_TRANSCRIBE_BACKEND", "MLX")
	t.Setenv("MLX_TRANSCRIBE_SERVER_TIMEOUT", "2m")

	cfg, err := Load(opts)
	require.NoError(t, err)
	require.Equal(t, "mlx", cfg.Backend)
	require.Equal(t, 2*time.Minute, cfg.Server.Timeout)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "MLX_TRANSCRIBE_PYTHON=/usr/local/bin/python3\nMLX_TRANSCRIBE_SERVER_URL=http://127.0.0.1:8080/v1\n")
	t.Setenv("MLX_TRANSCRIBE_SERVER_URL", "http://real-env:9000/v1")

	cfg, err := Load(isolated(t))
	require.NoError(t, err)
	require.Equal(t, "/usr/local/bin/python3", cfg.Python)
	require.Equal(t, "http://real-env:9000/v1", cfg.Server.URL)
	_, leaked := os.LookupEnv("MLX_TRANSCRIBE_PYTHON")
	require.False(t, leaked)
}

func TestLoadExplicitFiles(t *testing.T) {
	t.Chdir(t.TempDir())

	dir := t.TempDir()
	configFile := writeFile(t, dir, "custom.yaml", "backend: openai\nserver:\n  url: http://a/v1\n")
	envFile := writeFile(t, dir, "custom.env", "MLX_TRANSCRIBE_SERVER_API_KEY=from-env-file\n")

	cfg, err := Load(Options{ConfigFile: configFile, EnvFile: envFile, ConfigDir: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.Backend)
	require.Equal(t, "from-env-file", cfg.Server.APIKey)
}

func TestLoadMissingExplicitFiles(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yml")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "config file")

	_, err = Load(Options{ConfigDir: t.TempDir(), EnvFile: filepath.Join(t.TempDir(), "nope.env")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "read env file")
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MLX_TRANSCRIBE_BACKEND", "coreml")

	_, err := Load(isolated(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "--backend must be one of: mlx openai")
}

func TestEnvName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "MLX_TRANSCRIBE_BACKEND", EnvName("backend"))
	require.Equal(t, "MLX_TRANSCRIBE_SERVER_API_KEY", EnvName("server.api_key"))
}
