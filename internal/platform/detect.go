package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "mlx-transcribe"

// DefaultConfigDirFor is the per-user configuration directory on goos.
func DefaultConfigDirFor(goos, homeDir, xdgConfigHome string) (string, error) {
	if homeDir == "" {
		return "", errors.New("home directory is empty")
	}

	switch goos {
	case "linux":
		if xdgConfigHome != "" {
			return filepath.Join(xdgConfigHome, appDirName), nil
		}
		return filepath.Join(homeDir, ".config", appDirName), nil
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appDirName), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", goos)
	}
}

func ResolveConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	return DefaultConfigDirFor(runtime.GOOS, homeDir, os.Getenv("XDG_CONFIG_HOME"))
}

// AppleSilicon reports whether the host can run MLX models.
func AppleSilicon() bool {
	return IsAppleSilicon(runtime.GOOS, runtime.GOARCH)
}

func IsAppleSilicon(goos, goarch string) bool {
	return goos == "darwin" && NormalizeArch(goarch) == "arm64"
}

func NormalizeArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}
