package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dermascan/dermascan-go/internal/errors"
)

// GetDefaultConfigPaths returns the list of directories searched for the
// config file, in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "get-executable-path").
			Build()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	configPaths := []string{
		filepath.Join(homeDir, ".config", "dermascan"),
		filepath.Dir(exePath),
		".",
	}

	return configPaths, nil
}

// GetBasePath expands and normalizes a directory path, creating it if needed.
func GetBasePath(path string) string {
	expandedPath := os.ExpandEnv(path)
	basePath := filepath.Clean(expandedPath)

	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o750); err != nil {
			fmt.Printf("failed to create directory '%s': %v\n", basePath, err)
		}
	}

	return basePath
}
