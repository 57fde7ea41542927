// Package conf loads and holds the application configuration.
package conf

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/dermascan/dermascan-go/internal/errors"
)

// DermNETConfig holds classifier model settings.
type DermNETConfig struct {
	Debug      bool     // true to enable debug mode
	ModelPath  string   // path to external model file (empty for default location)
	LabelPath  string   // path to external class table file (empty for built-in table)
	Threads    int      // number of CPU threads for inference, 0 for all cores
	UseXNNPACK bool     // true to use XNNPACK delegate for inference acceleration
	InputSize  int      // model input resolution in pixels (square)
	Labels     []string `yaml:"-"` // loaded class labels, runtime value
}

// InputConfig holds settings for one-shot file analysis
type InputConfig struct {
	Path     string `yaml:"-"` // path to input image file
	Username string `yaml:"-"` // patient username for the record
	Location string `yaml:"-"` // body location for the record
}

// Settings contains all configuration options for the DermaScan application.
type Settings struct {
	Debug bool // true to enable debug mode

	// Runtime values, not stored in config file
	Version   string `yaml:"-"` // Version from build
	BuildDate string `yaml:"-"` // Build date from build

	Main struct {
		Name string    // name of this DermaScan node
		Log  LogConfig // logging configuration
	}

	DermNET DermNETConfig // classifier configuration

	Input InputConfig `yaml:"-"` // input configuration for one-shot analysis

	WebServer struct {
		Debug   bool   // true to enable debug mode
		Enabled bool   // true to enable web server
		Port    string // port for web server
	}

	Output struct {
		SQLite struct {
			Enabled bool   // true to enable sqlite output
			Path    string // path to sqlite database
		}

		MySQL struct {
			Enabled  bool   // true to enable mysql output
			Username string // username for mysql database
			Password string // password for mysql database
			Database string // database name for mysql database
			Host     string // host for mysql database
			Port     string // port for mysql database
		}
	}
}

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled  bool         // true to enable this log
	Path     string       // path to the log file
	Rotation RotationType // type of log rotation
	MaxSize  int64        // max size in bytes for RotationSize
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("dermascan")
	viper.AutomaticEnv()

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No config file, create one with defaults
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the current defaults to a config file so the
// user has something to edit on first run.
func createDefaultConfig(configDir string) error {
	configPath := filepath.Join(GetBasePath(configDir), "config.yaml")
	if err := viper.WriteConfigAs(configPath); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("config_path", configPath).
			Build()
	}
	return nil
}

// Setting returns the current settings instance, or nil before Load.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
