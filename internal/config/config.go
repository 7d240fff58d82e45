// Package config loads runtime settings from defaults, an optional JSON file,
// MARKER_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "marker-tracker.cfg.json"

// HTTPConfig holds the web transport settings.
type HTTPConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

// CameraConfig selects the frame source: a camera index or a video file path.
type CameraConfig struct {
	Device string `json:"device" mapstructure:"device"`
}

// FrameConfig controls the working frame size.
type FrameConfig struct {
	Width int `json:"width" mapstructure:"width"`
}

// JPEGConfig controls stream encoding.
type JPEGConfig struct {
	Quality int `json:"quality" mapstructure:"quality"`
}

// WindowConfig controls the desktop viewer.
type WindowConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// Settings is the decoded configuration.
type Settings struct {
	LogLevel     string       `json:"logLevel" mapstructure:"logLevel"`
	HotReload    bool         `json:"hotReload" mapstructure:"hotReload"`
	Dictionaries []string     `json:"dictionaries" mapstructure:"dictionaries"`
	HTTP         HTTPConfig   `json:"http" mapstructure:"http"`
	Camera       CameraConfig `json:"camera" mapstructure:"camera"`
	Frame        FrameConfig  `json:"frame" mapstructure:"frame"`
	JPEG         JPEGConfig   `json:"jpeg" mapstructure:"jpeg"`
	Window       WindowConfig `json:"window" mapstructure:"window"`
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("hotReload", false)
	viper.SetDefault("dictionaries", []string{"DICT_4X4_50", "DICT_5X5_100", "DICT_6X6_250", "DICT_7X7_250"})

	viper.SetDefault("http.addr", ":5000")
	viper.SetDefault("camera.device", "0")
	viper.SetDefault("frame.width", 640)
	viper.SetDefault("jpeg.quality", 80)
	viper.SetDefault("window.enabled", false)
}

// Load sets defaults, enables MARKER_* environment overrides and reads
// FileName from configDir if present. A missing file is not an error.
func Load(configDir string) error {
	SetDefaults()

	viper.SetEnvPrefix("MARKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if configDir == "" {
		return nil
	}

	viper.SetConfigName(strings.TrimSuffix(FileName, ".json"))
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Current decodes and validates the loaded configuration.
func Current() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks value ranges. Dictionary names are checked by the detector.
func (s Settings) Validate() error {
	if s.Frame.Width <= 0 {
		return fmt.Errorf("frame.width must be positive, got %d", s.Frame.Width)
	}
	if s.JPEG.Quality < 1 || s.JPEG.Quality > 100 {
		return fmt.Errorf("jpeg.quality must be within 1-100, got %d", s.JPEG.Quality)
	}
	if len(s.Dictionaries) == 0 {
		return errors.New("at least one marker dictionary is required")
	}
	if strings.TrimSpace(s.HTTP.Addr) == "" {
		return errors.New("http.addr is required")
	}
	return nil
}
