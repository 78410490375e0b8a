// Package config provides configuration loading and management for caretflat.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"caretflat/internal/models"
	"caretflat/pkg/areal"
	"caretflat/pkg/flatten"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many goroutines share each smoothing pass
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Flattening parameters
	Flatten struct {
		// FlatAreaScale is the flat surface area as a multiple of the fiducial area
		FlatAreaScale float64 `yaml:"flatAreaScale"`

		// FrontCompression is the front face compression factor
		FrontCompression float64 `yaml:"frontCompression"`

		InitialSmoothingStrength   float64 `yaml:"initialSmoothingStrength"`
		InitialSmoothingIterations int     `yaml:"initialSmoothingIterations"`

		// OpenCornerDepth and CutCornerDepth bound corner tile pruning
		OpenCornerDepth int `yaml:"openCornerDepth"`
		CutCornerDepth  int `yaml:"cutCornerDepth"`

		MedialWallSmoothingStrength   float64 `yaml:"medialWallSmoothingStrength"`
		MedialWallSmoothingIterations int     `yaml:"medialWallSmoothingIterations"`

		// MedialWallBorder names the border outlining the medial wall
		MedialWallBorder string `yaml:"medialWallBorder"`

		// CutsPrefix starts the name of every standard cut border
		CutsPrefix string `yaml:"cutsPrefix"`

		// SmoothedMedialWallFiducial also produces a fiducial with the medial wall smoothed
		SmoothedMedialWallFiducial bool `yaml:"smoothedMedialWallFiducial"`
	} `yaml:"flatten"`

	// Areal estimation parameters
	Areal struct {
		// MaxInsideWeight caps the weight of a border a node lies inside of
		MaxInsideWeight float64 `yaml:"maxInsideWeight"`

		// KDTreeMinLinks is the border length from which a kd-tree finds nearest links
		KDTreeMinLinks int `yaml:"kdTreeMinLinks"`
	} `yaml:"areal"`

	// Output parameters
	Output struct {
		// AutoSave writes every file the algorithms produce
		AutoSave bool `yaml:"autoSave"`

		// Directory receives the produced files
		Directory string `yaml:"directory"`

		// SaveIntermediateResults determines whether to save intermediate coordinate dumps
		SaveIntermediateResults bool `yaml:"saveIntermediateResults"`

		// IntermediateDir receives the intermediate dumps
		IntermediateDir string `yaml:"intermediateDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Smoothing runs on the calling goroutine by default
	cfg.Processing.NumCores = 1

	// Set default flattening parameters
	s := flatten.DefaultSettings()
	cfg.Flatten.FlatAreaScale = s.FlatAreaScale
	cfg.Flatten.FrontCompression = s.FrontCompression
	cfg.Flatten.InitialSmoothingStrength = s.InitialSmoothingStrength
	cfg.Flatten.InitialSmoothingIterations = s.InitialSmoothingIterations
	cfg.Flatten.OpenCornerDepth = s.OpenCornerDepth
	cfg.Flatten.CutCornerDepth = s.CutCornerDepth
	cfg.Flatten.MedialWallSmoothingStrength = s.MedialWallSmoothingStrength
	cfg.Flatten.MedialWallSmoothingIterations = s.MedialWallSmoothingIterations
	cfg.Flatten.MedialWallBorder = models.MedialWallName
	cfg.Flatten.CutsPrefix = flatten.StandardCutsPrefix
	cfg.Flatten.SmoothedMedialWallFiducial = false

	// Set default areal estimation parameters
	cfg.Areal.MaxInsideWeight = areal.DefaultMaxInsideWeight
	cfg.Areal.KDTreeMinLinks = areal.DefaultKDTreeMinLinks

	// Set default output parameters
	cfg.Output.AutoSave = true
	cfg.Output.Directory = "."
	cfg.Output.SaveIntermediateResults = false
	cfg.Output.IntermediateDir = "intermediate_results"
	cfg.Output.Verbose = false

	return cfg
}

// FlattenSettings returns the numeric flattening constants
func (c *Config) FlattenSettings() flatten.Settings {
	return flatten.Settings{
		FlatAreaScale:                 c.Flatten.FlatAreaScale,
		FrontCompression:              c.Flatten.FrontCompression,
		InitialSmoothingStrength:      c.Flatten.InitialSmoothingStrength,
		InitialSmoothingIterations:    c.Flatten.InitialSmoothingIterations,
		OpenCornerDepth:               c.Flatten.OpenCornerDepth,
		CutCornerDepth:                c.Flatten.CutCornerDepth,
		MedialWallSmoothingStrength:   c.Flatten.MedialWallSmoothingStrength,
		MedialWallSmoothingIterations: c.Flatten.MedialWallSmoothingIterations,
	}
}

// Validate rejects values the algorithms cannot run with
func (c *Config) Validate() error {
	switch {
	case c.Flatten.FlatAreaScale <= 0:
		return fmt.Errorf("flatten.flatAreaScale must be positive, got %g", c.Flatten.FlatAreaScale)
	case c.Flatten.FrontCompression <= 0 || c.Flatten.FrontCompression > 1:
		return fmt.Errorf("flatten.frontCompression must be in (0, 1], got %g", c.Flatten.FrontCompression)
	case c.Flatten.OpenCornerDepth < 0 || c.Flatten.CutCornerDepth < 0:
		return fmt.Errorf("corner depths must not be negative")
	case c.Areal.MaxInsideWeight < 1:
		return fmt.Errorf("areal.maxInsideWeight must be at least 1, got %g", c.Areal.MaxInsideWeight)
	case c.Processing.NumCores < 0:
		return fmt.Errorf("processing.numCores must not be negative, got %d", c.Processing.NumCores)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
