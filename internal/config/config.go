package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/scigolib/scalemerge/internal/model"
)

// Config is a run file shared by the command-line tools.
type Config struct {
	LogMode     string            `yaml:"log_mode,omitempty"`
	Merge       MergeConfig       `yaml:"merge"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// MergeConfig configures merge_scales.
type MergeConfig struct {
	FilePattern    string `yaml:"file_pattern"`
	OutputFilename string `yaml:"output_filename"`
	PrintLevel     int    `yaml:"print_level"`
	ScaleAttribute string `yaml:"scale_attribute,omitempty"`
	ScaleDimension string `yaml:"scale_dimension,omitempty"`
	Format         string `yaml:"format,omitempty"`
}

// DiagnosticsConfig configures scale_diagnostics.
type DiagnosticsConfig struct {
	Input       string  `yaml:"input"`
	Source      string  `yaml:"source,omitempty"`
	OutputDir   string  `yaml:"output_dir"`
	Output      string  `yaml:"output,omitempty"`
	ScaleVar    string  `yaml:"scale_variable,omitempty"`
	DepthIndex  int     `yaml:"depth_index"`
	WorkerIndex int     `yaml:"worker_index"`
	WorkerCount int     `yaml:"worker_count"`
	Jobs        int     `yaml:"jobs"`
	Order       int     `yaml:"order,omitempty"`
	TimeScale   float64 `yaml:"time_scale"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-provided config path
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfig returns the configuration used when no file is given.
func GetDefaultConfig() *Config {
	return &Config{
		LogMode: "dev",
		Merge: MergeConfig{
			PrintLevel:     0,
			ScaleAttribute: "filter_scale",
			ScaleDimension: "ell",
		},
		Diagnostics: DiagnosticsConfig{
			OutputDir:   "Diagnostics",
			ScaleVar:    "ell",
			WorkerCount: 1,
			Jobs:        1,
			TimeScale:   3600,
		},
	}
}

// validateConfig checks value ranges. Required inputs are checked by
// Validate once command-line flags have been applied.
func validateConfig(config *Config) error {
	m := config.Merge
	if m.PrintLevel < 0 || m.PrintLevel > 2 {
		return fmt.Errorf("print_level must be 0, 1 or 2, got %d", m.PrintLevel)
	}
	if m.Format != "" {
		if _, err := model.ParseFormat(m.Format); err != nil {
			return err
		}
	}

	d := config.Diagnostics
	if d.WorkerCount < 1 {
		return fmt.Errorf("worker_count must be positive, got %d", d.WorkerCount)
	}
	if d.WorkerIndex < 0 || d.WorkerIndex >= d.WorkerCount {
		return fmt.Errorf("worker_index %d out of range [0, %d)", d.WorkerIndex, d.WorkerCount)
	}
	if d.DepthIndex < 0 {
		return fmt.Errorf("depth_index must not be negative, got %d", d.DepthIndex)
	}
	if d.Order < 0 {
		return fmt.Errorf("order must not be negative, got %d", d.Order)
	}
	if d.TimeScale <= 0 {
		return fmt.Errorf("time_scale must be positive, got %g", d.TimeScale)
	}
	return nil
}

// Validate checks that a merge run has everything it needs.
func (m *MergeConfig) Validate() error {
	if m.FilePattern == "" {
		return fmt.Errorf("file_pattern is required")
	}
	if m.OutputFilename == "" {
		return fmt.Errorf("output_filename is required")
	}
	if m.PrintLevel < 0 || m.PrintLevel > 2 {
		return fmt.Errorf("print_level must be 0, 1 or 2, got %d", m.PrintLevel)
	}
	return nil
}

// Validate checks the value ranges of the whole configuration.
func (c *Config) Validate() error {
	return validateConfig(c)
}
