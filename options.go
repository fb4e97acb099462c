package scalemerge

import (
	"io"

	"go.uber.org/zap"
)

// Print levels.
const (
	// PrintSilent shows at most a progress bar.
	PrintSilent = 0
	// PrintVariables logs every dimension and variable.
	PrintVariables = 1
	// PrintFiles also logs every file read for every variable.
	PrintFiles = 2
)

// Defaults used when no option overrides them.
const (
	DefaultScaleAttribute = "filter_scale"
	DefaultScaleDimension = "ell"
)

// DroppedAttributes are never copied onto output variables: they describe
// a packing transform that no longer holds for the stacked data.
var DroppedAttributes = []string{"scale_factor", "add_offset"}

// MergeConfig holds the settings of one merge run.
type MergeConfig struct {
	PrintLevel     int
	Logger         *zap.Logger
	ScaleAttribute string
	ScaleDimension string
	OutputFormat   Format // FormatUnknown selects by output extension
	Progress       io.Writer
}

// Option configures a merge run.
type Option func(*MergeConfig)

func defaultConfig() *MergeConfig {
	return &MergeConfig{
		PrintLevel:     PrintSilent,
		Logger:         zap.NewNop(),
		ScaleAttribute: DefaultScaleAttribute,
		ScaleDimension: DefaultScaleDimension,
		OutputFormat:   FormatUnknown,
	}
}

// WithPrintLevel sets the verbosity (PrintSilent, PrintVariables or PrintFiles).
// Values outside the range are clamped.
func WithPrintLevel(level int) Option {
	return func(cfg *MergeConfig) {
		switch {
		case level < PrintSilent:
			level = PrintSilent
		case level > PrintFiles:
			level = PrintFiles
		}
		cfg.PrintLevel = level
	}
}

// WithLogger sets the logger used at print levels 1 and 2.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *MergeConfig) {
		if logger != nil {
			cfg.Logger = logger
		}
	}
}

// WithScaleAttribute sets the global attribute that holds each file's filter scale.
func WithScaleAttribute(name string) Option {
	return func(cfg *MergeConfig) {
		if name != "" {
			cfg.ScaleAttribute = name
		}
	}
}

// WithScaleDimension sets the name of the new leading dimension and its coordinate variable.
func WithScaleDimension(name string) Option {
	return func(cfg *MergeConfig) {
		if name != "" {
			cfg.ScaleDimension = name
		}
	}
}

// WithOutputFormat forces the output container format.
//
// Example:
//
//	report, err := scalemerge.Merge("postprocess_*.nc", "merged.h5",
//	    scalemerge.WithOutputFormat(scalemerge.FormatHDF5))
func WithOutputFormat(format Format) Option {
	return func(cfg *MergeConfig) {
		cfg.OutputFormat = format
	}
}

// WithProgress draws a progress bar on w at print level 0.
func WithProgress(w io.Writer) Option {
	return func(cfg *MergeConfig) {
		cfg.Progress = w
	}
}
