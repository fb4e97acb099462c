package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scigolib/scalemerge"
	"github.com/scigolib/scalemerge/internal/config"
	"github.com/scigolib/scalemerge/internal/logging"
	"github.com/scigolib/scalemerge/internal/model"
)

// Flag names.
const (
	FlagConfig         = "config"
	FlagFilePattern    = "file_pattern"
	FlagOutputFilename = "output_filename"
	FlagPrintLevel     = "print_level"
	FlagFormat         = "format"
	FlagScaleAttribute = "scale_attribute"
	FlagScaleDimension = "scale_dimension"
	FlagLogMode        = "log_mode"
)

type rootOptions struct {
	configPath     string
	filePattern    string
	outputFilename string
	printLevel     int
	format         string
	scaleAttribute string
	scaleDimension string
	logMode        string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "merge_scales",
		Short: "Merge per-filter-scale result files into one file",
		Long: `Merge per-filter-scale result files into one file.

Every file matching --file_pattern must hold the same dimensions and
variables and a global attribute naming its filter scale. The output gains
a leading scale dimension sorted by ascending scale; coordinate variables
are copied once, everything else is stacked along the new dimension.

PRINT LEVELS:
  0  progress bar only
  1  log every dimension and variable
  2  also log every file read for every variable

EXAMPLES:
  merge_scales --file_pattern 'postprocess_*.nc' --output_filename postprocess.nc
  merge_scales --config run.yaml --print_level 2
  merge_scales --file_pattern 'out_*.nc' --output_filename out.h5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMerge(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, FlagConfig, "", "YAML run file")
	flags.StringVar(&opts.filePattern, FlagFilePattern, "", "glob matching the per-scale input files")
	flags.StringVar(&opts.outputFilename, FlagOutputFilename, "", "path of the merged file")
	flags.IntVar(&opts.printLevel, FlagPrintLevel, 0, "verbosity: 0, 1 or 2")
	flags.StringVar(&opts.format, FlagFormat, "", "output format: nc or h5 (default from extension)")
	flags.StringVar(&opts.scaleAttribute, FlagScaleAttribute, scalemerge.DefaultScaleAttribute, "global attribute holding the filter scale")
	flags.StringVar(&opts.scaleDimension, FlagScaleDimension, scalemerge.DefaultScaleDimension, "name of the new scale dimension")
	flags.StringVar(&opts.logMode, FlagLogMode, "dev", "logger mode: dev or prod")

	return cmd
}

// resolveConfig loads the run file, if any, and applies explicit flags on top.
func resolveConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg := config.GetDefaultConfig()
	if opts.configPath != "" {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed(FlagFilePattern) {
		cfg.Merge.FilePattern = opts.filePattern
	}
	if flags.Changed(FlagOutputFilename) {
		cfg.Merge.OutputFilename = opts.outputFilename
	}
	if flags.Changed(FlagPrintLevel) {
		cfg.Merge.PrintLevel = opts.printLevel
	}
	if flags.Changed(FlagFormat) {
		cfg.Merge.Format = opts.format
	}
	if flags.Changed(FlagScaleAttribute) {
		cfg.Merge.ScaleAttribute = opts.scaleAttribute
	}
	if flags.Changed(FlagScaleDimension) {
		cfg.Merge.ScaleDimension = opts.scaleDimension
	}
	if flags.Changed(FlagLogMode) {
		cfg.LogMode = opts.logMode
	}

	if err := cfg.Merge.Validate(); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return cfg, nil
}

// mergeOptions translates a run configuration into library options.
func mergeOptions(cfg *config.Config, logger *zap.Logger) ([]scalemerge.Option, error) {
	m := cfg.Merge
	opts := []scalemerge.Option{
		scalemerge.WithPrintLevel(m.PrintLevel),
		scalemerge.WithLogger(logger),
		scalemerge.WithScaleAttribute(m.ScaleAttribute),
		scalemerge.WithScaleDimension(m.ScaleDimension),
	}
	if m.Format != "" {
		format, err := model.ParseFormat(m.Format)
		if err != nil {
			return nil, err
		}
		opts = append(opts, scalemerge.WithOutputFormat(format))
	}
	if m.PrintLevel == scalemerge.PrintSilent {
		opts = append(opts, scalemerge.WithProgress(os.Stderr))
	}
	return opts, nil
}

func runMerge(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogMode, zapcore.InfoLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	mopts, err := mergeOptions(cfg, logger)
	if err != nil {
		return err
	}

	report, err := scalemerge.MergeWithContext(cmd.Context(), cfg.Merge.FilePattern, cfg.Merge.OutputFilename, mopts...)
	if err != nil {
		return err
	}

	if cfg.Merge.PrintLevel > scalemerge.PrintSilent {
		fmt.Fprintf(cmd.OutOrStdout(), "merged %d files into %s (%s)\n",
			len(report.Files), report.Output, report.Format)
	}
	return nil
}
