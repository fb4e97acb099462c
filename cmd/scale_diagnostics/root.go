package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scigolib/scalemerge/internal/config"
	"github.com/scigolib/scalemerge/internal/logging"
)

// Command and flag names.
const (
	CmdKEBands       = "ke-bands"
	CmdEnstrophyFlux = "enstrophy-flux"

	FlagConfig        = "config"
	FlagLogMode       = "log_mode"
	FlagInput         = "input"
	FlagScaleVariable = "scale_variable"
	FlagJobs          = "jobs"
	FlagSource        = "source"
	FlagOutputDir     = "output_dir"
	FlagOutput        = "output"
	FlagDepthIndex    = "depth_index"
	FlagWorkerIndex   = "worker_index"
	FlagWorkerCount   = "worker_count"
	FlagOrder         = "order"
	FlagTimeScale     = "time_scale"
)

// Variable names expected in the merged file.
const (
	varLatitude  = "latitude"
	varLongitude = "longitude"
	varTime      = "time"
	varMask      = "mask"
	varLambda    = "baroclinic_transfer"
)

var (
	velocityVars  = []string{"u_r", "u_lon", "u_lat"}
	vorticityVars = []string{"vort_r", "vort_lon", "vort_lat"}
	sourceVars    = []string{"uo", "vo"}
)

// rootOptions holds flag values. Only flags the user set override the
// run file.
type rootOptions struct {
	configPath  string
	logMode     string
	input       string
	scaleVar    string
	jobs        int
	source      string
	outputDir   string
	output      string
	depthIndex  int
	workerIndex int
	workerCount int
	order       int
	timeScale   float64
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "scale_diagnostics",
		Short: "Band diagnostics for merged multi-scale output",
		Long: `Band diagnostics for merged multi-scale output.

COMMANDS:
  ke-bands        per-frame kinetic energy of every band, the band-sum
                  residual against the unfiltered velocity and the
                  above/below dichotomies, one NetCDF file per frame
  enstrophy-flux  net rate of change of large-scale enstrophy and net
                  baroclinic transfer per band boundary

Frames of ke-bands are split between processes with --worker_index and
--worker_count, and between goroutines with --jobs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pflags := root.PersistentFlags()
	pflags.StringVar(&opts.configPath, FlagConfig, "", "YAML run file")
	pflags.StringVar(&opts.logMode, FlagLogMode, "dev", "logger mode: dev, prod or silent")
	pflags.StringVar(&opts.input, FlagInput, "", "merged multi-scale file")
	pflags.StringVar(&opts.scaleVar, FlagScaleVariable, "ell", "scale coordinate variable")
	pflags.IntVar(&opts.jobs, FlagJobs, 1, "frames processed concurrently")

	keCmd := &cobra.Command{
		Use:   CmdKEBands,
		Short: "Write band kinetic energy maps, one file per frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runKEBands(cmd.Context(), &cfg.Diagnostics, logger)
		},
	}
	kflags := keCmd.Flags()
	kflags.StringVar(&opts.source, FlagSource, "", "unfiltered file holding uo and vo (enables the residual)")
	kflags.StringVar(&opts.outputDir, FlagOutputDir, "Diagnostics", "directory for the per-frame files")
	kflags.IntVar(&opts.depthIndex, FlagDepthIndex, 0, "depth level to extract")
	kflags.IntVar(&opts.workerIndex, FlagWorkerIndex, 0, "index of this worker")
	kflags.IntVar(&opts.workerCount, FlagWorkerCount, 1, "total number of workers")

	enCmd := &cobra.Command{
		Use:   CmdEnstrophyFlux,
		Short: "Write net enstrophy flux and baroclinic transfer time series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runEnstrophyFlux(cmd.Context(), &cfg.Diagnostics, logger)
		},
	}
	eflags := enCmd.Flags()
	eflags.StringVar(&opts.output, FlagOutput, "EN_fluxes.nc", "output file")
	eflags.IntVar(&opts.order, FlagOrder, 0, "finite difference order (0 selects 4, or fewer for short series)")
	eflags.Float64Var(&opts.timeScale, FlagTimeScale, 3600, "seconds per unit of the time coordinate")

	root.AddCommand(keCmd, enCmd)
	return root
}

// setup resolves the configuration and builds the logger.
func setup(cmd *cobra.Command, opts *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg := config.GetDefaultConfig()
	if opts.configPath != "" {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	d := &cfg.Diagnostics
	flags := cmd.Flags()
	if flags.Changed(FlagLogMode) {
		cfg.LogMode = opts.logMode
	}
	if flags.Changed(FlagInput) {
		d.Input = opts.input
	}
	if flags.Changed(FlagScaleVariable) {
		d.ScaleVar = opts.scaleVar
	}
	if flags.Changed(FlagJobs) {
		d.Jobs = opts.jobs
	}
	if flags.Changed(FlagSource) {
		d.Source = opts.source
	}
	if flags.Changed(FlagOutputDir) {
		d.OutputDir = opts.outputDir
	}
	if flags.Changed(FlagOutput) {
		d.Output = opts.output
	}
	if flags.Changed(FlagDepthIndex) {
		d.DepthIndex = opts.depthIndex
	}
	if flags.Changed(FlagWorkerIndex) {
		d.WorkerIndex = opts.workerIndex
	}
	if flags.Changed(FlagWorkerCount) {
		d.WorkerCount = opts.workerCount
	}
	if flags.Changed(FlagOrder) {
		d.Order = opts.order
	}
	if flags.Changed(FlagTimeScale) {
		d.TimeScale = opts.timeScale
	}
	if d.Output == "" {
		d.Output = opts.output
	}

	if d.Input == "" {
		return nil, nil, fmt.Errorf("invalid arguments: %s is required", FlagInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid arguments: %w", err)
	}

	logger, err := logging.New(cfg.LogMode, zapcore.InfoLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
