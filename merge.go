// Package scalemerge merges per-filter-scale result files into one file.
//
// Each input holds the same dimensions and variables and a global
// attribute naming the filter scale that produced it. The merged file
// gains a new leading dimension, one entry per input, sorted by
// ascending scale. Dimension-coordinate variables are copied once from
// the first input in sorted order; every other variable is stacked along
// the new dimension.
//
// Example:
//
//	report, err := scalemerge.Merge("postprocess_*.nc", "postprocess.nc",
//	    scalemerge.WithPrintLevel(scalemerge.PrintVariables),
//	    scalemerge.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(report.Scales)
package scalemerge

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/scigolib/scalemerge/internal/model"
	"github.com/scigolib/scalemerge/internal/utils"
)

// Report summarizes a completed merge.
type Report struct {
	Output     string
	Format     Format
	Files      []string  // inputs in sorted order
	Scales     []float64 // ascending
	Dimensions int       // dimensions copied from the inputs
	Variables  int       // variables copied from the inputs
}

// Merge merges every file matching pattern into output.
// See MergeWithContext.
func Merge(pattern, output string, opts ...Option) (*Report, error) {
	return MergeWithContext(context.Background(), pattern, output, opts...)
}

// MergeWithContext merges every file matching pattern into output.
//
// The output is created (or truncated) only after every input has been
// opened, its scale read and its catalog checked against the first input
// in sorted order. Any later failure, including cancellation of ctx,
// removes the partially written output.
func MergeWithContext(ctx context.Context, pattern, output string, opts ...Option) (*Report, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.Logger

	log.Info("merging files", zap.String("pattern", pattern), zap.String("output", output))

	files, err := findInputs(pattern, output)
	if err != nil {
		return nil, err
	}
	log.Info("identified files for merging", zap.Int("files", len(files)))

	entries, err := openInputs(files, cfg.ScaleAttribute)
	if err != nil {
		return nil, err
	}
	defer closeAll(entries)

	sortByScale(entries)

	ref := entries[0].source.Schema()
	if err := checkScaleName(ref, cfg.ScaleDimension); err != nil {
		return nil, utils.KindErrorf(ErrIncompatibleSchema, err, "%s", entries[0].source.Path())
	}
	if err := checkDimensionSizes(ref); err != nil {
		return nil, utils.KindErrorf(ErrIncompatibleSchema, err, "%s", entries[0].source.Path())
	}
	for _, e := range entries[1:] {
		if err := checkCompatible(ref, e.source.Schema()); err != nil {
			return nil, utils.KindErrorf(ErrIncompatibleSchema, err,
				"%s differs from %s", e.source.Path(), entries[0].source.Path())
		}
	}
	log.Info("identified dimensions and variables to copy",
		zap.Int("dimensions", len(ref.Dimensions)),
		zap.Int("variables", len(ref.Variables)))

	report := &Report{
		Output:     output,
		Format:     OutputFormat(output, cfg.OutputFormat),
		Files:      make([]string, len(entries)),
		Scales:     make([]float64, len(entries)),
		Dimensions: len(ref.Dimensions),
		Variables:  len(ref.Variables),
	}
	for i, e := range entries {
		report.Files[i] = e.source.Path()
		report.Scales[i] = e.value
	}

	if err := ctx.Err(); err != nil {
		return nil, utils.KindErrorf(ErrIOFailure, err, "merge cancelled")
	}

	if created, err := write(ctx, cfg, entries, report); err != nil {
		if created {
			if rmErr := os.Remove(output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				log.Warn("failed to remove partial output", zap.String("output", output), zap.Error(rmErr))
			}
		}
		return nil, err
	}

	log.Info("done", zap.String("output", output), zap.Float64s("scales", report.Scales))
	return report, nil
}

// write creates the output and copies every variable into it. created
// reports whether the output file was created or truncated by this call.
func write(ctx context.Context, cfg *MergeConfig, entries []scaleEntry, report *Report) (created bool, err error) {
	ref := entries[0].source.Schema()
	schema := outputSchema(ref, len(entries), cfg)

	sink, err := createSink(report.Output, report.Format)
	if err != nil {
		if errors.Is(err, model.ErrUnsupported) {
			return false, utils.KindErrorf(ErrIncompatibleSchema, err, "output %s", report.Output)
		}
		return false, utils.KindErrorf(ErrIOFailure, err, "create output")
	}

	rep := newReporter(cfg)
	err = copyAll(ctx, sink, schema, ref, entries, report, rep)
	rep.stop()

	if err != nil {
		_ = sink.Close()
		return true, err
	}
	if err := sink.Close(); err != nil {
		return true, utils.KindErrorf(ErrIOFailure, err, "finish output")
	}
	return true, nil
}

func copyAll(ctx context.Context, sink model.Sink, schema, ref *Schema,
	entries []scaleEntry, report *Report, rep *reporter) error {
	for _, d := range ref.Dimensions {
		rep.dimension(d)
	}
	for i := range schema.Variables {
		rep.variable(&schema.Variables[i])
	}

	if err := sink.Define(schema); err != nil {
		if errors.Is(err, model.ErrUnsupported) {
			return utils.KindErrorf(ErrIncompatibleSchema, err, "output %s", report.Output)
		}
		return utils.KindErrorf(ErrIOFailure, err, "define output")
	}

	scaleDim := schema.Variables[0].Name
	if err := sink.Write(scaleDim, append([]float64(nil), report.Scales...)); err != nil {
		return utils.KindErrorf(ErrIOFailure, err, "write scale coordinate")
	}

	rep.start(len(ref.Variables))
	for i := range ref.Variables {
		name := ref.Variables[i].Name
		if err := ctx.Err(); err != nil {
			return utils.KindErrorf(ErrIOFailure, err, "merge cancelled before %q", name)
		}
		rep.copying(name)

		if ref.IsCoordinate(name) {
			if err := copyCoordinate(sink, entries[0].source, name); err != nil {
				return err
			}
		} else {
			if err := copyStacked(ctx, sink, entries, name, rep); err != nil {
				return err
			}
		}
		rep.copied()
	}
	return nil
}

// copyCoordinate copies a dimension-coordinate variable from src unchanged.
func copyCoordinate(sink model.Sink, src Source, name string) error {
	data, err := src.Read(name)
	if err != nil {
		return utils.KindErrorf(ErrIOFailure, err, "read %q", name)
	}
	if err := sink.Write(name, data); err != nil {
		return utils.KindErrorf(ErrIOFailure, err, "write %q", name)
	}
	return nil
}

// copyStacked writes variable name of the i-th sorted input at index i of
// the scale axis.
func copyStacked(ctx context.Context, sink model.Sink, entries []scaleEntry, name string, rep *reporter) error {
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return utils.KindErrorf(ErrIOFailure, err, "merge cancelled in %q", name)
		}
		rep.file(name, e.source.Path(), i)

		data, err := e.source.Read(name)
		if err != nil {
			return utils.KindErrorf(ErrIOFailure, err, "read %q", name)
		}
		if err := sink.WriteSlab(name, i, data); err != nil {
			return utils.KindErrorf(ErrIOFailure, err, "write %q slab %d from %s", name, i, e.source.Path())
		}
	}
	return nil
}
