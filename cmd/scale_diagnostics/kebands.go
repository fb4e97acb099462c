package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/scigolib/scalemerge"
	"github.com/scigolib/scalemerge/internal/config"
	"github.com/scigolib/scalemerge/internal/diagnostics"
	"github.com/scigolib/scalemerge/internal/frames"
	"github.com/scigolib/scalemerge/internal/model"
)

// keInput is everything a ke-bands frame reads. It is loaded once and
// shared read-only between frames.
type keInput struct {
	scales    []float64
	latitude  []float64
	longitude []float64
	mask      []float64
	velocity  []*field // (scale, time, depth, lat, lon)
	full      []*field // (time, depth, lat, lon); nil without --source
	depth     int
}

func loadKEInput(cfg *config.DiagnosticsConfig) (*keInput, error) {
	src, err := scalemerge.OpenSource(cfg.Input)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	in := &keInput{depth: cfg.DepthIndex}
	coords, err := readFields(src, cfg.ScaleVar, varLatitude, varLongitude)
	if err != nil {
		return nil, err
	}
	in.scales, in.latitude, in.longitude = coords[0].data, coords[1].data, coords[2].data

	mask, err := readField(src, varMask)
	if err != nil {
		return nil, err
	}
	if in.mask, err = mask.horizontal(); err != nil {
		return nil, err
	}

	if in.velocity, err = readFields(src, velocityVars...); err != nil {
		return nil, err
	}
	for _, v := range in.velocity {
		if len(v.shape) != 5 {
			return nil, fmt.Errorf("variable %q has rank %d, expected (scale, time, depth, lat, lon)", v.name, len(v.shape))
		}
		if v.shape[0] != len(in.scales) {
			return nil, fmt.Errorf("variable %q has %d scales, %q has %d", v.name, v.shape[0], cfg.ScaleVar, len(in.scales))
		}
	}

	if cfg.Source != "" {
		full, err := scalemerge.OpenSource(cfg.Source)
		if err != nil {
			return nil, err
		}
		defer full.Close()
		if in.full, err = readFields(full, sourceVars...); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (in *keInput) frameCount() int {
	return in.velocity[0].shape[1]
}

// frame computes the diagnostics of time index t.
func (in *keInput) frame(t int) (*output, error) {
	components := make([][][]float64, len(in.velocity))
	for c, v := range in.velocity {
		b, err := v.bands(t, in.depth)
		if err != nil {
			return nil, err
		}
		components[c] = b
	}

	ns := len(in.scales)
	nlat, nlon := len(in.latitude), len(in.longitude)
	if len(in.mask) != nlat*nlon {
		return nil, fmt.Errorf("mask has %d points, grid has %d", len(in.mask), nlat*nlon)
	}

	dims := []model.Dimension{
		{Name: "scale", Size: ns},
		{Name: varLatitude, Size: nlat},
		{Name: varLongitude, Size: nlon},
	}
	if ns > 1 {
		dims = append(dims, model.Dimension{Name: "split", Size: ns - 1})
	}
	out := newOutput(dims...)
	out.attr("frame", []int32{int32(t)})
	out.attr("depth_index", []int32{int32(in.depth)})

	grid := []string{varLatitude, varLongitude}
	out.add("scale", []string{"scale"}, in.scales, model.Attribute{Name: "units", Value: "m"})
	out.add(varLatitude, []string{varLatitude}, in.latitude, model.Attribute{Name: "units", Value: "radians"})
	out.add(varLongitude, []string{varLongitude}, in.longitude, model.Attribute{Name: "units", Value: "radians"})
	out.add(varMask, grid, in.mask)

	bands, err := diagnostics.BandKineticEnergy(components...)
	if err != nil {
		return nil, err
	}
	out.add("KE", []string{"scale", varLatitude, varLongitude}, concat(bands),
		model.Attribute{Name: "long_name", Value: "band kinetic energy"},
		model.Attribute{Name: "units", Value: "m2 s-2"})

	if in.full != nil {
		full := make([][]float64, len(in.full))
		for c, f := range in.full {
			b, err := f.block(t, in.depth)
			if err != nil {
				return nil, err
			}
			full[c] = b
		}
		ke, err := diagnostics.KineticEnergy(full...)
		if err != nil {
			return nil, err
		}
		residual, err := diagnostics.Residual(ke, components...)
		if err != nil {
			return nil, err
		}
		out.add("KE_residual", grid, residual,
			model.Attribute{Name: "long_name", Value: "unfiltered minus band-sum kinetic energy"},
			model.Attribute{Name: "units", Value: "m2 s-2"})
	}

	if ns > 1 {
		below := make([][]float64, ns-1)
		above := make([][]float64, ns-1)
		for split := 0; split < ns-1; split++ {
			if below[split], above[split], err = diagnostics.Dichotomy(split, components...); err != nil {
				return nil, err
			}
		}
		splitDims := []string{"split", varLatitude, varLongitude}
		out.add("KE_below", splitDims, concat(below),
			model.Attribute{Name: "long_name", Value: "kinetic energy of bands up to split"})
		out.add("KE_above", splitDims, concat(above),
			model.Attribute{Name: "long_name", Value: "kinetic energy of bands past split"})
	}
	return out, nil
}

func concat(rows [][]float64) []float64 {
	n := 0
	for _, r := range rows {
		n += len(r)
	}
	out := make([]float64, 0, n)
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

// framePath names the output file of frame t.
func framePath(dir string, t int) string {
	return filepath.Join(dir, fmt.Sprintf("KE_bands_%04d.nc", t))
}

func runKEBands(ctx context.Context, cfg *config.DiagnosticsConfig, logger *zap.Logger) error {
	in, err := loadKEInput(cfg)
	if err != nil {
		return err
	}

	assigned, err := frames.Assign(cfg.WorkerIndex, cfg.WorkerCount, in.frameCount())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	logger.Info("computing band kinetic energy",
		zap.String("input", cfg.Input),
		zap.Int("frames", len(assigned)),
		zap.Int("worker", cfg.WorkerIndex),
		zap.Int("workers", cfg.WorkerCount))

	return frames.Run(ctx, assigned, cfg.Jobs, func(_ context.Context, t int) error {
		out, err := in.frame(t)
		if err != nil {
			return err
		}
		path := framePath(cfg.OutputDir, t)
		if err := out.write(path); err != nil {
			return err
		}
		logger.Debug("wrote frame", zap.Int("frame", t), zap.String("file", path))
		return nil
	})
}
