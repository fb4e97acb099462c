package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/scigolib/scalemerge"
	"github.com/scigolib/scalemerge/internal/config"
	"github.com/scigolib/scalemerge/internal/diagnostics"
	"github.com/scigolib/scalemerge/internal/model"
)

func runEnstrophyFlux(ctx context.Context, cfg *config.DiagnosticsConfig, logger *zap.Logger) error {
	src, err := scalemerge.OpenSource(cfg.Input)
	if err != nil {
		return err
	}
	defer src.Close()

	in, scales, err := loadFluxInput(src, cfg)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := diagnostics.EnstrophyFlux(*in)
	if err != nil {
		return err
	}

	nt, nb := res.Flux.Dims()
	out := newOutput(
		model.Dimension{Name: varTime, Size: nt},
		model.Dimension{Name: "band", Size: nb},
	)
	out.attr("density", []float64{diagnostics.ReferenceDensity})
	out.add(varTime, []string{varTime}, in.Time, model.Attribute{Name: "units", Value: "s"})
	out.add("band", []string{"band"}, scales[:nb],
		model.Attribute{Name: "long_name", Value: "filter scale below which enstrophy is removed"},
		model.Attribute{Name: "units", Value: "m"})
	out.add("net_EN_flux", []string{varTime, "band"}, res.Flux.RawMatrix().Data,
		model.Attribute{Name: "long_name", Value: "area integral of d/dt of large-scale enstrophy"})
	if res.Lambda != nil {
		out.add("net_lambda", []string{varTime, "band"}, res.Lambda.RawMatrix().Data,
			model.Attribute{Name: "long_name", Value: "area integral of baroclinic transfer"})
	}

	if err := out.write(cfg.Output); err != nil {
		return err
	}
	logger.Info("wrote enstrophy flux",
		zap.String("output", cfg.Output),
		zap.Int("times", nt),
		zap.Int("bands", nb),
		zap.Bool("lambda", res.Lambda != nil))
	return nil
}

// loadFluxInput reads the vorticity stack, the optional baroclinic
// transfer and the grid weights of a merged file.
func loadFluxInput(src scalemerge.Source, cfg *config.DiagnosticsConfig) (*diagnostics.FluxInput, []float64, error) {
	coords, err := readFields(src, cfg.ScaleVar, varTime, varLatitude, varLongitude, varMask)
	if err != nil {
		return nil, nil, err
	}
	scales, times, lat, lon, maskField := coords[0].data, coords[1].data, coords[2].data, coords[3].data, coords[4]

	in := &diagnostics.FluxInput{
		Time:  make([]float64, len(times)),
		Order: cfg.Order,
	}
	for i, t := range times {
		in.Time[i] = t * cfg.TimeScale
	}

	vort, err := readFields(src, vorticityVars...)
	if err != nil {
		return nil, nil, err
	}
	for _, v := range vort {
		if len(v.shape) < 4 {
			return nil, nil, fmt.Errorf("variable %q has rank %d, expected (scale, time, ..., lat, lon)", v.name, len(v.shape))
		}
		f, err := v.stack()
		if err != nil {
			return nil, nil, err
		}
		in.Vorticity = append(in.Vorticity, f)
	}

	if _, ok := src.Schema().Variable(varLambda); ok {
		lambda, err := readField(src, varLambda)
		if err != nil {
			return nil, nil, err
		}
		if in.Lambda, err = lambda.stack(); err != nil {
			return nil, nil, err
		}
	}

	mask, err := maskField.horizontal()
	if err != nil {
		return nil, nil, err
	}
	areas, err := diagnostics.AreaWeights(lat, lon, diagnostics.EarthRadius)
	if err != nil {
		return nil, nil, err
	}
	// Everything between time and the horizontal grid counts as levels.
	levels := 1
	for _, n := range vort[0].shape[2 : len(vort[0].shape)-2] {
		levels *= n
	}
	if in.Weights, err = diagnostics.MaskedWeights(areas, mask, levels); err != nil {
		return nil, nil, err
	}
	return in, scales, nil
}
