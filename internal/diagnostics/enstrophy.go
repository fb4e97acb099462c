package diagnostics

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Field is a stacked variable split by scale and time:
// Field[s][t] is the flat spatial block at scale index s and time index t.
type Field [][][]float64

func (f Field) dims() (scales, times, points int) {
	if len(f) == 0 || len(f[0]) == 0 {
		return len(f), 0, 0
	}
	return len(f), len(f[0]), len(f[0][0])
}

// FluxInput holds everything EnstrophyFlux needs.
type FluxInput struct {
	Time      []float64 // seconds, strictly increasing
	Vorticity []Field   // vorticity components, all the same shape
	Lambda    Field     // baroclinic transfer; nil to skip
	Weights   []float64 // area×mask per spatial point
	Density   float64   // zero selects ReferenceDensity
	Order     int       // zero selects DefaultOrder(len(Time))
}

// FluxResult holds the spatially integrated time series. Both matrices
// have one row per time and one column per band boundary (scales-1).
type FluxResult struct {
	Flux   *mat.Dense
	Lambda *mat.Dense // nil when FluxInput.Lambda is nil
}

// EnstrophyFlux computes, for every band boundary s, the weighted spatial
// integral of d/dt(½ρ₀|Σ_{s'>s} ω_{s'}|²), and the same integral of the
// baroclinic transfer at scale s when one is given.
func EnstrophyFlux(in FluxInput) (*FluxResult, error) {
	if len(in.Vorticity) == 0 {
		return nil, errNoData
	}
	ns, nt, np := in.Vorticity[0].dims()
	if ns < 2 {
		return nil, fmt.Errorf("need at least two scales, got %d", ns)
	}
	if nt != len(in.Time) {
		return nil, fmt.Errorf("vorticity has %d times, time axis has %d", nt, len(in.Time))
	}
	if np != len(in.Weights) {
		return nil, fmt.Errorf("vorticity has %d points, weights have %d", np, len(in.Weights))
	}
	for c, f := range in.Vorticity[1:] {
		if s, t, p := f.dims(); s != ns || t != nt || p != np {
			return nil, fmt.Errorf("vorticity component %d has shape (%d,%d,%d), expected (%d,%d,%d)",
				c+1, s, t, p, ns, nt, np)
		}
	}
	if in.Lambda != nil {
		if s, t, p := in.Lambda.dims(); s < ns-1 || t != nt || p != np {
			return nil, fmt.Errorf("lambda has shape (%d,%d,%d), expected at least (%d,%d,%d)",
				s, t, p, ns-1, nt, np)
		}
	}

	rho := in.Density
	if rho == 0 {
		rho = ReferenceDensity
	}
	order := in.Order
	if order == 0 {
		order = DefaultOrder(nt)
	}
	d, err := DerivativeMatrix(in.Time, order)
	if err != nil {
		return nil, err
	}

	res := &FluxResult{Flux: mat.NewDense(nt, ns-1, nil)}
	if in.Lambda != nil {
		res.Lambda = mat.NewDense(nt, ns-1, nil)
	}

	for s := 0; s < ns-1; s++ {
		en := mat.NewDense(nt, np, nil)
		for t := 0; t < nt; t++ {
			row := en.RawRowView(t)
			for _, comp := range in.Vorticity {
				sum := make([]float64, np)
				for k := s + 1; k < ns; k++ {
					floats.Add(sum, comp[k][t])
				}
				floats.Mul(sum, sum)
				floats.Add(row, sum)
			}
			floats.Scale(0.5*rho, row)
		}

		flux, err := TimeDerivative(d, en)
		if err != nil {
			return nil, err
		}
		for t := 0; t < nt; t++ {
			res.Flux.Set(t, s, floats.Dot(flux.RawRowView(t), in.Weights))
			if in.Lambda != nil {
				res.Lambda.Set(t, s, floats.Dot(in.Lambda[s][t], in.Weights))
			}
		}
	}
	return res, nil
}
