// Package diagnostics computes band-wise energy and enstrophy diagnostics
// from merged multi-scale output.
//
// All fields are flat row-major []float64 slices. A stack of bands is a
// [][]float64 indexed by scale, smallest scale first.
package diagnostics

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Physical constants.
const (
	EarthRadius      = 6371e3 // m
	ReferenceDensity = 1e3    // kg m-3
)

var errNoData = errors.New("no input fields")

func checkLengths(fields ...[]float64) (int, error) {
	if len(fields) == 0 {
		return 0, errNoData
	}
	n := len(fields[0])
	for i, f := range fields[1:] {
		if len(f) != n {
			return 0, fmt.Errorf("field %d has %d points, expected %d", i+1, len(f), n)
		}
	}
	return n, nil
}

// KineticEnergy returns 0.5 * sum of squared components at every point.
func KineticEnergy(components ...[]float64) ([]float64, error) {
	n, err := checkLengths(components...)
	if err != nil {
		return nil, err
	}
	ke := make([]float64, n)
	sq := make([]float64, n)
	for _, c := range components {
		copy(sq, c)
		floats.Mul(sq, c)
		floats.Add(ke, sq)
	}
	floats.Scale(0.5, ke)
	return ke, nil
}

// SumRange returns the point-wise sum of bands[from:to].
func SumRange(bands [][]float64, from, to int) ([]float64, error) {
	if from < 0 || to > len(bands) || from >= to {
		return nil, fmt.Errorf("band range [%d, %d) invalid for %d bands", from, to, len(bands))
	}
	n, err := checkLengths(bands[from:to]...)
	if err != nil {
		return nil, err
	}
	sum := make([]float64, n)
	for _, b := range bands[from:to] {
		floats.Add(sum, b)
	}
	return sum, nil
}

// BandSum returns the point-wise sum over all bands.
func BandSum(bands [][]float64) ([]float64, error) {
	return SumRange(bands, 0, len(bands))
}

// BandKineticEnergy returns the kinetic energy of each band from its
// velocity components.
func BandKineticEnergy(components ...[][]float64) ([][]float64, error) {
	if len(components) == 0 {
		return nil, errNoData
	}
	nb := len(components[0])
	out := make([][]float64, nb)
	for s := 0; s < nb; s++ {
		band := make([][]float64, len(components))
		for c, comp := range components {
			if len(comp) != nb {
				return nil, fmt.Errorf("component %d has %d bands, expected %d", c, len(comp), nb)
			}
			band[c] = comp[s]
		}
		ke, err := KineticEnergy(band...)
		if err != nil {
			return nil, fmt.Errorf("band %d: %w", s, err)
		}
		out[s] = ke
	}
	return out, nil
}

// rangeKineticEnergy is the kinetic energy of the velocity obtained by
// summing bands [from, to) of every component.
func rangeKineticEnergy(from, to int, components ...[][]float64) ([]float64, error) {
	sums := make([][]float64, len(components))
	for c, comp := range components {
		s, err := SumRange(comp, from, to)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", c, err)
		}
		sums[c] = s
	}
	return KineticEnergy(sums...)
}

// Residual returns full minus the kinetic energy of the band-summed
// velocity: the energy that the bands fail to reconstruct.
func Residual(full []float64, components ...[][]float64) ([]float64, error) {
	if len(components) == 0 {
		return nil, errNoData
	}
	bandsum, err := rangeKineticEnergy(0, len(components[0]), components...)
	if err != nil {
		return nil, err
	}
	if len(bandsum) != len(full) {
		return nil, fmt.Errorf("full field has %d points, bands have %d", len(full), len(bandsum))
	}
	out := make([]float64, len(full))
	floats.SubTo(out, full, bandsum)
	return out, nil
}

// Dichotomy splits the bands after index split and returns the kinetic
// energy of the summed velocity below (bands 0..split) and above
// (bands split+1..) the split.
func Dichotomy(split int, components ...[][]float64) (below, above []float64, err error) {
	if len(components) == 0 {
		return nil, nil, errNoData
	}
	nb := len(components[0])
	if split < 0 || split >= nb-1 {
		return nil, nil, fmt.Errorf("split %d out of range [0, %d)", split, nb-1)
	}
	if below, err = rangeKineticEnergy(0, split+1, components...); err != nil {
		return nil, nil, err
	}
	if above, err = rangeKineticEnergy(split+1, nb, components...); err != nil {
		return nil, nil, err
	}
	return below, above, nil
}
