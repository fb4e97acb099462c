package diagnostics

import (
	"fmt"
	"math"
)

// AreaWeights returns the cell areas R²·cos(lat)·dlat·dlon on a regular
// latitude/longitude grid, as a flat lat-major (nlat×nlon) slice. Angles
// are in radians; the spacings are taken from the first two samples.
func AreaWeights(lat, lon []float64, radius float64) ([]float64, error) {
	if len(lat) < 2 || len(lon) < 2 {
		return nil, fmt.Errorf("need at least two latitudes and longitudes, got %d and %d", len(lat), len(lon))
	}
	dlat := lat[1] - lat[0]
	dlon := lon[1] - lon[0]

	out := make([]float64, 0, len(lat)*len(lon))
	for _, phi := range lat {
		a := radius * radius * math.Cos(phi) * dlat * dlon
		for range lon {
			out = append(out, a)
		}
	}
	return out, nil
}

// MaskedWeights multiplies horizontal areas by mask and repeats the
// result for each of levels vertical levels.
func MaskedWeights(areas, mask []float64, levels int) ([]float64, error) {
	if len(areas) != len(mask) {
		return nil, fmt.Errorf("area has %d points, mask has %d", len(areas), len(mask))
	}
	if levels < 1 {
		return nil, fmt.Errorf("need at least one level, got %d", levels)
	}
	out := make([]float64, 0, levels*len(areas))
	for k := 0; k < levels; k++ {
		for i, a := range areas {
			out = append(out, a*mask[i])
		}
	}
	return out, nil
}

// Block returns the contiguous block of data addressed by the leading
// indices idx of an array with the given shape.
func Block(data []float64, shape []int, idx ...int) ([]float64, error) {
	if len(idx) > len(shape) {
		return nil, fmt.Errorf("%d indices for rank %d", len(idx), len(shape))
	}
	size := 1
	for _, n := range shape[len(idx):] {
		size *= n
	}
	offset := 0
	for i, k := range idx {
		if k < 0 || k >= shape[i] {
			return nil, fmt.Errorf("index %d out of range [0, %d) on axis %d", k, shape[i], i)
		}
		offset = offset*shape[i] + k
	}
	offset *= size
	if offset+size > len(data) {
		return nil, fmt.Errorf("block [%d, %d) beyond %d elements", offset, offset+size, len(data))
	}
	return data[offset : offset+size], nil
}
