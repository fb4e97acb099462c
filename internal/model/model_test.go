package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return &Schema{
		Dimensions: []Dimension{{Name: "depth", Size: 5}, {Name: "lat", Size: 10}, {Name: "lon", Size: 10}},
		Variables: []Variable{
			{Name: "depth", Type: Double, Dimensions: []string{"depth"}},
			{Name: "temp", Type: Float, Dimensions: []string{"depth", "lat", "lon"},
				Attributes: []Attribute{{Name: "units", Value: "degC"}}},
			{Name: "bad", Type: Int, Dimensions: []string{"time"}},
		},
		Attributes: []Attribute{{Name: "filter_scale", Value: []float64{1e4}}},
	}
}

func TestSchemaLookups(t *testing.T) {
	s := testSchema()

	d, ok := s.Dimension("lat")
	require.True(t, ok)
	require.Equal(t, 10, d.Size)

	_, ok = s.Dimension("time")
	require.False(t, ok)

	v, ok := s.Variable("temp")
	require.True(t, ok)
	units, ok := v.Attribute("units")
	require.True(t, ok)
	require.Equal(t, "degC", units.Value)

	_, ok = s.Attribute("filter_scale")
	require.True(t, ok)

	require.True(t, s.IsCoordinate("depth"))
	require.False(t, s.IsCoordinate("temp"))
}

func TestSchemaShape(t *testing.T) {
	s := testSchema()

	shape, err := s.Shape("temp")
	require.NoError(t, err)
	require.Equal(t, []int{5, 10, 10}, shape)

	_, err = s.Shape("missing")
	require.Error(t, err)

	_, err = s.Shape("bad")
	require.ErrorContains(t, err, "undeclared dimension")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"nc", FormatClassic, false},
		{"NetCDF", FormatClassic, false},
		{"h5", FormatHDF5, false},
		{" hdf5 ", FormatHDF5, false},
		{"nc4", FormatNetCDF4, false},
		{"zarr", FormatUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
	require.Equal(t, "h5", FormatHDF5.String())
}
