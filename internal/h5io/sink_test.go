package h5io

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/scigolib/hdf5"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/scalemerge/internal/model"
)

func testSchema() *model.Schema {
	return &model.Schema{
		Dimensions: []model.Dimension{{Name: "ell", Size: 2}, {Name: "depth", Size: 3}},
		Variables: []model.Variable{
			{Name: "ell", Type: model.Double, Dimensions: []string{"ell"},
				Attributes: []model.Attribute{{Name: "long_name", Value: "filter_scale"}}},
			{Name: "depth", Type: model.Float, Dimensions: []string{"depth"},
				Attributes: []model.Attribute{{Name: "units", Value: "m"}}},
			{Name: "temp", Type: model.Double, Dimensions: []string{"ell", "depth"},
				Attributes: []model.Attribute{
					{Name: "units", Value: "degC"},
					{Name: "valid_range", Value: []float32{-2, 40}},
				}},
		},
		Attributes: []model.Attribute{{Name: "title", Value: "merged"}},
	}
}

func datasets(t *testing.T, path string) map[string]*hdf5.Dataset {
	t.Helper()
	f, err := hdf5.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	found := make(map[string]*hdf5.Dataset)
	f.Walk(func(p string, obj hdf5.Object) {
		if ds, ok := obj.(*hdf5.Dataset); ok {
			found[p] = ds
		}
	})
	return found
}

func TestSinkWritesReadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged.h5")

	sink, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, sink.Define(testSchema()))
	require.NoError(t, sink.Write("ell", []float64{1e4, 2.5e4}))
	require.NoError(t, sink.Write("depth", []float32{0, 5, 10}))
	require.NoError(t, sink.WriteSlab("temp", 1, []float64{4, 5, 6}))
	require.NoError(t, sink.WriteSlab("temp", 0, []float64{1, 2, 3}))
	require.NoError(t, sink.Close())

	found := datasets(t, path)
	for _, name := range []string{"/ell", "/depth", "/temp", "/" + DimensionsDataset, "/" + AttributesDataset} {
		require.Contains(t, found, name)
	}

	values, err := found["/temp"].Read()
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3, 4, 5, 6}, values)

	values, err = found["/ell"].Read()
	require.NoError(t, err)
	require.Equal(t, []float64{1e4, 2.5e4}, values)

	entries, err := found["/"+DimensionsDataset].ReadStrings()
	require.NoError(t, err)
	dims, err := ParseDimensions(entries)
	require.NoError(t, err)
	require.Equal(t, map[string][]string{
		"ell":   {"ell"},
		"depth": {"depth"},
		"temp":  {"ell", "depth"},
	}, dims)

	entries, err = found["/"+AttributesDataset].ReadStrings()
	require.NoError(t, err)
	attrs, err := ParseAttributes(entries)
	require.NoError(t, err)
	require.Equal(t, "degC", attrs["temp"]["units"])
	require.Equal(t, "-2,40", attrs["temp"]["valid_range"])
	require.Equal(t, "m", attrs["depth"]["units"])
	require.Equal(t, "filter_scale", attrs["ell"]["long_name"])
	require.Equal(t, "merged", attrs[""]["title"])
}

// Many attributed variables must still produce a file that reopens.
func TestSinkManyAttributedVariables(t *testing.T) {
	const n = 6
	schema := &model.Schema{Dimensions: []model.Dimension{{Name: "x", Size: 4}}}
	for i := 0; i < n; i++ {
		schema.Variables = append(schema.Variables, model.Variable{
			Name:       fmt.Sprintf("v%d", i),
			Type:       model.Double,
			Dimensions: []string{"x"},
			Attributes: []model.Attribute{
				{Name: "units", Value: "m"},
				{Name: "index", Value: []int32{int32(i)}},
				{Name: "long_name", Value: fmt.Sprintf("variable %d", i)},
			},
		})
	}

	path := filepath.Join(t.TempDir(), "many.h5")
	sink, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, sink.Define(schema))
	for i := 0; i < n; i++ {
		v := float64(i)
		require.NoError(t, sink.Write(fmt.Sprintf("v%d", i), []float64{v, v, v, v}))
	}
	require.NoError(t, sink.Close())

	found := datasets(t, path)
	for i := 0; i < n; i++ {
		values, err := found[fmt.Sprintf("/v%d", i)].Read()
		require.NoError(t, err)
		require.Equal(t, []float64{float64(i), float64(i), float64(i), float64(i)}, values)
	}

	entries, err := found["/"+AttributesDataset].ReadStrings()
	require.NoError(t, err)
	attrs, err := ParseAttributes(entries)
	require.NoError(t, err)
	require.Len(t, attrs, n)
	require.Equal(t, "5", attrs["v5"]["index"])
	require.Equal(t, "variable 3", attrs["v3"]["long_name"])
}

func TestSinkMissingSlabFailsOnClose(t *testing.T) {
	sink, err := Create(filepath.Join(t.TempDir(), "partial.h5"))
	require.NoError(t, err)
	require.NoError(t, sink.Define(testSchema()))
	require.NoError(t, sink.WriteSlab("temp", 0, []float64{1, 2, 3}))
	require.ErrorContains(t, sink.Close(), "missing slabs")
}

func TestSinkRejects(t *testing.T) {
	sink, err := Create(filepath.Join(t.TempDir(), "bad.h5"))
	require.NoError(t, err)
	defer func() { _ = sink.Close() }()

	require.Error(t, sink.Write("ell", []float64{1, 2}), "write before Define")
	require.NoError(t, sink.Define(testSchema()))
	require.Error(t, sink.Define(testSchema()), "second Define")

	require.Error(t, sink.Write("ell", []float32{1, 2}), "wrong type")
	require.Error(t, sink.Write("ell", []float64{1}), "wrong length")
	require.Error(t, sink.WriteSlab("temp", 5, []float64{1, 2, 3}), "slab index")
	require.Error(t, sink.WriteSlab("temp", 0, []float64{1}), "slab length")
	require.Error(t, sink.WriteSlab("missing", 0, []float64{1}), "unknown variable")
	require.NoError(t, sink.Write("ell", []float64{1, 2}))
	require.Error(t, sink.Write("ell", []float64{1, 2}), "second write")
	require.Error(t, sink.WriteSlab("ell", 0, []float64{1}), "slab after whole write")
}

func TestDefineRejects(t *testing.T) {
	tests := []struct {
		name   string
		schema *model.Schema
	}{
		{"zero-length dimension", &model.Schema{
			Dimensions: []model.Dimension{{Name: "time", Size: 0}},
			Variables:  []model.Variable{{Name: "t", Type: model.Double, Dimensions: []string{"time"}}},
		}},
		{"reserved name", &model.Schema{
			Dimensions: []model.Dimension{{Name: "x", Size: 1}},
			Variables:  []model.Variable{{Name: DimensionsDataset, Type: model.Double, Dimensions: []string{"x"}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, err := Create(filepath.Join(t.TempDir(), "bad.h5"))
			require.NoError(t, err)
			defer func() { _ = sink.Close() }()
			require.ErrorIs(t, sink.Define(tt.schema), model.ErrUnsupported)
		})
	}
}

func TestFormatAttribute(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"string", "K", "K"},
		{"single double", []float64{2.5}, "2.5"},
		{"scalar int", 3, "3"},
		{"short vector", []int16{1, 2}, "1,2"},
		{"large uint", []uint32{4000000000}, "4e+09"},
		{"float vector", []float32{0.5, 1}, "0.5,1"},
		{"empty", []float64{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatAttribute(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseEntries(t *testing.T) {
	dims, err := ParseDimensions([]string{"t:", "u:time,x"})
	require.NoError(t, err)
	require.Equal(t, []string{}, dims["t"])
	require.Equal(t, []string{"time", "x"}, dims["u"])

	_, err = ParseDimensions([]string{"broken"})
	require.Error(t, err)

	attrs, err := ParseAttributes([]string{":history=a=b", "u:units=m s-1"})
	require.NoError(t, err)
	require.Equal(t, "a=b", attrs[""]["history"])
	require.Equal(t, "m s-1", attrs["u"]["units"])

	_, err = ParseAttributes([]string{"u:units"})
	require.Error(t, err)
}
