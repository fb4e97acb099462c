// Package nc4io reads HDF5-based NetCDF-4 files.
//
// Only the root group is visible. Dimension sizes are recovered from the
// shapes of the variables that use them, so dimensions that no variable
// references are not reported.
package nc4io

import (
	"fmt"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/scigolib/scalemerge/internal/model"
	"github.com/scigolib/scalemerge/internal/utils"
)

// MagicHDF5 is the HDF5 superblock signature that starts every NetCDF-4 file.
var MagicHDF5 = []byte("\x89HDF\r\n\x1a\n")

// IsNetCDF4 reports whether r starts with the HDF5 signature.
func IsNetCDF4(r utils.ReaderAt) bool {
	return utils.HasPrefix(r, MagicHDF5)
}

// Source is a read-only NetCDF-4 file.
type Source struct {
	path   string
	group  api.Group
	schema *model.Schema
}

// Open opens path and builds its schema. Each variable is read once
// while building the schema because shapes are only known from the values.
func Open(path string) (*Source, error) {
	group, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open NetCDF-4 file %s: %w", path, err)
	}

	s := &Source{path: path, group: group}
	if err := s.load(); err != nil {
		group.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *Source) load() error {
	schema := &model.Schema{}
	sizes := make(map[string]int)

	for _, name := range s.group.ListVariables() {
		vg, err := s.group.GetVarGetter(name)
		if err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		dt, err := model.ParseGoType(vg.GoType())
		if err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		values, err := vg.Values()
		if err != nil {
			return fmt.Errorf("read variable %q: %w", name, err)
		}

		dims := append([]string(nil), vg.Dimensions()...)
		_, shape, err := flatten(values, len(dims))
		if err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		for i, d := range dims {
			if prev, ok := sizes[d]; ok && prev != shape[i] {
				return fmt.Errorf("dimension %q has length %d in variable %q but %d elsewhere",
					d, shape[i], name, prev)
			}
			if _, ok := sizes[d]; !ok {
				sizes[d] = shape[i]
				schema.Dimensions = append(schema.Dimensions, model.Dimension{Name: d, Size: shape[i]})
			}
		}

		attrs, err := convertAttributes(vg.Attributes())
		if err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		schema.Variables = append(schema.Variables, model.Variable{
			Name:       name,
			Type:       dt,
			Dimensions: dims,
			Attributes: attrs,
		})
	}

	attrs, err := convertAttributes(s.group.Attributes())
	if err != nil {
		return fmt.Errorf("global attributes: %w", err)
	}
	schema.Attributes = attrs
	s.schema = schema
	return nil
}

func convertAttributes(am api.AttributeMap) ([]model.Attribute, error) {
	if am == nil {
		return nil, nil
	}
	var attrs []model.Attribute
	for _, key := range am.Keys() {
		raw, ok := am.Get(key)
		if !ok {
			continue
		}
		value, err := model.NormalizeAttribute(raw)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", key, err)
		}
		attrs = append(attrs, model.Attribute{Name: key, Value: value})
	}
	return attrs, nil
}

// flatten turns the nested slices returned for multi-dimensional
// variables into one row-major slice and reports the shape.
func flatten(values interface{}, rank int) (interface{}, []int, error) {
	v := reflect.ValueOf(values)
	if rank == 0 {
		if v.Kind() == reflect.Slice {
			return values, nil, nil
		}
		out := reflect.MakeSlice(reflect.SliceOf(v.Type()), 1, 1)
		out.Index(0).Set(v)
		return out.Interface(), nil, nil
	}

	shape := make([]int, rank)
	cur := v
	for i := 0; i < rank; i++ {
		if cur.Kind() != reflect.Slice {
			return nil, nil, fmt.Errorf("values of type %T have fewer than %d axes", values, rank)
		}
		shape[i] = cur.Len()
		if i < rank-1 && cur.Len() > 0 {
			cur = cur.Index(0)
		}
	}

	n, err := utils.ElementCount(shape)
	if err != nil {
		return nil, nil, err
	}
	elem := v.Type()
	for i := 0; i < rank; i++ {
		elem = elem.Elem()
	}
	out := reflect.MakeSlice(reflect.SliceOf(elem), 0, n)
	out, err = appendRows(out, v, rank)
	if err != nil {
		return nil, nil, err
	}
	if out.Len() != n {
		return nil, nil, fmt.Errorf("ragged values: %d elements for shape %v", out.Len(), shape)
	}
	return out.Interface(), shape, nil
}

func appendRows(out, v reflect.Value, rank int) (reflect.Value, error) {
	if rank == 1 {
		return reflect.AppendSlice(out, v), nil
	}
	for i := 0; i < v.Len(); i++ {
		var err error
		out, err = appendRows(out, v.Index(i), rank-1)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// Path implements model.Source.
func (s *Source) Path() string { return s.path }

// Format implements model.Source.
func (s *Source) Format() model.Format { return model.FormatNetCDF4 }

// Schema implements model.Source.
func (s *Source) Schema() *model.Schema { return s.schema }

// Read returns the whole variable as a flat row-major slice.
func (s *Source) Read(name string) (interface{}, error) {
	v, ok := s.schema.Variable(name)
	if !ok {
		return nil, fmt.Errorf("variable %q not found in %s", name, s.path)
	}
	vg, err := s.group.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}
	values, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("read %q from %s: %w", name, s.path, err)
	}
	data, _, err := flatten(values, len(v.Dimensions))
	return data, err
}

// Close releases the file.
func (s *Source) Close() error {
	s.group.Close()
	return nil
}
