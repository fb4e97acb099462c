package main

import (
	"fmt"

	"github.com/scigolib/scalemerge"
	"github.com/scigolib/scalemerge/internal/cdfio"
	"github.com/scigolib/scalemerge/internal/diagnostics"
	"github.com/scigolib/scalemerge/internal/model"
)

// field is a variable read as float64 together with its shape.
type field struct {
	name  string
	data  []float64
	shape []int
}

func readField(src scalemerge.Source, name string) (*field, error) {
	shape, err := src.Schema().Shape(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Path(), err)
	}
	raw, err := src.Read(name)
	if err != nil {
		return nil, err
	}
	data, err := model.ToFloat64(raw)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}
	return &field{name: name, data: data, shape: shape}, nil
}

func readFields(src scalemerge.Source, names ...string) ([]*field, error) {
	out := make([]*field, len(names))
	for i, name := range names {
		f, err := readField(src, name)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func (f *field) block(idx ...int) ([]float64, error) {
	b, err := diagnostics.Block(f.data, f.shape, idx...)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", f.name, err)
	}
	return b, nil
}

// horizontal returns the trailing two axes, taking index 0 on every
// leading axis. Stacked copies of static fields such as the mask are
// identical across scales.
func (f *field) horizontal() ([]float64, error) {
	if len(f.shape) < 2 {
		return nil, fmt.Errorf("variable %q has rank %d, need at least 2", f.name, len(f.shape))
	}
	return f.block(make([]int, len(f.shape)-2)...)
}

// bands splits a stacked variable by its leading scale axis at the
// remaining leading indices idx.
func (f *field) bands(idx ...int) ([][]float64, error) {
	if len(f.shape) == 0 {
		return nil, fmt.Errorf("variable %q is a scalar", f.name)
	}
	out := make([][]float64, f.shape[0])
	for s := range out {
		b, err := f.block(append([]int{s}, idx...)...)
		if err != nil {
			return nil, err
		}
		out[s] = b
	}
	return out, nil
}

// stack splits a (scale, time, ...) variable into a Field.
func (f *field) stack() (diagnostics.Field, error) {
	if len(f.shape) < 2 {
		return nil, fmt.Errorf("variable %q has rank %d, need at least 2", f.name, len(f.shape))
	}
	out := make(diagnostics.Field, f.shape[0])
	for s := range out {
		out[s] = make([][]float64, f.shape[1])
		for t := range out[s] {
			b, err := f.block(s, t)
			if err != nil {
				return nil, err
			}
			out[s][t] = b
		}
	}
	return out, nil
}

// output is a small classic NetCDF file of double variables.
type output struct {
	schema model.Schema
	data   map[string][]float64
}

func newOutput(dims ...model.Dimension) *output {
	return &output{
		schema: model.Schema{Dimensions: dims},
		data:   make(map[string][]float64),
	}
}

func (o *output) add(name string, dims []string, data []float64, attrs ...model.Attribute) {
	o.schema.Variables = append(o.schema.Variables, model.Variable{
		Name:       name,
		Type:       model.Double,
		Dimensions: dims,
		Attributes: attrs,
	})
	o.data[name] = data
}

func (o *output) attr(name string, value interface{}) {
	o.schema.Attributes = append(o.schema.Attributes, model.Attribute{Name: name, Value: value})
}

func (o *output) write(path string) (err error) {
	sink, err := cdfio.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); err == nil {
			err = cerr
		}
	}()

	if err := sink.Define(&o.schema); err != nil {
		return err
	}
	for _, v := range o.schema.Variables {
		if err := sink.Write(v.Name, o.data[v.Name]); err != nil {
			return err
		}
	}
	return nil
}
