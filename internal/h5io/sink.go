// Copyright (c) 2025 SciGo HDF5 Library Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Package h5io writes merged output as a plain HDF5 file.
//
// Every variable becomes a dataset under the root group. HDF5 datasets carry
// no dimension names, so the names live in the string dataset
// DimensionsDataset, one "variable:dim,dim" entry per variable. Variable and
// global attributes are rendered as "variable:name=value" entries of
// AttributesDataset; global entries have an empty variable name. No dataset
// carries HDF5 attributes: the writer cannot reopen a file once a dataset
// other than the last one created has been given attributes.
package h5io

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/scigolib/hdf5"

	"github.com/scigolib/scalemerge/internal/model"
	"github.com/scigolib/scalemerge/internal/utils"
)

const (
	// DimensionsDataset lists the dimension names of every variable.
	DimensionsDataset = "_dimensions"
	// AttributesDataset lists variable and global attributes.
	AttributesDataset = "_attributes"
)

var datatypes = map[model.DataType]hdf5.Datatype{
	model.Byte:   hdf5.Int8,
	model.Char:   hdf5.Uint8,
	model.UByte:  hdf5.Uint8,
	model.Short:  hdf5.Int16,
	model.UShort: hdf5.Uint16,
	model.Int:    hdf5.Int32,
	model.UInt:   hdf5.Uint32,
	model.Int64:  hdf5.Int64,
	model.UInt64: hdf5.Uint64,
	model.Float:  hdf5.Float32,
	model.Double: hdf5.Float64,
}

// dataset tracks one output dataset. The writer only accepts whole-dataset
// writes, so slabs are collected in buf until every slab has arrived.
type dataset struct {
	w         *hdf5.DatasetWriter
	v         *model.Variable
	shape     []int
	count     int
	buf       interface{}
	filled    []bool
	remaining int
	done      bool
}

// Sink writes an HDF5 file.
type Sink struct {
	path     string
	fw       *hdf5.FileWriter
	datasets map[string]*dataset

	dimensions []string
	attributes []string
}

// Create creates (or truncates) path for writing.
func Create(path string) (*Sink, error) {
	fw, err := hdf5.CreateForWrite(path, hdf5.CreateTruncate)
	if err != nil {
		return nil, utils.WrapError("create HDF5 file "+path, err)
	}
	return &Sink{path: path, fw: fw}, nil
}

// Define creates every dataset and records the metadata written on Close.
func (s *Sink) Define(schema *model.Schema) error {
	if s.datasets != nil {
		return errors.New("datasets already defined")
	}
	s.datasets = make(map[string]*dataset, len(schema.Variables))

	for i := range schema.Variables {
		v := &schema.Variables[i]
		if v.Name == DimensionsDataset || v.Name == AttributesDataset {
			return fmt.Errorf("%w: variable name %q is reserved", model.ErrUnsupported, v.Name)
		}
		if err := s.defineVariable(schema, v); err != nil {
			return fmt.Errorf("variable %q: %w", v.Name, err)
		}
	}

	entries, err := attributeEntries("", schema.Attributes)
	if err != nil {
		return fmt.Errorf("global attributes: %w", err)
	}
	s.attributes = append(s.attributes, entries...)
	return nil
}

func (s *Sink) defineVariable(schema *model.Schema, v *model.Variable) error {
	dtype, ok := datatypes[v.Type]
	if !ok {
		return fmt.Errorf("%w: %v", model.ErrUnsupported, v.Type)
	}
	shape, err := schema.Shape(v.Name)
	if err != nil {
		return err
	}
	count, err := utils.ElementCount(shape)
	if err != nil {
		return err
	}

	dims := []uint64{1}
	if len(shape) > 0 {
		dims = make([]uint64, len(shape))
		for i, n := range shape {
			if n == 0 {
				return fmt.Errorf("%w: zero-length dimension %q", model.ErrUnsupported, v.Dimensions[i])
			}
			dims[i] = uint64(n)
		}
	}

	entries, err := attributeEntries(v.Name, v.Attributes)
	if err != nil {
		return err
	}

	w, err := s.fw.CreateDataset("/"+v.Name, dtype, dims)
	if err != nil {
		return utils.WrapError("create dataset", err)
	}

	s.datasets[v.Name] = &dataset{w: w, v: v, shape: shape, count: count}
	s.dimensions = append(s.dimensions, v.Name+":"+strings.Join(v.Dimensions, ","))
	s.attributes = append(s.attributes, entries...)
	return nil
}

// attributeEntries renders attrs of variable (empty for globals).
func attributeEntries(variable string, attrs []model.Attribute) ([]string, error) {
	out := make([]string, 0, len(attrs))
	for _, a := range attrs {
		text, err := formatAttribute(a.Value)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		out = append(out, variable+":"+a.Name+"="+text)
	}
	return out, nil
}

// formatAttribute renders a normalized attribute value. Numbers are
// comma-separated in the shortest form that parses back exactly.
func formatAttribute(value interface{}) (string, error) {
	norm, err := model.NormalizeAttribute(value)
	if err != nil {
		return "", err
	}
	if s, ok := norm.(string); ok {
		return s, nil
	}
	vals, err := model.ToFloat64(norm)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(vals))
	for i, x := range vals {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, ","), nil
}

// ParseDimensions maps the entries of DimensionsDataset to dimension lists.
// Scalar variables map to an empty list.
func ParseDimensions(entries []string) (map[string][]string, error) {
	out := make(map[string][]string, len(entries))
	for _, e := range entries {
		name, dims, ok := strings.Cut(e, ":")
		if !ok {
			return nil, fmt.Errorf("malformed dimensions entry %q", e)
		}
		if dims == "" {
			out[name] = []string{}
			continue
		}
		out[name] = strings.Split(dims, ",")
	}
	return out, nil
}

// ParseAttributes maps the entries of AttributesDataset to variable name
// and attribute name. Global attributes are under the empty variable name.
func ParseAttributes(entries []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	for _, e := range entries {
		variable, rest, ok := strings.Cut(e, ":")
		if !ok {
			return nil, fmt.Errorf("malformed attribute entry %q", e)
		}
		name, value, ok := strings.Cut(rest, "=")
		if !ok {
			return nil, fmt.Errorf("malformed attribute entry %q", e)
		}
		if out[variable] == nil {
			out[variable] = make(map[string]string)
		}
		out[variable][name] = value
	}
	return out, nil
}

// Write stores the whole variable.
func (s *Sink) Write(name string, data interface{}) error {
	d, err := s.lookup(name)
	if err != nil {
		return err
	}
	if d.done || d.filled != nil {
		return fmt.Errorf("variable %q already written", name)
	}
	if err := model.CheckType(d.v.Type, data, d.count); err != nil {
		return fmt.Errorf("variable %q: %w", name, err)
	}
	return s.flush(d, data)
}

// WriteSlab buffers one slab and writes the dataset once all slabs are present.
func (s *Sink) WriteSlab(name string, index int, data interface{}) error {
	d, err := s.lookup(name)
	if err != nil {
		return err
	}
	if len(d.shape) == 0 {
		return fmt.Errorf("variable %q is scalar and has no slabs", name)
	}
	if d.done {
		return fmt.Errorf("variable %q already written", name)
	}
	if index < 0 || index >= d.shape[0] {
		return fmt.Errorf("variable %q: slab index %d out of range [0, %d)", name, index, d.shape[0])
	}
	slab := d.count / d.shape[0]
	if err := model.CheckType(d.v.Type, data, slab); err != nil {
		return fmt.Errorf("variable %q slab %d: %w", name, index, err)
	}

	if d.buf == nil {
		d.buf, err = model.MakeSlice(d.v.Type, d.count)
		if err != nil {
			return err
		}
		d.filled = make([]bool, d.shape[0])
		d.remaining = d.shape[0]
	}
	if err := model.CopyInto(d.buf, index*slab, data); err != nil {
		return fmt.Errorf("variable %q slab %d: %w", name, index, err)
	}
	if !d.filled[index] {
		d.filled[index] = true
		d.remaining--
	}
	if d.remaining > 0 {
		return nil
	}
	return s.flush(d, d.buf)
}

func (s *Sink) flush(d *dataset, data interface{}) error {
	if err := d.w.Write(data); err != nil {
		return utils.WrapError(fmt.Sprintf("write dataset %q", d.v.Name), err)
	}
	d.done, d.buf = true, nil
	return nil
}

func (s *Sink) lookup(name string) (*dataset, error) {
	if s.datasets == nil {
		return nil, errors.New("write before Define")
	}
	d, ok := s.datasets[name]
	if !ok {
		return nil, fmt.Errorf("variable %q not defined", name)
	}
	return d, nil
}

// writeStrings stores entries as a fixed-length string dataset.
func (s *Sink) writeStrings(name string, entries []string) error {
	if len(entries) == 0 {
		return nil
	}
	size := 1
	for _, e := range entries {
		size = max(size, len(e)+1)
	}
	w, err := s.fw.CreateDataset("/"+name, hdf5.String, []uint64{uint64(len(entries))},
		hdf5.WithStringSize(uint32(size))) //nolint:gosec // G115: entry lengths are small
	if err != nil {
		return utils.WrapError("create "+name, err)
	}
	if err := w.Write(entries); err != nil {
		return utils.WrapError("write "+name, err)
	}
	return nil
}

// Close writes the metadata datasets and closes the file. It fails if any
// dataset is still waiting for slabs, and closes the file either way.
func (s *Sink) Close() error {
	var pending []string
	for name, d := range s.datasets {
		if !d.done && d.filled != nil {
			pending = append(pending, name)
		}
	}

	var errs []error
	if len(pending) == 0 {
		errs = append(errs,
			s.writeStrings(DimensionsDataset, s.dimensions),
			s.writeStrings(AttributesDataset, s.attributes))
	} else {
		errs = append(errs, fmt.Errorf("datasets closed with missing slabs: %s", strings.Join(pending, ", ")))
	}
	if err := s.fw.Close(); err != nil {
		errs = append(errs, utils.WrapError("close "+s.path, err))
	}
	return errors.Join(errs...)
}
