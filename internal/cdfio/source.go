// Package cdfio reads and writes NetCDF classic (CDF-1 and CDF-2) files.
package cdfio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ctessum/cdf"

	"github.com/scigolib/scalemerge/internal/model"
	"github.com/scigolib/scalemerge/internal/utils"
)

// Magic numbers of the classic (version 1) and 64-bit offset (version 2) formats.
var (
	MagicClassic  = []byte("CDF\x01")
	MagicOffset64 = []byte("CDF\x02")
)

// IsClassic reports whether r starts with a classic NetCDF signature.
func IsClassic(r utils.ReaderAt) bool {
	return utils.HasPrefix(r, MagicClassic) || utils.HasPrefix(r, MagicOffset64)
}

// Source is a read-only classic NetCDF file.
type Source struct {
	path   string
	osFile *os.File
	file   *cdf.File
	schema *model.Schema
}

// Open opens a classic NetCDF file and reads its header.
func Open(path string) (*Source, error) {
	f, err := os.Open(path) //nolint:gosec // G304: user-provided input path
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	file, err := cdf.Open(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read NetCDF header of %s: %w", path, err)
	}

	s := &Source{path: path, osFile: f, file: file}
	s.schema, err = readSchema(file)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func readSchema(file *cdf.File) (*model.Schema, error) {
	h := file.Header
	schema := &model.Schema{}

	names := h.Dimensions("")
	lengths := h.Lengths("")
	if len(names) != len(lengths) {
		return nil, fmt.Errorf("header lists %d dimensions but %d lengths", len(names), len(lengths))
	}

	// The record dimension reports length 0 in the catalog; its current
	// length is visible through any variable that uses it.
	for i, name := range names {
		size := lengths[i]
		if size == 0 {
			size = recordLength(h, name)
		}
		schema.Dimensions = append(schema.Dimensions, model.Dimension{Name: name, Size: size})
	}

	for _, name := range h.Variables() {
		dt, err := bufferType(file, name)
		if err != nil {
			return nil, err
		}
		v := model.Variable{
			Name:       name,
			Type:       dt,
			Dimensions: append([]string(nil), h.Dimensions(name)...),
		}
		v.Attributes, err = readAttributes(h, name)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		schema.Variables = append(schema.Variables, v)
	}

	var err error
	schema.Attributes, err = readAttributes(h, "")
	if err != nil {
		return nil, fmt.Errorf("global attributes: %w", err)
	}
	return schema, nil
}

func recordLength(h *cdf.Header, dim string) int {
	for _, v := range h.Variables() {
		dims := h.Dimensions(v)
		lens := h.Lengths(v)
		for i, d := range dims {
			if d == dim && i < len(lens) {
				return lens[i]
			}
		}
	}
	return 0
}

func readAttributes(h *cdf.Header, v string) ([]model.Attribute, error) {
	var attrs []model.Attribute
	for _, name := range h.Attributes(v) {
		value, err := model.NormalizeAttribute(h.GetAttribute(v, name))
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		attrs = append(attrs, model.Attribute{Name: name, Value: value})
	}
	return attrs, nil
}

// Path implements model.Source.
func (s *Source) Path() string { return s.path }

// Format implements model.Source.
func (s *Source) Format() model.Format { return model.FormatClassic }

// Schema implements model.Source.
func (s *Source) Schema() *model.Schema { return s.schema }

// Read returns the whole variable as a flat row-major slice.
func (s *Source) Read(name string) (interface{}, error) {
	v, ok := s.schema.Variable(name)
	if !ok {
		return nil, fmt.Errorf("variable %q not found in %s", name, s.path)
	}
	shape, err := s.schema.Shape(name)
	if err != nil {
		return nil, err
	}
	n, err := utils.ElementCount(shape)
	if err != nil {
		return nil, utils.WrapError(fmt.Sprintf("variable %q", name), err)
	}
	if n == 0 {
		return model.MakeSlice(v.Type, 0)
	}

	r := s.file.Reader(name, nil, nil)
	buf := r.Zero(n)
	got, err := r.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %q from %s: %w", name, s.path, err)
	}
	if got != n {
		return nil, fmt.Errorf("read %q from %s: got %d of %d elements", name, s.path, got, n)
	}
	return fromBuffer(v.Type, buf)
}

// Close releases the underlying file.
func (s *Source) Close() error {
	return s.osFile.Close()
}
