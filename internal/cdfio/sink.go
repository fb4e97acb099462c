package cdfio

import (
	"errors"
	"fmt"
	"os"

	"github.com/ctessum/cdf"

	"github.com/scigolib/scalemerge/internal/model"
	"github.com/scigolib/scalemerge/internal/utils"
)

// Sink writes a classic NetCDF file.
type Sink struct {
	path      string
	osFile    *os.File
	file      *cdf.File
	schema    *model.Schema
	hasRecord bool
}

// Create creates (or truncates) path for writing. The header is written by Define.
func Create(path string) (*Sink, error) {
	f, err := os.Create(path) //nolint:gosec // G304: user-provided output path
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &Sink{path: path, osFile: f}, nil
}

// Define writes the header. Every variable must use a classic type.
func (s *Sink) Define(schema *model.Schema) error {
	if s.file != nil {
		return errors.New("header already defined")
	}

	h, err := buildHeader(schema)
	if err != nil {
		return err
	}

	s.file, err = cdf.Create(s.osFile, h)
	if err != nil {
		return fmt.Errorf("write NetCDF header to %s: %w", s.path, err)
	}
	s.schema = schema
	for _, d := range schema.Dimensions {
		if d.Size == 0 {
			s.hasRecord = true
		}
	}
	return nil
}

// buildHeader translates the schema. The library panics on malformed
// headers; those panics are returned as errors.
func buildHeader(schema *model.Schema) (h *cdf.Header, err error) {
	names := make([]string, len(schema.Dimensions))
	lengths := make([]int, len(schema.Dimensions))
	for i, d := range schema.Dimensions {
		names[i], lengths[i] = d.Name, d.Size
	}

	samples := make([]interface{}, len(schema.Variables))
	for i, v := range schema.Variables {
		samples[i], err = sampleValue(v.Type)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", v.Name, err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			h, err = nil, fmt.Errorf("invalid NetCDF header: %v", r)
		}
	}()

	h = cdf.NewHeader(names, lengths)
	for _, a := range schema.Attributes {
		if err := addAttribute(h, "", a); err != nil {
			return nil, err
		}
	}
	for i, v := range schema.Variables {
		h.AddVariable(v.Name, v.Dimensions, samples[i])
		for _, a := range v.Attributes {
			if err := addAttribute(h, v.Name, a); err != nil {
				return nil, fmt.Errorf("variable %q: %w", v.Name, err)
			}
		}
	}
	h.Define()

	if err := errors.Join(h.Check()...); err != nil {
		return nil, fmt.Errorf("invalid NetCDF header: %w", err)
	}
	return h, nil
}

func addAttribute(h *cdf.Header, v string, a model.Attribute) error {
	value, err := classicAttribute(a.Value)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", a.Name, err)
	}
	h.AddAttribute(v, a.Name, value)
	return nil
}

// Write stores the whole variable.
func (s *Sink) Write(name string, data interface{}) error {
	v, shape, err := s.lookup(name)
	if err != nil {
		return err
	}
	n, err := utils.ElementCount(shape)
	if err != nil {
		return utils.WrapError(fmt.Sprintf("variable %q", name), err)
	}
	if err := model.CheckType(v.Type, data, n); err != nil {
		return fmt.Errorf("variable %q: %w", name, err)
	}
	if n == 0 {
		return nil
	}
	return s.write(name, nil, nil, data)
}

// WriteSlab stores one slice of the variable along its leading dimension.
func (s *Sink) WriteSlab(name string, index int, data interface{}) error {
	v, shape, err := s.lookup(name)
	if err != nil {
		return err
	}
	if len(shape) == 0 {
		return fmt.Errorf("variable %q is scalar and has no slabs", name)
	}
	if index < 0 || index >= shape[0] {
		return fmt.Errorf("variable %q: slab index %d out of range [0, %d)", name, index, shape[0])
	}
	n, err := utils.ElementCount(shape[1:])
	if err != nil {
		return utils.WrapError(fmt.Sprintf("variable %q", name), err)
	}
	if err := model.CheckType(v.Type, data, n); err != nil {
		return fmt.Errorf("variable %q slab %d: %w", name, index, err)
	}
	if n == 0 {
		return nil
	}

	begin := make([]int, len(shape))
	end := append([]int(nil), shape...)
	begin[0], end[0] = index, index+1
	return s.write(name, begin, end, data)
}

func (s *Sink) lookup(name string) (*model.Variable, []int, error) {
	if s.file == nil {
		return nil, nil, errors.New("write before Define")
	}
	v, ok := s.schema.Variable(name)
	if !ok {
		return nil, nil, fmt.Errorf("variable %q not defined", name)
	}
	shape, err := s.schema.Shape(name)
	if err != nil {
		return nil, nil, err
	}
	return v, shape, nil
}

func (s *Sink) write(name string, begin, end []int, data interface{}) error {
	zero := s.file.Reader(name, nil, nil).Zero(0)
	w := s.file.Writer(name, begin, end)
	if _, err := w.Write(toBuffer(zero, data)); err != nil {
		return fmt.Errorf("write %q to %s: %w", name, s.path, err)
	}
	return nil
}

// Close finalizes the record count, if any, and closes the file.
func (s *Sink) Close() error {
	if s.hasRecord {
		if err := cdf.UpdateNumRecs(s.osFile); err != nil {
			_ = s.osFile.Close()
			return fmt.Errorf("update record count of %s: %w", s.path, err)
		}
	}
	if err := s.osFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	return nil
}
