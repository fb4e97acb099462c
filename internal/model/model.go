// Package model defines the container-independent description of a
// structured array file: dimensions, typed variables, attributes, and the
// Source and Sink interfaces implemented by each file format backend.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported reports a type or layout that a backend cannot represent.
var ErrUnsupported = errors.New("unsupported by format")

// Format identifies a container format.
type Format int

const (
	// FormatUnknown is returned when a file matches no known signature.
	FormatUnknown Format = iota
	// FormatClassic is NetCDF classic (CDF-1) or 64-bit offset (CDF-2).
	FormatClassic
	// FormatNetCDF4 is HDF5-based NetCDF-4.
	FormatNetCDF4
	// FormatHDF5 is plain HDF5 as written by the HDF5 sink.
	FormatHDF5
)

// String returns the short name used on the command line.
func (f Format) String() string {
	switch f {
	case FormatClassic:
		return "nc"
	case FormatNetCDF4:
		return "nc4"
	case FormatHDF5:
		return "h5"
	default:
		return "unknown"
	}
}

// ParseFormat converts a command-line format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nc", "classic", "netcdf":
		return FormatClassic, nil
	case "h5", "hdf5":
		return FormatHDF5, nil
	case "nc4", "netcdf4":
		return FormatNetCDF4, nil
	default:
		return FormatUnknown, fmt.Errorf("unknown format %q (want nc or h5)", s)
	}
}

// Dimension is a named axis length.
type Dimension struct {
	Name string
	Size int
}

// Attribute is a named metadata value. Value is a string or a typed
// numeric slice; see NormalizeAttribute.
type Attribute struct {
	Name  string
	Value interface{}
}

// Variable describes a named typed array.
type Variable struct {
	Name       string
	Type       DataType
	Dimensions []string
	Attributes []Attribute
}

// Attribute returns the attribute with the given name.
func (v *Variable) Attribute(name string) (Attribute, bool) {
	return findAttribute(v.Attributes, name)
}

// Schema is the full catalog of a file.
type Schema struct {
	Dimensions []Dimension
	Variables  []Variable
	Attributes []Attribute // global
}

// Dimension returns the dimension with the given name.
func (s *Schema) Dimension(name string) (Dimension, bool) {
	for _, d := range s.Dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// Variable returns the variable with the given name.
func (s *Schema) Variable(name string) (*Variable, bool) {
	for i := range s.Variables {
		if s.Variables[i].Name == name {
			return &s.Variables[i], true
		}
	}
	return nil, false
}

// Attribute returns the global attribute with the given name.
func (s *Schema) Attribute(name string) (Attribute, bool) {
	return findAttribute(s.Attributes, name)
}

// IsCoordinate reports whether the variable is a dimension-coordinate
// variable, i.e. its name equals a declared dimension name.
func (s *Schema) IsCoordinate(name string) bool {
	_, ok := s.Dimension(name)
	return ok
}

// Shape returns the lengths of the variable's dimensions.
func (s *Schema) Shape(name string) ([]int, error) {
	v, ok := s.Variable(name)
	if !ok {
		return nil, fmt.Errorf("variable %q not found", name)
	}
	shape := make([]int, len(v.Dimensions))
	for i, dn := range v.Dimensions {
		d, ok := s.Dimension(dn)
		if !ok {
			return nil, fmt.Errorf("variable %q uses undeclared dimension %q", name, dn)
		}
		shape[i] = d.Size
	}
	return shape, nil
}

func findAttribute(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Source is a read-only view of one file.
type Source interface {
	// Path returns the file the source was opened from.
	Path() string
	// Format returns the detected container format.
	Format() Format
	// Schema returns the file's catalog. The result must not be modified.
	Schema() *Schema
	// Read returns the whole variable as a flat row-major slice whose Go
	// type matches the variable's DataType.
	Read(name string) (interface{}, error)
	Close() error
}

// Sink is a write-once output file.
type Sink interface {
	// Define declares every dimension, variable and attribute. It must be
	// called exactly once, before any write.
	Define(s *Schema) error
	// Write stores the whole variable.
	Write(name string, data interface{}) error
	// WriteSlab stores data at position index of the variable's leading
	// dimension. data holds one slab: the variable without its first axis.
	WriteSlab(name string, index int, data interface{}) error
	Close() error
}
