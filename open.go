package scalemerge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scigolib/scalemerge/internal/cdfio"
	"github.com/scigolib/scalemerge/internal/h5io"
	"github.com/scigolib/scalemerge/internal/model"
	"github.com/scigolib/scalemerge/internal/nc4io"
)

// Format identifies a container format.
type Format = model.Format

// Supported formats.
const (
	FormatUnknown = model.FormatUnknown
	FormatClassic = model.FormatClassic
	FormatNetCDF4 = model.FormatNetCDF4
	FormatHDF5    = model.FormatHDF5
)

// Schema describes the dimensions, variables and attributes of a file.
type Schema = model.Schema

// Source is a read-only view of one input file.
type Source = model.Source

// OpenSource opens a NetCDF classic or NetCDF-4 file, detected from its
// leading bytes.
func OpenSource(path string) (Source, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var src Source
	switch format {
	case FormatClassic:
		src, err = openClassic(path)
	case FormatNetCDF4:
		src, err = openNetCDF4(path)
	default:
		return nil, fmt.Errorf("%s: not a NetCDF file", path)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

func openClassic(path string) (Source, error) {
	s, err := cdfio.Open(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openNetCDF4(path string) (Source, error) {
	s, err := nc4io.Open(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DetectFormat reads the signature at the start of path.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path) //nolint:gosec // G304: user-provided input path
	if err != nil {
		return FormatUnknown, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	switch {
	case cdfio.IsClassic(f):
		return FormatClassic, nil
	case nc4io.IsNetCDF4(f):
		return FormatNetCDF4, nil
	default:
		return FormatUnknown, nil
	}
}

// OutputFormat picks the output format: the explicit choice if set,
// otherwise HDF5 for .h5/.hdf5 paths and NetCDF classic for anything else.
func OutputFormat(path string, explicit Format) Format {
	if explicit != FormatUnknown {
		return explicit
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".h5", ".hdf5", ".he5":
		return FormatHDF5
	default:
		return FormatClassic
	}
}

func createSink(path string, format Format) (model.Sink, error) {
	switch format {
	case FormatClassic:
		s, err := cdfio.Create(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case FormatHDF5:
		s, err := h5io.Create(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: cannot write %v output", model.ErrUnsupported, format)
	}
}
