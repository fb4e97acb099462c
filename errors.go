package scalemerge

import "errors"

// Error categories. Every error returned by Merge matches exactly one of
// these with errors.Is; the underlying cause stays reachable too.
var (
	// ErrNoInputFiles reports that the file pattern matched nothing.
	ErrNoInputFiles = errors.New("no input files")

	// ErrMissingScaleAttribute reports an input without a usable numeric
	// filter-scale attribute.
	ErrMissingScaleAttribute = errors.New("missing scale attribute")

	// ErrIncompatibleSchema reports inputs whose dimensions or variables
	// differ from the first input in sorted order.
	ErrIncompatibleSchema = errors.New("incompatible schema")

	// ErrIOFailure reports a failure to open, read, create or write a file.
	ErrIOFailure = errors.New("I/O failure")
)
