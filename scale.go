package scalemerge

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/scigolib/scalemerge/internal/model"
	"github.com/scigolib/scalemerge/internal/utils"
)

// scaleEntry pairs an opened input with its filter scale.
type scaleEntry struct {
	value  float64
	source Source
}

// findInputs expands pattern in lexical order, leaving out the output file.
func findInputs(pattern, output string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, utils.KindErrorf(ErrNoInputFiles, err, "malformed file pattern %q", pattern)
	}
	sort.Strings(matches)

	outAbs, _ := filepath.Abs(output)
	files := matches[:0]
	for _, m := range matches {
		if abs, err := filepath.Abs(m); err == nil && abs == outAbs {
			continue
		}
		if info, err := os.Stat(m); err == nil && info.IsDir() {
			continue
		}
		files = append(files, m)
	}

	if len(files) == 0 {
		return nil, utils.KindErrorf(ErrNoInputFiles, nil, "pattern %q matched no files", pattern)
	}
	return files, nil
}

// ReadScale returns the filter scale stored in the named global attribute of src.
func ReadScale(src Source, attribute string) (float64, error) {
	a, ok := src.Schema().Attribute(attribute)
	if !ok {
		return 0, utils.KindErrorf(ErrMissingScaleAttribute, nil,
			"%s has no global attribute %q", src.Path(), attribute)
	}
	v, err := model.AttributeFloat64(a)
	if err != nil {
		return 0, utils.KindErrorf(ErrMissingScaleAttribute, err, "%s", src.Path())
	}
	return v, nil
}

// sortByScale orders entries by ascending scale. Equal scales keep their
// enumeration order.
func sortByScale(entries []scaleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].value < entries[j].value
	})
}

func closeAll(entries []scaleEntry) {
	for _, e := range entries {
		_ = e.source.Close()
	}
}

// openInputs opens every file and reads its scale. On error all sources
// opened so far are closed.
func openInputs(files []string, attribute string) ([]scaleEntry, error) {
	entries := make([]scaleEntry, 0, len(files))
	for _, path := range files {
		src, err := OpenSource(path)
		if err != nil {
			closeAll(entries)
			return nil, utils.KindErrorf(ErrIOFailure, err, "open input")
		}
		value, err := ReadScale(src, attribute)
		if err != nil {
			_ = src.Close()
			closeAll(entries)
			return nil, err
		}
		entries = append(entries, scaleEntry{value: value, source: src})
	}
	return entries, nil
}
