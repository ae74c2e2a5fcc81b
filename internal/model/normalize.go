// normalize.go turns raw user input for data files and hidden imports into
// the structured values stored in a Config.
package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DataSeparator separates source and target in the stored form of a data
// entry ("source;target").
const DataSeparator = ";"

var (
	// ErrEmptyInput is returned when a raw input string contains nothing usable.
	ErrEmptyInput = errors.New("input is empty")

	// ErrInvalidDataEntry is returned when a data entry has more than one
	// source/target separator.
	ErrInvalidDataEntry = errors.New("data entry must have the form source;target")
)

// NormalizeDataInput converts a raw "add data" input into a DataEntry.
//
// If raw already contains a separator, it is split into source and target
// as given; a second separator is rejected with ErrInvalidDataEntry.
// Otherwise the target is derived from the source:
//   - source is a directory: target is the directory's basename
//     ("images" → "images;images")
//   - source is a file (or does not exist): target is the source's parent
//     directory. A bare file name has no parent in the input itself, so the
//     basename of baseDir is used instead ("readme.txt" in docs/ →
//     "readme.txt;docs").
//
// Relative sources are resolved against baseDir for the filesystem check;
// the stored source keeps the form the user typed. Running the result's
// String() back through NormalizeDataInput yields the same entry.
func NormalizeDataInput(raw, baseDir string) (DataEntry, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DataEntry{}, ErrEmptyInput
	}

	if strings.Contains(raw, DataSeparator) {
		entry := ParseDataEntry(raw)
		if entry.Source == "" {
			return DataEntry{}, ErrEmptyInput
		}
		if strings.Contains(entry.Target, DataSeparator) {
			return DataEntry{}, fmt.Errorf("%w: %q", ErrInvalidDataEntry, raw)
		}
		if entry.Target != "" {
			return entry, nil
		}
		raw = entry.Source
	}

	resolved := raw
	if !filepath.IsAbs(resolved) && baseDir != "" {
		resolved = filepath.Join(baseDir, raw)
	}

	if info, err := os.Stat(resolved); err == nil && info.IsDir() {
		return DataEntry{Source: raw, Target: filepath.Base(filepath.Clean(raw))}, nil
	}

	target := filepath.Dir(raw)
	if target == "." && baseDir != "" {
		if abs, err := filepath.Abs(baseDir); err == nil {
			target = filepath.Base(abs)
		}
	}
	return DataEntry{Source: raw, Target: target}, nil
}

// ParseHiddenImports splits a raw "hidden imports" input on commas, trims
// whitespace and drops empty tokens. The surviving names are returned in
// input order, duplicates included.
func ParseHiddenImports(raw string) []string {
	var names []string
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			names = append(names, token)
		}
	}
	return names
}
