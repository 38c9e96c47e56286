package scanner

import (
	"os"
	"sort"
	"strings"
)

// DefaultExtension is the suffix of manageable scripts
const DefaultExtension = ".luau"

// Set is an unordered collection of file names
type Set map[string]struct{}

// Has reports whether name is in the set
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// ListTracked returns the names of the files in dir ending with ext.
// A missing or unreadable directory yields an empty set, never an error.
// The scan is not recursive and the suffix match is case-sensitive.
func ListTracked(dir, ext string) Set {
	found := Set{}
	if dir == "" {
		return found
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return found
	}

	for _, entry := range entries {
		// Skip directories
		if entry.IsDir() {
			continue
		}
		if IsTracked(entry.Name(), ext) {
			found[entry.Name()] = struct{}{}
		}
	}
	return found
}

// IsTracked checks whether a file name carries the tracked extension
func IsTracked(name, ext string) bool {
	return strings.HasSuffix(name, ext)
}

// Sorted returns the set contents in lexical order
func Sorted(s Set) []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
