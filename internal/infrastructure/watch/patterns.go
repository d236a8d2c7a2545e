package watch

import (
	"path/filepath"
	"strings"
)

// ImportPatterns are the file types the import watcher picks up.
var ImportPatterns = []string{"*.csv", "*.json", "*.yaml", "*.yml"}

// IgnorePatterns skip editor swap files and partial writes.
var IgnorePatterns = []string{".*", "*~", "*.tmp", "*.swp", "*.part"}

// PatternFilter filters file paths based on include/exclude glob patterns.
// Patterns are matched case-insensitively against the base name.
type PatternFilter struct {
	Include []string
	Exclude []string
}

func NewPatternFilter(include, exclude []string) *PatternFilter {
	return &PatternFilter{
		Include: include,
		Exclude: exclude,
	}
}

// ImportFilter accepts catalog documents and drops hidden and temporary files.
func ImportFilter() *PatternFilter {
	return NewPatternFilter(ImportPatterns, IgnorePatterns)
}

// Matches reports whether path passes the filter. A nil filter accepts
// everything.
func (f *PatternFilter) Matches(path string) bool {
	if f == nil {
		return true
	}
	base := strings.ToLower(filepath.Base(path))

	for _, pattern := range f.Exclude {
		if matched, _ := filepath.Match(strings.ToLower(pattern), base); matched {
			return false
		}
	}

	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if matched, _ := filepath.Match(strings.ToLower(pattern), base); matched {
			return true
		}
	}
	return false
}
