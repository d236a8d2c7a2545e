// Package importer decodes nested requirement documents and custom CSV files
// into the import tree consumed by catalog.Flatten.
package importer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/riskaudit/pkg/domain"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
)

// Format identifies an import encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// Document is a decoded import payload.
type Document struct {
	Name         string         `json:"name,omitempty"`
	Description  string         `json:"description,omitempty"`
	Prefix       string         `json:"prefix,omitempty"`
	Requirements []catalog.Node `json:"requirements"`
}

// SchemaError reports a payload that does not have the shape of an import
// document. Nothing from such a payload may be written.
type SchemaError struct {
	Problems []catalog.ValidationError
}

func (e *SchemaError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid import document"
	}
	msg := "invalid import document: " + e.Problems[0].Error()
	if len(e.Problems) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(e.Problems)-1)
	}
	return msg
}

// Is allows errors.Is to match domain.ErrValidation.
func (e *SchemaError) Is(target error) bool {
	return target == domain.ErrValidation
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported import file %s: %w", filepath.Base(path), domain.ErrValidation)
	}
}

// Parse decodes data in the given format. Row-level problems that do not
// invalidate the whole payload are returned alongside the document.
func Parse(data []byte, format Format) (*Document, []catalog.ValidationError, error) {
	switch format {
	case FormatJSON:
		doc, err := decodeJSON(data)
		return doc, nil, err
	case FormatYAML:
		doc, err := decodeYAML(data)
		return doc, nil, err
	case FormatCSV:
		nodes, problems, err := ParseCSV(strings.NewReader(string(data)))
		if err != nil {
			return nil, nil, err
		}
		return &Document{Requirements: nodes}, problems, nil
	default:
		return nil, nil, fmt.Errorf("unsupported format %q: %w", format, domain.ErrValidation)
	}
}

// NameFromPath derives a catalog name from a file name.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
