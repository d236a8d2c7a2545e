package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
)

// CSV columns. Only section is required.
const (
	ColumnID           = "id"
	ColumnSection      = "section"
	ColumnHeading      = "heading"
	ColumnText         = "text"
	ColumnImportant    = "important"
	ColumnDependencies = "dependencies"
	ColumnEffort       = "effort"
)

type csvRow struct {
	line     int
	node     catalog.Node
	parent   string
	children []*csvRow
}

// ParseCSV reads the custom CSV layout and nests rows by section prefix: the
// parent of section 2.3.1 is the row with section 2.3. Rows that cannot be
// placed or parsed are reported by line number and left out, along with any
// rows nested under them.
func ParseCSV(r io.Reader) ([]catalog.Node, []catalog.ValidationError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []catalog.Node{}, nil, nil
	}
	if err != nil {
		return nil, nil, &SchemaError{Problems: []catalog.ValidationError{{Message: err.Error()}}}
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols[ColumnSection]; !ok {
		return nil, nil, &SchemaError{Problems: []catalog.ValidationError{{Path: "header", Message: "missing section column"}}}
	}

	var problems []catalog.ValidationError
	report := func(line int, format string, args ...interface{}) {
		problems = append(problems, catalog.ValidationError{
			Path:    fmt.Sprintf("row %d", line),
			Message: fmt.Sprintf(format, args...),
		})
	}

	rows := make([]*csvRow, 0)
	bySection := make(map[string]*csvRow)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report(parseErr.Line, "%v", parseErr.Err)
				continue
			}
			return nil, nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		section := strings.Trim(field(ColumnSection), ".")
		if section == "" {
			if strings.TrimSpace(strings.Join(record, "")) != "" {
				report(line, "section is required")
			}
			continue
		}
		if _, dup := bySection[section]; dup {
			report(line, "duplicate section %q", section)
			continue
		}

		node := catalog.Node{
			ID:           field(ColumnID),
			Section:      section,
			Heading:      field(ColumnHeading),
			Text:         field(ColumnText),
			Dependencies: splitDependencies(field(ColumnDependencies)),
		}
		if v := field(ColumnImportant); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				report(line, "important %q is not an integer", v)
				continue
			}
			node.Important = n
		}
		if v := field(ColumnEffort); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				report(line, "effort %q is not an integer", v)
				continue
			}
			node.Effort = &n
		}

		row := &csvRow{line: line, node: node, parent: parentSection(section)}
		rows = append(rows, row)
		bySection[section] = row
	}

	roots := make([]*csvRow, 0)
	placed := make(map[*csvRow]bool)
	var place func(row *csvRow) bool
	place = func(row *csvRow) bool {
		if ok, done := placed[row]; done {
			return ok
		}
		if row.parent == "" {
			placed[row] = true
			return true
		}
		parent, ok := bySection[row.parent]
		if !ok {
			placed[row] = false
			report(row.line, "parent section %q not found", row.parent)
			return false
		}
		if !place(parent) {
			placed[row] = false
			report(row.line, "parent section %q was rejected", row.parent)
			return false
		}
		placed[row] = true
		return true
	}
	for _, row := range rows {
		if !place(row) {
			continue
		}
		if row.parent == "" {
			roots = append(roots, row)
		} else {
			parent := bySection[row.parent]
			parent.children = append(parent.children, row)
		}
	}

	return toNodes(roots), problems, nil
}

func toNodes(rows []*csvRow) []catalog.Node {
	out := make([]catalog.Node, 0, len(rows))
	for _, r := range rows {
		n := r.node
		n.Children = toNodes(r.children)
		out = append(out, n)
	}
	return out
}

func parentSection(section string) string {
	i := strings.LastIndex(section, ".")
	if i < 0 {
		return ""
	}
	return section[:i]
}

func splitDependencies(v string) []string {
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ';' || r == '|' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
