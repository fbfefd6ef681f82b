// Package source reads raw bank CSV exports and manages the input and
// archive directories. It has no knowledge of row semantics beyond
// locating the expected columns.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/perfin-dev/perfin/internal/model"
)

// Column names expected in every source export, after whitespace
// trimming. Account Number is optional: it is dropped during
// normalization and some exports omit it.
var requiredColumns = []string{
	"Date",
	"Type",
	"Description",
	"Value",
	"Account Name",
	"Balance",
}

const colAccountNumber = "Account Number"

// SchemaMismatchError reports a source file missing a required column.
// It aborts the whole batch before any row is transformed.
type SchemaMismatchError struct {
	File   string
	Column string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("source %s: missing required column %q", e.File, e.Column)
}

// Read parses one source export into raw rows. Header names are
// whitespace-trimmed before mapping; field values are kept verbatim.
func Read(r io.Reader, file string) ([]model.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // sources disagree on trailing columns

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading source CSV %s: %w", file, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, &SchemaMismatchError{File: file, Column: name}
		}
	}

	field := func(rec []string, name string) string {
		c, ok := index[name]
		if !ok || c >= len(rec) {
			return ""
		}
		return rec[c]
	}

	var rows []model.RawRow
	for i, rec := range records[1:] {
		rows = append(rows, model.RawRow{
			File:          file,
			Line:          i + 2, // 1-based, after header
			Date:          field(rec, "Date"),
			Type:          field(rec, "Type"),
			Description:   field(rec, "Description"),
			Value:         field(rec, "Value"),
			AccountName:   field(rec, "Account Name"),
			AccountNumber: field(rec, colAccountNumber),
			Balance:       field(rec, "Balance"),
		})
	}
	return rows, nil
}

// ReadFile reads one source export from disk.
func ReadFile(path string) ([]model.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening source %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path))
}

// ReadFiles reads and concatenates every listed source export, in
// order. Any schema mismatch aborts the whole read.
func ReadFiles(files []FileInfo) ([]model.RawRow, error) {
	var rows []model.RawRow
	for _, fi := range files {
		r, err := ReadFile(fi.Path)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r...)
	}
	return rows, nil
}
