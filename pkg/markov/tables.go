package markov

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/proteome-lab/kmerspace/pkg/kmer"
)

// DefaultTableColumns is the number of transition columns read from each row
// of an external table, starting at the second column.
const DefaultTableColumns = 23

// DefaultIdentifierColumn names the column holding the file name each row
// was computed from.
const DefaultIdentifierColumn = "FileName"

// Identifier derives a table identifier from a file name: its first two
// underscore-delimited tokens. A name with no underscore is its own
// identifier.
func Identifier(name string) string {
	parts := strings.SplitN(name, "_", 3)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "_")
}

// IdentifierForPath is Identifier applied to the base name of path.
func IdentifierForPath(path string) string {
	return Identifier(filepath.Base(path))
}

// Tables is an in-memory set of transition tables keyed by identifier.
type Tables map[string]Table

// Table returns the table for identifier.
func (ts Tables) Table(_ context.Context, identifier string) (Table, error) {
	t, ok := ts[identifier]
	if !ok {
		return nil, fmt.Errorf("transition table %q: %w", identifier, kmer.ErrIdentifierNotFound)
	}
	return t, nil
}

type loadOptions struct {
	columns  int
	idColumn string
}

// LoadOption configures LoadTables.
type LoadOption func(*loadOptions)

// WithColumns sets how many transition columns follow the first column.
// Default: DefaultTableColumns.
func WithColumns(n int) LoadOption {
	return func(o *loadOptions) {
		o.columns = n
	}
}

// WithIdentifierColumn sets the header of the column identifiers are derived
// from. Default: DefaultIdentifierColumn.
func WithIdentifierColumn(name string) LoadOption {
	return func(o *loadOptions) {
		o.idColumn = name
	}
}

// LoadTables reads a wide CSV of transition tables. The header names the
// pairs; columns 1 through n (n = WithColumns) of every row are parsed as
// probabilities keyed by their header. The row's identifier is Identifier
// of its identifier column. Later rows replace earlier rows with the same
// identifier.
//
// A header or row too short for n columns, or a cell that is not a number,
// is reported as kmer.ErrMalformedTable.
func LoadTables(r io.Reader, opts ...LoadOption) (Tables, error) {
	o := loadOptions{columns: DefaultTableColumns, idColumn: DefaultIdentifierColumn}
	for _, opt := range opts {
		opt(&o)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty table: %w", kmer.ErrMalformedTable)
	}
	if err != nil {
		return nil, fmt.Errorf("table header: %w", err)
	}
	if len(header) < o.columns+1 {
		return nil, fmt.Errorf("header has %d columns, need %d: %w", len(header), o.columns+1, kmer.ErrMalformedTable)
	}
	idCol := -1
	for i, name := range header {
		if strings.TrimSpace(name) == o.idColumn {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("no %q column: %w", o.idColumn, kmer.ErrMalformedTable)
	}

	tables := make(Tables)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return tables, nil
		}
		if err != nil {
			return nil, fmt.Errorf("table row: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if len(row) < o.columns+1 || len(row) <= idCol {
			return nil, fmt.Errorf("line %d has %d columns, need %d: %w", line, len(row), o.columns+1, kmer.ErrMalformedTable)
		}
		t := make(Table, o.columns)
		for c := 1; c <= o.columns; c++ {
			p, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %v: %w", line, header[c], err, kmer.ErrMalformedTable)
			}
			t[strings.TrimSpace(header[c])] = p
		}
		tables[Identifier(row[idCol])] = t
	}
}

// LoadTablesFile is LoadTables over the file at path.
func LoadTablesFile(path string, opts ...LoadOption) (Tables, error) {
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("transition table %s: %w", path, kmer.ErrMissingArtifact)
		}
		return nil, err
	}
	defer func(fh *os.File) {
		_ = fh.Close()
	}(fh)
	tables, err := LoadTables(fh, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tables, nil
}
