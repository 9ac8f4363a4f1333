// Package table holds a delimited text file in memory exactly as it was read,
// checks it against an explicit per-column schema, and hands its rows to gocsv
// for decoding into typed records. Rows are never rewritten, so a filtered
// table can be written back out verbatim.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// Kind says how the cells of a column must be interpreted.
type Kind int

const (
	// String cells are kept as opaque text, even when they look numeric.
	String Kind = iota
	// NullableString cells are text; an empty cell is null.
	NullableString
	// Float cells must parse as a float64.
	Float
	// NullableFloat cells must parse as a float64 or be empty.
	NullableFloat
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case NullableString:
		return "nullable string"
	case Float:
		return "float"
	case NullableFloat:
		return "nullable float"
	}
	return "unknown"
}

// Schema names the columns a tool relies upon and how each must be read.
// Columns that are not named are carried along as text.
type Schema map[string]Kind

var (
	ErrMissingColumn   = errors.New("missing column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrNoHeader        = errors.New("no header row")
)

// CellError reports a cell that could not be coerced to its column's Kind.
// Row is 1-based and counts data rows only.
type CellError struct {
	Row    int
	Column string
	Kind   Kind
	Value  string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d, column %q: cannot read %q as %s: %v", e.Row, e.Column, e.Value, e.Kind, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

type Table struct {
	Header []string
	Rows   [][]string

	cols map[string]int
}

// Read parses a delimited file whose first row is the header.
func Read(r io.Reader, comma rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma

	entries, err := cr.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}

	if len(entries) == 0 {
		return nil, pfx.Err(ErrNoHeader)
	}

	return New(entries[0], entries[1:])
}

// New builds a table from a header and its rows. Header names must be unique.
func New(header []string, rows [][]string) (*Table, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		if _, exists := cols[name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		cols[name] = i
	}

	return &Table{
		Header: header,
		Rows:   rows,
		cols:   cols,
	}, nil
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of column name.
func (t *Table) Index(name string) (int, bool) {
	i, ok := t.cols[name]
	return i, ok
}

// Cell returns the text of column name in row i.
func (t *Table) Cell(i int, name string) string {
	col, ok := t.cols[name]
	if !ok || col >= len(t.Rows[i]) {
		return ""
	}

	return t.Rows[i][col]
}

// Check verifies that every schema column exists and that every cell of the
// numeric columns parses.
func (t *Table) Check(schema Schema) error {
	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		col, ok := t.cols[name]
		if !ok {
			return fmt.Errorf("%w: %q (have %s)", ErrMissingColumn, name, strings.Join(t.Header, ", "))
		}

		kind := schema[name]
		if kind != Float && kind != NullableFloat {
			continue
		}

		for i, row := range t.Rows {
			var value string
			if col < len(row) {
				value = row[col]
			}
			if value == "" {
				if kind == NullableFloat {
					continue
				}
				return &CellError{Row: i + 1, Column: name, Kind: kind, Value: value, Err: errors.New("empty value")}
			}
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				return &CellError{Row: i + 1, Column: name, Kind: kind, Value: value, Err: err}
			}
		}
	}

	return nil
}

// Subset returns a new table holding the rows at the given positions, in the
// order given. Row slices are shared with t.
func (t *Table) Subset(positions []int) *Table {
	rows := make([][]string, 0, len(positions))
	for _, pos := range positions {
		rows = append(rows, t.Rows[pos])
	}

	return &Table{
		Header: t.Header,
		Rows:   rows,
		cols:   t.cols,
	}
}

// Decode unmarshals every row into out, which must be a pointer to a slice of
// gocsv-tagged structs (or pointers to them). Element i of out corresponds to
// t.Rows[i].
func (t *Table) Decode(out interface{}) error {
	if err := gocsv.UnmarshalCSV(t.CSVReader(), out); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// CSVReader replays the header and rows, so that gocsv can decode a table that
// has already been read.
func (t *Table) CSVReader() gocsv.CSVReader {
	return &replayReader{t: t, next: -1}
}

type replayReader struct {
	t    *Table
	next int // -1 is the header
}

func (r *replayReader) Read() ([]string, error) {
	if r.next == -1 {
		r.next++
		return r.t.Header, nil
	}

	if r.next >= len(r.t.Rows) {
		return nil, io.EOF
	}

	row := r.t.Rows[r.next]
	r.next++

	return row, nil
}

func (r *replayReader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			return out, nil
		} else if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
}

// Write emits the header and rows as comma-delimited CSV.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Header); err != nil {
		return pfx.Err(err)
	}

	if err := cw.WriteAll(t.Rows); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// WriteFile writes the table to path, replacing any existing file.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := t.Write(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// Preview prints the shape of the table and its first n rows, aligned.
func (t *Table) Preview(w io.Writer, n int) error {
	fmt.Fprintf(w, "shape: (%d, %d)\n", len(t.Rows), len(t.Header))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Header, "\t"))
	for i, row := range t.Rows {
		if i >= n {
			fmt.Fprintf(tw, "… %d more rows\n", len(t.Rows)-n)
			break
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	return tw.Flush()
}
