// Package lineage filters genome metadata tables by LIN (life identification
// number) prefix and derives the accession/name table used for sketching.
package lineage

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/carbocation/metagenomisc/table"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"
)

// DefaultPrefix selects the Ralstonia phylotype I LIN group.
const DefaultPrefix = "864,0,0,1"

// Schema lists the columns this package reads. assemblyID is declared a
// String: most identifiers look numeric, but not all of them are, and leading
// zeros must survive.
var Schema = table.Schema{
	"assemblyID":         table.String,
	"LIN":                table.String,
	"accession":          table.NullableString,
	"ncbi_genus-species": table.NullableString,
	"strain":             table.NullableString,
}

type Record struct {
	AssemblyID   string      `csv:"assemblyID"`
	LIN          string      `csv:"LIN"`
	Accession    null.String `csv:"accession"`
	GenusSpecies null.String `csv:"ncbi_genus-species"`
	Strain       null.String `csv:"strain"`

	// position of the raw row in the loaded table
	row int
}

// Lineages is an immutable selection of rows from a loaded table. Filters
// return new selections and never modify the receiver.
type Lineages struct {
	tbl     *table.Table
	Records []*Record
}

// Load reads and schema-checks a lineage table.
func Load(r io.Reader, comma rune) (*Lineages, error) {
	tbl, err := table.Read(r, comma)
	if err != nil {
		return nil, err
	}

	return FromTable(tbl)
}

// FromTable decodes an already-read table.
func FromTable(tbl *table.Table) (*Lineages, error) {
	if err := tbl.Check(Schema); err != nil {
		return nil, pfx.Err(err)
	}

	records := make([]*Record, 0, tbl.Len())
	if err := tbl.Decode(&records); err != nil {
		return nil, err
	}

	for i := range records {
		records[i].row = i
	}

	return &Lineages{tbl: tbl, Records: records}, nil
}

func (l *Lineages) Len() int {
	return len(l.Records)
}

func (l *Lineages) filter(keep func(*Record) bool) *Lineages {
	out := &Lineages{tbl: l.tbl, Records: make([]*Record, 0, len(l.Records))}
	for _, rec := range l.Records {
		if keep(rec) {
			out.Records = append(out.Records, rec)
		}
	}

	return out
}

// Dedup keeps the first row seen for each assemblyID, in input order.
// duplicated counts every row whose assemblyID occurs more than once.
func (l *Lineages) Dedup() (out *Lineages, duplicated int) {
	counts := make(map[string]int, len(l.Records))
	for _, rec := range l.Records {
		counts[rec.AssemblyID]++
	}

	for _, n := range counts {
		if n > 1 {
			duplicated += n
		}
	}

	seen := make(map[string]struct{}, len(counts))
	out = l.filter(func(rec *Record) bool {
		if _, exists := seen[rec.AssemblyID]; exists {
			return false
		}
		seen[rec.AssemblyID] = struct{}{}
		return true
	})

	return out, duplicated
}

// WithAccession keeps rows with a non-null accession.
func (l *Lineages) WithAccession() *Lineages {
	return l.filter(func(rec *Record) bool {
		return rec.Accession.Valid
	})
}

// WithLINPrefix keeps rows whose LIN starts with prefix. The comparison is on
// the raw text, so "864,0,0,1" also matches "864,0,0,10,...".
func (l *Lineages) WithLINPrefix(prefix string) *Lineages {
	return l.filter(func(rec *Record) bool {
		return strings.HasPrefix(rec.LIN, prefix)
	})
}

// Table returns the selected rows with every original column, verbatim.
func (l *Lineages) Table() *table.Table {
	positions := make([]int, 0, len(l.Records))
	for _, rec := range l.Records {
		positions = append(positions, rec.row)
	}

	return l.tbl.Subset(positions)
}

type SketchRow struct {
	Accession string `csv:"accession"`
	Name      string `csv:"name"`
}

// SketchName builds the display name for a genome. Null parts are written as
// their CSV text, the empty string.
func SketchName(genusSpecies, strain null.String) string {
	return genusSpecies.String + " strain: " + strain.String
}

// Sketch derives the two-column accession/name table.
func (l *Lineages) Sketch() []*SketchRow {
	out := make([]*SketchRow, 0, len(l.Records))
	for _, rec := range l.Records {
		out = append(out, &SketchRow{
			Accession: rec.Accession.String,
			Name:      SketchName(rec.GenusSpecies, rec.Strain),
		})
	}

	return out
}

func WriteSketch(w io.Writer, rows []*SketchRow) error {
	if err := gocsv.Marshal(&rows, w); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func WriteSketchFile(path string, rows []*SketchRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := WriteSketch(f, rows); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// Summary holds the counts reported at each filtering step.
type Summary struct {
	Total         int
	Duplicated    int
	Deduplicated  int
	WithAccession int
	PrefixMatches int
	Retained      int
}

func (s Summary) Removed() int {
	return s.Total - s.Deduplicated
}

// Filter runs the whole selection: drop duplicate assemblyIDs, keep rows
// whose LIN starts with prefix, then keep those that have an accession.
func Filter(l *Lineages, prefix string) (*Lineages, Summary) {
	s := Summary{Total: l.Len()}

	deduped, duplicated := l.Dedup()
	s.Duplicated = duplicated
	s.Deduplicated = deduped.Len()
	s.WithAccession = deduped.WithAccession().Len()

	matched := deduped.WithLINPrefix(prefix)
	s.PrefixMatches = matched.Len()

	retained := matched.WithAccession()
	s.Retained = retained.Len()

	return retained, s
}

func (s Summary) Fprint(w io.Writer, prefix string) {
	fmt.Fprintf(w, "Duplicated rows: %d (%d total). Dropping %d duplicates.\n", s.Duplicated, s.Total, s.Removed())
	fmt.Fprintf(w, "Rows with 'accession' column: %d (%d total)\n", s.WithAccession, s.Deduplicated)
	fmt.Fprintf(w, "LIN prefix %s rows with accessions: %d (%d total)\n", prefix, s.Retained, s.PrefixMatches)
}
