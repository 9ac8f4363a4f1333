// Package matches ranks sourmash/branchwater similarity results and selects
// the best-ranked row for each matched metagenome.
package matches

import (
	"io"
	"math"
	"sort"
	"strings"

	"github.com/carbocation/metagenomisc/table"
	"github.com/carbocation/pfx"
	"gopkg.in/guregu/null.v3"
)

const DefaultTopN = 1000

var Schema = table.Schema{
	"match_name":                 table.String,
	"query_name":                 table.String,
	"containment":                table.NullableFloat,
	"query_containment_ani":      table.NullableFloat,
	"f_weighted_target_in_query": table.NullableFloat,
}

type Match struct {
	MatchName   string     `csv:"match_name"`
	QueryName   string     `csv:"query_name"`
	Containment null.Float `csv:"containment"`
	ANI         null.Float `csv:"query_containment_ani"`
	FWeighted   null.Float `csv:"f_weighted_target_in_query"`

	row int
	raw string
}

// Matches is an immutable, ordered selection of rows from a loaded table.
type Matches struct {
	tbl     *table.Table
	Records []*Match
}

// Load reads and schema-checks a match table.
func Load(r io.Reader, comma rune) (*Matches, error) {
	tbl, err := table.Read(r, comma)
	if err != nil {
		return nil, err
	}

	return FromTable(tbl)
}

func FromTable(tbl *table.Table) (*Matches, error) {
	if err := tbl.Check(Schema); err != nil {
		return nil, pfx.Err(err)
	}

	records := make([]*Match, 0, tbl.Len())
	if err := tbl.Decode(&records); err != nil {
		return nil, err
	}

	for i, rec := range records {
		rec.row = i
		rec.raw = strings.Join(tbl.Rows[i], "\x1f")
	}

	return &Matches{tbl: tbl, Records: records}, nil
}

func (m *Matches) Len() int {
	return len(m.Records)
}

func (m *Matches) with(records []*Match) *Matches {
	return &Matches{tbl: m.tbl, Records: records}
}

// value reports whether f holds a usable number. Nulls and NaN do not.
func value(f null.Float) (float64, bool) {
	if !f.Valid || math.IsNaN(f.Float64) {
		return 0, false
	}
	return f.Float64, true
}

// compareDesc orders larger values first and missing values last. It returns
// a negative number when a ranks ahead of b.
func compareDesc(a, b null.Float) int {
	av, aok := value(a)
	bv, bok := value(b)

	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	case av > bv:
		return -1
	case av < bv:
		return 1
	}

	return 0
}

func compareStringDesc(a, b string) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

// Ranks reports whether a is ranked ahead of b: highest
// f_weighted_target_in_query, then highest query_containment_ani, then
// match_name descending. The remaining keys only separate rows that share a
// match_name, and make the order total.
func Ranks(a, b *Match) bool {
	for _, c := range []int{
		compareDesc(a.FWeighted, b.FWeighted),
		compareDesc(a.ANI, b.ANI),
		compareStringDesc(a.MatchName, b.MatchName),
		compareStringDesc(a.QueryName, b.QueryName),
		compareDesc(a.Containment, b.Containment),
		compareStringDesc(a.raw, b.raw),
	} {
		if c != 0 {
			return c < 0
		}
	}

	return false
}

// Sort returns the rows in rank order.
func (m *Matches) Sort() *Matches {
	records := make([]*Match, len(m.Records))
	copy(records, m.Records)

	sort.SliceStable(records, func(i, j int) bool {
		return Ranks(records[i], records[j])
	})

	return m.with(records)
}

// FilterANI keeps rows whose query_containment_ani is at least threshold.
// Rows without an ANI never pass.
func (m *Matches) FilterANI(threshold float64) *Matches {
	records := make([]*Match, 0, len(m.Records))
	for _, rec := range m.Records {
		if ani, ok := value(rec.ANI); ok && ani >= threshold {
			records = append(records, rec)
		}
	}

	return m.with(records)
}

// Unique keeps the first row for each match_name, in the current order. On a
// sorted selection that is the best-ranked row per match.
func (m *Matches) Unique() *Matches {
	seen := make(map[string]struct{})
	records := make([]*Match, 0)
	for _, rec := range m.Records {
		if _, exists := seen[rec.MatchName]; exists {
			continue
		}
		seen[rec.MatchName] = struct{}{}
		records = append(records, rec)
	}

	return m.with(records)
}

// TopN keeps the best-ranked row per match_name and returns the first n of
// them. The receiver should already be sorted.
func (m *Matches) TopN(n int) *Matches {
	unique := m.Unique()
	if n < 0 {
		n = 0
	}
	if n < len(unique.Records) {
		unique.Records = unique.Records[:n]
	}

	return unique
}

// Table returns the selected rows with every original column, in selection
// order.
func (m *Matches) Table() *table.Table {
	positions := make([]int, 0, len(m.Records))
	for _, rec := range m.Records {
		positions = append(positions, rec.row)
	}

	return m.tbl.Subset(positions)
}

// ANIValues returns the usable query_containment_ani values.
func (m *Matches) ANIValues() []float64 {
	return collect(m.Records, func(rec *Match) null.Float { return rec.ANI })
}

func collect(records []*Match, field func(*Match) null.Float) []float64 {
	out := make([]float64, 0, len(records))
	for _, rec := range records {
		if v, ok := value(field(rec)); ok {
			out = append(out, v)
		}
	}
	return out
}
