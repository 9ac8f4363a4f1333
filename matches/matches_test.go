package matches

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"
)

const header = "match_name,query_name,containment,query_containment_ani,f_weighted_target_in_query,extra\n"

var rows = []string{
	"SRR1,q1,0.30,0.97,0.200,a\n",
	"SRR1,q2,0.25,0.96,0.200,b\n",
	"SRR2,q1,0.15,0.96,0.050,c\n",
	"SRR3,q1,0.05,0.86,0.050,d\n",
	"SRR3,q3,0.12,0.91,0.0005,e\n",
	"SRR4,q2,0.02,0.80,0.0009,f\n",
	"SRR5,q4,,,,g\n",
}

func load(t *testing.T, lines []string) *Matches {
	t.Helper()
	m, err := Load(strings.NewReader(header+strings.Join(lines, "")), ',')
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func sortedCSV(t *testing.T, m *Matches) string {
	t.Helper()
	var buf bytes.Buffer
	if err := m.Sort().Table().Write(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestSortOrder(t *testing.T) {
	m := load(t, rows).Sort()

	var got []string
	for _, rec := range m.Records {
		got = append(got, rec.MatchName+"/"+rec.QueryName)
	}

	// f_weighted ties between SRR1 rows are broken by ANI; between SRR2 and
	// SRR3 (0.05) by ANI; missing metrics go last.
	expected := []string{"SRR1/q1", "SRR1/q2", "SRR2/q1", "SRR3/q1", "SRR4/q2", "SRR3/q3", "SRR5/q4"}
	if strings.Join(got, " ") != strings.Join(expected, " ") {
		t.Errorf("Got %v, expected %v", got, expected)
	}
}

func TestSortMatchNameTieBreak(t *testing.T) {
	m := load(t, []string{
		"SRR_A,q,0.1,0.9,0.1,x\n",
		"SRR_C,q,0.1,0.9,0.1,x\n",
		"SRR_B,q,0.1,0.9,0.1,x\n",
	}).Sort()

	var got []string
	for _, rec := range m.Records {
		got = append(got, rec.MatchName)
	}

	if strings.Join(got, ",") != "SRR_C,SRR_B,SRR_A" {
		t.Errorf("Expected match_name descending, got %v", got)
	}
}

func TestSortIsDeterministic(t *testing.T) {
	// Include rows that tie on every ranked metric and on match_name.
	lines := append([]string{
		"SRR9,q1,0.1,0.9,0.1,x\n",
		"SRR9,q1,0.1,0.9,0.1,y\n",
		"SRR9,q2,0.1,0.9,0.1,x\n",
	}, rows...)

	expected := sortedCSV(t, load(t, lines))

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 25; i++ {
		shuffled := make([]string, len(lines))
		copy(shuffled, lines)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		if got := sortedCSV(t, load(t, shuffled)); got != expected {
			t.Fatalf("Shuffle %d changed the output:\n%s\nexpected\n%s", i, got, expected)
		}
	}
}

func TestTopN(t *testing.T) {
	m := load(t, rows).Sort()

	for _, n := range []int{0, 1, 3, 5, 1000} {
		top := m.TopN(n)

		expected := n
		if distinct := m.UniqueMatches(); distinct < n {
			expected = distinct
		}
		if top.Len() != expected {
			t.Errorf("n=%d: got %d rows, expected %d", n, top.Len(), expected)
		}

		seen := make(map[string]bool)
		for _, rec := range top.Records {
			if seen[rec.MatchName] {
				t.Errorf("n=%d: %s appears twice", n, rec.MatchName)
			}
			seen[rec.MatchName] = true

			// No other row for this match ranks ahead of the chosen one.
			for _, other := range m.Records {
				if other.MatchName == rec.MatchName && Ranks(other, rec) {
					t.Errorf("n=%d: %s/%s outranks chosen %s/%s", n, other.MatchName, other.QueryName, rec.MatchName, rec.QueryName)
				}
			}
		}
	}

	top := m.TopN(2)
	if top.Records[0].QueryName != "q1" || top.Records[1].MatchName != "SRR2" {
		t.Errorf("Unexpected top 2: %+v %+v", top.Records[0], top.Records[1])
	}
}

func TestFilterANI(t *testing.T) {
	m := load(t, rows)

	filtered := m.FilterANI(0.9)
	if filtered.Len() != 4 {
		t.Errorf("Expected 4 rows, got %d", filtered.Len())
	}
	for _, rec := range filtered.Records {
		if rec.ANI.Float64 < 0.9 || !rec.ANI.Valid {
			t.Errorf("Row %+v passed the threshold", rec)
		}
	}

	if got := m.FilterANI(math.Inf(-1)).Len(); got != m.Len()-1 {
		t.Errorf("An unbounded threshold kept %d rows; only the missing ANI should be dropped", got)
	}
}

func TestSummarize(t *testing.T) {
	m := load(t, rows)

	s, err := m.Summarize()
	if err != nil {
		t.Fatal(err)
	}

	if s.Rows != 7 || s.UniqueMatches != 5 {
		t.Errorf("Unexpected counts: %+v", s)
	}

	// SRR1: 2 queries, SRR2: 1, SRR3: 2, SRR4: 1, SRR5: 1
	if math.Abs(s.QueriesPerMatch-7.0/5.0) > 1e-9 {
		t.Errorf("Expected 1.4 queries per match, got %f", s.QueriesPerMatch)
	}

	if s.ANI.N != 6 || s.ANI.Min != 0.80 || s.ANI.Max != 0.97 {
		t.Errorf("Unexpected ANI distribution %+v", s.ANI)
	}
	if math.Abs(s.ANI.Median-0.935) > 1e-9 {
		t.Errorf("Expected ANI median 0.935, got %f", s.ANI.Median)
	}

	for _, v := range []struct {
		name     string
		got      []ThresholdCount
		expected []int
	}{
		{"containment", s.ContainmentAbove, []int{3, 1}},
		{"ani", s.ANIAbove, []int{3, 3, 2}},
		{"fweighted", s.FWeightedAbove, []int{1, 3, 3}},
	} {
		for i, c := range v.got {
			if c.Matches != v.expected[i] {
				t.Errorf("%s ≥ %g: got %d, expected %d", v.name, c.Threshold, c.Matches, v.expected[i])
			}
		}
	}

	var buf bytes.Buffer
	s.Fprint(&buf)
	out := buf.String()
	for _, expected := range []string{
		"Total unique metagenomes: 5\n",
		"Average number of queries per metagenome: 1.40\n",
		"  Min: 80.0%, Max: 97.0%, Mean: 91.0%, Median: 93.5%\n",
		"  3 unique metagenomes with ANI ≥ 85.0%\n",
		"  1 unique metagenomes with f_weighted_target_in_query ≥ 10.0%\n",
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("Report is missing %q:\n%s", expected, out)
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	m := load(t, nil)

	s, err := m.Summarize()
	if err != nil {
		t.Fatal(err)
	}
	if s.ANI.N != 0 || s.UniqueMatches != 0 {
		t.Errorf("Unexpected summary %+v", s)
	}

	var buf bytes.Buffer
	s.Fprint(&buf)
	if !strings.Contains(buf.String(), "Min: n/a") {
		t.Errorf("Expected n/a for an empty distribution:\n%s", buf.String())
	}
}

func TestHistogram(t *testing.T) {
	var buf bytes.Buffer
	if err := load(t, rows).FprintANIHistogram(&buf, 5, 20); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("Expected histogram output")
	}
}

func TestLoadRejectsBadMetric(t *testing.T) {
	_, err := Load(strings.NewReader(header+"SRR1,q1,high,0.9,0.1,x\n"), ',')
	if err == nil {
		t.Fatal("Expected an error for a non-numeric containment")
	}
}
