package matches

import (
	"fmt"
	"io"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/guregu/null.v3"
)

var (
	ContainmentThresholds = []float64{0.1, 0.2}
	ANIThresholds         = []float64{0.85, 0.90, 0.95}
	FWeightedThresholds   = []float64{0.1, 0.01, 0.001}
)

// Distribution describes the non-missing values of one metric. All fields
// are zero when N is 0.
type Distribution struct {
	N                      int
	Min, Max, Mean, Median float64
}

type ThresholdCount struct {
	Threshold float64
	Matches   int
}

type Summary struct {
	Rows            int
	UniqueMatches   int
	QueriesPerMatch float64

	Containment Distribution
	ANI         Distribution

	ContainmentAbove []ThresholdCount
	ANIAbove         []ThresholdCount
	FWeightedAbove   []ThresholdCount
}

// Summarize computes the statistics reported for a selection.
func (m *Matches) Summarize() (Summary, error) {
	s := Summary{
		Rows:            m.Len(),
		UniqueMatches:   m.UniqueMatches(),
		QueriesPerMatch: m.QueriesPerMatch(),
	}

	var err error
	if s.Containment, err = describe(collect(m.Records, containment)); err != nil {
		return s, err
	}
	if s.ANI, err = describe(collect(m.Records, ani)); err != nil {
		return s, err
	}

	s.ContainmentAbove = m.countAbove(containment, ContainmentThresholds)
	s.ANIAbove = m.countAbove(ani, ANIThresholds)
	s.FWeightedAbove = m.countAbove(fWeighted, FWeightedThresholds)

	return s, nil
}

func containment(rec *Match) null.Float { return rec.Containment }
func ani(rec *Match) null.Float         { return rec.ANI }
func fWeighted(rec *Match) null.Float   { return rec.FWeighted }

// UniqueMatches counts distinct match_name values.
func (m *Matches) UniqueMatches() int {
	seen := make(map[string]struct{})
	for _, rec := range m.Records {
		seen[rec.MatchName] = struct{}{}
	}
	return len(seen)
}

// QueriesPerMatch is the mean number of distinct query_name values per
// match_name. It is NaN for an empty selection.
func (m *Matches) QueriesPerMatch() float64 {
	queries := make(map[string]map[string]struct{})
	order := make([]string, 0)
	for _, rec := range m.Records {
		q, exists := queries[rec.MatchName]
		if !exists {
			q = make(map[string]struct{})
			queries[rec.MatchName] = q
			order = append(order, rec.MatchName)
		}
		q[rec.QueryName] = struct{}{}
	}

	counts := make([]float64, 0, len(order))
	for _, name := range order {
		counts = append(counts, float64(len(queries[name])))
	}

	return stat.Mean(counts, nil)
}

func (m *Matches) countAbove(field func(*Match) null.Float, thresholds []float64) []ThresholdCount {
	out := make([]ThresholdCount, 0, len(thresholds))
	for _, threshold := range thresholds {
		seen := make(map[string]struct{})
		for _, rec := range m.Records {
			if v, ok := value(field(rec)); ok && v >= threshold {
				seen[rec.MatchName] = struct{}{}
			}
		}
		out = append(out, ThresholdCount{Threshold: threshold, Matches: len(seen)})
	}

	return out
}

func describe(values []float64) (Distribution, error) {
	d := Distribution{N: len(values)}
	if d.N == 0 {
		return d, nil
	}

	data := stats.Float64Data(values)

	var err error
	if d.Min, err = stats.Min(data); err != nil {
		return d, err
	}
	if d.Max, err = stats.Max(data); err != nil {
		return d, err
	}
	if d.Mean, err = stats.Mean(data); err != nil {
		return d, err
	}
	if d.Median, err = stats.Median(data); err != nil {
		return d, err
	}

	return d, nil
}

func (d Distribution) Fprint(w io.Writer) {
	if d.N == 0 {
		fmt.Fprintln(w, "  Min: n/a, Max: n/a, Mean: n/a, Median: n/a")
		return
	}

	fmt.Fprintf(w, "  Min: %.1f%%, Max: %.1f%%, Mean: %.1f%%, Median: %.1f%%\n", d.Min*100, d.Max*100, d.Mean*100, d.Median*100)
}

func fprintCounts(w io.Writer, counts []ThresholdCount, what string) {
	for _, c := range counts {
		fmt.Fprintf(w, "  %d unique metagenomes with %s ≥ %.1f%%\n", c.Matches, what, c.Threshold*100)
	}
}

// Fprint writes the report in the same layout for every selection.
func (s Summary) Fprint(w io.Writer) {
	fmt.Fprintf(w, "Total unique metagenomes: %d\n", s.UniqueMatches)
	fmt.Fprintf(w, "Average number of queries per metagenome: %.2f\n", s.QueriesPerMatch)

	fmt.Fprintf(w, "\nQuery containment:\n")
	s.Containment.Fprint(w)
	fprintCounts(w, s.ContainmentAbove, "query containment")

	fmt.Fprintf(w, "\nQuery containment ANI:\n")
	s.ANI.Fprint(w)
	fprintCounts(w, s.ANIAbove, "ANI")

	fmt.Fprintf(w, "\nTotal %% metagenome (f_weighted_target_in_query):\n")
	fprintCounts(w, s.FWeightedAbove, "f_weighted_target_in_query")
}

// FprintANIHistogram draws a text histogram of query_containment_ani.
func (m *Matches) FprintANIHistogram(w io.Writer, bins, width int) error {
	values := m.ANIValues()
	if len(values) == 0 {
		fmt.Fprintln(w, "No query_containment_ani values to plot")
		return nil
	}

	hist := histogram.Hist(bins, values)

	return histogram.Fprint(w, hist, histogram.Linear(width))
}
