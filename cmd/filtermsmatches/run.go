package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/carbocation/metagenomisc"
	"github.com/carbocation/metagenomisc/matches"
)

type config struct {
	Input        string
	OutputTopN   string
	OutputSorted string
	N            int

	// NaN means no threshold
	ANIThreshold float64

	Delimiter string
	Histogram bool
}

func (c config) HasThreshold() bool {
	return !math.IsNaN(c.ANIThreshold)
}

func run(cfg config) error {
	opener, err := metagenomisc.NewOpener(cfg.Input)
	if err != nil {
		return err
	}
	defer opener.Close()

	data, err := opener.ReadFile(cfg.Input)
	if err != nil {
		return err
	}

	comma, err := metagenomisc.ParseDelimiter(cfg.Delimiter, data)
	if err != nil {
		return err
	}

	all, err := matches.Load(bytes.NewReader(data), comma)
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.Input, err)
	}
	log.Println("Loaded", all.Len(), "rows from", cfg.Input)

	sorted, err := rank(os.Stdout, all, cfg)
	if err != nil {
		return err
	}

	if cfg.OutputSorted != "" {
		if err := sorted.Table().WriteFile(cfg.OutputSorted); err != nil {
			return err
		}
		fmt.Printf("Saved sorted table to: %s\n", cfg.OutputSorted)
	}

	top := sorted.TopN(cfg.N)
	if cfg.OutputTopN != "" {
		if err := top.Table().WriteFile(cfg.OutputTopN); err != nil {
			return err
		}
		fmt.Printf("Saved top %d match_name entries to: %s\n", cfg.N, cfg.OutputTopN)
	}

	return nil
}

// rank sorts the matches, reports on them, and applies the ANI threshold if
// one was given. The returned selection is sorted.
func rank(w io.Writer, all *matches.Matches, cfg config) (*matches.Matches, error) {
	sorted := all.Sort()

	summary, err := sorted.Summarize()
	if err != nil {
		return nil, err
	}
	summary.Fprint(w)

	if cfg.Histogram {
		fmt.Fprintf(w, "\nquery_containment_ani histogram:\n")
		if err := sorted.FprintANIHistogram(w, 20, 50); err != nil {
			return nil, err
		}
	}

	if !cfg.HasThreshold() {
		return sorted, nil
	}

	sorted = sorted.FilterANI(cfg.ANIThreshold)

	filtered, err := sorted.Summarize()
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "\nTotal rows after ANI threshold (%v): %d\n", cfg.ANIThreshold, filtered.Rows)
	fmt.Fprintf(w, "Number of unique match_name after ANI threshold: %d\n", filtered.UniqueMatches)
	fmt.Fprintf(w, "Average number of queries per match_name (ANI >= %v): %.2f\n", cfg.ANIThreshold, filtered.QueriesPerMatch)

	fmt.Fprintf(w, "\nAfter ANI threshold:\n")
	filtered.Fprint(w)

	return sorted, nil
}
