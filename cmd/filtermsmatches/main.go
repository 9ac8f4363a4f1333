// filtermsmatches ranks branchwater/sourmash matches by
// f_weighted_target_in_query and selects the best row for each of the top
// matched metagenomes.
package main

import (
	"flag"
	"log"
	"math"
	"strconv"

	_ "github.com/carbocation/metagenomisc/compileinfoprint"
	"github.com/carbocation/metagenomisc/matches"
)

func main() {
	var input, outputTopN, outputSorted, aniThresholdFlag, delimiter string
	var n int
	var hist bool

	flag.StringVar(&input, "input", "", "Path to input CSV file. May be a gs:// or s3:// URL, optionally compressed.")
	flag.StringVar(&outputTopN, "output-top-n", "", "Path to output top-N match_name summary CSV.")
	flag.IntVar(&n, "n", matches.DefaultTopN, "Number of top match_name entries to return.")
	flag.StringVar(&aniThresholdFlag, "ani-threshold", "", "Minimum query_containment_ani to include. If empty, no filter is applied.")
	flag.StringVar(&outputSorted, "output-sorted", "", "Output CSV path for all rows, ranked and passing any ANI filter.")
	flag.BoolVar(&hist, "histogram", false, "Print a histogram of query_containment_ani.")
	flag.StringVar(&delimiter, "delimiter", ",", "Delimiter of the input. Use 'tab' for tabs or 'auto' to detect it.")
	flag.Parse()

	if input == "" {
		flag.Usage()
		log.Fatalln("Please provide --input")
	}

	if n < 0 {
		flag.Usage()
		log.Fatalln("-n must not be negative")
	}

	cfg := config{
		Input:        input,
		OutputTopN:   outputTopN,
		OutputSorted: outputSorted,
		N:            n,
		ANIThreshold: math.NaN(),
		Delimiter:    delimiter,
		Histogram:    hist,
	}

	if aniThresholdFlag != "" {
		threshold, err := strconv.ParseFloat(aniThresholdFlag, 64)
		if err != nil {
			log.Fatalln("Could not parse --ani-threshold:", err)
		}
		cfg.ANIThreshold = threshold
	}

	log.Println("Launched filtermsmatches")

	if err := run(cfg); err != nil {
		log.Fatalln(err)
	}
}
