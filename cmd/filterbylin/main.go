// filterbylin keeps the genomes of a LIN metadata table that fall under a LIN
// prefix and have an accession, and writes the accession/name table used to
// sketch them.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/carbocation/metagenomisc"
	_ "github.com/carbocation/metagenomisc/compileinfoprint"
	"github.com/carbocation/metagenomisc/lineage"
)

func main() {
	var output, outputSketch, linPrefix, delimiter string
	var preview int

	flag.StringVar(&output, "output", "ralstonia-864.0.0.1.csv", "Path to the output CSV file")
	flag.StringVar(&outputSketch, "output-gbsketch", "ralstonia-864.0.0.1.gbsketch.csv", "Path to the output gbSketch file (accession,name)")
	flag.StringVar(&linPrefix, "lin-prefix", lineage.DefaultPrefix, "LIN prefix to match")
	flag.StringVar(&delimiter, "delimiter", ",", "Delimiter of csv_file. Use 'tab' for tabs or 'auto' to detect it.")
	flag.IntVar(&preview, "preview", 10, "Number of retained rows to print")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] csv_file\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "csv_file may be a local path, gs://, or s3:// URL, optionally compressed.")
		flag.PrintDefaults()
	}

	positional := parseInterspersed()
	if len(positional) != 1 {
		flag.Usage()
		log.Fatalln("Please provide exactly one csv_file")
	}
	csvFile := positional[0]

	log.Println("Launched filterbylin")

	if err := run(csvFile, output, outputSketch, linPrefix, delimiter, preview); err != nil {
		log.Fatalln(err)
	}
}

// parseInterspersed parses flags that appear before or after positional
// arguments, and returns the positional arguments in order.
func parseInterspersed() []string {
	flag.Parse()

	var positional []string
	for args := flag.Args(); len(args) > 0; args = flag.Args() {
		positional = append(positional, args[0])
		flag.CommandLine.Parse(args[1:])
	}

	return positional
}

func run(csvFile, output, outputSketch, linPrefix, delimiter string, preview int) error {
	opener, err := metagenomisc.NewOpener(csvFile)
	if err != nil {
		return err
	}
	defer opener.Close()

	data, err := opener.ReadFile(csvFile)
	if err != nil {
		return err
	}

	comma, err := metagenomisc.ParseDelimiter(delimiter, data)
	if err != nil {
		return err
	}

	lins, err := lineage.Load(bytes.NewReader(data), comma)
	if err != nil {
		return fmt.Errorf("%s: %w", csvFile, err)
	}
	log.Println("Loaded", lins.Len(), "rows from", csvFile)

	retained, summary := lineage.Filter(lins, linPrefix)
	summary.Fprint(os.Stdout, linPrefix)

	filtered := retained.Table()
	if err := filtered.Preview(os.Stdout, preview); err != nil {
		return err
	}

	if err := filtered.WriteFile(output); err != nil {
		return err
	}
	fmt.Printf("Filtered results written to %s\n", output)

	if err := lineage.WriteSketchFile(outputSketch, retained.Sketch()); err != nil {
		return err
	}
	fmt.Printf("gbsketch written to %s\n", outputSketch)

	return nil
}
