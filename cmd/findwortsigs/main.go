// findwortsigs keeps the wort signature paths whose accessions appear in the
// acc column of a branchwater result.
package main

import (
	"bytes"
	"flag"
	"io"
	"log"
	"os"

	"github.com/carbocation/metagenomisc"
	_ "github.com/carbocation/metagenomisc/compileinfoprint"
	"github.com/carbocation/metagenomisc/wortsigs"
)

func main() {
	var wortSigs, branchwaterCSV, output, delimiter string

	flag.StringVar(&wortSigs, "wort-sigs", "", "Path to the file listing one signature path per line")
	flag.StringVar(&branchwaterCSV, "branchwater-csv", "", "Path to the branchwater CSV file with an 'acc' column")
	flag.StringVar(&output, "output", "", "Path to the output file. If empty, writes to stdout.")
	flag.StringVar(&output, "o", "", "Shorthand for --output")
	flag.StringVar(&delimiter, "delimiter", ",", "Delimiter of the branchwater CSV. Use 'tab' for tabs or 'auto' to detect it.")
	flag.Parse()

	if wortSigs == "" {
		flag.Usage()
		log.Fatalln("Please provide --wort-sigs")
	}

	if branchwaterCSV == "" {
		flag.Usage()
		log.Fatalln("Please provide --branchwater-csv")
	}

	log.Println("Launched findwortsigs")

	if err := run(wortSigs, branchwaterCSV, output, delimiter); err != nil {
		log.Fatalln(err)
	}
}

func run(wortSigs, branchwaterCSV, output, delimiter string) error {
	opener, err := metagenomisc.NewOpener(wortSigs, branchwaterCSV)
	if err != nil {
		return err
	}
	defer opener.Close()

	data, err := opener.ReadFile(branchwaterCSV)
	if err != nil {
		return err
	}

	comma, err := metagenomisc.ParseDelimiter(delimiter, data)
	if err != nil {
		return err
	}

	accepted, err := wortsigs.LoadAccessions(bytes.NewReader(data), comma)
	if err != nil {
		return err
	}
	log.Println("Loaded", len(accepted), "accessions from", branchwaterCSV)

	sigs, err := opener.Open(wortSigs)
	if err != nil {
		return err
	}
	defer sigs.Close()

	var out io.WriteCloser = os.Stdout
	if output != "" {
		out, err = os.Create(output)
		if err != nil {
			return err
		}
		defer out.Close()
	}

	kept, seen, err := wortsigs.Filter(sigs, out, accepted)
	if err != nil {
		return err
	}
	log.Println("Kept", kept, "of", seen, "signature paths")

	if output != "" {
		return out.Close()
	}

	return nil
}
