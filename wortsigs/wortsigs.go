// Package wortsigs selects wort signature paths whose accessions appear in a
// branchwater search result.
package wortsigs

import (
	"bufio"
	"io"
	"strings"

	"github.com/carbocation/metagenomisc/table"
	"github.com/carbocation/pfx"
)

// SigSuffix is stripped from a signature's file name to get its accession.
const SigSuffix = ".sig"

var Schema = table.Schema{
	"acc": table.String,
}

type branchwaterRow struct {
	Acc string `csv:"acc"`
}

// AccessionSet is the set of accepted accessions.
type AccessionSet map[string]struct{}

func (s AccessionSet) Has(acc string) bool {
	_, exists := s[acc]
	return exists
}

// LoadAccessions reads the acc column of a branchwater result table.
func LoadAccessions(r io.Reader, comma rune) (AccessionSet, error) {
	tbl, err := table.Read(r, comma)
	if err != nil {
		return nil, err
	}

	if err := tbl.Check(Schema); err != nil {
		return nil, pfx.Err(err)
	}

	rows := make([]*branchwaterRow, 0, tbl.Len())
	if err := tbl.Decode(&rows); err != nil {
		return nil, err
	}

	out := make(AccessionSet, len(rows))
	for _, row := range rows {
		out[row.Acc] = struct{}{}
	}

	return out, nil
}

// AccessionFromPath derives the accession named by one line of a signature
// list: surrounding whitespace is dropped, then the directory, then a single
// trailing ".sig".
func AccessionFromPath(line string) string {
	path := strings.TrimSpace(line)
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}

	return strings.TrimSuffix(path, SigSuffix)
}

// Filter copies to w each line of r whose accession is in accepted. Lines are
// written byte for byte, terminators included, in their original order.
func Filter(r io.Reader, w io.Writer, accepted AccessionSet) (kept, seen int, err error) {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			seen++
			if accepted.Has(AccessionFromPath(line)) {
				if _, werr := bw.WriteString(line); werr != nil {
					return kept, seen, pfx.Err(werr)
				}
				kept++
			}
		}

		if err == io.EOF {
			break
		} else if err != nil {
			return kept, seen, pfx.Err(err)
		}
	}

	if err := bw.Flush(); err != nil {
		return kept, seen, pfx.Err(err)
	}

	return kept, seen, nil
}
