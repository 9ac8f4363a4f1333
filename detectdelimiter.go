package metagenomisc

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

// ParseDelimiter interprets a --delimiter flag value. "auto" sniffs the
// delimiter from sample; "tab" and `\t` mean a tab; any other value must be a
// single character.
func ParseDelimiter(value string, sample []byte) (rune, error) {
	switch value {
	case "auto":
		return DetermineDelimiter(bytes.NewReader(sample)), nil
	case "tab", `\t`:
		return '\t', nil
	case "":
		return ',', nil
	}

	if utf8.RuneCountInString(value) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character, \"tab\" or \"auto\"", value)
	}

	r, _ := utf8.DecodeRuneInString(value)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter %q cannot be used with CSV", value)
	}

	return r, nil
}
