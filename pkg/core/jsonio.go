package core

import (
	"encoding/json"
	"io"

	"github.com/pansweep/pansweep/internal/report"
)

// MarshalMatches pretty-prints matches as JSON. The output includes full
// card numbers.
func MarshalMatches(w io.Writer, matches []CardMatch) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(matches)
}

// UnmarshalMatches decodes JSON written by MarshalMatches.
func UnmarshalMatches(r io.Reader) ([]CardMatch, error) {
	var ms []CardMatch
	if err := json.NewDecoder(r).Decode(&ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// WriteReport renders a report in one of the CLI formats (table, text, json,
// yaml, csv, sarif). Card numbers are masked unless unmasked is set.
func WriteReport(w io.Writer, format string, matches []CardMatch, sum ScanSummary, unmasked bool) error {
	doc := report.NewDocument(matches, sum, unmasked)
	return report.Write(w, format, doc, report.PrintOptions{NoColor: true}, "")
}
