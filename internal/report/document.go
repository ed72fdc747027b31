package report

import (
	"strconv"

	"github.com/pansweep/pansweep/internal/redact"
	"github.com/pansweep/pansweep/internal/types"
)

// Row is one match as shown to a reader. PAN and Content are masked unless
// the document was built unmasked.
type Row struct {
	Brand         string         `json:"brand" yaml:"brand"`
	PAN           string         `json:"pan" yaml:"pan"`
	BIN           string         `json:"bin" yaml:"bin"`
	LastFour      string         `json:"last_four" yaml:"last_four"`
	Length        int            `json:"length" yaml:"length"`
	Path          string         `json:"file_path" yaml:"file_path"`
	Line          int            `json:"line_number" yaml:"line_number"`
	Content       string         `json:"line_content" yaml:"line_content"`
	FullyRedacted bool           `json:"fully_redacted" yaml:"fully_redacted"`
	Risk          types.Severity `json:"risk" yaml:"risk"`
	Fingerprint   string         `json:"fingerprint" yaml:"fingerprint"`
	Field         string         `json:"field,omitempty" yaml:"field,omitempty"`
}

// HiddenLine stands in for a line that still shows a full number.
const HiddenLine = "(line hidden)"

// Document is everything a renderer needs.
type Document struct {
	Masked  bool              `json:"masked" yaml:"masked"`
	Matches []Row             `json:"matches" yaml:"matches"`
	Summary types.ScanSummary `json:"summary" yaml:"summary"`
	// Unredacted counts masked rows whose line still shows the number.
	Unredacted int `json:"unredacted_lines" yaml:"unredacted_lines"`
}

// NewDocument builds rows from matches in their given order. Every match on a
// line is masked together, so a line with two cards shows neither.
func NewDocument(matches []types.CardMatch, sum types.ScanSummary, unmasked bool) Document {
	doc := Document{Masked: !unmasked, Summary: sum, Matches: make([]Row, 0, len(matches))}

	byLine := map[string][]types.CardMatch{}
	for _, m := range matches {
		k := lineKey(m)
		byLine[k] = append(byLine[k], m)
	}
	redacted := map[string]string{}
	complete := map[string]bool{}
	for k, ms := range byLine {
		redacted[k], complete[k] = redact.RedactLine(ms[0].RawLine, ms)
	}

	risk := map[string]types.Severity{}
	for sev, paths := range sum.FilesByRisk {
		for _, p := range paths {
			risk[p] = sev
		}
	}

	for _, m := range matches {
		k := lineKey(m)
		r := Row{
			Brand:         m.Brand,
			PAN:           redact.MaskedPAN(m),
			BIN:           m.BIN,
			LastFour:      m.LastFour,
			Length:        m.Length,
			Path:          m.Path,
			Line:          m.Line,
			Content:       redacted[k],
			FullyRedacted: complete[k],
			Risk:          risk[m.Path],
			Fingerprint:   Fingerprint(m),
			Field:         m.Field,
		}
		if unmasked {
			r.PAN = m.PAN
			r.Content = m.RawLine
		} else if !r.FullyRedacted {
			doc.Unredacted++
		}
		doc.Matches = append(doc.Matches, r)
	}
	return doc
}

// WithoutRawLines returns a copy of d in which rows that are not fully
// redacted show HiddenLine instead of their content.
func (d Document) WithoutRawLines() Document {
	rows := make([]Row, len(d.Matches))
	for i, r := range d.Matches {
		if !r.FullyRedacted {
			r.Content = HiddenLine
		}
		rows[i] = r
	}
	d.Matches = rows
	return d
}

func lineKey(m types.CardMatch) string {
	return m.Path + "\x00" + strconv.Itoa(m.Line)
}
