package redact

import (
	"strings"

	"github.com/pansweep/pansweep/internal/types"
)

// MaskChar replaces the hidden middle digits of a PAN.
const MaskChar = "X"

// MaskedPAN returns the masked form of m's PAN: BIN, then Length-10 mask
// characters, then the last four digits.
func MaskedPAN(m types.CardMatch) string {
	return m.BIN + strings.Repeat(MaskChar, m.Length-10) + m.LastFour
}

// groupedForms returns the 4-4-4-4 renderings of a 16 digit PAN.
func groupedForms(pan string) []string {
	if len(pan) != 16 {
		return nil
	}
	var out []string
	for _, sep := range []string{" ", "-"} {
		out = append(out, pan[0:4]+sep+pan[4:8]+sep+pan[8:12]+sep+pan[12:16])
	}
	return out
}

// MaskedLine redacts m's PAN in m.RawLine. It first replaces the contiguous
// digits, then for 16 digit PANs the space or dash 4-4-4-4 grouping. The
// second result is false when neither form was found and the line is returned
// unchanged.
func MaskedLine(m types.CardMatch) (string, bool) {
	return maskIn(m.RawLine, m)
}

func maskIn(line string, m types.CardMatch) (string, bool) {
	masked := MaskedPAN(m)
	if strings.Contains(line, m.PAN) {
		return strings.ReplaceAll(line, m.PAN, masked), true
	}
	for _, g := range groupedForms(m.PAN) {
		if strings.Contains(line, g) {
			return strings.ReplaceAll(line, g, masked), true
		}
	}
	return line, false
}

// RedactLine applies every match to line in turn. It reports false if any
// match could not be located, in which case part of the line may still hold
// a full PAN.
func RedactLine(line string, matches []types.CardMatch) (string, bool) {
	complete := true
	seen := map[string]bool{}
	for _, m := range matches {
		if seen[m.PAN] {
			continue
		}
		seen[m.PAN] = true
		var ok bool
		line, ok = maskIn(line, m)
		if !ok {
			complete = false
		}
	}
	return line, complete
}
