package detectors

import (
	"iter"

	"github.com/pansweep/pansweep/internal/validate"
)

// Bounds on a candidate run, separators included.
const (
	minRunLen = 12
	maxRunLen = 19
)

// Candidate is a possible card number located in a line. Raw is the text as
// it appears, Digits the same text with separators removed, and [Start,End)
// its byte offsets in the line.
type Candidate struct {
	Raw    string
	Digits string
	Start  int
	End    int
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSeparator(c byte) bool { return c == ' ' || c == '-' }

// Candidates yields, left to right, every non-overlapping run in line made of
// digits optionally joined by single space or dash separators. A run starts
// and ends on a digit, is not adjacent to another digit on either side and
// spans 12 to 19 characters. When a start admits several ends the longest one
// is taken.
func Candidates(line string) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		i := 0
		for i < len(line) {
			if !isDigit(line[i]) || (i > 0 && isDigit(line[i-1])) {
				i++
				continue
			}
			end := longestRun(line, i)
			if end < 0 {
				i++
				continue
			}
			raw := line[i:end]
			if !yield(Candidate{Raw: raw, Digits: validate.StripSeparators(raw), Start: i, End: end}) {
				return
			}
			i = end
		}
	}
}

// longestRun returns the exclusive end of the longest qualifying run starting
// at start, or -1 when none qualifies.
func longestRun(line string, start int) int {
	best := -1
	j := start
	for j < len(line) && j-start < maxRunLen {
		c := line[j]
		switch {
		case isDigit(c):
			j++
			n := j - start
			if n >= minRunLen && (j == len(line) || !isDigit(line[j])) {
				best = j
			}
		case isSeparator(c) && j+1 < len(line) && isDigit(line[j+1]) && isDigit(line[j-1]):
			j++
		default:
			return best
		}
	}
	return best
}

// CandidateList collects Candidates(line) into a slice.
func CandidateList(line string) []Candidate {
	var out []Candidate
	for c := range Candidates(line) {
		out = append(out, c)
	}
	return out
}
