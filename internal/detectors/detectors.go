package detectors

import (
	"strings"

	"github.com/pansweep/pansweep/internal/types"
	"github.com/pansweep/pansweep/internal/validate"
)

// Options tunes the per-line pipeline. The zero value accepts every
// Luhn-valid, classified candidate.
type Options struct {
	// SkipTestCards drops well-known processor test numbers.
	SkipTestCards bool
	// InlineIgnore honors pansweep:ignore markers.
	InlineIgnore bool
	// Enable, when set, keeps only these brands (comma-separated names).
	Enable string
	// Disable drops these brands (comma-separated names).
	Disable string
}

// Detector turns lines of text into card matches.
type Detector struct {
	opts    Options
	allowed map[string]bool
	blocked map[string]bool
}

// New builds a Detector from opts.
func New(opts Options) *Detector {
	return &Detector{
		opts:    opts,
		allowed: brandSet(opts.Enable),
		blocked: brandSet(opts.Disable),
	}
}

func brandSet(csv string) map[string]bool {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	out := map[string]bool{}
	for _, name := range strings.Split(csv, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			out[name] = true
		}
	}
	return out
}

// Evaluate runs validation and classification on one candidate digit string.
// It returns the brand and true when the candidate is a card number.
func (d *Detector) Evaluate(digits string) (string, bool) {
	if !validate.LengthBetween(digits, 13, 19) {
		return "", false
	}
	if !ValidLuhn(digits) {
		return "", false
	}
	brand, ok := Classify(digits)
	if !ok {
		return "", false
	}
	if d.opts.SkipTestCards && IsKnownTestCard(digits) {
		return "", false
	}
	key := strings.ToLower(brand)
	if d.allowed != nil && !d.allowed[key] {
		return "", false
	}
	if d.blocked[key] {
		return "", false
	}
	return brand, true
}

// FileScan carries suppression state across the lines of one file.
type FileScan struct {
	d      *Detector
	path   string
	ignore ignoreState
}

// ForFile starts a line-by-line scan of path.
func (d *Detector) ForFile(path string) *FileScan {
	return &FileScan{d: d, path: path}
}

// ScanLine returns the matches on one line. lineNo is 1-based.
func (f *FileScan) ScanLine(lineNo int, line string) []types.CardMatch {
	if f.d.opts.InlineIgnore && f.ignore.suppress(line) {
		return nil
	}
	var out []types.CardMatch
	for c := range Candidates(line) {
		brand, ok := f.d.Evaluate(c.Digits)
		if !ok {
			continue
		}
		out = append(out, types.NewCardMatch(brand, c.Digits, f.path, lineNo, line))
	}
	return out
}
