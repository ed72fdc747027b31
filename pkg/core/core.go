package core

import (
	"context"

	"github.com/pansweep/pansweep/internal/detectors"
	"github.com/pansweep/pansweep/internal/engine"
	"github.com/pansweep/pansweep/internal/redact"
	"github.com/pansweep/pansweep/internal/types"
)

// Re-exported as aliases so the public path stays stable if the internal
// packages move.
type (
	Config        = engine.Config
	DetectOptions = detectors.Options
	CardMatch     = types.CardMatch
	ScanSummary   = types.ScanSummary
	SkipRecord    = types.SkipRecord
	Severity      = types.Severity
)

const (
	SevLow  = types.SevLow
	SevMed  = types.SevMed
	SevHigh = types.SevHigh
)

// ErrNoInputs is returned when no input paths are given.
var ErrNoInputs = engine.ErrNoInputs

// Scan scans inputs with default settings: one worker per CPU, no size
// limit, every brand enabled.
func Scan(ctx context.Context, inputs []string) ([]CardMatch, ScanSummary, error) {
	return ScanWithConfig(ctx, Config{Inputs: inputs})
}

// ScanWithConfig runs a scan with full control over scope and detection.
// Matches are sorted by path and line.
func ScanWithConfig(ctx context.Context, cfg Config) ([]CardMatch, ScanSummary, error) {
	res, err := engine.ScanWithStats(ctx, cfg)
	if err != nil {
		return nil, ScanSummary{}, err
	}
	return res.Matches, res.Summary, nil
}

// NewCardMatch builds a match from a digits-only PAN of at least 10 digits.
func NewCardMatch(brand, pan, path string, line int, raw string) CardMatch {
	return types.NewCardMatch(brand, pan, path, line, raw)
}

// MaskedPAN returns the BIN, mask characters and last four digits of m.
func MaskedPAN(m CardMatch) string { return redact.MaskedPAN(m) }

// MaskedLine returns m's line with the PAN masked. ok is false when the PAN
// could not be located in the line, which is then returned unchanged.
func MaskedLine(m CardMatch) (line string, ok bool) { return redact.MaskedLine(m) }

// Classify returns the brand of a digit string, or false if no rule matches.
func Classify(digits string) (string, bool) { return detectors.Classify(digits) }

// ValidLuhn reports whether s is a string of digits passing the Luhn check.
func ValidLuhn(s string) bool { return detectors.ValidLuhn(s) }

// BrandNames lists the brands the classifier knows, in rule order.
func BrandNames() []string { return detectors.BrandNames() }
