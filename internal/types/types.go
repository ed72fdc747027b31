package types

import (
	"sort"
	"time"
)

// Severity is a coarse-grained risk level for a file containing card numbers.
type Severity string

const (
	SevLow  Severity = "low"
	SevMed  Severity = "medium"
	SevHigh Severity = "high"
)

// Severities lists the risk levels from most to least severe.
var Severities = []Severity{SevHigh, SevMed, SevLow}

// RiskForCount maps the number of card numbers found in one file to a risk
// level. More than 10 is high, 4..10 is medium, 1..3 is low. Zero returns "".
func RiskForCount(n int) Severity {
	switch {
	case n > 10:
		return SevHigh
	case n >= 4:
		return SevMed
	case n >= 1:
		return SevLow
	default:
		return ""
	}
}

// CardMatch is one validated, classified payment card number found at a
// path and line. PAN holds the digits only.
type CardMatch struct {
	Brand    string `json:"brand" yaml:"brand"`
	PAN      string `json:"full_pan" yaml:"full_pan"`
	BIN      string `json:"bin" yaml:"bin"`
	LastFour string `json:"last_four" yaml:"last_four"`
	Length   int    `json:"length" yaml:"length"`
	Path     string `json:"file_path" yaml:"file_path"`
	Line     int    `json:"line_number" yaml:"line_number"`
	RawLine  string `json:"raw_line_content" yaml:"raw_line_content"`
	// Field is the key path holding the number in JSON and YAML files.
	Field string `json:"field,omitempty" yaml:"field,omitempty"`
}

// NewCardMatch derives BIN, LastFour and Length from pan. Callers must pass a
// digits-only PAN of at least 10 digits.
func NewCardMatch(brand, pan, path string, line int, raw string) CardMatch {
	return CardMatch{
		Brand:    brand,
		PAN:      pan,
		BIN:      pan[:6],
		LastFour: pan[len(pan)-4:],
		Length:   len(pan),
		Path:     path,
		Line:     line,
		RawLine:  raw,
	}
}

// SortMatches orders matches by path, then line, then PAN.
func SortMatches(ms []CardMatch) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Path != ms[j].Path {
			return ms[i].Path < ms[j].Path
		}
		if ms[i].Line != ms[j].Line {
			return ms[i].Line < ms[j].Line
		}
		return ms[i].PAN < ms[j].PAN
	})
}

// Skip reasons recorded on SkipRecord.
const (
	SkipOpen     = "open"
	SkipRead     = "read"
	SkipDecode   = "decode"
	SkipTooLarge = "too_large"
)

// SkipRecord describes a file or directory that could not be fully scanned.
type SkipRecord struct {
	Path    string `json:"path" yaml:"path"`
	Reason  string `json:"reason" yaml:"reason"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Partial bool   `json:"partial,omitempty" yaml:"partial,omitempty"`
	// Line is the first line left unscanned, for skips that stop mid-file.
	Line int `json:"line,omitempty" yaml:"line,omitempty"`
}

// ScanSummary aggregates a completed scan.
type ScanSummary struct {
	FilesScanned       int                   `json:"files_scanned" yaml:"files_scanned"`
	DirectoriesScanned int                   `json:"directories_scanned" yaml:"directories_scanned"`
	TotalSizeBytes     int64                 `json:"total_size_bytes" yaml:"total_size_bytes"`
	TotalCardsFound    int                   `json:"total_cards_found" yaml:"total_cards_found"`
	CardTypeCounts     map[string]int        `json:"card_type_counts" yaml:"card_type_counts"`
	FilesByRisk        map[Severity][]string `json:"files_by_risk" yaml:"files_by_risk"`
	FilesWithCards     []string              `json:"files_with_cards" yaml:"files_with_cards"`
	CleanFiles         []string              `json:"clean_files" yaml:"clean_files"`
	SkippedFiles       []SkipRecord          `json:"skipped_files" yaml:"skipped_files"`
	PartialFiles       []SkipRecord          `json:"partial_files,omitempty" yaml:"partial_files,omitempty"`
	SkippedDirectories []SkipRecord          `json:"skipped_directories,omitempty" yaml:"skipped_directories,omitempty"`
	AllScannedFiles    []string              `json:"all_scanned_files" yaml:"all_scanned_files"`
	Duration           time.Duration         `json:"duration_ns" yaml:"duration_ns"`
}

func (s ScanSummary) WithCardsCount() int { return len(s.FilesWithCards) }
func (s ScanSummary) CleanCount() int     { return len(s.CleanFiles) }
func (s ScanSummary) SkippedCount() int   { return len(s.SkippedFiles) }

// RiskOf returns the risk level recorded for path, or "" if it has none.
func (s ScanSummary) RiskOf(path string) Severity {
	for _, sev := range Severities {
		for _, p := range s.FilesByRisk[sev] {
			if p == path {
				return sev
			}
		}
	}
	return ""
}
