package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/pansweep/pansweep/internal/report"
)

// ErrUnmasked is returned when asked to persist a document with full PANs.
var ErrUnmasked = errors.New("cache: refusing to store unmasked results")

// ScanResults stores the masked document and metadata from a scan
type ScanResults struct {
	Document  report.Document `json:"document"`
	Timestamp time.Time       `json:"timestamp"`
	Inputs    []string        `json:"inputs"`
	Count     int             `json:"count"`
}

func resultsPath(root string) string {
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "pansweep_last_scan.json")
	}
	return filepath.Join(root, ".pansweep_last_scan.json")
}

// SaveResults saves the last scan under root. Only masked documents are
// accepted, and lines the masker could not fully redact are not stored.
func SaveResults(root string, inputs []string, doc report.Document) error {
	if !doc.Masked {
		return ErrUnmasked
	}
	doc = doc.WithoutRawLines()
	results := ScanResults{
		Document:  doc,
		Timestamp: time.Now(),
		Inputs:    inputs,
		Count:     len(doc.Matches),
	}
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(resultsPath(root), b, 0o600)
}

// LoadResults loads the last scan results from cache
func LoadResults(root string) (ScanResults, error) {
	var results ScanResults
	f, err := os.ReadFile(resultsPath(root))
	if err != nil {
		return results, err
	}
	if err := json.Unmarshal(f, &results); err != nil {
		return results, err
	}
	return results, nil
}
