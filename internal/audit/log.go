package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pansweep/pansweep/internal/redact"
	"github.com/pansweep/pansweep/internal/report"
	"github.com/pansweep/pansweep/internal/types"
)

// ScanRecord is one line of the audit log. It holds no full card numbers.
type ScanRecord struct {
	Timestamp      time.Time      `json:"timestamp"`
	ScanID         string         `json:"scan_id"`
	Inputs         []string       `json:"inputs"`
	TotalCards     int            `json:"total_cards"`
	NewCards       int            `json:"new_cards"`
	BaselinedCount int            `json:"baselined_count"`
	CardTypeCounts map[string]int `json:"card_type_counts"`
	RiskCounts     map[string]int `json:"risk_counts"`
	FilesScanned   int            `json:"files_scanned"`
	FilesWithCards int            `json:"files_with_cards"`
	FilesSkipped   int            `json:"files_skipped"`
	Duration       string         `json:"duration"`
	BaselineFile   string         `json:"baseline_file,omitempty"`
	TopMatches     []MatchSummary `json:"top_matches,omitempty"`
	Fingerprints   []string       `json:"fingerprints,omitempty"`
}

type MatchSummary struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Brand  string `json:"brand"`
	Masked string `json:"masked_pan"`
	Risk   string `json:"risk"`
}

type AuditLog struct {
	logPath string
}

// NewAuditLog places the log inside .git when root is a repository so it is
// never committed, and at the root otherwise.
func NewAuditLog(root string) *AuditLog {
	gitDir := filepath.Join(root, ".git")
	logPath := filepath.Join(root, ".pansweep_audit.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		logPath = filepath.Join(gitDir, "pansweep_audit.jsonl")
	}
	return &AuditLog{logPath: logPath}
}

// Path returns the log file location.
func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns records newest first. Reading stops at the first
// malformed record.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record ScanRecord
		if err := decoder.Decode(&record); err != nil {
			break
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = fmt.Sprintf("scan_%d", time.Now().UnixNano())
	}

	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// DeleteRecord removes the record at index, counted newest first as returned
// by LoadHistory.
func (a *AuditLog) DeleteRecord(index int) error {
	records, err := a.LoadHistory()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(records) {
		return fmt.Errorf("invalid index: %d", index)
	}
	records = append(records[:index], records[index+1:]...)

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to rewrite audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("failed to write audit record: %w", err)
		}
	}
	return nil
}

// CreateScanRecord summarizes a scan. newMatches is the baseline-filtered
// subset of all matches.
func CreateScanRecord(
	inputs []string,
	sum types.ScanSummary,
	all []types.CardMatch,
	newMatches []types.CardMatch,
	baselineFile string,
) ScanRecord {
	riskCounts := map[string]int{}
	for sev, files := range sum.FilesByRisk {
		riskCounts[string(sev)] = len(files)
	}
	brands := map[string]int{}
	for k, v := range sum.CardTypeCounts {
		brands[k] = v
	}

	top := make([]MatchSummary, 0, 10)
	for i, m := range newMatches {
		if i >= 10 {
			break
		}
		top = append(top, MatchSummary{
			Path:   m.Path,
			Line:   m.Line,
			Brand:  m.Brand,
			Masked: redact.MaskedPAN(m),
			Risk:   string(sum.RiskOf(m.Path)),
		})
	}
	fps := make([]string, 0, len(all))
	for _, m := range all {
		fps = append(fps, report.Fingerprint(m))
	}

	return ScanRecord{
		Timestamp:      time.Now(),
		Inputs:         append([]string(nil), inputs...),
		TotalCards:     len(all),
		NewCards:       len(newMatches),
		BaselinedCount: len(all) - len(newMatches),
		CardTypeCounts: brands,
		RiskCounts:     riskCounts,
		FilesScanned:   sum.FilesScanned,
		FilesWithCards: sum.WithCardsCount(),
		FilesSkipped:   sum.SkippedCount(),
		Duration:       sum.Duration.String(),
		BaselineFile:   baselineFile,
		TopMatches:     top,
		Fingerprints:   fps,
	}
}
