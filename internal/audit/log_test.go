package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pansweep/pansweep/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const visa = "4532015112830366"

func TestNewAuditLog_PrefersGitDir(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, ".pansweep_audit.jsonl"), NewAuditLog(dir).Path())

	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	assert.Equal(t, filepath.Join(dir, ".git", "pansweep_audit.jsonl"), NewAuditLog(dir).Path())
}

func TestLogScan_HistoryNewestFirst(t *testing.T) {
	a := NewAuditLog(t.TempDir())
	require.NoError(t, a.LogScan(ScanRecord{ScanID: "one", TotalCards: 1}))
	require.NoError(t, a.LogScan(ScanRecord{ScanID: "two", TotalCards: 2}))
	require.NoError(t, a.LogScan(ScanRecord{ScanID: "three", TotalCards: 3}))

	recs, err := a.LoadHistory()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "three", recs[0].ScanID)
	assert.Equal(t, "one", recs[2].ScanID)

	st, err := os.Stat(a.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	require.NoError(t, a.DeleteRecord(0))
	recs, err = a.LoadHistory()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "two", recs[0].ScanID)
	assert.Error(t, a.DeleteRecord(5))
}

func TestLoadHistory_Missing(t *testing.T) {
	_, err := NewAuditLog(t.TempDir()).LoadHistory()
	assert.Error(t, err)
}

func TestCreateScanRecord_NoFullPANs(t *testing.T) {
	all := []types.CardMatch{
		types.NewCardMatch("Visa", visa, "a.log", 1, visa),
		types.NewCardMatch("Visa", visa, "a.log", 2, visa),
	}
	sum := types.ScanSummary{
		FilesScanned:    2,
		TotalCardsFound: 2,
		CardTypeCounts:  map[string]int{"Visa": 2},
		FilesByRisk:     map[types.Severity][]string{types.SevLow: {"a.log"}},
		FilesWithCards:  []string{"a.log"},
		CleanFiles:      []string{"b.log"},
		Duration:        time.Second,
	}
	rec := CreateScanRecord([]string{"."}, sum, all, all[1:], "pansweep.baseline.json")
	assert.Equal(t, 2, rec.TotalCards)
	assert.Equal(t, 1, rec.NewCards)
	assert.Equal(t, 1, rec.BaselinedCount)
	assert.Equal(t, map[string]int{"low": 1}, rec.RiskCounts)
	assert.Len(t, rec.Fingerprints, 2)
	require.Len(t, rec.TopMatches, 1)
	assert.Equal(t, "453201XXXXXX0366", rec.TopMatches[0].Masked)
	assert.Equal(t, "low", rec.TopMatches[0].Risk)

	a := NewAuditLog(t.TempDir())
	require.NoError(t, a.LogScan(rec))
	raw, err := os.ReadFile(a.Path())
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), visa), "audit log must not contain a full PAN")
}
