package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pansweep/pansweep/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const visa = "4532015112830366"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func partitionHolds(t *testing.T, s types.ScanSummary) {
	t.Helper()
	seen := map[string]int{}
	for _, p := range s.FilesWithCards {
		seen[p]++
	}
	for _, p := range s.CleanFiles {
		seen[p]++
	}
	for _, r := range s.SkippedFiles {
		seen[r.Path]++
	}
	assert.Equal(t, s.FilesScanned, s.WithCardsCount()+s.CleanCount()+s.SkippedCount())
	assert.Len(t, seen, len(s.AllScannedFiles))
	for _, p := range s.AllScannedFiles {
		assert.Equal(t, 1, seen[p], "file %s must be in exactly one bucket", p)
	}
}

func TestScanWithStats_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cards.txt"), "one\ntwo\nthree\nfour\npaid with "+visa+" today\n")
	writeFile(t, filepath.Join(dir, "empty.txt"), "")
	locked := filepath.Join(dir, "locked.txt")
	if os.Geteuid() == 0 {
		// root ignores permission bits; a dangling link fails to open the same way
		require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), locked))
	} else {
		writeFile(t, locked, visa)
		require.NoError(t, os.Chmod(locked, 0))
		t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })
	}

	res, err := ScanWithStats(context.Background(), Config{Inputs: []string{dir}})
	require.NoError(t, err)

	s := res.Summary
	assert.Equal(t, 1, s.TotalCardsFound)
	assert.Equal(t, 1, s.WithCardsCount())
	assert.Equal(t, 1, s.CleanCount())
	assert.Equal(t, 1, s.SkippedCount())
	assert.Equal(t, 3, s.FilesScanned)
	assert.Equal(t, 1, s.DirectoriesScanned)
	assert.Equal(t, types.SkipOpen, s.SkippedFiles[0].Reason)
	assert.Equal(t, map[string]int{"Visa": 1}, s.CardTypeCounts)
	partitionHolds(t, s)

	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	assert.Equal(t, 5, m.Line)
	assert.Equal(t, "Visa", m.Brand)
	assert.Equal(t, "paid with "+visa+" today", m.RawLine)
	assert.Equal(t, []string{filepath.Join(dir, "cards.txt")}, s.FilesByRisk[types.SevLow])
}

func TestScanWithStats_NoInputs(t *testing.T) {
	_, err := ScanWithStats(context.Background(), Config{})
	assert.True(t, errors.Is(err, ErrNoInputs))
}

func TestScanWithStats_MissingInputIsSkipped(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.txt")
	res, err := ScanWithStats(context.Background(), Config{Inputs: []string{missing}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.FilesScanned)
	require.Len(t, res.Summary.SkippedFiles, 1)
	assert.Equal(t, missing, res.Summary.SkippedFiles[0].Path)
	assert.Equal(t, types.SkipOpen, res.Summary.SkippedFiles[0].Reason)
	partitionHolds(t, res.Summary)
}

func TestScanWithStats_ConcurrencyInvariance(t *testing.T) {
	dir := t.TempDir()
	const n = 40
	for i := 0; i < n; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("f%02d.log", i)), "card "+visa+"\n")
	}
	for _, threads := range []int{-1, 0, 1, 3} {
		t.Run(fmt.Sprintf("threads=%d", threads), func(t *testing.T) {
			for run := 0; run < 3; run++ {
				res, err := ScanWithStats(context.Background(), Config{Inputs: []string{dir}, Threads: threads})
				require.NoError(t, err)
				assert.Equal(t, n, res.Summary.TotalCardsFound)
				assert.Equal(t, n, res.Summary.WithCardsCount())
				assert.Len(t, res.Matches, n)
				partitionHolds(t, res.Summary)
			}
		})
	}
}

func TestScanWithStats_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), visa+"\n5555555555554444\n")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "amex 378282246310005\n")
	cfg := Config{Inputs: []string{dir}, Threads: 4}

	first, err := ScanWithStats(context.Background(), cfg)
	require.NoError(t, err)
	second, err := ScanWithStats(context.Background(), cfg)
	require.NoError(t, err)
	assert.ElementsMatch(t, first.Matches, second.Matches)
	assert.Len(t, first.Matches, 3)
	assert.Equal(t, 2, first.Summary.DirectoriesScanned)
}

func TestScanWithStats_RiskBuckets(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []int{3, 4, 10, 11} {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("n%d.txt", n)), strings.Repeat(visa+"\n", n))
	}
	res, err := ScanWithStats(context.Background(), Config{Inputs: []string{dir}})
	require.NoError(t, err)
	s := res.Summary
	assert.Equal(t, types.SevLow, s.RiskOf(filepath.Join(dir, "n3.txt")))
	assert.Equal(t, types.SevMed, s.RiskOf(filepath.Join(dir, "n4.txt")))
	assert.Equal(t, types.SevMed, s.RiskOf(filepath.Join(dir, "n10.txt")))
	assert.Equal(t, types.SevHigh, s.RiskOf(filepath.Join(dir, "n11.txt")))
	assert.Equal(t, 28, s.TotalCardsFound)
}

func TestScanWithStats_DecodeFailure(t *testing.T) {
	dir := t.TempDir()
	partial := filepath.Join(dir, "partial.txt")
	binary := filepath.Join(dir, "binary.dat")
	writeFile(t, partial, visa+"\n\xff\xfe\n"+visa+"\n")
	writeFile(t, binary, "\xff\xfe\xfd\n")

	res, err := ScanWithStats(context.Background(), Config{Inputs: []string{dir}})
	require.NoError(t, err)
	s := res.Summary
	assert.Equal(t, 1, s.TotalCardsFound)
	assert.Equal(t, []string{partial}, s.FilesWithCards)
	require.Len(t, s.PartialFiles, 1)
	assert.Equal(t, partial, s.PartialFiles[0].Path)
	require.Len(t, s.SkippedFiles, 1)
	assert.Equal(t, binary, s.SkippedFiles[0].Path)
	assert.Equal(t, types.SkipDecode, s.SkippedFiles[0].Reason)
	partitionHolds(t, s)
}

func TestScanWithStats_Progress(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("%d.txt", i)), "x")
	}
	var calls, last atomic.Int64
	cfg := Config{Inputs: []string{dir}, Progress: func(done, total int) {
		calls.Add(1)
		assert.Equal(t, 5, total)
		last.Store(int64(done))
	}}
	_, err := ScanWithStats(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(5), calls.Load())
	assert.Equal(t, int64(5), last.Load())
}

func TestScanWithStats_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), visa)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ScanWithStats(ctx, Config{Inputs: []string{dir}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanWithStats_TrackedOnlyOutsideRepo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), visa)
	_, err := ScanWithStats(context.Background(), Config{Inputs: []string{dir}, TrackedOnly: true})
	assert.Error(t, err)
}

func TestScan_BrandFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), visa+"\n5555555555554444\n")
	cfg := Config{Inputs: []string{dir}}
	cfg.Detect.Disable = "visa"
	res, err := ScanWithStats(context.Background(), cfg)
	require.NoError(t, err)
	ms := res.Matches
	require.Len(t, ms, 1)
	assert.Equal(t, "Mastercard", ms[0].Brand)
}

func TestScan_FieldContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "order.json"), "{\n  \"order\": {\n    \"card\": \""+visa+"\"\n  }\n}\n")
	writeFile(t, filepath.Join(dir, "order.yml"), "payment:\n  - number: "+visa+"\n")
	writeFile(t, filepath.Join(dir, "broken.json"), "{\"card\": \""+visa+"\"\n")
	writeFile(t, filepath.Join(dir, "order.txt"), "card: "+visa+"\n")

	res, err := ScanWithStats(context.Background(), Config{Inputs: []string{dir}})
	require.NoError(t, err)
	ms := res.Matches
	fields := map[string]string{}
	for _, m := range ms {
		fields[filepath.Base(m.Path)] = m.Field
	}
	assert.Equal(t, map[string]string{
		"broken.json": "",
		"order.json":  "order.card",
		"order.txt":   "",
		"order.yml":   "payment[0].number",
	}, fields)
}

func TestWalk_SkipsOwnArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pansweep.baseline.json"), visa)
	writeFile(t, filepath.Join(dir, ".pansweep_last_scan.json"), visa)
	writeFile(t, filepath.Join(dir, ".DS_Store"), visa)
	writeFile(t, filepath.Join(dir, "a.txt"), visa)

	res, err := ScanWithStats(context.Background(), Config{Inputs: []string{dir}, DefaultExcludes: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.FilesScanned)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "a.txt", filepath.Base(res.Matches[0].Path))
}
