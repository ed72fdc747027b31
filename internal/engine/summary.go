package engine

import (
	"sort"
	"time"

	"github.com/pansweep/pansweep/internal/types"
)

// summarize builds the scan summary once every task has finished. Each target
// lands in exactly one of FilesWithCards, CleanFiles and SkippedFiles. A file
// that failed part way after producing matches counts as a file with cards and
// is also listed in PartialFiles.
func summarize(inv Inventory, st *store, elapsed time.Duration) types.ScanSummary {
	st.mu.Lock()
	defer st.mu.Unlock()

	sum := types.ScanSummary{
		FilesScanned:       len(inv.Targets),
		DirectoriesScanned: inv.Directories,
		TotalSizeBytes:     inv.TotalSize,
		TotalCardsFound:    len(st.matches),
		CardTypeCounts:     map[string]int{},
		FilesByRisk:        map[types.Severity][]string{},
		SkippedDirectories: append([]types.SkipRecord(nil), inv.SkippedDirs...),
		Duration:           elapsed,
	}

	perFile := map[string]int{}
	for _, m := range st.matches {
		sum.CardTypeCounts[m.Brand]++
		perFile[m.Path]++
	}
	for p, n := range perFile {
		sev := types.RiskForCount(n)
		sum.FilesByRisk[sev] = append(sum.FilesByRisk[sev], p)
		sum.FilesWithCards = append(sum.FilesWithCards, p)
	}

	skipped := map[string]bool{}
	for _, rec := range st.skipped {
		if st.withCards[rec.Path] {
			sum.PartialFiles = append(sum.PartialFiles, rec)
			continue
		}
		skipped[rec.Path] = true
		sum.SkippedFiles = append(sum.SkippedFiles, rec)
	}

	for _, t := range inv.Targets {
		sum.AllScannedFiles = append(sum.AllScannedFiles, t.Path)
		if !st.withCards[t.Path] && !skipped[t.Path] {
			sum.CleanFiles = append(sum.CleanFiles, t.Path)
		}
	}

	sort.Strings(sum.AllScannedFiles)
	sort.Strings(sum.FilesWithCards)
	sort.Strings(sum.CleanFiles)
	for sev := range sum.FilesByRisk {
		sort.Strings(sum.FilesByRisk[sev])
	}
	sortSkips(sum.SkippedFiles)
	sortSkips(sum.PartialFiles)
	sortSkips(sum.SkippedDirectories)
	return sum
}

func sortSkips(recs []types.SkipRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Path < recs[j].Path })
}
