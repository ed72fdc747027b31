package pansweep

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pansweep/pansweep/internal/redact"
	"github.com/pansweep/pansweep/internal/types"
	"github.com/spf13/cobra"
)

var (
	flagRedactOut     string
	flagRedactPattern []string
	flagRedactDryRun  bool
	flagRedactSummary string
)

func init() {
	cmd := &cobra.Command{
		Use:   "redact [path...]",
		Short: "Write masked copies of files that contain card numbers",
		Long: `Redact scans like 'pansweep scan' and writes a copy of every affected file
under --out with each card number masked. Source files are never modified.`,
		Example: `  pansweep redact ./exports --out ./exports-redacted
  pansweep redact . --out /tmp/clean --pattern 'cvv=\d{3,4}'`,
		RunE: runRedact,
	}
	addScopeFlags(cmd)
	cmd.Flags().StringVar(&flagRedactOut, "out", "", "directory to write redacted copies into")
	cmd.Flags().StringArrayVar(&flagRedactPattern, "pattern", nil, "extra regex to replace with [REDACTED] (repeatable)")
	cmd.Flags().BoolVar(&flagRedactDryRun, "dry-run", false, "list the copies that would be written")
	cmd.Flags().StringVar(&flagRedactSummary, "summary", "", "write a JSON summary of the copies to this path")
	if err := cmd.MarkFlagRequired("out"); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not mark --out as required:", err)
	}
	rootCmd.AddCommand(cmd)
}

func runRedact(cmd *cobra.Command, args []string) error {
	reps := make([]redact.Replacement, 0, len(flagRedactPattern))
	for _, p := range flagRedactPattern {
		rx, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("--pattern %q: %w", p, err)
		}
		reps = append(reps, redact.Replacement{Pattern: rx, Replace: "[REDACTED]"})
	}

	s, err := resolveScan(cmd, args)
	if err != nil {
		return err
	}
	res, err := s.scan(ctxOf(cmd))
	if err != nil {
		return err
	}

	byFile := map[string][]types.CardMatch{}
	for _, m := range res.Matches {
		byFile[m.Path] = append(byFile[m.Path], m)
	}
	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := cmd.OutOrStdout()
	if len(paths) == 0 {
		fmt.Fprintln(out, "No card numbers found; nothing to redact")
		return nil
	}

	// files whose scan stopped early are copied only up to the stop line
	stopAt := map[string]int{}
	for _, rec := range res.Summary.PartialFiles {
		stopAt[rec.Path] = max(rec.Line, 1)
	}

	var results []redact.FileResult
	for _, p := range paths {
		dst := redact.CopyPath(s.root, flagRedactOut, p)
		if flagRedactDryRun {
			note := ""
			if n := stopAt[p]; n > 0 {
				note += fmt.Sprintf(", truncated before line %d", n)
			}
			if len(reps) > 0 {
				if hit, err := redact.WouldChange(p, reps); err == nil && hit {
					note += ", --pattern matches"
				}
			}
			fmt.Fprintf(out, "(dry-run) %s -> %s (%d match(es)%s)\n", p, dst, len(byFile[p]), note)
			continue
		}
		r, err := redact.WriteCopy(p, dst, byFile[p], reps, stopAt[p])
		if err != nil {
			if errors.Is(err, redact.ErrSameFile) {
				return fmt.Errorf("%s: --out must not point at the scanned files", p)
			}
			return err
		}
		results = append(results, r)
	}
	if flagRedactDryRun {
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("Source", "Copy", "Redacted", "Unredacted lines")
	unredacted := 0
	var truncated []redact.FileResult
	for _, r := range results {
		lines := make([]string, 0, len(r.Unredacted)+1)
		for _, n := range r.Unredacted {
			lines = append(lines, strconv.Itoa(n))
		}
		if r.TruncatedAt > 0 {
			lines = append(lines, fmt.Sprintf("%d+ (not copied)", r.TruncatedAt))
			truncated = append(truncated, r)
		}
		unredacted += len(r.Unredacted)
		if err := table.Append([]string{r.Source, r.Dest, strconv.Itoa(r.Redacted), strings.Join(lines, ",")}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	if unredacted > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d line(s) could not be fully redacted; review the copies listed above\n", unredacted)
	}
	for _, r := range truncated {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s was not fully scanned; copy ends before line %d\n", r.Source, r.TruncatedAt)
	}

	if flagRedactSummary != "" {
		return writeRedactSummary(flagRedactSummary, map[string]any{
			"action":    "redact",
			"out":       flagRedactOut,
			"files":     results,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
	return nil
}

func writeRedactSummary(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
