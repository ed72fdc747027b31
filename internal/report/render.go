package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pansweep/pansweep/internal/types"
)

// UnredactedMarker prefixes line content that could not be fully masked.
const UnredactedMarker = "!"

type PrintOptions struct {
	NoColor bool
	// Quiet drops the per-match listing and prints only the summary.
	Quiet bool
}

type palette struct {
	high, med, low, bold, warn func(a ...interface{}) string
}

func newPalette(noColor bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		high: mk(color.FgRed, color.Bold),
		med:  mk(color.FgYellow),
		low:  mk(color.FgCyan),
		bold: mk(color.Bold),
		warn: mk(color.FgMagenta),
	}
}

func (p palette) risk(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return p.high(string(s))
	case types.SevMed:
		return p.med(string(s))
	default:
		return p.low(string(s))
	}
}

func content(r Row) string {
	if !r.FullyRedacted {
		return UnredactedMarker + " " + r.Content
	}
	return r.Content
}

// PrintTable renders matches as a bordered table followed by the summary.
func PrintTable(w io.Writer, doc Document, opts PrintOptions) error {
	p := newPalette(opts.NoColor)
	if !opts.Quiet {
		if len(doc.Matches) == 0 {
			fmt.Fprintln(w, "No card numbers found ✅")
		} else {
			fmt.Fprintf(w, "Card numbers: %d\n", len(doc.Matches))
			table := tablewriter.NewWriter(w)
			table.Header("Risk", "Brand", "PAN", "Location", "Content")
			for _, r := range doc.Matches {
				row := []string{p.risk(r.Risk), r.Brand, r.PAN, r.Path + ":" + strconv.Itoa(r.Line), truncate(content(r), 80)}
				if err := table.Append(row); err != nil {
					return err
				}
			}
			if err := table.Render(); err != nil {
				return err
			}
		}
	}
	printSummary(w, doc, p)
	return nil
}

// PrintText renders one block per match, then the summary.
func PrintText(w io.Writer, doc Document, opts PrintOptions) {
	p := newPalette(opts.NoColor)
	if !opts.Quiet {
		if len(doc.Matches) == 0 {
			fmt.Fprintln(w, "No card numbers found ✅")
		} else {
			fmt.Fprintf(w, "Found %d potential credit card numbers:\n\n", len(doc.Matches))
			for _, r := range doc.Matches {
				fmt.Fprintf(w, "File: %s\n", p.bold(r.Path))
				fmt.Fprintf(w, "Line: %d\n", r.Line)
				fmt.Fprintf(w, "Brand: %s\n", r.Brand)
				fmt.Fprintf(w, "PAN: %s\n", r.PAN)
				fmt.Fprintf(w, "PAN Length: %d\n", r.Length)
				fmt.Fprintf(w, "BIN: %s\n", r.BIN)
				fmt.Fprintf(w, "Last Four: %s\n", r.LastFour)
				fmt.Fprintf(w, "Risk: %s\n", p.risk(r.Risk))
				if r.Field != "" {
					fmt.Fprintf(w, "Field: %s\n", r.Field)
				}
				fmt.Fprintf(w, "Line Content: %s\n\n", content(r))
			}
		}
	}
	printSummary(w, doc, p)
}

func printSummary(w io.Writer, doc Document, p palette) {
	s := doc.Summary
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.bold("Scan summary"))
	fmt.Fprintf(w, "  Files scanned:        %d\n", s.FilesScanned)
	fmt.Fprintf(w, "  Directories scanned:  %d\n", s.DirectoriesScanned)
	fmt.Fprintf(w, "  Total size:           %s\n", humanBytes(s.TotalSizeBytes))
	fmt.Fprintf(w, "  Card numbers found:   %d\n", s.TotalCardsFound)
	fmt.Fprintf(w, "  Files with cards:     %d\n", s.WithCardsCount())
	fmt.Fprintf(w, "  Clean files:          %d\n", s.CleanCount())
	fmt.Fprintf(w, "  Skipped files:        %d\n", s.SkippedCount())
	if n := len(s.PartialFiles); n > 0 {
		fmt.Fprintf(w, "  Partially scanned:    %d\n", n)
	}
	if n := len(s.SkippedDirectories); n > 0 {
		fmt.Fprintf(w, "  Skipped directories:  %d\n", n)
	}
	if s.Duration > 0 {
		fmt.Fprintf(w, "  Scan duration:        %.2fs\n", s.Duration.Seconds())
	}
	if len(s.CardTypeCounts) > 0 {
		fmt.Fprintf(w, "  By brand:             %s\n", brandCounts(s.CardTypeCounts))
	}
	if s.WithCardsCount() > 0 {
		fmt.Fprintf(w, "  Files by risk:        %s %d, %s %d, %s %d\n",
			p.high("high"), len(s.FilesByRisk[types.SevHigh]),
			p.med("medium"), len(s.FilesByRisk[types.SevMed]),
			p.low("low"), len(s.FilesByRisk[types.SevLow]))
	}
	if doc.Masked && doc.Unredacted > 0 {
		fmt.Fprintln(w, p.warn(fmt.Sprintf("Caveat: %d line(s) marked %q could not be fully redacted and may show a full card number.", doc.Unredacted, UnredactedMarker)))
	}
}

func brandCounts(m map[string]int) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if m[names[i]] != m[names[j]] {
			return m[names[i]] > m[names[j]]
		}
		return names[i] < names[j]
	})
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s %d", n, m[n])
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
