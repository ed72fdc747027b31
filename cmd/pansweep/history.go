package pansweep

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pansweep/pansweep/internal/audit"
	"github.com/spf13/cobra"
)

var (
	flagHistoryRoot  string
	flagHistoryLimit int
	flagHistoryJSON  bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past scans from the audit log",
		RunE:  runHistory,
	}
	rootCmd.AddCommand(cmd)
	cmd.PersistentFlags().StringVar(&flagHistoryRoot, "root", ".", "scan root holding the audit log")
	cmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "show at most this many scans (0 = all)")
	cmd.Flags().BoolVar(&flagHistoryJSON, "json", false, "print records as JSON")

	del := &cobra.Command{
		Use:   "delete INDEX",
		Short: "Delete one record (0 = newest)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}
			log := audit.NewAuditLog(scanRoot([]string{flagHistoryRoot}))
			if err := log.DeleteRecord(idx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted record %d from %s\n", idx, log.Path())
			return nil
		},
	}
	cmd.AddCommand(del)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	log := audit.NewAuditLog(scanRoot([]string{flagHistoryRoot}))
	records, err := log.LoadHistory()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(cmd.OutOrStdout(), "No scan history yet.")
			return nil
		}
		return err
	}
	if flagHistoryLimit > 0 && len(records) > flagHistoryLimit {
		records = records[:flagHistoryLimit]
	}

	out := cmd.OutOrStdout()
	if flagHistoryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	table := tablewriter.NewWriter(out)
	table.Header("#", "When", "Inputs", "Cards", "New", "Baselined", "Files", "Brands", "Duration")
	for i, r := range records {
		row := []string{
			strconv.Itoa(i),
			r.Timestamp.Format("2006-01-02 15:04:05"),
			strings.Join(r.Inputs, ","),
			strconv.Itoa(r.TotalCards),
			strconv.Itoa(r.NewCards),
			strconv.Itoa(r.BaselinedCount),
			fmt.Sprintf("%d/%d", r.FilesWithCards, r.FilesScanned),
			histogram(r.CardTypeCounts),
			r.Duration,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func histogram(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return strings.Join(parts, " ")
}
