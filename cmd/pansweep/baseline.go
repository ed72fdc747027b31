package pansweep

import (
	"fmt"

	"github.com/pansweep/pansweep/internal/report"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines",
	}

	update := &cobra.Command{
		Use:   "update [path...]",
		Short: "Record every current match in the baseline file",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := resolveScan(cmd, args)
			if err != nil {
				return err
			}
			res, err := s.scan(ctxOf(cmd))
			if err != nil {
				return err
			}
			if err := report.SaveBaseline(s.baselinePath, res.Matches); err != nil {
				return fmt.Errorf("write baseline: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline updated: %d match(es) in %s\n", len(res.Matches), s.baselinePath)
			return nil
		},
	}
	addScopeFlags(update)

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
