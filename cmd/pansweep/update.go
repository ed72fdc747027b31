package pansweep

import (
	"fmt"

	"github.com/pansweep/pansweep/internal/update"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "update",
		Short: "Replace this binary with the latest release",
		RunE: func(cmd *cobra.Command, _ []string) error {
			latest, err := selfUpdate()
			if err != nil {
				return fmt.Errorf("self-update failed: %w", err)
			}
			if !update.Newer(latest, currentVersion()) {
				fmt.Fprintf(cmd.OutOrStdout(), "Already up to date (v%s)\n", currentVersion())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated to v%s\n", latest)
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version and whether a newer release exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pansweep %s\n", currentVersion())
			latest, newer, _ := update.Check(ctxOf(cmd), currentVersion(), flagNoUpdateCheck)
			if newer {
				fmt.Fprintf(out, "new version available: v%s (run 'pansweep update')\n", latest)
			}
			return nil
		},
	})
}
