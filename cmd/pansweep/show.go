package pansweep

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pansweep/pansweep/internal/cache"
	"github.com/pansweep/pansweep/internal/report"
	"github.com/pansweep/pansweep/internal/tui"
	"github.com/spf13/cobra"
)

var (
	flagShowRoot   string
	flagShowFormat string
	flagShowTUI    bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the results of the last scan without rescanning",
		Long:  "Show re-renders the masked results saved by the last 'pansweep scan' in the scan root.",
		RunE:  runShow,
	}
	rootCmd.AddCommand(cmd)
	cmd.Flags().StringVar(&flagShowRoot, "root", ".", "scan root the results were saved in")
	cmd.Flags().StringVarP(&flagShowFormat, "format", "f", "", "output format: table|text|json|yaml|csv|sarif")
	cmd.Flags().BoolVar(&flagShowTUI, "tui", false, "browse the saved results interactively")
}

func runShow(cmd *cobra.Command, _ []string) error {
	root := scanRoot([]string{flagShowRoot})
	lcfg, gcfg, err := loadConfigs(root)
	if err != nil {
		return err
	}
	format, err := resolveFormat(flagShowFormat, lcfg, gcfg)
	if err != nil {
		return err
	}

	res, err := cache.LoadResults(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no saved scan in %s; run 'pansweep scan' first", root)
		}
		return fmt.Errorf("load saved scan: %w", err)
	}

	if flagShowTUI {
		baselinePath := baselineFor(root, "", lcfg, gcfg)
		base, _ := report.LoadBaseline(baselinePath)
		return tui.RunCached(res.Document, tui.Options{
			Root:         root,
			Baseline:     base,
			BaselinePath: baselinePath,
		}, res.Timestamp)
	}

	noColor := pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor) || !isTerminal(cmd.OutOrStdout())
	if !machineFormat(format) && !flagQuiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Last scan: %s (%s ago)\n",
			res.Timestamp.Format("2006-01-02 15:04:05"), time.Since(res.Timestamp).Round(time.Second))
	}
	return report.Write(cmd.OutOrStdout(), format, res.Document, report.PrintOptions{NoColor: noColor, Quiet: flagQuiet}, version)
}
