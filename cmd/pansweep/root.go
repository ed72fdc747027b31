package pansweep

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagThreads       int
	flagFailOn        string
	flagNoColor       bool
	flagVerbose       bool
	flagQuiet         bool
	flagNoUpdateCheck bool

	version = "0.1.0"
)

// errThreshold is returned when matches reach the --fail-on level. Execute
// turns it into exit status 1 without printing anything.
var errThreshold = errors.New("card numbers at or above the fail-on level")

// rootCmd is the base Cobra command for the pansweep CLI.
var rootCmd = &cobra.Command{
	Use:           "pansweep",
	Short:         "Find payment card numbers in files",
	Long:          "pansweep scans a tree of text files for Luhn-valid payment card numbers, classifies them by brand and reports masked matches with a per-file risk summary.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the pansweep CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errThreshold) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS, -1 = one goroutine per file)")
	rootCmd.PersistentFlags().StringVar(&flagFailOn, "fail-on", "", "exit 1 when a file reaches none|low|medium|high risk (default medium)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug details to stderr")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "only print the report; suppress banners and warnings")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable the new-release check")
}
