package pansweep

import (
	"fmt"

	"github.com/pansweep/pansweep/internal/files"
	"github.com/pansweep/pansweep/internal/ignore"
	"github.com/spf13/cobra"
)

var (
	flagIgnoreRoot      string
	flagIgnoreDefaults  bool
	flagIgnoreArtifacts bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "ignore [pattern...]",
		Short: "Add patterns to .pansweepignore",
		Example: `  pansweep ignore 'fixtures/**' '*.bak'
  pansweep ignore --defaults
  pansweep ignore --artifacts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns := append([]string{}, args...)
			if flagIgnoreDefaults {
				patterns = append(patterns, files.DefaultIgnores()...)
			}
			if len(patterns) == 0 && !flagIgnoreArtifacts {
				return fmt.Errorf("nothing to add: pass patterns, --defaults or --artifacts")
			}
			root := scanRoot([]string{flagIgnoreRoot})
			out := cmd.OutOrStdout()
			for _, p := range patterns {
				if err := files.AppendIgnore(root, p); err != nil {
					return fmt.Errorf("write %s: %w", ignore.FileName, err)
				}
				fmt.Fprintf(out, "%s: %s\n", ignore.FileName, p)
			}
			if flagIgnoreArtifacts {
				for _, p := range files.LocalArtifacts() {
					if err := files.AppendGitignore(root, p); err != nil {
						return fmt.Errorf("write .gitignore: %w", err)
					}
					fmt.Fprintf(out, ".gitignore: %s\n", p)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagIgnoreRoot, "root", ".", "directory holding .pansweepignore")
	cmd.Flags().BoolVar(&flagIgnoreDefaults, "defaults", false, "add the recommended default patterns")
	cmd.Flags().BoolVar(&flagIgnoreArtifacts, "artifacts", false, "add pansweep's audit and cache files to .gitignore")
	rootCmd.AddCommand(cmd)
}
