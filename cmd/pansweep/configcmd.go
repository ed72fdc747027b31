package pansweep

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pansweep/pansweep/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfgGlobal bool
	cfgForce  bool
	cfgOutput string
	cfgRoot   string
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .pansweep.yml",
		RunE:  runConfigInit,
	}
	initCmd.Flags().BoolVar(&cfgGlobal, "global", false, "write the user-wide config instead of .pansweep.yml")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	initCmd.Flags().StringVar(&cfgOutput, "output", config.LocalNames[0], "output file path (ignored with --global)")
	cfgCmd.AddCommand(initCmd)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the merged local and global configuration",
		RunE:  runConfigShow,
	}
	showCmd.Flags().StringVar(&cfgRoot, "root", ".", "directory to look for a local config in")
	cfgCmd.AddCommand(showCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := cfgOutput
	if cfgGlobal {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yml")
	}
	if _, err := os.Stat(path); err == nil && !cfgForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
	return nil
}

func first[T any](local, global *T) *T {
	if local != nil {
		return local
	}
	return global
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	lcfg, gcfg, err := loadConfigs(scanRoot([]string{cfgRoot}))
	if err != nil {
		return err
	}
	merged := config.FileConfig{
		Include:         first(lcfg.Include, gcfg.Include),
		Exclude:         first(lcfg.Exclude, gcfg.Exclude),
		MaxBytes:        first(lcfg.MaxBytes, gcfg.MaxBytes),
		Threads:         first(lcfg.Threads, gcfg.Threads),
		Enable:          first(lcfg.Enable, gcfg.Enable),
		Disable:         first(lcfg.Disable, gcfg.Disable),
		NoColor:         first(lcfg.NoColor, gcfg.NoColor),
		DefaultExcludes: first(lcfg.DefaultExcludes, gcfg.DefaultExcludes),
		SkipTestCards:   first(lcfg.SkipTestCards, gcfg.SkipTestCards),
		NoInlineIgnore:  first(lcfg.NoInlineIgnore, gcfg.NoInlineIgnore),
		TrackedOnly:     first(lcfg.TrackedOnly, gcfg.TrackedOnly),
		Format:          first(lcfg.Format, gcfg.Format),
		FailOn:          first(lcfg.FailOn, gcfg.FailOn),
		Timeout:         first(lcfg.Timeout, gcfg.Timeout),
		Baseline:        first(lcfg.Baseline, gcfg.Baseline),
		Audit:           first(lcfg.Audit, gcfg.Audit),
	}
	b, err := yaml.Marshal(&merged)
	if err != nil {
		return err
	}
	if string(b) == "{}\n" {
		fmt.Fprintln(cmd.OutOrStdout(), "# no configuration found; built-in defaults apply")
		return nil
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}
