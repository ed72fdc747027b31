package pansweep

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	semver3 "github.com/blang/semver"
	semver "github.com/blang/semver/v4"
	"github.com/pansweep/pansweep/internal/config"
	"github.com/pansweep/pansweep/internal/report"
	"github.com/pansweep/pansweep/internal/update"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

func currentVersion() string {
	v := version
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(v) == 0 {
				v = s.Value
			}
		}
	}
	return v
}

// selfUpdate replaces the running binary with the latest GitHub release.
func selfUpdate() (string, error) {
	ver, err := semver.ParseTolerant(currentVersion())
	if err != nil {
		ver = semver.MustParse("0.0.0")
	}
	latest, err := selfupdate.UpdateSelf(semver3.MustParse(ver.String()), update.Repo)
	if err != nil {
		return "", err
	}
	return latest.Version.String(), nil
}

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickInt(cli int, local, global *int) int {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickInt64(cli int64, local, global *int64) int64 {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickBool(cli bool, local, global *bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}

// pickBoolDefault is pickBool for flags whose default is true: an explicitly
// set flag wins in either direction.
func pickBoolDefault(changed, cli bool, local, global *bool, def bool) bool {
	if changed {
		return cli
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return def
}

func splitComma(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// scanRoot is the directory config, baseline, ignore and audit files are
// resolved against: the first input if it is a directory, else its parent.
func scanRoot(inputs []string) string {
	p := "."
	if len(inputs) > 0 {
		p = inputs[0]
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	if st, err := os.Stat(abs); err == nil && !st.IsDir() {
		return filepath.Dir(abs)
	}
	return abs
}

// baselineFor resolves the baseline file; relative paths are taken from root.
func baselineFor(root, cli string, lcfg, gcfg config.FileConfig) string {
	p := pickString(cli, lcfg.Baseline, gcfg.Baseline)
	if p == "" {
		p = report.BaselineFile
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	return p
}

// loadConfigs returns the local and global config files. Missing files are
// not an error; invalid ones are.
func loadConfigs(root string) (lcfg, gcfg config.FileConfig, err error) {
	if _, dirErr := config.Dir(); dirErr == nil {
		if c, e := config.LoadGlobal(); e == nil {
			gcfg = c
		} else if !errors.Is(e, config.ErrNoConfig) {
			return lcfg, gcfg, fmt.Errorf("global config: %w", e)
		}
	}
	if c, e := config.LoadLocal(root); e == nil {
		lcfg = c
	} else if !errors.Is(e, config.ErrNoConfig) {
		return lcfg, gcfg, fmt.Errorf("local config: %w", e)
	}
	return lcfg, gcfg, nil
}

func newLogger(w io.Writer, noColor bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:    noColor,
		DisableTimestamp: true,
	})
	switch {
	case flagVerbose:
		l.SetLevel(logrus.DebugLevel)
	case flagQuiet:
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.WarnLevel)
	}
	return l
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
