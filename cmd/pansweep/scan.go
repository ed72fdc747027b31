package pansweep

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pansweep/pansweep/internal/audit"
	"github.com/pansweep/pansweep/internal/cache"
	"github.com/pansweep/pansweep/internal/config"
	"github.com/pansweep/pansweep/internal/detectors"
	"github.com/pansweep/pansweep/internal/engine"
	"github.com/pansweep/pansweep/internal/report"
	"github.com/pansweep/pansweep/internal/tui"
	"github.com/pansweep/pansweep/internal/types"
	"github.com/pansweep/pansweep/internal/update"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// scope flags, shared by scan, baseline update and redact
	flagInputs          string
	flagInclude         string
	flagExclude         string
	flagMaxBytes        int64
	flagEnable          string
	flagDisable         string
	flagSkipTestCards   bool
	flagNoInlineIgnore  bool
	flagTrackedOnly     bool
	flagDefaultExcludes bool
	flagTimeout         time.Duration
	flagBaseline        string

	// scan output
	flagFormat     string
	flagOutput     string
	flagTUI        bool
	flagUnmasked   bool
	flagNoBaseline bool
	flagNoAudit    bool
	flagNoCache    bool
)

func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagInputs, "input", "i", "", "comma-separated input files or directories (added to positional args)")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 0, "report files larger than this as skipped (0 = no limit)")
	cmd.Flags().StringVar(&flagEnable, "enable", "", "only report these brands (comma-separated)")
	cmd.Flags().StringVar(&flagDisable, "disable", "", "never report these brands (comma-separated)")
	cmd.Flags().BoolVar(&flagSkipTestCards, "skip-test-cards", false, "ignore well-known processor test numbers")
	cmd.Flags().BoolVar(&flagNoInlineIgnore, "no-inline-ignore", false, "do not honor pansweep:ignore markers")
	cmd.Flags().BoolVar(&flagTrackedOnly, "tracked-only", false, "in git repositories, scan only tracked files")
	cmd.Flags().BoolVar(&flagDefaultExcludes, "default-excludes", true, "skip vendored, build and binary paths (node_modules, .git, images, etc.)")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "abort the whole scan after this long (e.g. 5m)")
	cmd.Flags().StringVar(&flagBaseline, "baseline", "", "baseline file (default pansweep.baseline.json in the scan root)")
}

func init() {
	cmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "Scan files for payment card numbers",
		Example: `  pansweep scan ./exports
  pansweep scan -i logs,dumps --format json -o report.json
  pansweep scan --tui`,
		RunE: runScan,
	}
	rootCmd.AddCommand(cmd)
	addScopeFlags(cmd)

	cmd.Flags().StringVarP(&flagFormat, "format", "f", "", "output format: "+strings.Join(report.Formats, "|")+" (default table)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&flagTUI, "tui", false, "browse results interactively")
	cmd.Flags().BoolVar(&flagUnmasked, "unmasked", false, "show full card numbers and raw lines in the report")
	cmd.Flags().BoolVar(&flagNoBaseline, "no-baseline", false, "report baselined matches too")
	cmd.Flags().BoolVar(&flagNoAudit, "no-audit", false, "do not append to the audit log")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "do not save results for 'pansweep show'")
}

// scanSetup is a scan resolved from flags and config files.
type scanSetup struct {
	root         string
	inputs       []string
	cfg          engine.Config
	lcfg, gcfg   config.FileConfig
	timeout      time.Duration
	baselinePath string
	noColor      bool
	log          *logrus.Logger
}

func resolveScan(cmd *cobra.Command, args []string) (scanSetup, error) {
	inputs := append(append([]string{}, args...), splitComma(flagInputs)...)
	if len(inputs) == 0 {
		inputs = []string{"."}
	}
	root := scanRoot(inputs)
	lcfg, gcfg, err := loadConfigs(root)
	if err != nil {
		return scanSetup{}, err
	}

	noColor := pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor)
	log := newLogger(cmd.ErrOrStderr(), noColor || !isTerminal(cmd.ErrOrStderr()))

	timeout := flagTimeout
	if timeout == 0 {
		if lcfg.Timeout != nil {
			timeout = lcfg.TimeoutDuration()
		} else if gcfg.Timeout != nil {
			timeout = gcfg.TimeoutDuration()
		}
	}

	baselinePath := baselineFor(root, flagBaseline, lcfg, gcfg)

	cfg := engine.Config{
		Inputs:          inputs,
		IncludeGlobs:    pickString(flagInclude, lcfg.Include, gcfg.Include),
		ExcludeGlobs:    pickString(flagExclude, lcfg.Exclude, gcfg.Exclude),
		MaxBytes:        pickInt64(flagMaxBytes, lcfg.MaxBytes, gcfg.MaxBytes),
		Threads:         pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
		DefaultExcludes: pickBoolDefault(cmd.Flags().Changed("default-excludes"), flagDefaultExcludes, lcfg.DefaultExcludes, gcfg.DefaultExcludes, true),
		TrackedOnly:     pickBool(flagTrackedOnly, lcfg.TrackedOnly, gcfg.TrackedOnly),
		Detect: detectors.Options{
			SkipTestCards:  pickBool(flagSkipTestCards, lcfg.SkipTestCards, gcfg.SkipTestCards),
			InlineIgnore:   !pickBool(flagNoInlineIgnore, lcfg.NoInlineIgnore, gcfg.NoInlineIgnore),
			Enable:         pickString(flagEnable, lcfg.Enable, gcfg.Enable),
			Disable:        pickString(flagDisable, lcfg.Disable, gcfg.Disable),
		},
		Logger: log,
	}
	warnUnknownBrands(log, cfg.Detect.Enable)
	warnUnknownBrands(log, cfg.Detect.Disable)

	return scanSetup{
		root:         root,
		inputs:       inputs,
		cfg:          cfg,
		lcfg:         lcfg,
		gcfg:         gcfg,
		timeout:      timeout,
		baselinePath: baselinePath,
		noColor:      noColor,
		log:          log,
	}, nil
}

func warnUnknownBrands(log logrus.FieldLogger, csv string) {
	known := detectors.BrandNames()
	for _, name := range splitComma(csv) {
		if !slices.ContainsFunc(known, func(k string) bool { return strings.EqualFold(k, name) }) {
			log.WithField("brand", name).Warn("unknown brand name")
		}
	}
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (s scanSetup) scan(ctx context.Context) (engine.Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	res, err := engine.ScanWithStats(ctx, s.cfg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return res, fmt.Errorf("scan timed out after %s: %w", s.timeout, err)
		}
		return res, fmt.Errorf("scan error: %w", err)
	}
	return res, nil
}

// applyBaseline loads the baseline and returns the matches it does not
// cover. A missing baseline file covers nothing.
func (s scanSetup) applyBaseline(matches []types.CardMatch) (report.Baseline, []types.CardMatch) {
	base, err := report.LoadBaseline(s.baselinePath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.WithError(err).Warn("ignoring unreadable baseline")
	}
	if flagNoBaseline {
		return base, matches
	}
	newMatches := report.FilterNew(matches, base)
	if newMatches == nil {
		newMatches = []types.CardMatch{}
	}
	return base, newMatches
}

// record appends to the audit log and saves the masked results for
// 'pansweep show'. Failures are logged, never fatal.
func (s scanSetup) record(res engine.Result, newMatches []types.CardMatch) {
	if !flagNoAudit && pickBoolDefault(false, false, s.lcfg.Audit, s.gcfg.Audit, true) {
		rec := audit.CreateScanRecord(s.inputs, res.Summary, res.Matches, newMatches, s.baselinePath)
		if err := audit.NewAuditLog(s.root).LogScan(rec); err != nil {
			s.log.WithError(err).Warn("audit log not written")
		}
	}
	if !flagNoCache {
		doc := report.NewDocument(newMatches, res.Summary, false)
		if err := cache.SaveResults(s.root, s.inputs, doc); err != nil {
			s.log.WithError(err).Warn("scan results not saved")
		}
	}
}

func (s scanSetup) rescanFunc(ctx context.Context) func() (report.Document, error) {
	return func() (report.Document, error) {
		res, err := s.scan(ctx)
		if err != nil {
			return report.Document{}, err
		}
		_, newMatches := s.applyBaseline(res.Matches)
		s.record(res, newMatches)
		return report.NewDocument(newMatches, res.Summary, flagUnmasked), nil
	}
}

func resolveFormat(cli string, lcfg, gcfg config.FileConfig) (string, error) {
	format := strings.ToLower(pickString(cli, lcfg.Format, gcfg.Format))
	if format == "" {
		return "table", nil
	}
	if format == "yml" {
		format = "yaml"
	}
	if !slices.Contains(report.Formats, format) {
		return "", fmt.Errorf("%w %q (want one of %s)", report.ErrUnknownFormat, format, strings.Join(report.Formats, ", "))
	}
	return format, nil
}

func machineFormat(format string) bool {
	return format != "table" && format != "text"
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := resolveScan(cmd, args)
	if err != nil {
		return err
	}
	format, err := resolveFormat(flagFormat, s.lcfg, s.gcfg)
	if err != nil {
		return err
	}
	if flagTUI {
		s.log.SetLevel(logrus.ErrorLevel)
	}

	stderr := cmd.ErrOrStderr()
	chatty := !machineFormat(format) && !flagQuiet && !flagTUI
	if chatty {
		if !flagNoUpdateCheck {
			if latest, newer, _ := update.Check(ctxOf(cmd), version, false); newer && latest != "" {
				fmt.Fprintf(stderr, "(new version available: v%s)  run 'pansweep update' to upgrade\n", latest)
			}
		}
		fmt.Fprintf(stderr, "Scanning %s...\n", strings.Join(s.inputs, ", "))
	}

	progress := chatty && isTerminal(stderr)
	if progress {
		s.cfg.Progress = func(done, total int) {
			if done%10 == 0 || done == total {
				fmt.Fprintf(stderr, "\r[%d/%d] %.0f%%", done, total, float64(done)/float64(total)*100)
			}
		}
	}
	res, err := s.scan(ctxOf(cmd))
	if progress {
		fmt.Fprintln(stderr)
	}
	if err != nil {
		return err
	}

	base, newMatches := s.applyBaseline(res.Matches)
	s.record(res, newMatches)
	doc := report.NewDocument(newMatches, res.Summary, flagUnmasked)

	if flagTUI {
		return tui.Run(doc, tui.Options{
			Root:         s.root,
			Baseline:     base,
			BaselinePath: s.baselinePath,
			Rescan:       s.rescanFunc(ctxOf(cmd)),
		})
	}

	out := cmd.OutOrStdout()
	noColor := s.noColor || !isTerminal(out)
	if flagOutput != "" {
		f, err := os.OpenFile(flagOutput, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		defer f.Close()
		out = f
		noColor = true
	}
	if err := report.Write(out, format, doc, report.PrintOptions{NoColor: noColor, Quiet: flagQuiet}, version); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if flagOutput != "" && chatty {
		fmt.Fprintf(stderr, "Report written to %s\n", flagOutput)
	}
	if baselined := len(res.Matches) - len(newMatches); baselined > 0 && chatty {
		fmt.Fprintf(stderr, "%d baselined match(es) hidden; use --no-baseline to show them\n", baselined)
	}

	if report.ShouldFail(newMatches, pickString(flagFailOn, s.lcfg.FailOn, s.gcfg.FailOn)) {
		return errThreshold
	}
	return nil
}
