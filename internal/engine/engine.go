package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/pansweep/pansweep/internal/ctxparse"
	"github.com/pansweep/pansweep/internal/detectors"
	"github.com/pansweep/pansweep/internal/scanner"
	"github.com/pansweep/pansweep/internal/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrNoInputs is returned when a scan is started without any input paths.
var ErrNoInputs = errors.New("no input paths given")

// Config controls scanning behavior including scope, performance, and filters.
type Config struct {
	Inputs          []string
	IncludeGlobs    string
	ExcludeGlobs    string
	MaxBytes        int64
	Threads         int // 0 means GOMAXPROCS, negative means one goroutine per file
	DefaultExcludes bool
	TrackedOnly     bool
	Detect          detectors.Options

	// Progress is called after each file finishes. It may be called from
	// several goroutines, but never concurrently.
	Progress func(done, total int)
	Logger   logrus.FieldLogger
	// Scanner overrides the file scanner built from Detect.
	Scanner scanner.Scanner
}

func (c Config) logger() logrus.FieldLogger {
	if c.Logger != nil {
		return c.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (c Config) limit() int {
	switch {
	case c.Threads == 0:
		return runtime.GOMAXPROCS(0)
	case c.Threads < 0:
		return -1
	default:
		return c.Threads
	}
}

// Result contains matches and the scan summary.
type Result struct {
	Matches []types.CardMatch
	Summary types.ScanSummary
}

// ScanWithStats enumerates cfg.Inputs, scans every target concurrently and
// summarizes the outcome. Per-file failures are recorded as skips; only a
// missing input list, a tracked-only scan outside a repository, or a
// cancelled context fail the whole scan. Matches are sorted by path and line.
func ScanWithStats(ctx context.Context, cfg Config) (Result, error) {
	var result Result
	if len(cfg.Inputs) == 0 {
		return result, ErrNoInputs
	}
	log := cfg.logger()
	start := time.Now()

	inv, err := Walk(ctx, cfg)
	if err != nil {
		return result, fmt.Errorf("enumerate inputs: %w", err)
	}
	log.WithFields(logrus.Fields{
		"targets":     len(inv.Targets),
		"directories": inv.Directories,
		"bytes":       inv.TotalSize,
	}).Debug("inputs enumerated")

	scnr := cfg.Scanner
	if scnr == nil {
		scnr = scanner.New(cfg.Detect)
	}

	st := newStore(len(inv.Targets), cfg.Progress)
	g := new(errgroup.Group)
	g.SetLimit(cfg.limit())
	for _, t := range inv.Targets {
		if t.Skip != nil {
			log.WithFields(logrus.Fields{"path": t.Path, "reason": t.Skip.Reason}).Info("skipping file")
			st.finish(t.Skip)
			continue
		}
		g.Go(func() error {
			var found []types.CardMatch
			res := scnr.ScanFile(ctx, t.Path, func(m types.CardMatch) { found = append(found, m) })
			annotateFields(t.Path, found, log)
			for _, m := range found {
				st.add(m)
			}
			if res.Skip != nil {
				log.WithFields(logrus.Fields{
					"path":   t.Path,
					"reason": res.Skip.Reason,
					"detail": res.Skip.Detail,
				}).Warn("file not fully scanned")
			}
			st.finish(res.Skip)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("scan interrupted: %w", err)
	}

	result.Summary = summarize(inv, st, time.Since(start))
	result.Matches = st.matches
	types.SortMatches(result.Matches)
	log.WithFields(logrus.Fields{
		"cards":    result.Summary.TotalCardsFound,
		"files":    result.Summary.FilesScanned,
		"duration": result.Summary.Duration,
	}).Info("scan complete")
	return result, nil
}

// annotateFields sets Field on matches from JSON and YAML files. A file that
// does not parse leaves its matches as they are.
func annotateFields(path string, ms []types.CardMatch, log logrus.FieldLogger) {
	if len(ms) == 0 || !ctxparse.Supported(path) {
		return
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Debug("field context unavailable")
		return
	}
	keys := ctxparse.KeysByLine(ctxparse.Fields(path, b))
	for i := range ms {
		ms[i].Field = keys[ms[i].Line]
	}
}
