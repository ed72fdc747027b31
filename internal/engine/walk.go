package engine

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pansweep/pansweep/internal/git"
	"github.com/pansweep/pansweep/internal/ignore"
	"github.com/pansweep/pansweep/internal/types"
	"github.com/sirupsen/logrus"
)

// Target is one file selected for scanning. Skip is pre-set when the file is
// known to be unscannable before it is opened.
type Target struct {
	Path string
	Size int64
	Skip *types.SkipRecord
}

// Inventory is the result of enumerating the inputs.
type Inventory struct {
	Targets     []Target
	Directories int
	TotalSize   int64
	SkippedDirs []types.SkipRecord
}

type enumerator struct {
	cfg  Config
	log  logrus.FieldLogger
	seen map[string]bool
	inv  Inventory
}

// Walk expands cfg.Inputs into scan targets. Directories are walked
// recursively; anything else, including a path that does not exist, is a
// target in its own right. Targets are de-duplicated by cleaned path.
func Walk(ctx context.Context, cfg Config) (Inventory, error) {
	e := &enumerator{cfg: cfg, log: cfg.logger(), seen: map[string]bool{}}
	for _, in := range cfg.Inputs {
		if err := ctx.Err(); err != nil {
			return e.inv, err
		}
		info, err := os.Stat(in)
		if err != nil || !info.IsDir() {
			e.addFile(in, info)
			continue
		}
		if err := e.walkDir(ctx, in); err != nil {
			return e.inv, err
		}
	}
	return e.inv, nil
}

func (e *enumerator) addFile(p string, info fs.FileInfo) {
	key := filepath.Clean(p)
	if e.seen[key] {
		return
	}
	e.seen[key] = true
	t := Target{Path: p}
	if info != nil {
		t.Size = info.Size()
	}
	if e.cfg.MaxBytes > 0 && t.Size > e.cfg.MaxBytes {
		t.Skip = &types.SkipRecord{Path: p, Reason: types.SkipTooLarge}
	}
	e.inv.TotalSize += t.Size
	e.inv.Targets = append(e.inv.Targets, t)
}

func (e *enumerator) walkDir(ctx context.Context, root string) error {
	ign, err := ignore.Load(filepath.Join(root, ignore.FileName))
	if err != nil {
		e.log.WithError(err).WithField("path", root).Warn("could not read ignore file")
	}
	var tracked *git.Tracked
	if e.cfg.TrackedOnly {
		tr, err := git.TrackedFiles(root)
		if err != nil {
			return err
		}
		tracked = &tr
	}

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if d != nil && d.IsDir() {
				// WalkDir already reported this directory once before failing to read it.
				e.inv.Directories--
				e.inv.SkippedDirs = append(e.inv.SkippedDirs, types.SkipRecord{Path: p, Reason: types.SkipOpen, Detail: err.Error()})
				e.log.WithFields(logrus.Fields{"path": p, "reason": types.SkipOpen}).WithError(err).Warn("skipping unreadable directory")
				return nil
			}
			e.addFile(p, nil)
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			rel = p
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if p != root {
				if e.cfg.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
					return filepath.SkipDir
				}
				if ign.MatchDir(rel) {
					return filepath.SkipDir
				}
			}
			e.inv.Directories++
			return nil
		}
		var target fs.FileInfo
		if d.Type()&fs.ModeSymlink != 0 {
			st, err := os.Stat(p)
			if err == nil && st.IsDir() {
				e.log.WithField("path", p).Debug("not following directory symlink")
				return nil
			}
			target = st
		}
		if !allowedByGlobs(rel, e.cfg) || ign.Match(rel) {
			return nil
		}
		if e.cfg.DefaultExcludes && isDefaultFileExcluded(strings.ToLower(rel)) {
			return nil
		}
		if tracked != nil {
			abs, _ := filepath.Abs(p)
			if !tracked.Contains(abs) {
				return nil
			}
		}
		if target == nil {
			target, _ = d.Info()
		}
		e.addFile(p, target)
		return nil
	})
}
