package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// validateRoot validates and normalizes a repository path.
func validateRoot(root string) (string, error) {
	if strings.ContainsRune(root, 0) {
		return "", fmt.Errorf("invalid path: contains null byte")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access path %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", root)
	}
	return abs, nil
}

// Tracked is the set of files recorded in a repository index.
type Tracked struct {
	// Root is the absolute worktree root.
	Root  string
	files map[string]bool
}

// Contains reports whether the absolute or worktree-relative path p is tracked.
func (t Tracked) Contains(p string) bool {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(t.Root, p)
		if err != nil {
			return false
		}
		p = rel
	}
	return t.files[filepath.ToSlash(filepath.Clean(p))]
}

// Len returns the number of tracked files.
func (t Tracked) Len() int { return len(t.files) }

// TrackedFiles opens the repository containing dir and reads its index.
func TrackedFiles(dir string) (Tracked, error) {
	validRoot, err := validateRoot(dir)
	if err != nil {
		return Tracked{}, err
	}
	repo, err := gogit.PlainOpenWithOptions(validRoot, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Tracked{}, fmt.Errorf("open repository at %s: %w", validRoot, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return Tracked{}, fmt.Errorf("worktree: %w", err)
	}
	idx, err := repo.Storer.Index()
	if err != nil {
		return Tracked{}, fmt.Errorf("read index: %w", err)
	}
	t := Tracked{Root: wt.Filesystem.Root(), files: make(map[string]bool, len(idx.Entries))}
	for _, e := range idx.Entries {
		t.files[e.Name] = true
	}
	return t, nil
}
