package redact

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pansweep/pansweep/internal/types"
)

// ErrSameFile is returned when a redacted copy would overwrite its source.
var ErrSameFile = errors.New("redact: destination is the source file")

// Replacement is an extra pattern to blank out in redacted copies.
type Replacement struct {
	Pattern *regexp.Regexp
	Replace string
}

// FileResult describes one redacted copy.
type FileResult struct {
	Source     string `json:"source"`
	Dest       string `json:"dest"`
	Redacted   int    `json:"redacted_lines"`
	Unredacted []int  `json:"unredacted_lines,omitempty"`
	// TruncatedAt is the first source line left out of the copy.
	TruncatedAt int `json:"truncated_at,omitempty"`
}

// Complete reports whether every matched line was fully redacted and the
// whole source was copied.
func (r FileResult) Complete() bool { return len(r.Unredacted) == 0 && r.TruncatedAt == 0 }

// WouldChange reports whether any replacement matches the file content.
func WouldChange(path string, reps []Replacement) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	for _, r := range reps {
		if r.Pattern.Match(b) {
			return true, nil
		}
	}
	return false, nil
}

// WriteCopy writes a redacted copy of src to dst. Lines listed in matches
// (keyed by 1-based line number) have their PANs masked; reps are then
// applied to every line. Line terminators are preserved. src is never
// modified. When stopLine is positive, the copy ends before that line; use it
// for sources that were not scanned to the end.
func WriteCopy(src, dst string, matches []types.CardMatch, reps []Replacement, stopLine int) (FileResult, error) {
	res := FileResult{Source: src, Dest: dst}
	if same, err := sameFile(src, dst); err != nil {
		return res, err
	} else if same {
		return res, ErrSameFile
	}
	b, err := os.ReadFile(src)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", src, err)
	}
	byLine := map[int][]types.CardMatch{}
	for _, m := range matches {
		byLine[m.Line] = append(byLine[m.Line], m)
	}

	var out bytes.Buffer
	out.Grow(len(b))
	for i, chunk := range strings.SplitAfter(string(b), "\n") {
		if chunk == "" {
			continue
		}
		if stopLine > 0 && i+1 >= stopLine {
			res.TruncatedAt = stopLine
			break
		}
		body, term := splitTerminator(chunk)
		if ms := byLine[i+1]; len(ms) > 0 {
			var complete bool
			body, complete = RedactLine(body, ms)
			if complete {
				res.Redacted++
			} else {
				res.Unredacted = append(res.Unredacted, i+1)
			}
		}
		for _, r := range reps {
			body = r.Pattern.ReplaceAllString(body, r.Replace)
		}
		out.WriteString(body)
		out.WriteString(term)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return res, err
	}
	if err := os.WriteFile(dst, out.Bytes(), 0o600); err != nil {
		return res, fmt.Errorf("write %s: %w", dst, err)
	}
	return res, nil
}

func splitTerminator(chunk string) (string, string) {
	switch {
	case strings.HasSuffix(chunk, "\r\n"):
		return chunk[:len(chunk)-2], "\r\n"
	case strings.HasSuffix(chunk, "\n"):
		return chunk[:len(chunk)-1], "\n"
	}
	return chunk, ""
}

func sameFile(a, b string) (bool, error) {
	aa, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	bb, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	if aa == bb {
		return true, nil
	}
	sa, errA := os.Stat(aa)
	sb, errB := os.Stat(bb)
	if errA != nil || errB != nil {
		return false, nil
	}
	return os.SameFile(sa, sb), nil
}

// CopyPath maps a scanned path to its location under outDir, keeping the
// directory structure relative to root when possible.
func CopyPath(root, outDir, path string) string {
	rel := path
	if filepath.IsAbs(path) {
		if r, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		} else {
			rel = strings.TrimPrefix(filepath.ToSlash(path), "/")
		}
	}
	rel = filepath.Clean(rel)
	for strings.HasPrefix(rel, "..") {
		rel = strings.TrimPrefix(strings.TrimPrefix(rel, ".."), string(filepath.Separator))
	}
	return filepath.Join(outDir, rel)
}
