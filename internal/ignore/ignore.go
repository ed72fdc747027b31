package ignore

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// FileName is the per-directory ignore file read by the scanner.
const FileName = ".pansweepignore"

// Matcher reports whether a slash-separated relative path is ignored.
type Matcher struct {
	patterns []pattern
}

type pattern struct {
	glob    string
	dirOnly bool
	negate  bool
}

// Load reads gitignore-style patterns from p. A missing file yields an empty
// matcher and no error.
func Load(p string) (Matcher, error) {
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Matcher{}, nil
	}
	if err != nil {
		return Matcher{}, err
	}
	defer f.Close()
	var m Matcher
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m.Add(sc.Text())
	}
	return m, sc.Err()
}

// Add appends one pattern line. Blank lines and # comments are ignored.
func (m *Matcher) Add(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	var p pattern
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	anchored := strings.HasPrefix(line, "/")
	line = strings.TrimPrefix(line, "/")
	if !anchored && !strings.Contains(line, "/") {
		line = "**/" + line
	}
	p.glob = line
	m.patterns = append(m.patterns, p)
}

// Empty reports whether the matcher holds no patterns.
func (m Matcher) Empty() bool { return len(m.patterns) == 0 }

// Match reports whether the file rel, or any of its parent directories, is
// ignored. The last matching pattern wins, so later "!" lines re-include paths.
func (m Matcher) Match(rel string) bool { return m.match(rel, false) }

// MatchDir is Match for a directory; patterns ending in "/" also apply to rel
// itself.
func (m Matcher) MatchDir(rel string) bool { return m.match(rel, true) }

func (m Matcher) match(rel string, isDir bool) bool {
	if len(m.patterns) == 0 {
		return false
	}
	rel = strings.TrimPrefix(path.Clean(strings.ReplaceAll(rel, "\\", "/")), "./")
	ignored := false
	for _, p := range m.patterns {
		if p.matches(rel, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}

func (p pattern) matches(rel string, isDir bool) bool {
	if !p.dirOnly || isDir {
		if ok, _ := doublestar.Match(p.glob, rel); ok {
			return true
		}
	}
	// any parent directory matching the pattern ignores the whole subtree
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if ok, _ := doublestar.Match(p.glob, dir); ok {
			return true
		}
	}
	return false
}
