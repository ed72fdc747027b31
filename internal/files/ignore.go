package files

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pansweep/pansweep/internal/ignore"
)

// AppendIgnore ensures pattern is present in the .pansweepignore at root.
func AppendIgnore(root, pattern string) error {
	return appendLine(filepath.Join(root, ignore.FileName), pattern)
}

// AppendGitignore ensures pattern is present in the .gitignore at root.
func AppendGitignore(root, pattern string) error {
	return appendLine(filepath.Join(root, ".gitignore"), pattern)
}

// appendLine adds line to path unless an identical trimmed line exists. It
// creates the file if missing and adds a newline before line if the file
// does not end with one.
func appendLine(path, line string) error {
	line = strings.TrimSpace(line)
	existing := map[string]bool{}
	var last byte = '\n'
	if b, err := os.ReadFile(path); err == nil {
		sc := bufio.NewScanner(bytes.NewReader(b))
		for sc.Scan() {
			existing[strings.TrimSpace(sc.Text())] = true
		}
		if len(b) > 0 {
			last = b[len(b)-1]
		}
	}
	if line == "" || existing[line] {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if last != '\n' {
		line = "\n" + line
	}
	_, err = f.WriteString(line + "\n")
	return err
}

// LocalArtifacts are files pansweep writes next to the scanned tree when it
// is not a git repository.
func LocalArtifacts() []string {
	return []string{
		".pansweep_audit.jsonl",
		".pansweep_last_scan.json",
	}
}

// DefaultIgnores returns patterns that rarely hold real card data.
func DefaultIgnores() []string {
	return []string{
		"*.min.js",
		"*.map",
		"**/testdata/**",
	}
}
