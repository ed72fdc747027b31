package tui

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pansweep/pansweep/internal/files"
	"github.com/pansweep/pansweep/internal/report"
)

type statusMsg string

func status(format string, args ...any) tea.Cmd {
	s := fmt.Sprintf(format, args...)
	return func() tea.Msg { return statusMsg(s) }
}

// editorArgs builds the argument list that opens path at line for editor.
func editorArgs(editor, path string, line int) []string {
	base := filepath.Base(editor)
	switch base {
	case "code", "code-insiders":
		return []string{"-g", fmt.Sprintf("%s:%d", path, line)}
	case "subl", "sublime", "sublime_text", "atom":
		return []string{fmt.Sprintf("%s:%d", path, line)}
	default:
		return []string{fmt.Sprintf("+%d", line), path}
	}
}

func (m Model) openEditor() tea.Cmd {
	r := m.selected()
	if r == nil {
		return nil
	}
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}
	c := exec.Command(editor, editorArgs(editor, r.Path, r.Line)...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		if err != nil {
			return statusMsg(fmt.Sprintf("Error opening editor: %v", err))
		}
		return statusMsg("Editor closed")
	})
}

// ignorePattern turns a match path into a pattern relative to the model root.
func (m Model) ignorePattern(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	root, err := filepath.Abs(m.root)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (m Model) ignoreFile() tea.Cmd {
	r := m.selected()
	if r == nil {
		return nil
	}
	pattern := m.ignorePattern(r.Path)
	if err := files.AppendIgnore(m.root, pattern); err != nil {
		return status("Error writing .pansweepignore: %v", err)
	}
	return status("Added %s to .pansweepignore", pattern)
}

func (m *Model) saveBaseline() error {
	if m.baselinePath == "" {
		return fmt.Errorf("no baseline file configured")
	}
	return report.Baseline{Items: m.baselined}.Save(m.baselinePath)
}

func (m *Model) addToBaseline() tea.Cmd {
	r := m.selected()
	if r == nil {
		return nil
	}
	if m.baselined[r.Fingerprint] {
		return status("Already baselined")
	}
	m.baselined[r.Fingerprint] = true
	if err := m.saveBaseline(); err != nil {
		delete(m.baselined, r.Fingerprint)
		return status("Error writing baseline: %v", err)
	}
	m.rebuildTableRows()
	return status("Added %s:%d to baseline", r.Path, r.Line)
}

func (m *Model) removeFromBaseline() tea.Cmd {
	r := m.selected()
	if r == nil {
		return nil
	}
	if !m.baselined[r.Fingerprint] {
		return status("Not in baseline")
	}
	delete(m.baselined, r.Fingerprint)
	if err := m.saveBaseline(); err != nil {
		m.baselined[r.Fingerprint] = true
		return status("Error writing baseline: %v", err)
	}
	m.rebuildTableRows()
	return status("Removed %s:%d from baseline", r.Path, r.Line)
}

func (m Model) copyPathToClipboard() tea.Cmd {
	r := m.selected()
	if r == nil {
		return status("No card number selected")
	}
	if err := clipboard.WriteAll(r.Path); err != nil {
		return status("Clipboard error: %v", err)
	}
	return status("Copied: %s", r.Path)
}

// rowDetails is the clipboard text for r. It never carries line content.
func rowDetails(r report.Row) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Path: %s\n", r.Path)
	fmt.Fprintf(&sb, "Line: %d\n", r.Line)
	fmt.Fprintf(&sb, "Brand: %s\n", r.Brand)
	fmt.Fprintf(&sb, "PAN: %s\n", r.PAN)
	fmt.Fprintf(&sb, "Risk: %s\n", r.Risk)
	fmt.Fprintf(&sb, "Fingerprint: %s\n", r.Fingerprint)
	return sb.String()
}

func (m Model) copyRowToClipboard() tea.Cmd {
	r := m.selected()
	if r == nil {
		return status("No card number selected")
	}
	if err := clipboard.WriteAll(rowDetails(*r)); err != nil {
		return status("Clipboard error: %v", err)
	}
	return status("Copied details to clipboard")
}

var exportExt = map[string]string{"json": "json", "csv": "csv", "sarif": "sarif", "yaml": "yaml"}

// exportRows writes the visible rows to a timestamped file in exportDir.
func (m Model) exportRows(format string) tea.Cmd {
	ext, ok := exportExt[format]
	if !ok {
		return status("Unknown format: %s", format)
	}
	doc := m.visibleDocument()
	if len(doc.Matches) == 0 {
		return status("No card numbers to export")
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, doc, report.PrintOptions{NoColor: true}, ""); err != nil {
		return status("Export error: %v", err)
	}
	name := fmt.Sprintf("pansweep-export-%s.%s", time.Now().Format("20060102-150405"), ext)
	path := filepath.Join(m.exportDir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return status("Write error: %v", err)
	}
	abs, _ := filepath.Abs(path)
	return status("Exported %d card numbers to %s", len(doc.Matches), abs)
}
