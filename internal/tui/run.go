package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pansweep/pansweep/internal/report"
)

// Run shows doc in the full-screen viewer until the user quits.
func Run(doc report.Document, opts Options) error {
	m := NewModel(doc, opts)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// RunCached shows a document loaded from the last saved scan.
func RunCached(doc report.Document, opts Options, timestamp time.Time) error {
	opts.Cached = true
	opts.Timestamp = timestamp
	return Run(doc, opts)
}
