package tui

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pansweep/pansweep/internal/config"
)

// Prefs holds viewer settings that persist across sessions.
type Prefs struct {
	// HideContent hides line content in the detail pane.
	HideContent bool `json:"hide_content"`
	// ContextLines is how many lines around a match the detail pane shows.
	ContextLines int `json:"context_lines"`
}

func DefaultPrefs() Prefs {
	return Prefs{ContextLines: 3}
}

func prefsPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tui_prefs.json"), nil
}

// LoadPrefs reads saved preferences, falling back to defaults.
func LoadPrefs() Prefs {
	prefs := DefaultPrefs()
	path, err := prefsPath()
	if err != nil {
		return prefs
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return prefs
	}
	_ = json.Unmarshal(data, &prefs) //nolint:errcheck // fall back to defaults
	if prefs.ContextLines < 0 {
		prefs.ContextLines = 0
	}
	return prefs
}

func SavePrefs(prefs Prefs) error {
	path, err := prefsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
