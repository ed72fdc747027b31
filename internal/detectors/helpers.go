package detectors

import "strings"

// Inline suppression markers. They may appear anywhere in a line, usually
// inside a comment.
const (
	markerIgnore         = "pansweep:ignore"
	markerIgnoreNextLine = "pansweep:ignore-next-line"
	markerIgnoreStart    = "pansweep:ignore-start"
	markerIgnoreEnd      = "pansweep:ignore-end"
)

func hasMarker(line, marker string) bool {
	if strings.Contains(line, marker) {
		return true
	}
	// tolerate "pansweep: ignore-start" style spacing
	spaced := strings.Replace(marker, ":", ": ", 1)
	return strings.Contains(line, spaced)
}

// ignoreState tracks region and next-line suppressions across the lines of
// one file.
type ignoreState struct {
	inRegion bool
	skipNext bool
}

// suppress reports whether line must not produce matches, updating state.
func (s *ignoreState) suppress(line string) bool {
	if hasMarker(line, markerIgnoreStart) {
		s.inRegion = true
		return true
	}
	if hasMarker(line, markerIgnoreEnd) {
		s.inRegion = false
		return true
	}
	if s.inRegion {
		return true
	}
	if hasMarker(line, markerIgnoreNextLine) {
		s.skipNext = true
		return true
	}
	if s.skipNext {
		s.skipNext = false
		return true
	}
	return hasMarker(line, markerIgnore)
}
