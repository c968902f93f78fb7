package domain

import "fmt"

// ViewMode is how the products screen lays out its list.
type ViewMode string

const (
	ViewModeGrid ViewMode = "grid"
	ViewModeList ViewMode = "list"
)

// DefaultViewMode is the mode before any preference is loaded.
const DefaultViewMode = ViewModeGrid

// ParseViewMode returns the mode named by s.
func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(s); m {
	case ViewModeGrid, ViewModeList:
		return m, nil
	}
	return "", fmt.Errorf("invalid view mode %q", s)
}

// Valid reports whether m is a known mode.
func (m ViewMode) Valid() bool {
	_, err := ParseViewMode(string(m))
	return err == nil
}
