// Package filter holds the alphabet filter state that decides which rows of
// a unit table are visible.
package filter

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jonathan/unit-browser/internal/binning"
	"github.com/jonathan/unit-browser/internal/types"
)

// ErrInvalidLetter is returned by Select for anything other than "" or a single letter A-Z.
var ErrInvalidLetter = errors.New("invalid filter letter")

// Filter is the selected letter of one table view. The zero value shows
// everything and is safe for concurrent use.
type Filter struct {
	mu       sync.RWMutex
	selected string
}

// New creates a Filter with letter selected.
func New(letter string) (*Filter, error) {
	f := &Filter{}
	if err := f.Select(letter); err != nil {
		return nil, err
	}
	return f, nil
}

// Select sets the active letter. An empty string clears the selection.
func (f *Filter) Select(letter string) error {
	normalized, err := Normalize(letter)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.selected = normalized
	f.mu.Unlock()
	return nil
}

// Selected returns the active letter, or "" when all rows are shown.
func (f *Filter) Selected() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.selected
}

// Matches reports whether a row with displayLabel is visible.
func (f *Filter) Matches(displayLabel string) bool {
	return matches(f.Selected(), displayLabel)
}

// Predicate returns a visibility function bound to the current selection.
// Later calls to Select do not affect it.
func (f *Filter) Predicate() func(displayLabel string) bool {
	selected := f.Selected()
	return func(displayLabel string) bool {
		return matches(selected, displayLabel)
	}
}

// Apply returns the visible units in their original order.
func (f *Filter) Apply(units []*types.Unit) []*types.Unit {
	visible := f.Predicate()
	out := make([]*types.Unit, 0, len(units))
	for _, u := range units {
		if visible(u.DisplayLabel) {
			out = append(out, u)
		}
	}
	return out
}

// Normalize upper-cases letter and checks that it is "" or a single A-Z.
func Normalize(letter string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(letter))
	if upper == "" {
		return "", nil
	}
	if len(upper) != 1 || upper[0] < 'A' || upper[0] > 'Z' {
		return "", fmt.Errorf("%w: %q", ErrInvalidLetter, letter)
	}
	return upper, nil
}

// matches compares the bin key of displayLabel with selected. Labels without
// anchor text never match a letter.
func matches(selected, displayLabel string) bool {
	if selected == "" {
		return true
	}
	key, err := binning.Key(displayLabel)
	if err != nil {
		return false
	}
	return key == selected
}
