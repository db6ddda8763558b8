// Package theme holds the funnel's design tokens and derives the CSS
// variable projection the rendering layer consumes. The projection is
// recomputed inside every mutation, so readers never observe a theme and a
// projection that disagree.
package theme

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidTheme marks a theme import or patch that failed validation.
// The current theme is left unchanged when it is returned.
var ErrInvalidTheme = errors.New("invalid theme")

// Theme is the flat record of named design tokens.
type Theme struct {
	PrimaryColor    string `json:"primary_color"`
	SecondaryColor  string `json:"secondary_color"`
	BackgroundColor string `json:"background_color"`
	TextColor       string `json:"text_color"`
	HeadingSize     string `json:"heading_size"`
	BodySize        string `json:"body_size"`
	SpacingUnit     string `json:"spacing_unit"`
	BorderRadius    string `json:"border_radius"`
}

// Patch is a partial theme update. Nil fields are left untouched.
type Patch struct {
	PrimaryColor    *string `json:"primary_color,omitempty"`
	SecondaryColor  *string `json:"secondary_color,omitempty"`
	BackgroundColor *string `json:"background_color,omitempty"`
	TextColor       *string `json:"text_color,omitempty"`
	HeadingSize     *string `json:"heading_size,omitempty"`
	BodySize        *string `json:"body_size,omitempty"`
	SpacingUnit     *string `json:"spacing_unit,omitempty"`
	BorderRadius    *string `json:"border_radius,omitempty"`
}

// Default returns the built-in theme.
func Default() Theme {
	return Theme{
		PrimaryColor:    "#B89B7A",
		SecondaryColor:  "#432818",
		BackgroundColor: "#FFFBF7",
		TextColor:       "#1A1818",
		HeadingSize:     "2rem",
		BodySize:        "1rem",
		SpacingUnit:     "1rem",
		BorderRadius:    "0.5rem",
	}
}

// Manager owns the Theme and its derived projection for one editor session.
type Manager struct {
	mu         sync.RWMutex
	theme      Theme
	projection map[string]string
}

// NewManager creates a manager initialized with the built-in defaults.
func NewManager() *Manager {
	m := &Manager{theme: Default()}
	m.projection = Project(m.theme)
	return m
}

// Theme returns the current theme snapshot.
func (m *Manager) Theme() Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.theme
}

// Projection returns the variable-name to value mapping derived from the
// current theme.
func (m *Manager) Projection() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.projection))
	for k, v := range m.projection {
		out[k] = v
	}
	return out
}

// Update shallow-merges the patch and recomputes the projection atomically.
func (m *Manager) Update(p Patch) Theme {
	m.mu.Lock()
	defer m.mu.Unlock()

	apply(&m.theme, p)
	m.projection = Project(m.theme)
	return m.theme
}

// Reset restores the built-in defaults.
func (m *Manager) Reset() Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.theme = Default()
	m.projection = Project(m.theme)
	return m.theme
}

// Replace installs a fully-specified theme, used by state import.
func (m *Manager) Replace(t Theme) error {
	if err := Validate(t); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.theme = t
	m.projection = Project(m.theme)
	return nil
}

// Export serializes the theme for download or round-tripping.
func (m *Manager) Export() ([]byte, error) {
	m.mu.RLock()
	t := m.theme
	m.mu.RUnlock()
	return json.MarshalIndent(t, "", "  ")
}

// Import parses and validates a serialized theme. On malformed input it
// returns an error wrapping ErrInvalidTheme and leaves the theme unchanged.
func (m *Manager) Import(data []byte) error {
	var t Theme
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTheme, err)
	}
	if err := Validate(t); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.theme = t
	m.projection = Project(m.theme)
	return nil
}

func apply(t *Theme, p Patch) {
	if p.PrimaryColor != nil {
		t.PrimaryColor = *p.PrimaryColor
	}
	if p.SecondaryColor != nil {
		t.SecondaryColor = *p.SecondaryColor
	}
	if p.BackgroundColor != nil {
		t.BackgroundColor = *p.BackgroundColor
	}
	if p.TextColor != nil {
		t.TextColor = *p.TextColor
	}
	if p.HeadingSize != nil {
		t.HeadingSize = *p.HeadingSize
	}
	if p.BodySize != nil {
		t.BodySize = *p.BodySize
	}
	if p.SpacingUnit != nil {
		t.SpacingUnit = *p.SpacingUnit
	}
	if p.BorderRadius != nil {
		t.BorderRadius = *p.BorderRadius
	}
}

// Validate checks that every design token is present.
func Validate(t Theme) error {
	fields := map[string]string{
		"primary_color":    t.PrimaryColor,
		"secondary_color":  t.SecondaryColor,
		"background_color": t.BackgroundColor,
		"text_color":       t.TextColor,
		"heading_size":     t.HeadingSize,
		"body_size":        t.BodySize,
		"spacing_unit":     t.SpacingUnit,
		"border_radius":    t.BorderRadius,
	}
	for name, v := range fields {
		if v == "" {
			return fmt.Errorf("%w: missing field %s", ErrInvalidTheme, name)
		}
	}
	return nil
}

// Project derives the CSS variable mapping from a theme.
func Project(t Theme) map[string]string {
	return map[string]string{
		"--color-primary":    t.PrimaryColor,
		"--color-secondary":  t.SecondaryColor,
		"--color-background": t.BackgroundColor,
		"--color-text":       t.TextColor,
		"--size-heading":     t.HeadingSize,
		"--size-body":        t.BodySize,
		"--spacing-unit":     t.SpacingUnit,
		"--border-radius":    t.BorderRadius,
	}
}
