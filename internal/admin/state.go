package admin

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/editor"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/events"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/theme"
)

// AppState bundles the editor tree, theme, and event log into one
// admin-manageable state. It implements StateStore.
type AppState struct {
	Editor *editor.Store
	Themes *theme.Manager
	Events *events.Store
	Logger *slog.Logger
}

// stateDoc is the wire shape for /admin/state.
type stateDoc struct {
	Stages []editor.Stage `json:"stages"`
	Theme  theme.Theme    `json:"theme"`
	Events []events.Event `json:"events"`
}

// Snapshot returns the full application state.
func (a *AppState) Snapshot() any {
	return stateDoc{
		Stages: a.Editor.Stages(),
		Theme:  a.Themes.Theme(),
		Events: a.Events.Snapshot(),
	}
}

// LoadState replaces the full application state. The document is validated
// before any part is applied, so a bad load leaves the running state intact.
func (a *AppState) LoadState(data []byte) error {
	var doc stateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse state: %w", err)
	}
	if err := theme.Validate(doc.Theme); err != nil {
		return err
	}

	// Validate the stage tree on a scratch store first.
	scratch := editor.NewStore()
	if err := scratch.Replace(doc.Stages); err != nil {
		return err
	}

	if err := a.Editor.Replace(doc.Stages); err != nil {
		return err
	}
	if err := a.Themes.Replace(doc.Theme); err != nil {
		return err
	}
	a.Events.LoadSnapshot(doc.Events)
	return nil
}

// Reset restores the default quiz, default theme, and an empty event log.
func (a *AppState) Reset() {
	if err := a.Editor.Replace(editor.DefaultStages()); err != nil {
		// Default stages are always a valid tree.
		a.logger().Error("reset to default stages failed", "err", err)
	}
	a.Themes.Reset()
	a.Events.ClearAll()
}

func (a *AppState) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
