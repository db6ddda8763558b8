// Package api implements the HTTP handlers for the funnel editor, theme,
// analytics, and published quiz endpoints.
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/cms"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/editor"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/events"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/funnel"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/persist"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/theme"
	"github.com/giselegal/quiz-sell-genius-66-sub005/pkg/webcore"
	"github.com/giselegal/quiz-sell-genius-66-sub005/pkg/webhook"
)

// Handler holds all API handler state.
type Handler struct {
	editor     *editor.Store
	themes     *theme.Manager
	events     *events.Store
	snapshots  *persist.SnapshotStore
	dispatcher *webhook.Dispatcher
	refresher  *funnel.Refresher
	cmsClient  *cms.Client
	cmsModel   string
	auth       *Auth
	mw         *webcore.Middleware
	logger     *slog.Logger
}

// Deps are the collaborators the handlers mutate and read.
type Deps struct {
	Editor     *editor.Store
	Themes     *theme.Manager
	Events     *events.Store
	Snapshots  *persist.SnapshotStore
	Dispatcher *webhook.Dispatcher
	Refresher  *funnel.Refresher
	CMSClient  *cms.Client
	CMSModel   string
	Auth       *Auth
	Middleware *webcore.Middleware
	Logger     *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{
		editor:     d.Editor,
		themes:     d.Themes,
		events:     d.Events,
		snapshots:  d.Snapshots,
		dispatcher: d.Dispatcher,
		refresher:  d.Refresher,
		cmsClient:  d.CMSClient,
		cmsModel:   d.CMSModel,
		auth:       d.Auth,
		mw:         d.Middleware,
		logger:     d.Logger,
	}
}

// Routes mounts the API routes.
func (h *Handler) Routes(r chi.Router) {
	// Event capture keeps the PostHog-style open surface: instrumentation
	// embedded in quiz pages cannot carry editor credentials.
	r.Group(func(r chi.Router) {
		r.Use(h.mw.FaultInjection)

		r.Post("/capture", h.CaptureEvent)
		r.Post("/capture/", h.CaptureEvent)
		r.Post("/batch", h.BatchCapture)
		r.Post("/batch/", h.BatchCapture)
	})

	// Published quiz, read-only.
	r.Get("/quiz", h.GetQuiz)
	r.Get("/quiz/result", h.GetQuizResult)

	// Auth token exchange.
	r.Post("/auth/token", h.IssueToken)

	// Editor and analytics API; mutations require a session token when an
	// admin secret is configured.
	r.Route("/api", func(r chi.Router) {
		r.Use(h.mw.FaultInjection)
		r.Use(h.auth.Require)

		r.Get("/stages", h.ListStages)
		r.Post("/stages", h.AddStage)
		r.Patch("/stages/{stageID}", h.UpdateStage)
		r.Delete("/stages/{stageID}", h.DeleteStage)
		r.Post("/stages/{stageID}/move", h.MoveStage)
		r.Get("/stages/{stageID}/render", h.RenderStage)

		r.Post("/stages/{stageID}/components", h.AddComponent)
		r.Patch("/stages/{stageID}/components/{componentID}", h.UpdateComponent)
		r.Delete("/stages/{stageID}/components/{componentID}", h.DeleteComponent)
		r.Post("/components/{componentID}/move", h.MoveComponent)

		r.Get("/selection", h.GetSelection)
		r.Post("/selection", h.SetSelection)

		r.Get("/theme", h.GetTheme)
		r.Patch("/theme", h.UpdateTheme)
		r.Post("/theme/reset", h.ResetTheme)
		r.Get("/theme/export", h.ExportTheme)
		r.Post("/theme/import", h.ImportTheme)
		r.Get("/theme/css", h.GetThemeCSS)

		r.Get("/state/export", h.ExportState)
		r.Post("/state/import", h.ImportState)

		r.Get("/analytics/events", h.ListEvents)
		r.Delete("/analytics/events", h.ClearEvents)
		r.Get("/analytics/funnel", h.GetFunnel)
		r.Get("/analytics/summary", h.GetSummary)
	})
}

// saveState snapshots the current editor state to disk. Saves are
// fire-and-forget; failures are logged and never reach the editor UI.
func (h *Handler) saveState() {
	st := persist.State{
		Stages:    h.editor.Stages(),
		Theme:     h.themes.Theme(),
		Timestamp: h.events.Clock().NowMillis(),
	}
	if err := h.snapshots.Save(st); err != nil {
		h.logger.Warn("state snapshot save failed", "err", err)
	}
}
