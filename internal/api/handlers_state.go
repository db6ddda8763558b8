package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/persist"
	"github.com/giselegal/quiz-sell-genius-66-sub005/pkg/webcore"
)

// ExportState handles GET /api/state/export. The response body is exactly
// what ImportState accepts.
func (h *Handler) ExportState(w http.ResponseWriter, r *http.Request) {
	st := persist.State{
		Stages:    h.editor.Stages(),
		Theme:     h.themes.Theme(),
		Timestamp: h.events.Clock().NowMillis(),
	}
	data, err := persist.Encode(st)
	if err != nil {
		webcore.Error(w, http.StatusInternalServerError, "export failed: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="funnel-state.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ImportState handles POST /api/state/import. On success the tree and theme
// are replaced together; on failure nothing changes and the reason
// distinguishes a parse error from a shape error.
func (h *Handler) ImportState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		webcore.Error(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return
	}

	st, err := persist.Decode(body)
	if err != nil {
		reason := "parse_error"
		if errors.Is(err, persist.ErrShape) {
			reason = "invalid_shape"
		}
		webcore.JSON(w, http.StatusBadRequest, map[string]any{
			"applied": false,
			"reason":  reason,
			"detail":  err.Error(),
		})
		return
	}

	// Decode already validated both parts, so neither install can fail and
	// the replacement is effectively atomic.
	if err := h.editor.Replace(st.Stages); err != nil {
		webcore.Error(w, http.StatusInternalServerError, "state replace failed: "+err.Error())
		return
	}
	if err := h.themes.Replace(st.Theme); err != nil {
		webcore.Error(w, http.StatusInternalServerError, "theme replace failed: "+err.Error())
		return
	}

	h.saveState()
	webcore.JSON(w, http.StatusOK, map[string]any{
		"applied":         true,
		"stages":          len(st.Stages),
		"active_stage_id": h.editor.ActiveStageID(),
	})
}
