package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/editor"
	"github.com/giselegal/quiz-sell-genius-66-sub005/pkg/webcore"
)

// ListStages handles GET /api/stages.
func (h *Handler) ListStages(w http.ResponseWriter, r *http.Request) {
	webcore.JSON(w, http.StatusOK, map[string]any{
		"stages":          h.editor.Stages(),
		"active_stage_id": h.editor.ActiveStageID(),
	})
}

// AddStage handles POST /api/stages.
func (h *Handler) AddStage(w http.ResponseWriter, r *http.Request) {
	var st editor.Stage
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		webcore.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if st.Type != "" && !st.Type.Valid() {
		webcore.Error(w, http.StatusBadRequest, "unknown stage type: "+string(st.Type))
		return
	}

	stored, ok := h.editor.AddStage(st)
	if !ok {
		webcore.NotApplied(w, "stage id already exists")
		return
	}
	h.saveState()
	webcore.JSON(w, http.StatusCreated, map[string]any{
		"applied": true,
		"stage":   stored,
	})
}

// UpdateStage handles PATCH /api/stages/{stageID}.
func (h *Handler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	stageID := chi.URLParam(r, "stageID")

	var patch editor.StagePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		webcore.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if patch.Type != nil && !patch.Type.Valid() {
		webcore.Error(w, http.StatusBadRequest, "unknown stage type: "+string(*patch.Type))
		return
	}

	if !h.editor.UpdateStage(stageID, patch) {
		webcore.NotApplied(w, "stage not found")
		return
	}
	h.saveState()
	st, _ := h.editor.Stage(stageID)
	webcore.JSON(w, http.StatusOK, map[string]any{
		"applied": true,
		"stage":   st,
	})
}

// DeleteStage handles DELETE /api/stages/{stageID}.
func (h *Handler) DeleteStage(w http.ResponseWriter, r *http.Request) {
	stageID := chi.URLParam(r, "stageID")
	if !h.editor.DeleteStage(stageID) {
		webcore.NotApplied(w, "stage not found")
		return
	}
	h.saveState()
	webcore.JSON(w, http.StatusOK, map[string]any{
		"applied":         true,
		"active_stage_id": h.editor.ActiveStageID(),
	})
}

// MoveStage handles POST /api/stages/{stageID}/move.
func (h *Handler) MoveStage(w http.ResponseWriter, r *http.Request) {
	stageID := chi.URLParam(r, "stageID")

	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webcore.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !h.editor.MoveStage(stageID, req.Index) {
		webcore.NotApplied(w, "stage not found")
		return
	}
	h.saveState()
	webcore.JSON(w, http.StatusOK, map[string]any{
		"applied": true,
		"stages":  h.editor.Stages(),
	})
}

// RenderStage handles GET /api/stages/{stageID}/render.
func (h *Handler) RenderStage(w http.ResponseWriter, r *http.Request) {
	stageID := chi.URLParam(r, "stageID")
	nodes, ok := h.editor.RenderStage(stageID)
	if !ok {
		webcore.Error(w, http.StatusNotFound, "stage not found")
		return
	}
	webcore.JSON(w, http.StatusOK, map[string]any{
		"stage_id": stageID,
		"nodes":    nodes,
	})
}

// AddComponent handles POST /api/stages/{stageID}/components.
// An optional "index" inserts at a position instead of appending.
func (h *Handler) AddComponent(w http.ResponseWriter, r *http.Request) {
	stageID := chi.URLParam(r, "stageID")

	var req struct {
		editor.Component
		Index *int `json:"index,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webcore.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Type == "" {
		webcore.Error(w, http.StatusBadRequest, "component type is required")
		return
	}

	stored, ok := h.editor.AddComponent(stageID, req.Component, req.Index)
	if !ok {
		webcore.NotApplied(w, "stage not found or component id taken")
		return
	}
	h.saveState()
	webcore.JSON(w, http.StatusCreated, map[string]any{
		"applied":     true,
		"component":   stored,
		"placeholder": !editor.KnownComponentType(stored.Type),
	})
}

// UpdateComponent handles PATCH /api/stages/{stageID}/components/{componentID}.
func (h *Handler) UpdateComponent(w http.ResponseWriter, r *http.Request) {
	stageID := chi.URLParam(r, "stageID")
	componentID := chi.URLParam(r, "componentID")

	var patch editor.ComponentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		webcore.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !h.editor.UpdateComponent(stageID, componentID, patch) {
		webcore.NotApplied(w, "component not found")
		return
	}
	h.saveState()
	webcore.JSON(w, http.StatusOK, map[string]any{"applied": true})
}

// DeleteComponent handles DELETE /api/stages/{stageID}/components/{componentID}.
func (h *Handler) DeleteComponent(w http.ResponseWriter, r *http.Request) {
	stageID := chi.URLParam(r, "stageID")
	componentID := chi.URLParam(r, "componentID")

	if !h.editor.DeleteComponent(stageID, componentID) {
		webcore.NotApplied(w, "component not found")
		return
	}
	h.saveState()
	webcore.JSON(w, http.StatusOK, map[string]any{"applied": true})
}

// MoveComponent handles POST /api/components/{componentID}/move.
func (h *Handler) MoveComponent(w http.ResponseWriter, r *http.Request) {
	componentID := chi.URLParam(r, "componentID")

	var req struct {
		StageID string `json:"stage_id"`
		Index   int    `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webcore.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !h.editor.MoveComponent(componentID, req.StageID, req.Index) {
		webcore.NotApplied(w, "component or target stage not found")
		return
	}
	h.saveState()
	webcore.JSON(w, http.StatusOK, map[string]any{"applied": true})
}

// GetSelection handles GET /api/selection.
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	webcore.JSON(w, http.StatusOK, h.editor.Selection())
}

// SetSelection handles POST /api/selection. Exactly one of component_id or
// stage_id selects that entity; both empty clears the selection. Setting the
// active stage is a separate field so the editor can switch pages without
// touching the properties panel.
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ComponentID   *string `json:"component_id,omitempty"`
		StageID       *string `json:"stage_id,omitempty"`
		ActiveStageID *string `json:"active_stage_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webcore.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	applied := true
	switch {
	case req.ComponentID != nil:
		applied = h.editor.SelectComponent(*req.ComponentID)
	case req.StageID != nil:
		applied = h.editor.SelectStage(*req.StageID)
	}
	if req.ActiveStageID != nil && applied {
		applied = h.editor.SetActiveStage(*req.ActiveStageID)
	}

	if !applied {
		webcore.NotApplied(w, "selection target not found")
		return
	}
	webcore.JSON(w, http.StatusOK, map[string]any{
		"applied":         true,
		"selection":       h.editor.Selection(),
		"active_stage_id": h.editor.ActiveStageID(),
	})
}
