package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/theme"
	"github.com/giselegal/quiz-sell-genius-66-sub005/pkg/webcore"
)

// GetTheme handles GET /api/theme.
func (h *Handler) GetTheme(w http.ResponseWriter, r *http.Request) {
	webcore.JSON(w, http.StatusOK, map[string]any{
		"theme":      h.themes.Theme(),
		"projection": h.themes.Projection(),
	})
}

// UpdateTheme handles PATCH /api/theme. The patch is a shallow merge; the
// projection in the response is already recomputed.
func (h *Handler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	var patch theme.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		webcore.Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	updated := h.themes.Update(patch)
	h.saveState()
	webcore.JSON(w, http.StatusOK, map[string]any{
		"theme":      updated,
		"projection": h.themes.Projection(),
	})
}

// ResetTheme handles POST /api/theme/reset.
func (h *Handler) ResetTheme(w http.ResponseWriter, r *http.Request) {
	restored := h.themes.Reset()
	h.saveState()
	webcore.JSON(w, http.StatusOK, map[string]any{
		"theme":      restored,
		"projection": h.themes.Projection(),
	})
}

// ExportTheme handles GET /api/theme/export, serving the theme as a
// downloadable JSON blob.
func (h *Handler) ExportTheme(w http.ResponseWriter, r *http.Request) {
	data, err := h.themes.Export()
	if err != nil {
		webcore.Error(w, http.StatusInternalServerError, "export failed: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="theme.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ImportTheme handles POST /api/theme/import. Malformed input leaves the
// current theme unchanged.
func (h *Handler) ImportTheme(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		webcore.Error(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return
	}
	if err := h.themes.Import(body); err != nil {
		webcore.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	h.saveState()
	webcore.JSON(w, http.StatusOK, map[string]any{
		"theme":      h.themes.Theme(),
		"projection": h.themes.Projection(),
	})
}

// GetThemeCSS handles GET /api/theme/css, rendering the projection as a
// ready-to-embed :root block.
func (h *Handler) GetThemeCSS(w http.ResponseWriter, r *http.Request) {
	projection := h.themes.Projection()
	names := make([]string, 0, len(projection))
	for name := range projection {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s: %s;\n", name, projection[name])
	}
	b.WriteString("}\n")

	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, b.String())
}
