package api

import (
	"net/http"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/editor"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/funnel"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/theme"
	"github.com/giselegal/quiz-sell-genius-66-sub005/pkg/webcore"
)

// GetQuiz handles GET /quiz, the published quiz definition. The source chain
// is CMS, then the local editor state, then the built-in default quiz. This
// endpoint never fails toward the visitor: every fallback produces a
// servable quiz.
func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	stages := h.editor.Stages()
	source := "local"

	if h.cmsClient != nil && h.cmsClient.Configured() {
		content, err := h.cmsClient.Fetch(r.Context(), h.cmsModel)
		if err == nil {
			stages = content.Stages
			source = "cms"
			if content.Theme != nil {
				// Remote theme overrides local tokens for the published
				// quiz only; the editor theme is untouched.
				webcore.JSON(w, http.StatusOK, map[string]any{
					"source": source,
					"stages": stages,
					"theme":  theme.Project(*content.Theme),
				})
				return
			}
		} else {
			h.logger.Warn("cms fetch failed, serving local quiz", "err", err)
		}
	}

	if len(stages) == 0 {
		stages = editor.DefaultStages()
		source = "default"
	}

	webcore.JSON(w, http.StatusOK, map[string]any{
		"source": source,
		"stages": stages,
		"theme":  h.themes.Projection(),
	})
}

// GetQuizResult handles GET /quiz/result. It scores the quiz_answer events
// recorded for a distinct_id and returns the dominant style category.
func (h *Handler) GetQuizResult(w http.ResponseWriter, r *http.Request) {
	distinctID := r.URL.Query().Get("distinct_id")
	if distinctID == "" {
		webcore.Error(w, http.StatusBadRequest, "distinct_id query parameter is required")
		return
	}

	all := h.events.All()
	answers := all[:0:0]
	for _, evt := range all {
		if evt.DistinctID == distinctID {
			answers = append(answers, evt)
		}
	}

	category, scores := funnel.ScoreAnswers(answers)
	if category == "" {
		webcore.Error(w, http.StatusNotFound, "no quiz answers recorded for distinct_id")
		return
	}

	webcore.JSON(w, http.StatusOK, map[string]any{
		"distinct_id": distinctID,
		"category":    category,
		"scores":      scores,
	})
}
