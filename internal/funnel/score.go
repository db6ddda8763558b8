package funnel

import "github.com/giselegal/quiz-sell-genius-66-sub005/internal/events"

// AnswerEventType is the event type carrying a quiz option selection.
// Its properties carry the option's style category and an optional point
// weight (default 1).
const AnswerEventType = "quiz_answer"

// ScoreAnswers tallies style points from quiz_answer events and returns the
// dominant category plus the full tally. Equal scores break ties by the
// lexicographically smallest category, so results are deterministic. An
// empty tally returns "".
func ScoreAnswers(evts []events.Event) (string, map[string]int) {
	scores := make(map[string]int)
	for _, e := range evts {
		if e.Type != AnswerEventType || e.Props == nil {
			continue
		}
		style, ok := e.Props["style"].(string)
		if !ok || style == "" {
			continue
		}
		points := 1
		if p, ok := e.Props["points"].(float64); ok && p > 0 {
			points = int(p)
		}
		scores[style] += points
	}

	dominant := ""
	for category, score := range scores {
		if dominant == "" || score > scores[dominant] ||
			(score == scores[dominant] && category < dominant) {
			dominant = category
		}
	}
	return dominant, scores
}
