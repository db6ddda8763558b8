package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/events"
)

func answer(style string, points float64) events.Event {
	props := map[string]any{"style": style}
	if points > 0 {
		props["points"] = points
	}
	return events.Event{Type: AnswerEventType, Props: props}
}

func TestScoreAnswersDominantCategory(t *testing.T) {
	category, scores := ScoreAnswers([]events.Event{
		answer("natural", 0),
		answer("natural", 0),
		answer("classic", 0),
		answer("elegant", 3),
	})

	assert.Equal(t, "elegant", category)
	assert.Equal(t, map[string]int{"natural": 2, "classic": 1, "elegant": 3}, scores)
}

func TestScoreAnswersDefaultsToOnePoint(t *testing.T) {
	category, scores := ScoreAnswers([]events.Event{answer("creative", 0)})
	assert.Equal(t, "creative", category)
	assert.Equal(t, 1, scores["creative"])
}

func TestScoreAnswersTieBreaksLexicographically(t *testing.T) {
	category, _ := ScoreAnswers([]events.Event{
		answer("natural", 0),
		answer("classic", 0),
	})
	assert.Equal(t, "classic", category)
}

func TestScoreAnswersIgnoresOtherEventTypes(t *testing.T) {
	category, scores := ScoreAnswers([]events.Event{
		{Type: "quiz_start"},
		{Type: AnswerEventType}, // no props
		{Type: AnswerEventType, Props: map[string]any{"style": ""}},
	})
	assert.Empty(t, category)
	assert.Empty(t, scores)
}

func TestScoreAnswersEmptyInput(t *testing.T) {
	category, scores := ScoreAnswers(nil)
	require.Empty(t, category)
	assert.NotNil(t, scores)
}
