package funnel

import (
	"fmt"
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/events"
)

// StepDefinition declares one funnel step and how events match it. With no
// Match expression, an event matches on exact event type. Match is an expr
// predicate evaluated per event with `type`, `distinct_id`, `timestamp`, and
// `props` in scope, e.g. `type == "quiz_start" && props.utm_source == "ig"`.
type StepDefinition struct {
	Name      string `json:"name"`
	Key       string `json:"key"`
	EventType string `json:"event_type"`
	Match     string `json:"match,omitempty"`
}

// Step is one computed funnel step. Percentage is relative to the previous
// step's count; the first step is always 100.
type Step struct {
	Name       string  `json:"name"`
	Key        string  `json:"key"`
	Value      int     `json:"value"`
	Percentage float64 `json:"percentage"`
}

// Bottleneck is the adjacent step pair with the largest relative drop.
type Bottleneck struct {
	FromIndex int     `json:"from_index"`
	ToIndex   int     `json:"to_index"`
	FromKey   string  `json:"from_key"`
	ToKey     string  `json:"to_key"`
	Drop      float64 `json:"drop"`
}

// DefaultSteps returns the quiz funnel's standard step definitions.
func DefaultSteps() []StepDefinition {
	return []StepDefinition{
		{Name: "Quiz Started", Key: "quiz_start", EventType: "quiz_start"},
		{Name: "Quiz Completed", Key: "quiz_complete", EventType: "quiz_complete"},
		{Name: "Result Viewed", Key: "result_view", EventType: "result_view"},
		{Name: "Lead Generated", Key: "lead_generated", EventType: "lead_generated"},
		{Name: "Sale", Key: "sale", EventType: "sale"},
	}
}

type compiledStep struct {
	def     StepDefinition
	program *vm.Program // nil when matching on event type only
}

func compileSteps(defs []StepDefinition) ([]compiledStep, error) {
	out := make([]compiledStep, len(defs))
	for i, def := range defs {
		out[i] = compiledStep{def: def}
		if def.Match == "" {
			continue
		}
		// "type" is an expr builtin; disable it so the expression reads the
		// event type from the environment instead.
		prog, err := expr.Compile(def.Match, expr.AsBool(), expr.DisableBuiltin("type"))
		if err != nil {
			return nil, fmt.Errorf("step %q: compiling match expression: %w", def.Key, err)
		}
		out[i].program = prog
	}
	return out, nil
}

func (cs compiledStep) matches(e events.Event) bool {
	if cs.program == nil {
		return e.Type == cs.def.EventType
	}
	props := e.Props
	if props == nil {
		props = map[string]any{}
	}
	env := map[string]any{
		"type":        e.Type,
		"distinct_id": e.DistinctID,
		"timestamp":   e.Timestamp,
		"props":       props,
	}
	result, err := expr.Run(cs.program, env)
	if err != nil {
		// A predicate that errors on this event counts it as non-matching.
		return false
	}
	ok, _ := result.(bool)
	return ok
}

// ComputeFunnel counts events against each step definition and derives
// step-over-step percentages. The input slice is never mutated.
func ComputeFunnel(evts []events.Event, defs []StepDefinition) ([]Step, error) {
	compiled, err := compileSteps(defs)
	if err != nil {
		return nil, err
	}

	steps := make([]Step, len(compiled))
	for i, cs := range compiled {
		count := 0
		for _, e := range evts {
			if cs.matches(e) {
				count++
			}
		}
		steps[i] = Step{Name: cs.def.Name, Key: cs.def.Key, Value: count}
	}

	for i := range steps {
		switch {
		case i == 0:
			steps[i].Percentage = 100
		case steps[i-1].Value > 0:
			steps[i].Percentage = round2(float64(steps[i].Value) / float64(steps[i-1].Value) * 100)
		default:
			steps[i].Percentage = 0
		}
	}
	return steps, nil
}

// OverallConversionRate is last step count over first step count, as a
// percentage, or 0 when the first step has no events.
func OverallConversionRate(steps []Step) float64 {
	if len(steps) == 0 || steps[0].Value == 0 {
		return 0
	}
	last := steps[len(steps)-1]
	return round2(float64(last.Value) / float64(steps[0].Value) * 100)
}

// FindBottleneck returns the adjacent step pair with the largest drop, ties
// broken by the earliest pair. It reports false with fewer than two steps.
func FindBottleneck(steps []Step) (Bottleneck, bool) {
	if len(steps) < 2 {
		return Bottleneck{}, false
	}
	best := Bottleneck{}
	for i := 1; i < len(steps); i++ {
		drop := round2(100 - steps[i].Percentage)
		if i == 1 || drop > best.Drop {
			best = Bottleneck{
				FromIndex: i - 1,
				ToIndex:   i,
				FromKey:   steps[i-1].Key,
				ToKey:     steps[i].Key,
				Drop:      drop,
			}
		}
	}
	return best, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
