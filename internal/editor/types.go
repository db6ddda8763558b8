// Package editor implements the funnel editor's stage/component tree: an
// ordered list of stages, each holding an ordered list of content components,
// plus the active-stage and selection pointers the editor UI works against.
package editor

// StageType is the funnel-step kind of a stage.
type StageType string

// The closed set of stage types.
const (
	StageIntro      StageType = "intro"
	StageQuestion   StageType = "question"
	StageTransition StageType = "transition"
	StageResult     StageType = "result"
	StageOffer      StageType = "offer"
)

// Valid reports whether t is one of the known stage types.
func (t StageType) Valid() bool {
	switch t {
	case StageIntro, StageQuestion, StageTransition, StageResult, StageOffer:
		return true
	}
	return false
}

// Stage is one step/page of the funnel.
type Stage struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       StageType      `json:"type"`
	Order      int            `json:"order"`
	Components []Component    `json:"components"`
	Settings   map[string]any `json:"settings,omitempty"`
}

// Component is one content block within a stage. Type is an open string tag
// selecting a rendering template; unknown types render as placeholders.
type Component struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Content map[string]any `json:"content,omitempty"`
	Style   map[string]any `json:"style,omitempty"`
	Order   int            `json:"order"`
	StageID string         `json:"stage_id"`
}

// StagePatch is a partial update of a stage. Nil fields are left untouched;
// Settings is shallow-merged key by key.
type StagePatch struct {
	Name     *string        `json:"name,omitempty"`
	Type     *StageType     `json:"type,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// ComponentPatch is a partial update of a component. Content and Style are
// shallow-merged; nested values are replaced wholesale, matching how the
// editor edits one field at a time.
type ComponentPatch struct {
	Type    *string        `json:"type,omitempty"`
	Content map[string]any `json:"content,omitempty"`
	Style   map[string]any `json:"style,omitempty"`
}

// Focus says which properties panel the selection drives.
type Focus string

// Focus values. Selecting a component and selecting a stage are mutually
// exclusive views; at most one panel is focused at a time.
const (
	FocusNone      Focus = "none"
	FocusComponent Focus = "component"
	FocusStage     Focus = "stage"
)

// Selection is the ephemeral editor selection. It is never persisted.
type Selection struct {
	ComponentID string `json:"component_id,omitempty"`
	StageID     string `json:"stage_id,omitempty"`
	Focus       Focus  `json:"focus"`
}

func copyBag(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// cloneStage deep-copies a stage one level down: the component slice and all
// key-value bags are fresh, so callers cannot mutate store state through a
// returned snapshot.
func cloneStage(st Stage) Stage {
	out := st
	out.Settings = copyBag(st.Settings)
	out.Components = make([]Component, len(st.Components))
	for i, c := range st.Components {
		out.Components[i] = cloneComponent(c)
	}
	return out
}

func cloneComponent(c Component) Component {
	out := c
	out.Content = copyBag(c.Content)
	out.Style = copyBag(c.Style)
	return out
}
