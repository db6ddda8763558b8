package editor

// RenderNode is what the rendering layer is handed for one component.
// Unknown component types are flagged as placeholders so the editor shows a
// visible block instead of crashing or silently dropping content.
type RenderNode struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Content     map[string]any `json:"content,omitempty"`
	Style       map[string]any `json:"style,omitempty"`
	Placeholder bool           `json:"placeholder,omitempty"`
}

// knownComponentTypes are the templates the rendering layer ships with.
var knownComponentTypes = map[string]bool{
	"hero":         true,
	"heading":      true,
	"text":         true,
	"image":        true,
	"input":        true,
	"button":       true,
	"options-grid": true,
	"progress-bar": true,
	"testimonial":  true,
	"pricing":      true,
	"result-card":  true,
	"video":        true,
	"spacer":       true,
}

// KnownComponentType reports whether a rendering template exists for t.
func KnownComponentType(t string) bool {
	return knownComponentTypes[t]
}

// RenderStage projects a stage's components into render nodes in display
// order. It reports false when the stage does not exist.
func (s *Store) RenderStage(stageID string) ([]RenderNode, bool) {
	st, ok := s.Stage(stageID)
	if !ok {
		return nil, false
	}
	nodes := make([]RenderNode, len(st.Components))
	for i, c := range st.Components {
		nodes[i] = RenderNode{
			ID:          c.ID,
			Type:        c.Type,
			Content:     c.Content,
			Style:       c.Style,
			Placeholder: !KnownComponentType(c.Type),
		}
	}
	return nodes, true
}
