package editor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store is the single source of truth for the stage/component tree. All
// mutations go through its methods; every mutation holds the lock for its
// whole duration, so multi-step operations like MoveComponent are atomic
// from the perspective of any reader.
//
// Operations on missing IDs are no-ops that report not-applied; they never
// corrupt existing state.
type Store struct {
	mu            sync.RWMutex
	stages        []Stage           // sorted ascending by Order, orders dense 0..n-1
	owner         map[string]string // component ID -> owning stage ID
	activeStageID string
	sel           Selection
}

// NewStore creates an empty tree store.
func NewStore() *Store {
	return &Store{
		owner: make(map[string]string),
		sel:   Selection{Focus: FocusNone},
	}
}

// NewStoreWith creates a store preloaded with the given stages.
// It panics if the stages are internally inconsistent; use Replace to load
// untrusted input.
func NewStoreWith(stages []Stage) *Store {
	s := NewStore()
	if err := s.Replace(stages); err != nil {
		panic(fmt.Sprintf("editor: invalid initial stages: %v", err))
	}
	return s
}

// stageIndex returns the index of the stage with the given ID, or -1.
// Caller must hold the lock.
func (s *Store) stageIndex(id string) int {
	for i := range s.stages {
		if s.stages[i].ID == id {
			return i
		}
	}
	return -1
}

// resequenceStages renumbers stage orders to dense 0..n-1 following the
// current slice order. Caller must hold the lock.
func (s *Store) resequenceStages() {
	for i := range s.stages {
		s.stages[i].Order = i
	}
}

// resequenceComponents renumbers component orders within a stage and fixes
// their stage back-references. Caller must hold the lock.
func (s *Store) resequenceComponents(st *Stage) {
	for i := range st.Components {
		st.Components[i].Order = i
		st.Components[i].StageID = st.ID
	}
}

// AddStage inserts a stage and returns the stored copy. A stage whose Order
// collides with an existing one lands immediately after it. An empty ID gets
// a generated one; a duplicate ID is not applied. The first stage added to an
// empty tree becomes active.
func (s *Store) AddStage(st Stage) (Stage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.ID == "" {
		st.ID = uuid.NewString()
	} else if s.stageIndex(st.ID) >= 0 {
		return Stage{}, false
	}

	st = cloneStage(st)
	if st.Components == nil {
		st.Components = []Component{}
	}
	for i := range st.Components {
		c := &st.Components[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if _, taken := s.owner[c.ID]; taken {
			return Stage{}, false
		}
	}

	// Insert after every stage with Order <= the requested order, so equal
	// orders keep insertion time as the tie-break.
	pos := len(s.stages)
	for i := range s.stages {
		if s.stages[i].Order > st.Order {
			pos = i
			break
		}
	}
	s.stages = append(s.stages, Stage{})
	copy(s.stages[pos+1:], s.stages[pos:])
	s.stages[pos] = st

	s.resequenceStages()
	s.resequenceComponents(&s.stages[pos])
	for _, c := range s.stages[pos].Components {
		s.owner[c.ID] = st.ID
	}

	if s.activeStageID == "" {
		s.activeStageID = st.ID
	}
	return cloneStage(s.stages[pos]), true
}

// UpdateStage shallow-merges a patch into the stage. It reports whether the
// update applied.
func (s *Store) UpdateStage(id string, patch StagePatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.stageIndex(id)
	if idx < 0 {
		return false
	}
	st := &s.stages[idx]
	if patch.Name != nil {
		st.Name = *patch.Name
	}
	if patch.Type != nil {
		st.Type = *patch.Type
	}
	if patch.Settings != nil {
		merged := copyBag(st.Settings)
		if merged == nil {
			merged = make(map[string]any, len(patch.Settings))
		}
		for k, v := range patch.Settings {
			merged[k] = v
		}
		st.Settings = merged
	}
	return true
}

// DeleteStage removes a stage and all of its components. If the deleted
// stage was active, the first remaining stage by order becomes active, or
// none if the tree is empty.
func (s *Store) DeleteStage(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.stageIndex(id)
	if idx < 0 {
		return false
	}
	for _, c := range s.stages[idx].Components {
		delete(s.owner, c.ID)
		if s.sel.ComponentID == c.ID {
			s.sel = Selection{Focus: FocusNone}
		}
	}
	if s.sel.StageID == id {
		s.sel = Selection{Focus: FocusNone}
	}

	s.stages = append(s.stages[:idx], s.stages[idx+1:]...)
	s.resequenceStages()

	if s.activeStageID == id {
		if len(s.stages) > 0 {
			s.activeStageID = s.stages[0].ID
		} else {
			s.activeStageID = ""
		}
	}
	return true
}

// MoveStage repositions a stage to targetIndex, clamped to valid bounds.
func (s *Store) MoveStage(id string, targetIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.stageIndex(id)
	if idx < 0 {
		return false
	}
	if targetIndex < 0 {
		targetIndex = 0
	}
	if targetIndex > len(s.stages)-1 {
		targetIndex = len(s.stages) - 1
	}
	st := s.stages[idx]
	s.stages = append(s.stages[:idx], s.stages[idx+1:]...)
	s.stages = append(s.stages, Stage{})
	copy(s.stages[targetIndex+1:], s.stages[targetIndex:])
	s.stages[targetIndex] = st
	s.resequenceStages()
	return true
}

// AddComponent appends a component to the stage, or inserts it at the given
// index when one is provided. It reports not-applied when the stage does not
// exist or the component ID is already taken elsewhere in the tree.
func (s *Store) AddComponent(stageID string, c Component, index *int) (Component, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.stageIndex(stageID)
	if idx < 0 {
		return Component{}, false
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	} else if _, taken := s.owner[c.ID]; taken {
		return Component{}, false
	}

	c = cloneComponent(c)
	st := &s.stages[idx]

	pos := len(st.Components)
	if index != nil {
		pos = clamp(*index, 0, len(st.Components))
	}
	st.Components = append(st.Components, Component{})
	copy(st.Components[pos+1:], st.Components[pos:])
	st.Components[pos] = c
	s.resequenceComponents(st)
	s.owner[c.ID] = st.ID

	return cloneComponent(st.Components[pos]), true
}

// UpdateComponent shallow-merges a patch into the component's content and
// style bags. Each patch produces fresh maps; prior snapshots are unaffected.
func (s *Store) UpdateComponent(stageID, componentID string, patch ComponentPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.stageIndex(stageID)
	if idx < 0 {
		return false
	}
	st := &s.stages[idx]
	for i := range st.Components {
		c := &st.Components[i]
		if c.ID != componentID {
			continue
		}
		if patch.Type != nil {
			c.Type = *patch.Type
		}
		if patch.Content != nil {
			c.Content = mergeBag(c.Content, patch.Content)
		}
		if patch.Style != nil {
			c.Style = mergeBag(c.Style, patch.Style)
		}
		return true
	}
	return false
}

// DeleteComponent removes a component from the stage. If it was the selected
// component, the selection becomes none.
func (s *Store) DeleteComponent(stageID, componentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.stageIndex(stageID)
	if idx < 0 {
		return false
	}
	st := &s.stages[idx]
	for i := range st.Components {
		if st.Components[i].ID != componentID {
			continue
		}
		st.Components = append(st.Components[:i], st.Components[i+1:]...)
		s.resequenceComponents(st)
		delete(s.owner, componentID)
		if s.sel.ComponentID == componentID {
			s.sel = Selection{Focus: FocusNone}
		}
		return true
	}
	return false
}

// MoveComponent moves a component to targetStageID at targetIndex (clamped).
// The remove-then-insert is one atomic step; no reader can observe the
// component in zero or two stages.
func (s *Store) MoveComponent(componentID, targetStageID string, targetIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sourceID, ok := s.owner[componentID]
	if !ok {
		return false
	}
	srcIdx := s.stageIndex(sourceID)
	dstIdx := s.stageIndex(targetStageID)
	if srcIdx < 0 || dstIdx < 0 {
		return false
	}

	src := &s.stages[srcIdx]
	var moved Component
	found := false
	for i := range src.Components {
		if src.Components[i].ID == componentID {
			moved = src.Components[i]
			src.Components = append(src.Components[:i], src.Components[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return false
	}
	s.resequenceComponents(src)

	dst := &s.stages[dstIdx]
	pos := clamp(targetIndex, 0, len(dst.Components))
	dst.Components = append(dst.Components, Component{})
	copy(dst.Components[pos+1:], dst.Components[pos:])
	dst.Components[pos] = moved
	s.resequenceComponents(dst)
	s.owner[componentID] = dst.ID

	return true
}

// SelectComponent focuses the component properties panel on the given
// component. An empty ID clears the selection; an unknown ID is not applied.
func (s *Store) SelectComponent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		s.sel = Selection{Focus: FocusNone}
		return true
	}
	stageID, ok := s.owner[id]
	if !ok {
		return false
	}
	s.sel = Selection{ComponentID: id, StageID: stageID, Focus: FocusComponent}
	return true
}

// SelectStage focuses the stage properties panel on the given stage,
// clearing any component focus. An empty ID clears the selection.
func (s *Store) SelectStage(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		s.sel = Selection{Focus: FocusNone}
		return true
	}
	if s.stageIndex(id) < 0 {
		return false
	}
	s.sel = Selection{StageID: id, Focus: FocusStage}
	return true
}

// Selection returns the current selection.
func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sel
}

// SetActiveStage makes the given stage the one being edited.
func (s *Store) SetActiveStage(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stageIndex(id) < 0 {
		return false
	}
	s.activeStageID = id
	return true
}

// ActiveStageID returns the active stage ID, or "" when the tree is empty.
func (s *Store) ActiveStageID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeStageID
}

// Stage returns a copy of the stage with the given ID.
func (s *Store) Stage(id string) (Stage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.stageIndex(id)
	if idx < 0 {
		return Stage{}, false
	}
	return cloneStage(s.stages[idx]), true
}

// Stages returns a copy of all stages in ascending order.
func (s *Store) Stages() []Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Stage, len(s.stages))
	for i, st := range s.stages {
		out[i] = cloneStage(st)
	}
	return out
}

// Replace validates and atomically installs a new tree, clearing the
// selection and making the first stage active. On error the current tree is
// left unchanged.
func (s *Store) Replace(stages []Stage) error {
	next := make([]Stage, len(stages))
	owner := make(map[string]string)
	seenStages := make(map[string]bool, len(stages))

	for i, st := range stages {
		if st.ID == "" {
			return fmt.Errorf("stage %d: missing id", i)
		}
		if seenStages[st.ID] {
			return fmt.Errorf("duplicate stage id %q", st.ID)
		}
		seenStages[st.ID] = true
		cloned := cloneStage(st)
		if cloned.Components == nil {
			cloned.Components = []Component{}
		}
		for j, c := range cloned.Components {
			if c.ID == "" {
				return fmt.Errorf("stage %q component %d: missing id", st.ID, j)
			}
			if _, taken := owner[c.ID]; taken {
				return fmt.Errorf("duplicate component id %q", c.ID)
			}
			if c.StageID != "" && c.StageID != st.ID {
				return fmt.Errorf("component %q: stage_id %q does not match owning stage %q", c.ID, c.StageID, st.ID)
			}
			owner[c.ID] = st.ID
		}
		next[i] = cloned
	}

	// Order by the declared orders; equal orders break ties by ID so a
	// restored tree renders deterministically.
	sort.SliceStable(next, func(a, b int) bool {
		if next[a].Order != next[b].Order {
			return next[a].Order < next[b].Order
		}
		return next[a].ID < next[b].ID
	})
	for i := range next {
		st := &next[i]
		sort.SliceStable(st.Components, func(a, b int) bool {
			if st.Components[a].Order != st.Components[b].Order {
				return st.Components[a].Order < st.Components[b].Order
			}
			return st.Components[a].ID < st.Components[b].ID
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = next
	s.owner = owner
	s.resequenceStages()
	for i := range s.stages {
		s.resequenceComponents(&s.stages[i])
	}
	s.sel = Selection{Focus: FocusNone}
	if len(s.stages) > 0 {
		s.activeStageID = s.stages[0].ID
	} else {
		s.activeStageID = ""
	}
	return nil
}

func mergeBag(base, patch map[string]any) map[string]any {
	merged := copyBag(base)
	if merged == nil {
		merged = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
