// Package persist serializes the full editor state (stages + theme) to a
// storable blob and restores it. Decode distinguishes parse errors from
// shape-validation errors so the editor can report why an import was
// rejected; a failed import never touches existing state.
package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/editor"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/theme"
)

// Error kinds an import can fail with.
var (
	ErrParse = errors.New("state parse error")
	ErrShape = errors.New("state shape invalid")
)

// State is the persisted editor state. Selection is ephemeral and is
// deliberately not part of it.
type State struct {
	Stages    []editor.Stage `json:"stages"`
	Theme     theme.Theme    `json:"theme"`
	Timestamp int64          `json:"timestamp"`
}

// Encode serializes a state. Encode and Decode form an exact round-trip:
// Decode(Encode(s)) yields a state observably equal to s.
func Encode(s State) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Decode parses and validates a serialized state. Malformed JSON returns an
// error wrapping ErrParse; structurally valid JSON with an inconsistent tree
// or incomplete theme returns an error wrapping ErrShape.
func Decode(data []byte) (State, error) {
	var raw struct {
		Stages    *[]editor.Stage `json:"stages"`
		Theme     *theme.Theme    `json:"theme"`
		Timestamp int64           `json:"timestamp"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if raw.Stages == nil {
		return State{}, fmt.Errorf("%w: missing stages", ErrShape)
	}
	if raw.Theme == nil {
		return State{}, fmt.Errorf("%w: missing theme", ErrShape)
	}
	if err := theme.Validate(*raw.Theme); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrShape, err)
	}
	// Run the tree through a scratch store; Replace enforces unique IDs and
	// stage back-references without touching live state.
	scratch := editor.NewStore()
	if err := scratch.Replace(*raw.Stages); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrShape, err)
	}

	return State{
		Stages:    scratch.Stages(),
		Theme:     *raw.Theme,
		Timestamp: raw.Timestamp,
	}, nil
}

// SnapshotStore reads and writes the state snapshot file. Saves are
// fire-and-forget from the editor's perspective; failures are logged by the
// caller, not surfaced to the user.
type SnapshotStore struct {
	path   string
	logger *slog.Logger
}

// NewSnapshotStore creates a snapshot store at path. An empty path disables
// persistence.
func NewSnapshotStore(path string, logger *slog.Logger) *SnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStore{path: path, logger: logger}
}

// Save writes the state via a temp file and rename.
func (s *SnapshotStore) Save(st State) error {
	if s.path == "" {
		return nil
	}
	data, err := Encode(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("installing snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot. found is false when no snapshot exists; a
// snapshot that exists but does not decode returns the decode error so the
// caller can fall back to defaults with a logged warning.
func (s *SnapshotStore) Load() (st State, found bool, err error) {
	if s.path == "" {
		return State{}, false, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("reading snapshot: %w", err)
	}
	st, err = Decode(data)
	if err != nil {
		return State{}, true, err
	}
	return st, true, nil
}
