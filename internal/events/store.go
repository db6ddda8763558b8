// Package events implements the append-only analytics event log. Events come
// in through the capture endpoints, live in memory for aggregation, and are
// journaled to a JSON file on a best-effort basis: a missing or corrupt
// journal loads as empty with a logged warning, and a failed write never
// propagates to the capture caller.
package events

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/giselegal/quiz-sell-genius-66-sub005/pkg/memstore"
)

// ErrMissingType marks an event appended without a type.
var ErrMissingType = errors.New("event type is required")

// Event is one analytics event. Timestamp is Unix milliseconds.
type Event struct {
	UUID       string         `json:"uuid"`
	Type       string         `json:"type"`
	DistinctID string         `json:"distinct_id,omitempty"`
	Timestamp  int64          `json:"timestamp"`
	Props      map[string]any `json:"properties,omitempty"`
}

// Store is the append-only event log.
type Store struct {
	log    *memstore.Store[Event]
	clock  *memstore.Clock
	logger *slog.Logger

	mu          sync.Mutex // serializes journal writes
	journalPath string     // empty disables journaling
}

// NewStore creates an event store. journalPath may be empty to keep events
// in memory only (tests, ephemeral sessions).
func NewStore(journalPath string, clock *memstore.Clock, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		log:         memstore.New[Event]("evt"),
		clock:       clock,
		logger:      logger,
		journalPath: journalPath,
	}
}

// Clock returns the clock events are timestamped with.
func (s *Store) Clock() *memstore.Clock {
	return s.clock
}

// Append validates and stores an event. A missing timestamp is filled from
// the clock; a missing UUID is generated. The journal write is best-effort.
func (s *Store) Append(e Event) (Event, error) {
	if e.Type == "" {
		return Event{}, ErrMissingType
	}
	if e.Timestamp == 0 {
		e.Timestamp = s.clock.NowMillis()
	}
	if e.UUID == "" {
		e.UUID = uuid.NewString()
	}
	s.log.Set(s.log.NextID(), e)
	s.persist()
	return e, nil
}

// All returns a copy of the full event log in append order.
func (s *Store) All() []Event {
	list := s.log.List()
	out := make([]Event, len(list))
	for i, e := range list {
		out[i] = cloneEvent(e)
	}
	return out
}

// Page returns one cursor-paginated page of the log in append order.
func (s *Store) Page(cursor string, limit int) memstore.Page[Event] {
	return s.log.Paginate(cursor, limit)
}

// Count returns the number of stored events.
func (s *Store) Count() int {
	return s.log.Count()
}

// ClearAll empties the log and truncates the journal. Irreversible.
func (s *Store) ClearAll() {
	s.log.Reset()
	s.persist()
}

// Load reads the journal into memory, replacing current contents. Unreadable
// or corrupt journals load as an empty log with a logged warning.
func (s *Store) Load() {
	if s.journalPath == "" {
		return
	}
	data, err := os.ReadFile(s.journalPath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("event journal unreadable, starting empty", "path", s.journalPath, "err", err)
		}
		return
	}
	var list []Event
	if err := json.Unmarshal(data, &list); err != nil {
		s.logger.Warn("event journal corrupt, starting empty", "path", s.journalPath, "err", err)
		return
	}
	s.log.Reset()
	for _, e := range list {
		s.log.Set(s.log.NextID(), e)
	}
}

// Snapshot returns the event log for admin state export.
func (s *Store) Snapshot() []Event {
	return s.All()
}

// LoadSnapshot replaces the event log from an admin state import.
func (s *Store) LoadSnapshot(list []Event) {
	s.log.Reset()
	for _, e := range list {
		s.log.Set(s.log.NextID(), e)
	}
	s.persist()
}

// persist writes the full log to the journal via a temp file and rename.
// Failures are logged, never returned; capture must not fail because the
// disk did.
func (s *Store) persist() {
	if s.journalPath == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(s.log.List())
	if err != nil {
		s.logger.Warn("event journal marshal failed", "err", err)
		return
	}
	dir := filepath.Dir(s.journalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Warn("event journal dir create failed", "path", dir, "err", err)
		return
	}
	tmp := s.journalPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.Warn("event journal write failed", "path", tmp, "err", err)
		return
	}
	if err := os.Rename(tmp, s.journalPath); err != nil {
		s.logger.Warn("event journal rename failed", "path", s.journalPath, "err", err)
	}
}

func cloneEvent(e Event) Event {
	out := e
	if e.Props != nil {
		out.Props = make(map[string]any, len(e.Props))
		for k, v := range e.Props {
			out.Props[k] = v
		}
	}
	return out
}
