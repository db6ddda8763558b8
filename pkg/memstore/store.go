// Package memstore provides a generic, thread-safe, in-memory collection used
// as the backing store for funnel editor state and captured analytics events.
// Items keep their insertion order, which makes listings and pagination
// deterministic, and the whole collection can be snapshotted to JSON and
// restored for seed files and state export.
package memstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Store is a generic, thread-safe, in-memory store for items of type T.
// T must marshal cleanly to JSON.
type Store[T any] struct {
	mu      sync.RWMutex
	items   map[string]T
	order   []string // insertion order, kept for deterministic listing
	prefix  string
	counter atomic.Uint64
}

// New creates an empty Store whose generated IDs carry the given prefix,
// e.g. "evt" yields "evt_000001".
func New[T any](prefix string) *Store[T] {
	return &Store[T]{
		items:  make(map[string]T),
		order:  make([]string, 0),
		prefix: prefix,
	}
}

// NextID returns the next sequential ID with the store's prefix.
func (s *Store[T]) NextID() string {
	n := s.counter.Add(1)
	return fmt.Sprintf("%s_%06d", s.prefix, n)
}

// Set stores an item under the given ID. Overwriting an existing ID keeps
// its original position in the insertion order.
func (s *Store[T]) Set(id string, item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; !exists {
		s.order = append(s.order, id)
	}
	s.items[id] = item
}

// Get returns the item for the given ID, and whether it exists.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// Delete removes an item. It reports whether the item existed.
func (s *Store[T]) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; !exists {
		return false
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns all items in insertion order. The returned slice is a copy;
// mutating it does not affect the store.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Count returns the number of stored items.
func (s *Store[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Filter returns the items matching the predicate, in insertion order.
func (s *Store[T]) Filter(predicate func(id string, item T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []T
	for _, id := range s.order {
		if predicate(id, s.items[id]) {
			out = append(out, s.items[id])
		}
	}
	return out
}

// Page is one page of a cursor-paginated listing.
type Page[T any] struct {
	Data    []T    `json:"data"`
	HasMore bool   `json:"has_more"`
	Cursor  string `json:"cursor,omitempty"`
	Total   int    `json:"total"`
}

// Paginate returns up to limit items after the cursor (the last ID already
// seen). An empty cursor starts from the beginning; limit <= 0 returns all.
func (s *Store[T]) Paginate(cursor string, limit int) Page[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if cursor != "" {
		for i, id := range s.order {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = len(s.order)
	}

	end := start + limit
	hasMore := false
	if end > len(s.order) {
		end = len(s.order)
	} else if end < len(s.order) {
		hasMore = true
	}

	data := make([]T, 0, end-start)
	var last string
	for i := start; i < end; i++ {
		data = append(data, s.items[s.order[i]])
		last = s.order[i]
	}

	return Page[T]{
		Data:    data,
		HasMore: hasMore,
		Cursor:  last,
		Total:   len(s.order),
	}
}

// Reset clears all items and resets the ID counter.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
	s.order = make([]string, 0)
	s.counter.Store(0)
}

// Snapshot returns all items as a JSON-serializable map keyed by ID.
func (s *Store[T]) Snapshot() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]T, len(s.items))
	for k, v := range s.items {
		snap[k] = v
	}
	return snap
}

// LoadSnapshot replaces the store contents from a map. IDs are sorted so the
// restored listing order is deterministic.
func (s *Store[T]) LoadSnapshot(snap map[string]T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T, len(snap))
	s.order = make([]string, 0, len(snap))
	for k, v := range snap {
		s.items[k] = v
		s.order = append(s.order, k)
	}
	sort.Strings(s.order)
}

// MarshalJSON serializes the store as its items map.
func (s *Store[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// UnmarshalJSON replaces the store contents from a JSON items map.
func (s *Store[T]) UnmarshalJSON(data []byte) error {
	var snap map[string]T
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	s.LoadSnapshot(snap)
	return nil
}
