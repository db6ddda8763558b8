package memstore

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// testItem is a simple struct used throughout store tests.
type testItem struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestNew(t *testing.T) {
	s := New[testItem]("evt")
	if s == nil {
		t.Fatal("expected non-nil store")
	}
	if s.Count() != 0 {
		t.Errorf("expected empty store, got count %d", s.Count())
	}
}

func TestNextID(t *testing.T) {
	s := New[testItem]("evt")
	id1 := s.NextID()
	id2 := s.NextID()

	if id1 != "evt_000001" {
		t.Errorf("expected evt_000001, got %s", id1)
	}
	if id2 != "evt_000002" {
		t.Errorf("expected evt_000002, got %s", id2)
	}
}

func TestSetAndGet(t *testing.T) {
	s := New[testItem]("item")
	s.Set("item_000001", testItem{Name: "alpha", Value: 1})

	got, ok := s.Get("item_000001")
	if !ok {
		t.Fatal("expected item to be found")
	}
	if got.Name != "alpha" || got.Value != 1 {
		t.Errorf("unexpected item: %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	s := New[testItem]("item")
	if _, ok := s.Get("nonexistent"); ok {
		t.Error("expected ok=false for missing item")
	}
}

func TestSetOverwrite(t *testing.T) {
	s := New[testItem]("item")
	s.Set("id1", testItem{Name: "first", Value: 1})
	s.Set("id1", testItem{Name: "second", Value: 2})

	got, _ := s.Get("id1")
	if got.Name != "second" {
		t.Errorf("expected overwritten item, got %+v", got)
	}
	// Overwrite should not add a duplicate entry to order.
	if s.Count() != 1 {
		t.Errorf("expected count 1 after overwrite, got %d", s.Count())
	}
}

func TestDelete(t *testing.T) {
	s := New[testItem]("item")
	s.Set("id1", testItem{Name: "a"})

	if !s.Delete("id1") {
		t.Error("expected delete to report true")
	}
	if s.Delete("id1") {
		t.Error("expected second delete to report false")
	}
	if s.Count() != 0 {
		t.Errorf("expected empty store after delete, got %d", s.Count())
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	s := New[testItem]("item")
	s.Set("c", testItem{Name: "third"})
	s.Set("a", testItem{Name: "first"})
	s.Set("b", testItem{Name: "second"})

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 items, got %d", len(list))
	}
	want := []string{"third", "first", "second"}
	for i, item := range list {
		if item.Name != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], item.Name)
		}
	}
}

func TestListReturnsCopy(t *testing.T) {
	s := New[testItem]("item")
	s.Set("id1", testItem{Name: "a", Value: 1})

	list := s.List()
	list[0].Value = 99

	got, _ := s.Get("id1")
	if got.Value != 1 {
		t.Errorf("mutation of listed slice leaked into store: %+v", got)
	}
}

func TestFilter(t *testing.T) {
	s := New[testItem]("item")
	s.Set("id1", testItem{Name: "a", Value: 1})
	s.Set("id2", testItem{Name: "b", Value: 2})
	s.Set("id3", testItem{Name: "c", Value: 3})

	got := s.Filter(func(id string, item testItem) bool {
		return item.Value >= 2
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].Name != "b" || got[1].Name != "c" {
		t.Errorf("unexpected filter result order: %+v", got)
	}
}

func TestPaginate(t *testing.T) {
	s := New[testItem]("item")
	for i := 1; i <= 5; i++ {
		id := s.NextID()
		s.Set(id, testItem{Value: i})
	}

	page := s.Paginate("", 2)
	if len(page.Data) != 2 || page.Data[0].Value != 1 {
		t.Fatalf("unexpected first page: %+v", page.Data)
	}
	if !page.HasMore {
		t.Error("expected has_more on first page")
	}
	if page.Total != 5 {
		t.Errorf("expected total 5, got %d", page.Total)
	}

	page = s.Paginate(page.Cursor, 2)
	if len(page.Data) != 2 || page.Data[0].Value != 3 {
		t.Fatalf("unexpected second page: %+v", page.Data)
	}

	page = s.Paginate(page.Cursor, 2)
	if len(page.Data) != 1 || page.Data[0].Value != 5 {
		t.Fatalf("unexpected last page: %+v", page.Data)
	}
	if page.HasMore {
		t.Error("expected has_more=false on last page")
	}
}

func TestPaginateNoLimitReturnsAll(t *testing.T) {
	s := New[testItem]("item")
	for i := 0; i < 3; i++ {
		s.Set(s.NextID(), testItem{Value: i})
	}
	page := s.Paginate("", 0)
	if len(page.Data) != 3 {
		t.Errorf("expected all items without limit, got %d", len(page.Data))
	}
}

func TestReset(t *testing.T) {
	s := New[testItem]("item")
	s.Set(s.NextID(), testItem{Name: "a"})
	s.Reset()

	if s.Count() != 0 {
		t.Errorf("expected empty store after reset, got %d", s.Count())
	}
	if id := s.NextID(); id != "item_000001" {
		t.Errorf("expected ID counter reset, got %s", id)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New[testItem]("item")
	s.Set("id2", testItem{Name: "b", Value: 2})
	s.Set("id1", testItem{Name: "a", Value: 1})

	snap := s.Snapshot()

	restored := New[testItem]("item")
	restored.LoadSnapshot(snap)

	if restored.Count() != 2 {
		t.Fatalf("expected 2 items restored, got %d", restored.Count())
	}
	// LoadSnapshot sorts IDs so the restored listing is deterministic.
	list := restored.List()
	if list[0].Name != "a" || list[1].Name != "b" {
		t.Errorf("expected sorted restore order, got %+v", list)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := New[testItem]("item")
	s.Set("id1", testItem{Name: "a", Value: 1})

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	restored := New[testItem]("item")
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	got, ok := restored.Get("id1")
	if !ok || got.Name != "a" {
		t.Errorf("unexpected restored item: %+v ok=%v", got, ok)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New[testItem]("item")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := s.NextID()
			s.Set(id, testItem{Value: 1})
			s.Get(id)
			s.List()
			s.Count()
		}()
	}
	wg.Wait()

	if s.Count() != 20 {
		t.Errorf("expected 20 items after concurrent writes, got %d", s.Count())
	}
}

func TestClockAdvance(t *testing.T) {
	c := NewClock()
	before := c.Now()
	c.Advance(24 * time.Hour)
	after := c.Now()

	if diff := after.Sub(before); diff < 23*time.Hour {
		t.Errorf("expected ~24h advance, got %v", diff)
	}
	if c.Offset() != 24*time.Hour {
		t.Errorf("expected 24h offset, got %v", c.Offset())
	}

	c.Reset()
	if c.Offset() != 0 {
		t.Errorf("expected zero offset after reset, got %v", c.Offset())
	}
}

func TestClockNowMillis(t *testing.T) {
	c := NewClock()
	ms := c.NowMillis()
	if got := time.Now().UnixMilli(); got-ms > 1000 || ms-got > 1000 {
		t.Errorf("NowMillis too far from wall clock: %d vs %d", ms, got)
	}
}
