package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestEnqueueAssignsSequentialIDs(t *testing.T) {
	d := NewDispatcher(Config{})
	e1 := d.Enqueue("funnel.lead_generated", map[string]any{"distinct_id": "u1"})
	e2 := d.Enqueue("funnel.sale", nil)

	if e1.ID != "whk_000001" || e2.ID != "whk_000002" {
		t.Errorf("unexpected IDs: %s, %s", e1.ID, e2.ID)
	}
	if len(d.QueuedEvents()) != 2 {
		t.Errorf("expected 2 queued events, got %d", len(d.QueuedEvents()))
	}
}

func TestFlushDeliversAndDrains(t *testing.T) {
	var received atomic.Int32
	var lastBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		lastBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(Config{URL: srv.URL})
	d.Enqueue("funnel.sale", map[string]any{"distinct_id": "u1"})

	if err := d.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if received.Load() != 1 {
		t.Errorf("expected 1 delivery, got %d", received.Load())
	}
	if len(d.QueuedEvents()) != 0 {
		t.Error("expected queue drained after flush")
	}

	var evt Event
	if err := json.Unmarshal(lastBody, &evt); err != nil {
		t.Fatalf("delivered body not an event: %v", err)
	}
	if evt.Type != "funnel.sale" {
		t.Errorf("expected funnel.sale, got %s", evt.Type)
	}
}

func TestFlushRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(Config{URL: srv.URL, MaxRetries: 3, RetryDelay: time.Millisecond})
	d.Enqueue("funnel.sale", nil)

	if err := d.Flush(); err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}

	dels := d.Deliveries()
	if len(dels) != 3 {
		t.Fatalf("expected 3 delivery records, got %d", len(dels))
	}
	if dels[2].StatusCode != 200 || dels[2].Attempt != 3 {
		t.Errorf("unexpected final delivery record: %+v", dels[2])
	}
}

func TestFlushExhaustedRetriesReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDispatcher(Config{URL: srv.URL, MaxRetries: 2, RetryDelay: time.Millisecond})
	d.Enqueue("funnel.sale", nil)

	if err := d.Flush(); err == nil {
		t.Error("expected error after exhausted retries")
	}
}

func TestFlushWithoutURLIsNoop(t *testing.T) {
	d := NewDispatcher(Config{})
	d.Enqueue("funnel.sale", nil)
	if err := d.Flush(); err != nil {
		t.Errorf("expected nil error without URL, got %v", err)
	}
}

func TestDeliverySignatureVerifies(t *testing.T) {
	const secret = "whsec_test"
	var header string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Funnel-Signature")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(Config{URL: srv.URL, Secret: secret, Signer: NewHMACSigner()})
	d.Enqueue("funnel.lead_generated", map[string]any{"distinct_id": "u1"})
	if err := d.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	if header == "" {
		t.Fatal("expected signature header on delivery")
	}
	// Header shape: t={ts},v1={sig}
	parts := strings.SplitN(header, ",", 2)
	if len(parts) != 2 || !strings.HasPrefix(parts[0], "t=") || !strings.HasPrefix(parts[1], "v1=") {
		t.Fatalf("unexpected header format: %s", header)
	}
	ts, err := strconv.ParseInt(strings.TrimPrefix(parts[0], "t="), 10, 64)
	if err != nil {
		t.Fatalf("bad timestamp in header: %v", err)
	}
	want := ComputeSignature(ts, body, secret)
	if got := strings.TrimPrefix(parts[1], "v1="); got != want {
		t.Errorf("signature mismatch: got %s want %s", got, want)
	}
}

func TestReset(t *testing.T) {
	d := NewDispatcher(Config{})
	d.Enqueue("funnel.sale", nil)
	d.Reset()

	if len(d.QueuedEvents()) != 0 || len(d.Deliveries()) != 0 {
		t.Error("expected empty dispatcher after reset")
	}
	if e := d.Enqueue("funnel.sale", nil); e.ID != "whk_000001" {
		t.Errorf("expected counter reset, got %s", e.ID)
	}
}
