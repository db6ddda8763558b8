package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/events"
	"github.com/giselegal/quiz-sell-genius-66-sub005/internal/funnel"
	"github.com/giselegal/quiz-sell-genius-66-sub005/pkg/webcore"
)

// captureRequest is the capture request body posted by quiz instrumentation.
type captureRequest struct {
	Event      string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Timestamp  int64          `json:"timestamp,omitempty"` // unix millis
	Properties map[string]any `json:"properties,omitempty"`
}

// batchRequest is the batch capture request body.
type batchRequest struct {
	Batch []captureRequest `json:"batch"`
}

// conversionEvents are the event types that trigger an outbound webhook.
var conversionEvents = map[string]bool{
	"lead_generated": true,
	"sale":           true,
}

// CaptureEvent handles POST /capture.
func (h *Handler) CaptureEvent(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webcore.JSON(w, http.StatusBadRequest, map[string]any{
			"status": 0,
			"error":  "Invalid request body: " + err.Error(),
		})
		return
	}

	evt, err := h.storeEvent(req)
	if err != nil {
		webcore.JSON(w, http.StatusBadRequest, map[string]any{
			"status": 0,
			"error":  "event field is required",
		})
		return
	}

	webcore.JSON(w, http.StatusOK, map[string]any{
		"status": 1,
		"uuid":   evt.UUID,
	})
}

// BatchCapture handles POST /batch. Events missing a type are skipped; the
// rest of the batch still lands.
func (h *Handler) BatchCapture(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webcore.JSON(w, http.StatusBadRequest, map[string]any{
			"status": 0,
			"error":  "Invalid request body: " + err.Error(),
		})
		return
	}

	stored := 0
	for _, item := range req.Batch {
		if _, err := h.storeEvent(item); err == nil {
			stored++
		}
	}

	webcore.JSON(w, http.StatusOK, map[string]any{
		"status": 1,
		"stored": stored,
	})
}

// storeEvent appends one event and fires the conversion webhook if the type
// warrants one.
func (h *Handler) storeEvent(req captureRequest) (events.Event, error) {
	evt, err := h.events.Append(events.Event{
		Type:       req.Event,
		DistinctID: req.DistinctID,
		Timestamp:  req.Timestamp,
		Props:      req.Properties,
	})
	if err != nil {
		return events.Event{}, err
	}

	if h.dispatcher != nil && conversionEvents[evt.Type] {
		h.dispatcher.Enqueue("funnel."+evt.Type, map[string]any{
			"uuid":        evt.UUID,
			"distinct_id": evt.DistinctID,
			"timestamp":   evt.Timestamp,
			"properties":  evt.Props,
		})
	}
	return evt, nil
}

// ListEvents handles GET /api/analytics/events.
// Query parameters: range (7d|30d|all), types (comma-separated, empty means
// no filter), cursor, limit.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	timeRange, err := funnel.ParseTimeRange(q.Get("range"))
	if err != nil {
		webcore.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var types []string
	if raw := q.Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
	}

	// Pagination applies to the raw log; filters apply to the page.
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			webcore.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}
	page := h.events.Page(q.Get("cursor"), limit)

	now := h.events.Clock().Now()
	filtered := funnel.FilterByTimeRange(page.Data, timeRange, now)
	filtered = funnel.FilterByType(filtered, types)

	webcore.JSON(w, http.StatusOK, map[string]any{
		"events":   filtered,
		"total":    page.Total,
		"has_more": page.HasMore,
		"cursor":   page.Cursor,
	})
}

// ClearEvents handles DELETE /api/analytics/events. This is the one
// destructive action in the analytics surface: it requires an explicit
// confirmation header, and once confirmed the outcome is always observable.
func (h *Handler) ClearEvents(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Confirm") != "clear-events" {
		webcore.Error(w, http.StatusPreconditionRequired, "set X-Confirm: clear-events to confirm")
		return
	}
	h.events.ClearAll()
	if h.refresher != nil {
		h.refresher.Refresh()
	}
	webcore.JSON(w, http.StatusOK, map[string]any{
		"status":    "cleared",
		"remaining": h.events.Count(),
	})
}

// GetFunnel handles GET /api/analytics/funnel.
func (h *Handler) GetFunnel(w http.ResponseWriter, r *http.Request) {
	timeRange, err := funnel.ParseTimeRange(r.URL.Query().Get("range"))
	if err != nil {
		webcore.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.events.Clock().Now()
	filtered := funnel.FilterByTimeRange(h.events.All(), timeRange, now)

	steps, err := funnel.ComputeFunnel(filtered, funnel.DefaultSteps())
	if err != nil {
		webcore.Error(w, http.StatusInternalServerError, "funnel computation failed: "+err.Error())
		return
	}

	resp := map[string]any{
		"range":              string(timeRange),
		"steps":              steps,
		"overall_conversion": funnel.OverallConversionRate(steps),
	}
	if b, ok := funnel.FindBottleneck(steps); ok {
		resp["bottleneck"] = b
	}
	webcore.JSON(w, http.StatusOK, resp)
}

// GetSummary handles GET /api/analytics/summary, serving the periodically
// refreshed overview.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		webcore.Error(w, http.StatusServiceUnavailable, "analytics refresher not running")
		return
	}
	webcore.JSON(w, http.StatusOK, h.refresher.Summary())
}
