package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/feedr/feedr/internal/events"
)

// subscriber is one open change stream. Events are delivered over a buffered
// channel; a subscriber that falls behind loses events rather than blocking
// the publisher.
type subscriber struct {
	ownerID    string
	collection events.Collection // empty = all
	action     events.Action     // empty = all
	petID      string            // empty = all
	ch         chan events.ChangeEvent
}

func (s *subscriber) matches(ev events.ChangeEvent) bool {
	if ev.OwnerID != s.ownerID {
		return false
	}
	if s.collection != "" && ev.Collection != s.collection {
		return false
	}
	if s.action != "" && ev.Action != s.action {
		return false
	}
	if s.petID != "" && ev.PetID != s.petID {
		return false
	}
	return true
}

// Hub fans change events out to open streams. Every event is scoped to its
// owner; a stream never sees another user's records.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

// Publish delivers the event to every matching subscriber.
func (h *Hub) Publish(ev events.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if !sub.matches(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			// Slow consumer; drop rather than block.
		}
	}
}

func (h *Hub) add(sub *subscriber) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	return id
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// handleChanges streams change events as server-sent events. Filters come
// from query parameters: collection, action, pet_id. The stream stays open
// until the client disconnects.
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r.Context())

	sub := &subscriber{
		ownerID: user.UserID,
		petID:   r.URL.Query().Get("pet_id"),
		ch:      make(chan events.ChangeEvent, 64),
	}
	if v := r.URL.Query().Get("collection"); v != "" {
		c, ok := events.NormalizeCollection(v)
		if !ok {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("unknown collection %q", v))
			return
		}
		sub.collection = c
	}
	if v := r.URL.Query().Get("action"); v != "" {
		if !events.IsValidAction(v) {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("unknown action %q", v))
			return
		}
		sub.action = events.Action(v)
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	// Open the stream immediately so the client sees headers before the
	// first event.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	id := s.hub.add(sub)
	s.metrics.StreamOpened()
	defer func() {
		s.hub.remove(id)
		s.metrics.StreamClosed()
	}()

	keepalive := s.keepaliveTicker()
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev := <-sub.ch:
			data, err := json.Marshal(ev)
			if err != nil {
				logFor(r.Context()).Error("marshal change event", "err", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
