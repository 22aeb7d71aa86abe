package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/alanmeadows/prwright/internal/history"
	"github.com/alanmeadows/prwright/internal/pr"
	"github.com/coder/websocket"
)

// Event types sent on /events.
const (
	EventHistory         = "history"
	EventRequestAccepted = "request_accepted"
	EventRequestFinished = "request_finished"
)

const eventWriteTimeout = 5 * time.Second

// Event is the envelope for every message sent to an event subscriber.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AcceptedPayload announces a request that started running.
type AcceptedPayload struct {
	RequestTime string `json:"request_time"`
	Prompt      string `json:"prompt"`
	ActiveURL   string `json:"activeUrl"`
	Scope       string `json:"scope"`
}

// FinishedPayload carries a request's outcome.
type FinishedPayload struct {
	RequestTime string    `json:"request_time"`
	Result      pr.Result `json:"result"`
}

type subscriber struct {
	conn *websocket.Conn
	ctx  context.Context
	mu   sync.Mutex // serializes writes
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithTimeout(s.ctx, eventWriteTimeout)
	defer cancel()
	return s.conn.Write(ctx, websocket.MessageText, data)
}

// hub fans request events out to websocket subscribers.
type hub struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
}

func newHub() *hub {
	return &hub{subs: make(map[int]*subscriber)}
}

func encodeEvent(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return json.Marshal(Event{Type: eventType, Payload: raw})
}

func (h *hub) broadcast(eventType string, payload any) {
	data, err := encodeEvent(eventType, payload)
	if err != nil {
		slog.Warn("dropping event", "type", eventType, "error", err)
		return
	}

	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.write(data); err != nil {
			slog.Debug("event write failed", "type", eventType, "error", err)
		}
	}
}

// closeAll disconnects every subscriber.
func (h *hub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		sub.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}

	ctx := r.Context()
	sub := &subscriber{conn: conn, ctx: ctx}

	entries, err := s.history.List()
	if err != nil {
		conn.Close(websocket.StatusInternalError, "history unavailable")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	data, err := encodeEvent(EventHistory, entries)
	if err == nil {
		err = sub.write(data)
	}
	if err != nil {
		conn.Close(websocket.StatusInternalError, "")
		return
	}

	s.events.mu.Lock()
	s.events.nextID++
	id := s.events.nextID
	s.events.subs[id] = sub
	s.events.mu.Unlock()
	slog.Info("event subscriber connected", "id", id, "remote", r.RemoteAddr)

	defer func() {
		s.events.mu.Lock()
		delete(s.events.subs, id)
		s.events.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
		slog.Info("event subscriber disconnected", "id", id)
	}()

	// Subscribers only listen; reading surfaces the close.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}
