package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanmeadows/prwright/internal/history"
	"github.com/alanmeadows/prwright/internal/request"
)

// ActionCreatePR is the only action POST /requests accepts.
const ActionCreatePR = "createPrWithAI"

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// CreateRequest is the JSON body for POST /requests.
type CreateRequest struct {
	Action      string `json:"action"`
	Prompt      string `json:"prompt"`
	ActiveURL   string `json:"activeUrl"`
	ChangeScope string `json:"changeScope"`
}

// AcceptedResponse is the JSON response for an accepted request.
type AcceptedResponse struct {
	Status      string `json:"status"`
	RequestTime string `json:"request_time"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response failed", "error", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, StatusResponse{
		Status: "running",
		Uptime: time.Since(started).Round(time.Second).String(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var body CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Action != ActionCreatePR {
		http.Error(w, "unsupported action", http.StatusBadRequest)
		return
	}

	req := request.ChangeRequest{
		Prompt:       body.Prompt,
		ReferenceURL: body.ActiveURL,
		Scope:        request.ParseScope(body.ChangeScope),
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	requestTime := s.dispatcher.Begin(req)

	ctx := s.context()
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		// Subscriber writes may stall for up to eventWriteTimeout each.
		s.events.broadcast(EventRequestAccepted, AcceptedPayload{
			RequestTime: requestTime,
			Prompt:      req.Prompt,
			ActiveURL:   req.ReferenceURL,
			Scope:       string(req.Scope),
		})
		res := s.dispatcher.Finish(ctx, requestTime, req)
		s.events.broadcast(EventRequestFinished, FinishedPayload{RequestTime: requestTime, Result: res})
	}()

	slog.Info("request accepted", "requestTime", requestTime, "scope", req.Scope)
	writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted", RequestTime: requestTime})
}
