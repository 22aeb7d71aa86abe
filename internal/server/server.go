// Package server exposes change requests over HTTP. Requests are accepted
// immediately and run in the background; their outcome lands in history.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/alanmeadows/prwright/internal/history"
	"github.com/alanmeadows/prwright/internal/pr"
	"github.com/alanmeadows/prwright/internal/request"
	"golang.org/x/sync/errgroup"
)

// Dispatcher runs change requests in two phases so the caller can learn the
// request time before the work starts.
type Dispatcher interface {
	Begin(req request.ChangeRequest) string
	Finish(ctx context.Context, requestTime string, req request.ChangeRequest) pr.Result
}

// HistoryLister lists recorded requests, newest first.
type HistoryLister interface {
	List() ([]history.Entry, error)
}

// Server holds the HTTP handlers and tracks requests still running.
type Server struct {
	dispatcher Dispatcher
	history    HistoryLister
	events     *hub
	started    time.Time

	mu      sync.Mutex
	baseCtx context.Context
	running sync.WaitGroup
}

// New creates a Server.
func New(dispatcher Dispatcher, history HistoryLister) *Server {
	return &Server{
		dispatcher: dispatcher,
		history:    history,
		events:     newHub(),
		started:    time.Now(),
		baseCtx:    context.Background(),
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("POST /requests", s.handleCreate)
	mux.HandleFunc("GET /events", s.handleEvents)
	return mux
}

// Wait blocks until every accepted request has finished.
func (s *Server) Wait() {
	s.running.Wait()
}

func (s *Server) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

// Run serves on port until ctx is cancelled, then shuts down and waits for
// accepted requests. Cancelling ctx also cancels those requests.
func (s *Server) Run(ctx context.Context, port int) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.started = time.Now()
	s.mu.Unlock()

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP server shutdown error", "error", err)
		}
		s.events.closeAll()
		return nil
	})

	err := g.Wait()
	s.Wait()
	return err
}
