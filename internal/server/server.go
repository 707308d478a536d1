// Package server exposes the schedule engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/hueplan/internal/schedule"
)

// Server is the HTTP API for querying and refreshing the schedule cache.
type Server struct {
	addr       string
	cache      *schedule.Cache
	tz         *time.Location
	httpServer *http.Server
}

// New creates a new API server.
func New(host string, port int, cache *schedule.Cache, tz *time.Location) *Server {
	return &Server{
		addr:  fmt.Sprintf("%s:%d", host, port),
		cache: cache,
		tz:    tz,
	}
}

// Run starts the API server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/now", s.handleNow)
	mux.HandleFunc("/debug", s.handleDebug)
	mux.HandleFunc("/refresh", s.handleRefresh)
	mux.HandleFunc("/health", handleHealth)

	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: requestLogger(mux),
	}

	log.Info().Str("addr", s.addr).Msg("Starting API server")

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("API server shutdown error")
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

type nowResponse struct {
	Now          time.Time             `json:"now"`
	ChangeAction schedule.ChangeAction `json:"change_action"`
	JustUpdated  bool                  `json:"just_updated"`
}

// handleNow returns the blended action for the current instant, or for the
// instant given in the optional "at" query parameter (RFC 3339).
func (s *Server) handleNow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	instant := schedule.Now(s.tz)
	if at := r.URL.Query().Get("at"); at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid 'at' parameter: %w", err))
			return
		}
		instant = parsed.In(s.tz)
	}

	action, refreshed, err := s.cache.ActionAt(instant)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, nowResponse{
		Now:          instant,
		ChangeAction: action,
		JustUpdated:  refreshed,
	})
}

// handleDebug returns the full diagnostic view of the current query.
func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	snap, err := s.cache.Snapshot(schedule.Now(s.tz))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// handleRefresh unconditionally recomputes the daily schedule.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	if err := s.cache.ForceRefresh(schedule.Now(s.tz)); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"just_updated": true})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
