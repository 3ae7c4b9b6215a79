// Package server exposes the operator API: a status endpoint, read-only
// journal queries, and the live event WebSocket.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/kizzybot/internal/domain"
	"github.com/alanyoungcy/kizzybot/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port   int
	APIKey string // empty disables authentication
}

// Stores are the optional read-only journal backends. Nil stores make their
// endpoints return 404.
type Stores struct {
	Bets   domain.BetStore
	Claims domain.ClaimStore
}

// Server is the operator HTTP + WebSocket API.
type Server struct {
	httpServer *http.Server
	stores     Stores
	startedAt  time.Time
	logger     *slog.Logger
}

// NewServer registers all routes and wires the WebSocket hub.
func NewServer(cfg Config, stores Stores, hub *ws.Hub, logger *slog.Logger) *Server {
	s := &Server{
		stores:    stores,
		startedAt: time.Now().UTC(),
		logger:    logger.With(slog.String("component", "server")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/bets", s.handleBets)
	mux.HandleFunc("GET /api/claims", s.handleClaims)
	if hub != nil {
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}

	var h http.Handler = mux
	h = auth(cfg.APIKey)(h)
	h = logging(logger)(h)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"started_at":     s.startedAt,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"journal":        s.stores.Bets != nil,
	})
}

func (s *Server) handleBets(w http.ResponseWriter, r *http.Request) {
	if s.stores.Bets == nil {
		http.NotFound(w, r)
		return
	}
	account, limit, ok := accountQuery(w, r)
	if !ok {
		return
	}
	bets, err := s.stores.Bets.ListByAccount(r.Context(), account, limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list bets failed", slog.String("error", err.Error()))
		http.Error(w, "journal query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, bets)
}

func (s *Server) handleClaims(w http.ResponseWriter, r *http.Request) {
	if s.stores.Claims == nil {
		http.NotFound(w, r)
		return
	}
	account, limit, ok := accountQuery(w, r)
	if !ok {
		return
	}
	claims, err := s.stores.Claims.ListByAccount(r.Context(), account, limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list claims failed", slog.String("error", err.Error()))
		http.Error(w, "journal query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

// accountQuery parses the account and limit query parameters shared by the
// journal endpoints.
func accountQuery(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	account := r.URL.Query().Get("account")
	if account == "" {
		http.Error(w, "account query parameter is required", http.StatusBadRequest)
		return "", 0, false
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			http.Error(w, "limit must be an integer in [1,1000]", http.StatusBadRequest)
			return "", 0, false
		}
		limit = n
	}
	return account, limit, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
