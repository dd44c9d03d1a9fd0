// Package http exposes ledger sessions as a JSON API. The owner of every
// /v1 request comes from the X-Ledger-Owner header.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/trace"
)

// OwnerHeader names the ledger a request operates on.
const OwnerHeader = "X-Ledger-Owner"

type Server struct {
	http.Server
	sessions     *Sessions
	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server. The
// limiter applies to /v1 routes only and is stopped by Shutdown.
func NewServer(addr string, sessions *Sessions, limiter *ratelimit.Limiter, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		sessions: sessions,
		limiter:  limiter,
		tracer:   trace.NewMiddleware(trace.ClientIP, logger),
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /v1/transactions", s.handleListTransactions)
	api.HandleFunc("POST /v1/transactions", s.handleCreateTransaction)
	api.HandleFunc("GET /v1/transactions/{id}", s.handleGetTransaction)
	api.HandleFunc("PUT /v1/transactions/{id}", s.handleEditTransaction)
	api.HandleFunc("DELETE /v1/transactions/{id}", s.handleDeleteTransaction)
	api.HandleFunc("POST /v1/undo", s.handleUndo)
	api.HandleFunc("POST /v1/redo", s.handleRedo)
	api.HandleFunc("GET /v1/recurring", s.handleListRecurring)
	api.HandleFunc("POST /v1/recurring", s.handleEnqueueRecurring)
	api.HandleFunc("POST /v1/recurring/pay-next", s.handlePayNextRecurring)
	api.HandleFunc("GET /v1/categories", s.handleCategories)
	api.HandleFunc("GET /v1/categories/{name}", s.handleCategory)
	api.HandleFunc("GET /v1/graph", s.handleGraph)
	api.HandleFunc("GET /v1/summary", s.handleSummary)

	var v1 http.Handler = api
	if limiter != nil {
		v1 = limiter.Middleware(trace.ClientIP, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		})(api)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("/v1/", v1)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type healthResponse struct {
	Status    string             `json:"status"`
	Sessions  int                `json:"sessions"`
	Requests  trace.Metrics      `json:"requests"`
	RateLimit *ratelimit.Metrics `json:"rate_limit,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Sessions: s.sessions.Len(),
		Requests: s.tracer.GetMetrics(),
	}
	if s.limiter != nil {
		m := s.limiter.GetMetrics()
		resp.RateLimit = &m
	}
	writeJSON(w, http.StatusOK, resp)
}
