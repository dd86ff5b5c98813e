// Package http exposes the group ledger as a JSON API: group and member
// management, expense and income entry, balances with a planned transfer
// list, settlements and statistics.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vydaje/internal/cache"
	"vydaje/internal/log"
	"vydaje/internal/middleware/ratelimit"
	"vydaje/internal/middleware/security"
	"vydaje/internal/middleware/trace"
	"vydaje/internal/services"
	"vydaje/internal/storage"
)

// Server wires the services into an http.Server with tracing, rate
// limiting and security headers applied to every route.
type Server struct {
	http.Server

	groups *services.GroupService
	txs    *services.TransactionService
	store  storage.Store
	logger *log.Logger

	limiter *ratelimit.Limiter

	// balance responses per group, invalidated on every write
	balances *cache.LRU[balancesResponse]

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server listening on addr once ListenAndServe is called.
func NewServer(addr string, groups *services.GroupService, txs *services.TransactionService, store storage.Store, logger *log.Logger) *Server {
	s := &Server{
		groups:   groups,
		txs:      txs,
		store:    store,
		logger:   logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		balances: cache.NewLRU[balancesResponse](256, 30*time.Second),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /groups", s.handleCreateGroup)
	mux.HandleFunc("GET /groups", s.handleListGroups)
	mux.HandleFunc("GET /groups/{id}", s.handleGetGroup)
	mux.HandleFunc("DELETE /groups/{id}", s.handleDeleteGroup)
	mux.HandleFunc("POST /groups/{id}/clear", s.handleClearGroup)

	mux.HandleFunc("POST /groups/{id}/members", s.handleAddMember)
	mux.HandleFunc("DELETE /groups/{id}/members/{name}", s.handleRemoveMember)

	mux.HandleFunc("GET /groups/{id}/categories", s.handleListCategories)
	mux.HandleFunc("POST /groups/{id}/categories", s.handleAddCategory)
	mux.HandleFunc("DELETE /groups/{id}/categories/{name}", s.handleRemoveCategory)

	mux.HandleFunc("POST /groups/{id}/expenses", s.handleAddExpense)
	mux.HandleFunc("POST /groups/{id}/incomes", s.handleAddIncome)
	mux.HandleFunc("DELETE /groups/{id}/transactions/{txid}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /groups/{id}/balances", s.handleBalances)
	mux.HandleFunc("POST /groups/{id}/settlements", s.handleRecordSettlement)
	mux.HandleFunc("GET /groups/{id}/stats", s.handleStats)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(logger)

	handler := s.limitWrites(mux)
	handler = tracer.Handler(handler)
	handler = headers.Handler(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// limitWrites applies the per-IP limiter to mutating requests only; reads
// stay unthrottled.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && !s.limiter.Allow(trace.ClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RegisterCaches hands the server's caches to the sweep manager.
func (s *Server) RegisterCaches(m *cache.Manager) {
	m.Register(s.balances)
}

// Shutdown stops the rate limiter's cleanup goroutine and drains the HTTP
// server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// invalidateBalances drops the cached balance view after any write that
// could change it.
func (s *Server) invalidateBalances(groupID string) {
	s.balances.Delete(groupID)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("readiness probe failed", log.FieldError, err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
