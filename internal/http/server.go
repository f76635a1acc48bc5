package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/events"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/store"
)

// Options configures the API server.
type Options struct {
	Addr              string
	RequestTimeout    time.Duration
	RequestsPerMinute int
	DashboardCacheTTL time.Duration
}

// Server serves the JSON API. Dashboard responses are cached; any record
// change purges the cache so views never show stale aggregates.
type Server struct {
	http.Server

	store      *store.Store
	agg        *metrics.Aggregator
	thresholds metrics.Thresholds
	now        func() time.Time

	dashCache *cache.LRUCache[[]byte]
	caches    *cache.Manager
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	slogger   *applog.StructuredLogger

	requestTimeout time.Duration
	unsubscribe    func()
	shutdownOnce   sync.Once
}

// NewServer wires routes, middleware, and the change-driven cache
// invalidation, returning a ready-to-run server.
func NewServer(opts Options, st *store.Store, agg *metrics.Aggregator) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.DashboardCacheTTL <= 0 {
		opts.DashboardCacheTTL = 30 * time.Second
	}

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentHTTP,
	})

	s := &Server{
		store:          st,
		agg:            agg,
		thresholds:     metrics.DefaultThresholds(),
		now:            time.Now,
		dashCache:      cache.NewLRUCache[[]byte](16, opts.DashboardCacheTTL),
		caches:         cache.NewManager(),
		limiter:        ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		tracer:         trace.NewMiddleware(),
		slogger:        applog.NewStructuredLogger(logger),
		requestTimeout: opts.RequestTimeout,
	}

	s.caches.Register(s.dashCache)
	s.caches.StartCleanup(opts.DashboardCacheTTL)

	// Any mutation, local or from another process, invalidates cached
	// dashboard payloads.
	s.unsubscribe = st.Bus().Subscribe(func(c events.Change) {
		s.dashCache.Purge()
		s.slogger.LogRecordMutation(context.Background(), string(c.Op), string(c.Kind), c.ID)
	})

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/transactions/on", s.handleTransactionsOn)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/incomes", s.handleListIncomes)
	mux.HandleFunc("POST /api/incomes", s.handleCreateIncome)
	mux.HandleFunc("PUT /api/incomes/{id}", s.handleUpdateIncome)
	mux.HandleFunc("DELETE /api/incomes/{id}", s.handleDeleteIncome)

	mux.HandleFunc("GET /api/credit-cards", s.handleListCreditCards)
	mux.HandleFunc("POST /api/credit-cards", s.handleCreateCreditCard)
	mux.HandleFunc("PUT /api/credit-cards/{id}", s.handleUpdateCreditCard)
	mux.HandleFunc("DELETE /api/credit-cards/{id}", s.handleDeleteCreditCard)

	mux.HandleFunc("GET /api/loans", s.handleListLoans)
	mux.HandleFunc("POST /api/loans", s.handleCreateLoan)
	mux.HandleFunc("PUT /api/loans/{id}", s.handleUpdateLoan)
	mux.HandleFunc("DELETE /api/loans/{id}", s.handleDeleteLoan)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("PUT /api/goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /api/filters", s.handleGetFilters)
	mux.HandleFunc("PUT /api/filters", s.handleSetFilters)
	mux.HandleFunc("DELETE /api/filters", s.handleResetFilters)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	handler := s.withRequestTimeout(mux)
	handler = s.limitMutations(handler)
	handler = s.logRequests(handler)
	handler = applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = applog.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// limitMutations rate-limits writes per client; reads pass through.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(clientIP, nil)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			limited.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		s.slogger.LogHTTPStart(r.Context(), r, ip)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := s.now()
		next.ServeHTTP(rec, r)

		s.slogger.LogHTTPEnd(r.Context(), r, rec.status, time.Since(start).Milliseconds(), ip)
	})
}

func (s *Server) withRequestTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Shutdown stops the HTTP server and detaches from the change bus.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// emptyList keeps JSON array responses as [] instead of null.
func emptyList[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
