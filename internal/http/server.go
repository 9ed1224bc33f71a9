// Package http serves the cashflow web UI: dashboard, transaction CRUD,
// reports, and exports.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"cashflow/internal/auth"
	"cashflow/internal/backend"
	"cashflow/internal/cache"
	"cashflow/internal/core"
	"cashflow/internal/middleware/ratelimit"
	"cashflow/internal/middleware/security"
	"cashflow/internal/middleware/trace"
	"cashflow/internal/services"
	appweb "cashflow/web"
)

type Server struct {
	http.Server
	templates *template.Template

	backend backend.Backend
	ledger  *services.LedgerService
	jwt     *auth.JWTManager

	totalsCache  *cache.LRUCache[core.Totals]
	recentCache  *cache.LRUCache[[]core.Transaction]
	cacheManager *cache.Manager

	rateLimiter  *ratelimit.Limiter
	headers      *security.HeadersMiddleware
	tracer       *trace.Middleware
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, be backend.Backend, ledger *services.LedgerService, jwtManager *auth.JWTManager) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		backend:      be,
		ledger:       ledger,
		jwt:          jwtManager,
		totalsCache:  cache.NewLRUCache[core.Totals](10, 5*time.Minute),
		recentCache:  cache.NewLRUCache[[]core.Transaction](50, 5*time.Minute),
		cacheManager: cache.NewManager(),
		rateLimiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		headers:      security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		tracer:       trace.NewMiddleware(extractClientIP),
	}

	s.cacheManager.Register(s.totalsCache)
	s.cacheManager.Register(s.recentCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets served from the embedded FS with a small cache window.
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /login", s.public(s.handleLoginPage))
	mux.HandleFunc("POST /login", s.public(s.handleLogin))
	mux.HandleFunc("GET /register", s.public(s.handleRegisterPage))
	mux.HandleFunc("POST /register", s.public(s.handleRegister))
	mux.HandleFunc("POST /logout", s.public(s.handleLogout))

	mux.HandleFunc("GET /{$}", s.protected(s.handleDashboard))
	mux.HandleFunc("GET /transactions", s.protected(s.handleTransactions))
	mux.HandleFunc("POST /transactions", s.protected(s.handleAddTransaction))
	mux.HandleFunc("GET /transactions/{id}/edit", s.protected(s.handleEditPage))
	mux.HandleFunc("POST /transactions/{id}", s.protected(s.handleUpdateTransaction))
	mux.HandleFunc("POST /transactions/{id}/delete", s.protected(s.handleDeleteTransaction))
	mux.HandleFunc("POST /transactions/clear", s.protected(s.handleClearTransactions))
	mux.HandleFunc("GET /reports", s.protected(s.handleReports))
	mux.HandleFunc("GET /export/{format}", s.protected(s.handleExport))

	return s
}

// public wraps a handler with tracing, security headers, and rate limiting
// on mutating methods.
func (s *Server) public(next http.HandlerFunc) http.HandlerFunc {
	limited := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && !s.rateLimiter.Allow(extractClientIP(r)) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", extractClientIP(r), "method", r.Method, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}

	h := s.tracer.Middleware(s.headers.Middleware(http.HandlerFunc(limited)))
	return h.ServeHTTP
}

// protected additionally requires a valid session cookie.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return s.public(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.sessionClaims(r)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, claims)
		next(w, r.WithContext(ctx))
	})
}

// Shutdown stops cleanup goroutines then drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateCaches drops derived data after any ledger write.
func (s *Server) invalidateCaches() {
	s.totalsCache.Purge()
	s.recentCache.Purge()
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
