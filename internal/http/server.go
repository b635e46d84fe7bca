// Package http exposes the expense tracker JSON API and the bundled browser
// page.
package http

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/services"
	appweb "expensetracker/web"
)

type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (core.Account, error)
	Login(ctx context.Context, email, password string) (core.Session, error)
	Logout(ctx context.Context, token string) error
}

type ExpenseService interface {
	List(ctx context.Context, accountID int64) ([]core.Expense, error)
	Create(ctx context.Context, accountID int64, in core.NewExpense) (core.Expense, error)
	Summary(ctx context.Context, accountID int64) (core.Summary, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type BrokerHealth interface {
	Healthy() bool
}

type Config struct {
	Addr               string
	CORSAllowedOrigins []string
	RateLimitPerMinute int
}

// Deps are the collaborators behind the routes. DB and Broker are optional.
type Deps struct {
	Accounts AccountService
	Expenses ExpenseService
	Sessions auth.SessionStore
	DB       Pinger
	Broker   BrokerHealth
	Logger   *log.Logger
}

type Server struct {
	http.Server
	accounts AccountService
	expenses ExpenseService
	db       Pinger
	broker   BrokerHealth
	limiter  *ratelimit.Limiter
}

// NewServer wires middleware and routes and returns a ready-to-run server.
func NewServer(cfg Config, deps Deps) *Server {
	s := &Server{
		accounts: deps.Accounts,
		expenses: deps.Expenses,
		db:       deps.DB,
		broker:   deps.Broker,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
	}

	logger := deps.Logger.WithComponent(log.ComponentHTTP)
	detector := security.NewDetector()
	guard := auth.NewGuard(deps.Sessions, writeError)

	r := chi.NewRouter()
	r.Use(log.Middleware(logger))
	r.Use(trace.NewMiddleware(detector.ExtractClientIP).Middleware)
	r.Use(log.RequestIDMiddleware(trace.GetRequestID))
	r.Use(chimiddleware.Recoverer)
	r.Use(detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders: []string{trace.HeaderRequestID, "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(security.NoStore)
		r.Use(s.limiter.Middleware(detector.ExtractClientIP, writeRateLimited))
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		})

		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware)
			r.Post("/logout", s.handleLogout)
			r.Get("/expenses", s.handleListExpenses)
			r.Post("/expenses", s.handleCreateExpense)
			r.Get("/expenses/summary", s.handleSummary)
		})
	})

	if static, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		files := http.FileServerFS(static)
		r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			files.ServeHTTP(w, req)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// RunRateLimiterCleanup evicts idle rate limit entries until ctx ends.
func (s *Server) RunRateLimiterCleanup(ctx context.Context) error {
	return s.limiter.Run(ctx)
}

func writeRateLimited(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Too many requests"})
}
