package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hongminglow/pw-ledger/internal/accounts"
	"github.com/hongminglow/pw-ledger/internal/auth"
	"github.com/hongminglow/pw-ledger/internal/cache"
	"github.com/hongminglow/pw-ledger/internal/config"
	"github.com/hongminglow/pw-ledger/internal/http/handlers"
	"github.com/hongminglow/pw-ledger/internal/http/respond"
	"github.com/hongminglow/pw-ledger/internal/ledger"
	"github.com/hongminglow/pw-ledger/internal/middleware"
	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/query"
	"github.com/hongminglow/pw-ledger/internal/storage"
)

// Deps are the collaborators the server is built from.
type Deps struct {
	Store  storage.Store
	Cache  cache.Cache
	Logger *zap.Logger
	// DB is pinged by /health when set.
	DB handlers.Pinger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// NewHandler builds the routed handler tree.
func NewHandler(cfg config.Config, deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	readCache := deps.Cache
	if readCache == nil {
		readCache = cache.Noop{}
	}

	ledgerSvc := ledger.NewService(deps.Store,
		ledger.WithLocation(cfg.Location),
		ledger.WithLogger(log.Named("ledger")),
		ledger.WithInvalidator(readCache),
	)
	querySvc := query.NewService(deps.Store,
		query.WithCache(readCache),
		query.WithLogger(log.Named("query")),
		query.WithLocation(cfg.Location),
		query.WithDefaultLimit(cfg.DefaultPageLimit),
		query.WithOverdueDays(cfg.OverdueDays),
	)
	accountSvc := accounts.NewService(deps.Store, log.Named("accounts"), accounts.WithInvalidator(readCache))
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	authSvc := auth.NewService(deps.Store, tokens, log.Named("auth"))

	authHandler := handlers.NewAuthHandler(authSvc, handlers.CookieConfig{
		Name:   cfg.CookieName,
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
		TTL:    cfg.JWTTTL,
	})
	debtHandler := handlers.NewDebtHandler(ledgerSvc, querySvc)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(log.Named("http")))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "Endpoint tidak ditemukan")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "Metode tidak diizinkan")
	})

	handlers.NewHealthHandler(time.Now(), deps.DB).Register(r)

	r.Route("/api", func(api chi.Router) {
		authHandler.RegisterPublic(api)
		debtHandler.RegisterPublic(api)

		api.Group(func(private chi.Router) {
			private.Use(middleware.Authenticate(authSvc, cfg.CookieName))
			authHandler.Register(private)
			handlers.NewUserHandler(accountSvc, ledgerSvc, querySvc).Register(private)
			debtHandler.Register(private)
			handlers.NewPaymentHandler(ledgerSvc, querySvc).Register(private)
			handlers.NewDashboardHandler(querySvc).Register(private)

			private.Group(func(super chi.Router) {
				super.Use(middleware.RequireRole(models.RoleSuperAdmin))
				handlers.NewAdminHandler(accountSvc, querySvc).Register(super)
			})
		})
	})

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
