package app

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/scorecast/platform/internal/auth"
	"github.com/scorecast/platform/internal/guard"
	"github.com/scorecast/platform/internal/handler"
	adminhandler "github.com/scorecast/platform/internal/handler/admin"
	"github.com/scorecast/platform/internal/infra"
	"github.com/scorecast/platform/internal/repository"
	"github.com/scorecast/platform/internal/service"
)

// Services is the set of core operations shared by the HTTP server, the
// scheduler and the batch binaries. One SyncService per process keeps its
// overlap guard process-wide.
type Services struct {
	Auth        *service.AuthService
	Predictions *service.PredictionService
	Matches     *service.MatchService
	Scoring     *service.ScoringService
	Sync        *service.SyncService
	Seed        *service.SeedService
}

// ServiceDeps holds what NewServices needs.
type ServiceDeps struct {
	Pool   repository.Pool
	JWTMgr *auth.JWTManager
	Hasher auth.PasswordHasher
	Feed   service.FixtureFeed
	Logger *slog.Logger
}

// NewServices wires repositories into services.
func NewServices(deps ServiceDeps) *Services {
	pool, logger := deps.Pool, deps.Logger

	accountRepo := repository.NewAccountRepository()
	matchRepo := repository.NewMatchRepository()
	predictionRepo := repository.NewPredictionRepository()
	outboxRepo := repository.NewOutboxRepository()

	authSvc := service.NewAuthService(pool, accountRepo, outboxRepo, deps.Hasher, deps.JWTMgr, logger)
	return &Services{
		Auth:        authSvc,
		Predictions: service.NewPredictionService(pool, matchRepo, predictionRepo, outboxRepo, logger),
		Matches:     service.NewMatchService(pool, matchRepo, outboxRepo, logger),
		Scoring:     service.NewScoringService(pool, predictionRepo),
		Sync:        service.NewSyncService(pool, matchRepo, outboxRepo, deps.Feed, logger),
		Seed:        service.NewSeedService(pool, accountRepo, matchRepo, authSvc, logger),
	}
}

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	DB       infra.Pinger
	JWTMgr   *auth.JWTManager
	Services *Services
	Logger   *slog.Logger

	CORSAllowedOrigins string
	// LoginRateLimit is the number of login attempts per client per minute.
	LoginRateLimit int
	// TrustProxyHeaders mounts middleware.RealIP so the login limiter keys on
	// the forwarded client address.
	TrustProxyHeaders bool
	Sync              adminhandler.SyncDefaults
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	svc, logger := deps.Services, deps.Logger

	authHandler := handler.NewAuthHandler(svc.Auth)
	matchHandler := handler.NewMatchHandler(svc.Matches)
	predictionHandler := handler.NewPredictionHandler(svc.Predictions)
	statsHandler := handler.NewStatsHandler(svc.Scoring)

	matchAdmin := adminhandler.NewMatchAdminHandler(svc.Matches)
	syncAdmin := adminhandler.NewSyncAdminHandler(svc.Sync, deps.Sync)

	loginLimit := deps.LoginRateLimit
	if loginLimit <= 0 {
		loginLimit = 10
	}
	loginLimiter := guard.NewRateLimiter(loginLimit, time.Minute)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	if deps.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORSWithOrigins(deps.CORSAllowedOrigins))
	r.Use(handler.JSONContentType)

	r.Get("/health", handler.HealthHandler(deps.DB))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.With(loginLimiter.Middleware).Post("/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(deps.JWTMgr))

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/me", authHandler.Me)
			r.Put("/me/password", authHandler.ChangePassword)
			r.Get("/{id}/stats", statsHandler.ForAccount)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", matchHandler.List)
			r.Get("/{id}", matchHandler.Get)
		})

		r.Get("/board", predictionHandler.Board)
		r.Get("/stats/me", statsHandler.Mine)

		r.Route("/predictions", func(r chi.Router) {
			r.Post("/", predictionHandler.Submit)
			r.Get("/me", predictionHandler.Mine)
			r.Delete("/{id}", predictionHandler.Delete)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin)

			r.Post("/matches", matchAdmin.CreateMatch)
			r.Put("/matches/{id}/result", matchAdmin.SetResult)
			r.Post("/sync", syncAdmin.Sync)
			r.Post("/sync/refresh", syncAdmin.Refresh)
		})
	})

	return r
}
