// Package server assembles the HTTP surface of the ledger.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/josh-kwaku/fundledger/internal/handler"
	"github.com/josh-kwaku/fundledger/internal/metrics"
	"github.com/josh-kwaku/fundledger/internal/middleware"
)

type Handlers struct {
	Health      *handler.HealthHandler
	Fundraisers *handler.FundraiserHandler
	Donations   *handler.DonationHandler
	Withdrawals *handler.WithdrawalHandler
	Leaderboard *handler.LeaderboardHandler
	Rewards     *handler.RewardsHandler
}

type RouterConfig struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	JWTSecret      string
	RequestTimeout time.Duration
	Idempotency    middleware.IdempotencyStore
	OpenAPIYAML    []byte
	OpenAPIJSON    []byte
}

func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recovery,
		middleware.Tracing,
		chimw.RealIP,
		middleware.Logging(cfg.Logger, cfg.Metrics),
		chimw.Timeout(cfg.RequestTimeout),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		handler.RespondAppError(w, handler.ErrResourceNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		handler.RespondAppError(w, &handler.AppError{
			Status:  http.StatusMethodNotAllowed,
			Code:    "METHOD_NOT_ALLOWED",
			Message: "Method not allowed",
		}, nil)
	})

	r.Get("/health", h.Health.Liveness)
	r.Get("/ready", h.Health.Readiness)
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	r.Get("/docs", handler.ServeDocs("Fundledger API", "/docs/openapi.json"))
	r.Get("/docs/openapi.yaml", handler.ServeSpec("application/yaml", cfg.OpenAPIYAML))
	r.Get("/docs/openapi.json", handler.ServeSpec("application/json", cfg.OpenAPIJSON))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/fundraisers", h.Fundraisers.List)
		r.Get("/fundraisers/{id}", h.Fundraisers.Get)
		r.Get("/fundraisers/{id}/related", h.Fundraisers.Related)
		r.Get("/fundraisers/{id}/donations", h.Donations.ListForFundraiser)
		r.Get("/leaderboard", h.Leaderboard.Get)
		r.Get("/creators/{id}/rewards", h.Rewards.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Get("/fundraisers/{id}/withdrawals", h.Withdrawals.List)
			r.Get("/me/fundraisers", h.Fundraisers.ListMine)
			r.Get("/me/donations", h.Donations.ListMine)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Idempotency(cfg.Idempotency))
				r.Post("/fundraisers", h.Fundraisers.Create)
				r.Patch("/fundraisers/{id}", h.Fundraisers.Update)
				r.Delete("/fundraisers/{id}", h.Fundraisers.Delete)
				r.Post("/fundraisers/{id}/donations", h.Donations.Donate)
				r.Post("/fundraisers/{id}/withdrawals", h.Withdrawals.Withdraw)
			})
		})
	})

	return r
}
