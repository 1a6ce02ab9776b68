package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/josh-kwaku/fundledger/api"
	"github.com/josh-kwaku/fundledger/internal/config"
	"github.com/josh-kwaku/fundledger/internal/domain"
	"github.com/josh-kwaku/fundledger/internal/events"
	"github.com/josh-kwaku/fundledger/internal/handler"
	"github.com/josh-kwaku/fundledger/internal/logging"
	"github.com/josh-kwaku/fundledger/internal/metrics"
	"github.com/josh-kwaku/fundledger/internal/repository"
	"github.com/josh-kwaku/fundledger/internal/server"
	"github.com/josh-kwaku/fundledger/internal/service"
	"github.com/josh-kwaku/fundledger/internal/service/ledger"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the event dispatcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.Init(serviceName, cfg.LogLevel, cfg.AppEnv)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	money, err := handler.NewMoneyFormatter(cfg.DisplayCurrency)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	specJSON, err := api.OpenAPIJSON()
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	fundraisers := repository.NewFundraiserRepository(db)
	outbox := repository.NewLedgerEventRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)
	svc := ledger.NewService(
		fundraisers,
		repository.NewDonationRepository(db),
		repository.NewWithdrawalRepository(db),
		outbox,
		repository.NewProfileRepository(db),
		db,
		m,
		cfg,
	)

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = events.Connect(cfg.NATSURL, serviceName, logger)
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		defer nc.Drain()
	} else {
		logger.Warn("NATS_URL not set, ledger events stay in the outbox")
	}

	router := server.NewRouter(server.Handlers{
		Health:      handler.NewHealthHandler(db, brokerOrNil(nc)),
		Fundraisers: handler.NewFundraiserHandler(svc, money),
		Donations:   handler.NewDonationHandler(svc, money),
		Withdrawals: handler.NewWithdrawalHandler(svc, money),
		Leaderboard: handler.NewLeaderboardHandler(svc, money),
		Rewards:     handler.NewRewardsHandler(svc, money),
	}, server.RouterConfig{
		Logger:         logger,
		Metrics:        m,
		JWTSecret:      cfg.JWTSecret,
		RequestTimeout: cfg.RequestTimeout,
		Idempotency:    idempotency,
		OpenAPIYAML:    api.OpenAPIYAML,
		OpenAPIJSON:    specJSON,
	})
	srv := server.NewHTTPServer(cfg.Port, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	dispatcher := service.NewDispatcher(
		outbox,
		publisherOrNil(nc, cfg.NATSSubjectPrefix),
		idempotency,
		m,
		logger.With("component", "dispatcher"),
		cfg.DispatchInterval,
		cfg.DispatchBatchSize,
	)
	g.Go(func() error {
		dispatcher.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("serve: forced shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	return repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		ConnectAttempts:  cfg.DBConnectAttempts,
	})
}

// publisherOrNil leaves the dispatcher without a publisher when NATS is not
// configured, so it only maintains the idempotency cache.
func publisherOrNil(nc *nats.Conn, prefix string) interface {
	Publish(ctx context.Context, e domain.LedgerEvent) error
} {
	if nc == nil {
		return nil
	}
	return events.NewPublisher(nc, prefix)
}

// brokerOrNil keeps a nil *nats.Conn from becoming a non-nil interface.
func brokerOrNil(nc *nats.Conn) interface{ IsConnected() bool } {
	if nc == nil {
		return nil
	}
	return nc
}
