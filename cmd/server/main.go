package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/config"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/infra"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/repository"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/router"
	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/worker"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Env == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Env,
			AttachStacktrace: true,
		}); err != nil {
			log.Error().Err(err).Msg("sentry initialization failed")
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Start goroutine worker pool for async tasks (PDF render, channel
	// replies, email). Worker handlers are wired here (composition root) so
	// that the pool has full access to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channelClient := infra.NewChannelClient(cfg.ChannelAPIURL, cfg.ChannelAPIKey)
	channelCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	mailer := infra.NewMailer(cfg)
	logos := infra.NewLogoFetcher()

	companyRepo := repository.NewCompanyRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	renderW := worker.NewRenderWorker(documentRepo, companyRepo, logos, rdb, cfg.PDFStoragePath)
	replyW := worker.NewReplyWorker(channelClient, channelCB, rdb)
	emailW := worker.NewEmailWorker(renderW, documentRepo, mailer, rdb)
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, worker.Handlers{
		Render: renderW,
		Reply:  replyW,
		Email:  emailW,
	})

	// Periodic usage reconciliation (self-healing counter drift)
	worker.StartReconcileCron(ctx, worker.ReconcileCronConfig{
		CompanyRepo:  companyRepo,
		DocumentRepo: documentRepo,
	})

	r := router.New(cfg, db, rdb, channelCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("invoisku backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
