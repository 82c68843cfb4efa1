package worker

// reconcile_cron.go
// Background goroutine that periodically recounts each company's documents
// for the current calendar month and repairs the cached usage counter when
// it drifts. The counter is incremented transactionally on every create,
// so drift means a bug or manual data surgery; the cron also performs the
// month rollover, resetting counters when a new UTC month begins.

import (
	"context"
	"time"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/repository"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	reconcileTickInterval = 10 * time.Minute
	// reconcileParallelism bounds concurrent recounts so the cron never
	// saturates the connection pool.
	reconcileParallelism = 4
)

// ReconcileCronConfig holds the dependencies for the usage reconciler.
type ReconcileCronConfig struct {
	CompanyRepo  repository.CompanyRepository
	DocumentRepo repository.DocumentRepository
}

// StartReconcileCron launches a background goroutine that ticks every ten
// minutes and reconciles all companies. It respects the context for
// graceful shutdown.
func StartReconcileCron(ctx context.Context, cfg ReconcileCronConfig) {
	go func() {
		ticker := time.NewTicker(reconcileTickInterval)
		defer ticker.Stop()

		log.Info().Msg("reconcile_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconcile_cron: shutting down")
				return
			case <-ticker.C:
				if err := reconcileAll(ctx, cfg); err != nil {
					log.Error().Err(err).Msg("reconcile_cron: reconciliation finished with errors")
				}
			}
		}
	}()
}

// reconcileAll recounts every company, a few in parallel, and aggregates
// the per-company failures so one bad row never hides the others.
func reconcileAll(ctx context.Context, cfg ReconcileCronConfig) error {
	ids, err := cfg.CompanyRepo.ListIDs(ctx)
	if err != nil {
		return err
	}

	var result *multierror.Error
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileParallelism)

	errs := make(chan error, len(ids))
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := reconcileCompany(gctx, cfg, id); err != nil {
				errs <- err
			}
			// Individual failures are collected, not fatal.
			return nil
		})
	}
	_ = g.Wait()
	close(errs)

	for err := range errs {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func reconcileCompany(ctx context.Context, cfg ReconcileCronConfig, id uuid.UUID) error {
	company, err := cfg.CompanyRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	start := monthStartUTC(time.Now())
	actual, err := cfg.DocumentRepo.CountCreatedSince(ctx, id, start)
	if err != nil {
		return err
	}

	if company.DocumentsUsedThisMonth == actual && !company.UsageResetAt.Before(start) {
		return nil
	}

	if company.DocumentsUsedThisMonth != actual {
		log.Warn().
			Str("company_id", id.String()).
			Int64("cached", company.DocumentsUsedThisMonth).
			Int64("actual", actual).
			Msg("reconcile_cron: usage counter drifted, repairing")
	}
	return cfg.CompanyRepo.SetUsage(ctx, id, actual, start)
}

// monthStartUTC returns midnight on the first day of t's month, in UTC.
// Quotas are calendar-month buckets, always reckoned in UTC.
func monthStartUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}
