package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"golang.org/x/sync/errgroup"
)

type Workers struct {
	workers []Worker
	logger  *logger.Logger
}

func NewWorkers(logger *logger.Logger, workers ...Worker) *Workers {
	return &Workers{workers: workers, logger: logger}
}

// NewServerWorkers returns the background jobs of the remote sync service.
func NewServerWorkers(services *service.Services, cfg config.Workers, logger *logger.Logger) *Workers {
	return NewWorkers(logger,
		NewAppliedChangesPruner(services.SyncService, cfg.PruneInterval, cfg.IdempotencyRetention, logger),
	)
}

// NewClientWorkers returns the background jobs of the sync daemon.
func NewClientWorkers(services *service.ClientServices, cfg config.ClientWorkers, logger *logger.Logger) *Workers {
	return NewWorkers(logger,
		NewSyncJobWorker(services.SyncJob, cfg.SyncInterval, logger),
	)
}

// Run starts every worker and waits for all of them. The first failing
// worker cancels the others and its error is returned.
func (w *Workers) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	for _, worker := range w.workers {
		g.Go(func() error {
			return worker.Run(gCtx)
		})
	}
	return g.Wait()
}

type appliedChangesPruner struct {
	syncService service.SyncService
	interval    time.Duration
	retention   time.Duration
	logger      *logger.Logger
}

// NewAppliedChangesPruner returns a worker that forgets idempotency records
// older than retention, once at start and then every interval.
func NewAppliedChangesPruner(syncService service.SyncService, interval, retention time.Duration, logger *logger.Logger) Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &appliedChangesPruner{
		syncService: syncService,
		interval:    interval,
		retention:   retention,
		logger:      logger,
	}
}

func (p *appliedChangesPruner) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.prune(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *appliedChangesPruner) prune(ctx context.Context) {
	n, err := p.syncService.PruneAppliedChanges(ctx, p.retention)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Err(err).Str("func", "*appliedChangesPruner.prune").Msg("error pruning applied changes")
		}
		return
	}
	if n > 0 {
		p.logger.Info().Int64("pruned", n).Dur("retention", p.retention).Msg("applied changes pruned")
	}
}

type syncJobWorker struct {
	job      service.ClientSyncJob
	interval time.Duration
	logger   *logger.Logger
}

// NewSyncJobWorker adapts the client sync job to the Worker contract.
func NewSyncJobWorker(job service.ClientSyncJob, interval time.Duration, logger *logger.Logger) Worker {
	return &syncJobWorker{job: job, interval: interval, logger: logger}
}

func (s *syncJobWorker) Run(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("sync job started")
	s.job.Start(ctx, s.interval)

	<-ctx.Done()

	s.job.Stop()
	s.logger.Info().Msg("sync job stopped")
	return nil
}
