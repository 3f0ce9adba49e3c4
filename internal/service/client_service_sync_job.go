package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

type clientSyncJob struct {
	engine     SyncEngine
	maxBackoff time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logger.Logger
}

// NewClientSyncJob creates a clientSyncJob that calls engine.Sync on a
// timer. The job is idle until Start is called.
func NewClientSyncJob(engine SyncEngine, maxBackoff time.Duration, logger *logger.Logger) ClientSyncJob {
	return &clientSyncJob{
		engine:     engine,
		maxBackoff: maxBackoff,
		logger:     logger,
	}
}

// Start implements ClientSyncJob. It stops any previously running job, then
// launches a background goroutine that syncs right away and then every
// interval. If interval is zero or negative it defaults to 5 minutes. While
// the remote service is unreachable the wait doubles with every failure, up
// to the configured maximum backoff, and falls back to interval after a
// successful sync. The goroutine exits when ctx is cancelled or
// Stop is called.
func (j *clientSyncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()

		failures := 0
		t := time.NewTimer(0)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
			}

			wait := interval
			_, _, err := j.engine.Sync(jobCtx)
			switch {
			case err == nil:
				failures = 0
			case IsTransient(err):
				failures++
				wait = backoffDelay(interval, max(interval, j.maxBackoff), failures)
				j.logger.Warn().Err(err).Int("failures", failures).Dur("retry_in", wait).Msg("remote sync service unreachable")
			default:
				failures = 0
				j.logger.Err(err).Str("func", "*clientSyncJob.Start").Msg("background sync failed")
			}

			t.Reset(wait)
		}
	}()
}

// Stop implements ClientSyncJob. It cancels the background goroutine's context and
// blocks until the goroutine has fully exited. Safe to call when the job is not
// running (no-op in that case).
func (j *clientSyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
