package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360studio/fairgate/config"
)

// RevisionReader reads the current revision token of a store path.
type RevisionReader interface {
	Revision(ctx context.Context, path string) (string, error)
}

// Waiter confirms that a written revision is visible through the store's read
// path. The store's read side lags its write side, so the waiter sleeps
// through a fixed warm-up before polling a bounded number of times.
//
// Await never fails: poll errors and revision mismatches are swallowed and
// retried, and exhaustion only produces a log line. Downstream steps proceed
// regardless of the outcome.
type Waiter struct {
	reader   RevisionReader
	warmup   time.Duration
	interval time.Duration
	attempts int
	logger   *slog.Logger
}

// NewWaiter creates a Waiter polling through reader with the configured bounds.
func NewWaiter(reader RevisionReader, cfg config.StoreConfig, logger *slog.Logger) *Waiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Waiter{
		reader:   reader,
		warmup:   cfg.Warmup,
		interval: cfg.PollInterval,
		attempts: cfg.PollAttempts,
		logger:   logger,
	}
}

// Await blocks until the revision is observed at path or the attempts are
// exhausted, and reports whether it was found.
func (w *Waiter) Await(ctx context.Context, path, revision string) bool {
	if !sleepCtx(ctx, w.warmup) {
		return false
	}

	for attempt := 1; attempt <= w.attempts; attempt++ {
		observed, err := w.reader.Revision(ctx, path)
		if err == nil && observed == revision {
			w.logger.Info("Revision propagated",
				slog.String("path", path),
				slog.String("revision", revision),
				slog.Int("attempt", attempt))
			return true
		}
		if err != nil {
			w.logger.Debug("Propagation poll failed",
				slog.String("path", path),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		}
		if !sleepCtx(ctx, w.interval) {
			return false
		}
	}

	w.logger.Warn("Timed out waiting for revision propagation",
		slog.String("path", path),
		slog.String("revision", revision),
		slog.Int("attempts", w.attempts))
	return false
}

// sleepCtx sleeps for d unless the context ends first; it reports whether the
// full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
