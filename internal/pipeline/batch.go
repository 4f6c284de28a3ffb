package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/opsdash/internal/config"
	"github.com/nao1215/opsdash/internal/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// BatchProcessor runs independent requests concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: One failed item never cancels its siblings. Each item's
// error is kept at its index so callers can report per-item outcomes, and
// only cancellation of the parent context aborts the batch.
type BatchProcessor struct {
	// concurrency is the maximum number of concurrent items.
	concurrency int

	// limiter throttles item starts. Nil means no rate limit.
	limiter *rate.Limiter

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent items.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithRateLimit allows at most perSecond item starts per second.
// Non-positive values disable the limit.
func WithRateLimit(perSecond float64) BatchOption {
	return func(b *BatchProcessor) {
		if perSecond <= 0 {
			b.limiter = nil
			return
		}
		b.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		concurrency: config.DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = log.NewDiscardLogger()
	}

	return bp
}

// BatchResult holds per-item outcomes in input order.
type BatchResult struct {
	// Errors has one entry per item; nil means the item succeeded.
	Errors []error
}

// Failed returns the number of items that returned an error.
func (r BatchResult) Failed() int {
	n := 0
	for _, err := range r.Errors {
		if err != nil {
			n++
		}
	}
	return n
}

// Succeeded returns the number of items that finished without error.
func (r BatchResult) Succeeded() int {
	return len(r.Errors) - r.Failed()
}

// Process calls fn for every index in [0, n).
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
//
// The returned error is only set when ctx ended before every item ran;
// item errors are in the result.
func (bp *BatchProcessor) Process(ctx context.Context, n int, fn func(ctx context.Context, i int) error) (BatchResult, error) {
	result := BatchResult{Errors: make([]error, n)}
	if n == 0 {
		return result, nil
	}

	bp.logger.Debug("starting batch",
		"items", n,
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i := range n {
		g.Go(func() error {
			if bp.limiter != nil {
				if err := bp.limiter.Wait(gctx); err != nil {
					result.Errors[i] = err
					return err
				}
			}
			select {
			case <-gctx.Done():
				result.Errors[i] = gctx.Err()
				return gctx.Err()
			default:
			}

			if err := fn(gctx, i); err != nil {
				bp.logger.Warn("batch item failed",
					"index", i,
					"error", err,
				)
				result.Errors[i] = err
			}
			// Item errors stay in the result so siblings keep running.
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Debug("batch complete",
		"items", n,
		"failed", result.Failed(),
		"elapsed", time.Since(startTime),
	)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	return result, err
}
