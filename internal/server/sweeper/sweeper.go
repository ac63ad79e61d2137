// Package sweeper runs the background collection loop that removes pastes
// whose expiry has passed or whose view cap has been reached.
package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ebelanger/pastecove/internal/common"
	"github.com/ebelanger/pastecove/internal/logging"
	"github.com/ebelanger/pastecove/internal/server/metrics"
	"github.com/ebelanger/pastecove/internal/server/models"
)

// Collector is the coordinator surface the sweeper drives. Purge takes the
// same unauthorized delete path a token-holding owner ends up on.
type Collector interface {
	Expired(ctx context.Context, now time.Time) ([]*models.Paste, error)
	Purge(ctx context.Context, id int64) error
}

// Sweeper periodically collects due pastes through a Collector.
type Sweeper struct {
	collector Collector
	interval  time.Duration
	workers   int
	log       logging.Logger
	metrics   *metrics.Metrics

	now func() time.Time
}

// New constructs a Sweeper. workers caps concurrent deletes per cycle;
// metrics may be nil.
func New(collector Collector, interval time.Duration, workers int, log logging.Logger, m *metrics.Metrics) *Sweeper {
	if workers < 1 {
		workers = 1
	}
	return &Sweeper{
		collector: collector,
		interval:  interval,
		workers:   workers,
		log:       log,
		metrics:   m,
		now:       time.Now,
	}
}

// Run sweeps immediately, then on every interval tick until ctx is cancelled.
// It returns only after in-flight deletes from the current cycle finish, so
// callers can wait on it during shutdown.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one collection cycle. Per-paste failures are logged and left for
// the next cycle; a paste already gone counts as success.
func (s *Sweeper) sweep(ctx context.Context) {
	cycle := uuid.NewString()
	log := s.log.With("sweep_cycle", cycle)

	due, err := s.collector.Expired(ctx, s.now().UTC())
	if err != nil {
		log.Error(ctx, "failed to select expired pastes", "error", err)
		return
	}
	s.metrics.IncSweepCycles()
	if len(due) == 0 {
		return
	}
	log.Info(ctx, "sweeping expired pastes", "count", len(due))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, paste := range due {
		id := paste.ID
		g.Go(func() error {
			err := s.collector.Purge(ctx, id)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				s.metrics.IncSweepDeleteErrors()
				log.Warn(ctx, "failed to delete paste, will retry next cycle", "paste_id", id, "error", err)
			}
			// Errors never abort the cycle.
			return nil
		})
	}
	_ = g.Wait()
}
