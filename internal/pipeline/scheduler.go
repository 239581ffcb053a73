package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tangle-rdb/ingester/internal/metrics"
)

// Flusher is the subset of *mapper.Mapper[T] the scheduler needs, without
// binding to a concrete record type.
type Flusher interface {
	Kind() string
	Flush(ctx context.Context) (int, error)
	Prune(limit uint32) int
	Len() int
}

// Scheduler runs the two periodic tasks of §4.9: flush then prune, on
// every mapper, once per UpdateInterval tick.
type Scheduler struct {
	Mappers         []Flusher
	UpdateInterval  time.Duration
	GenerationLimit uint32

	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// Run ticks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	start := time.Now()
	var updated, cleaned int

	for _, m := range s.Mappers {
		n, err := m.Flush(ctx)
		if err != nil {
			s.Log.Warn("flush failed", zap.String("kind", m.Kind()), zap.Error(err))
		}
		updated += n
		s.Metrics.FlushedTotal.Add(float64(n))
	}

	for _, m := range s.Mappers {
		n := m.Prune(s.GenerationLimit)
		cleaned += n
		s.Metrics.PrunedTotal.Add(float64(n))
		s.Metrics.MapperSize.WithLabelValues(m.Kind()).Set(float64(m.Len()))
	}

	s.Log.Info("scheduler tick",
		zap.Int("updated", updated),
		zap.Int("cleaned", cleaned),
		zap.Duration("elapsed", time.Since(start)),
	)
}
