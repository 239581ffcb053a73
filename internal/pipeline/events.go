package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/tangle-rdb/ingester/internal/metrics"
	"github.com/tangle-rdb/ingester/internal/store"
)

// Recorder writes one txload row per event occurrence and mirrors the
// count onto the Prometheus events counter. The store row is the durable
// record §1 requires; the metric is the process-local telemetry mirror.
type Recorder struct {
	events *store.EventStore
	m      *metrics.Metrics
	nowMs  func() float64
	log    *zap.Logger
}

// NewRecorder builds a Recorder. nowMs supplies the event timestamp; tests
// pass a fixed clock.
func NewRecorder(events *store.EventStore, m *metrics.Metrics, nowMs func() float64, log *zap.Logger) *Recorder {
	return &Recorder{events: events, m: m, nowMs: nowMs, log: log}
}

// Emit appends one txload row and increments the matching counter. A
// failed txload write is logged and dropped: event emission is telemetry,
// not a correctness-bearing write, so it must never block the pipeline.
func (r *Recorder) Emit(tag string, count int) {
	if count <= 0 {
		return
	}
	r.m.Events.WithLabelValues(tag).Add(float64(count))
	if err := r.events.Record(context.Background(), tag, count, r.nowMs()); err != nil {
		r.log.Warn("failed to record event", zap.String("event", tag), zap.Error(err))
	}
}
