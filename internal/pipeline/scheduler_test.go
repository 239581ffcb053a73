package pipeline

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/tangle-rdb/ingester/internal/mapper"
	"github.com/tangle-rdb/ingester/internal/metrics"
)

func TestSchedulerTickFlushesAndPrunesEveryMapper(t *testing.T) {
	ctx := context.Background()
	var txNext uint64
	txMapper := mapper.NewTransactionMapper(newFakeTxStore(), func() uint64 { txNext++; return txNext })

	if _, err := txMapper.FetchOrInsert(ctx, "DIRTY"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	m := metrics.New()
	s := &Scheduler{
		Mappers:         []Flusher{txMapper},
		GenerationLimit: 2,
		Metrics:         m,
		Log:             zap.NewNop(),
	}

	s.tick(ctx)

	if txMapper.Len() != 1 {
		t.Fatalf("expected the flushed record to remain cached (generation 1), got len %d", txMapper.Len())
	}

	rec, err := txMapper.FetchOrInsert(ctx, "DIRTY")
	if err != nil {
		t.Fatalf("re-fetch failed: %v", err)
	}
	if !rec.IsPersisted() {
		t.Fatalf("expected the flush tick to have persisted the seeded record")
	}
	rec.Unlock()
}

func TestSchedulerTickEventuallyPrunesCleanRecordsPastTheLimit(t *testing.T) {
	ctx := context.Background()
	var txNext uint64
	txMapper := mapper.NewTransactionMapper(newFakeTxStore(), func() uint64 { txNext++; return txNext })

	if _, err := txMapper.FetchOrInsert(ctx, "ONE"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	m := metrics.New()
	s := &Scheduler{
		Mappers:         []Flusher{txMapper},
		GenerationLimit: 1,
		Metrics:         m,
		Log:             zap.NewNop(),
	}

	// First tick flushes (clearing the dirty flag) then prunes at generation 1,
	// which is not yet past the limit.
	s.tick(ctx)
	if txMapper.Len() != 1 {
		t.Fatalf("expected the record to survive the first tick, got len %d", txMapper.Len())
	}

	// Second tick: Flush is a no-op (nothing dirty); Prune advances the
	// generation past the limit and evicts it.
	s.tick(ctx)
	if txMapper.Len() != 0 {
		t.Fatalf("expected the clean record to be pruned once its generation exceeds the limit, got len %d", txMapper.Len())
	}
}
