package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/tangle-rdb/ingester/internal/errs"
	"github.com/tangle-rdb/ingester/internal/mapper"
)

// Approve consumes id batches and walks them backward (LIFO) marking
// mst_a, matching §4.6.
type Approve struct {
	Tx     *mapper.TransactionMapper
	Bundle *mapper.BundleMapper

	Events EventSink
	Log    *zap.Logger
	NowMs  func() float64
}

// Run consumes batches until ctx is canceled or batches is closed.
func (w *Approve) Run(ctx context.Context, batches <-chan []uint64) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-batches:
			if !ok {
				return
			}
			w.perform(ctx, batch)
		}
	}
}

// perform processes one batch to completion with a local stack, matching
// the source's LIFO/depth-first traversal.
func (w *Approve) perform(ctx context.Context, batch []uint64) {
	stack := append([]uint64(nil), batch...)
	confirmed := 0

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		tx, err := w.Tx.Fetch(ctx, id)
		if err == errs.ErrLocked {
			w.Log.Debug("approve: transaction locked by another worker, skipping this pass", zap.Uint64("id_tx", id))
			continue
		}
		if err != nil {
			w.Log.Warn("approve: failed to fetch transaction", zap.Uint64("id_tx", id), zap.Error(err))
			continue
		}

		if !tx.IsPersisted() || tx.MilestoneApproved() {
			tx.Unlock()
			continue
		}

		if tx.IDTrunk() != 0 {
			stack = append(stack, tx.IDTrunk())
		}
		if tx.IDBranch() != 0 {
			stack = append(stack, tx.IDBranch())
		}

		if tx.CurrentIdx() == 0 {
			w.stampBundleConfirmed(ctx, tx.IDBundle())
		}

		tx.Approve()
		tx.Unlock()
		if err := w.Tx.ApproveTransaction(ctx, id); err != nil {
			w.Log.Warn("approve: narrow mst_a write failed", zap.Uint64("id_tx", id), zap.Error(err))
		}
		confirmed++
	}

	w.Events.Emit(EventConfirmation, confirmed)
}

func (w *Approve) stampBundleConfirmed(ctx context.Context, idBundle uint64) {
	if idBundle == 0 {
		return
	}
	bundle, err := w.Bundle.Fetch(ctx, idBundle)
	if err != nil {
		w.Log.Warn("approve: failed to fetch bundle", zap.Uint64("id_bundle", idBundle), zap.Error(err))
		return
	}
	bundle.Confirm(w.NowMs())
	bundle.Unlock()
}
