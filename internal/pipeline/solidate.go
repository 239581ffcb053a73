package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/tangle-rdb/ingester/internal/errs"
	"github.com/tangle-rdb/ingester/internal/mapper"
	"github.com/tangle-rdb/ingester/internal/record"
)

// Solidate consumes (id, optional height) batches and propagates trunk/
// branch solidity forward to children, matching §4.7.
type Solidate struct {
	Tx *mapper.TransactionMapper

	Events EventSink
	Log    *zap.Logger

	// SolidateCh lets Solidate re-queue a child that became fully solid
	// for further propagation, without calling back into Run directly.
	SolidateCh chan<- []SolidateEntry
}

// Run consumes batches until ctx is canceled or batches is closed.
func (w *Solidate) Run(ctx context.Context, batches <-chan []SolidateEntry) {
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

func (w *Solidate) perform(ctx context.Context, batch []SolidateEntry) {
	stack := append([]SolidateEntry(nil), batch...)
	transitions := 0
	var propagate []SolidateEntry

	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		trunkChildren, branchChildren := w.Tx.ChildrenOf(entry.ID)

		for _, childID := range trunkChildren {
			if w.transitionChild(ctx, childID, record.SolidTrunk, entry.Height, &transitions, &propagate) {
				continue
			}
		}
		for _, childID := range branchChildren {
			w.transitionChild(ctx, childID, record.SolidBranch, nil, &transitions, &propagate)
		}
	}

	if transitions > 0 {
		w.Events.Emit(EventSolidation, transitions)
	}
	if len(propagate) > 0 {
		select {
		case w.SolidateCh <- propagate:
		case <-ctx.Done():
		}
	}
}

// transitionChild sets bit on child if not already set, optionally setting
// height on the trunk partition, and queues the child for further
// propagation if it is now fully solid.
func (w *Solidate) transitionChild(ctx context.Context, childID uint64, bit uint8, parentHeight *int32, transitions *int, propagate *[]SolidateEntry) bool {
	child, err := w.Tx.Fetch(ctx, childID)
	if err == errs.ErrLocked {
		w.Log.Debug("solidate: child locked by another worker, skipping this pass", zap.Uint64("id_tx", childID))
		return false
	}
	if err != nil {
		w.Log.Warn("solidate: failed to fetch child", zap.Uint64("id_tx", childID), zap.Error(err))
		return false
	}
	defer child.Unlock()

	if child.Solid()&bit != 0 {
		return false
	}
	changed := child.SetSolid(bit)
	if !changed {
		return false
	}
	if bit == record.SolidTrunk && parentHeight != nil {
		child.SetHeight(*parentHeight + 1)
	}
	*transitions++

	if bit == record.SolidTrunk {
		if err := w.Tx.SolidateTrunk(ctx, child.ID(), child.Solid(), child.Height()); err != nil {
			w.Log.Warn("solidate: narrow trunk write failed", zap.Uint64("id_tx", child.ID()), zap.Error(err))
		}
	} else {
		if err := w.Tx.SolidateBranch(ctx, child.ID(), child.Solid()); err != nil {
			w.Log.Warn("solidate: narrow branch write failed", zap.Uint64("id_tx", child.ID()), zap.Error(err))
		}
	}

	if child.Solid() == record.SolidFull {
		var h *int32
		if child.Height() != 0 {
			height := child.Height()
			h = &height
		}
		*propagate = append(*propagate, SolidateEntry{ID: child.ID(), Height: h})
	}
	return true
}
