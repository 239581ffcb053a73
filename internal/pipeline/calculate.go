package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/tangle-rdb/ingester/internal/mapper"
)

// Calculate performs the bounded two-phase cumulative weight walk of §4.8
// around a pivot transaction.
type Calculate struct {
	Tx               *mapper.TransactionMapper
	CalculationLimit int

	Log *zap.Logger
}

// Run consumes pivot ids until ctx is canceled or pivots is closed.
func (w *Calculate) Run(ctx context.Context, pivots <-chan uint64) {
	for {
		select {
		case <-ctx.Done():
			return
		case pivotID, ok := <-pivots:
			if !ok {
				return
			}
			if err := w.perform(ctx, pivotID); err != nil {
				w.Log.Warn("calculate: failed", zap.Uint64("pivot", pivotID), zap.Error(err))
			}
		}
	}
}

func (w *Calculate) perform(ctx context.Context, pivotID uint64) error {
	weight := w.calculateFront(pivotID)

	var parents []uint64
	pivot, err := w.Tx.Fetch(ctx, pivotID)
	if err != nil {
		return err
	}
	if pivot.IDTrunk() != 0 {
		parents = append(parents, pivot.IDTrunk())
	}
	if pivot.IDBranch() != 0 {
		parents = append(parents, pivot.IDBranch())
	}
	pivot.AddWeight(weight)
	pivot.Unlock()

	return w.calculateBack(ctx, pivotID, weight+1.0, parents)
}

// calculateFront traverses descendants via the reverse reference lists,
// visiting each once, never touching the store. Nodes with id > pivotID
// are skipped: weight only reflects vertices that existed at-or-before the
// pivot was inserted.
func (w *Calculate) calculateFront(pivotID uint64) float64 {
	weight := 0.0
	visited := make(map[uint64]struct{})
	stack := []uint64{pivotID}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		trunkChildren, branchChildren := w.Tx.ChildrenOf(id)
		for _, childID := range trunkChildren {
			if w.visitFront(childID, pivotID, visited, &weight) {
				stack = append(stack, childID)
			}
		}
		for _, childID := range branchChildren {
			if w.visitFront(childID, pivotID, visited, &weight) {
				stack = append(stack, childID)
			}
		}
	}
	return weight
}

func (w *Calculate) visitFront(id, pivotID uint64, visited map[uint64]struct{}, weight *float64) bool {
	if id > pivotID {
		return false
	}
	if _, ok := visited[id]; ok {
		return false
	}
	visited[id] = struct{}{}
	*weight++
	return true
}

// calculateBack walks ancestors from parents via id_trunk/id_branch,
// bounded by CalculationLimit distinct visits, crediting each with weight.
func (w *Calculate) calculateBack(ctx context.Context, pivotID uint64, weight float64, parents []uint64) error {
	visited := make(map[uint64]struct{})
	stack := append([]uint64(nil), parents...)

	for len(stack) > 0 {
		if w.CalculationLimit > 0 && len(visited) >= w.CalculationLimit {
			break
		}
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if id > pivotID {
			continue
		}
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}

		tx, err := w.Tx.Fetch(ctx, id)
		if err != nil {
			return err
		}
		if tx.IDTrunk() != 0 {
			stack = append(stack, tx.IDTrunk())
		}
		if tx.IDBranch() != 0 {
			stack = append(stack, tx.IDBranch())
		}
		tx.AddWeight(weight)
		tx.Unlock()
	}
	return nil
}
