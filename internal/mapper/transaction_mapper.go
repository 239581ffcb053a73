package mapper

import (
	"context"
	"sync"

	"github.com/tangle-rdb/ingester/internal/record"
)

// TxDirectWriter is the narrow per-column write surface a transaction
// store may additionally provide, letting the Approve and Solidate
// workers persist one mutation immediately instead of waiting for the
// scheduler's full-row Flush — the same narrow per-transition statements
// the original implementation issues (approve_transaction,
// solidate_transaction_trunk/branch) rather than a full row upsert.
type TxDirectWriter interface {
	ApproveTransaction(ctx context.Context, idTx uint64) error
	SolidateTrunk(ctx context.Context, idTx uint64, solid uint8, height int32) error
	SolidateBranch(ctx context.Context, idTx uint64, solid uint8) error
}

// TransactionMapper specializes Mapper[*record.Transaction] with reverse
// trunk/branch reference lists, keyed by parent id. These back the
// Calculate worker's front-phase traversal without any store access.
type TransactionMapper struct {
	*Mapper[*record.Transaction]

	refMu      sync.Mutex
	trunkRefs  map[uint64][]uint64
	branchRefs map[uint64][]uint64

	direct TxDirectWriter
}

// NewTransactionMapper wraps a generic tx Mapper with the reference index.
// If store also implements TxDirectWriter, the narrow per-transition
// writes below go straight to the store instead of being no-ops left for
// the scheduler's deferred Flush.
func NewTransactionMapper(store RowStore[*record.Transaction], nextID func() uint64) *TransactionMapper {
	placeholder := func(id uint64, hash string) *record.Transaction {
		return record.NewTransactionPlaceholder(id, hash, record.SolidNone)
	}
	tm := &TransactionMapper{
		Mapper:     New("tx", store, nextID, placeholder),
		trunkRefs:  make(map[uint64][]uint64),
		branchRefs: make(map[uint64][]uint64),
	}
	if dw, ok := store.(TxDirectWriter); ok {
		tm.direct = dw
	}
	return tm
}

// ApproveTransaction writes mst_a=1 directly, if the underlying store
// supports it. A no-op otherwise: the cached record is already mutated by
// the caller and will reach the store on the next scheduled Flush.
func (tm *TransactionMapper) ApproveTransaction(ctx context.Context, idTx uint64) error {
	if tm.direct == nil {
		return nil
	}
	return tm.direct.ApproveTransaction(ctx, idTx)
}

// SolidateTrunk writes the trunk-solid transition (solid mask + height)
// directly, if the underlying store supports it.
func (tm *TransactionMapper) SolidateTrunk(ctx context.Context, idTx uint64, solid uint8, height int32) error {
	if tm.direct == nil {
		return nil
	}
	return tm.direct.SolidateTrunk(ctx, idTx, solid, height)
}

// SolidateBranch writes the branch-solid transition directly, if the
// underlying store supports it.
func (tm *TransactionMapper) SolidateBranch(ctx context.Context, idTx uint64, solid uint8) error {
	if tm.direct == nil {
		return nil
	}
	return tm.direct.SolidateBranch(ctx, idTx, solid)
}

// LinkParents records childID as a trunk-child of idTrunk and a
// branch-child of idBranch, for the Calculate worker's forward traversal.
// Called by the ingest worker after a transaction is inserted with known
// parent ids; zero ids (unknown parent) are not recorded.
func (tm *TransactionMapper) LinkParents(childID, idTrunk, idBranch uint64) {
	tm.refMu.Lock()
	defer tm.refMu.Unlock()
	if idTrunk != 0 {
		tm.trunkRefs[idTrunk] = append(tm.trunkRefs[idTrunk], childID)
	}
	if idBranch != 0 {
		tm.branchRefs[idBranch] = append(tm.branchRefs[idBranch], childID)
	}
}

// TrunkReferences returns the children of parentID that reference it as
// trunk. The returned slice is a snapshot; callers must not mutate it.
func (tm *TransactionMapper) TrunkReferences(parentID uint64) []uint64 {
	tm.refMu.Lock()
	defer tm.refMu.Unlock()
	return append([]uint64(nil), tm.trunkRefs[parentID]...)
}

// BranchReferences returns the children of parentID that reference it as
// branch.
func (tm *TransactionMapper) BranchReferences(parentID uint64) []uint64 {
	tm.refMu.Lock()
	defer tm.refMu.Unlock()
	return append([]uint64(nil), tm.branchRefs[parentID]...)
}

// ChildrenOf returns the ids of all transactions that reference parentID as
// trunk or branch, partitioned, for the Solidate worker.
func (tm *TransactionMapper) ChildrenOf(parentID uint64) (trunkChildren, branchChildren []uint64) {
	return tm.TrunkReferences(parentID), tm.BranchReferences(parentID)
}
