package mapper

import "testing"

func newTestTransactionMapper() *TransactionMapper {
	store := newFakeTxStore()
	var next uint64
	nextID := func() uint64 { next++; return next }
	return NewTransactionMapper(store, nextID)
}

func TestLinkParentsIgnoresZeroIDs(t *testing.T) {
	tm := newTestTransactionMapper()

	tm.LinkParents(5, 1, 0)
	tm.LinkParents(6, 1, 2)

	trunkChildren := tm.TrunkReferences(1)
	if len(trunkChildren) != 2 || trunkChildren[0] != 5 || trunkChildren[1] != 6 {
		t.Fatalf("expected trunk children [5 6], got %v", trunkChildren)
	}

	branchChildren := tm.BranchReferences(2)
	if len(branchChildren) != 1 || branchChildren[0] != 6 {
		t.Fatalf("expected branch children [6], got %v", branchChildren)
	}

	if len(tm.BranchReferences(0)) != 0 {
		t.Fatalf("a zero parent id must never accumulate children")
	}
}

func TestChildrenOfPartitionsTrunkAndBranch(t *testing.T) {
	tm := newTestTransactionMapper()
	tm.LinkParents(10, 1, 1)
	tm.LinkParents(11, 2, 1)

	trunkChildren, branchChildren := tm.ChildrenOf(1)
	if len(trunkChildren) != 1 || trunkChildren[0] != 10 {
		t.Fatalf("expected trunk children [10], got %v", trunkChildren)
	}
	if len(branchChildren) != 2 {
		t.Fatalf("expected two branch children referencing parent 1, got %v", branchChildren)
	}
}

func TestReferenceSnapshotIsNotAliased(t *testing.T) {
	tm := newTestTransactionMapper()
	tm.LinkParents(1, 9, 0)

	snapshot := tm.TrunkReferences(9)
	snapshot[0] = 999

	if got := tm.TrunkReferences(9); got[0] != 1 {
		t.Fatalf("mutating a returned snapshot must not affect the mapper's internal state, got %v", got)
	}
}
