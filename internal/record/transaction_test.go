package record

import "testing"

func TestSolidMaskNeverLosesBits(t *testing.T) {
	tx := NewTransactionPlaceholder(1, "HASH", SolidNone)

	if changed := tx.SetSolid(SolidTrunk); !changed {
		t.Fatalf("expected first SetSolid to report a change")
	}
	if tx.Solid() != SolidTrunk {
		t.Fatalf("expected solid=trunk, got %02b", tx.Solid())
	}

	if changed := tx.SetSolid(SolidTrunk); changed {
		t.Fatalf("re-setting the same bit should report no change")
	}

	if changed := tx.SetSolid(SolidBranch); !changed {
		t.Fatalf("expected branch bit to merge in as a change")
	}
	if tx.Solid() != SolidFull {
		t.Fatalf("expected solid=full after OR-ing both bits, got %02b", tx.Solid())
	}

	// Once full, nothing can clear it back down.
	if changed := tx.SetSolid(SolidNone); changed {
		t.Fatalf("SetSolid(SolidNone) must never report a change or clear bits")
	}
	if tx.Solid() != SolidFull {
		t.Fatalf("solid mask must stay full, got %02b", tx.Solid())
	}
}

func TestApproveIsMonotone(t *testing.T) {
	tx := NewTransactionPlaceholder(1, "HASH", SolidNone)
	if tx.MilestoneApproved() {
		t.Fatalf("new transaction must start unapproved")
	}

	tx.Approve()
	if !tx.MilestoneApproved() || !tx.IsModified() {
		t.Fatalf("Approve should set mst_a and mark modified")
	}

	tx.SetModified(false)
	tx.Approve()
	if tx.IsModified() {
		t.Fatalf("approving an already-approved transaction must be a no-op")
	}
}

func TestAddWeightAccumulates(t *testing.T) {
	tx := NewTransactionPlaceholder(1, "HASH", SolidNone)
	tx.AddWeight(1.0)
	tx.AddWeight(2.5)
	if tx.Weight() != 3.5 {
		t.Fatalf("expected cumulative weight 3.5, got %v", tx.Weight())
	}
}

func TestPopulateFromMessageApprovesMilestones(t *testing.T) {
	tx := NewTransactionPlaceholder(1, "HASH", SolidNone)
	tx.PopulateFromMessage(10, 20, "TAG", 100, 1000, 0, 2, true)

	if tx.IDAddress() != 10 || tx.IDBundle() != 20 || tx.Tag() != "TAG" {
		t.Fatalf("expected columns to be populated from the message")
	}
	if !tx.IsMilestone() || !tx.MilestoneApproved() {
		t.Fatalf("a milestone message must set both is_milestone and mst_a")
	}
}

func TestPopulateFromMessageNonMilestoneLeavesApprovalUnset(t *testing.T) {
	tx := NewTransactionPlaceholder(1, "HASH", SolidNone)
	tx.PopulateFromMessage(10, 20, "TAG", 100, 1000, 0, 2, false)

	if tx.MilestoneApproved() {
		t.Fatalf("a non-milestone message must not approve the transaction")
	}
}

func TestNewTransactionPlaceholderIsUnpersistedAndModified(t *testing.T) {
	tx := NewTransactionPlaceholder(7, "HASH", SolidTrunk)
	if tx.IsPersisted() {
		t.Fatalf("a placeholder must start unpersisted")
	}
	if !tx.IsModified() {
		t.Fatalf("a placeholder must start modified so it gets flushed")
	}
	if tx.ID() != 7 || tx.Hash() != "HASH" || tx.Solid() != SolidTrunk {
		t.Fatalf("placeholder fields were not set as requested")
	}
}

func TestToRowRoundTrip(t *testing.T) {
	row := TransactionRow{
		Hash: "H", IDTx: 1, IDTrunk: 2, IDBranch: 3, IDAddress: 4, IDBundle: 5,
		Tag: "TAG", Value: 9, Timestamp: 123.0, CurrIdx: 0, LastIdx: 1,
		DA: 2, Height: 3, IsMst: true, MstA: true, Solid: SolidFull, Weight: 1.5,
	}
	tx := NewTransactionFromRow(row)
	if !tx.IsPersisted() || tx.IsModified() {
		t.Fatalf("a record built from a stored row must be persisted and clean")
	}
	if got := tx.ToRow(); got != row {
		t.Fatalf("ToRow did not round-trip: got %+v, want %+v", got, row)
	}
}
