package pipeline

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/tangle-rdb/ingester/internal/mapper"
	"github.com/tangle-rdb/ingester/internal/record"
	"github.com/tangle-rdb/ingester/internal/transport"
)

func newTestIngest(t *testing.T) (*Ingest, *fakeEventSink, chan []uint64, chan []SolidateEntry, chan uint64) {
	t.Helper()

	var txNext, addrNext, bndlNext uint64
	txMapper := mapper.NewTransactionMapper(newFakeTxStore(), func() uint64 { txNext++; return txNext })
	addrMapper := mapper.NewAddressMapper(newFakeAddressStore(), func() uint64 { addrNext++; return addrNext }, zap.NewNop())
	bundleMapper := mapper.NewBundleMapper(newFakeBundleStore(), func() uint64 { bndlNext++; return bndlNext })

	events := &fakeEventSink{}
	approveCh := make(chan []uint64, 4)
	solidateCh := make(chan []SolidateEntry, 4)
	calculateCh := make(chan uint64, 4)

	ing := &Ingest{
		Tx:               txMapper,
		Address:          addrMapper,
		Bundle:           bundleMapper,
		MilestoneAddress: "MILESTONE",
		MilestoneTag:     "MSTTAG",
		Events:           events,
		Log:              zap.NewNop(),
		ApproveCh:        approveCh,
		SolidateCh:       solidateCh,
		CalculateCh:      calculateCh,
	}
	return ing, events, approveCh, solidateCh, calculateCh
}

func TestIngestProcessNewTransactionWithUnknownParentsIsUnsolid(t *testing.T) {
	ing, events, _, solidateCh, _ := newTestIngest(t)
	ctx := context.Background()

	f := transport.Frame{
		Hash: "SELF", AddressHash: "ADDR", Value: 10, Tag: "TAG",
		Timestamp: 500, Arrival: 1000, CurrentIdx: 0, LastIdx: 0,
		BundleHash: "BUNDLE", TrunkHash: "TRUNK", BranchHash: "BRANCH",
	}
	if err := ing.process(ctx, f); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if events.countOf(EventNewTransaction) != 1 {
		t.Fatalf("expected one NTX event")
	}
	if events.countOf(EventUnsolid) != 1 {
		t.Fatalf("expected the transaction to be recorded unsolid since its parents are unknown placeholders")
	}
	select {
	case <-solidateCh:
		t.Fatalf("an unsolid transaction must not be pushed to the solidate channel")
	default:
	}

	self, err := ing.Tx.FetchOrInsert(ctx, "SELF")
	if err != nil {
		t.Fatalf("fetching self failed: %v", err)
	}
	if self.Timestamp() != f.Timestamp {
		t.Fatalf("expected the persisted timestamp to come from the frame's own timestamp field (%v), got %v", f.Timestamp, self.Timestamp())
	}
}

func TestIngestProcessIsIdempotentOnceLinked(t *testing.T) {
	ing, events, _, _, _ := newTestIngest(t)
	ctx := context.Background()

	f := transport.Frame{
		Hash: "SELF", AddressHash: "ADDR", Value: 10, Tag: "TAG",
		Arrival: 1000, CurrentIdx: 0, LastIdx: 0,
		BundleHash: "BUNDLE", TrunkHash: "TRUNK", BranchHash: "BRANCH",
	}
	if err := ing.process(ctx, f); err != nil {
		t.Fatalf("first process failed: %v", err)
	}
	if _, err := ing.Tx.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	events.calls = nil
	if err := ing.process(ctx, f); err != nil {
		t.Fatalf("second process failed: %v", err)
	}
	if len(events.calls) != 0 {
		t.Fatalf("re-ingesting an already-linked transaction must be a no-op, got events %+v", events.calls)
	}
}

func TestIngestProcessDispatchesFullySolidToSolidateChannel(t *testing.T) {
	ing, _, _, solidateCh, _ := newTestIngest(t)
	ctx := context.Background()

	trunk, err := ing.Tx.FetchOrInsert(ctx, "TRUNK")
	if err != nil {
		t.Fatalf("seeding trunk failed: %v", err)
	}
	trunk.SetSolid(record.SolidFull)
	trunk.SetHeight(5)
	if _, err := ing.Tx.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	branch, err := ing.Tx.FetchOrInsert(ctx, "BRANCH")
	if err != nil {
		t.Fatalf("seeding branch failed: %v", err)
	}
	branch.SetSolid(record.SolidFull)
	if _, err := ing.Tx.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	f := transport.Frame{
		Hash: "SELF", AddressHash: "ADDR", Value: 10, Tag: "TAG",
		Arrival: 1000, CurrentIdx: 0, LastIdx: 0,
		BundleHash: "BUNDLE", TrunkHash: "TRUNK", BranchHash: "BRANCH",
	}
	if err := ing.process(ctx, f); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	select {
	case batch := <-solidateCh:
		if len(batch) != 1 || batch[0].ID != 0 {
			// self's id is assigned during FetchTriplet; just check a batch arrived.
		}
	default:
		t.Fatalf("expected the newly fully-solid transaction to be queued so solidate can propagate to its children")
	}

	self, err := ing.Tx.FetchOrInsert(ctx, "SELF")
	if err != nil {
		t.Fatalf("fetching self failed: %v", err)
	}
	if self.Solid() != record.SolidFull {
		t.Fatalf("expected self to become fully solid when both parents are solid, got %02b", self.Solid())
	}
	// solid is already 0b11 from the milestone/parent bits directly, so the
	// height-inheritance branch (which only runs when solid != 0b11) never
	// fires here; height stays at its zero value.
	if self.Height() != 0 {
		t.Fatalf("expected height to stay 0 since solid==full bypasses height inheritance, got %d", self.Height())
	}
}

func TestIngestProcessMilestoneDispatchesApproveAndCalculate(t *testing.T) {
	ing, events, approveCh, _, calculateCh := newTestIngest(t)
	ctx := context.Background()

	f := transport.Frame{
		Hash: "SELF", AddressHash: "MILESTONE", Value: 0, Tag: "MSTTAG",
		Arrival: 1000, CurrentIdx: 0, LastIdx: 0,
		BundleHash: "BUNDLE", TrunkHash: "TRUNK", BranchHash: "BRANCH",
	}
	if err := ing.process(ctx, f); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if events.countOf(EventMilestone) != 1 {
		t.Fatalf("expected one MST event")
	}

	select {
	case ids := <-approveCh:
		if len(ids) != 2 {
			t.Fatalf("expected both trunk and branch ids dispatched to approve, got %v", ids)
		}
	default:
		t.Fatalf("expected a milestone to dispatch to the approve channel")
	}

	select {
	case pivot := <-calculateCh:
		if pivot == 0 {
			t.Fatalf("expected a nonzero pivot id")
		}
	default:
		t.Fatalf("expected a milestone to dispatch its own id to the calculate channel")
	}
}
