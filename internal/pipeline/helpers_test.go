package pipeline

import (
	"context"

	"github.com/tangle-rdb/ingester/internal/errs"
	"github.com/tangle-rdb/ingester/internal/record"
)

// fakeTxStore, fakeAddressStore and fakeBundleStore are minimal in-memory
// RowStore implementations, mirroring the teacher's in-memory storage
// backend used for fast unit tests alongside its sqlite one.

type fakeTxStore struct {
	byID   map[uint64]*record.Transaction
	byHash map[string]*record.Transaction

	approveCalls []uint64
	trunkCalls   []uint64
	branchCalls  []uint64
}

func newFakeTxStore() *fakeTxStore {
	return &fakeTxStore{byID: map[uint64]*record.Transaction{}, byHash: map[string]*record.Transaction{}}
}

// ApproveTransaction, SolidateTrunk and SolidateBranch implement
// mapper.TxDirectWriter, recording calls so tests can assert the Approve
// and Solidate workers reach for the narrow per-transition write instead
// of relying solely on the scheduler's deferred Flush.
func (s *fakeTxStore) ApproveTransaction(_ context.Context, idTx uint64) error {
	s.approveCalls = append(s.approveCalls, idTx)
	return nil
}

func (s *fakeTxStore) SolidateTrunk(_ context.Context, idTx uint64, _ uint8, _ int32) error {
	s.trunkCalls = append(s.trunkCalls, idTx)
	return nil
}

func (s *fakeTxStore) SolidateBranch(_ context.Context, idTx uint64, _ uint8) error {
	s.branchCalls = append(s.branchCalls, idTx)
	return nil
}

func (s *fakeTxStore) SelectByID(_ context.Context, id uint64) (*record.Transaction, error) {
	if rec, ok := s.byID[id]; ok {
		return rec, nil
	}
	return nil, errs.ErrRecordNotFound
}

func (s *fakeTxStore) SelectByHash(_ context.Context, hash string) (*record.Transaction, error) {
	if rec, ok := s.byHash[hash]; ok {
		return rec, nil
	}
	return nil, errs.ErrRecordNotFound
}

func (s *fakeTxStore) SelectByHashes(_ context.Context, hashes []string) ([]*record.Transaction, error) {
	var out []*record.Transaction
	for _, h := range hashes {
		if rec, ok := s.byHash[h]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeTxStore) Insert(_ context.Context, rec *record.Transaction) error {
	s.byID[rec.ID()] = rec
	s.byHash[rec.Hash()] = rec
	return nil
}

func (s *fakeTxStore) Update(_ context.Context, rec *record.Transaction) error {
	s.byID[rec.ID()] = rec
	s.byHash[rec.Hash()] = rec
	return nil
}

type fakeAddressStore struct {
	byID   map[uint64]*record.Address
	byHash map[string]*record.Address
}

func newFakeAddressStore() *fakeAddressStore {
	return &fakeAddressStore{byID: map[uint64]*record.Address{}, byHash: map[string]*record.Address{}}
}

func (s *fakeAddressStore) SelectByID(_ context.Context, id uint64) (*record.Address, error) {
	if rec, ok := s.byID[id]; ok {
		return rec, nil
	}
	return nil, errs.ErrRecordNotFound
}

func (s *fakeAddressStore) SelectByHash(_ context.Context, hash string) (*record.Address, error) {
	if rec, ok := s.byHash[hash]; ok {
		return rec, nil
	}
	return nil, errs.ErrRecordNotFound
}

func (s *fakeAddressStore) SelectByHashes(_ context.Context, hashes []string) ([]*record.Address, error) {
	var out []*record.Address
	for _, h := range hashes {
		if rec, ok := s.byHash[h]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeAddressStore) Insert(_ context.Context, rec *record.Address) error {
	s.byID[rec.ID()] = rec
	s.byHash[rec.Hash()] = rec
	return nil
}

func (s *fakeAddressStore) Update(_ context.Context, rec *record.Address) error {
	s.byID[rec.ID()] = rec
	s.byHash[rec.Hash()] = rec
	return nil
}

type fakeBundleStore struct {
	byID   map[uint64]*record.Bundle
	byHash map[string]*record.Bundle
}

func newFakeBundleStore() *fakeBundleStore {
	return &fakeBundleStore{byID: map[uint64]*record.Bundle{}, byHash: map[string]*record.Bundle{}}
}

func (s *fakeBundleStore) SelectByID(_ context.Context, id uint64) (*record.Bundle, error) {
	if rec, ok := s.byID[id]; ok {
		return rec, nil
	}
	return nil, errs.ErrRecordNotFound
}

func (s *fakeBundleStore) SelectByHash(_ context.Context, hash string) (*record.Bundle, error) {
	if rec, ok := s.byHash[hash]; ok {
		return rec, nil
	}
	return nil, errs.ErrRecordNotFound
}

func (s *fakeBundleStore) SelectByHashes(_ context.Context, hashes []string) ([]*record.Bundle, error) {
	var out []*record.Bundle
	for _, h := range hashes {
		if rec, ok := s.byHash[h]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeBundleStore) Insert(_ context.Context, rec *record.Bundle) error {
	s.byID[rec.ID()] = rec
	s.byHash[rec.Hash()] = rec
	return nil
}

func (s *fakeBundleStore) Update(_ context.Context, rec *record.Bundle) error {
	s.byID[rec.ID()] = rec
	s.byHash[rec.Hash()] = rec
	return nil
}

// fakeEventSink records every Emit call for assertions, in place of the
// durable+Prometheus pipeline.Recorder.
type fakeEventSink struct {
	calls []fakeEvent
}

type fakeEvent struct {
	Tag   string
	Count int
}

func (s *fakeEventSink) Emit(tag string, count int) {
	s.calls = append(s.calls, fakeEvent{Tag: tag, Count: count})
}

func (s *fakeEventSink) countOf(tag string) int {
	total := 0
	for _, c := range s.calls {
		if c.Tag == tag {
			total += c.Count
		}
	}
	return total
}
