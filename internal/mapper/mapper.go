// Package mapper implements the generic identity-caching layer: hash->id,
// id->record, with generation-based eviction and fine-grained per-record
// locking. See internal/mapper.TransactionMapper for the specialization
// that also tracks reverse trunk/branch reference lists.
package mapper

import (
	"context"
	"sort"
	"sync"

	"github.com/tangle-rdb/ingester/internal/errs"
	"github.com/tangle-rdb/ingester/internal/record"
)

// RowStore is the narrow slice of internal/store a Mapper needs for one
// entity kind. The mapper never builds SQL itself.
type RowStore[T record.Record] interface {
	SelectByID(ctx context.Context, id uint64) (T, error)
	SelectByHash(ctx context.Context, hash string) (T, error)
	// SelectByHashes returns whatever subset of hashes exists, in no
	// particular order. Used by fetch_triplet's single IN(...) query.
	SelectByHashes(ctx context.Context, hashes []string) ([]T, error)
	Insert(ctx context.Context, rec T) error
	Update(ctx context.Context, rec T) error
}

// Mapper is the generic hash/id identity cache. T is a concrete pointer
// record type (e.g. *record.Transaction) satisfying record.Record.
type Mapper[T record.Record] struct {
	mu      sync.Mutex
	records map[uint64]T
	hashes  map[string]uint64

	store       RowStore[T]
	nextID      func() uint64
	placeholder func(id uint64, hash string) T
	kind        string
}

// New builds a Mapper backed by store, allocating fresh ids via nextID and
// materializing missing parents via placeholder.
func New[T record.Record](kind string, store RowStore[T], nextID func() uint64, placeholder func(id uint64, hash string) T) *Mapper[T] {
	return &Mapper[T]{
		records:     make(map[uint64]T),
		hashes:      make(map[string]uint64),
		store:       store,
		nextID:      nextID,
		placeholder: placeholder,
		kind:        kind,
	}
}

// Kind returns the entity kind name, for logging.
func (m *Mapper[T]) Kind() string { return m.kind }

func (m *Mapper[T]) insertCached(rec T) {
	rec.Touch()
	m.records[rec.ID()] = rec
	m.hashes[rec.Hash()] = rec.ID()
}

// Fetch returns the locked record for id. If not cached, it is loaded from
// the store. Returns errs.ErrLocked if another worker already holds it and
// errs.ErrRecordNotFound if the store has no such row.
func (m *Mapper[T]) Fetch(ctx context.Context, id uint64) (T, error) {
	var zero T
	m.mu.Lock()
	if rec, ok := m.records[id]; ok {
		rec.Touch()
		if !rec.TryLock() {
			m.mu.Unlock()
			return zero, errs.ErrLocked
		}
		m.mu.Unlock()
		return rec, nil
	}
	m.mu.Unlock()

	rec, err := m.store.SelectByID(ctx, id)
	if err != nil {
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Another goroutine may have cached it while we were off doing I/O.
	if existing, ok := m.records[id]; ok {
		if !existing.TryLock() {
			return zero, errs.ErrLocked
		}
		existing.Touch()
		return existing, nil
	}
	rec.TryLock()
	m.insertCached(rec)
	return rec, nil
}

// FetchByHash resolves hash to a locked record, materializing a fresh
// placeholder (allocated but not yet written to the store) if the hash is
// unknown to both the cache and the store.
func (m *Mapper[T]) FetchByHash(ctx context.Context, hash string) (T, error) {
	var zero T
	m.mu.Lock()
	if id, ok := m.hashes[hash]; ok {
		rec := m.records[id]
		rec.Touch()
		if !rec.TryLock() {
			m.mu.Unlock()
			return zero, errs.ErrLocked
		}
		m.mu.Unlock()
		return rec, nil
	}
	m.mu.Unlock()

	rec, err := m.store.SelectByHash(ctx, hash)
	if err == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		if id, ok := m.hashes[hash]; ok {
			existing := m.records[id]
			if !existing.TryLock() {
				return zero, errs.ErrLocked
			}
			existing.Touch()
			return existing, nil
		}
		rec.TryLock()
		m.insertCached(rec)
		return rec, nil
	}
	if err != errs.ErrRecordNotFound {
		return zero, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.hashes[hash]; ok {
		existing := m.records[id]
		if !existing.TryLock() {
			return zero, errs.ErrLocked
		}
		existing.Touch()
		return existing, nil
	}
	fresh := m.placeholder(m.nextID(), hash)
	fresh.TryLock()
	m.insertCached(fresh)
	return fresh, nil
}

// FetchOrInsert is FetchByHash followed by an immediate Unlock, for callers
// (address/bundle resolution in the ingest worker) that only need the id,
// not continued exclusive access.
func (m *Mapper[T]) FetchOrInsert(ctx context.Context, hash string) (T, error) {
	rec, err := m.FetchByHash(ctx, hash)
	if err != nil {
		var zero T
		return zero, err
	}
	rec.Unlock()
	return rec, nil
}

// resolveIDs resolves the three hashes to ids, materializing placeholders for
// any unknown ones, without locking. Used by FetchTriplet to compute the
// deterministic lock order up front.
func (m *Mapper[T]) resolveIDs(ctx context.Context, hashes [3]string) ([3]uint64, error) {
	var ids [3]uint64
	var missing []string
	var missingIdx []int

	m.mu.Lock()
	for i, h := range hashes {
		if id, ok := m.hashes[h]; ok {
			ids[i] = id
			continue
		}
		missing = append(missing, h)
		missingIdx = append(missingIdx, i)
	}
	m.mu.Unlock()

	if len(missing) > 0 {
		rows, err := m.store.SelectByHashes(ctx, missing)
		if err != nil {
			return ids, err
		}
		found := make(map[string]T, len(rows))
		for _, r := range rows {
			found[r.Hash()] = r
		}
		m.mu.Lock()
		for _, i := range missingIdx {
			h := hashes[i]
			if id, ok := m.hashes[h]; ok {
				// raced with a concurrent fetch between unlock and relock
				ids[i] = id
				continue
			}
			if r, ok := found[h]; ok {
				m.insertCached(r)
				ids[i] = r.ID()
				continue
			}
			fresh := m.placeholder(m.nextID(), h)
			m.insertCached(fresh)
			ids[i] = fresh.ID()
		}
		m.mu.Unlock()
	}
	return ids, nil
}

// FetchTriplet resolves (selfHash, trunkHash, branchHash) to locked
// records in one pass. Lock acquisition is in strictly ascending id order
// to avoid the only deadlock this system can produce; on partial failure
// every lock taken so far is released and errs.ErrLocked is returned.
func (m *Mapper[T]) FetchTriplet(ctx context.Context, selfHash, trunkHash, branchHash string) (self, trunk, branch T, err error) {
	var zero T
	ids, err := m.resolveIDs(ctx, [3]string{selfHash, trunkHash, branchHash})
	if err != nil {
		return zero, zero, zero, err
	}

	order := []int{0, 1, 2}
	sort.Slice(order, func(a, b int) bool { return ids[order[a]] < ids[order[b]] })

	m.mu.Lock()
	locked := make([]T, 0, 3)
	var lockErr error
	for _, i := range order {
		rec := m.records[ids[i]]
		rec.Touch()
		if !rec.TryLock() {
			lockErr = errs.ErrLocked
			break
		}
		locked = append(locked, rec)
	}
	if lockErr != nil {
		for j := len(locked) - 1; j >= 0; j-- {
			locked[j].Unlock()
		}
		m.mu.Unlock()
		return zero, zero, zero, lockErr
	}
	result := [3]T{m.records[ids[0]], m.records[ids[1]], m.records[ids[2]]}
	m.mu.Unlock()
	return result[0], result[1], result[2], nil
}

// Flush writes every dirty record to the store: unpersisted records are
// INSERTed, persisted-but-modified records are UPDATEd. Returns the number
// of rows written.
func (m *Mapper[T]) Flush(ctx context.Context) (int, error) {
	m.mu.Lock()
	pending := make([]T, 0, len(m.records))
	for _, rec := range m.records {
		if !rec.IsPersisted() || rec.IsModified() {
			pending = append(pending, rec)
		}
	}
	m.mu.Unlock()

	count := 0
	for _, rec := range pending {
		if !rec.IsPersisted() {
			if err := m.store.Insert(ctx, rec); err != nil {
				return count, err
			}
			rec.SetPersisted(true)
			rec.SetModified(false)
			count++
			continue
		}
		if rec.IsModified() {
			if err := m.store.Update(ctx, rec); err != nil {
				return count, err
			}
			rec.SetModified(false)
			count++
		}
	}
	return count, nil
}

// Prune increments the generation of every clean, unlocked record and
// evicts any whose generation exceeds limit. Dirty or locked records are
// skipped and have their generation reset, so they are never evicted out
// from under a pending flush or an in-progress worker. Returns the
// eviction count.
func (m *Mapper[T]) Prune(limit uint32) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, rec := range m.records {
		if rec.IsModified() || rec.IsLocked() {
			rec.Touch()
			continue
		}
		rec.SetGeneration(rec.Generation() + 1)
		if rec.Generation() > limit {
			delete(m.records, id)
			delete(m.hashes, rec.Hash())
			evicted++
		}
	}
	return evicted
}

// Len reports the number of cached records, for tests and metrics.
func (m *Mapper[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
