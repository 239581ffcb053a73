// Package counters allocates strictly increasing per-kind identifiers,
// seeded once from the store's high-water marks.
package counters

import (
	"context"
	"sync"
)

// Seeder reports the highest id already persisted for each entity kind, or
// 0 if the table is empty. Implemented by internal/store.
type Seeder interface {
	MaxTxID(ctx context.Context) (uint64, error)
	MaxAddressID(ctx context.Context) (uint64, error)
	MaxBundleID(ctx context.Context) (uint64, error)
}

// Counters is the triple (tx, address, bundle) of monotonic allocators.
// Each is independently locked; there is no rollback on allocation
// failure, gaps between restarts are acceptable.
type Counters struct {
	txMu  sync.Mutex
	tx    uint64
	addrMu sync.Mutex
	addr   uint64
	bndlMu sync.Mutex
	bndl   uint64
}

// New seeds all three counters from the store via seeder.
func New(ctx context.Context, seeder Seeder) (*Counters, error) {
	tx, err := seeder.MaxTxID(ctx)
	if err != nil {
		return nil, err
	}
	addr, err := seeder.MaxAddressID(ctx)
	if err != nil {
		return nil, err
	}
	bndl, err := seeder.MaxBundleID(ctx)
	if err != nil {
		return nil, err
	}
	return &Counters{tx: tx, addr: addr, bndl: bndl}, nil
}

// NextTx returns the next unused transaction id.
func (c *Counters) NextTx() uint64 {
	c.txMu.Lock()
	defer c.txMu.Unlock()
	c.tx++
	return c.tx
}

// NextAddress returns the next unused address id.
func (c *Counters) NextAddress() uint64 {
	c.addrMu.Lock()
	defer c.addrMu.Unlock()
	c.addr++
	return c.addr
}

// NextBundle returns the next unused bundle id.
func (c *Counters) NextBundle() uint64 {
	c.bndlMu.Lock()
	defer c.bndlMu.Unlock()
	c.bndl++
	return c.bndl
}
