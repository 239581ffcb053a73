package store

import "context"

// Stores bundles one instance of each per-entity store plus the event
// stream, opened against a single *DB. cmd/tangle-rdb wires this into the
// mapper and counters layers.
type Stores struct {
	DB      *DB
	Tx      *TxStore
	Address *AddressStore
	Bundle  *BundleStore
	Event   *EventStore
}

// Open connects, migrates the schema, and builds every per-entity store.
func Open(ctx context.Context, cfg Config) (*Stores, error) {
	db, err := openAndMigrate(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Stores{
		DB:      db,
		Tx:      NewTxStore(db),
		Address: NewAddressStore(db),
		Bundle:  NewBundleStore(db),
		Event:   NewEventStore(db),
	}, nil
}

func openAndMigrate(ctx context.Context, cfg Config) (*DB, error) {
	db, err := open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// MaxTxID, MaxAddressID, and MaxBundleID implement internal/counters.Seeder
// by delegating to the corresponding per-entity store.
func (s *Stores) MaxTxID(ctx context.Context) (uint64, error)      { return s.Tx.MaxTxID(ctx) }
func (s *Stores) MaxAddressID(ctx context.Context) (uint64, error) { return s.Address.MaxAddressID(ctx) }
func (s *Stores) MaxBundleID(ctx context.Context) (uint64, error)  { return s.Bundle.MaxBundleID(ctx) }

// Close shuts down the underlying connection pool.
func (s *Stores) Close() error { return s.DB.Close() }
