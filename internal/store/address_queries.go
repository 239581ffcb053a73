package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tangle-rdb/ingester/internal/errs"
	"github.com/tangle-rdb/ingester/internal/record"
)

const addressSelectQuery = `SELECT address, id_address, checksum FROM address`

const addressInsertQuery = `INSERT INTO address (address, id_address, checksum) VALUES (?, ?, ?)`
const addressUpdateQuery = `UPDATE address SET checksum = ? WHERE id_address = ?`

// AddressStore implements internal/mapper.RowStore[*record.Address].
type AddressStore struct{ db *DB }

// NewAddressStore wraps db for address row access.
func NewAddressStore(db *DB) *AddressStore { return &AddressStore{db: db} }

func scanAddressRow(scan func(dest ...any) error) (*record.Address, error) {
	var (
		address  string
		idAddr   uint64
		checksum sql.NullString
	)
	if err := scan(&address, &idAddr, &checksum); err != nil {
		return nil, err
	}
	return record.NewAddressFromRow(address, idAddr, checksum.String), nil
}

// SelectByID fetches one address by id.
func (s *AddressStore) SelectByID(ctx context.Context, id uint64) (*record.Address, error) {
	var rec *record.Address
	err := s.db.withRetry(ctx, func() error {
		row := s.db.sql.QueryRowContext(ctx, addressSelectQuery+" WHERE id_address = ?", id)
		r, err := scanAddressRow(row.Scan)
		if err == sql.ErrNoRows {
			return errs.ErrRecordNotFound
		}
		if err != nil {
			return errs.Store("address.select_by_id", err)
		}
		rec = r
		return nil
	})
	return rec, err
}

// SelectByHash fetches one address by its hash.
func (s *AddressStore) SelectByHash(ctx context.Context, hash string) (*record.Address, error) {
	var rec *record.Address
	err := s.db.withRetry(ctx, func() error {
		row := s.db.sql.QueryRowContext(ctx, addressSelectQuery+" WHERE address = ?", hash)
		r, err := scanAddressRow(row.Scan)
		if err == sql.ErrNoRows {
			return errs.ErrRecordNotFound
		}
		if err != nil {
			return errs.Store("address.select_by_hash", err)
		}
		rec = r
		return nil
	})
	return rec, err
}

// SelectByHashes is unused by the address mapper (addresses are resolved
// one at a time, not as a triplet) but is required to satisfy RowStore.
func (s *AddressStore) SelectByHashes(ctx context.Context, hashes []string) ([]*record.Address, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(hashes)), ",")
	args := make([]any, len(hashes))
	for i, h := range hashes {
		args[i] = h
	}
	var out []*record.Address
	err := s.db.withRetry(ctx, func() error {
		out = nil
		rows, err := s.db.sql.QueryContext(ctx, fmt.Sprintf("%s WHERE address IN (%s)", addressSelectQuery, placeholders), args...)
		if err != nil {
			return errs.Store("address.select_by_hashes", err)
		}
		defer rows.Close()
		for rows.Next() {
			r, err := scanAddressRow(rows.Scan)
			if err != nil {
				return errs.Store("address.select_by_hashes.scan", err)
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

// Insert writes a brand new address row.
func (s *AddressStore) Insert(ctx context.Context, rec *record.Address) error {
	return s.db.withRetry(ctx, func() error {
		_, err := s.db.sql.ExecContext(ctx, addressInsertQuery, rec.Hash(), rec.ID(), rec.Checksum())
		if err != nil {
			return errs.Store("address.insert", err)
		}
		return nil
	})
}

// Update writes the checksum column; in practice never called because
// checksum is write-once, but required to satisfy RowStore.
func (s *AddressStore) Update(ctx context.Context, rec *record.Address) error {
	return s.db.withRetry(ctx, func() error {
		_, err := s.db.sql.ExecContext(ctx, addressUpdateQuery, rec.Checksum(), rec.ID())
		if err != nil {
			return errs.Store("address.update", err)
		}
		return nil
	})
}

// MaxAddressID seeds the address counter from the highest persisted id.
func (s *AddressStore) MaxAddressID(ctx context.Context) (uint64, error) {
	var max uint64
	err := s.db.withRetry(ctx, func() error {
		row := s.db.sql.QueryRowContext(ctx, `SELECT COALESCE(MAX(id_address), 0) FROM address`)
		if err := row.Scan(&max); err != nil {
			return errs.Store("address.max_id", err)
		}
		return nil
	})
	return max, err
}
