package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tangle-rdb/ingester/internal/errs"
	"github.com/tangle-rdb/ingester/internal/record"
)

const bundleSelectQuery = `SELECT bundle, id_bundle, created, size, confirmed FROM bundle`

const bundleInsertQuery = `INSERT INTO bundle (bundle, id_bundle, created, size, confirmed) VALUES (?, ?, ?, ?, ?)`
const bundleUpdateQuery = `UPDATE bundle SET created = ?, size = ?, confirmed = ? WHERE id_bundle = ?`

// BundleStore implements internal/mapper.RowStore[*record.Bundle].
type BundleStore struct{ db *DB }

// NewBundleStore wraps db for bundle row access.
func NewBundleStore(db *DB) *BundleStore { return &BundleStore{db: db} }

func scanBundleRow(scan func(dest ...any) error) (*record.Bundle, error) {
	var (
		bundle              string
		idBundle            uint64
		created, confirmed  sql.NullFloat64
		size                sql.NullInt64
	)
	if err := scan(&bundle, &idBundle, &created, &size, &confirmed); err != nil {
		return nil, err
	}
	return record.NewBundleFromRow(bundle, idBundle, created.Float64, int32(size.Int64), confirmed.Float64), nil
}

// SelectByID fetches one bundle by id.
func (s *BundleStore) SelectByID(ctx context.Context, id uint64) (*record.Bundle, error) {
	var rec *record.Bundle
	err := s.db.withRetry(ctx, func() error {
		row := s.db.sql.QueryRowContext(ctx, bundleSelectQuery+" WHERE id_bundle = ?", id)
		r, err := scanBundleRow(row.Scan)
		if err == sql.ErrNoRows {
			return errs.ErrRecordNotFound
		}
		if err != nil {
			return errs.Store("bundle.select_by_id", err)
		}
		rec = r
		return nil
	})
	return rec, err
}

// SelectByHash fetches one bundle by its hash.
func (s *BundleStore) SelectByHash(ctx context.Context, hash string) (*record.Bundle, error) {
	var rec *record.Bundle
	err := s.db.withRetry(ctx, func() error {
		row := s.db.sql.QueryRowContext(ctx, bundleSelectQuery+" WHERE bundle = ?", hash)
		r, err := scanBundleRow(row.Scan)
		if err == sql.ErrNoRows {
			return errs.ErrRecordNotFound
		}
		if err != nil {
			return errs.Store("bundle.select_by_hash", err)
		}
		rec = r
		return nil
	})
	return rec, err
}

// SelectByHashes is unused by the bundle mapper but required by RowStore.
func (s *BundleStore) SelectByHashes(ctx context.Context, hashes []string) ([]*record.Bundle, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(hashes)), ",")
	args := make([]any, len(hashes))
	for i, h := range hashes {
		args[i] = h
	}
	var out []*record.Bundle
	err := s.db.withRetry(ctx, func() error {
		out = nil
		rows, err := s.db.sql.QueryContext(ctx, fmt.Sprintf("%s WHERE bundle IN (%s)", bundleSelectQuery, placeholders), args...)
		if err != nil {
			return errs.Store("bundle.select_by_hashes", err)
		}
		defer rows.Close()
		for rows.Next() {
			r, err := scanBundleRow(rows.Scan)
			if err != nil {
				return errs.Store("bundle.select_by_hashes.scan", err)
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

// Insert writes a brand new bundle row.
func (s *BundleStore) Insert(ctx context.Context, rec *record.Bundle) error {
	return s.db.withRetry(ctx, func() error {
		_, err := s.db.sql.ExecContext(ctx, bundleInsertQuery, rec.Hash(), rec.ID(), rec.Created(), rec.Size(), rec.Confirmed())
		if err != nil {
			return errs.Store("bundle.insert", err)
		}
		return nil
	})
}

// Update writes created/size/confirmed for an existing bundle row.
func (s *BundleStore) Update(ctx context.Context, rec *record.Bundle) error {
	return s.db.withRetry(ctx, func() error {
		_, err := s.db.sql.ExecContext(ctx, bundleUpdateQuery, rec.Created(), rec.Size(), rec.Confirmed(), rec.ID())
		if err != nil {
			return errs.Store("bundle.update", err)
		}
		return nil
	})
}

// MaxBundleID seeds the bundle counter from the highest persisted id.
func (s *BundleStore) MaxBundleID(ctx context.Context) (uint64, error) {
	var max uint64
	err := s.db.withRetry(ctx, func() error {
		row := s.db.sql.QueryRowContext(ctx, `SELECT COALESCE(MAX(id_bundle), 0) FROM bundle`)
		if err := row.Scan(&max); err != nil {
			return errs.Store("bundle.max_id", err)
		}
		return nil
	})
	return max, err
}
