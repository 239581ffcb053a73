package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tangle-rdb/ingester/internal/errs"
	"github.com/tangle-rdb/ingester/internal/record"
)

const txSelectColumns = `
	hash, id_tx, id_trunk, id_branch, id_address, id_bundle, tag, value,
	timestamp, current_idx, last_idx, da, height, is_mst, mst_a, solid, weight
`

const txSelectQuery = `SELECT` + txSelectColumns + `FROM tx`

const txInsertQuery = `
	INSERT INTO tx (
		hash, id_tx, id_trunk, id_branch, id_address, id_bundle, tag, value,
		timestamp, current_idx, last_idx, da, height, is_mst, mst_a, solid, weight
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const txUpdateQuery = `
	UPDATE tx SET
		id_trunk = ?, id_branch = ?, id_address = ?, id_bundle = ?, tag = ?,
		value = ?, timestamp = ?, current_idx = ?, last_idx = ?, da = ?,
		height = ?, is_mst = ?, mst_a = ?, solid = ?, weight = ?
	WHERE id_tx = ?
`

// TxStore implements internal/mapper.RowStore[*record.Transaction].
type TxStore struct{ db *DB }

// NewTxStore wraps db for transaction row access.
func NewTxStore(db *DB) *TxStore { return &TxStore{db: db} }

func scanTxRow(scan func(dest ...any) error) (*record.Transaction, error) {
	var (
		hash                                    string
		idTx, idTrunk, idBranch, idAddr, idBndl  uint64
		tag                                      sql.NullString
		value                                    sql.NullInt64
		timestamp, weight                        sql.NullFloat64
		currIdx, lastIdx, da, height              sql.NullInt64
		isMst, mstA                              sql.NullBool
		solid                                     sql.NullInt64
	)
	if err := scan(&hash, &idTx, &idTrunk, &idBranch, &idAddr, &idBndl, &tag,
		&value, &timestamp, &currIdx, &lastIdx, &da, &height, &isMst, &mstA,
		&solid, &weight); err != nil {
		return nil, err
	}
	row := record.TransactionRow{
		Hash: hash, IDTx: idTx, IDTrunk: idTrunk, IDBranch: idBranch,
		IDAddress: idAddr, IDBundle: idBndl,
		Tag:       tag.String,
		Value:     value.Int64,
		Timestamp: timestamp.Float64,
		CurrIdx:   int32(currIdx.Int64),
		LastIdx:   int32(lastIdx.Int64),
		DA:        int32(da.Int64),
		Height:    int32(height.Int64),
		IsMst:     isMst.Bool,
		MstA:      mstA.Bool,
		Solid:     uint8(solid.Int64),
		Weight:    weight.Float64,
	}
	return record.NewTransactionFromRow(row), nil
}

// SelectByID fetches one transaction by its process-assigned id.
func (s *TxStore) SelectByID(ctx context.Context, id uint64) (*record.Transaction, error) {
	var rec *record.Transaction
	err := s.db.withRetry(ctx, func() error {
		row := s.db.sql.QueryRowContext(ctx, txSelectQuery+" WHERE id_tx = ?", id)
		r, err := scanTxRow(row.Scan)
		if err == sql.ErrNoRows {
			return errs.ErrRecordNotFound
		}
		if err != nil {
			return errs.Store("tx.select_by_id", err)
		}
		rec = r
		return nil
	})
	return rec, err
}

// SelectByHash fetches one transaction by its 81-character hash.
func (s *TxStore) SelectByHash(ctx context.Context, hash string) (*record.Transaction, error) {
	var rec *record.Transaction
	err := s.db.withRetry(ctx, func() error {
		row := s.db.sql.QueryRowContext(ctx, txSelectQuery+" WHERE hash = ?", hash)
		r, err := scanTxRow(row.Scan)
		if err == sql.ErrNoRows {
			return errs.ErrRecordNotFound
		}
		if err != nil {
			return errs.Store("tx.select_by_hash", err)
		}
		rec = r
		return nil
	})
	return rec, err
}

// SelectByHashes fetches up to three rows in one IN(...) query, the shape
// fetch_triplet needs.
func (s *TxStore) SelectByHashes(ctx context.Context, hashes []string) ([]*record.Transaction, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(hashes)), ",")
	args := make([]any, len(hashes))
	for i, h := range hashes {
		args[i] = h
	}

	var out []*record.Transaction
	err := s.db.withRetry(ctx, func() error {
		out = nil
		rows, err := s.db.sql.QueryContext(ctx, fmt.Sprintf("%s WHERE hash IN (%s)", txSelectQuery, placeholders), args...)
		if err != nil {
			return errs.Store("tx.select_by_hashes", err)
		}
		defer rows.Close()
		for rows.Next() {
			r, err := scanTxRow(rows.Scan)
			if err != nil {
				return errs.Store("tx.select_by_hashes.scan", err)
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

// Insert writes a brand new transaction row.
func (s *TxStore) Insert(ctx context.Context, rec *record.Transaction) error {
	row := rec.ToRow()
	return s.db.withRetry(ctx, func() error {
		_, err := s.db.sql.ExecContext(ctx, txInsertQuery,
			row.Hash, row.IDTx, row.IDTrunk, row.IDBranch, row.IDAddress, row.IDBundle,
			row.Tag, row.Value, row.Timestamp, row.CurrIdx, row.LastIdx, row.DA,
			row.Height, row.IsMst, row.MstA, row.Solid, row.Weight)
		if err != nil {
			return errs.Store("tx.insert", err)
		}
		return nil
	})
}

// Update writes every mutable column of an existing transaction row.
func (s *TxStore) Update(ctx context.Context, rec *record.Transaction) error {
	row := rec.ToRow()
	return s.db.withRetry(ctx, func() error {
		_, err := s.db.sql.ExecContext(ctx, txUpdateQuery,
			row.IDTrunk, row.IDBranch, row.IDAddress, row.IDBundle, row.Tag,
			row.Value, row.Timestamp, row.CurrIdx, row.LastIdx, row.DA,
			row.Height, row.IsMst, row.MstA, row.Solid, row.Weight, row.IDTx)
		if err != nil {
			return errs.Store("tx.update", err)
		}
		return nil
	})
}

// ApproveTransaction sets mst_a without a full read-modify-write round
// trip, matching the Approve worker's per-node traversal.
func (s *TxStore) ApproveTransaction(ctx context.Context, idTx uint64) error {
	return s.db.withRetry(ctx, func() error {
		_, err := s.db.sql.ExecContext(ctx, `UPDATE tx SET mst_a = 1 WHERE id_tx = ?`, idTx)
		if err != nil {
			return errs.Store("tx.approve_transaction", err)
		}
		return nil
	})
}

// SolidateTrunk sets the trunk-solid bit and height on a child row,
// matching the Solidate worker's trunk partition.
func (s *TxStore) SolidateTrunk(ctx context.Context, idTx uint64, solid uint8, height int32) error {
	return s.db.withRetry(ctx, func() error {
		_, err := s.db.sql.ExecContext(ctx, `UPDATE tx SET solid = ?, height = ? WHERE id_tx = ?`, solid, height, idTx)
		if err != nil {
			return errs.Store("tx.solidate_trunk", err)
		}
		return nil
	})
}

// SolidateBranch sets the branch-solid bit only; no height change.
func (s *TxStore) SolidateBranch(ctx context.Context, idTx uint64, solid uint8) error {
	return s.db.withRetry(ctx, func() error {
		_, err := s.db.sql.ExecContext(ctx, `UPDATE tx SET solid = ? WHERE id_tx = ?`, solid, idTx)
		if err != nil {
			return errs.Store("tx.solidate_branch", err)
		}
		return nil
	})
}

// MaxTxID seeds the tx counter from the highest persisted id, or 0.
func (s *TxStore) MaxTxID(ctx context.Context) (uint64, error) {
	var max uint64
	err := s.db.withRetry(ctx, func() error {
		row := s.db.sql.QueryRowContext(ctx, `SELECT COALESCE(MAX(id_tx), 0) FROM tx`)
		if err := row.Scan(&max); err != nil {
			return errs.Store("tx.max_id", err)
		}
		return nil
	})
	return max, err
}
