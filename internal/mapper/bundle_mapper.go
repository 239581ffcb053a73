package mapper

import (
	"context"

	"github.com/tangle-rdb/ingester/internal/record"
)

// BundleMapper wraps the generic Mapper[*record.Bundle] with the
// size/created stamping a freshly observed bundle needs.
type BundleMapper struct {
	*Mapper[*record.Bundle]
}

// NewBundleMapper builds a BundleMapper.
func NewBundleMapper(store RowStore[*record.Bundle], nextID func() uint64) *BundleMapper {
	placeholder := func(id uint64, hash string) *record.Bundle {
		return record.NewBundle(id, hash, 0, 0)
	}
	return &BundleMapper{Mapper: New("bundle", store, nextID, placeholder)}
}

// FetchOrInsert resolves bundleHash to an id, stamping size and created on
// the record the first time it is seen (a placeholder just allocated by
// FetchByHash, not yet persisted).
func (bm *BundleMapper) FetchOrInsert(ctx context.Context, bundleHash string, size int32, createdMs float64) (*record.Bundle, error) {
	rec, err := bm.FetchByHash(ctx, bundleHash)
	if err != nil {
		return nil, err
	}
	if !rec.IsPersisted() {
		rec.SetSize(size)
		rec.SetCreated(createdMs)
	}
	rec.Unlock()
	return rec, nil
}
