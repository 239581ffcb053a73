package mapper

import (
	"go.uber.org/zap"

	"github.com/tangle-rdb/ingester/internal/record"
	"github.com/tangle-rdb/ingester/internal/ternary"
)

// AddressMapper wraps the generic Mapper[*record.Address]. A brand new
// address computes its checksum at the moment it is placeholder-allocated
// (spec step "on first creation also compute checksum"), so the ingest
// worker never has to special-case it.
type AddressMapper struct {
	*Mapper[*record.Address]
}

// NewAddressMapper builds an AddressMapper. Checksum failures (malformed
// trytes) are logged and fall back to an empty checksum rather than
// aborting ingestion of the referencing transaction.
func NewAddressMapper(store RowStore[*record.Address], nextID func() uint64, log *zap.Logger) *AddressMapper {
	placeholder := func(id uint64, hash string) *record.Address {
		checksum, err := ternary.Checksum(hash)
		if err != nil {
			log.Warn("address checksum failed, storing empty checksum", zap.String("address", hash), zap.Error(err))
		}
		return record.NewAddress(id, hash, checksum)
	}
	return &AddressMapper{Mapper: New("address", store, nextID, placeholder)}
}
