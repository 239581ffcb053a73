package record

// Address is the row image for the address table. Checksum is write-once:
// set by NewAddress at creation time and never mutated afterward.
type Address struct {
	Base

	address   string
	idAddress uint64
	checksum  string
}

func (a *Address) Hash() string     { return a.address }
func (a *Address) ID() uint64       { return a.idAddress }
func (a *Address) Checksum() string { return a.checksum }

// NewAddress allocates a fresh, unpersisted Address record carrying the
// given checksum (computed by the caller from the address trytes).
func NewAddress(idAddress uint64, address, checksum string) *Address {
	return &Address{
		Base:      Base{persisted: false, modified: true},
		address:   address,
		idAddress: idAddress,
		checksum:  checksum,
	}
}

// NewAddressFromRow builds a persisted, clean record from a decoded row.
func NewAddressFromRow(address string, idAddress uint64, checksum string) *Address {
	return &Address{
		Base:      Base{persisted: true, modified: false},
		address:   address,
		idAddress: idAddress,
		checksum:  checksum,
	}
}
