package record

// Bundle is the row image for the bundle table.
type Bundle struct {
	Base

	bundle    string
	idBundle  uint64
	created   float64
	size      int32
	confirmed float64
}

func (b *Bundle) Hash() string      { return b.bundle }
func (b *Bundle) ID() uint64        { return b.idBundle }
func (b *Bundle) Created() float64  { return b.created }
func (b *Bundle) Size() int32       { return b.size }
func (b *Bundle) Confirmed() float64 { return b.confirmed }

func (b *Bundle) SetSize(v int32)       { setIf(&b.size, v, &b.modified) }
func (b *Bundle) SetCreated(v float64) { setIf(&b.created, v, &b.modified) }

// Confirm stamps confirmed once, at the time the current_idx=0 transaction
// first becomes milestone-approved (invariant 6). No-op if already stamped.
func (b *Bundle) Confirm(nowMs float64) {
	if b.confirmed != 0 {
		return
	}
	b.confirmed = nowMs
	b.modified = true
}

// NewBundle allocates a fresh, unpersisted Bundle record.
func NewBundle(idBundle uint64, bundle string, size int32, created float64) *Bundle {
	return &Bundle{
		Base:     Base{persisted: false, modified: true},
		bundle:   bundle,
		idBundle: idBundle,
		size:     size,
		created:  created,
	}
}

// NewBundleFromRow builds a persisted, clean record from a decoded row.
func NewBundleFromRow(bundle string, idBundle uint64, created float64, size int32, confirmed float64) *Bundle {
	return &Bundle{
		Base:      Base{persisted: true, modified: false},
		bundle:    bundle,
		idBundle:  idBundle,
		created:   created,
		size:      size,
		confirmed: confirmed,
	}
}
