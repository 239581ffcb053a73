package record

// Solid bit mask. Bit 0b10 (trunk-solid) and bit 0b01 (branch-solid) compose
// by OR; 0b11 means fully solid. Never loses bits once set (invariant 3).
const (
	SolidNone   uint8 = 0b00
	SolidTrunk  uint8 = 0b10
	SolidBranch uint8 = 0b01
	SolidFull   uint8 = 0b11
)

// Transaction is the row image for the tx table.
type Transaction struct {
	Base

	hash      string
	idTx      uint64
	idTrunk   uint64
	idBranch  uint64
	idAddress uint64
	idBundle  uint64
	tag       string
	value     int64
	timestamp float64
	currIdx   int32
	lastIdx   int32
	da        int32
	height    int32
	isMst     bool
	mstA      bool
	solid     uint8
	weight    float64
}

func (t *Transaction) Hash() string { return t.hash }
func (t *Transaction) ID() uint64   { return t.idTx }

func (t *Transaction) IDTrunk() uint64  { return t.idTrunk }
func (t *Transaction) IDBranch() uint64 { return t.idBranch }
func (t *Transaction) IDAddress() uint64 { return t.idAddress }
func (t *Transaction) IDBundle() uint64 { return t.idBundle }
func (t *Transaction) Tag() string      { return t.tag }
func (t *Transaction) Value() int64     { return t.value }
func (t *Transaction) Timestamp() float64 { return t.timestamp }
func (t *Transaction) CurrentIdx() int32  { return t.currIdx }
func (t *Transaction) LastIdx() int32     { return t.lastIdx }
func (t *Transaction) DirectApprovals() int32 { return t.da }
func (t *Transaction) Height() int32    { return t.height }
func (t *Transaction) IsMilestone() bool { return t.isMst }
func (t *Transaction) MilestoneApproved() bool { return t.mstA }
func (t *Transaction) Solid() uint8     { return t.solid }
func (t *Transaction) Weight() float64  { return t.weight }

func (t *Transaction) SetIDTrunk(v uint64)  { setIf(&t.idTrunk, v, &t.modified) }
func (t *Transaction) SetIDBranch(v uint64) { setIf(&t.idBranch, v, &t.modified) }
func (t *Transaction) SetIDAddress(v uint64) { setIf(&t.idAddress, v, &t.modified) }
func (t *Transaction) SetIDBundle(v uint64) { setIf(&t.idBundle, v, &t.modified) }
func (t *Transaction) SetTag(v string)      { setIf(&t.tag, v, &t.modified) }
func (t *Transaction) SetValue(v int64)     { setIf(&t.value, v, &t.modified) }
func (t *Transaction) SetTimestamp(v float64) { setIf(&t.timestamp, v, &t.modified) }
func (t *Transaction) SetCurrentIdx(v int32) { setIf(&t.currIdx, v, &t.modified) }
func (t *Transaction) SetLastIdx(v int32)   { setIf(&t.lastIdx, v, &t.modified) }
func (t *Transaction) SetHeight(v int32)    { setIf(&t.height, v, &t.modified) }
func (t *Transaction) SetIsMilestone(v bool) { setIf(&t.isMst, v, &t.modified) }

// SetSolid ORs newBits into the mask; the mask never loses bits (invariant
// 3). Returns true if the mask actually changed.
func (t *Transaction) SetSolid(newBits uint8) bool {
	merged := t.solid | newBits
	if merged == t.solid {
		return false
	}
	t.solid = merged
	t.modified = true
	return true
}

// Approve transitions mst_a false->true. Monotone: calling it again is a
// no-op (invariant 4).
func (t *Transaction) Approve() {
	if !t.mstA {
		t.mstA = true
		t.modified = true
	}
}

// AddWeight accumulates cumulative approver mass.
func (t *Transaction) AddWeight(w float64) {
	t.weight += w
	t.modified = true
}

// NewTransactionPlaceholder reserves idTx for hash before the real row
// arrives. solid is whatever the message prescribed (normally SolidNone,
// or SolidFull for a milestone tagged with the start index).
func NewTransactionPlaceholder(idTx uint64, hash string, solid uint8) *Transaction {
	return &Transaction{
		Base: Base{persisted: false, modified: true},
		hash: hash,
		idTx: idTx,
		solid: solid,
	}
}

// TransactionRow is the fully decoded row image, used by both from-store
// decoding and the ingest worker's population step.
type TransactionRow struct {
	Hash      string
	IDTx      uint64
	IDTrunk   uint64
	IDBranch  uint64
	IDAddress uint64
	IDBundle  uint64
	Tag       string
	Value     int64
	Timestamp float64
	CurrIdx   int32
	LastIdx   int32
	DA        int32
	Height    int32
	IsMst     bool
	MstA      bool
	Solid     uint8
	Weight    float64
}

// NewTransactionFromRow builds a persisted, clean record from a decoded row.
// Missing optional columns should already carry their typed zero values by
// the time they reach here (decoding tolerance lives in internal/store).
func NewTransactionFromRow(row TransactionRow) *Transaction {
	return &Transaction{
		Base:      Base{persisted: true, modified: false},
		hash:      row.Hash,
		idTx:      row.IDTx,
		idTrunk:   row.IDTrunk,
		idBranch:  row.IDBranch,
		idAddress: row.IDAddress,
		idBundle:  row.IDBundle,
		tag:       row.Tag,
		value:     row.Value,
		timestamp: row.Timestamp,
		currIdx:   row.CurrIdx,
		lastIdx:   row.LastIdx,
		da:        row.DA,
		height:    row.Height,
		isMst:     row.IsMst,
		mstA:      row.MstA,
		solid:     row.Solid,
		weight:    row.Weight,
	}
}

// ToRow snapshots the record for INSERT/UPDATE parameter binding.
func (t *Transaction) ToRow() TransactionRow {
	return TransactionRow{
		Hash: t.hash, IDTx: t.idTx, IDTrunk: t.idTrunk, IDBranch: t.idBranch,
		IDAddress: t.idAddress, IDBundle: t.idBundle, Tag: t.tag, Value: t.value,
		Timestamp: t.timestamp, CurrIdx: t.currIdx, LastIdx: t.lastIdx, DA: t.da,
		Height: t.height, IsMst: t.isMst, MstA: t.mstA, Solid: t.solid, Weight: t.weight,
	}
}

// PopulateFromMessage fills every column but id_tx/hash/id_trunk/id_branch
// from a decoded frame. Called by the ingest worker once the triplet and
// address/bundle ids are resolved.
func (t *Transaction) PopulateFromMessage(idAddress, idBundle uint64, tag string, value int64, timestamp float64, currIdx, lastIdx int32, isMilestone bool) {
	t.SetIDAddress(idAddress)
	t.SetIDBundle(idBundle)
	t.SetTag(tag)
	t.SetValue(value)
	t.SetTimestamp(timestamp)
	t.SetCurrentIdx(currIdx)
	t.SetLastIdx(lastIdx)
	t.SetIsMilestone(isMilestone)
	if isMilestone {
		t.Approve()
	}
}
