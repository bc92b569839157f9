// Package txslot holds the per-tablet transactional slot that the tablet
// binding coordinator locks, redo-binds, and finalizes across the 2PC
// lifecycle of a DDL transaction. See spec §3.1, §4.8.
package txslot

import "math"

// Sentinels for tx id and log ts fields. See spec §6.
const (
	// InvalidTxID marks an unlocked slot.
	InvalidTxID int64 = 0
	// FinalTxID marks a slot whose owning transaction has finalized
	// (committed or aborted). The slot is reusable by a new tx after this.
	FinalTxID int64 = -1

	// InvalidLogTS marks a slot that has never been locked.
	InvalidLogTS int64 = -1
	// PendingLogTS is the sentinel written into tx_log_ts while a slot is
	// locked but has not yet passed through the redo phase.
	PendingLogTS int64 = math.MaxInt64

	// MinLogTS and MaxLogTS bound the valid commit log ts range
	// (LogTsRange::MIN_TS / MAX_TS in spec §4.3).
	MinLogTS int64 = 1
	MaxLogTS int64 = math.MaxInt64 - 1
)

// Status is the tablet's own lifecycle status, independent of the binding
// transaction (spec §3.1 tablet_status).
type Status int

const (
	StatusNormal Status = iota
	StatusDeleted
)

// RefOp is the memtable reference-count operation accompanying a
// persisted TxSlot write. Forward-path locks INC_REF; the matching
// decrement happens at set_log_ts (forward) or at unlock (abort table).
// See spec §4.1–§4.3, §5.
type RefOp int

const (
	RefOpNone RefOp = iota
	RefOpInc
	RefOpDec
)

// TxSlot is the per-tablet transactional slot (spec §3.1).
type TxSlot struct {
	TxID          int64
	TxLogTS       int64
	TabletStatus  Status
	UnsyncedCnt   int
}

// Empty returns the zero-value slot: unlocked, never locked before.
func Empty() TxSlot {
	return TxSlot{TxID: InvalidTxID, TxLogTS: InvalidLogTS, TabletStatus: StatusNormal}
}

// Locked reports whether the slot is currently held by any transaction
// (not unlocked, not finalized).
func (s TxSlot) Locked() bool {
	return s.TxID != InvalidTxID && s.TxID != FinalTxID
}

// OwnedBy reports whether txID currently holds this slot (reentrancy
// check, spec invariant 3).
func (s TxSlot) OwnedBy(txID int64) bool {
	return s.Locked() && s.TxID == txID
}

// UnitKind tags the concrete payload carried by a MultiSourceUnit. The
// original source dispatches on ObIMultiSourceDataUnit::type() before
// deep-copying a per-tablet multi-source data unit; Go expresses that as
// a small closed tag instead of a virtual dispatch (spec §9 design note
// "duck-typed multi-source data").
type UnitKind int

const (
	UnitKindBinding UnitKind = iota
	UnitKindTabletStatus
)

// MultiSourceUnit is the tagged sum MultiSourceUnit = Binding(BindingRecord)
// | TabletStatus(TxSlot) | ... from spec §9. Implementors live in this
// package (TxSlot) and in package binding (BindingRecord) to avoid an
// import cycle; binding.BindingRecord implements this interface.
type MultiSourceUnit interface {
	Kind() UnitKind
	DeepCopy() (MultiSourceUnit, error)
}

// Kind implements MultiSourceUnit.
func (s TxSlot) Kind() UnitKind { return UnitKindTabletStatus }

// DeepCopy implements MultiSourceUnit. TxSlot has no reference fields, so
// this is a plain value copy, mirroring ObTabletBindingInfo::deep_copy's
// single-assignment path for value-only members.
func (s TxSlot) DeepCopy() (MultiSourceUnit, error) { return s, nil }
