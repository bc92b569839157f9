// Package binding holds BindingRecord — the per-tablet value associating a
// data tablet with its auxiliary and hidden siblings — and the batch DTOs
// that describe a group of tablets moving together under one DDL
// transaction. See spec §3.1.
package binding

import (
	"math"

	"github.com/li78199800/oceanbase-sub002/cerrs"
	"github.com/li78199800/oceanbase-sub002/txslot"
)

// InvalidVersion is the sentinel for an unset snapshot_version or
// schema_version (spec §6: INT64_MAX).
const InvalidVersion int64 = math.MaxInt64

// TabletID identifies a tablet within a log stream.
type TabletID int64

// TabletIDList is an ordered, deduplicating list of tablet ids. It
// preserves insertion order and silently drops duplicate Append calls,
// matching spec invariant 1 ("ordered list ... duplicates disallowed").
type TabletIDList []TabletID

// Append adds id to the list unless it already contains it or it equals
// selfID (spec invariant 7: hidden/aux ids never contain the data
// tablet's own id). Returns the (possibly unchanged) list.
func (l TabletIDList) Append(id, selfID TabletID) TabletIDList {
	if id == selfID {
		return l
	}
	for _, existing := range l {
		if existing == id {
			return l
		}
	}
	return append(l, id)
}

// Contains reports whether id is present in the list.
func (l TabletIDList) Contains(id TabletID) bool {
	for _, existing := range l {
		if existing == id {
			return true
		}
	}
	return false
}

// BindingRecord is the per-tablet binding value (spec §3.1). Field order
// matches the wire/disk format named in spec §6 exactly:
// redefined, snapshot_version, schema_version, data_tablet_id,
// hidden_tablet_ids, lob_meta_tablet_id, lob_piece_tablet_id.
type BindingRecord struct {
	Redefined        bool         `json:"redefined"`
	SnapshotVersion  int64        `json:"snapshot_version"`
	SchemaVersion    int64        `json:"schema_version"`
	DataTabletID     TabletID     `json:"data_tablet_id"`
	HiddenTabletIDs  TabletIDList `json:"hidden_tablet_ids"`
	LOBMetaTabletID  TabletID     `json:"lob_meta_tablet_id"`
	LOBPieceTabletID TabletID     `json:"lob_piece_tablet_id"`
}

// NoTabletID is the unset sentinel for an optional tablet id reference
// (LOB meta/piece ids — "unset sentinel allowed", spec §3.1).
const NoTabletID TabletID = 0

// New returns a default-invalid BindingRecord bound to dataTabletID, as
// created implicitly alongside a new tablet (spec §3.3).
func New(dataTabletID TabletID) BindingRecord {
	return BindingRecord{
		SnapshotVersion:  InvalidVersion,
		SchemaVersion:    InvalidVersion,
		DataTabletID:     dataTabletID,
		LOBMetaTabletID:  NoTabletID,
		LOBPieceTabletID: NoTabletID,
	}
}

// Valid reports whether both version fields are set (spec invariant 1).
func (r BindingRecord) Valid() bool {
	return r.SnapshotVersion != InvalidVersion && r.SchemaVersion != InvalidVersion
}

// Clone returns a deep copy (the hidden tablet id slice is not shared).
func (r BindingRecord) Clone() BindingRecord {
	out := r
	out.HiddenTabletIDs = append(TabletIDList(nil), r.HiddenTabletIDs...)
	return out
}

// AppendHidden appends id to HiddenTabletIDs in place, enforcing
// invariant 7 and the no-duplicates rule of invariant 1.
func (r *BindingRecord) AppendHidden(id TabletID) {
	r.HiddenTabletIDs = r.HiddenTabletIDs.Append(id, r.DataTabletID)
}

// Kind implements txslot.MultiSourceUnit.
func (r BindingRecord) Kind() txslot.UnitKind { return txslot.UnitKindBinding }

// DeepCopy implements txslot.MultiSourceUnit by returning a Clone. It
// does no tag check; the Kind() guard of ObTabletBindingInfo::deep_copy
// lives in AssignFrom.
func (r BindingRecord) DeepCopy() (txslot.MultiSourceUnit, error) {
	return r.Clone(), nil
}

// AssignFrom validates src carries the same tag as r before copying its
// fields onto r, the Go rendition of ObTabletBindingInfo::deep_copy's
// "src->type() != type()" guard.
func (r *BindingRecord) AssignFrom(src txslot.MultiSourceUnit) error {
	if src.Kind() != txslot.UnitKindBinding {
		return cerrs.InvalidArgument("multi-source unit is not a binding record")
	}
	other, ok := src.(BindingRecord)
	if !ok {
		return cerrs.Unexpected("binding record type assertion failed")
	}
	*r = other.Clone()
	return nil
}
