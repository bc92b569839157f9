package binding

import (
	"fmt"

	"github.com/li78199800/oceanbase-sub002/cerrs"
)

// AuxKind classifies a tablet created alongside a data tablet during a
// batch create request, read off the request's per-tablet table schema
// (spec §4.4 "consult arg.table_schemas ... if aux-LOB-meta ... if
// aux-LOB-piece ... otherwise ignore").
type AuxKind int

const (
	AuxIndex AuxKind = iota
	AuxLOBMeta
	AuxLOBPiece
)

// TabletSubKind is the per-create-request-entry descriptor kind (spec
// §4.4).
type TabletSubKind int

const (
	// SubKindPureHidden: tablet_ids are hidden siblings of data_tablet_id;
	// the data tablet is not being created in this request.
	SubKindPureHidden TabletSubKind = iota
	// SubKindPureAux: tablet_ids are auxiliary tablets (possibly LOB
	// meta/piece) attached to data_tablet_id.
	SubKindPureAux
	// SubKindMixed: locked implicitly by the creation protocol, skipped
	// by the binding coordinator entirely.
	SubKindMixed
)

// CreateTabletInfo is one entry of a BatchCreateArg (spec §3.1
// "per-tablet sub-descriptors").
type CreateTabletInfo struct {
	SubKind        TabletSubKind
	DataTabletID   TabletID
	TabletIDs      []TabletID
	TableSchemaIdx []int // parallel to TabletIDs; indexes into BatchCreateArg.TableSchemas
}

// HasLOB reports whether any of this entry's tablets are classified as
// aux-LOB-meta or aux-LOB-piece by arg's table schemas (spec §4.4
// "has_lob iff at least one tablet ... is classified as aux-LOB-meta or
// aux-LOB-piece").
func (t CreateTabletInfo) HasLOB(arg BatchCreateArg) bool {
	for _, idx := range t.TableSchemaIdx {
		if idx < 0 || idx >= len(arg.TableSchemas) {
			continue
		}
		switch arg.TableSchemas[idx] {
		case AuxLOBMeta, AuxLOBPiece:
			return true
		}
	}
	return false
}

// BatchCreateArg describes a group of tablets created together under one
// transaction (spec §3.1).
type BatchCreateArg struct {
	TenantID      int64
	LSID          int64
	SchemaVersion int64
	Tablets       []CreateTabletInfo
	TableSchemas  []AuxKind
}

// Valid performs the minimal structural validation the coordinator
// requires before acting on arg: a pure_aux entry's TableSchemaIdx must be
// parallel to TabletIDs (pure_hidden entries carry no schema
// classification at all — schemas only classify aux tablets, spec
// §3.1/§4.4), and every TableSchemaIdx entry in every tablet info must
// refer to a real TableSchemas slot.
func (a BatchCreateArg) Valid() error {
	for i, info := range a.Tablets {
		if info.SubKind == SubKindPureAux && len(info.TableSchemaIdx) != len(info.TabletIDs) {
			return invalidArg(i, "table_schema_index length does not match tablet_ids length")
		}
		for _, idx := range info.TableSchemaIdx {
			if idx < 0 || idx >= len(a.TableSchemas) {
				return invalidArg(i, "table_schema_index out of range")
			}
		}
	}
	return nil
}

// BatchUnbindArg describes a batch unbind request (spec §3.1, wire
// format in §6: tenant_id, ls_id, schema_version, orig_tablet_ids,
// hidden_tablet_ids).
type BatchUnbindArg struct {
	TenantID        int64        `json:"tenant_id"`
	LSID            int64        `json:"ls_id"`
	SchemaVersion   int64        `json:"schema_version"`
	OrigTabletIDs   TabletIDList `json:"orig_tablet_ids"`
	HiddenTabletIDs TabletIDList `json:"hidden_tablet_ids"`
}

// IsRedefined reports whether this unbind is a redefinition (spec §4.4
// "Unbind phases": the wire format carries no separate is_redefined
// field, so it is derived from the presence of hidden tablets — a plain
// unbind names no hidden siblings, a redefining unbind always does).
func (a BatchUnbindArg) IsRedefined() bool {
	return len(a.HiddenTabletIDs) > 0
}

func invalidArg(tabletIdx int, msg string) error {
	return cerrs.InvalidArgument(fmt.Sprintf("tablet entry %d: %s", tabletIdx, msg))
}
