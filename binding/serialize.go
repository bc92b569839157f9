package binding

import (
	"github.com/goccy/go-json"
)

// MarshalBinary encodes r using the field order declared on BindingRecord
// (spec §6). go-json, like encoding/json, emits object keys in struct
// declaration order, so this is deterministic and round-trips
// byte-for-byte (spec §8 property 6).
func (r BindingRecord) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalBinary decodes data produced by MarshalBinary into r.
func (r *BindingRecord) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, r)
}

// MarshalBinary encodes a using the field order declared on
// BatchUnbindArg (spec §6): tenant_id, ls_id, schema_version,
// orig_tablet_ids, hidden_tablet_ids.
func (a BatchUnbindArg) MarshalBinary() ([]byte, error) {
	return json.Marshal(a)
}

// UnmarshalBinary decodes data produced by MarshalBinary into a.
func (a *BatchUnbindArg) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, a)
}
