package binding

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBindingRecordRoundTrips(t *testing.T) {
	r := New(1001)
	r.SnapshotVersion = 500
	r.SchemaVersion = 9
	r.AppendHidden(2001)
	r.LOBMetaTabletID = 3001

	data, err := r.MarshalBinary()
	require.NoError(t, err)

	var out BindingRecord
	require.NoError(t, out.UnmarshalBinary(data))
	require.Equal(t, r, out)

	data2, err := out.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, data, data2)
}

func TestBindingRecordFieldOrderOnWire(t *testing.T) {
	r := New(1001)
	data, err := r.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, `{"redefined":false,"snapshot_version":9223372036854775807,"schema_version":9223372036854775807,"data_tablet_id":1001,"hidden_tablet_ids":null,"lob_meta_tablet_id":0,"lob_piece_tablet_id":0}`, string(data))
}

func TestBatchUnbindArgRoundTrips(t *testing.T) {
	a := BatchUnbindArg{
		TenantID:        1,
		LSID:            2,
		SchemaVersion:   9,
		OrigTabletIDs:   TabletIDList{3000},
		HiddenTabletIDs: TabletIDList{3101, 3102},
	}

	data, err := a.MarshalBinary()
	require.NoError(t, err)

	var out BatchUnbindArg
	require.NoError(t, out.UnmarshalBinary(data))
	require.Equal(t, a, out)
}
