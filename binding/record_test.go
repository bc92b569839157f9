package binding

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/li78199800/oceanbase-sub002/txslot"
)

func TestNewRecordIsInvalid(t *testing.T) {
	r := New(1001)
	require.False(t, r.Valid())
	require.Equal(t, TabletID(1001), r.DataTabletID)
	require.Equal(t, NoTabletID, r.LOBMetaTabletID)
	require.Equal(t, NoTabletID, r.LOBPieceTabletID)
}

func TestRecordBecomesValidOnceVersionsSet(t *testing.T) {
	r := New(1001)
	r.SnapshotVersion = 500
	r.SchemaVersion = 9
	require.True(t, r.Valid())
}

func TestAppendHiddenDedupsAndRejectsSelf(t *testing.T) {
	r := New(3000)
	r.AppendHidden(3101)
	r.AppendHidden(3102)
	r.AppendHidden(3101) // duplicate, dropped
	r.AppendHidden(3000) // self-reference, dropped

	require.Equal(t, TabletIDList{3101, 3102}, r.HiddenTabletIDs)
}

func TestCloneDoesNotAliasHiddenIDs(t *testing.T) {
	r := New(3000)
	r.AppendHidden(3101)

	clone := r.Clone()
	clone.AppendHidden(3102)

	require.Equal(t, TabletIDList{3101}, r.HiddenTabletIDs)
	require.Equal(t, TabletIDList{3101, 3102}, clone.HiddenTabletIDs)
}

func TestAssignFromRejectsWrongKind(t *testing.T) {
	var r BindingRecord
	err := r.AssignFrom(txslot.Empty())
	require.Error(t, err)
}

func TestAssignFromCopiesMatchingKind(t *testing.T) {
	src := New(1001)
	src.SnapshotVersion = 1
	src.SchemaVersion = 2

	var dst BindingRecord
	require.NoError(t, dst.AssignFrom(src))
	require.Equal(t, src, dst)
}
