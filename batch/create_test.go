package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/li78199800/oceanbase-sub002/binding"
	"github.com/li78199800/oceanbase-sub002/lock"
	"github.com/li78199800/oceanbase-sub002/metamem"
	"github.com/li78199800/oceanbase-sub002/tablet"
)

func newTestDriver() (*Driver, *tablet.MemStore) {
	store := tablet.NewMemStore()
	mem := metamem.New(64)
	return NewDriver(store, nil, mem, nil), store
}

// S1: pure-aux create with LOB.
func TestCreateTxPureAuxWithLOB(t *testing.T) {
	d, store := newTestDriver()
	store.Put(tablet.Key{LSID: 1, TabletID: 1001}, tablet.NewMemTablet(binding.New(1001)))

	arg := binding.BatchCreateArg{
		LSID:          1,
		SchemaVersion: 9,
		TableSchemas:  []binding.AuxKind{binding.AuxLOBMeta, binding.AuxLOBPiece},
		Tablets: []binding.CreateTabletInfo{
			{
				SubKind:        binding.SubKindPureAux,
				DataTabletID:   1001,
				TabletIDs:      []binding.TabletID{2001, 2002},
				TableSchemaIdx: []int{0, 1},
			},
		},
	}

	err := d.CreateTx(context.Background(), arg, CreateParams{
		LSID: 1, TxID: 1, LogTS: 100, CommitVersion: 500, Commit: true,
	})
	require.NoError(t, err)

	handle, _, _ := store.GetTablet(context.Background(), tablet.Key{LSID: 1, TabletID: 1001})
	rec, err := handle.GetDDLData(context.Background())
	require.NoError(t, err)
	require.Equal(t, binding.TabletID(2001), rec.LOBMetaTabletID)
	require.Equal(t, binding.TabletID(2002), rec.LOBPieceTabletID)
	require.Empty(t, rec.HiddenTabletIDs)
}

// S2: pure-hidden create, re-issued commit must not duplicate hidden ids.
func TestCreateTxPureHiddenIsIdempotentOnHiddenIDs(t *testing.T) {
	d, store := newTestDriver()
	store.Put(tablet.Key{LSID: 1, TabletID: 3000}, tablet.NewMemTablet(binding.New(3000)))

	arg := binding.BatchCreateArg{
		LSID: 1,
		Tablets: []binding.CreateTabletInfo{
			{SubKind: binding.SubKindPureHidden, DataTabletID: 3000, TabletIDs: []binding.TabletID{3101, 3102}},
		},
	}

	params := CreateParams{LSID: 1, TxID: 1, LogTS: 100, Commit: true}
	require.NoError(t, d.CreateTx(context.Background(), arg, params))

	handle, _, _ := store.GetTablet(context.Background(), tablet.Key{LSID: 1, TabletID: 3000})
	rec, _ := handle.GetDDLData(context.Background())
	require.Equal(t, binding.TabletIDList{3101, 3102}, rec.HiddenTabletIDs)

	// Re-issue the same commit with a new tx id and log ts.
	params2 := CreateParams{LSID: 1, TxID: 2, LogTS: 200, Commit: true}
	require.NoError(t, d.CreateTx(context.Background(), arg, params2))

	rec, _ = handle.GetDDLData(context.Background())
	require.Equal(t, binding.TabletIDList{3101, 3102}, rec.HiddenTabletIDs)
}

func TestCreateTxSkipsCompanionAuxEntry(t *testing.T) {
	d, store := newTestDriver()
	store.Put(tablet.Key{LSID: 1, TabletID: 3000}, tablet.NewMemTablet(binding.New(3000)))
	store.Put(tablet.Key{LSID: 1, TabletID: 3101}, tablet.NewMemTablet(binding.New(3101)))

	arg := binding.BatchCreateArg{
		LSID:         1,
		TableSchemas: []binding.AuxKind{binding.AuxLOBMeta},
		Tablets: []binding.CreateTabletInfo{
			{SubKind: binding.SubKindPureHidden, DataTabletID: 3000, TabletIDs: []binding.TabletID{3101}},
			{SubKind: binding.SubKindPureAux, DataTabletID: 3101, TabletIDs: []binding.TabletID{3201}, TableSchemaIdx: []int{0}},
		},
	}

	params := CreateParams{LSID: 1, TxID: 1, LogTS: 100, Commit: true}
	require.NoError(t, d.CreateTx(context.Background(), arg, params))

	// The companion aux entry (index 1) was skipped, so tablet 3101's own
	// binding record is untouched.
	handle, _, _ := store.GetTablet(context.Background(), tablet.Key{LSID: 1, TabletID: 3101})
	rec, _ := handle.GetDDLData(context.Background())
	require.Equal(t, binding.NoTabletID, rec.LOBMetaTabletID)
}

func TestCreateTxAbortRollsBackLocksOnLockFailure(t *testing.T) {
	d, store := newTestDriver()
	key := tablet.Key{LSID: 1, TabletID: 1001}
	store.Put(key, tablet.NewMemTablet(binding.New(1001)))

	arg := binding.BatchCreateArg{
		LSID: 1,
		Tablets: []binding.CreateTabletInfo{
			{SubKind: binding.SubKindPureHidden, DataTabletID: 1001, TabletIDs: []binding.TabletID{2001}},
		},
	}

	// Another tx already holds the lock.
	require.NoError(t, d.lock.Lock(context.Background(), nil, key, lock.Flags{TxID: 99, LogTS: 0}))

	err := d.CreateTx(context.Background(), arg, CreateParams{LSID: 1, TxID: 1, LogTS: 100, Commit: true})
	require.Error(t, err)

	handle, _, _ := store.GetTablet(context.Background(), key)
	slot, _ := handle.GetTxData(context.Background())
	require.Equal(t, int64(99), slot.TxID, "contending tx's lock must survive the failed CreateTx's rollback sweep")
}
