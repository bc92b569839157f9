package tablet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/li78199800/oceanbase-sub002/binding"
	"github.com/li78199800/oceanbase-sub002/cerrs"
	"github.com/li78199800/oceanbase-sub002/txslot"
)

type fakeLogStream struct {
	lsID       int64
	checkpoint int64
}

func (f *fakeLogStream) ID() int64 { return f.lsID }
func (f *fakeLogStream) TabletChangeCheckpointTS(context.Context) (int64, error) {
	return f.checkpoint, nil
}

func TestResolveForwardNotExistIsNoUpdateNeeded(t *testing.T) {
	store := NewMemStore()
	key := Key{LSID: 1, TabletID: 1001}

	_, err := Resolve(context.Background(), store, nil, key, ResolveFlags{ForReplay: false, LogTS: 100})
	require.True(t, cerrs.Is(err, cerrs.KindNoUpdateNeeded))
}

func TestResolveReplayNotExistBeforeCheckpointIsNoUpdateNeeded(t *testing.T) {
	store := NewMemStore()
	ls := &fakeLogStream{lsID: 1, checkpoint: 200}
	key := Key{LSID: 1, TabletID: 1001}

	_, err := Resolve(context.Background(), store, ls, key, ResolveFlags{ForReplay: true, LogTS: 100})
	require.True(t, cerrs.Is(err, cerrs.KindNoUpdateNeeded))
}

func TestResolveReplayNotExistAfterCheckpointIsRetry(t *testing.T) {
	store := NewMemStore()
	ls := &fakeLogStream{lsID: 1, checkpoint: 50}
	key := Key{LSID: 1, TabletID: 1001}

	_, err := Resolve(context.Background(), store, ls, key, ResolveFlags{ForReplay: true, LogTS: 100})
	require.True(t, cerrs.Is(err, cerrs.KindRetry))
}

func TestResolveDeletedStatusMapsToNotExist(t *testing.T) {
	store := NewMemStore()
	key := Key{LSID: 1, TabletID: 1001}
	mt := NewMemTablet(binding.New(1001))
	mt.slot.TabletStatus = txslot.StatusDeleted
	store.Put(key, mt)

	_, err := Resolve(context.Background(), store, nil, key, ResolveFlags{ForReplay: false, LogTS: 100})
	require.True(t, cerrs.Is(err, cerrs.KindNoUpdateNeeded))
}

func TestResolveAlreadyFrozenIsNoUpdateNeeded(t *testing.T) {
	store := NewMemStore()
	key := Key{LSID: 1, TabletID: 1001}
	mt := NewMemTablet(binding.New(1001))
	mt.slot.TxLogTS = 500
	store.Put(key, mt)

	_, err := Resolve(context.Background(), store, nil, key, ResolveFlags{ForReplay: false, LogTS: 100})
	require.True(t, cerrs.Is(err, cerrs.KindNoUpdateNeeded))
}

func TestResolveSuccess(t *testing.T) {
	store := NewMemStore()
	key := Key{LSID: 1, TabletID: 1001}
	mt := NewMemTablet(binding.New(1001))
	store.Put(key, mt)

	resolved, err := Resolve(context.Background(), store, nil, key, ResolveFlags{ForReplay: false, LogTS: 100})
	require.NoError(t, err)
	require.Equal(t, mt, resolved.Handle)
}
