package lock

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"github.com/li78199800/oceanbase-sub002/binding"
	"github.com/li78199800/oceanbase-sub002/tablet"
)

// TestLockUnlockCycleKeepsUnsyncedCntBounded exercises spec invariant 6
// (unsynced_cnt always in {0,1,2}) across an arbitrarily long sequence of
// single-writer lock/commit-or-abort-unlock cycles on one tablet.
func TestLockUnlockCycleKeepsUnsyncedCntBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m, store, _ := newManager()
		key := tablet.Key{LSID: 1, TabletID: 1001}
		store.Put(key, tablet.NewMemTablet(binding.New(1001)))

		cycles := rapid.IntRange(1, 30).Draw(rt, "cycles")
		var txID int64 = 1
		var logTS int64 = 1

		for i := 0; i < cycles; i++ {
			if err := m.Lock(context.Background(), nil, key, Flags{TxID: txID, LogTS: logTS}); err != nil {
				rt.Fatalf("lock on a free slot must never fail: %v", err)
			}

			commit := rapid.Bool().Draw(rt, "commit")
			notify := NotifyOnAbort
			if commit {
				notify = NotifyOnCommit
			}
			if err := m.Unlock(context.Background(), key, Flags{
				TxID: txID, LogTS: logTS, NotifyType: notify, IsTxEnd: true,
			}); err != nil {
				rt.Fatalf("unlock of the tx that just locked must never fail: %v", err)
			}

			handle, _, _ := store.GetTablet(context.Background(), key)
			slot, _ := handle.GetTxData(context.Background())
			if slot.UnsyncedCnt < 0 || slot.UnsyncedCnt > 2 {
				rt.Fatalf("unsynced_cnt left the {0,1,2} bound: %d", slot.UnsyncedCnt)
			}

			txID++
			logTS++
		}
	})
}

// TestLockReentrancyNeverMutatesOwningSlot exercises spec invariant 3: a
// tx that already owns the slot can call Lock any number of times without
// changing who owns it or how many outstanding units it carries.
func TestLockReentrancyNeverMutatesOwningSlot(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m, store, _ := newManager()
		key := tablet.Key{LSID: 1, TabletID: 1001}
		store.Put(key, tablet.NewMemTablet(binding.New(1001)))

		txID := rapid.Int64Range(1, 1000).Draw(rt, "txID")
		if err := m.Lock(context.Background(), nil, key, Flags{TxID: txID, LogTS: 1}); err != nil {
			rt.Fatalf("initial lock must not fail: %v", err)
		}

		handle, _, _ := store.GetTablet(context.Background(), key)
		before, _ := handle.GetTxData(context.Background())

		repeats := rapid.IntRange(1, 10).Draw(rt, "repeats")
		for i := 0; i < repeats; i++ {
			if err := m.Lock(context.Background(), nil, key, Flags{TxID: txID, LogTS: 1}); err != nil {
				rt.Fatalf("reentrant lock must not fail: %v", err)
			}
		}

		after, _ := handle.GetTxData(context.Background())
		if before != after {
			rt.Fatalf("reentrant lock mutated the slot: %+v -> %+v", before, after)
		}
	})
}
