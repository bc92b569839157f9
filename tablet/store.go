// Package tablet declares the external collaborators the coordinator
// consumes (spec §6) — the Tablet Store, individual tablets, the log
// stream, and the tenant-scoped log stream service — and implements the
// tablet resolver predicate of spec §4.7. A real deployment supplies its
// own implementations backed by the actual storage engine; this package
// also ships an in-memory reference implementation (MemStore/MemTablet)
// used by the coordinator's own tests.
package tablet

import (
	"context"
	"sync"

	"github.com/li78199800/oceanbase-sub002/binding"
	"github.com/li78199800/oceanbase-sub002/txslot"
)

// Key identifies a tablet within a log stream (spec §4: "(log-stream id,
// tablet id)").
type Key struct {
	LSID     int64
	TabletID binding.TabletID
}

// Store resolves a tablet handle by key (spec §6.1 TabletStore).
type Store interface {
	// GetTablet returns the tablet's handle, or ok=false with a nil error
	// if the tablet does not exist (the not-exist signal is not itself an
	// error — see Resolve, which layers §4.7's retry/no-update-needed
	// semantics on top of this raw lookup).
	GetTablet(ctx context.Context, key Key) (h Tablet, ok bool, err error)
}

// Tablet is the subset of the tablet object's API the coordinator
// consumes (spec §6.1).
type Tablet interface {
	// GetTxData returns the tablet's current TxSlot.
	GetTxData(ctx context.Context) (txslot.TxSlot, error)
	// SetTxData persists slot. memtableLogTS is the value written
	// alongside the slot into the memtable (MAX on the forward path,
	// the actual log ts during replay or redo). forReplay distinguishes
	// the replay path. refOp is the INC_REF/DEC_REF/NONE bookkeeping
	// operation described in spec §4.1–§4.3. isCallback marks a
	// set_log_ts-style non-reentrant redo write.
	SetTxData(ctx context.Context, slot txslot.TxSlot, memtableLogTS int64, forReplay bool, refOp txslot.RefOp, isCallback bool) error
	// GetDDLData returns the tablet's current BindingRecord.
	GetDDLData(ctx context.Context) (binding.BindingRecord, error)
	// SetMultiDataForCommit persists rec via the tablet's commit write
	// path (spec §4.4 step 3: "Persist ... via the tablet's commit write
	// path with MemtableRefOp = NONE").
	SetMultiDataForCommit(ctx context.Context, rec binding.BindingRecord) error
	// SetTabletFinalStatus marks the tablet's lifecycle status.
	SetTabletFinalStatus(ctx context.Context, status txslot.Status) error
	// BackFillLogTsForCommit is the idempotent recovery primitive of
	// spec §4.5: decrements unsynced_cnt iff it has not already been
	// decremented for this commit, using the durable log ts recorded
	// alongside rec.
	BackFillLogTsForCommit(ctx context.Context, rec binding.BindingRecord) error

	// RLock/RUnlock/Lock/Unlock implement the per-tablet reader-writer
	// lock of spec §5. Visibility checks take the read side; TxSlot
	// mutations take the write side.
	RLock()
	RUnlock()
	Lock()
	Unlock()
}

// LogStream exposes the per-log-stream state the resolver needs (spec
// §6.1).
type LogStream interface {
	ID() int64
	// TabletChangeCheckpointTS returns the log stream's
	// tablet_change_checkpoint_ts (spec §4.7).
	TabletChangeCheckpointTS(ctx context.Context) (int64, error)
}

// LogStreamService looks up a LogStream by id (spec §6.1, and the §9
// design note replacing the source's tenant-scoped global lookup with an
// explicit constructor parameter).
type LogStreamService interface {
	GetLS(ctx context.Context, lsID int64) (LogStream, error)
}

// MemStore is an in-memory reference Store used by this module's own
// tests. Tablets are kept in a btree ordered by (LSID, TabletID) so
// recovery sweeps and tests get deterministic iteration order.
type MemStore struct {
	mu      sync.RWMutex
	tablets map[Key]*MemTablet
	order   *tabletBTree
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		tablets: make(map[Key]*MemTablet),
		order:   newTabletBTree(),
	}
}

// Put registers a tablet under key, replacing any prior entry.
func (s *MemStore) Put(key Key, t *MemTablet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tablets[key] = t
	s.order.insert(key)
}

// Remove deletes the tablet registered under key, simulating garbage
// collection after a checkpoint (spec §4.7 "tablet was removed by a
// concurrent flow").
func (s *MemStore) Remove(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tablets, key)
	s.order.delete(key)
}

// GetTablet implements Store.
func (s *MemStore) GetTablet(_ context.Context, key Key) (Tablet, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tablets[key]
	if !ok {
		return nil, false, nil
	}
	return t, true, nil
}

// Keys returns all registered keys in ascending (LSID, TabletID) order.
func (s *MemStore) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.keys()
}

// MemTablet is a minimal in-memory Tablet implementation.
type MemTablet struct {
	mu     sync.RWMutex
	slot   txslot.TxSlot
	rec    binding.BindingRecord
	status txslot.Status

	// backfilled tracks whether BackFillLogTsForCommit already ran for
	// the log ts currently recorded on slot, giving the idempotency
	// spec §4.5 requires.
	backfilled map[int64]bool
}

// NewMemTablet returns a tablet with an empty slot and the given initial
// binding record.
func NewMemTablet(rec binding.BindingRecord) *MemTablet {
	return &MemTablet{
		slot:       txslot.Empty(),
		rec:        rec,
		status:     txslot.StatusNormal,
		backfilled: make(map[int64]bool),
	}
}

func (t *MemTablet) GetTxData(context.Context) (txslot.TxSlot, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.slot, nil
}

func (t *MemTablet) SetTxData(_ context.Context, slot txslot.TxSlot, memtableLogTS int64, _ bool, _ txslot.RefOp, _ bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slot = slot
	_ = memtableLogTS // the reference store models neither a separate memtable log ts nor refOp bookkeeping; both are ignored.
	return nil
}

func (t *MemTablet) GetDDLData(context.Context) (binding.BindingRecord, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rec.Clone(), nil
}

func (t *MemTablet) SetMultiDataForCommit(_ context.Context, rec binding.BindingRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rec = rec.Clone()
	return nil
}

func (t *MemTablet) SetTabletFinalStatus(_ context.Context, status txslot.Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	return nil
}

func (t *MemTablet) BackFillLogTsForCommit(_ context.Context, rec binding.BindingRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	logTS := t.slot.TxLogTS
	if t.backfilled[logTS] {
		return nil
	}
	if t.slot.UnsyncedCnt > 0 {
		t.slot.UnsyncedCnt--
	}
	t.backfilled[logTS] = true
	return nil
}

func (t *MemTablet) Status() txslot.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *MemTablet) RLock()   { t.mu.RLock() }
func (t *MemTablet) RUnlock() { t.mu.RUnlock() }
func (t *MemTablet) Lock()    { t.mu.Lock() }
func (t *MemTablet) Unlock()  { t.mu.Unlock() }
