package tablet

import "github.com/google/btree"

// tabletBTree keeps registered Keys in ascending (LSID, TabletID) order,
// giving MemStore.Keys and the recovery sweep deterministic iteration
// without sorting on every call.
type tabletBTree struct {
	t *btree.BTreeG[Key]
}

func newTabletBTree() *tabletBTree {
	less := func(a, b Key) bool {
		if a.LSID != b.LSID {
			return a.LSID < b.LSID
		}
		return a.TabletID < b.TabletID
	}
	return &tabletBTree{t: btree.NewG(32, less)}
}

func (b *tabletBTree) insert(k Key) { b.t.ReplaceOrInsert(k) }

func (b *tabletBTree) delete(k Key) { b.t.Delete(k) }

func (b *tabletBTree) keys() []Key {
	out := make([]Key, 0, b.t.Len())
	b.t.Ascend(func(k Key) bool {
		out = append(out, k)
		return true
	})
	return out
}
