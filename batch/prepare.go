// Package batch implements the BatchDriver (spec §4.4): the create,
// unbind, commit, abort, and replay flows that move a group of tablets'
// bindings together under one DDL transaction, including the skip-set
// logic that keeps a hidden tablet's own aux entry from being locked
// twice.
package batch

import "github.com/li78199800/oceanbase-sub002/binding"

// PrepareCtx is the per-invocation accumulator for the create phases
// (spec §3.1): LastIdx is the high-water mark of successfully locked
// entries, used to bound the rollback sweep on failure; SkipIdx holds
// the indices of pure_aux entries already accounted for by a pure_hidden
// entry's companion search.
type PrepareCtx struct {
	LastIdx int
	SkipIdx map[int]bool
}

// NewPrepareCtx returns an empty PrepareCtx with LastIdx set to -1
// (nothing locked yet).
func NewPrepareCtx() *PrepareCtx {
	return &PrepareCtx{LastIdx: -1, SkipIdx: make(map[int]bool)}
}

// UnbindPrepareCtx is the unbind-phase counterpart of PrepareCtx (spec
// §4.4 "Unbind phases": "last_orig_idx / last_hidden_idx watermarks for
// rollback").
type UnbindPrepareCtx struct {
	LastOrigIdx   int
	LastHiddenIdx int
}

// NewUnbindPrepareCtx returns an UnbindPrepareCtx with both watermarks
// set to -1.
func NewUnbindPrepareCtx() *UnbindPrepareCtx {
	return &UnbindPrepareCtx{LastOrigIdx: -1, LastHiddenIdx: -1}
}

// buildSkipSet implements the skip-set rule of spec §4.4: for every
// pure_hidden entry, each of its hidden tablet ids is searched for
// against every other entry's DataTabletID; a match means that other
// entry describes the hidden tablet's own aux tablets, and its index is
// recorded so the create traversal does not process it a second time.
func buildSkipSet(arg binding.BatchCreateArg) map[int]bool {
	skip := make(map[int]bool)
	for _, entry := range arg.Tablets {
		if entry.SubKind != binding.SubKindPureHidden {
			continue
		}
		for _, hiddenID := range entry.TabletIDs {
			for idx, candidate := range arg.Tablets {
				if candidate.DataTabletID == hiddenID {
					skip[idx] = true
				}
			}
		}
	}
	return skip
}

// included reports whether entry is processed by the create traversal at
// all (spec §4.4): every pure_hidden entry, and every pure_aux entry
// that carries at least one LOB tablet. mixed entries and non-LOB
// pure_aux entries are out of the binding coordinator's scope entirely.
func included(entry binding.CreateTabletInfo, arg binding.BatchCreateArg) bool {
	switch entry.SubKind {
	case binding.SubKindPureHidden:
		return true
	case binding.SubKindPureAux:
		return entry.HasLOB(arg)
	default:
		return false
	}
}
