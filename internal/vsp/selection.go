package vsp

import "popsim/internal/pop"

// Selection is an ordered list of (virtual) subpopulation targets. The
// all-available form stores nothing and expands against a concrete
// population at use time. Selections are built by drivers and read-only to
// the engine.
type Selection struct {
	ids      []ID
	allAvail bool
}

// All selects every subpopulation of whatever population the selection is
// later expanded against, as non-virtual targets.
func All() Selection {
	return Selection{allAvail: true}
}

// NewSelection selects an explicit ordered list of targets.
func NewSelection(ids ...ID) Selection {
	return Selection{ids: append([]ID(nil), ids...)}
}

func (s Selection) AllAvail() bool { return s.allAvail }
func (s Selection) Empty() bool { return !s.allAvail && len(s.ids) == 0 }
func (s Selection) Len() int { return len(s.ids) }
func (s Selection) At(i int) ID { return s.ids[i] }

// Contains reports whether the exact target is listed.
func (s Selection) Contains(id ID) bool {
	for _, have := range s.ids {
		if have == id {
			return true
		}
	}
	return false
}

// Overlaps reports whether any listed target touches the subpopulation.
func (s Selection) Overlaps(subPop int) bool {
	for _, have := range s.ids {
		if have.SubPop() == subPop {
			return true
		}
	}
	return false
}

// Expand resolves the selection against a population. The all-available form
// yields one non-virtual target per actual subpopulation; otherwise a copy of
// the listed targets is returned.
func (s Selection) Expand(p pop.Population) []ID {
	if !s.allAvail {
		return append([]ID(nil), s.ids...)
	}
	out := make([]ID, p.NumSubPops())
	for sp := range out {
		out[sp] = SubPopID(sp)
	}
	return out
}
