package vsp

import (
	"fmt"
	"strings"

	"popsim/internal/pop"
)

// vspRef addresses one VSP of one child splitter.
type vspRef struct {
	child int
	vsp   int
}

// CombinedSplitter stacks the VSP spaces of several child splitters into one
// flattened index space. If the first child defines 3 VSPs and the second 2,
// the second child's VSPs become flattened indices 3 and 4. Union groups, if
// given, define additional VSPs appended after the originals; an individual
// belongs to a union VSP when it belongs to any member VSP.
type CombinedSplitter struct {
	base
	children []Splitter
	// entries holds, per flattened VSP, the child VSPs whose membership is
	// unioned. Originals have exactly one entry.
	entries [][]vspRef
}

// NewCombinedSplitter creates a combined splitter. Each union group lists
// flattened indices of original VSPs.
func NewCombinedSplitter(children []Splitter, groups [][]int, names []string) (*CombinedSplitter, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("combined splitter: at least one child splitter is required")
	}
	for i, child := range children {
		if child == nil {
			return nil, fmt.Errorf("combined splitter: child %d is nil", i)
		}
	}
	s := &CombinedSplitter{base: newBase(names), children: cloneSplitters(children)}
	originals := 0
	for childIdx, child := range s.children {
		for vsp := 0; vsp < child.NumVirtualSubPops(); vsp++ {
			s.entries = append(s.entries, []vspRef{{child: childIdx, vsp: vsp}})
			originals++
		}
	}
	for groupIdx, group := range groups {
		if len(group) == 0 {
			return nil, fmt.Errorf("combined splitter: union group %d is empty", groupIdx)
		}
		refs := make([]vspRef, 0, len(group))
		for _, flat := range group {
			if flat < 0 || flat >= originals {
				return nil, fmt.Errorf("combined splitter: union group %d references VSP %d of %d",
					groupIdx, flat, originals)
			}
			refs = append(refs, s.entries[flat][0])
		}
		s.entries = append(s.entries, refs)
	}
	return s, nil
}

func (s *CombinedSplitter) Clone() Splitter {
	out := &CombinedSplitter{base: s.cloneBase(), children: cloneSplitters(s.children)}
	out.entries = make([][]vspRef, len(s.entries))
	for i, refs := range s.entries {
		out.entries[i] = append([]vspRef(nil), refs...)
	}
	return out
}

func (s *CombinedSplitter) NumVirtualSubPops() int { return len(s.entries) }

func (s *CombinedSplitter) VSPName(vsp int) (string, error) {
	if err := checkVSP(s, vsp); err != nil {
		return "", err
	}
	if name, ok := s.overrideName(vsp); ok {
		return name, nil
	}
	parts := make([]string, 0, len(s.entries[vsp]))
	for _, ref := range s.entries[vsp] {
		part, err := s.children[ref.child].VSPName(ref.vsp)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " or "), nil
}

func (s *CombinedSplitter) Contains(p pop.Population, ind int, id ID) (bool, error) {
	if err := checkVirtualID(p, s, ind, id); err != nil {
		return false, err
	}
	for _, ref := range s.entries[id.Virtual()] {
		in, err := s.children[ref.child].Contains(p, ind, NewID(id.SubPop(), ref.vsp))
		if err != nil {
			return false, err
		}
		if in {
			return true, nil
		}
	}
	return false, nil
}

func (s *CombinedSplitter) Size(p pop.Population, subPop, vsp int) (int, error) {
	return countContains(s, p, subPop, vsp)
}

// Activate applies the union predicate in one pass. Delegating Activate to
// each member child would let the last call overwrite the earlier ones.
func (s *CombinedSplitter) Activate(p pop.Population, subPop, vsp int) error {
	return activate(&s.base, s, p, subPop, vsp)
}
