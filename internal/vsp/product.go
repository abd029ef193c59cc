package vsp

import (
	"fmt"
	"strings"

	"popsim/internal/pop"
)

// ProductSplitter cross-multiplies the VSP spaces of several child
// splitters. A flattened index decomposes, mixed-radix over the children's
// VSP counts with the first child varying slowest, into one VSP per child;
// membership requires containment in every decomposed child VSP.
type ProductSplitter struct {
	base
	children []Splitter
	total    int
}

// NewProductSplitter creates a product splitter over the children's VSP
// intersections.
func NewProductSplitter(children []Splitter, names []string) (*ProductSplitter, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("product splitter: at least one child splitter is required")
	}
	total := 1
	for i, child := range children {
		if child == nil {
			return nil, fmt.Errorf("product splitter: child %d is nil", i)
		}
		count := child.NumVirtualSubPops()
		if count < 1 {
			return nil, fmt.Errorf("product splitter: child %d defines no virtual subpopulations", i)
		}
		total *= count
	}
	return &ProductSplitter{base: newBase(names), children: cloneSplitters(children), total: total}, nil
}

func (s *ProductSplitter) Clone() Splitter {
	return &ProductSplitter{base: s.cloneBase(), children: cloneSplitters(s.children), total: s.total}
}

func (s *ProductSplitter) NumVirtualSubPops() int { return s.total }

// decompose maps a flattened index to one child-local index per child.
func (s *ProductSplitter) decompose(vsp int) []int {
	out := make([]int, len(s.children))
	for i := len(s.children) - 1; i >= 0; i-- {
		count := s.children[i].NumVirtualSubPops()
		out[i] = vsp % count
		vsp /= count
	}
	return out
}

func (s *ProductSplitter) VSPName(vsp int) (string, error) {
	if err := checkVSP(s, vsp); err != nil {
		return "", err
	}
	if name, ok := s.overrideName(vsp); ok {
		return name, nil
	}
	locals := s.decompose(vsp)
	parts := make([]string, len(locals))
	for i, local := range locals {
		part, err := s.children[i].VSPName(local)
		if err != nil {
			return "", err
		}
		parts[i] = part
	}
	return strings.Join(parts, ", "), nil
}

func (s *ProductSplitter) Contains(p pop.Population, ind int, id ID) (bool, error) {
	if err := checkVirtualID(p, s, ind, id); err != nil {
		return false, err
	}
	for i, local := range s.decompose(id.Virtual()) {
		in, err := s.children[i].Contains(p, ind, NewID(id.SubPop(), local))
		if err != nil {
			return false, err
		}
		if !in {
			return false, nil
		}
	}
	return true, nil
}

func (s *ProductSplitter) Size(p pop.Population, subPop, vsp int) (int, error) {
	return countContains(s, p, subPop, vsp)
}

// Activate applies the intersection predicate in one pass over the
// subpopulation. Chaining the children's own Activate calls would leave only
// the last child's restriction in effect.
func (s *ProductSplitter) Activate(p pop.Population, subPop, vsp int) error {
	return activate(&s.base, s, p, subPop, vsp)
}
