package vsp

import (
	"errors"
	"fmt"

	"popsim/internal/pop"
)

var (
	ErrVSPOutOfRange      = errors.New("virtual subpopulation index out of range")
	ErrSubPopOutOfRange   = errors.New("subpopulation index out of range")
	ErrAlreadyActivated   = errors.New("another subpopulation is already activated")
	ErrDeactivateMismatch = errors.New("deactivate does not match activated subpopulation")
)

// Splitter defines one scheme of virtual subpopulations over any
// subpopulation: how many there are, their names, a pure membership
// predicate, and the activation protocol that restricts individual
// visibility to one VSP at a time.
//
// Activation discipline: at most one subpopulation may be activated per
// splitter instance. Activating the same subpopulation again resets
// visibility first and reapplies; Deactivate must name the activated
// subpopulation and restores every individual in it to visible.
type Splitter interface {
	// Clone returns a deep copy with independent activation state.
	Clone() Splitter
	NumVirtualSubPops() int
	// VSPName returns the caller-supplied override for the VSP if one was
	// given at construction, otherwise a splitter-specific default.
	VSPName(vsp int) (string, error)
	// Contains reports whether individual ind (an index relative to the
	// subpopulation named by id) belongs to the virtual subpopulation. It is
	// a pure predicate and never mutates state.
	Contains(p pop.Population, ind int, id ID) (bool, error)
	// Size counts the individuals of the VSP.
	Size(p pop.Population, subPop, vsp int) (int, error)
	// Activate marks individuals of the VSP visible and all other
	// individuals of the subpopulation invisible.
	Activate(p pop.Population, subPop, vsp int) error
	// Deactivate restores full visibility for the activated subpopulation.
	Deactivate(p pop.Population, subPop int) error
	// ActivatedSubPop returns the activated subpopulation index, or Invalid.
	ActivatedSubPop() int
}

// base carries the VSP name overrides and the activation bookkeeping shared
// by every splitter.
type base struct {
	names     []string
	activated int
}

func newBase(names []string) base {
	return base{names: append([]string(nil), names...), activated: Invalid}
}

func (b *base) ActivatedSubPop() int { return b.activated }

// overrideName returns the name override for vsp, if one was supplied. The
// override list may be shorter than the VSP count; missing entries fall back
// to the splitter default.
func (b *base) overrideName(vsp int) (string, bool) {
	if vsp < len(b.names) && b.names[vsp] != "" {
		return b.names[vsp], true
	}
	return "", false
}

func (b *base) cloneBase() base {
	return base{names: append([]string(nil), b.names...), activated: b.activated}
}

// Deactivate is shared by all splitters through embedding.
func (b *base) Deactivate(p pop.Population, subPop int) error {
	if subPop != b.activated {
		return fmt.Errorf("%w: got %d, activated %d", ErrDeactivateMismatch, subPop, b.activated)
	}
	size := p.SubPopSize(subPop)
	for i := 0; i < size; i++ {
		p.Ind(subPop, i).SetVisible(true)
	}
	b.activated = Invalid
	return nil
}

func checkSubPop(p pop.Population, subPop int) error {
	if subPop < 0 || subPop >= p.NumSubPops() {
		return fmt.Errorf("%w: %d", ErrSubPopOutOfRange, subPop)
	}
	return nil
}

func checkVSP(s Splitter, vsp int) error {
	if vsp < 0 || vsp >= s.NumVirtualSubPops() {
		return fmt.Errorf("%w: %d of %d", ErrVSPOutOfRange, vsp, s.NumVirtualSubPops())
	}
	return nil
}

// checkVirtualID validates the dereference preconditions of Contains.
func checkVirtualID(p pop.Population, s Splitter, ind int, id ID) error {
	if !id.Valid() || !id.IsVirtual() {
		return fmt.Errorf("%w: %s is not a virtual subpopulation", ErrVSPOutOfRange, id)
	}
	if err := checkSubPop(p, id.SubPop()); err != nil {
		return err
	}
	if err := checkVSP(s, id.Virtual()); err != nil {
		return err
	}
	if ind < 0 || ind >= p.SubPopSize(id.SubPop()) {
		return fmt.Errorf("individual index %d out of range for subpopulation %d", ind, id.SubPop())
	}
	return nil
}

// activate applies the splitter's own Contains predicate across the whole
// subpopulation. Every individual's flag is written, so re-activation of the
// same subpopulation is reset-then-apply rather than an AND with the
// previous state. All predicates are evaluated before the first flag is
// written; a failing predicate leaves visibility untouched.
func activate(b *base, s Splitter, p pop.Population, subPop, vsp int) error {
	if err := checkSubPop(p, subPop); err != nil {
		return err
	}
	if err := checkVSP(s, vsp); err != nil {
		return err
	}
	if b.activated != Invalid && b.activated != subPop {
		return fmt.Errorf("%w: %d", ErrAlreadyActivated, b.activated)
	}
	size := p.SubPopSize(subPop)
	id := NewID(subPop, vsp)
	members := make([]bool, size)
	for i := 0; i < size; i++ {
		in, err := s.Contains(p, i, id)
		if err != nil {
			return err
		}
		members[i] = in
	}
	for i, in := range members {
		p.Ind(subPop, i).SetVisible(in)
	}
	b.activated = subPop
	return nil
}

// countContains is the predicate-derived size used by splitters without a
// cheaper closed form.
func countContains(s Splitter, p pop.Population, subPop, vsp int) (int, error) {
	if err := checkSubPop(p, subPop); err != nil {
		return 0, err
	}
	if err := checkVSP(s, vsp); err != nil {
		return 0, err
	}
	size := p.SubPopSize(subPop)
	id := NewID(subPop, vsp)
	count := 0
	for i := 0; i < size; i++ {
		in, err := s.Contains(p, i, id)
		if err != nil {
			return 0, err
		}
		if in {
			count++
		}
	}
	return count, nil
}

// Members returns the storage-order indices of the individuals in the VSP.
// It is a pure query built on Contains and independent of activation state,
// for callers that prefer an explicit index set over the visibility flag.
func Members(s Splitter, p pop.Population, subPop, vsp int) ([]int, error) {
	if err := checkSubPop(p, subPop); err != nil {
		return nil, err
	}
	if err := checkVSP(s, vsp); err != nil {
		return nil, err
	}
	size := p.SubPopSize(subPop)
	id := NewID(subPop, vsp)
	var out []int
	for i := 0; i < size; i++ {
		in, err := s.Contains(p, i, id)
		if err != nil {
			return nil, err
		}
		if in {
			out = append(out, i)
		}
	}
	return out, nil
}

func cloneSplitters(splitters []Splitter) []Splitter {
	out := make([]Splitter, len(splitters))
	for i, s := range splitters {
		out[i] = s.Clone()
	}
	return out
}
