package vsp

import "fmt"

// Invalid marks an unset subpopulation or virtual subpopulation index.
const Invalid = -1

// ID names a (subpopulation, virtual subpopulation) pair. The virtual index
// may be unset, in which case the ID names a whole subpopulation. An ID with
// an unset subpopulation index is invalid and must not be dereferenced.
type ID struct {
	subPop  int
	virtual int
}

// NewID builds an ID; negative indices collapse to Invalid.
func NewID(subPop, virtual int) ID {
	if subPop < 0 {
		subPop = Invalid
	}
	if virtual < 0 {
		virtual = Invalid
	}
	return ID{subPop: subPop, virtual: virtual}
}

// SubPopID names a whole, non-virtual subpopulation.
func SubPopID(subPop int) ID {
	return NewID(subPop, Invalid)
}

func (id ID) SubPop() int { return id.subPop }
func (id ID) Virtual() int { return id.virtual }

func (id ID) Valid() bool { return id.subPop != Invalid }
func (id ID) IsVirtual() bool { return id.virtual != Invalid }

func (id ID) String() string {
	if !id.Valid() {
		return "(invalid)"
	}
	if !id.IsVirtual() {
		return fmt.Sprintf("(%d)", id.subPop)
	}
	return fmt.Sprintf("(%d, %d)", id.subPop, id.virtual)
}
