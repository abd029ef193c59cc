package vsp

import (
	"popsim/internal/pop"
)

// SexSplitter defines two VSPs: males (VSP 0) and females (VSP 1).
type SexSplitter struct {
	base
}

// NewSexSplitter creates a sex splitter. The VSPs are named MALE and FEMALE
// unless overridden by names.
func NewSexSplitter(names []string) *SexSplitter {
	return &SexSplitter{base: newBase(names)}
}

func (s *SexSplitter) Clone() Splitter {
	return &SexSplitter{base: s.cloneBase()}
}

func (s *SexSplitter) NumVirtualSubPops() int { return 2 }

func (s *SexSplitter) VSPName(vsp int) (string, error) {
	if err := checkVSP(s, vsp); err != nil {
		return "", err
	}
	if name, ok := s.overrideName(vsp); ok {
		return name, nil
	}
	if vsp == 0 {
		return "MALE", nil
	}
	return "FEMALE", nil
}

func (s *SexSplitter) Contains(p pop.Population, ind int, id ID) (bool, error) {
	if err := checkVirtualID(p, s, ind, id); err != nil {
		return false, err
	}
	want := pop.Male
	if id.Virtual() == 1 {
		want = pop.Female
	}
	return p.Ind(id.SubPop(), ind).Sex() == want, nil
}

func (s *SexSplitter) Size(p pop.Population, subPop, vsp int) (int, error) {
	return countContains(s, p, subPop, vsp)
}

func (s *SexSplitter) Activate(p pop.Population, subPop, vsp int) error {
	return activate(&s.base, s, p, subPop, vsp)
}

// AffectionSplitter defines two VSPs: unaffected (VSP 0) and affected
// (VSP 1) individuals.
type AffectionSplitter struct {
	base
}

// NewAffectionSplitter creates an affection splitter. The VSPs are named
// UNAFFECTED and AFFECTED unless overridden by names.
func NewAffectionSplitter(names []string) *AffectionSplitter {
	return &AffectionSplitter{base: newBase(names)}
}

func (s *AffectionSplitter) Clone() Splitter {
	return &AffectionSplitter{base: s.cloneBase()}
}

func (s *AffectionSplitter) NumVirtualSubPops() int { return 2 }

func (s *AffectionSplitter) VSPName(vsp int) (string, error) {
	if err := checkVSP(s, vsp); err != nil {
		return "", err
	}
	if name, ok := s.overrideName(vsp); ok {
		return name, nil
	}
	if vsp == 0 {
		return "UNAFFECTED", nil
	}
	return "AFFECTED", nil
}

func (s *AffectionSplitter) Contains(p pop.Population, ind int, id ID) (bool, error) {
	if err := checkVirtualID(p, s, ind, id); err != nil {
		return false, err
	}
	return p.Ind(id.SubPop(), ind).Affected() == (id.Virtual() == 1), nil
}

func (s *AffectionSplitter) Size(p pop.Population, subPop, vsp int) (int, error) {
	return countContains(s, p, subPop, vsp)
}

func (s *AffectionSplitter) Activate(p pop.Population, subPop, vsp int) error {
	return activate(&s.base, s, p, subPop, vsp)
}
