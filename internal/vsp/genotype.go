package vsp

import (
	"fmt"
	"sort"
	"strings"

	"popsim/internal/pop"
)

// GenotypeSplitter defines one VSP per allele group. A group lists one or
// more alternative genotypes back to back, each in haplotype-major order
// over the declared loci; an individual belongs to the VSP when it matches
// any alternative. With phase, ploidy copy order must match the alternative
// exactly; without phase, the alleles observed at each locus must equal the
// alternative's alleles for that locus regardless of which parental copy
// holds which value.
type GenotypeSplitter struct {
	base
	loci   []int
	groups [][]int
	phase  bool
}

// NewGenotypeSplitter creates a genotype splitter. Every group's length must
// be a multiple of the locus count; how many alternatives it holds depends
// on the ploidy of the population it is later applied to.
func NewGenotypeSplitter(loci []int, groups [][]int, phase bool, names []string) (*GenotypeSplitter, error) {
	if len(loci) == 0 {
		return nil, fmt.Errorf("genotype splitter: at least one locus is required")
	}
	for i, locus := range loci {
		if locus < 0 {
			return nil, fmt.Errorf("genotype splitter: locus %d is negative", i)
		}
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("genotype splitter: at least one allele group is required")
	}
	for i, group := range groups {
		if len(group) == 0 || len(group)%len(loci) != 0 {
			return nil, fmt.Errorf("genotype splitter: group %d has %d alleles, want a multiple of %d loci",
				i, len(group), len(loci))
		}
		for _, allele := range group {
			if allele < 0 {
				return nil, fmt.Errorf("genotype splitter: group %d contains negative allele %d", i, allele)
			}
		}
	}
	s := &GenotypeSplitter{
		base:  newBase(names),
		loci:  append([]int(nil), loci...),
		phase: phase,
	}
	s.groups = make([][]int, len(groups))
	for i, group := range groups {
		s.groups[i] = append([]int(nil), group...)
	}
	return s, nil
}

func (s *GenotypeSplitter) Clone() Splitter {
	out := &GenotypeSplitter{
		base:  s.cloneBase(),
		loci:  append([]int(nil), s.loci...),
		phase: s.phase,
	}
	out.groups = make([][]int, len(s.groups))
	for i, group := range s.groups {
		out.groups[i] = append([]int(nil), group...)
	}
	return out
}

func (s *GenotypeSplitter) NumVirtualSubPops() int { return len(s.groups) }

func (s *GenotypeSplitter) VSPName(vsp int) (string, error) {
	if err := checkVSP(s, vsp); err != nil {
		return "", err
	}
	if name, ok := s.overrideName(vsp); ok {
		return name, nil
	}
	loci := make([]string, len(s.loci))
	for i, locus := range s.loci {
		loci[i] = fmt.Sprintf("%d", locus)
	}
	alleles := make([]string, len(s.groups[vsp]))
	for i, allele := range s.groups[vsp] {
		alleles[i] = fmt.Sprintf("%d", allele)
	}
	return fmt.Sprintf("Genotype %s: %s", strings.Join(loci, ","), strings.Join(alleles, ",")), nil
}

func (s *GenotypeSplitter) Contains(p pop.Population, ind int, id ID) (bool, error) {
	if err := checkVirtualID(p, s, ind, id); err != nil {
		return false, err
	}
	for _, locus := range s.loci {
		if locus >= p.NumLoci() {
			return false, fmt.Errorf("genotype splitter: locus %d out of range for population with %d loci",
				locus, p.NumLoci())
		}
	}
	group := s.groups[id.Virtual()]
	stride := p.Ploidy() * len(s.loci)
	if len(group)%stride != 0 {
		return false, fmt.Errorf("genotype splitter: group has %d alleles, want a multiple of ploidy %d x %d loci",
			len(group), p.Ploidy(), len(s.loci))
	}
	individual := p.Ind(id.SubPop(), ind)
	for start := 0; start < len(group); start += stride {
		if s.match(individual, group[start:start+stride], p.Ploidy()) {
			return true, nil
		}
	}
	return false, nil
}

// match compares one individual against one haplotype-major alternative.
func (s *GenotypeSplitter) match(ind pop.Individual, alternative []int, ploidy int) bool {
	numLoci := len(s.loci)
	if s.phase {
		for c := 0; c < ploidy; c++ {
			for j, locus := range s.loci {
				if ind.Allele(locus, c) != alternative[c*numLoci+j] {
					return false
				}
			}
		}
		return true
	}
	// Unphased: per locus, the observed alleles must be a rearrangement of
	// the declared ones across ploidy copies.
	observed := make([]int, ploidy)
	declared := make([]int, ploidy)
	for j, locus := range s.loci {
		for c := 0; c < ploidy; c++ {
			observed[c] = ind.Allele(locus, c)
			declared[c] = alternative[c*numLoci+j]
		}
		sort.Ints(observed)
		sort.Ints(declared)
		for c := 0; c < ploidy; c++ {
			if observed[c] != declared[c] {
				return false
			}
		}
	}
	return true
}

func (s *GenotypeSplitter) Size(p pop.Population, subPop, vsp int) (int, error) {
	return countContains(s, p, subPop, vsp)
}

func (s *GenotypeSplitter) Activate(p pop.Population, subPop, vsp int) error {
	return activate(&s.base, s, p, subPop, vsp)
}
