package fitness

import (
	"context"
	"fmt"

	"popsim/internal/pop"
)

// MaSelector is the multi-allele (wildtype/disease) selector. Alleles split
// into a wildtype group and everything else; fitness is looked up by the
// per-locus count of non-wildtype alleles, 0 through 2 per diploid locus,
// combined locus-major with the first declared locus most significant. The
// table length is therefore exactly 3^numLoci.
type MaSelector struct {
	cfg      Config
	loci     []int
	table    []float64
	wildtype map[int]struct{}
}

// NewMaSelector builds a multi-allele selector. An empty wildtype defaults
// to allele 0.
func NewMaSelector(loci []int, table []float64, wildtype []int, cfg Config) (*MaSelector, error) {
	if len(loci) == 0 {
		return nil, fmt.Errorf("ma selector: at least one locus is required")
	}
	want := 1
	for range loci {
		want *= 3
	}
	if len(table) != want {
		return nil, fmt.Errorf("ma selector: fitness table has %d entries, want 3^%d = %d",
			len(table), len(loci), want)
	}
	if err := validateTable(table); err != nil {
		return nil, fmt.Errorf("ma selector: %w", err)
	}
	if len(wildtype) == 0 {
		wildtype = []int{0}
	}
	s := &MaSelector{
		cfg:      cfg.normalized(),
		loci:     append([]int(nil), loci...),
		table:    append([]float64(nil), table...),
		wildtype: make(map[int]struct{}, len(wildtype)),
	}
	for _, allele := range wildtype {
		s.wildtype[allele] = struct{}{}
	}
	return s, nil
}

func (s *MaSelector) locusSelector() {}

func (s *MaSelector) Clone() Selector { return s.clone() }

func (s *MaSelector) clone() *MaSelector {
	out := &MaSelector{
		cfg:      s.cfg.normalized(),
		loci:     append([]int(nil), s.loci...),
		table:    append([]float64(nil), s.table...),
		wildtype: make(map[int]struct{}, len(s.wildtype)),
	}
	for allele := range s.wildtype {
		out.wildtype[allele] = struct{}{}
	}
	return out
}

func (s *MaSelector) Scoped(subPops ...int) Selector {
	out := s.clone()
	out.cfg = out.cfg.scoped(subPops)
	return out
}

func (s *MaSelector) OutputField() string { return s.cfg.Field }

func (s *MaSelector) IndFitness(ind pop.Individual, gen int) (float64, error) {
	if ind.Ploidy() != 2 {
		return 0, fmt.Errorf("ma selector: requires a diploid individual, got ploidy %d", ind.Ploidy())
	}
	idx := 0
	for _, locus := range s.loci {
		count := 0
		for c := 0; c < 2; c++ {
			if _, ok := s.wildtype[ind.Allele(locus, c)]; !ok {
				count++
			}
		}
		idx = idx*3 + count
	}
	return s.table[idx], nil
}

func (s *MaSelector) Apply(ctx context.Context, p pop.Population, gen int) error {
	return apply(ctx, p, gen, s.cfg, s.IndFitness, false)
}
