package fitness

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"popsim/internal/pop"
)

// MapSelector looks fitness up in a genotype dictionary. Keys name the
// alleles per locus joined by "-", loci joined by "|": "0-1|1-1" is the
// two-locus diploid genotype (0,1) at the first declared locus and (1,1) at
// the second. Without phase, a key and any per-locus rearrangement of its
// ploidy copies resolve to the same value.
type MapSelector struct {
	cfg   Config
	loci  []int
	table map[string]float64
	phase bool
	// ploidy implied by the table keys, fixed at construction.
	keyPloidy int
}

// NewMapSelector builds a genotype-dictionary selector.
func NewMapSelector(loci []int, table map[string]float64, phase bool, cfg Config) (*MapSelector, error) {
	if len(loci) == 0 {
		return nil, fmt.Errorf("map selector: at least one locus is required")
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("map selector: fitness table is empty")
	}
	s := &MapSelector{
		cfg:   cfg.normalized(),
		loci:  append([]int(nil), loci...),
		table: make(map[string]float64, len(table)),
		phase: phase,
	}
	for key, value := range table {
		if err := checkFitness(value); err != nil {
			return nil, fmt.Errorf("map selector: key %q: %w", key, err)
		}
		genotype, ploidy, err := parseGenotypeKey(key, len(loci))
		if err != nil {
			return nil, fmt.Errorf("map selector: %w", err)
		}
		if s.keyPloidy == 0 {
			s.keyPloidy = ploidy
		} else if ploidy != s.keyPloidy {
			return nil, fmt.Errorf("map selector: key %q implies ploidy %d, previous keys imply %d",
				key, ploidy, s.keyPloidy)
		}
		canonical := genotypeKey(genotype, len(loci), ploidy, phase)
		if previous, ok := s.table[canonical]; ok && previous != value {
			return nil, fmt.Errorf("map selector: keys for genotype %q disagree: %v and %v",
				canonical, previous, value)
		}
		s.table[canonical] = value
	}
	return s, nil
}

func (s *MapSelector) locusSelector() {}

func (s *MapSelector) Clone() Selector { return s.clone() }

func (s *MapSelector) clone() *MapSelector {
	out := &MapSelector{
		cfg:       s.cfg.normalized(),
		loci:      append([]int(nil), s.loci...),
		table:     make(map[string]float64, len(s.table)),
		phase:     s.phase,
		keyPloidy: s.keyPloidy,
	}
	for k, v := range s.table {
		out.table[k] = v
	}
	return out
}

func (s *MapSelector) Scoped(subPops ...int) Selector {
	out := s.clone()
	out.cfg = out.cfg.scoped(subPops)
	return out
}

func (s *MapSelector) OutputField() string { return s.cfg.Field }

func (s *MapSelector) IndFitness(ind pop.Individual, gen int) (float64, error) {
	genotype := make([]int, 0, len(s.loci)*ind.Ploidy())
	for _, locus := range s.loci {
		for c := 0; c < ind.Ploidy(); c++ {
			genotype = append(genotype, ind.Allele(locus, c))
		}
	}
	key := genotypeKey(genotype, len(s.loci), ind.Ploidy(), s.phase)
	value, ok := s.table[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q at loci %v", ErrUnmappedGenotype, key, s.loci)
	}
	return value, nil
}

func (s *MapSelector) Apply(ctx context.Context, p pop.Population, gen int) error {
	return apply(ctx, p, gen, s.cfg, s.IndFitness, false)
}

// parseGenotypeKey splits a "a-b|c-d" key into a locus-major allele list and
// the ploidy it implies.
func parseGenotypeKey(key string, numLoci int) ([]int, int, error) {
	parts := strings.Split(key, "|")
	if len(parts) != numLoci {
		return nil, 0, fmt.Errorf("key %q names %d loci, want %d", key, len(parts), numLoci)
	}
	ploidy := 0
	var genotype []int
	for _, part := range parts {
		fields := strings.Split(part, "-")
		if ploidy == 0 {
			ploidy = len(fields)
		} else if len(fields) != ploidy {
			return nil, 0, fmt.Errorf("key %q mixes ploidy %d and %d", key, ploidy, len(fields))
		}
		for _, field := range fields {
			allele, err := strconv.Atoi(field)
			if err != nil || allele < 0 {
				return nil, 0, fmt.Errorf("key %q has malformed allele %q", key, field)
			}
			genotype = append(genotype, allele)
		}
	}
	return genotype, ploidy, nil
}

// genotypeKey canonicalizes a locus-major allele list into dictionary form.
// Without phase the alleles of each locus are sorted, so any per-locus
// rearrangement of ploidy copies yields the same key.
func genotypeKey(genotype []int, numLoci, ploidy int, phase bool) string {
	var b strings.Builder
	alleles := make([]int, ploidy)
	for locus := 0; locus < numLoci; locus++ {
		copy(alleles, genotype[locus*ploidy:(locus+1)*ploidy])
		if !phase {
			sort.Ints(alleles)
		}
		if locus > 0 {
			b.WriteByte('|')
		}
		for c, allele := range alleles {
			if c > 0 {
				b.WriteByte('-')
			}
			b.WriteString(strconv.Itoa(allele))
		}
	}
	return b.String()
}
