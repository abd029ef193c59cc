package fitness

import (
	"context"
	"fmt"

	"popsim/internal/pop"
)

// FitnessFunc is an injected fitness model, typically backed by an external
// scripting runtime. It receives the alleles at the declared loci in the
// order locus 0 copy 0, locus 0 copy 1, locus 1 copy 0, ... together with
// the generation number, and returns one fitness value. The engine treats it
// as a black box.
type FitnessFunc func(alleles []int, gen int) (float64, error)

// FuncSelector computes fitness through a caller-provided FitnessFunc.
// Because the backing runtime may not be safely reentrant, Apply always
// evaluates individuals serially regardless of the configured worker count.
type FuncSelector struct {
	cfg  Config
	loci []int
	fn   FitnessFunc
}

// NewFuncSelector builds a callback-backed selector.
func NewFuncSelector(loci []int, fn FitnessFunc, cfg Config) (*FuncSelector, error) {
	if len(loci) == 0 {
		return nil, fmt.Errorf("func selector: at least one locus is required")
	}
	if fn == nil {
		return nil, fmt.Errorf("func selector: fitness callback is required")
	}
	return &FuncSelector{
		cfg:  cfg.normalized(),
		loci: append([]int(nil), loci...),
		fn:   fn,
	}, nil
}

func (s *FuncSelector) locusSelector() {}

func (s *FuncSelector) Clone() Selector { return s.clone() }

func (s *FuncSelector) clone() *FuncSelector {
	return &FuncSelector{
		cfg:  s.cfg.normalized(),
		loci: append([]int(nil), s.loci...),
		fn:   s.fn,
	}
}

func (s *FuncSelector) Scoped(subPops ...int) Selector {
	out := s.clone()
	out.cfg = out.cfg.scoped(subPops)
	return out
}

func (s *FuncSelector) OutputField() string { return s.cfg.Field }

func (s *FuncSelector) IndFitness(ind pop.Individual, gen int) (float64, error) {
	alleles := make([]int, 0, len(s.loci)*ind.Ploidy())
	for _, locus := range s.loci {
		for c := 0; c < ind.Ploidy(); c++ {
			alleles = append(alleles, ind.Allele(locus, c))
		}
	}
	value, err := s.fn(alleles, gen)
	if err != nil {
		return 0, fmt.Errorf("fitness callback at loci %v: %w", s.loci, err)
	}
	if err := checkFitness(value); err != nil {
		return 0, fmt.Errorf("fitness callback at loci %v: %w", s.loci, err)
	}
	return value, nil
}

func (s *FuncSelector) Apply(ctx context.Context, p pop.Population, gen int) error {
	return apply(ctx, p, gen, s.cfg, s.IndFitness, true)
}
