package fitness

import (
	"context"
	"fmt"

	"popsim/internal/pop"
)

// MlMode selects how a multi-locus selector combines child fitness values.
type MlMode int

const (
	// Multiplicative combines as the product of the child values.
	Multiplicative MlMode = iota
	// Additive sums the child selection coefficients s_i = 1 - f_i and
	// combines as max(0, 1 - sum(s_i)).
	Additive
)

func (m MlMode) String() string {
	switch m {
	case Multiplicative:
		return "multiplicative"
	case Additive:
		return "additive"
	default:
		return fmt.Sprintf("MlMode(%d)", int(m))
	}
}

// MlSelector composes several single-model selectors into one fitness
// value. Children are owned deep copies. MlSelector is not a LocusSelector,
// so one composition cannot be nested inside another.
type MlSelector struct {
	cfg      Config
	children []LocusSelector
	mode     MlMode
}

// NewMlSelector builds a multi-locus composition over deep copies of the
// children.
func NewMlSelector(children []LocusSelector, mode MlMode, cfg Config) (*MlSelector, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("ml selector: at least one child selector is required")
	}
	if mode != Multiplicative && mode != Additive {
		return nil, fmt.Errorf("ml selector: unknown mode %d", int(mode))
	}
	s := &MlSelector{cfg: cfg.normalized(), mode: mode}
	for i, child := range children {
		if child == nil {
			return nil, fmt.Errorf("ml selector: child %d is nil", i)
		}
		s.children = append(s.children, child.Clone().(LocusSelector))
	}
	return s, nil
}

func (s *MlSelector) Clone() Selector { return s.clone() }

func (s *MlSelector) clone() *MlSelector {
	out := &MlSelector{cfg: s.cfg.normalized(), mode: s.mode}
	for _, child := range s.children {
		out.children = append(out.children, child.Clone().(LocusSelector))
	}
	return out
}

func (s *MlSelector) Scoped(subPops ...int) Selector {
	out := s.clone()
	out.cfg = out.cfg.scoped(subPops)
	return out
}

func (s *MlSelector) OutputField() string { return s.cfg.Field }

func (s *MlSelector) IndFitness(ind pop.Individual, gen int) (float64, error) {
	switch s.mode {
	case Multiplicative:
		product := 1.0
		for _, child := range s.children {
			value, err := child.IndFitness(ind, gen)
			if err != nil {
				return 0, err
			}
			product *= value
		}
		return product, nil
	default:
		coefficientSum := 0.0
		for _, child := range s.children {
			value, err := child.IndFitness(ind, gen)
			if err != nil {
				return 0, err
			}
			coefficientSum += 1 - value
		}
		if combined := 1 - coefficientSum; combined > 0 {
			return combined, nil
		}
		return 0, nil
	}
}

func (s *MlSelector) Apply(ctx context.Context, p pop.Population, gen int) error {
	return apply(ctx, p, gen, s.cfg, s.IndFitness, false)
}
