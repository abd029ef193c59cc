package fitness

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"popsim/internal/pop"
)

// DefaultField is the information field fitness values are written to unless
// a selector is configured otherwise.
const DefaultField = "fitness"

var (
	ErrUnmappedGenotype = errors.New("no fitness defined for genotype")
	ErrBadFitness       = errors.New("fitness must be a non-negative number")
)

// Selector computes a per-individual fitness value and writes it to an
// information field on every visible individual in scope. Mating drivers
// read that field to bias reproduction; a selector on its own selects
// nothing.
type Selector interface {
	// Clone returns a deep copy.
	Clone() Selector
	// Scoped returns a copy restricted to the given subpopulations.
	Scoped(subPops ...int) Selector
	// OutputField is the information field Apply writes.
	OutputField() string
	// IndFitness computes the fitness of one individual at a generation. It
	// reads only the individual and the selector configuration.
	IndFitness(ind pop.Individual, gen int) (float64, error)
	// Apply evaluates every visible individual of every subpopulation in
	// scope and stores the result in the output field. The first evaluation
	// error aborts the pass; values already written remain.
	Apply(ctx context.Context, p pop.Population, gen int) error
}

// LocusSelector marks the selectors usable as children of a multi-locus
// composition. MlSelector deliberately does not implement it, so composites
// cannot nest.
type LocusSelector interface {
	Selector
	locusSelector()
}

// Config carries the settings shared by all selectors.
type Config struct {
	// SubPops restricts Apply to these subpopulations; empty means all.
	SubPops []int
	// Field overrides the output information field.
	Field string
	// Workers bounds parallel evaluation during Apply.
	Workers int
}

func (c Config) normalized() Config {
	out := Config{
		SubPops: append([]int(nil), c.SubPops...),
		Field:   c.Field,
		Workers: c.Workers,
	}
	if out.Field == "" {
		out.Field = DefaultField
	}
	if out.Workers < 1 {
		out.Workers = 1
	}
	return out
}

func (c Config) scoped(subPops []int) Config {
	out := c
	out.SubPops = append([]int(nil), subPops...)
	return out
}

func checkFitness(value float64) error {
	if math.IsNaN(value) || value < 0 {
		return fmt.Errorf("%w: got %v", ErrBadFitness, value)
	}
	return nil
}

// validateTable rejects fitness tables with negative or NaN entries at
// construction time.
func validateTable(values []float64) error {
	for i, v := range values {
		if err := checkFitness(v); err != nil {
			return fmt.Errorf("fitness table entry %d: %w", i, err)
		}
	}
	return nil
}

func resolveSubPops(p pop.Population, scoped []int) ([]int, error) {
	if len(scoped) == 0 {
		all := make([]int, p.NumSubPops())
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	for _, sp := range scoped {
		if sp < 0 || sp >= p.NumSubPops() {
			return nil, fmt.Errorf("subpopulation index out of range: %d of %d", sp, p.NumSubPops())
		}
	}
	return scoped, nil
}

// apply runs eval over every visible individual in scope and writes results
// to cfg.Field. With serial set, or a single worker, individuals are
// evaluated in storage order on the calling goroutine; otherwise evaluation
// fans out over a bounded worker pool. Output writes target disjoint
// individuals, so workers never contend.
func apply(ctx context.Context, p pop.Population, gen int, cfg Config,
	eval func(ind pop.Individual, gen int) (float64, error), serial bool) error {

	subPops, err := resolveSubPops(p, cfg.SubPops)
	if err != nil {
		return err
	}

	var visible []pop.Individual
	for _, sp := range subPops {
		size := p.SubPopSize(sp)
		for i := 0; i < size; i++ {
			ind := p.Ind(sp, i)
			if ind.Visible() {
				visible = append(visible, ind)
			}
		}
	}

	if serial || cfg.Workers == 1 || len(visible) < 2 {
		for _, ind := range visible {
			if err := ctx.Err(); err != nil {
				return err
			}
			value, err := eval(ind, gen)
			if err != nil {
				return err
			}
			if err := checkFitness(value); err != nil {
				return err
			}
			if err := ind.SetInfo(cfg.Field, value); err != nil {
				return err
			}
		}
		return nil
	}

	workerCount := cfg.Workers
	if workerCount > len(visible) {
		workerCount = len(visible)
	}

	jobs := make(chan pop.Individual)
	results := make(chan error, len(visible))

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for ind := range jobs {
				if err := ctx.Err(); err != nil {
					results <- err
					continue
				}
				value, err := eval(ind, gen)
				if err == nil {
					err = checkFitness(value)
				}
				if err == nil {
					err = ind.SetInfo(cfg.Field, value)
				}
				results <- err
			}
		}()
	}

	for _, ind := range visible {
		jobs <- ind
	}
	close(jobs)

	wg.Wait()
	close(results)

	for err := range results {
		if err != nil {
			return err
		}
	}
	return nil
}
