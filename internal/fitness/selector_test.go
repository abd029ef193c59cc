package fitness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popsim/internal/pop"
)

// newDiploidPop builds one subpopulation of diploid individuals whose
// genotype at locus 0 is taken pairwise from genotypes.
func newDiploidPop(t *testing.T, genotypes [][2]int, numLoci int) *pop.MemPop {
	t.Helper()
	p, err := pop.NewMemPop([]int{len(genotypes)}, numLoci, 2)
	require.NoError(t, err)
	for i, g := range genotypes {
		p.MemInd(0, i).SetAllele(0, 0, g[0])
		p.MemInd(0, i).SetAllele(0, 1, g[1])
	}
	return p
}

// constSelector returns a callback selector that always reports value.
func constSelector(t *testing.T, value float64) *FuncSelector {
	t.Helper()
	s, err := NewFuncSelector([]int{0}, func(_ []int, _ int) (float64, error) {
		return value, nil
	}, Config{})
	require.NoError(t, err)
	return s
}

func TestMapSelectorUnphasedKeyEquivalence(t *testing.T) {
	p := newDiploidPop(t, [][2]int{{0, 1}, {1, 0}}, 1)
	s, err := NewMapSelector([]int{0}, map[string]float64{"0-1": 0.9}, false, Config{})
	require.NoError(t, err)

	forward, err := s.IndFitness(p.Ind(0, 0), 0)
	require.NoError(t, err)
	reversed, err := s.IndFitness(p.Ind(0, 1), 0)
	require.NoError(t, err)
	assert.Equal(t, 0.9, forward)
	assert.Equal(t, 0.9, reversed, "keys [0,1] and [1,0] must resolve identically without phase")
}

func TestMapSelectorPhasedKeysAreDistinct(t *testing.T) {
	p := newDiploidPop(t, [][2]int{{0, 1}, {1, 0}}, 1)
	s, err := NewMapSelector([]int{0}, map[string]float64{"0-1": 0.9, "1-0": 0.4}, true, Config{})
	require.NoError(t, err)

	forward, err := s.IndFitness(p.Ind(0, 0), 0)
	require.NoError(t, err)
	reversed, err := s.IndFitness(p.Ind(0, 1), 0)
	require.NoError(t, err)
	assert.Equal(t, 0.9, forward)
	assert.Equal(t, 0.4, reversed)
}

func TestMapSelectorUnmappedGenotypeFails(t *testing.T) {
	p := newDiploidPop(t, [][2]int{{1, 1}}, 1)
	s, err := NewMapSelector([]int{0}, map[string]float64{"0-0": 1}, false, Config{})
	require.NoError(t, err)

	_, err = s.IndFitness(p.Ind(0, 0), 0)
	assert.ErrorIs(t, err, ErrUnmappedGenotype)
}

func TestMapSelectorValidation(t *testing.T) {
	_, err := NewMapSelector(nil, map[string]float64{"0-0": 1}, false, Config{})
	assert.Error(t, err, "loci are required")

	_, err = NewMapSelector([]int{0}, nil, false, Config{})
	assert.Error(t, err, "table is required")

	_, err = NewMapSelector([]int{0}, map[string]float64{"x-0": 1}, false, Config{})
	assert.Error(t, err, "malformed allele")

	_, err = NewMapSelector([]int{0}, map[string]float64{"0-0|1-1": 1}, false, Config{})
	assert.Error(t, err, "key names more loci than declared")

	_, err = NewMapSelector([]int{0, 1}, map[string]float64{"0-0|1": 1}, false, Config{})
	assert.Error(t, err, "mixed ploidy in one key")

	_, err = NewMapSelector([]int{0}, map[string]float64{"0-0": -0.5}, false, Config{})
	assert.ErrorIs(t, err, ErrBadFitness)

	// Without phase, two spellings of one genotype must not disagree.
	_, err = NewMapSelector([]int{0}, map[string]float64{"0-1": 0.9, "1-0": 0.5}, false, Config{})
	assert.Error(t, err)
}

func TestMaSelectorTableLengthIsValidated(t *testing.T) {
	for _, badLength := range []int{2, 4} {
		table := make([]float64, badLength)
		_, err := NewMaSelector([]int{0}, table, nil, Config{})
		assert.Error(t, err, "table of length %d must be rejected for one locus", badLength)
	}
	_, err := NewMaSelector([]int{0}, []float64{1, 0.9, 0.8}, nil, Config{})
	assert.NoError(t, err)

	// Two loci need 3^2 entries.
	_, err = NewMaSelector([]int{0, 1}, make([]float64, 9), nil, Config{})
	assert.NoError(t, err)
	_, err = NewMaSelector([]int{0, 1}, make([]float64, 6), nil, Config{})
	assert.Error(t, err)
}

func TestMaSelectorCountsNonWildtypeAlleles(t *testing.T) {
	p := newDiploidPop(t, [][2]int{{0, 0}, {0, 1}, {1, 1}, {2, 1}}, 1)
	s, err := NewMaSelector([]int{0}, []float64{1, 0.9, 0.8}, nil, Config{})
	require.NoError(t, err)

	for i, want := range []float64{1, 0.9, 0.8, 0.8} {
		got, err := s.IndFitness(p.Ind(0, i), 0)
		require.NoError(t, err)
		assert.Equal(t, want, got, "individual %d", i)
	}
}

func TestMaSelectorTwoLocusIndexIsLocusMajor(t *testing.T) {
	table := make([]float64, 9)
	for i := range table {
		table[i] = float64(i) / 10
	}
	s, err := NewMaSelector([]int{0, 1}, table, nil, Config{})
	require.NoError(t, err)

	p, err := pop.NewMemPop([]int{1}, 2, 2)
	require.NoError(t, err)
	ind := p.MemInd(0, 0)
	// Locus 0 carries one non-wildtype allele, locus 1 two: index 1*3+2.
	ind.SetAllele(0, 0, 1)
	ind.SetAllele(1, 0, 1)
	ind.SetAllele(1, 1, 1)

	got, err := s.IndFitness(ind, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, got)
}

func TestMaSelectorRequiresDiploid(t *testing.T) {
	p, err := pop.NewMemPop([]int{1}, 1, 3)
	require.NoError(t, err)
	s, err := NewMaSelector([]int{0}, []float64{1, 0.9, 0.8}, nil, Config{})
	require.NoError(t, err)

	_, err = s.IndFitness(p.Ind(0, 0), 0)
	assert.Error(t, err)
}

func TestMlSelectorMultiplicative(t *testing.T) {
	p := newDiploidPop(t, [][2]int{{0, 0}}, 1)
	s, err := NewMlSelector([]LocusSelector{constSelector(t, 0.8), constSelector(t, 0.5)}, Multiplicative, Config{})
	require.NoError(t, err)

	got, err := s.IndFitness(p.Ind(0, 0), 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, got, 1e-12)
}

func TestMlSelectorAdditive(t *testing.T) {
	p := newDiploidPop(t, [][2]int{{0, 0}}, 1)

	s, err := NewMlSelector([]LocusSelector{constSelector(t, 0.7), constSelector(t, 0.6)}, Additive, Config{})
	require.NoError(t, err)
	got, err := s.IndFitness(p.Ind(0, 0), 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, got, 1e-12, "s = 0.3 + 0.4 leaves 1 - 0.7")

	// A third child pushes the summed coefficients above 1 and clamps to 0.
	s, err = NewMlSelector(
		[]LocusSelector{constSelector(t, 0.7), constSelector(t, 0.6), constSelector(t, 0.1)},
		Additive, Config{})
	require.NoError(t, err)
	got, err = s.IndFitness(p.Ind(0, 0), 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestMlSelectorValidation(t *testing.T) {
	_, err := NewMlSelector(nil, Multiplicative, Config{})
	assert.Error(t, err)

	_, err = NewMlSelector([]LocusSelector{nil}, Multiplicative, Config{})
	assert.Error(t, err)

	_, err = NewMlSelector([]LocusSelector{constSelector(t, 1)}, MlMode(9), Config{})
	assert.Error(t, err)
}

func TestMlSelectorOwnsChildCopies(t *testing.T) {
	child := constSelector(t, 0.5)
	s, err := NewMlSelector([]LocusSelector{child}, Multiplicative, Config{})
	require.NoError(t, err)

	clone := s.Clone()
	p := newDiploidPop(t, [][2]int{{0, 0}}, 1)
	original, err := s.IndFitness(p.Ind(0, 0), 0)
	require.NoError(t, err)
	copied, err := clone.IndFitness(p.Ind(0, 0), 0)
	require.NoError(t, err)
	assert.Equal(t, original, copied)
}

func TestFuncSelectorMarshalOrder(t *testing.T) {
	p, err := pop.NewMemPop([]int{1}, 2, 2)
	require.NoError(t, err)
	ind := p.MemInd(0, 0)
	ind.SetAllele(0, 0, 1)
	ind.SetAllele(0, 1, 2)
	ind.SetAllele(1, 0, 3)
	ind.SetAllele(1, 1, 4)

	var seenAlleles []int
	var seenGen int
	s, err := NewFuncSelector([]int{0, 1}, func(alleles []int, gen int) (float64, error) {
		seenAlleles = append([]int(nil), alleles...)
		seenGen = gen
		return 1, nil
	}, Config{})
	require.NoError(t, err)

	_, err = s.IndFitness(ind, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, seenAlleles,
		"alleles must arrive as locus 0 copy 0, locus 0 copy 1, locus 1 copy 0, locus 1 copy 1")
	assert.Equal(t, 7, seenGen)
}

func TestFuncSelectorErrorsPropagate(t *testing.T) {
	p := newDiploidPop(t, [][2]int{{0, 0}}, 1)

	boom := assert.AnError
	s, err := NewFuncSelector([]int{0}, func(_ []int, _ int) (float64, error) {
		return 0, boom
	}, Config{})
	require.NoError(t, err)

	err = s.Apply(context.Background(), p, 0)
	assert.ErrorIs(t, err, boom)
	_, infoErr := p.Ind(0, 0).Info(DefaultField)
	assert.Error(t, infoErr, "no default fitness may be written on callback failure")
}

func TestFuncSelectorRejectsNegativeFitness(t *testing.T) {
	p := newDiploidPop(t, [][2]int{{0, 0}}, 1)
	s, err := NewFuncSelector([]int{0}, func(_ []int, _ int) (float64, error) {
		return -1, nil
	}, Config{})
	require.NoError(t, err)

	_, err = s.IndFitness(p.Ind(0, 0), 0)
	assert.ErrorIs(t, err, ErrBadFitness)
}

func TestFuncSelectorValidation(t *testing.T) {
	_, err := NewFuncSelector(nil, func(_ []int, _ int) (float64, error) { return 1, nil }, Config{})
	assert.Error(t, err)
	_, err = NewFuncSelector([]int{0}, nil, Config{})
	assert.Error(t, err)
}

func TestApplyVisitsOnlyVisibleIndividuals(t *testing.T) {
	p := newDiploidPop(t, [][2]int{{0, 0}, {0, 0}, {0, 0}}, 1)
	p.MemInd(0, 1).SetVisible(false)

	s := constSelector(t, 0.5)
	require.NoError(t, s.Apply(context.Background(), p, 0))

	for _, i := range []int{0, 2} {
		value, err := p.Ind(0, i).Info(DefaultField)
		require.NoError(t, err)
		assert.Equal(t, 0.5, value)
	}
	_, err := p.Ind(0, 1).Info(DefaultField)
	assert.Error(t, err, "invisible individuals must not be evaluated")
}

func TestApplyHonorsScopeAndField(t *testing.T) {
	p, err := pop.NewMemPop([]int{2, 2}, 1, 2)
	require.NoError(t, err)

	s, err := NewFuncSelector([]int{0}, func(_ []int, _ int) (float64, error) {
		return 0.25, nil
	}, Config{SubPops: []int{1}, Field: "viability"})
	require.NoError(t, err)
	require.NoError(t, s.Apply(context.Background(), p, 0))

	value, err := p.Ind(1, 0).Info("viability")
	require.NoError(t, err)
	assert.Equal(t, 0.25, value)
	_, err = p.Ind(0, 0).Info("viability")
	assert.Error(t, err, "out-of-scope subpopulations must be untouched")
}

func TestApplyRejectsOutOfRangeScope(t *testing.T) {
	p := newDiploidPop(t, [][2]int{{0, 0}}, 1)
	s, err := NewMaSelector([]int{0}, []float64{1, 0.9, 0.8}, nil, Config{SubPops: []int{5}})
	require.NoError(t, err)

	assert.Error(t, s.Apply(context.Background(), p, 0))
}

func TestScopedCopyLeavesOriginal(t *testing.T) {
	p, err := pop.NewMemPop([]int{1, 1}, 1, 2)
	require.NoError(t, err)

	base, err := NewMaSelector([]int{0}, []float64{1, 0.9, 0.8}, nil, Config{})
	require.NoError(t, err)

	scoped := base.Scoped(1)
	require.NoError(t, scoped.Apply(context.Background(), p, 0))
	_, err = p.Ind(0, 0).Info(DefaultField)
	assert.Error(t, err, "scoped copy must only touch subpopulation 1")

	require.NoError(t, base.Apply(context.Background(), p, 0))
	_, err = p.Ind(0, 0).Info(DefaultField)
	assert.NoError(t, err, "original selector keeps its full scope")
}

func TestApplyParallelMatchesSerial(t *testing.T) {
	size := 60
	genotypes := make([][2]int, size)
	for i := range genotypes {
		genotypes[i] = [2]int{i % 2, (i / 2) % 2}
	}

	serialPop := newDiploidPop(t, genotypes, 1)
	parallelPop := newDiploidPop(t, genotypes, 1)

	serial, err := NewMaSelector([]int{0}, []float64{1, 0.9, 0.8}, nil, Config{Workers: 1})
	require.NoError(t, err)
	parallel, err := NewMaSelector([]int{0}, []float64{1, 0.9, 0.8}, nil, Config{Workers: 4})
	require.NoError(t, err)

	require.NoError(t, serial.Apply(context.Background(), serialPop, 0))
	require.NoError(t, parallel.Apply(context.Background(), parallelPop, 0))

	for i := 0; i < size; i++ {
		want, err := serialPop.Ind(0, i).Info(DefaultField)
		require.NoError(t, err)
		got, err := parallelPop.Ind(0, i).Info(DefaultField)
		require.NoError(t, err)
		assert.Equal(t, want, got, "individual %d", i)
	}
}

func TestApplyStopsOnCancelledContext(t *testing.T) {
	p := newDiploidPop(t, [][2]int{{0, 0}, {0, 0}}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := constSelector(t, 1)
	assert.ErrorIs(t, s.Apply(ctx, p, 0), context.Canceled)
}
