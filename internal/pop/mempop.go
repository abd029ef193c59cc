package pop

import (
	"fmt"

	"popsim/internal/model"
)

// MemInd is the in-memory individual. Genotype is haplotype-major: all loci
// of ploidy copy 0 first, then all loci of copy 1, and so on.
type MemInd struct {
	genotype []int
	numLoci  int
	ploidy   int
	sex      Sex
	affected bool
	info     map[string]float64
	visible  bool
}

func (ind *MemInd) Allele(locus, copy int) int {
	return ind.genotype[copy*ind.numLoci+locus]
}

func (ind *MemInd) Ploidy() int { return ind.ploidy }
func (ind *MemInd) NumLoci() int { return ind.numLoci }
func (ind *MemInd) Sex() Sex { return ind.sex }

func (ind *MemInd) Affected() bool { return ind.affected }

func (ind *MemInd) Info(field string) (float64, error) {
	value, ok := ind.info[field]
	if !ok {
		return 0, fmt.Errorf("individual has no information field %q", field)
	}
	return value, nil
}

func (ind *MemInd) SetInfo(field string, value float64) error {
	if field == "" {
		return fmt.Errorf("information field name is required")
	}
	if ind.info == nil {
		ind.info = make(map[string]float64)
	}
	ind.info[field] = value
	return nil
}

func (ind *MemInd) Visible() bool { return ind.visible }
func (ind *MemInd) SetVisible(visible bool) { ind.visible = visible }

func (ind *MemInd) SetSex(sex Sex) { ind.sex = sex }
func (ind *MemInd) SetAffected(affected bool) { ind.affected = affected }

func (ind *MemInd) SetAllele(locus, copy, allele int) {
	ind.genotype[copy*ind.numLoci+locus] = allele
}

func (ind *MemInd) clone() *MemInd {
	out := &MemInd{
		genotype: append([]int(nil), ind.genotype...),
		numLoci:  ind.numLoci,
		ploidy:   ind.ploidy,
		sex:      ind.sex,
		affected: ind.affected,
		visible:  ind.visible,
	}
	if ind.info != nil {
		out.info = make(map[string]float64, len(ind.info))
		for k, v := range ind.info {
			out.info[k] = v
		}
	}
	return out
}

// MemPop is an in-memory Population with a fixed subpopulation structure.
type MemPop struct {
	ploidy  int
	numLoci int
	subPops [][]*MemInd
}

// NewMemPop creates a population with the given subpopulation sizes. All
// individuals start with zeroed genotype, male sex, unaffected status and the
// visibility flag set.
func NewMemPop(subPopSizes []int, numLoci, ploidy int) (*MemPop, error) {
	if len(subPopSizes) == 0 {
		return nil, fmt.Errorf("at least one subpopulation is required")
	}
	if numLoci < 0 {
		return nil, fmt.Errorf("invalid locus count: %d", numLoci)
	}
	if ploidy < 1 {
		return nil, fmt.Errorf("invalid ploidy: %d", ploidy)
	}
	p := &MemPop{ploidy: ploidy, numLoci: numLoci, subPops: make([][]*MemInd, len(subPopSizes))}
	for sp, size := range subPopSizes {
		if size < 0 {
			return nil, fmt.Errorf("invalid size for subpopulation %d: %d", sp, size)
		}
		inds := make([]*MemInd, size)
		for i := range inds {
			inds[i] = &MemInd{
				genotype: make([]int, numLoci*ploidy),
				numLoci:  numLoci,
				ploidy:   ploidy,
				visible:  true,
			}
		}
		p.subPops[sp] = inds
	}
	return p, nil
}

func (p *MemPop) NumSubPops() int { return len(p.subPops) }

func (p *MemPop) SubPopSize(subPop int) int {
	if subPop < 0 || subPop >= len(p.subPops) {
		return 0
	}
	return len(p.subPops[subPop])
}

func (p *MemPop) Ind(subPop, idx int) Individual { return p.subPops[subPop][idx] }

// MemInd returns the concrete individual for mutation in setup code.
func (p *MemPop) MemInd(subPop, idx int) *MemInd { return p.subPops[subPop][idx] }

func (p *MemPop) Ploidy() int { return p.ploidy }
func (p *MemPop) NumLoci() int { return p.numLoci }

// Clone deep-copies the population, including visibility state.
func (p *MemPop) Clone() *MemPop {
	out := &MemPop{ploidy: p.ploidy, numLoci: p.numLoci, subPops: make([][]*MemInd, len(p.subPops))}
	for sp, inds := range p.subPops {
		copied := make([]*MemInd, len(inds))
		for i, ind := range inds {
			copied[i] = ind.clone()
		}
		out.subPops[sp] = copied
	}
	return out
}

// Snapshot converts any Population into its persistent record form.
func Snapshot(p Population, id string) model.PopulationSnapshot {
	snap := model.PopulationSnapshot{
		ID:      id,
		Ploidy:  p.Ploidy(),
		NumLoci: p.NumLoci(),
	}
	for sp := 0; sp < p.NumSubPops(); sp++ {
		size := p.SubPopSize(sp)
		snap.SubPopSizes = append(snap.SubPopSizes, size)
		for i := 0; i < size; i++ {
			ind := p.Ind(sp, i)
			rec := model.IndividualRecord{
				Genotype: make([]int, 0, p.NumLoci()*p.Ploidy()),
				Sex:      int(ind.Sex()),
				Affected: ind.Affected(),
			}
			for c := 0; c < p.Ploidy(); c++ {
				for locus := 0; locus < p.NumLoci(); locus++ {
					rec.Genotype = append(rec.Genotype, ind.Allele(locus, c))
				}
			}
			if mem, ok := ind.(*MemInd); ok && len(mem.info) > 0 {
				rec.Info = make(map[string]float64, len(mem.info))
				for k, v := range mem.info {
					rec.Info[k] = v
				}
			}
			snap.Individuals = append(snap.Individuals, rec)
		}
	}
	return snap
}

// FromSnapshot rebuilds an in-memory population from its record form.
func FromSnapshot(snap model.PopulationSnapshot) (*MemPop, error) {
	p, err := NewMemPop(snap.SubPopSizes, snap.NumLoci, snap.Ploidy)
	if err != nil {
		return nil, fmt.Errorf("rebuild population %s: %w", snap.ID, err)
	}
	total := 0
	for _, size := range snap.SubPopSizes {
		total += size
	}
	if total != len(snap.Individuals) {
		return nil, fmt.Errorf("snapshot %s has %d individuals for %d slots", snap.ID, len(snap.Individuals), total)
	}
	next := 0
	for sp, size := range snap.SubPopSizes {
		for i := 0; i < size; i++ {
			rec := snap.Individuals[next]
			next++
			ind := p.subPops[sp][i]
			if len(rec.Genotype) != snap.NumLoci*snap.Ploidy {
				return nil, fmt.Errorf("snapshot %s individual %d has genotype length %d, want %d",
					snap.ID, next-1, len(rec.Genotype), snap.NumLoci*snap.Ploidy)
			}
			copy(ind.genotype, rec.Genotype)
			ind.sex = Sex(rec.Sex)
			ind.affected = rec.Affected
			for k, v := range rec.Info {
				if err := ind.SetInfo(k, v); err != nil {
					return nil, err
				}
			}
		}
	}
	return p, nil
}
