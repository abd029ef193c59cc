package pop

// Sex of an individual.
type Sex int

const (
	Male Sex = iota
	Female
)

func (s Sex) String() string {
	if s == Male {
		return "MALE"
	}
	return "FEMALE"
}

// Individual is the per-individual surface the engine reads and writes.
// Genotype is addressed by (locus, ploidy copy) coordinates. Info fields are
// named numeric values; the visibility flag is toggled by splitter activation
// and nothing else.
type Individual interface {
	Allele(locus, copy int) int
	Ploidy() int
	NumLoci() int
	Sex() Sex
	Affected() bool
	Info(field string) (float64, error)
	SetInfo(field string, value float64) error
	Visible() bool
	SetVisible(visible bool)
}

// Population is the narrow view of population storage the engine consumes.
// Individuals of a subpopulation have a stable storage order; Ind requires
// valid indices, which callers establish through NumSubPops and SubPopSize.
type Population interface {
	NumSubPops() int
	// SubPopSize returns 0 for an out-of-range subpopulation index.
	SubPopSize(subPop int) int
	Ind(subPop, idx int) Individual
	Ploidy() int
	NumLoci() int
}
