package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// IndividualRecord is the persistent form of one individual. Genotype is laid
// out haplotype-major: all loci of ploidy copy 0, then all loci of copy 1.
type IndividualRecord struct {
	Genotype []int              `json:"genotype"`
	Sex      int                `json:"sex"`
	Affected bool               `json:"affected"`
	Info     map[string]float64 `json:"info,omitempty"`
}

// PopulationSnapshot is the persistent form of a population. Individuals are
// concatenated in subpopulation order, matching SubPopSizes.
type PopulationSnapshot struct {
	VersionedRecord
	ID          string             `json:"id"`
	Ploidy      int                `json:"ploidy"`
	NumLoci     int                `json:"num_loci"`
	SubPopSizes []int              `json:"sub_pop_sizes"`
	Individuals []IndividualRecord `json:"individuals"`
}

// FitnessSeries records the fitness values written by one selector pass over
// one evaluation target.
type FitnessSeries struct {
	VersionedRecord
	RunID      string    `json:"run_id"`
	Generation int       `json:"generation"`
	Field      string    `json:"field"`
	SubPop     int       `json:"sub_pop"`
	VirtualSub int       `json:"virtual_sub"`
	Values     []float64 `json:"values"`
}
