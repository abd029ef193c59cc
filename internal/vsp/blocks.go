package vsp

import (
	"fmt"
	"math"

	"popsim/internal/pop"
)

const proportionSumTolerance = 1e-9

// ProportionSplitter partitions a subpopulation, in storage order, into
// contiguous blocks sized by the given proportions. The last block absorbs
// any rounding remainder so the blocks exactly cover the subpopulation.
type ProportionSplitter struct {
	base
	proportions []float64
}

// NewProportionSplitter creates a proportion splitter. Proportions must all
// be positive and sum to 1.
func NewProportionSplitter(proportions []float64, names []string) (*ProportionSplitter, error) {
	if len(proportions) == 0 {
		return nil, fmt.Errorf("proportion splitter: at least one proportion is required")
	}
	sum := 0.0
	for i, prop := range proportions {
		if prop <= 0 {
			return nil, fmt.Errorf("proportion splitter: proportion %d must be positive, got %v", i, prop)
		}
		sum += prop
	}
	if math.Abs(sum-1) > proportionSumTolerance {
		return nil, fmt.Errorf("proportion splitter: proportions must sum to 1, got %v", sum)
	}
	return &ProportionSplitter{
		base:        newBase(names),
		proportions: append([]float64(nil), proportions...),
	}, nil
}

func (s *ProportionSplitter) Clone() Splitter {
	return &ProportionSplitter{
		base:        s.cloneBase(),
		proportions: append([]float64(nil), s.proportions...),
	}
}

func (s *ProportionSplitter) NumVirtualSubPops() int { return len(s.proportions) }

func (s *ProportionSplitter) VSPName(vsp int) (string, error) {
	if err := checkVSP(s, vsp); err != nil {
		return "", err
	}
	if name, ok := s.overrideName(vsp); ok {
		return name, nil
	}
	return fmt.Sprintf("Prop %s", fmtFloat(s.proportions[vsp])), nil
}

// blockBounds returns the [start, end) storage-order interval of a block.
func (s *ProportionSplitter) blockBounds(subPopSize, vsp int) (int, int) {
	start := 0
	for i := 0; i < vsp; i++ {
		start += int(math.Round(s.proportions[i] * float64(subPopSize)))
	}
	if vsp == len(s.proportions)-1 {
		return start, subPopSize
	}
	return start, start + int(math.Round(s.proportions[vsp]*float64(subPopSize)))
}

func (s *ProportionSplitter) Contains(p pop.Population, ind int, id ID) (bool, error) {
	if err := checkVirtualID(p, s, ind, id); err != nil {
		return false, err
	}
	start, end := s.blockBounds(p.SubPopSize(id.SubPop()), id.Virtual())
	return ind >= start && ind < end, nil
}

func (s *ProportionSplitter) Size(p pop.Population, subPop, vsp int) (int, error) {
	if err := checkSubPop(p, subPop); err != nil {
		return 0, err
	}
	if err := checkVSP(s, vsp); err != nil {
		return 0, err
	}
	start, end := s.blockBounds(p.SubPopSize(subPop), vsp)
	if end < start {
		return 0, nil
	}
	return end - start, nil
}

func (s *ProportionSplitter) Activate(p pop.Population, subPop, vsp int) error {
	return activate(&s.base, s, p, subPop, vsp)
}

// RangeSplitter defines one VSP per half-open storage-order index interval
// [lo, hi).
type RangeSplitter struct {
	base
	ranges [][2]int
}

// NewRangeSplitter creates a range splitter over storage-order index
// intervals.
func NewRangeSplitter(ranges [][2]int, names []string) (*RangeSplitter, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("range splitter: at least one range is required")
	}
	for i, r := range ranges {
		if r[0] < 0 {
			return nil, fmt.Errorf("range splitter: range %d starts at negative index %d", i, r[0])
		}
		if r[0] >= r[1] {
			return nil, fmt.Errorf("range splitter: range %d is empty: [%d, %d)", i, r[0], r[1])
		}
	}
	return &RangeSplitter{
		base:   newBase(names),
		ranges: append([][2]int(nil), ranges...),
	}, nil
}

func (s *RangeSplitter) Clone() Splitter {
	return &RangeSplitter{
		base:   s.cloneBase(),
		ranges: append([][2]int(nil), s.ranges...),
	}
}

func (s *RangeSplitter) NumVirtualSubPops() int { return len(s.ranges) }

func (s *RangeSplitter) VSPName(vsp int) (string, error) {
	if err := checkVSP(s, vsp); err != nil {
		return "", err
	}
	if name, ok := s.overrideName(vsp); ok {
		return name, nil
	}
	// The raw pair is reported in square brackets even though membership is
	// half-open on the upper bound.
	return fmt.Sprintf("Range [%d, %d]", s.ranges[vsp][0], s.ranges[vsp][1]), nil
}

func (s *RangeSplitter) Contains(p pop.Population, ind int, id ID) (bool, error) {
	if err := checkVirtualID(p, s, ind, id); err != nil {
		return false, err
	}
	r := s.ranges[id.Virtual()]
	return ind >= r[0] && ind < r[1], nil
}

func (s *RangeSplitter) Size(p pop.Population, subPop, vsp int) (int, error) {
	if err := checkSubPop(p, subPop); err != nil {
		return 0, err
	}
	if err := checkVSP(s, vsp); err != nil {
		return 0, err
	}
	size := p.SubPopSize(subPop)
	r := s.ranges[vsp]
	lo, hi := r[0], r[1]
	if hi > size {
		hi = size
	}
	if lo >= hi {
		return 0, nil
	}
	return hi - lo, nil
}

func (s *RangeSplitter) Activate(p pop.Population, subPop, vsp int) error {
	return activate(&s.base, s, p, subPop, vsp)
}
