package vsp

import (
	"fmt"
	"strconv"

	"popsim/internal/pop"
)

// InfoOptions selects exactly one grouping mode for an InfoSplitter.
type InfoOptions struct {
	// Values defines one VSP per value; membership is exact equality.
	Values []float64
	// Cutoffs defines len(Cutoffs)+1 VSPs bucketed by the half-open
	// intervals induced by the strictly increasing cutoff points.
	Cutoffs []float64
	// Ranges defines one VSP per half-open interval [lo, hi). Ranges may
	// overlap.
	Ranges [][2]float64
	// Names overrides default VSP names.
	Names []string
}

// InfoSplitter groups individuals by the value of one information field.
type InfoSplitter struct {
	base
	field   string
	values  []float64
	cutoffs []float64
	ranges  [][2]float64
}

// NewInfoSplitter creates an info splitter over field. Exactly one of
// opts.Values, opts.Cutoffs and opts.Ranges must be set.
func NewInfoSplitter(field string, opts InfoOptions) (*InfoSplitter, error) {
	if field == "" {
		return nil, fmt.Errorf("info splitter: field name is required")
	}
	modes := 0
	if len(opts.Values) > 0 {
		modes++
	}
	if len(opts.Cutoffs) > 0 {
		modes++
	}
	if len(opts.Ranges) > 0 {
		modes++
	}
	if modes != 1 {
		return nil, fmt.Errorf("info splitter: exactly one of values, cutoffs and ranges is required")
	}
	for i := 1; i < len(opts.Cutoffs); i++ {
		if opts.Cutoffs[i] <= opts.Cutoffs[i-1] {
			return nil, fmt.Errorf("info splitter: cutoffs must be strictly increasing, got %v then %v",
				opts.Cutoffs[i-1], opts.Cutoffs[i])
		}
	}
	for i, r := range opts.Ranges {
		if r[0] >= r[1] {
			return nil, fmt.Errorf("info splitter: range %d is empty: [%v, %v)", i, r[0], r[1])
		}
	}
	return &InfoSplitter{
		base:    newBase(opts.Names),
		field:   field,
		values:  append([]float64(nil), opts.Values...),
		cutoffs: append([]float64(nil), opts.Cutoffs...),
		ranges:  append([][2]float64(nil), opts.Ranges...),
	}, nil
}

func (s *InfoSplitter) Clone() Splitter {
	return &InfoSplitter{
		base:    s.cloneBase(),
		field:   s.field,
		values:  append([]float64(nil), s.values...),
		cutoffs: append([]float64(nil), s.cutoffs...),
		ranges:  append([][2]float64(nil), s.ranges...),
	}
}

func (s *InfoSplitter) NumVirtualSubPops() int {
	switch {
	case len(s.values) > 0:
		return len(s.values)
	case len(s.cutoffs) > 0:
		return len(s.cutoffs) + 1
	default:
		return len(s.ranges)
	}
}

func (s *InfoSplitter) VSPName(vsp int) (string, error) {
	if err := checkVSP(s, vsp); err != nil {
		return "", err
	}
	if name, ok := s.overrideName(vsp); ok {
		return name, nil
	}
	switch {
	case len(s.values) > 0:
		return fmt.Sprintf("%s = %s", s.field, fmtFloat(s.values[vsp])), nil
	case len(s.cutoffs) > 0:
		switch {
		case vsp == 0:
			return fmt.Sprintf("%s < %s", s.field, fmtFloat(s.cutoffs[0])), nil
		case vsp == len(s.cutoffs):
			return fmt.Sprintf("%s >= %s", s.field, fmtFloat(s.cutoffs[vsp-1])), nil
		default:
			return fmt.Sprintf("%s <= %s < %s", fmtFloat(s.cutoffs[vsp-1]), s.field, fmtFloat(s.cutoffs[vsp])), nil
		}
	default:
		r := s.ranges[vsp]
		return fmt.Sprintf("%s <= %s < %s", fmtFloat(r[0]), s.field, fmtFloat(r[1])), nil
	}
}

func (s *InfoSplitter) Contains(p pop.Population, ind int, id ID) (bool, error) {
	if err := checkVirtualID(p, s, ind, id); err != nil {
		return false, err
	}
	value, err := p.Ind(id.SubPop(), ind).Info(s.field)
	if err != nil {
		return false, err
	}
	vsp := id.Virtual()
	switch {
	case len(s.values) > 0:
		return value == s.values[vsp], nil
	case len(s.cutoffs) > 0:
		switch {
		case vsp == 0:
			return value < s.cutoffs[0], nil
		case vsp == len(s.cutoffs):
			return value >= s.cutoffs[vsp-1], nil
		default:
			return value >= s.cutoffs[vsp-1] && value < s.cutoffs[vsp], nil
		}
	default:
		r := s.ranges[vsp]
		return value >= r[0] && value < r[1], nil
	}
}

func (s *InfoSplitter) Size(p pop.Population, subPop, vsp int) (int, error) {
	return countContains(s, p, subPop, vsp)
}

func (s *InfoSplitter) Activate(p pop.Population, subPop, vsp int) error {
	return activate(&s.base, s, p, subPop, vsp)
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
