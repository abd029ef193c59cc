package main

import (
	"fmt"
	"strconv"
	"strings"

	"popsim/internal/fitness"
	"popsim/internal/vsp"
)

// parseSizes turns "100,50" into []int{100, 50}.
func parseSizes(spec string) ([]int, error) {
	parts := strings.Split(spec, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("malformed integer list %q", spec)
		}
		out = append(out, value)
	}
	return out, nil
}

// parseSplitter builds a splitter from its command-line spec. Supported
// forms: "sex", "affection", "proportion=0.4,0.6", "range=0:50,50:100".
func parseSplitter(spec string) (vsp.Splitter, error) {
	kind, arg, _ := strings.Cut(spec, "=")
	switch kind {
	case "sex":
		return vsp.NewSexSplitter(nil), nil
	case "affection":
		return vsp.NewAffectionSplitter(nil), nil
	case "proportion":
		parts := strings.Split(arg, ",")
		proportions := make([]float64, 0, len(parts))
		for _, part := range parts {
			value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return nil, fmt.Errorf("malformed proportion %q", part)
			}
			proportions = append(proportions, value)
		}
		return vsp.NewProportionSplitter(proportions, nil)
	case "range":
		var ranges [][2]int
		for _, part := range strings.Split(arg, ",") {
			lo, hi, ok := strings.Cut(strings.TrimSpace(part), ":")
			if !ok {
				return nil, fmt.Errorf("malformed range %q, want lo:hi", part)
			}
			start, err := strconv.Atoi(lo)
			if err != nil {
				return nil, fmt.Errorf("malformed range bound %q", lo)
			}
			end, err := strconv.Atoi(hi)
			if err != nil {
				return nil, fmt.Errorf("malformed range bound %q", hi)
			}
			ranges = append(ranges, [2]int{start, end})
		}
		return vsp.NewRangeSplitter(ranges, nil)
	default:
		return nil, fmt.Errorf("unknown splitter kind %q", kind)
	}
}

// parseSelector builds a selector from its command-line spec. Supported
// forms: "ma=1,0.9,0.8" (optionally "ma=1,0.9,0.8;wildtype=0") and
// "map=0-0:1,0-1:0.9,1-1:0.8".
func parseSelector(spec string, loci []int) (fitness.Selector, error) {
	kind, arg, ok := strings.Cut(spec, "=")
	if !ok {
		return nil, fmt.Errorf("malformed selector spec %q, want kind=args", spec)
	}
	switch kind {
	case "ma":
		tableSpec, wildtypeSpec, _ := strings.Cut(arg, ";wildtype=")
		parts := strings.Split(tableSpec, ",")
		table := make([]float64, 0, len(parts))
		for _, part := range parts {
			value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return nil, fmt.Errorf("malformed fitness value %q", part)
			}
			table = append(table, value)
		}
		var wildtype []int
		if wildtypeSpec != "" {
			var err error
			if wildtype, err = parseSizes(wildtypeSpec); err != nil {
				return nil, err
			}
		}
		return fitness.NewMaSelector(loci, table, wildtype, fitness.Config{})
	case "map":
		table := make(map[string]float64)
		for _, part := range strings.Split(arg, ",") {
			key, valueSpec, ok := strings.Cut(strings.TrimSpace(part), ":")
			if !ok {
				return nil, fmt.Errorf("malformed map entry %q, want genotype:fitness", part)
			}
			value, err := strconv.ParseFloat(valueSpec, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed fitness value %q", valueSpec)
			}
			table[key] = value
		}
		return fitness.NewMapSelector(loci, table, false, fitness.Config{})
	default:
		return nil, fmt.Errorf("unknown selector kind %q", kind)
	}
}
