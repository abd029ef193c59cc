package main

import (
	"testing"

	"popsim/internal/pop"
)

func TestParseSizes(t *testing.T) {
	sizes, err := parseSizes("100, 50")
	if err != nil {
		t.Fatalf("parseSizes: %v", err)
	}
	if len(sizes) != 2 || sizes[0] != 100 || sizes[1] != 50 {
		t.Fatalf("unexpected sizes: %v", sizes)
	}

	if _, err := parseSizes("100,x"); err == nil {
		t.Fatal("expected error for malformed list")
	}
}

func TestParseSplitter(t *testing.T) {
	cases := []struct {
		spec    string
		numVSPs int
	}{
		{"sex", 2},
		{"affection", 2},
		{"proportion=0.4,0.6", 2},
		{"range=0:50,50:100,100:150", 3},
	}
	for _, tc := range cases {
		s, err := parseSplitter(tc.spec)
		if err != nil {
			t.Fatalf("parseSplitter(%q): %v", tc.spec, err)
		}
		if got := s.NumVirtualSubPops(); got != tc.numVSPs {
			t.Fatalf("parseSplitter(%q): got %d VSPs, want %d", tc.spec, got, tc.numVSPs)
		}
	}

	for _, spec := range []string{"nope", "proportion=x", "range=0-50"} {
		if _, err := parseSplitter(spec); err == nil {
			t.Fatalf("parseSplitter(%q): expected error", spec)
		}
	}
}

func TestParseSelector(t *testing.T) {
	p, err := pop.NewMemPop([]int{1}, 1, 2)
	if err != nil {
		t.Fatalf("NewMemPop: %v", err)
	}
	p.MemInd(0, 0).SetAllele(0, 1, 1)

	sel, err := parseSelector("ma=1,0.9,0.8", []int{0})
	if err != nil {
		t.Fatalf("parseSelector ma: %v", err)
	}
	value, err := sel.IndFitness(p.Ind(0, 0), 0)
	if err != nil {
		t.Fatalf("IndFitness: %v", err)
	}
	if value != 0.9 {
		t.Fatalf("heterozygote fitness: got %v, want 0.9", value)
	}

	sel, err = parseSelector("map=0-0:1,0-1:0.9,1-1:0.8", []int{0})
	if err != nil {
		t.Fatalf("parseSelector map: %v", err)
	}
	value, err = sel.IndFitness(p.Ind(0, 0), 0)
	if err != nil {
		t.Fatalf("IndFitness: %v", err)
	}
	if value != 0.9 {
		t.Fatalf("map fitness: got %v, want 0.9", value)
	}

	for _, spec := range []string{"ma", "ma=x", "map=0-0", "poly=1"} {
		if _, err := parseSelector(spec, []int{0}); err == nil {
			t.Fatalf("parseSelector(%q): expected error", spec)
		}
	}
}
