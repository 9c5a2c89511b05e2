package draw

import (
	"errors"
	"slices"
	"testing"
)

func TestNew_Masks(t *testing.T) {
	d, err := New(7, []int{45, 3, 12, 1, 30, 22}, 8)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if got := d.Mask().Count(); got != 6 {
		t.Errorf("Mask().Count() = %d, want 6", got)
	}
	if got := d.BonusMask().Count(); got != 7 {
		t.Errorf("BonusMask().Count() = %d, want 7", got)
	}
	if !slices.Equal(d.Numbers, []int{1, 3, 12, 22, 30, 45}) {
		t.Errorf("Numbers not sorted: %v", d.Numbers)
	}
	if !d.Mask().Has(45) || d.Mask().Has(8) {
		t.Error("Mask membership wrong")
	}
	if !d.BonusMask().Has(8) {
		t.Error("BonusMask missing bonus")
	}
}

func TestNew_BonusDuplicatesMainNumber(t *testing.T) {
	d, err := New(1, []int{1, 2, 3, 4, 5, 6}, 6)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := d.BonusMask().Count(); got != 6 {
		t.Errorf("BonusMask().Count() = %d, want 6 when bonus repeats a main number", got)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		round   int
		numbers []int
		bonus   int
	}{
		{"ZeroRound", 0, []int{1, 2, 3, 4, 5, 6}, 7},
		{"TooFew", 1, []int{1, 2, 3, 4, 5}, 7},
		{"TooMany", 1, []int{1, 2, 3, 4, 5, 6, 7}, 8},
		{"Duplicate", 1, []int{1, 1, 3, 4, 5, 6}, 7},
		{"OutOfDomainHigh", 1, []int{1, 2, 3, 4, 5, 46}, 7},
		{"OutOfDomainLow", 1, []int{0, 2, 3, 4, 5, 6}, 7},
		{"BadBonus", 1, []int{1, 2, 3, 4, 5, 6}, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.round, tt.numbers, tt.bonus)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("New() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestMask_RoundTrip(t *testing.T) {
	inputs := [][]int{
		{1, 2, 3, 4, 5, 6},
		{45, 44, 43, 42, 41, 40},
		{10, 1, 33, 22, 45, 7},
		{5, 5, 6, 7, 8, 9},
	}

	for _, in := range inputs {
		want := slices.Clone(in)
		slices.Sort(want)
		want = slices.Compact(want)

		if got := Encode(in).Numbers(); !slices.Equal(got, want) {
			t.Errorf("Encode(%v).Numbers() = %v, want %v", in, got, want)
		}
	}
}

func TestMask_IntersectCount(t *testing.T) {
	a := Encode([]int{1, 2, 3, 4, 5, 6})
	b := Encode([]int{4, 5, 6, 7, 8, 9})
	if got := a.IntersectCount(b); got != 3 {
		t.Errorf("IntersectCount = %d, want 3", got)
	}
	if got := a.IntersectCount(Encode([]int{40, 41})); got != 0 {
		t.Errorf("IntersectCount disjoint = %d, want 0", got)
	}
}

func TestMask_SetPanicsOutsideDomain(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for number 46")
		}
	}()
	Mask(0).Set(46)
}

func TestRangeMask(t *testing.T) {
	m := RangeMask(41, 50)
	if !slices.Equal(m.Numbers(), []int{41, 42, 43, 44, 45}) {
		t.Errorf("RangeMask(41,50) = %v", m.Numbers())
	}
	if RangeMask(0, 0) != 0 {
		t.Error("RangeMask below domain should be empty")
	}
}
