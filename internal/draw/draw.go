package draw

import (
	"fmt"
	"slices"
)

const (
	// Base is the smallest number in the domain. Bit i of a Mask stands for Base+i.
	Base = 1
	// Size is the number of values in the domain.
	Size = 45
	// PickCount is how many main numbers a draw carries.
	PickCount = 6
)

// Max is the largest number in the domain.
const Max = Base + Size - 1

// Record is the raw shape supplied by a snapshot source.
type Record struct {
	Round   int   `json:"round"`
	Numbers []int `json:"numbers"`
	Bonus   int   `json:"bonus"`
}

// Draw is one historical drawing with its derived bitmasks.
// Masks are computed by New and never mutated afterwards.
type Draw struct {
	// Round is the sequential draw number (1-based).
	Round int `json:"round"`
	// Numbers holds the six main numbers in ascending order.
	Numbers []int `json:"numbers"`
	// Bonus is the bonus number. It normally differs from every main number.
	Bonus int `json:"bonus"`

	mask      Mask
	bonusMask Mask
}

// New validates a record and derives its masks.
//
// A bonus equal to one of the main numbers is accepted for storage; in that case
// BonusMask has six bits set instead of seven.
func New(round int, numbers []int, bonus int) (Draw, error) {
	if round <= 0 {
		return Draw{}, fmt.Errorf("%w: round must be positive, got %d", ErrInvalidArgument, round)
	}
	if len(numbers) != PickCount {
		return Draw{}, fmt.Errorf("%w: round %d has %d numbers, want %d", ErrInvalidArgument, round, len(numbers), PickCount)
	}
	for _, n := range numbers {
		if !InDomain(n) {
			return Draw{}, fmt.Errorf("%w: round %d number %d outside [%d,%d]", ErrInvalidArgument, round, n, Base, Max)
		}
	}
	if !InDomain(bonus) {
		return Draw{}, fmt.Errorf("%w: round %d bonus %d outside [%d,%d]", ErrInvalidArgument, round, bonus, Base, Max)
	}

	mask := Encode(numbers)
	if mask.Count() != PickCount {
		return Draw{}, fmt.Errorf("%w: round %d numbers are not distinct: %v", ErrInvalidArgument, round, numbers)
	}

	sorted := slices.Clone(numbers)
	slices.Sort(sorted)

	return Draw{
		Round:     round,
		Numbers:   sorted,
		Bonus:     bonus,
		mask:      mask,
		bonusMask: mask.Set(bonus),
	}, nil
}

// FromRecord is New applied to a source record.
func FromRecord(r Record) (Draw, error) {
	return New(r.Round, r.Numbers, r.Bonus)
}

// Record returns the raw form of the draw.
func (d Draw) Record() Record {
	return Record{Round: d.Round, Numbers: slices.Clone(d.Numbers), Bonus: d.Bonus}
}

// Mask returns the six-bit mask of the main numbers.
func (d Draw) Mask() Mask { return d.mask }

// BonusMask returns Mask with the bonus bit also set.
func (d Draw) BonusMask() Mask { return d.bonusMask }

// MaskFor picks BonusMask when withBonus is set.
func (d Draw) MaskFor(withBonus bool) Mask {
	if withBonus {
		return d.bonusMask
	}
	return d.mask
}

// InDomain reports whether n is a valid number.
func InDomain(n int) bool {
	return n >= Base && n <= Max
}
