package draw

import (
	"fmt"
	"math/bits"
)

// Mask is a fixed 64-bit set of domain numbers. The domain must fit in 64 bits.
type Mask uint64

const _ = uint(64 - Size) // compile-time guard: Size <= 64

// Encode sets bit n-Base for every n. It panics on a number outside the domain,
// since callers are expected to validate first.
func Encode(numbers []int) Mask {
	var m Mask
	for _, n := range numbers {
		m = m.Set(n)
	}
	return m
}

// Set returns m with n added.
func (m Mask) Set(n int) Mask {
	if !InDomain(n) {
		panic(fmt.Sprintf("draw: number %d outside [%d,%d]", n, Base, Max))
	}
	return m | 1<<uint(n-Base)
}

// Has reports whether n is in the set. Out-of-domain numbers are never members.
func (m Mask) Has(n int) bool {
	if !InDomain(n) {
		return false
	}
	return m&(1<<uint(n-Base)) != 0
}

// Count is the population count.
func (m Mask) Count() int {
	return bits.OnesCount64(uint64(m))
}

// IntersectCount returns popcount(m & o).
func (m Mask) IntersectCount(o Mask) int {
	return (m & o).Count()
}

// Numbers decodes the mask into ascending numbers.
func (m Mask) Numbers() []int {
	out := make([]int, 0, m.Count())
	for v := uint64(m); v != 0; v &= v - 1 {
		out = append(out, bits.TrailingZeros64(v)+Base)
	}
	return out
}

// Each calls fn with the bit index (number - Base) of every set bit.
func (m Mask) Each(fn func(bit int)) {
	for v := uint64(m); v != 0; v &= v - 1 {
		fn(bits.TrailingZeros64(v))
	}
}

// RangeMask returns the mask of every number in [lo, hi], clipped to the domain.
func RangeMask(lo, hi int) Mask {
	if lo < Base {
		lo = Base
	}
	if hi > Max {
		hi = Max
	}
	var m Mask
	for n := lo; n <= hi; n++ {
		m |= 1 << uint(n-Base)
	}
	return m
}
