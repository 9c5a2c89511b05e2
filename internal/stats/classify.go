package stats

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"lotto-mcp/internal/draw"
)

// Scheme names a classification used to group pattern-equivalent draws.
type Scheme string

const (
	SchemeExact       Scheme = "exact"
	SchemeRange5      Scheme = "range5"
	SchemeRange7      Scheme = "range7"
	SchemeRange10     Scheme = "range10"
	SchemeRange15     Scheme = "range15"
	SchemeSum         Scheme = "sum"
	SchemeZone        Scheme = "zone"
	SchemeConsecutive Scheme = "consecutive"
	SchemePrime       Scheme = "prime"
	SchemeGapAvg      Scheme = "gap-avg"
	SchemeGapMax      Scheme = "gap-max"
)

var allSchemes = []Scheme{
	SchemeExact,
	SchemeRange5, SchemeRange7, SchemeRange10, SchemeRange15,
	SchemeSum, SchemeZone, SchemeConsecutive, SchemePrime,
	SchemeGapAvg, SchemeGapMax,
}

// schemeAliases maps alternate names onto canonical schemes.
var schemeAliases = map[Scheme]Scheme{
	"exact-numbers": SchemeExact,
}

// Schemes lists every supported scheme.
func Schemes() []Scheme {
	return slices.Clone(allSchemes)
}

var schemeDescriptions = map[Scheme]string{
	SchemeExact:       "identical set of six main numbers",
	SchemeRange5:      "same count of numbers per 5-wide bucket",
	SchemeRange7:      "same count of numbers per 7-wide bucket",
	SchemeRange10:     "same count of numbers per 10-wide bucket",
	SchemeRange15:     "same count of numbers per 15-wide bucket",
	SchemeSum:         "same sum band: low (<120), mid (120-165), high (>165)",
	SchemeZone:        "same counts in zones 1-15, 16-30, 31-45",
	SchemeConsecutive: "same number of adjacent pairs",
	SchemePrime:       "same number of primes",
	SchemeGapAvg:      "same rounded average gap between sorted numbers",
	SchemeGapMax:      "same largest gap between sorted numbers",
}

// Description explains what two draws share when they match under s.
func (s Scheme) Description() string {
	return schemeDescriptions[s]
}

// ParseScheme validates a scheme name.
func ParseScheme(name string) (Scheme, error) {
	s := Scheme(strings.ToLower(strings.TrimSpace(name)))
	if alias, ok := schemeAliases[s]; ok {
		s = alias
	}
	if slices.Contains(allSchemes, s) {
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown scheme %q", draw.ErrInvalidArgument, name)
}

// Sum range cut points, tuned to a mean of about 138 for 6-of-45.
const (
	SumLowBelow  = 120 // low:  sum < 120
	SumHighAbove = 165 // high: sum > 165
)

// Zone width: three equal zones across the domain.
const zoneWidth = draw.Size / 3

var primes = map[int]bool{
	2: true, 3: true, 5: true, 7: true, 11: true, 13: true, 17: true,
	19: true, 23: true, 29: true, 31: true, 37: true, 41: true, 43: true,
}

// Classifier derives a classification key from a draw.
type Classifier func(d draw.Draw) string

// ClassifierFor returns the key function of a scheme. Range partitions are
// computed once per classifier.
func ClassifierFor(s Scheme) (Classifier, error) {
	switch s {
	case SchemeExact:
		return func(d draw.Draw) string {
			return strconv.FormatUint(uint64(d.Mask()), 36)
		}, nil
	case SchemeRange5, SchemeRange7, SchemeRange10, SchemeRange15:
		unit, _ := strconv.Atoi(strings.TrimPrefix(string(s), "range"))
		buckets, err := draw.Partition(unit)
		if err != nil {
			return nil, err
		}
		return func(d draw.Draw) string {
			return joinInts(bucketCounts(d.Mask(), buckets), ",")
		}, nil
	case SchemeSum:
		return func(d draw.Draw) string { return SumRange(d.Numbers) }, nil
	case SchemeZone:
		return func(d draw.Draw) string {
			z := ZoneCounts(d.Numbers)
			return joinInts(z[:], "-")
		}, nil
	case SchemeConsecutive:
		return func(d draw.Draw) string { return strconv.Itoa(ConsecutiveCount(d.Numbers)) }, nil
	case SchemePrime:
		return func(d draw.Draw) string { return strconv.Itoa(PrimeCount(d.Numbers)) }, nil
	case SchemeGapAvg:
		return func(d draw.Draw) string {
			avg, _ := GapStats(d.Numbers)
			return strconv.Itoa(avg)
		}, nil
	case SchemeGapMax:
		return func(d draw.Draw) string {
			_, mx := GapStats(d.Numbers)
			return strconv.Itoa(mx)
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown scheme %q", draw.ErrInvalidArgument, s)
}

// RangePattern counts numbers per bucket of width unit.
func RangePattern(numbers []int, unit int) ([]int, error) {
	buckets, err := draw.Partition(unit)
	if err != nil {
		return nil, err
	}
	return bucketCounts(draw.Encode(numbers), buckets), nil
}

func bucketCounts(m draw.Mask, buckets []draw.Bucket) []int {
	counts := make([]int, len(buckets))
	for i, b := range buckets {
		counts[i] = m.IntersectCount(b.Mask)
	}
	return counts
}

// Sum adds the numbers.
func Sum(numbers []int) int {
	total := 0
	for _, n := range numbers {
		total += n
	}
	return total
}

// SumRange labels a draw "low", "mid" or "high" by its sum.
func SumRange(numbers []int) string {
	s := Sum(numbers)
	switch {
	case s < SumLowBelow:
		return "low"
	case s > SumHighAbove:
		return "high"
	default:
		return "mid"
	}
}

// ZoneCounts counts numbers in the low, middle and high thirds of the domain
// ([1,15], [16,30], [31,45] for the default base).
func ZoneCounts(numbers []int) [3]int {
	var z [3]int
	for _, n := range numbers {
		idx := (n - draw.Base) / zoneWidth
		if idx < 0 {
			idx = 0
		}
		if idx > 2 {
			idx = 2
		}
		z[idx]++
	}
	return z
}

// ConsecutiveCount counts adjacent pairs (x, x+1) present in the draw.
func ConsecutiveCount(numbers []int) int {
	sorted := sortedCopy(numbers)
	count := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1]+1 {
			count++
		}
	}
	return count
}

// PrimeCount counts prime numbers in the draw.
func PrimeCount(numbers []int) int {
	count := 0
	for _, n := range numbers {
		if primes[n] {
			count++
		}
	}
	return count
}

// IsPrime reports whether n is one of the primes of the domain.
func IsPrime(n int) bool { return primes[n] }

// GapStats returns the average gap between sorted numbers rounded to the
// nearest integer (halves away from zero) and the largest gap.
func GapStats(numbers []int) (avg int, maxGap int) {
	sorted := sortedCopy(numbers)
	if len(sorted) < 2 {
		return 0, 0
	}
	total := 0
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i] - sorted[i-1]
		total += gap
		if gap > maxGap {
			maxGap = gap
		}
	}
	avg = int(math.Round(float64(total) / float64(len(sorted)-1)))
	return avg, maxGap
}

func sortedCopy(numbers []int) []int {
	if slices.IsSorted(numbers) {
		return numbers
	}
	out := slices.Clone(numbers)
	slices.Sort(out)
	return out
}

func joinInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}
