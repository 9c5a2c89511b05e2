package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"lotto-mcp/internal/draw"
)

// ErrUnknownBucketKey marks a range condition naming a bucket that the active
// unit size does not produce.
var ErrUnknownBucketKey = errors.New("unknown bucket key")

// MaxRangeConditions caps the range constraints of one condition.
const MaxRangeConditions = 10

// Bounds used when clamping comparison values.
const (
	minSum = 21  // 1+2+3+4+5+6
	maxSum = 255 // 40+41+42+43+44+45
)

// RawComparison is a user-supplied comparator. Max is only read by "between".
type RawComparison struct {
	Op    string `json:"op"`
	Value int    `json:"value"`
	Max   int    `json:"max,omitempty"`
}

// RawRange constrains how many numbers fall into one bucket.
type RawRange struct {
	Key string `json:"range"`
	RawComparison
}

// RawCondition is the unvalidated condition object accepted from callers.
type RawCondition struct {
	UnitSize       int            `json:"unitSize,omitempty"`
	Ranges         []RawRange     `json:"ranges,omitempty"`
	IncludeNumbers []int          `json:"includeNumbers,omitempty"`
	ExcludeNumbers []int          `json:"excludeNumbers,omitempty"`
	OddCount       *RawComparison `json:"oddCount,omitempty"`
	Sum            *RawComparison `json:"sum,omitempty"`
	Consecutive    *bool          `json:"consecutive,omitempty"`
	Min            *RawComparison `json:"min,omitempty"`
	Max            *RawComparison `json:"max,omitempty"`
}

// ParseCondition decodes a condition object, rejecting unknown fields.
func ParseCondition(data []byte) (RawCondition, error) {
	var raw RawCondition
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return RawCondition{}, fmt.Errorf("%w: malformed condition: %v", draw.ErrInvalidArgument, err)
	}
	return raw, nil
}

// Op is a comparison operator.
type Op uint8

const (
	OpEq Op = iota
	OpNe
	OpGt
	OpGte
	OpLt
	OpLte
	OpBetween
)

var opNames = map[string]Op{
	"eq": OpEq, "=": OpEq, "==": OpEq,
	"ne": OpNe, "neq": OpNe, "!=": OpNe,
	"gt": OpGt, ">": OpGt,
	"gte": OpGte, ">=": OpGte,
	"lt": OpLt, "<": OpLt,
	"lte": OpLte, "<=": OpLte,
	"between": OpBetween,
}

// Comparison is a validated comparator.
type Comparison struct {
	Op    Op
	Value int
	Max   int
}

// Test applies the comparator to v.
func (c Comparison) Test(v int) bool {
	switch c.Op {
	case OpEq:
		return v == c.Value
	case OpNe:
		return v != c.Value
	case OpGt:
		return v > c.Value
	case OpGte:
		return v >= c.Value
	case OpLt:
		return v < c.Value
	case OpLte:
		return v <= c.Value
	case OpBetween:
		return v >= c.Value && v <= c.Max
	}
	return false
}

func compileComparison(field string, raw RawComparison, lo, hi int) (Comparison, error) {
	op, ok := opNames[strings.ToLower(strings.TrimSpace(raw.Op))]
	if !ok {
		return Comparison{}, fmt.Errorf("%w: %s: unknown op %q", draw.ErrInvalidArgument, field, raw.Op)
	}
	c := Comparison{Op: op, Value: clamp(raw.Value, lo, hi)}
	if op == OpBetween {
		c.Max = clamp(raw.Max, lo, hi)
		if raw.Max < raw.Value {
			return Comparison{}, fmt.Errorf("%w: %s: between max %d below value %d", draw.ErrInvalidArgument, field, raw.Max, raw.Value)
		}
	}
	return c, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// RangeConstraint is a compiled bucket-count constraint.
type RangeConstraint struct {
	Key string
	Comparison
}

// Condition is a validated set of constraints; all present ones are ANDed.
type Condition struct {
	Partition   *Partition
	Ranges      []RangeConstraint
	Include     draw.Mask
	Exclude     draw.Mask
	OddCount    *Comparison
	Sum         *Comparison
	Consecutive *bool
	Min         *Comparison
	Max         *Comparison
}

// Compile validates raw and resolves its bucket references against cache.
func Compile(raw RawCondition, cache *BucketCache) (*Condition, error) {
	unit := raw.UnitSize
	if unit == 0 {
		unit = DefaultUnitSize
	}
	partition, err := cache.Get(unit)
	if err != nil {
		return nil, err
	}

	cond := &Condition{Partition: partition, Consecutive: raw.Consecutive}

	// 1. Range constraints
	if len(raw.Ranges) > MaxRangeConditions {
		return nil, fmt.Errorf("%w: ranges: %d constraints exceed the limit of %d", draw.ErrInvalidArgument, len(raw.Ranges), MaxRangeConditions)
	}
	for i, r := range raw.Ranges {
		key := strings.TrimSpace(r.Key)
		if _, ok := partition.Mask(key); !ok {
			return nil, fmt.Errorf("%w: %w: ranges[%d]: %q is not a bucket of unitSize %d (valid: %s)",
				draw.ErrInvalidArgument, ErrUnknownBucketKey, i, r.Key, unit, strings.Join(partition.Keys(), ", "))
		}
		c, err := compileComparison(fmt.Sprintf("ranges[%d]", i), r.RawComparison, 0, draw.PickCount)
		if err != nil {
			return nil, err
		}
		cond.Ranges = append(cond.Ranges, RangeConstraint{Key: key, Comparison: c})
	}

	// 2. Include / exclude sets
	if cond.Include, err = numberSet("includeNumbers", raw.IncludeNumbers); err != nil {
		return nil, err
	}
	if cond.Exclude, err = numberSet("excludeNumbers", raw.ExcludeNumbers); err != nil {
		return nil, err
	}
	if both := cond.Include & cond.Exclude; both != 0 {
		return nil, fmt.Errorf("%w: numbers %v are both included and excluded", draw.ErrInvalidArgument, both.Numbers())
	}
	if cond.Include.Count() > draw.PickCount {
		return nil, fmt.Errorf("%w: includeNumbers: at most %d numbers, got %d", draw.ErrInvalidArgument, draw.PickCount, cond.Include.Count())
	}
	if draw.Size-cond.Exclude.Count() < draw.PickCount {
		return nil, fmt.Errorf("%w: excludeNumbers: excluding %d numbers leaves fewer than %d", draw.ErrInvalidArgument, cond.Exclude.Count(), draw.PickCount)
	}

	// 3. Scalar constraints
	scalars := []struct {
		field  string
		raw    *RawComparison
		lo, hi int
		dst    **Comparison
	}{
		{"oddCount", raw.OddCount, 0, draw.PickCount, &cond.OddCount},
		{"sum", raw.Sum, minSum, maxSum, &cond.Sum},
		{"min", raw.Min, draw.Base, draw.Max, &cond.Min},
		{"max", raw.Max, draw.Base, draw.Max, &cond.Max},
	}
	for _, s := range scalars {
		if s.raw == nil {
			continue
		}
		c, err := compileComparison(s.field, *s.raw, s.lo, s.hi)
		if err != nil {
			return nil, err
		}
		*s.dst = &c
	}

	return cond, nil
}

func numberSet(field string, numbers []int) (draw.Mask, error) {
	var m draw.Mask
	for _, n := range numbers {
		if !draw.InDomain(n) {
			return 0, fmt.Errorf("%w: %s: %d outside [%d,%d]", draw.ErrInvalidArgument, field, n, draw.Base, draw.Max)
		}
		m = m.Set(n)
	}
	return m, nil
}

// oddMask holds every odd number of the domain.
var oddMask = func() draw.Mask {
	var m draw.Mask
	for n := draw.Base; n <= draw.Max; n++ {
		if n%2 == 1 {
			m = m.Set(n)
		}
	}
	return m
}()

// Match evaluates the condition against a draw's main numbers. A range
// constraint whose key is missing from the partition never matches.
func (c *Condition) Match(d draw.Draw) bool {
	m := d.Mask()

	if m&c.Include != c.Include {
		return false
	}
	if m&c.Exclude != 0 {
		return false
	}
	for _, r := range c.Ranges {
		bm, ok := c.Partition.Mask(r.Key)
		if !ok {
			return false
		}
		if !r.Test(m.IntersectCount(bm)) {
			return false
		}
	}
	if c.OddCount != nil && !c.OddCount.Test(m.IntersectCount(oddMask)) {
		return false
	}
	if c.Sum != nil {
		sum := 0
		for _, n := range d.Numbers {
			sum += n
		}
		if !c.Sum.Test(sum) {
			return false
		}
	}
	if c.Consecutive != nil {
		hasPair := m&(m>>1) != 0
		if hasPair != *c.Consecutive {
			return false
		}
	}
	if c.Min != nil && !c.Min.Test(slices.Min(d.Numbers)) {
		return false
	}
	if c.Max != nil && !c.Max.Test(slices.Max(d.Numbers)) {
		return false
	}
	return true
}
