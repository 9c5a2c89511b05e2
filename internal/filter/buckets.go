package filter

import (
	"fmt"
	"slices"
	"sync"

	"lotto-mcp/internal/draw"
)

// UnitSizes are the bucket widths accepted by range conditions.
var UnitSizes = []int{5, 7, 10}

// DefaultUnitSize applies when a condition does not name one.
const DefaultUnitSize = 10

// Partition is an immutable bucket layout for one unit size.
type Partition struct {
	UnitSize int
	Buckets  []draw.Bucket
	index    map[string]int
}

// Keys lists the bucket keys in ascending order.
func (p *Partition) Keys() []string {
	keys := make([]string, len(p.Buckets))
	for i, b := range p.Buckets {
		keys[i] = b.Key
	}
	return keys
}

// Mask returns the mask of a bucket key.
func (p *Partition) Mask(key string) (draw.Mask, bool) {
	i, ok := p.index[key]
	if !ok {
		return 0, false
	}
	return p.Buckets[i].Mask, true
}

// BucketCache memoizes partitions by unit size. Entries are written once and
// never modified; a racing first population only wastes work.
type BucketCache struct {
	partitions sync.Map // int -> *Partition
}

// NewBucketCache creates an empty cache.
func NewBucketCache() *BucketCache {
	return &BucketCache{}
}

// Get returns the partition for unit, building it on first use.
func (c *BucketCache) Get(unit int) (*Partition, error) {
	if v, ok := c.partitions.Load(unit); ok {
		return v.(*Partition), nil
	}
	if !slices.Contains(UnitSizes, unit) {
		return nil, fmt.Errorf("%w: unitSize %d not in %v", draw.ErrInvalidArgument, unit, UnitSizes)
	}

	buckets, err := draw.Partition(unit)
	if err != nil {
		return nil, err
	}
	p := &Partition{
		UnitSize: unit,
		Buckets:  buckets,
		index:    make(map[string]int, len(buckets)),
	}
	for i, b := range buckets {
		p.index[b.Key] = i
	}

	actual, _ := c.partitions.LoadOrStore(unit, p)
	return actual.(*Partition), nil
}

// Invalidate drops every memoized partition.
func (c *BucketCache) Invalidate() {
	c.partitions.Clear()
}
