package draw

import (
	"fmt"
	"strconv"
)

// Bucket is one fixed-width slice of the domain.
type Bucket struct {
	Key  string `json:"key"`
	Lo   int    `json:"lo"`
	Hi   int    `json:"hi"`
	Mask Mask   `json:"-"`
}

// Partition splits [Base, Max] into consecutive buckets of width unit. The last
// bucket is truncated at Max. Keys have the form "lo-hi".
func Partition(unit int) ([]Bucket, error) {
	if unit <= 0 || unit > Size {
		return nil, fmt.Errorf("%w: unit size %d outside [1,%d]", ErrInvalidArgument, unit, Size)
	}

	buckets := make([]Bucket, 0, (Size+unit-1)/unit)
	for lo := Base; lo <= Max; lo += unit {
		hi := lo + unit - 1
		if hi > Max {
			hi = Max
		}
		buckets = append(buckets, Bucket{
			Key:  strconv.Itoa(lo) + "-" + strconv.Itoa(hi),
			Lo:   lo,
			Hi:   hi,
			Mask: RangeMask(lo, hi),
		})
	}
	return buckets, nil
}
