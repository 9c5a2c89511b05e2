package stats

import (
	"encoding/json"
	"fmt"
	"strconv"

	"lotto-mcp/internal/draw"
)

// FrequencyVector counts appearances per number. Index i holds number i+draw.Base.
type FrequencyVector [draw.Size]int

// Add credits every number set in m.
func (f *FrequencyVector) Add(m draw.Mask) {
	m.Each(func(bit int) {
		f[bit]++
	})
}

// Get returns the count of number n, or 0 outside the domain.
func (f *FrequencyVector) Get(n int) int {
	if !draw.InDomain(n) {
		return 0
	}
	return f[n-draw.Base]
}

// Total is the sum of all counts.
func (f *FrequencyVector) Total() int {
	total := 0
	for _, c := range f {
		total += c
	}
	return total
}

// Dense returns a map holding every number of the domain, zeros included.
func (f *FrequencyVector) Dense() map[int]int {
	out := make(map[int]int, draw.Size)
	for i, c := range f {
		out[i+draw.Base] = c
	}
	return out
}

// MarshalJSON renders the vector as a dense number-to-count object.
func (f FrequencyVector) MarshalJSON() ([]byte, error) {
	out := make(map[string]int, draw.Size)
	for i, c := range f {
		out[strconv.Itoa(i+draw.Base)] = c
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the object form written by MarshalJSON.
func (f *FrequencyVector) UnmarshalJSON(data []byte) error {
	var in map[string]int
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*f = FrequencyVector{}
	for k, c := range in {
		n, err := strconv.Atoi(k)
		if err != nil || !draw.InDomain(n) {
			return fmt.Errorf("%w: frequency key %q", draw.ErrInvalidArgument, k)
		}
		f[n-draw.Base] = c
	}
	return nil
}
