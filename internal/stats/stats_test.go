package stats

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"lotto-mcp/internal/draw"
	"lotto-mcp/internal/history"
)

func buildSnapshot(t *testing.T, records []draw.Record) *history.Snapshot {
	t.Helper()
	snap, skipped := history.FromRecords(records)
	if skipped != 0 {
		t.Fatalf("fixture has %d invalid records", skipped)
	}
	return snap
}

// scenarioA: rounds 1, 3 and 5 share the same numbers.
func scenarioA(t *testing.T) *history.Snapshot {
	return buildSnapshot(t, []draw.Record{
		{Round: 1, Numbers: []int{1, 2, 3, 4, 5, 6}, Bonus: 45},
		{Round: 2, Numbers: []int{7, 8, 9, 10, 11, 12}, Bonus: 40},
		{Round: 3, Numbers: []int{1, 2, 3, 4, 5, 6}, Bonus: 44},
		{Round: 4, Numbers: []int{13, 14, 15, 16, 17, 18}, Bonus: 41},
		{Round: 5, Numbers: []int{1, 2, 3, 4, 5, 6}, Bonus: 43},
	})
}

func TestAggregate_ScenarioA(t *testing.T) {
	snap := scenarioA(t)

	res, err := Aggregate(snap, 5, SchemeExact, false)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if res.MatchCount != 2 {
		t.Errorf("MatchCount = %d, want 2", res.MatchCount)
	}
	if res.SuccessorCount != 2 {
		t.Errorf("SuccessorCount = %d, want 2", res.SuccessorCount)
	}

	for n := draw.Base; n <= draw.Max; n++ {
		want := 0
		if n >= 7 && n <= 18 {
			want = 1
		}
		if got := res.Frequency.Get(n); got != want {
			t.Errorf("Frequency[%d] = %d, want %d", n, got, want)
		}
	}
}

func TestAggregate_BonusIncluded(t *testing.T) {
	snap := scenarioA(t)

	res, err := Aggregate(snap, 5, SchemeExact, true)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if got := res.Frequency.Total(); got != 14 {
		t.Errorf("Total with bonus = %d, want 14", got)
	}
	if res.Frequency.Get(40) != 1 || res.Frequency.Get(41) != 1 {
		t.Error("bonus numbers of successor rounds should be counted")
	}
	if res.Frequency.Get(44) != 0 {
		t.Error("bonus of a matched round itself must not be counted")
	}
}

func TestAggregate_MatchWithoutSuccessorStillCounts(t *testing.T) {
	snap := buildSnapshot(t, []draw.Record{
		{Round: 1, Numbers: []int{1, 2, 3, 4, 5, 6}, Bonus: 7},
		{Round: 3, Numbers: []int{1, 2, 3, 4, 5, 6}, Bonus: 7},
		{Round: 4, Numbers: []int{1, 2, 3, 4, 5, 6}, Bonus: 7},
	})

	res, err := Aggregate(snap, 4, SchemeExact, false)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if res.MatchCount != 2 {
		t.Errorf("MatchCount = %d, want 2 (round 1 counts despite missing round 2)", res.MatchCount)
	}
	if res.SuccessorCount != 1 {
		t.Errorf("SuccessorCount = %d, want 1", res.SuccessorCount)
	}
	if res.Frequency.Total() != 6 {
		t.Errorf("Total = %d, want 6", res.Frequency.Total())
	}
}

func TestAggregate_Errors(t *testing.T) {
	snap := scenarioA(t)

	if _, err := Aggregate(snap, 99, SchemeSum, false); !errors.Is(err, draw.ErrNotFound) {
		t.Errorf("missing target: err = %v, want ErrNotFound", err)
	}
	if _, err := Aggregate(snap, 0, SchemeSum, false); !errors.Is(err, draw.ErrInvalidArgument) {
		t.Errorf("zero target: err = %v, want ErrInvalidArgument", err)
	}
	if _, err := Aggregate(snap, 5, Scheme("bogus"), false); !errors.Is(err, draw.ErrInvalidArgument) {
		t.Errorf("bad scheme: err = %v, want ErrInvalidArgument", err)
	}
}

func TestAggregate_EverySchemeIsReflexive(t *testing.T) {
	snap := scenarioA(t)
	for _, scheme := range Schemes() {
		t.Run(string(scheme), func(t *testing.T) {
			res, err := Aggregate(snap, 5, scheme, false)
			if err != nil {
				t.Fatalf("Aggregate failed: %v", err)
			}
			// Rounds 1 and 3 are identical to the target and must always match.
			if res.MatchCount < 2 {
				t.Errorf("MatchCount = %d, want >= 2", res.MatchCount)
			}

			classify, _ := ClassifierFor(scheme)
			d, _ := snap.Get(2)
			if classify(d) != classify(d) {
				t.Error("classifier is not deterministic")
			}
		})
	}
}

func TestParseScheme(t *testing.T) {
	if s, err := ParseScheme(" Range10 "); err != nil || s != SchemeRange10 {
		t.Errorf("ParseScheme(Range10) = %q, %v", s, err)
	}
	if s, err := ParseScheme("Exact-Numbers"); err != nil || s != SchemeExact {
		t.Errorf("ParseScheme(Exact-Numbers) = %q, %v; want exact", s, err)
	}
	if _, err := ParseScheme("range11"); !errors.Is(err, draw.ErrInvalidArgument) {
		t.Errorf("ParseScheme(range11) err = %v", err)
	}
}

func TestSumRange(t *testing.T) {
	tests := []struct {
		numbers []int
		want    string
	}{
		{[]int{10, 15, 20, 22, 25, 27}, "low"},  // 119
		{[]int{10, 15, 20, 22, 25, 28}, "mid"},  // 120
		{[]int{20, 25, 28, 29, 31, 32}, "mid"},  // 165
		{[]int{20, 25, 28, 29, 31, 33}, "high"}, // 166
	}
	for _, tt := range tests {
		if got := SumRange(tt.numbers); got != tt.want {
			t.Errorf("SumRange(%v) sum=%d = %q, want %q", tt.numbers, Sum(tt.numbers), got, tt.want)
		}
	}
}

func TestClassificationFunctions(t *testing.T) {
	if z := ZoneCounts([]int{1, 15, 16, 30, 31, 45}); z != [3]int{2, 2, 2} {
		t.Errorf("ZoneCounts = %v, want [2 2 2]", z)
	}
	if z := ZoneCounts([]int{1, 2, 3, 4, 5, 45}); z != [3]int{5, 0, 1} {
		t.Errorf("ZoneCounts = %v, want [5 0 1]", z)
	}
	if c := ConsecutiveCount([]int{3, 1, 2, 11, 10, 20}); c != 3 {
		t.Errorf("ConsecutiveCount = %d, want 3", c)
	}
	if c := ConsecutiveCount([]int{1, 3, 5, 7, 9, 11}); c != 0 {
		t.Errorf("ConsecutiveCount = %d, want 0", c)
	}
	if p := PrimeCount([]int{2, 3, 4, 5, 6, 43}); p != 4 {
		t.Errorf("PrimeCount = %d, want 4", p)
	}
	if IsPrime(1) || IsPrime(45) || !IsPrime(41) {
		t.Error("IsPrime wrong")
	}

	gapTests := []struct {
		numbers  []int
		avg, max int
	}{
		{[]int{1, 2, 3, 4, 5, 6}, 1, 1},
		{[]int{1, 10, 20, 30, 40, 45}, 9, 10},
		{[]int{12, 1, 3, 5, 7, 9}, 2, 3},
	}
	for _, tt := range gapTests {
		avg, mx := GapStats(tt.numbers)
		if avg != tt.avg || mx != tt.max {
			t.Errorf("GapStats(%v) = %d,%d want %d,%d", tt.numbers, avg, mx, tt.avg, tt.max)
		}
	}
}

func TestRangePattern(t *testing.T) {
	numbers := []int{1, 2, 11, 21, 41, 45}
	tests := []struct {
		unit int
		want []int
	}{
		{10, []int{2, 1, 1, 0, 2}},
		{7, []int{2, 1, 1, 0, 0, 1, 1}},
		{15, []int{3, 1, 2}},
		{5, []int{2, 0, 1, 0, 1, 0, 0, 0, 2}},
	}
	for _, tt := range tests {
		got, err := RangePattern(numbers, tt.unit)
		if err != nil {
			t.Fatalf("RangePattern(%d): %v", tt.unit, err)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("RangePattern(unit=%d) = %v, want %v", tt.unit, got, tt.want)
		}
	}
	if _, err := RangePattern(numbers, 0); !errors.Is(err, draw.ErrInvalidArgument) {
		t.Errorf("unit 0 err = %v", err)
	}
}

func TestAggregateKMatch(t *testing.T) {
	snap := buildSnapshot(t, []draw.Record{
		{Round: 1, Numbers: []int{1, 20, 21, 22, 23, 24}, Bonus: 25}, // k=1
		{Round: 2, Numbers: []int{1, 2, 30, 31, 32, 33}, Bonus: 34},  // k=2
		{Round: 3, Numbers: []int{40, 41, 42, 43, 44, 45}, Bonus: 7}, // k=0
		{Round: 4, Numbers: []int{1, 2, 3, 4, 5, 40}, Bonus: 41},     // k=5 -> 4+
		{Round: 5, Numbers: []int{1, 2, 3, 4, 5, 6}, Bonus: 7},       // target
	})

	res, err := AggregateKMatch(snap, 5, false)
	if err != nil {
		t.Fatalf("AggregateKMatch failed: %v", err)
	}

	wantMatches := map[string]int{"1": 1, "2": 1, "3": 0, "4+": 1}
	for label, want := range wantMatches {
		if got := res.Group(label).MatchCount; got != want {
			t.Errorf("group %s MatchCount = %d, want %d", label, got, want)
		}
	}

	// Round 1 (k=1) is followed by round 2.
	if res.Group("1").Frequency.Get(30) != 1 {
		t.Error("group 1 should hold round 2's numbers")
	}
	// Round 4 (k=5) is followed by the target round 5.
	if res.Group("4+").Frequency.Get(6) != 1 {
		t.Error("group 4+ should hold round 5's numbers")
	}
	if res.Group("5") != nil {
		t.Error("unknown label should return nil")
	}
}

func TestAggregateKMatch_Exhaustive(t *testing.T) {
	var records []draw.Record
	for r := 1; r <= 60; r++ {
		a := (r*7)%40 + 1
		b := (r*11)%40 + 1
		nums := []int{a}
		for _, n := range []int{b, a + 1, b + 2, (r*3)%45 + 1, (r*13)%45 + 1, 45, 44, 43, 42} {
			if len(nums) == 6 {
				break
			}
			if !slices.Contains(nums, n) && draw.InDomain(n) {
				nums = append(nums, n)
			}
		}
		records = append(records, draw.Record{Round: r, Numbers: nums, Bonus: nums[0]})
	}
	snap := buildSnapshot(t, records)

	target := 60
	res, err := AggregateKMatch(snap, target, false)
	if err != nil {
		t.Fatalf("AggregateKMatch failed: %v", err)
	}

	td, _ := snap.Get(target)
	expected := 0
	successors := 0
	snap.Before(target, func(d draw.Draw) bool {
		if td.Mask().IntersectCount(d.Mask()) >= 1 {
			expected++
			if _, ok := snap.Get(d.Round + 1); ok {
				successors++
			}
		}
		return true
	})

	total, totalFreq := 0, 0
	for i := range res.Groups {
		total += res.Groups[i].MatchCount
		totalFreq += res.Groups[i].Frequency.Total()
	}
	if total != expected {
		t.Errorf("sum of group match counts = %d, want %d", total, expected)
	}
	if totalFreq != successors*draw.PickCount {
		t.Errorf("sum of group frequencies = %d, want %d", totalFreq, successors*draw.PickCount)
	}
}

func TestTopN_TieBreak(t *testing.T) {
	var f FrequencyVector
	f.Add(draw.Encode([]int{5, 9, 12}))
	f.Add(draw.Encode([]int{9, 3}))
	f.Add(draw.Encode([]int{12}))

	top := TopN(f, 4)
	want := []Ranked{{9, 2}, {12, 2}, {3, 1}, {5, 1}}
	if !slices.Equal(top, want) {
		t.Errorf("TopN = %v, want %v", top, want)
	}
	if len(TopN(f, 0)) != draw.Size {
		t.Error("TopN(0) should return the full ranking")
	}
}

func TestSummarize_DenseMap(t *testing.T) {
	var f FrequencyVector
	f.Add(draw.Encode([]int{1, 45}))
	s := Summarize(f, 3)
	if len(s.Frequency) != draw.Size {
		t.Errorf("dense map has %d entries, want %d", len(s.Frequency), draw.Size)
	}
	if s.Frequency[45] != 1 || s.Frequency[2] != 0 || s.Total != 2 {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestBuildReport(t *testing.T) {
	snap := scenarioA(t)

	rep, err := BuildReport(context.Background(), snap, 5, false, 5)
	if err != nil {
		t.Fatalf("BuildReport failed: %v", err)
	}
	if rep.TotalRoundsAnalyzed != 4 {
		t.Errorf("TotalRoundsAnalyzed = %d, want 4", rep.TotalRoundsAnalyzed)
	}
	if len(rep.Schemes) != len(Schemes()) {
		t.Errorf("report has %d schemes, want %d", len(rep.Schemes), len(Schemes()))
	}
	if rep.MatchCounts[string(SchemeExact)] != 2 {
		t.Errorf("exact match count = %d, want 2", rep.MatchCounts[string(SchemeExact)])
	}
	// Rounds 1 and 3 share all six numbers with the target.
	if rep.KMatch.Groups["4+"].MatchCount != 2 {
		t.Errorf("kmatch 4+ = %d, want 2", rep.KMatch.Groups["4+"].MatchCount)
	}

	if _, err := BuildReport(context.Background(), snap, 42, false, 5); !errors.Is(err, draw.ErrNotFound) {
		t.Errorf("missing target err = %v", err)
	}
}

func TestRangeFrequency(t *testing.T) {
	snap := scenarioA(t)

	res, err := RangeFrequency(snap, 1, 3, false, 3)
	if err != nil {
		t.Fatalf("RangeFrequency failed: %v", err)
	}
	if res.Draws != 3 {
		t.Errorf("Draws = %d, want 3", res.Draws)
	}
	if res.Frequency[1] != 2 || res.Frequency[7] != 1 {
		t.Errorf("unexpected counts: 1=%d 7=%d", res.Frequency[1], res.Frequency[7])
	}
	if res.Top[0].Number != 1 || res.Top[0].Count != 2 {
		t.Errorf("Top[0] = %+v", res.Top[0])
	}

	if _, err := RangeFrequency(snap, 3, 1, false, 3); !errors.Is(err, draw.ErrInvalidArgument) {
		t.Errorf("reversed range err = %v", err)
	}
}

func TestSchemes_Described(t *testing.T) {
	for _, s := range Schemes() {
		if s.Description() == "" {
			t.Errorf("scheme %s has no description", s)
		}
	}
}

func TestFrequencyVector_JSON(t *testing.T) {
	var f FrequencyVector
	f.Add(draw.Encode([]int{1, 9, 45}))

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	var back FrequencyVector
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back != f {
		t.Errorf("decoded %v, want %v", back, f)
	}

	if err := json.Unmarshal([]byte(`{"46":1}`), &back); !errors.Is(err, draw.ErrInvalidArgument) {
		t.Errorf("out-of-domain key err = %v", err)
	}
}
