package visuals

import (
	"fmt"
	"math"
	"strings"

	"lotto-mcp/internal/draw"
	"lotto-mcp/internal/stats"
)

// GenerateFrequencyChart creates a Mermaid bar chart of one count per number.
func GenerateFrequencyChart(title string, f stats.FrequencyVector) string {
	if f.Total() == 0 {
		return ""
	}

	labels := make([]string, 0, draw.Size)
	values := make([]string, 0, draw.Size)
	maxVal := 0
	for i, c := range f {
		labels = append(labels, fmt.Sprintf("%d", i+draw.Base))
		values = append(values, fmt.Sprintf("%d", c))
		maxVal = max(maxVal, c)
	}

	return barChart(title, labels, "Appearances", values, maxVal)
}

// GenerateBucketChart creates a Mermaid bar chart of counts keyed by bucket or
// group label, in the order given by keys.
func GenerateBucketChart(title, axis string, keys []string, counts map[string]int) string {
	if len(keys) == 0 {
		return ""
	}

	labels := make([]string, 0, len(keys))
	values := make([]string, 0, len(keys))
	maxVal := 0
	for _, k := range keys {
		c := counts[k]
		labels = append(labels, quote(k))
		values = append(values, fmt.Sprintf("%d", c))
		maxVal = max(maxVal, c)
	}
	if maxVal == 0 {
		return ""
	}

	return barChart(title, labels, axis, values, maxVal)
}

// GenerateKMatchChart plots how many history rounds fell into each K-match group.
func GenerateKMatchChart(summary stats.KMatchSummary) string {
	counts := make(map[string]int, len(summary.Groups))
	for label, g := range summary.Groups {
		counts[label] = g.MatchCount
	}
	title := fmt.Sprintf("Rounds Sharing Numbers With Round %d", summary.TargetRound)
	return GenerateBucketChart(title, "Rounds", stats.KMatchLabels[:], counts)
}

func barChart(title string, labels []string, axis string, values []string, maxVal int) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title %s\n", quote(title)))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis %s 0 --> %d\n", quote(axis), maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// quote wraps s in double quotes. Mermaid has no escape sequences, so inner
// double quotes become single quotes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "'") + `"`
}
