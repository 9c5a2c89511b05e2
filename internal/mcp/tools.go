package mcp

import (
	"context"
	"encoding/json"

	"lotto-mcp/internal/stats"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

type roundArgs struct {
	Round int `json:"round"`
}

type rangeArgs struct {
	StartRound int `json:"start_round"`
	EndRound   int `json:"end_round"`
}

type nextFrequencyArgs struct {
	Round         int    `json:"round"`
	Scheme        string `json:"scheme"`
	BonusIncluded bool   `json:"bonus_included"`
	TopN          int    `json:"top_n"`
}

type targetArgs struct {
	Round         int  `json:"round"`
	BonusIncluded bool `json:"bonus_included"`
	TopN          int  `json:"top_n"`
}

type rangeFrequencyArgs struct {
	StartRound    int  `json:"start_round"`
	EndRound      int  `json:"end_round"`
	BonusIncluded bool `json:"bonus_included"`
	TopN          int  `json:"top_n"`
}

type scanArgs struct {
	StartRound    int             `json:"start_round"`
	EndRound      int             `json:"end_round"`
	Condition     json.RawMessage `json:"condition"`
	BonusIncluded bool            `json:"bonus_included"`
	IncludeDetail bool            `json:"include_detail"`
	DetailLimit   int             `json:"detail_limit"`
}

type noArgs struct{}

func ptr[T any](v T) *T { return &v }

func object(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func describe(s *jsonschema.Schema, desc string) *jsonschema.Schema {
	s.Description = desc
	return s
}

func roundProp(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Minimum: ptr(1.0), Description: desc}
}

func bonusProp() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "boolean",
		Description: "Count the bonus number of each following round as well. Defaults to false.",
	}
}

func topNProp() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "integer",
		Minimum:     ptr(1.0),
		Maximum:     ptr(45.0),
		Description: "How many numbers to list in the ranking. Defaults to the server setting.",
	}
}

func schemeProp() *jsonschema.Schema {
	schemes := stats.Schemes()
	enum := make([]any, len(schemes))
	for i, s := range schemes {
		enum[i] = string(s)
	}
	return &jsonschema.Schema{
		Type:        "string",
		Enum:        enum,
		Default:     json.RawMessage(`"range10"`),
		Description: "Grouping scheme. Call 'list_schemes' for what each one compares.",
	}
}

func conditionSchema() *jsonschema.Schema {
	comparison := func(desc string) *jsonschema.Schema {
		return describe(object([]string{"op", "value"}, map[string]*jsonschema.Schema{
			"op": {
				Type: "string",
				Enum: []any{"eq", "ne", "neq", "gt", "gte", "lt", "lte", "between", "=", "==", "!=", ">", ">=", "<", "<="},
			},
			"value": {Type: "integer"},
			"max":   {Type: "integer", Description: "Upper bound, only read by 'between'."},
		}), desc)
	}
	rangeClause := object([]string{"range", "op", "value"}, map[string]*jsonschema.Schema{
		"range": {Type: "string", Description: "Bucket key such as '1-10' or '41-45' for the chosen unitSize."},
		"op":    {Type: "string"},
		"value": {Type: "integer"},
		"max":   {Type: "integer"},
	})

	return describe(object(nil, map[string]*jsonschema.Schema{
		"unitSize":       {Type: "integer", Enum: []any{5, 7, 10}, Description: "Bucket width for 'ranges'. Defaults to 10."},
		"ranges":         {Type: "array", Items: rangeClause, Description: "Per-bucket count constraints, at most 10."},
		"includeNumbers": {Type: "array", Items: &jsonschema.Schema{Type: "integer"}, Description: "Numbers the round must contain."},
		"excludeNumbers": {Type: "array", Items: &jsonschema.Schema{Type: "integer"}, Description: "Numbers the round must not contain."},
		"oddCount":       comparison("Constraint on the count of odd main numbers (0-6)."),
		"sum":            comparison("Constraint on the sum of the main numbers (21-255)."),
		"consecutive":    {Type: "boolean", Description: "true requires at least one adjacent pair, false forbids any."},
		"min":            comparison("Constraint on the smallest main number."),
		"max":            comparison("Constraint on the largest main number."),
	}), "Conjunction of clauses evaluated on the six main numbers of each round.")
}

// addTool registers a tool whose handler follows the envelope convention.
func addTool[In any](server *sdk.Server, tool *sdk.Tool, h func(ctx context.Context, in In) (any, error)) {
	sdk.AddTool(server, tool, func(ctx context.Context, _ *sdk.CallToolRequest, in In) (*sdk.CallToolResult, any, error) {
		log.Debug().Str("tool", tool.Name).Msg("Tool call")
		data, err := h(ctx, in)
		if err != nil {
			log.Warn().Err(err).Str("tool", tool.Name).Msg("Tool call failed")
		}
		return toolResult(data, err), nil, nil
	})
}

func (s *Server) registerTools(server *sdk.Server) {
	addTool(server, &sdk.Tool{
		Name:        "get_draw",
		Description: "Return the six main numbers and the bonus number of one round.",
		InputSchema: object([]string{"round"}, map[string]*jsonschema.Schema{
			"round": roundProp("Round number"),
		}),
	}, func(ctx context.Context, in roundArgs) (any, error) {
		return s.handleGetDraw(ctx, in.Round)
	})

	addTool(server, &sdk.Tool{
		Name:        "get_draw_range",
		Description: "Return every draw with start_round <= round <= end_round (at most 500 rounds). Rounds absent from the history are listed under 'missing'.",
		InputSchema: object([]string{"start_round", "end_round"}, map[string]*jsonschema.Schema{
			"start_round": roundProp("First round, inclusive"),
			"end_round":   roundProp("Last round, inclusive"),
		}),
	}, func(ctx context.Context, in rangeArgs) (any, error) {
		return s.handleGetDrawRange(ctx, in.StartRound, in.EndRound)
	})

	addTool(server, &sdk.Tool{
		Name:        "get_latest_round",
		Description: "Return the most recent round held by the active snapshot and its draw.",
		InputSchema: object(nil, nil),
	}, func(ctx context.Context, _ noArgs) (any, error) {
		return s.handleGetLatestRound(ctx)
	})

	addTool(server, &sdk.Tool{
		Name:        "list_schemes",
		Description: "List the grouping schemes accepted by 'analyze_next_frequency' with what each one compares.",
		InputSchema: object(nil, nil),
	}, func(context.Context, noArgs) (any, error) {
		return s.handleListSchemes()
	})

	addTool(server, &sdk.Tool{
		Name: "analyze_next_frequency",
		Description: "Find every round before 'round' that matches it under a grouping scheme, then count how often each number appeared in the round right after each match. \n\n" +
			"Results are historical frequencies only, not predictions. match_count includes matches whose following round is missing; successor_count is the number of following rounds actually counted.",
		InputSchema: object([]string{"round"}, map[string]*jsonschema.Schema{
			"round":          roundProp("Target round. Only earlier rounds are scanned."),
			"scheme":         schemeProp(),
			"bonus_included": bonusProp(),
			"top_n":          topNProp(),
		}),
	}, func(ctx context.Context, in nextFrequencyArgs) (any, error) {
		return s.handleAnalyzeNextFrequency(ctx, in.Round, in.Scheme, in.BonusIncluded, in.TopN)
	})

	addTool(server, &sdk.Tool{
		Name: "analyze_kmatch",
		Description: "Group every round before 'round' by how many main numbers it shares with the target (1, 2, 3, 4+) and count the numbers drawn in the round after each. \n\n" +
			"Results are historical frequencies only, not predictions.",
		InputSchema: object([]string{"round"}, map[string]*jsonschema.Schema{
			"round":          roundProp("Target round. Only earlier rounds are scanned."),
			"bonus_included": bonusProp(),
			"top_n":          topNProp(),
		}),
	}, func(ctx context.Context, in targetArgs) (any, error) {
		return s.handleAnalyzeKMatch(ctx, in.Round, in.BonusIncluded, in.TopN)
	})

	addTool(server, &sdk.Tool{
		Name: "analyze_full_report",
		Description: "Run 'analyze_next_frequency' for every scheme plus 'analyze_kmatch' against one target round in a single call. \n\n" +
			"Results are historical frequencies only, not predictions.",
		InputSchema: object([]string{"round"}, map[string]*jsonschema.Schema{
			"round":          roundProp("Target round. Only earlier rounds are scanned."),
			"bonus_included": bonusProp(),
			"top_n":          topNProp(),
		}),
	}, func(ctx context.Context, in targetArgs) (any, error) {
		return s.handleAnalyzeFullReport(ctx, in.Round, in.BonusIncluded, in.TopN)
	})

	addTool(server, &sdk.Tool{
		Name:        "analyze_range_frequency",
		Description: "Count how often each number was drawn in rounds start_round..end_round, inclusive. Results are historical frequencies only, not predictions.",
		InputSchema: object([]string{"start_round", "end_round"}, map[string]*jsonschema.Schema{
			"start_round":    roundProp("First round, inclusive"),
			"end_round":      roundProp("Last round, inclusive"),
			"bonus_included": bonusProp(),
			"top_n":          topNProp(),
		}),
	}, func(ctx context.Context, in rangeFrequencyArgs) (any, error) {
		return s.handleAnalyzeRangeFrequency(ctx, in.StartRound, in.EndRound, in.BonusIncluded, in.TopN)
	})

	addTool(server, &sdk.Tool{
		Name: "scan_conditions",
		Description: "Test a condition against every round r with start_round <= r < end_round and count the numbers drawn in round r+1 after each match. \n\n" +
			"Conditions always test the six main numbers; bonus_included only affects the counts of the following rounds. " +
			"Unknown fields or range keys are rejected. Results are historical frequencies only, not predictions.",
		InputSchema: object([]string{"start_round", "end_round", "condition"}, map[string]*jsonschema.Schema{
			"start_round":    roundProp("First round tested, inclusive"),
			"end_round":      roundProp("Exclusive upper bound; round end_round-1 is the last one tested"),
			"condition":      conditionSchema(),
			"bonus_included": bonusProp(),
			"include_detail": {Type: "boolean", Description: "List each matching round with its following round."},
			"detail_limit":   {Type: "integer", Minimum: ptr(1.0), Description: "Cap on listed details, bounded by the server limit."},
		}),
	}, func(ctx context.Context, in scanArgs) (any, error) {
		return s.handleScanConditions(ctx, in.StartRound, in.EndRound, in.Condition, in.BonusIncluded, in.IncludeDetail, in.DetailLimit)
	})

	addTool(server, &sdk.Tool{
		Name:        "rebuild_snapshot",
		Description: "Reload the draw history from the configured source and swap in a new snapshot. Queries running meanwhile finish against the old one.",
		InputSchema: object(nil, nil),
	}, func(ctx context.Context, _ noArgs) (any, error) {
		return s.handleRebuildSnapshot(ctx)
	})

	addTool(server, &sdk.Tool{
		Name:        "get_snapshot_info",
		Description: "Describe the active snapshot: version, build time, draw count, first and last round, gaps.",
		InputSchema: object(nil, nil),
	}, func(context.Context, noArgs) (any, error) {
		return s.handleGetSnapshotInfo()
	})
}
