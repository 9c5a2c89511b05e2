package mcp

// ResponseEnvelope is the uniform shape of every tool response.
type ResponseEnvelope struct {
	Data        any            `json:"data"`
	Diagnostics map[string]any `json:"_diagnostics,omitempty"`
	Guidance    []string       `json:"_guidance,omitempty"`
	Chart       string         `json:"chart,omitempty"`
}

// WrapResponse builds an envelope. chart is attached only when charts are enabled.
func (s *Server) WrapResponse(data any, diagnostics map[string]any, guidance []string, chart string) ResponseEnvelope {
	env := ResponseEnvelope{
		Data:        data,
		Diagnostics: diagnostics,
		Guidance:    guidance,
	}
	if s.opts.EnableMermaidCharts {
		env.Chart = chart
	}
	return env
}
