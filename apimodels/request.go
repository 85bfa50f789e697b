package apimodels

// AnalysisRequest is the caller contract for one fraud analysis. At least
// one of URL, Text or Images must be set.
type AnalysisRequest struct {
	// URL to analyze. Must have passed the caller-side URL safety gate.
	URL string `json:"url,omitempty"`

	// Free text to analyze (e.g. a suspicious message).
	Text string `json:"text,omitempty"`

	// Screenshot payloads to analyze.
	Images []ImagePayload `json:"images,omitempty"`

	// Target language for the model's narrative fields (BCP 47 tag).
	Language string `json:"language,omitempty"`

	// Optional country context of the person asking (ISO 3166-1 alpha-2).
	CountryCode string `json:"countryCode,omitempty"`

	Options AnalysisOptions `json:"options,omitempty"`
}

type ImagePayload struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type AnalysisOptions struct {
	// Model overrides the configured model for this request.
	Model string `json:"model,omitempty"`

	// Agentic selects the tool-orchestration path; nil uses the server
	// default, false forces the single-shot fallback path.
	Agentic *bool `json:"agentic,omitempty"`
}
