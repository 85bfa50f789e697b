package apimodels

import "github.com/SofiaKung/redflag/internal/evidence"

// Risk levels the model must choose from.
const (
	RiskSafe       = "safe"
	RiskSuspicious = "suspicious"
	RiskDangerous  = "dangerous"
)

// Verdict is the structured shape parsed from the model's final answer.
// Narrative fields are localized to the requested language by the model.
type Verdict struct {
	RiskLevel      string `json:"riskLevel"`
	Headline       string `json:"headline"`
	Hook           string `json:"hook,omitempty"`
	Trap           string `json:"trap,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

type AnalysisResponse struct {
	// Unique id of this analysis.
	ID string `json:"id"`

	Verdict Verdict `json:"verdict"`

	// The normalized, source-attributed lookup evidence.
	Evidence *evidence.VerifiedEvidence `json:"verifiedEvidence,omitempty"`

	Metadata AnalysisMetadata `json:"metadata"`
}

type AnalysisMetadata struct {
	// Time taken for the analysis.
	Duration string `json:"duration"`

	// Model used.
	Model string `json:"model"`

	// "agentic" or "fallback".
	Mode string `json:"mode"`

	// Model turns consumed (1 for the fallback path).
	Turns int `json:"turns"`

	// Total tokens across all turns.
	TokensUsed int64 `json:"tokensUsed"`
}
