package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SofiaKung/redflag/apimodels"
)

const maxExcerptLen = 500

// ParseError is a request-level failure: the model's final text could not be
// recovered as the expected structured shape. Excerpt is a capped slice of
// the raw output for diagnostics.
type ParseError struct {
	Excerpt string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("model output is not a valid verdict: %q", e.Excerpt)
}

// parseVerdict extracts the structured verdict from the model's final text,
// tolerating code fences and surrounding prose. If no JSON object with a
// risk level is recoverable, the raw text is never guessed at.
func parseVerdict(raw string) (*apimodels.Verdict, error) {
	s := stripCodeFences(raw)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, &ParseError{Excerpt: excerpt(raw)}
	}

	var v apimodels.Verdict
	if err := json.Unmarshal([]byte(s[start:end+1]), &v); err != nil {
		return nil, &ParseError{Excerpt: excerpt(raw)}
	}
	switch v.RiskLevel {
	case apimodels.RiskSafe, apimodels.RiskSuspicious, apimodels.RiskDangerous:
		return &v, nil
	default:
		return nil, &ParseError{Excerpt: excerpt(raw)}
	}
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "```") {
		return s
	}
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxExcerptLen {
		return s[:maxExcerptLen]
	}
	return s
}
