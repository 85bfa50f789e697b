// Package analyzer drives one fraud analysis: either the agentic
// tool-orchestration loop or the single-shot fallback path, both converging
// on the same verdict + verified-evidence contract.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SofiaKung/redflag/apimodels"
	"github.com/SofiaKung/redflag/internal/config"
	"github.com/SofiaKung/redflag/internal/domainutil"
	"github.com/SofiaKung/redflag/internal/evidence"
	"github.com/SofiaKung/redflag/internal/llm"
	"github.com/SofiaKung/redflag/internal/tools"
)

var systemInstruction = `You are a fraud analyst. Assess whether the given URL, text, or screenshot
is fraudulent. You have tools that look up independent network intelligence:
DNS/GeoIP, domain registration data, threat lists, and hostname spoofing
checks. Call the tools you need before concluding; do not guess at facts a
tool can verify. Do not repeat a tool call whose result you already have.

When you are done, answer with a single JSON object and nothing else:
{"riskLevel": "safe" | "suspicious" | "dangerous",
 "headline": "...", "hook": "...", "trap": "...", "recommendation": "..."}
"headline" is a one-line verdict, "hook" describes what lures the victim,
"trap" describes what the scam actually does, and "recommendation" tells the
user what to do. Write these fields in the requested language.`

// ToolExecutor is the slice of the tool registry the loop needs; the
// concrete *tools.Registry satisfies it.
type ToolExecutor interface {
	Declarations() []llm.ToolDeclaration
	Execute(ctx context.Context, name string, args json.RawMessage) tools.Result
}

// NetworkLookups is the slice of the intel client the fallback path needs.
type NetworkLookups interface {
	ResolveNetwork(ctx context.Context, host string) evidence.NetworkRecord
	LookupRegistration(ctx context.Context, domain string) *evidence.RegistrationRecord
	CheckSafeBrowsing(ctx context.Context, url string) evidence.ThreatRecord
}

type Analyzer struct {
	provider llm.Provider
	registry ToolExecutor
	intel    NetworkLookups
	model    string
	cfg      config.AgentConfig
}

func New(provider llm.Provider, registry ToolExecutor, lookups NetworkLookups, model string, cfg config.AgentConfig) *Analyzer {
	return &Analyzer{
		provider: provider,
		registry: registry,
		intel:    lookups,
		model:    model,
		cfg:      cfg,
	}
}

func (a *Analyzer) Analyze(ctx context.Context, req apimodels.AnalysisRequest) (*apimodels.AnalysisResponse, error) {
	start := time.Now()
	id := uuid.NewString()
	slog.Info("starting analysis", "id", id, "url", req.URL != "", "text", req.Text != "", "images", len(req.Images))

	agentic := a.cfg.Enabled
	if req.Options.Agentic != nil {
		agentic = *req.Options.Agentic
	}

	var (
		verdict *apimodels.Verdict
		ev      *evidence.VerifiedEvidence
		turns   int
		usage   llm.Usage
		mode    string
		err     error
	)
	if agentic {
		mode = "agentic"
		verdict, ev, turns, usage, err = a.analyzeAgentic(ctx, req)
	} else {
		mode = "fallback"
		verdict, ev, turns, usage, err = a.analyzeFallback(ctx, req)
	}
	if err != nil {
		slog.Error("analysis failed", "id", id, "mode", mode, "error", err)
		return nil, err
	}

	return &apimodels.AnalysisResponse{
		ID:       id,
		Verdict:  *verdict,
		Evidence: ev,
		Metadata: apimodels.AnalysisMetadata{
			Duration:   time.Since(start).String(),
			Model:      a.modelFor(req),
			Mode:       mode,
			Turns:      turns,
			TokensUsed: usage.TotalTokens,
		},
	}, nil
}

func (a *Analyzer) analyzeAgentic(ctx context.Context, req apimodels.AnalysisRequest) (*apimodels.Verdict, *evidence.VerifiedEvidence, int, llm.Usage, error) {
	llmReq := llm.Request{
		Model:           a.modelFor(req),
		Instructions:    systemInstruction,
		Text:            buildUserInput(req),
		Images:          imageInputs(req.Images),
		Tools:           a.registry.Declarations(),
		MaxOutputTokens: a.cfg.MaxOutputTokens,
		Store:           true,
	}

	outcome, err := a.runAgentLoop(ctx, llmReq)
	if err != nil {
		return nil, nil, 0, llm.Usage{}, err
	}

	verdict, err := parseVerdict(outcome.text)
	if err != nil {
		return nil, nil, 0, llm.Usage{}, err
	}

	ev := evidenceFromResults(analyzedDomain(req), outcome.results)
	return verdict, ev, outcome.turns, outcome.usage, nil
}

func (a *Analyzer) modelFor(req apimodels.AnalysisRequest) string {
	if req.Options.Model != "" {
		return req.Options.Model
	}
	return a.model
}

// buildUserInput renders the request as the first-turn prompt text.
func buildUserInput(req apimodels.AnalysisRequest) string {
	var b strings.Builder
	b.WriteString("Analyze the following for fraud.\n")
	if req.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", req.URL)
	}
	if req.Text != "" {
		fmt.Fprintf(&b, "Text:\n%s\n", req.Text)
	}
	if len(req.Images) > 0 {
		fmt.Fprintf(&b, "Attached: %d screenshot(s).\n", len(req.Images))
	}
	lang := req.Language
	if lang == "" {
		lang = "en"
	}
	fmt.Fprintf(&b, "Answer language: %s\n", lang)
	if req.CountryCode != "" {
		fmt.Fprintf(&b, "User country context: %s\n", req.CountryCode)
	}
	return b.String()
}

func imageInputs(payloads []apimodels.ImagePayload) []llm.ImageInput {
	if len(payloads) == 0 {
		return nil
	}
	images := make([]llm.ImageInput, len(payloads))
	for i, p := range payloads {
		images[i] = llm.ImageInput{MimeType: p.MimeType, Data: p.Data}
	}
	return images
}

// analyzedDomain extracts the registrable domain from the request URL, or ""
// when the request carries no URL.
func analyzedDomain(req apimodels.AnalysisRequest) string {
	host := analyzedHost(req)
	if host == "" {
		return ""
	}
	return domainutil.CanonicalDomain(host)
}

func analyzedHost(req apimodels.AnalysisRequest) string {
	if req.URL == "" {
		return ""
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// evidenceFromResults rebuilds the typed lookup records from the tool
// results accumulated across all turns and merges them. A result that failed
// or was never produced leaves its record nil.
func evidenceFromResults(domain string, results map[string]tools.Result) *evidence.VerifiedEvidence {
	var (
		network      *evidence.NetworkRecord
		registration *evidence.RegistrationRecord
		threats      *evidence.ThreatRecord
		homograph    *evidence.HomographRecord
	)
	for _, res := range results {
		if res.Failed() {
			continue
		}
		switch payload := res.Payload.(type) {
		case evidence.NetworkRecord:
			network = &payload
		case *evidence.RegistrationRecord:
			registration = payload
		case evidence.ThreatRecord:
			threats = &payload
		case evidence.HomographRecord:
			homograph = &payload
		}
	}
	return evidence.Merge(domain, network, registration, threats, homograph)
}
