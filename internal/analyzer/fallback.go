package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/SofiaKung/redflag/apimodels"
	"github.com/SofiaKung/redflag/internal/domainutil"
	"github.com/SofiaKung/redflag/internal/evidence"
	"github.com/SofiaKung/redflag/internal/llm"
)

// analyzeFallback is the non-agentic path: decide up-front whether the input
// carries a URL, run all lookups directly and concurrently, embed their
// results as plain-text context, and parse one single-shot response. GeoIP
// keeps its data dependency on DNS inside ResolveNetwork.
func (a *Analyzer) analyzeFallback(ctx context.Context, req apimodels.AnalysisRequest) (*apimodels.Verdict, *evidence.VerifiedEvidence, int, llm.Usage, error) {
	var ev *evidence.VerifiedEvidence

	if host := analyzedHost(req); host != "" {
		domain := domainutil.CanonicalDomain(host)

		var (
			wg           sync.WaitGroup
			network      evidence.NetworkRecord
			registration *evidence.RegistrationRecord
			threats      evidence.ThreatRecord
		)
		wg.Add(3)
		go func() {
			defer wg.Done()
			network = a.intel.ResolveNetwork(ctx, host)
		}()
		go func() {
			defer wg.Done()
			registration = a.intel.LookupRegistration(ctx, domain)
		}()
		go func() {
			defer wg.Done()
			threats = a.intel.CheckSafeBrowsing(ctx, req.URL)
		}()
		homograph := domainutil.DetectHomograph(host)
		wg.Wait()

		ev = evidence.Merge(domain, &network, registration, &threats, &homograph)
	}

	input := buildUserInput(req)
	if ev != nil {
		if raw, err := json.MarshalIndent(ev, "", "  "); err == nil {
			input += fmt.Sprintf("\nVerified lookup evidence (already gathered, trust it over your assumptions):\n%s\n", raw)
		}
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		Model:           a.modelFor(req),
		Instructions:    systemInstruction,
		Text:            input,
		Images:          imageInputs(req.Images),
		MaxOutputTokens: a.cfg.MaxOutputTokens,
	})
	if err != nil {
		return nil, nil, 0, llm.Usage{}, fmt.Errorf("%w: %v", ErrModelEndpoint, err)
	}

	verdict, err := parseVerdict(resp.Text)
	if err != nil {
		return nil, nil, 0, llm.Usage{}, err
	}
	return verdict, ev, 1, resp.Usage, nil
}
