package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SofiaKung/redflag/apimodels"
	"github.com/SofiaKung/redflag/internal/analyzer"
	"github.com/SofiaKung/redflag/internal/config"
	"github.com/SofiaKung/redflag/internal/intel"
	"github.com/SofiaKung/redflag/internal/llm"
)

// stubProvider returns the same canned text on every turn.
type stubProvider struct {
	text string
	err  error
}

func (p *stubProvider) Generate(context.Context, llm.Request) (*llm.Response, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{ID: "resp-1", Text: p.text}, nil
}

func newTestServer(provider llm.Provider) *Server {
	a := analyzer.New(provider, nil, intel.New(intel.Config{Timeout: time.Second}), "gpt-test", config.AgentConfig{
		Enabled:         false,
		MaxTurns:        4,
		MaxOutputTokens: 512,
	})
	return New(config.Config{
		Server: config.ServerConfig{
			Port:       "0",
			RateLimit:  100,
			RateWindow: time.Minute,
		},
	}, a)
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func safeVerdict() string {
	return `{"riskLevel":"safe","headline":"h","hook":"k","trap":"t","recommendation":"r"}`
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&stubProvider{text: safeVerdict()})
	rec := doRequest(s, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandleAnalyzeTextRequest(t *testing.T) {
	s := newTestServer(&stubProvider{text: safeVerdict()})
	rec := doRequest(s, http.MethodPost, "/api/v1/analyze", `{"text":"is this a scam?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp apimodels.AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apimodels.RiskSafe, resp.Verdict.RiskLevel)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "fallback", resp.Metadata.Mode)
}

func TestHandleAnalyzeInvalidBody(t *testing.T) {
	s := newTestServer(&stubProvider{text: safeVerdict()})
	rec := doRequest(s, http.MethodPost, "/api/v1/analyze", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad_request")
}

func TestHandleAnalyzeEmptyRequest(t *testing.T) {
	s := newTestServer(&stubProvider{text: safeVerdict()})
	rec := doRequest(s, http.MethodPost, "/api/v1/analyze", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad_request")
}

// Private targets never reach the analyzer.
func TestHandleAnalyzeRejectsPrivateURL(t *testing.T) {
	s := newTestServer(&stubProvider{text: safeVerdict()})
	for _, u := range []string{
		"http://127.0.0.1:8080/admin",
		"http://169.254.169.254/latest/meta-data/",
		"ftp://example.com/file",
	} {
		rec := doRequest(s, http.MethodPost, "/api/v1/analyze", fmt.Sprintf(`{"url":%q}`, u))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "url %q", u)
		assert.Contains(t, rec.Body.String(), "url_rejected", "url %q", u)
	}
}

func TestHandleAnalyzeParseFailure(t *testing.T) {
	s := newTestServer(&stubProvider{text: "no structured verdict here"})
	rec := doRequest(s, http.MethodPost, "/api/v1/analyze", `{"text":"check this"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "parse_failure")
}

func TestHandleAnalyzeModelEndpointError(t *testing.T) {
	s := newTestServer(&stubProvider{err: fmt.Errorf("connection refused")})
	rec := doRequest(s, http.MethodPost, "/api/v1/analyze", `{"text":"check this"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "model_endpoint_error")
}
