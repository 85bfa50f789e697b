package intel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSafeBrowsingClient(ts *httptest.Server, key string) *Client {
	return New(Config{
		DoHEndpoint:          ts.URL + "/resolve",
		GeoIPEndpoint:        ts.URL + "/geo",
		RDAPBootstrapURL:     ts.URL + "/rdap-bootstrap.json",
		SafeBrowsingEndpoint: ts.URL + "/v4/threatMatches:find",
		SafeBrowsingKey:      key,
		Timeout:              2 * time.Second,
	})
}

func TestCheckSafeBrowsingNoKeyConfigured(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without an API key")
	}))
	defer ts.Close()

	rec := newSafeBrowsingClient(ts, "").CheckSafeBrowsing(context.Background(), "https://example.com")
	assert.False(t, rec.Success)
	assert.Empty(t, rec.Threats)
	assert.NotNil(t, rec.Threats)
}

func TestCheckSafeBrowsingCleanURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req safeBrowsingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, threatTypes, req.ThreatInfo.ThreatTypes)
		assert.Equal(t, []string{"ANY_PLATFORM"}, req.ThreatInfo.PlatformTypes)
		require.Len(t, req.ThreatInfo.ThreatEntries, 1)
		assert.Equal(t, "https://example.com", req.ThreatInfo.ThreatEntries[0].URL)

		// An empty object means no matches.
		w.Write([]byte("{}"))
	}))
	defer ts.Close()

	rec := newSafeBrowsingClient(ts, "test-key").CheckSafeBrowsing(context.Background(), "https://example.com")
	assert.True(t, rec.Success)
	assert.Empty(t, rec.Threats)
}

func TestCheckSafeBrowsingMatchesDeduplicated(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"matches": []map[string]any{
				{"threatType": "SOCIAL_ENGINEERING"},
				{"threatType": "MALWARE"},
				{"threatType": "SOCIAL_ENGINEERING"},
			},
		})
	}))
	defer ts.Close()

	rec := newSafeBrowsingClient(ts, "test-key").CheckSafeBrowsing(context.Background(), "https://bad.example")
	assert.True(t, rec.Success)
	assert.ElementsMatch(t, []string{"SOCIAL_ENGINEERING", "MALWARE"}, rec.Threats)
}

func TestCheckSafeBrowsingServerErrorNotSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer ts.Close()

	rec := newSafeBrowsingClient(ts, "test-key").CheckSafeBrowsing(context.Background(), "https://example.com")
	assert.False(t, rec.Success)
	assert.Empty(t, rec.Threats)
}
