package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SofiaKung/redflag/internal/evidence"
)

func registrantVCard(name, org, country, email string) []any {
	return []any{"vcard", []any{
		[]any{"version", map[string]any{}, "text", "4.0"},
		[]any{"fn", map[string]any{}, "text", name},
		[]any{"org", map[string]any{}, "text", org},
		[]any{"adr", map[string]any{}, "text", []any{"", "", "1 Main St", "Springfield", "IL", "62701", country}},
		[]any{"email", map[string]any{}, "text", email},
		[]any{"tel", map[string]any{}, "uri", "tel:+1.5551234567"},
	}}
}

func writeBootstrap(w http.ResponseWriter, tld, base string) {
	json.NewEncoder(w).Encode(map[string]any{
		"services": []any{[]any{[]any{tld}, []any{base}}},
	})
}

func TestLookupRegistrationFromRegistry(t *testing.T) {
	mux := http.NewServeMux()
	var ts *httptest.Server
	mux.HandleFunc("/rdap-bootstrap.json", func(w http.ResponseWriter, r *http.Request) {
		writeBootstrap(w, "com", ts.URL+"/rdap")
	})
	mux.HandleFunc("/rdap/domain/example.com", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"events": []map[string]any{{"eventAction": "registration", "eventDate": "2014-08-01T00:00:00Z"}},
			"entities": []any{
				map[string]any{"roles": []string{"registrar"}, "vcardArray": []any{"vcard", []any{
					[]any{"fn", map[string]any{}, "text", "Example Registrar LLC"},
				}}},
				map[string]any{"roles": []string{"registrant"}, "vcardArray": registrantVCard("Jane Owner", "Example Org Inc", "US", "jane@example.com")},
			},
		})
	})
	ts = httptest.NewServer(mux)
	defer ts.Close()

	rec := newTestClient(ts).LookupRegistration(context.Background(), "example.com")
	require.NotNil(t, rec)
	assert.Equal(t, evidence.SourceRegistry, rec.Source)
	assert.Equal(t, "Example Registrar LLC", rec.Registrar)
	assert.Equal(t, "Jane Owner", rec.Registrant.Name)
	assert.Equal(t, "Example Org Inc", rec.Registrant.Organization)
	assert.Equal(t, "1 Main St", rec.Registrant.Street)
	assert.Equal(t, "US", rec.Registrant.Country)
	assert.Equal(t, "jane@example.com", rec.Registrant.Email)
	assert.Equal(t, "+1.5551234567", rec.Registrant.Telephone)
	require.NotNil(t, rec.CreatedAt)
	assert.Equal(t, evidence.AgeYears, rec.AgeBucket)
	assert.False(t, rec.PrivacyProtected)
}

func TestLookupRegistrationFollowsRegistrarReferral(t *testing.T) {
	mux := http.NewServeMux()
	var ts *httptest.Server
	mux.HandleFunc("/rdap-bootstrap.json", func(w http.ResponseWriter, r *http.Request) {
		writeBootstrap(w, "com", ts.URL+"/registry")
	})
	// Registry response: no registrant, no date, but a related referral link.
	mux.HandleFunc("/registry/domain/example.com", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"entities": []any{
				map[string]any{"roles": []string{"registrar"}, "vcardArray": []any{"vcard", []any{
					[]any{"fn", map[string]any{}, "text", "Example Registrar LLC"},
				}}},
			},
			"links": []map[string]any{
				{"rel": "self", "href": ts.URL + "/registry/domain/example.com"},
				{"rel": "related", "href": ts.URL + "/registrar/domain/example.com"},
			},
		})
	})
	mux.HandleFunc("/registrar/domain/example.com", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"events": []map[string]any{{"eventAction": "registration", "eventDate": "2023-01-15T09:30:00Z"}},
			"entities": []any{
				map[string]any{"roles": []string{"registrant"}, "vcardArray": registrantVCard("Sam Holder", "", "IS", "sam@holder.example")},
			},
		})
	})
	ts = httptest.NewServer(mux)
	defer ts.Close()

	rec := newTestClient(ts).LookupRegistration(context.Background(), "example.com")
	require.NotNil(t, rec)
	assert.Equal(t, evidence.SourceRegistrarReferral, rec.Source)
	assert.Equal(t, "Sam Holder", rec.Registrant.Name)
	assert.Equal(t, "IS", rec.Registrant.Country)
	// Registrar from the registry stage survives; the date is backfilled
	// from the referral.
	assert.Equal(t, "Example Registrar LLC", rec.Registrar)
	require.NotNil(t, rec.CreatedAt)
}

// When the registry already supplied a registrant, later sources must never
// overwrite it: the fallback WHOIS API is not even consulted.
func TestLookupRegistrationRegistryWinsOverFallback(t *testing.T) {
	mux := http.NewServeMux()
	var ts *httptest.Server
	mux.HandleFunc("/rdap-bootstrap.json", func(w http.ResponseWriter, r *http.Request) {
		writeBootstrap(w, "com", ts.URL+"/rdap")
	})
	mux.HandleFunc("/rdap/domain/example.com", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"entities": []any{
				map[string]any{"roles": []string{"registrant"}, "vcardArray": registrantVCard("Registry Owner", "", "US", "")},
			},
		})
	})
	mux.HandleFunc("/whois", func(w http.ResponseWriter, r *http.Request) {
		t.Error("WHOIS fallback must not be called when the registry supplied a registrant")
	})
	ts = httptest.NewServer(mux)
	defer ts.Close()

	client := New(Config{
		DoHEndpoint:      ts.URL + "/resolve",
		GeoIPEndpoint:    ts.URL + "/geo",
		RDAPBootstrapURL: ts.URL + "/rdap-bootstrap.json",
		WhoisAPIEndpoint: ts.URL + "/whois",
		WhoisAPIKey:      "test-key",
		Timeout:          2 * time.Second,
	})
	rec := client.LookupRegistration(context.Background(), "example.com")
	require.NotNil(t, rec)
	assert.Equal(t, "Registry Owner", rec.Registrant.Name)
	assert.Equal(t, evidence.SourceRegistry, rec.Source)
}

func TestLookupRegistrationWhoisFallback(t *testing.T) {
	mux := http.NewServeMux()
	var ts *httptest.Server
	mux.HandleFunc("/rdap-bootstrap.json", func(w http.ResponseWriter, r *http.Request) {
		writeBootstrap(w, "com", ts.URL+"/rdap")
	})
	mux.HandleFunc("/rdap/domain/newscam.com", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/whois", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		assert.Equal(t, "newscam.com", r.URL.Query().Get("domainName"))
		created := time.Now().Add(-72 * time.Hour).UTC().Format(time.RFC3339)
		fmt.Fprintf(w, `{"WhoisRecord":{"createdDate":%q,"registrarName":"Cheap Domains Inc",
			"registrant":{"name":"Privacy service provided by Withheld for Privacy ehf","country":"IS","email":"abc@withheldforprivacy.com"}}}`, created)
	})
	ts = httptest.NewServer(mux)
	defer ts.Close()

	client := New(Config{
		DoHEndpoint:      ts.URL + "/resolve",
		GeoIPEndpoint:    ts.URL + "/geo",
		RDAPBootstrapURL: ts.URL + "/rdap-bootstrap.json",
		WhoisAPIEndpoint: ts.URL + "/whois",
		WhoisAPIKey:      "test-key",
		Timeout:          2 * time.Second,
	})
	rec := client.LookupRegistration(context.Background(), "newscam.com")
	require.NotNil(t, rec)
	assert.Equal(t, evidence.SourceWhoisFallback, rec.Source)
	assert.Equal(t, "Cheap Domains Inc", rec.Registrar)
	assert.True(t, rec.PrivacyProtected)
	assert.Equal(t, "3 days", rec.DomainAge)
	assert.Equal(t, evidence.AgeDays, rec.AgeBucket)
}

func TestLookupRegistrationNoDataReturnsNil(t *testing.T) {
	mux := http.NewServeMux()
	var ts *httptest.Server
	mux.HandleFunc("/rdap-bootstrap.json", func(w http.ResponseWriter, r *http.Request) {
		writeBootstrap(w, "com", ts.URL+"/rdap")
	})
	mux.HandleFunc("/rdap/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	ts = httptest.NewServer(mux)
	defer ts.Close()

	rec := newTestClient(ts).LookupRegistration(context.Background(), "gone.com")
	assert.Nil(t, rec)
}

// The bootstrap directory is fetched once and reused for later lookups.
func TestBootstrapDirectoryFetchedOnce(t *testing.T) {
	bootstrapCalls := 0
	mux := http.NewServeMux()
	var ts *httptest.Server
	mux.HandleFunc("/rdap-bootstrap.json", func(w http.ResponseWriter, r *http.Request) {
		bootstrapCalls++
		writeBootstrap(w, "com", ts.URL+"/rdap")
	})
	mux.HandleFunc("/rdap/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	ts = httptest.NewServer(mux)
	defer ts.Close()

	client := newTestClient(ts)
	client.LookupRegistration(context.Background(), "one.com")
	client.LookupRegistration(context.Background(), "two.com")
	assert.Equal(t, 1, bootstrapCalls)
}
