package intel

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/SofiaKung/redflag/internal/evidence"
)

type whoisAPIResponse struct {
	WhoisRecord struct {
		CreatedDate   string `json:"createdDate"`
		RegistrarName string `json:"registrarName"`
		DataError     string `json:"dataError"`
		Registrant    struct {
			Name         string `json:"name"`
			Organization string `json:"organization"`
			Street1      string `json:"street1"`
			City         string `json:"city"`
			State        string `json:"state"`
			PostalCode   string `json:"postalCode"`
			Country      string `json:"country"`
			Email        string `json:"email"`
			Telephone    string `json:"telephone"`
		} `json:"registrant"`
	} `json:"WhoisRecord"`
}

// whoisFallback queries the paid WHOIS API and maps its fields into the
// registration shape. The second return reports whether the provider flagged
// the domain as unregistered-looking.
func (c *Client) whoisFallback(ctx context.Context, domain string) (*evidence.RegistrationRecord, bool) {
	u := fmt.Sprintf("%s?apiKey=%s&domainName=%s&outputFormat=JSON",
		c.cfg.WhoisAPIEndpoint, url.QueryEscape(c.cfg.WhoisAPIKey), url.QueryEscape(domain))

	var resp whoisAPIResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		slog.Warn("WHOIS fallback failed", "domain", domain, "error", err)
		return nil, false
	}

	wr := resp.WhoisRecord
	if wr.DataError == "MISSING_WHOIS_DATA" {
		slog.Warn("WHOIS fallback reports missing data", "domain", domain)
		return nil, true
	}

	rec := &evidence.RegistrationRecord{
		Registrar: wr.RegistrarName,
		Registrant: evidence.Contact{
			Name:         wr.Registrant.Name,
			Organization: wr.Registrant.Organization,
			Street:       wr.Registrant.Street1,
			City:         wr.Registrant.City,
			State:        wr.Registrant.State,
			PostalCode:   wr.Registrant.PostalCode,
			Country:      wr.Registrant.Country,
			Email:        wr.Registrant.Email,
			Telephone:    wr.Registrant.Telephone,
		},
	}
	if wr.CreatedDate != "" {
		if t, err := parseWhoisDate(wr.CreatedDate); err == nil {
			rec.CreatedAt = &t
		}
	}
	return rec, false
}

func parseWhoisDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized WHOIS date %q", s)
}
