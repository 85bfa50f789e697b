package intel

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/SofiaKung/redflag/internal/evidence"
)

var threatTypes = []string{
	"MALWARE",
	"SOCIAL_ENGINEERING",
	"UNWANTED_SOFTWARE",
	"POTENTIALLY_HARMFUL_APPLICATION",
}

type safeBrowsingRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo struct {
		ThreatTypes      []string `json:"threatTypes"`
		PlatformTypes    []string `json:"platformTypes"`
		ThreatEntryTypes []string `json:"threatEntryTypes"`
		ThreatEntries    []struct {
			URL string `json:"url"`
		} `json:"threatEntries"`
	} `json:"threatInfo"`
}

type safeBrowsingResponse struct {
	Matches []struct {
		ThreatType string `json:"threatType"`
	} `json:"matches"`
}

// CheckSafeBrowsing submits rawURL to the threat-matching API. A missing API
// key is a configuration state, not an error: the record comes back with
// Success false and no threats.
func (c *Client) CheckSafeBrowsing(ctx context.Context, rawURL string) evidence.ThreatRecord {
	rec := evidence.ThreatRecord{Threats: []string{}}
	if c.cfg.SafeBrowsingKey == "" {
		slog.Warn("Safe Browsing check skipped: no API key configured")
		return rec
	}

	var req safeBrowsingRequest
	req.Client.ClientID = "redflag"
	req.Client.ClientVersion = "1.0"
	req.ThreatInfo.ThreatTypes = threatTypes
	req.ThreatInfo.PlatformTypes = []string{"ANY_PLATFORM"}
	req.ThreatInfo.ThreatEntryTypes = []string{"URL"}
	req.ThreatInfo.ThreatEntries = []struct {
		URL string `json:"url"`
	}{{URL: rawURL}}

	endpoint := fmt.Sprintf("%s?key=%s", c.cfg.SafeBrowsingEndpoint, url.QueryEscape(c.cfg.SafeBrowsingKey))
	var resp safeBrowsingResponse
	if err := c.postJSON(ctx, endpoint, req, &resp); err != nil {
		slog.Warn("Safe Browsing check failed", "error", err)
		return rec
	}

	seen := map[string]bool{}
	for _, m := range resp.Matches {
		if !seen[m.ThreatType] {
			seen[m.ThreatType] = true
			rec.Threats = append(rec.Threats, m.ThreatType)
		}
	}
	rec.Success = true
	slog.Info("Safe Browsing check completed", "matches", len(rec.Threats))
	return rec
}
