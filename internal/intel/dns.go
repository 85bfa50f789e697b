package intel

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/SofiaKung/redflag/internal/evidence"
)

type dohResponse struct {
	Status int `json:"Status"`
	Answer []struct {
		Name string `json:"name"`
		Type int    `json:"type"`
		Data string `json:"data"`
	} `json:"Answer"`
}

type geoIPResponse struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Country string `json:"country"`
	Org     string `json:"org"`
	Bogon   bool   `json:"bogon"`
}

// ResolveNetwork resolves host to an A record over DNS-over-HTTPS, then maps
// the IP through the GeoIP service. GeoIP is never attempted when DNS fails;
// a failed GeoIP step still returns the IP with Success true, since the IP
// alone is usable evidence.
func (c *Client) ResolveNetwork(ctx context.Context, host string) evidence.NetworkRecord {
	rec := evidence.NetworkRecord{}

	q := fmt.Sprintf("%s?name=%s&type=A", c.cfg.DoHEndpoint, url.QueryEscape(host))
	var doh dohResponse
	if err := c.getJSON(ctx, q, &doh); err != nil {
		slog.Warn("DoH query failed", "host", host, "error", err)
		return rec
	}

	var ip string
	for _, a := range doh.Answer {
		if a.Type == 1 { // A record
			ip = a.Data
			break
		}
	}
	if doh.Status != 0 || ip == "" {
		slog.Warn("DoH query returned no A record", "host", host, "status", doh.Status)
		return rec
	}
	rec.IP = ip
	rec.Success = true

	geoURL := fmt.Sprintf("%s/%s/json", strings.TrimRight(c.cfg.GeoIPEndpoint, "/"), ip)
	if c.cfg.GeoIPToken != "" {
		geoURL += "?token=" + url.QueryEscape(c.cfg.GeoIPToken)
	}
	var geo geoIPResponse
	if err := c.getJSON(ctx, geoURL, &geo); err != nil {
		slog.Warn("GeoIP lookup failed", "ip", ip, "error", err)
		return rec
	}
	rec.ServerCountry = geo.Country
	rec.ServerCity = geo.City
	rec.ISP = geo.Org

	slog.Info("network resolved", "host", host, "ip", ip, "country", geo.Country, "org", geo.Org)
	return rec
}
