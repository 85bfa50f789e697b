// Package intel performs the outbound network-intelligence lookups:
// DNS-over-HTTPS + GeoIP, RDAP/WHOIS registration data, and threat-list
// matching. Every lookup degrades to partial data on failure; nothing in
// this package aborts an analysis.
package intel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	userAgent    = "redflag-intel/1.0"
	maxBodyBytes = 1 << 20
)

// Client fans out to the external registries and threat databases. One
// instance is shared by all requests; the only mutable state is the
// populate-once RDAP bootstrap directory.
type Client struct {
	http      *http.Client
	cfg       Config
	bootstrap *bootstrapDirectory
}

// Config mirrors config.IntelConfig without importing it, so tests can
// construct clients directly.
type Config struct {
	DoHEndpoint          string
	GeoIPEndpoint        string
	GeoIPToken           string
	RDAPBootstrapURL     string
	WhoisAPIEndpoint     string
	WhoisAPIKey          string
	SafeBrowsingEndpoint string
	SafeBrowsingKey      string
	Timeout              time.Duration
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
		cfg:       cfg,
		bootstrap: &bootstrapDirectory{},
	}
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, out)
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: unexpected status %d", req.URL.Host, resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}
