package intel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SofiaKung/redflag/internal/evidence"
)

// bootstrapDirectory maps a top-level label to its authoritative RDAP base
// URL, from the IANA bootstrap file. Populated at most once per process and
// read-only afterwards; a duplicate fetch on a first-use race is harmless.
type bootstrapDirectory struct {
	mu       sync.RWMutex
	services map[string]string
}

type ianaBootstrap struct {
	Services [][][]string `json:"services"`
}

func (c *Client) bootstrapBaseURL(ctx context.Context, tld string) (string, error) {
	c.bootstrap.mu.RLock()
	services := c.bootstrap.services
	c.bootstrap.mu.RUnlock()

	if services == nil {
		var doc ianaBootstrap
		if err := c.getJSON(ctx, c.cfg.RDAPBootstrapURL, &doc); err != nil {
			return "", fmt.Errorf("rdap bootstrap fetch: %w", err)
		}
		services = make(map[string]string)
		for _, svc := range doc.Services {
			if len(svc) < 2 || len(svc[1]) == 0 {
				continue
			}
			for _, label := range svc[0] {
				services[strings.ToLower(label)] = svc[1][0]
			}
		}
		c.bootstrap.mu.Lock()
		c.bootstrap.services = services
		c.bootstrap.mu.Unlock()
		slog.Info("RDAP bootstrap directory loaded", "tlds", len(services))
	}

	base, ok := services[strings.ToLower(tld)]
	if !ok {
		return "", fmt.Errorf("no RDAP server registered for TLD %q", tld)
	}
	return base, nil
}

type rdapDomain struct {
	Events []struct {
		EventAction string `json:"eventAction"`
		EventDate   string `json:"eventDate"`
	} `json:"events"`
	Entities []rdapEntity `json:"entities"`
	Links    []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
	ErrorCode int `json:"errorCode"`
}

type rdapEntity struct {
	Roles      []string     `json:"roles"`
	Handle     string       `json:"handle"`
	VCardArray []any        `json:"vcardArray"`
	Entities   []rdapEntity `json:"entities"`
}

// LookupRegistration runs the RDAP pipeline: bootstrap → registry → registrar
// referral → WHOIS fallback, merging each stage with fill-gaps-only priority.
// Returns nil when no stage produced any data.
func (c *Client) LookupRegistration(ctx context.Context, domain string) *evidence.RegistrationRecord {
	rec := &evidence.RegistrationRecord{}

	labels := strings.Split(domain, ".")
	tld := labels[len(labels)-1]

	base, err := c.bootstrapBaseURL(ctx, tld)
	if err != nil {
		slog.Warn("RDAP bootstrap resolution failed", "domain", domain, "error", err)
	} else {
		registry, referralHref := c.rdapQuery(ctx, base, domain)
		rec.FillFrom(registry, evidence.SourceRegistry)

		if !rec.Registrant.Identity() && referralHref != "" {
			referral, _ := c.rdapFetch(ctx, referralHref)
			rec.FillFrom(referral, evidence.SourceRegistrarReferral)
		}
	}

	unregisteredLooking := false
	if !rec.Registrant.Identity() && c.cfg.WhoisAPIKey != "" {
		var whois *evidence.RegistrationRecord
		whois, unregisteredLooking = c.whoisFallback(ctx, domain)
		rec.FillFrom(whois, evidence.SourceWhoisFallback)
	}

	if rec.Empty() && !unregisteredLooking {
		return nil
	}

	rec.PrivacyProtected = classifyPrivacy(rec.Registrant) || unregisteredLooking
	if rec.CreatedAt != nil {
		rec.DomainAge, rec.AgeBucket = humanizeAge(*rec.CreatedAt, time.Now())
	}
	return rec
}

// rdapQuery fetches base/domain/<domain> and returns the parsed record plus
// the registrar referral href, if the registry published one.
func (c *Client) rdapQuery(ctx context.Context, base, domain string) (*evidence.RegistrationRecord, string) {
	u := fmt.Sprintf("%s/domain/%s", strings.TrimRight(base, "/"), domain)
	rec, referral := c.rdapFetch(ctx, u)
	return rec, referral
}

func (c *Client) rdapFetch(ctx context.Context, u string) (*evidence.RegistrationRecord, string) {
	slog.Info("RDAP lookup", "url", u)
	var doc rdapDomain
	if err := c.getJSON(ctx, u, &doc); err != nil {
		slog.Warn("RDAP lookup failed", "url", u, "error", err)
		return nil, ""
	}
	if doc.ErrorCode != 0 {
		slog.Warn("RDAP error response", "url", u, "code", doc.ErrorCode)
		return nil, ""
	}

	rec := &evidence.RegistrationRecord{}
	for _, ev := range doc.Events {
		if ev.EventAction == "registration" {
			if t, err := time.Parse(time.RFC3339, ev.EventDate); err == nil {
				rec.CreatedAt = &t
			}
			break
		}
	}
	rec.Registrar = findEntityName(doc.Entities, "registrar")
	if registrant := findEntity(doc.Entities, "registrant"); registrant != nil {
		rec.Registrant = contactFromVCard(registrant.VCardArray)
	}

	var referral string
	for _, l := range doc.Links {
		if l.Rel == "related" && strings.Contains(l.Href, "/domain/") {
			referral = l.Href
			break
		}
	}
	return rec, referral
}

func findEntity(entities []rdapEntity, role string) *rdapEntity {
	for i := range entities {
		for _, r := range entities[i].Roles {
			if strings.EqualFold(r, role) {
				return &entities[i]
			}
		}
		if sub := findEntity(entities[i].Entities, role); sub != nil {
			return sub
		}
	}
	return nil
}

func findEntityName(entities []rdapEntity, role string) string {
	e := findEntity(entities, role)
	if e == nil {
		return ""
	}
	contact := contactFromVCard(e.VCardArray)
	if contact.Name != "" {
		return contact.Name
	}
	if contact.Organization != "" {
		return contact.Organization
	}
	return e.Handle
}

// contactFromVCard parses a jCard ["vcard", [[prop, params, type, value] ...]]
// array into structured contact fields. Unknown or malformed items are
// skipped silently.
func contactFromVCard(vcard []any) evidence.Contact {
	var contact evidence.Contact
	if len(vcard) != 2 {
		return contact
	}
	items, ok := vcard[1].([]any)
	if !ok {
		return contact
	}
	for _, item := range items {
		entry, ok := item.([]any)
		if !ok || len(entry) < 4 {
			continue
		}
		prop, _ := entry[0].(string)
		switch strings.ToLower(prop) {
		case "fn":
			contact.Name, _ = entry[3].(string)
		case "org":
			contact.Organization, _ = entry[3].(string)
		case "email":
			contact.Email, _ = entry[3].(string)
		case "tel":
			if v, ok := entry[3].(string); ok {
				contact.Telephone = strings.TrimPrefix(v, "tel:")
			}
		case "adr":
			// jCard address value: [pobox, ext, street, city, state, postal, country]
			parts, ok := entry[3].([]any)
			if !ok || len(parts) < 7 {
				continue
			}
			contact.Street = joinAddressPart(parts[2])
			contact.City = joinAddressPart(parts[3])
			contact.State = joinAddressPart(parts[4])
			contact.PostalCode = joinAddressPart(parts[5])
			contact.Country = joinAddressPart(parts[6])
		}
	}
	return contact
}

// joinAddressPart handles jCard address components that may be either a
// string or an array of strings.
func joinAddressPart(v any) string {
	switch p := v.(type) {
	case string:
		return p
	case []any:
		var parts []string
		for _, e := range p {
			if s, ok := e.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
