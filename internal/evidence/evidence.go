// Package evidence defines the normalized records produced by the
// intelligence lookups and merges them into one source-attributed
// structure per analysis request.
package evidence

import (
	"fmt"
	"strings"
)

// Severity of the derived geo-mismatch signal.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

var severityRank = map[Severity]int{
	SeverityNone:   0,
	SeverityLow:    1,
	SeverityMedium: 2,
	SeverityHigh:   3,
}

func maxSeverity(a, b Severity) Severity {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

func escalate(s Severity) Severity {
	switch s {
	case SeverityNone, SeverityLow:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// GeoMismatch is a derived risk signal, never produced by a lookup directly.
type GeoMismatch struct {
	Detected bool     `json:"detected"`
	Severity Severity `json:"severity"`
	Details  []string `json:"details,omitempty"`
}

// VerifiedEvidence is the merged union of all lookup outputs for one
// analysis request. Created fresh per request, never persisted.
type VerifiedEvidence struct {
	Network         *NetworkRecord      `json:"network,omitempty"`
	Registration    *RegistrationRecord `json:"registration,omitempty"`
	Threats         *ThreatRecord       `json:"threats,omitempty"`
	Homograph       *HomographRecord    `json:"homograph,omitempty"`
	GeoMismatch     GeoMismatch         `json:"geoMismatch"`
	ChecksCompleted []string            `json:"checksCompleted"`
	ChecksFailed    []string            `json:"checksFailed"`
}

// Email domains used by privacy-proxy services; a registrant email on one of
// these says nothing about the real registrant.
var privacyEmailDomains = map[string]bool{
	"domainsbyproxy.com":       true,
	"whoisguard.com":           true,
	"withheldforprivacy.com":   true,
	"privacyprotect.org":       true,
	"contactprivacy.com":       true,
	"whoisprivacyprotect.com":  true,
	"privacyguardian.org":      true,
	"anonymised.email":         true,
	"identity-protection.org":  true,
	"registrant-protection.cc": true,
}

// Merge builds the VerifiedEvidence for one request. domain is the analyzed
// registrable domain, used for the registrant-email comparison. Nil inputs
// mean the corresponding check produced no record and are listed as failed.
func Merge(domain string, network *NetworkRecord, registration *RegistrationRecord, threats *ThreatRecord, homograph *HomographRecord) *VerifiedEvidence {
	ev := &VerifiedEvidence{
		Network:         network,
		Registration:    registration,
		Threats:         threats,
		Homograph:       homograph,
		ChecksCompleted: []string{},
		ChecksFailed:    []string{},
	}

	if network != nil && network.Success {
		ev.complete(CheckDNS)
		if network.ServerCountry != "" || network.ServerCity != "" || network.ISP != "" {
			ev.complete(CheckGeoIP)
		} else {
			ev.fail(CheckGeoIP)
		}
	} else {
		ev.fail(CheckDNS)
		ev.fail(CheckGeoIP)
	}

	switch {
	case registration == nil:
		ev.fail(CheckRDAP)
	case registration.Source == SourceWhoisFallback:
		ev.complete(CheckWhois)
	default:
		ev.complete(CheckRDAP)
	}

	if threats != nil && threats.Success {
		ev.complete(CheckSafeBrowsing)
	} else {
		ev.fail(CheckSafeBrowsing)
	}

	if homograph != nil {
		ev.complete(CheckHomograph)
	} else {
		ev.fail(CheckHomograph)
	}

	ev.GeoMismatch = computeGeoMismatch(domain, network, registration)
	return ev
}

// computeGeoMismatch applies the scoring rules in order. Severity only ever
// ratchets upward as signals are added. The two-signal escalation counts only
// signals whose own severity is medium or above; a low plus a medium does not
// escalate.
func computeGeoMismatch(domain string, network *NetworkRecord, registration *RegistrationRecord) GeoMismatch {
	gm := GeoMismatch{Severity: SeverityNone}
	if registration == nil {
		return gm
	}

	mediumSignals := 0

	regCountry := normalizeCountry(registration.Registrant.Country)
	srvCountry := ""
	if network != nil {
		srvCountry = normalizeCountry(network.ServerCountry)
	}
	if regCountry != "" && srvCountry != "" && regCountry != srvCountry {
		gm.Severity = maxSeverity(gm.Severity, SeverityMedium)
		gm.Details = append(gm.Details, fmt.Sprintf(
			"registrant country %q does not match server country %q",
			registration.Registrant.Country, network.ServerCountry))
		mediumSignals++
	}

	if emailDomain := emailDomain(registration.Registrant.Email); emailDomain != "" &&
		!privacyEmailDomains[emailDomain] && domain != "" && emailDomain != strings.ToLower(domain) {
		gm.Severity = maxSeverity(gm.Severity, SeverityLow)
		gm.Details = append(gm.Details, fmt.Sprintf(
			"registrant email domain %q differs from analyzed domain %q", emailDomain, domain))
	}

	if registration.PrivacyProtected && youngBucket(registration.AgeBucket) {
		if gm.Severity == SeverityNone {
			gm.Severity = SeverityMedium
		} else {
			gm.Severity = escalate(gm.Severity)
		}
		gm.Details = append(gm.Details, fmt.Sprintf(
			"privacy-protected registration only %s old", registration.DomainAge))
		mediumSignals++
	}

	if mediumSignals >= 2 {
		gm.Severity = SeverityHigh
	}

	gm.Detected = len(gm.Details) > 0
	return gm
}

func youngBucket(b AgeBucket) bool {
	return b == AgeHours || b == AgeDays || b == AgeWeeks
}

func normalizeCountry(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

func (ev *VerifiedEvidence) complete(check string) {
	ev.ChecksCompleted = append(ev.ChecksCompleted, check)
}

func (ev *VerifiedEvidence) fail(check string) {
	ev.ChecksFailed = append(ev.ChecksFailed, check)
}
