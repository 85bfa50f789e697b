package evidence

import "time"

// Check names used in the completed/failed lists.
const (
	CheckDNS          = "dns"
	CheckGeoIP        = "geoip"
	CheckRDAP         = "rdap"
	CheckWhois        = "whois"
	CheckSafeBrowsing = "safe_browsing"
	CheckHomograph    = "homograph"
)

// RegistrationSource identifies which lookup stage supplied the registrant data.
type RegistrationSource string

const (
	SourceRegistry          RegistrationSource = "registry"
	SourceRegistrarReferral RegistrationSource = "registrar_referral"
	SourceWhoisFallback     RegistrationSource = "whois_fallback"
)

// AgeBucket is the coarse granularity of a domain's registration age.
type AgeBucket string

const (
	AgeHours  AgeBucket = "hours"
	AgeDays   AgeBucket = "days"
	AgeWeeks  AgeBucket = "weeks"
	AgeMonths AgeBucket = "months"
	AgeYears  AgeBucket = "years"
)

// NetworkRecord is the DNS + GeoIP view of the analyzed hostname.
// Success reports DNS resolution only; geo fields stay empty when the
// GeoIP step failed or was never attempted.
type NetworkRecord struct {
	IP            string `json:"ip,omitempty"`
	ServerCountry string `json:"serverCountry,omitempty"`
	ServerCity    string `json:"serverCity,omitempty"`
	ISP           string `json:"isp,omitempty"`
	Success       bool   `json:"success"`
}

// Contact holds the structured registrant fields parsed from RDAP vCards
// or the WHOIS fallback.
type Contact struct {
	Name         string `json:"name,omitempty"`
	Organization string `json:"organization,omitempty"`
	Street       string `json:"street,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	Country      string `json:"country,omitempty"`
	Email        string `json:"email,omitempty"`
	Telephone    string `json:"telephone,omitempty"`
}

// Identity reports whether the contact carries a usable registrant identity.
func (c Contact) Identity() bool {
	return c.Name != "" || c.Organization != ""
}

// RegistrationRecord is the merged registration metadata for a domain.
type RegistrationRecord struct {
	CreatedAt        *time.Time         `json:"createdAt,omitempty"`
	DomainAge        string             `json:"domainAge,omitempty"`
	AgeBucket        AgeBucket          `json:"ageBucket,omitempty"`
	Registrar        string             `json:"registrar,omitempty"`
	Registrant       Contact            `json:"registrant"`
	PrivacyProtected bool               `json:"privacyProtected"`
	Source           RegistrationSource `json:"source,omitempty"`
}

// FillFrom merges src into r with fill-gaps-only semantics: fields already
// populated are never overwritten by a later, lower-priority source. The
// provenance tag is set to origin only when src supplies the first non-empty
// registrant identity.
func (r *RegistrationRecord) FillFrom(src *RegistrationRecord, origin RegistrationSource) {
	if src == nil {
		return
	}
	if !r.Registrant.Identity() && src.Registrant.Identity() {
		r.Source = origin
	}
	if r.CreatedAt == nil {
		r.CreatedAt = src.CreatedAt
	}
	fillString(&r.Registrar, src.Registrar)
	fillString(&r.Registrant.Name, src.Registrant.Name)
	fillString(&r.Registrant.Organization, src.Registrant.Organization)
	fillString(&r.Registrant.Street, src.Registrant.Street)
	fillString(&r.Registrant.City, src.Registrant.City)
	fillString(&r.Registrant.State, src.Registrant.State)
	fillString(&r.Registrant.PostalCode, src.Registrant.PostalCode)
	fillString(&r.Registrant.Country, src.Registrant.Country)
	fillString(&r.Registrant.Email, src.Registrant.Email)
	fillString(&r.Registrant.Telephone, src.Registrant.Telephone)
}

// Empty reports whether the record carries no useful data at all.
func (r *RegistrationRecord) Empty() bool {
	return r.CreatedAt == nil && r.Registrar == "" && !r.Registrant.Identity()
}

func fillString(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

// ThreatRecord is the threat-list check outcome. Success distinguishes
// "checked, clean" from "check failed".
type ThreatRecord struct {
	Threats []string `json:"threats"`
	Success bool     `json:"success"`
}

// HomographRecord carries the four independent hostname-spoofing flags.
type HomographRecord struct {
	Punycode    bool `json:"punycode"`
	Confusable  bool `json:"confusable"`
	ZeroWidth   bool `json:"zeroWidth"`
	MixedScript bool `json:"mixedScript"`
	IsHomograph bool `json:"isHomograph"`
}
