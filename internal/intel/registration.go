package intel

import (
	"fmt"
	"strings"
	"time"

	"github.com/SofiaKung/redflag/internal/evidence"
)

// Registrant names/organizations matching any of these mark the registration
// as privacy-protected.
var privacyKeywords = []string{
	"privacy",
	"proxy",
	"withheld",
	"redacted",
	"domains by proxy",
	"whoisguard",
	"identity protect",
	"data protected",
	"contact privacy",
	"anonymous",
}

func classifyPrivacy(contact evidence.Contact) bool {
	identity := strings.ToLower(contact.Organization + " " + contact.Name)
	for _, kw := range privacyKeywords {
		if strings.Contains(identity, kw) {
			return true
		}
	}
	return false
}

// humanizeAge renders the registration age at bucketed granularity:
// hours (<24h), days (<7d), weeks (<30d), months (<12mo), years.
func humanizeAge(created, now time.Time) (string, evidence.AgeBucket) {
	d := now.Sub(created)
	if d < 0 {
		d = 0
	}
	switch {
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour"), evidence.AgeHours
	case d < 7*24*time.Hour:
		return plural(int(d.Hours()/24), "day"), evidence.AgeDays
	case d < 30*24*time.Hour:
		return plural(int(d.Hours()/24/7), "week"), evidence.AgeWeeks
	case d < 365*24*time.Hour:
		return plural(int(d.Hours()/24/30), "month"), evidence.AgeMonths
	default:
		return plural(int(d.Hours()/24/365), "year"), evidence.AgeYears
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
