package intel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SofiaKung/redflag/internal/evidence"
)

func TestHumanizeAgeBuckets(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago    time.Duration
		want   string
		bucket evidence.AgeBucket
	}{
		{30 * time.Minute, "0 hours", evidence.AgeHours},
		{1 * time.Hour, "1 hour", evidence.AgeHours},
		{5 * time.Hour, "5 hours", evidence.AgeHours},
		{25 * time.Hour, "1 day", evidence.AgeDays},
		{3 * 24 * time.Hour, "3 days", evidence.AgeDays},
		{8 * 24 * time.Hour, "1 week", evidence.AgeWeeks},
		{21 * 24 * time.Hour, "3 weeks", evidence.AgeWeeks},
		{45 * 24 * time.Hour, "1 month", evidence.AgeMonths},
		{200 * 24 * time.Hour, "6 months", evidence.AgeMonths},
		{400 * 24 * time.Hour, "1 year", evidence.AgeYears},
		{10 * 365 * 24 * time.Hour, "10 years", evidence.AgeYears},
	}
	for _, tt := range tests {
		got, bucket := humanizeAge(now.Add(-tt.ago), now)
		assert.Equal(t, tt.want, got, "age %v", tt.ago)
		assert.Equal(t, tt.bucket, bucket, "age %v", tt.ago)
	}
}

func TestHumanizeAgeFutureDateClampsToZero(t *testing.T) {
	now := time.Now()
	got, bucket := humanizeAge(now.Add(48*time.Hour), now)
	assert.Equal(t, "0 hours", got)
	assert.Equal(t, evidence.AgeHours, bucket)
}

func TestClassifyPrivacy(t *testing.T) {
	tests := []struct {
		contact evidence.Contact
		want    bool
	}{
		{evidence.Contact{Name: "Jane Owner", Organization: "Example Org Inc"}, false},
		{evidence.Contact{Name: "Privacy service provided by Withheld for Privacy ehf"}, true},
		{evidence.Contact{Organization: "Domains By Proxy, LLC"}, true},
		{evidence.Contact{Name: "REDACTED FOR PRIVACY"}, true},
		{evidence.Contact{Organization: "WhoisGuard, Inc."}, true},
		{evidence.Contact{Name: "Contact Privacy Inc. Customer 12345"}, true},
		{evidence.Contact{}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyPrivacy(tt.contact), "contact %+v", tt.contact)
	}
}

func TestParseWhoisDateLayouts(t *testing.T) {
	for _, s := range []string{
		"2023-01-15T09:30:00Z",
		"2023-01-15T09:30:00+0000",
		"2023-01-15 09:30:00",
		"2023-01-15",
	} {
		got, err := parseWhoisDate(s)
		assert.NoError(t, err, "input %q", s)
		assert.Equal(t, 2023, got.Year(), "input %q", s)
	}

	_, err := parseWhoisDate("15/01/2023")
	assert.Error(t, err)
}
