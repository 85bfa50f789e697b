package domainutil

import (
	"strings"

	"golang.org/x/net/idna"

	"github.com/SofiaKung/redflag/internal/evidence"
)

var zeroWidthRunes = map[rune]bool{
	'\u200b': true, // zero width space
	'\u200c': true, // zero width non-joiner
	'\u200d': true, // zero width joiner
	'\u2060': true, // word joiner
	'\ufeff': true, // zero width no-break space
}

// DetectHomograph classifies a hostname for spoofing indicators. Punycode
// labels are decoded first so confusable and mixed-script checks see the
// Unicode form the user would be shown.
func DetectHomograph(host string) evidence.HomographRecord {
	h := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
	rec := evidence.HomographRecord{}

	for _, label := range strings.Split(h, ".") {
		if strings.HasPrefix(label, "xn--") {
			rec.Punycode = true
			break
		}
	}

	display := h
	if rec.Punycode {
		if decoded, err := idna.Lookup.ToUnicode(h); err == nil {
			display = decoded
		}
	}

	var hasASCIILetter, hasNonASCII bool
	for _, r := range display {
		switch {
		case zeroWidthRunes[r]:
			rec.ZeroWidth = true
		case isConfusableScript(r):
			rec.Confusable = true
			hasNonASCII = true
		case r > 127:
			hasNonASCII = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasASCIILetter = true
		}
	}
	rec.MixedScript = hasASCIILetter && hasNonASCII

	rec.IsHomograph = rec.Punycode || rec.Confusable || rec.ZeroWidth || rec.MixedScript
	return rec
}

// isConfusableScript reports whether r belongs to a script range commonly
// abused for Latin look-alikes.
func isConfusableScript(r rune) bool {
	switch {
	case r >= 0x0400 && r <= 0x04FF: // Cyrillic
		return true
	case r >= 0x0500 && r <= 0x052F: // Cyrillic supplement
		return true
	case r >= 0x0370 && r <= 0x03FF: // Greek
		return true
	case r >= 0x2DE0 && r <= 0x2DFF: // Cyrillic extended-A
		return true
	default:
		return false
	}
}
