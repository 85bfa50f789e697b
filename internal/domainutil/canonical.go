// Package domainutil holds pure hostname classifiers: registrable-domain
// reduction and homograph detection. No I/O.
package domainutil

import (
	"net"
	"strings"
)

// Known multi-part public suffixes. This is a hand-maintained exception list,
// not the full public-suffix list: ccTLD patterns missing from it will be
// reduced to two labels even when three would be correct.
var multiPartSuffixes = map[string]bool{
	"co.uk": true, "org.uk": true, "ac.uk": true, "gov.uk": true, "me.uk": true,
	"co.jp": true, "ne.jp": true, "or.jp": true, "ac.jp": true,
	"com.au": true, "net.au": true, "org.au": true, "edu.au": true,
	"co.nz": true, "org.nz": true, "net.nz": true,
	"com.sg": true, "com.my": true, "com.hk": true, "com.tw": true,
	"co.id": true, "com.br": true, "com.mx": true, "com.ar": true,
	"co.za": true, "com.tr": true, "co.kr": true, "com.cn": true,
	"co.in": true, "co.th": true, "com.vn": true, "com.ph": true,
}

// CanonicalDomain reduces host to its registrable domain. IP literals and
// hosts with two or fewer labels come back unchanged apart from lower-casing
// and trailing-dot removal.
func CanonicalDomain(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	h = strings.TrimSuffix(h, ".")
	if h == "" {
		return h
	}
	if ip := net.ParseIP(strings.Trim(h, "[]")); ip != nil {
		return h
	}
	labels := strings.Split(h, ".")
	if len(labels) <= 2 {
		return h
	}
	lastTwo := strings.Join(labels[len(labels)-2:], ".")
	if multiPartSuffixes[lastTwo] {
		return strings.Join(labels[len(labels)-3:], ".")
	}
	return lastTwo
}
