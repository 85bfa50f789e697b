// Package urlguard validates user-supplied URLs before any lookup or
// preview path dereferences them. It is the SSRF gate the analysis core
// requires from its caller.
package urlguard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

var (
	ErrDisallowedScheme = errors.New("URL scheme not allowed")
	ErrCredentialedURL  = errors.New("URL carries credentials")
	ErrMissingHost      = errors.New("URL has no host")
	ErrPrivateTarget    = errors.New("URL targets a private or reserved address")
	ErrUnresolvable     = errors.New("URL host does not resolve")
)

var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
}

// Resolver allows tests to substitute DNS resolution.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Validate parses raw, enforces the scheme allow-list, rejects credentialed
// URLs and private/loopback/link-local targets (including after DNS
// resolution), and returns the normalized URL string.
func Validate(ctx context.Context, raw string) (string, error) {
	return validate(ctx, raw, net.DefaultResolver)
}

func validate(ctx context.Context, raw string, resolver Resolver) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if !allowedSchemes[u.Scheme] {
		return "", fmt.Errorf("%w: %q", ErrDisallowedScheme, u.Scheme)
	}
	if u.User != nil {
		return "", ErrCredentialedURL
	}
	host := u.Hostname()
	if host == "" {
		return "", ErrMissingHost
	}

	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return "", fmt.Errorf("%w: %s", ErrPrivateTarget, host)
		}
		return u.String(), nil
	}

	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		return "", fmt.Errorf("%w: %s", ErrUnresolvable, host)
	}
	for _, addr := range addrs {
		if isPrivateIP(addr.IP) {
			return "", fmt.Errorf("%w: %s resolves to %s", ErrPrivateTarget, host, addr.IP)
		}
	}
	return u.String(), nil
}

// isPrivateIP covers RFC 1918/4193 ranges plus loopback, link-local,
// unspecified, CGNAT, and the benchmarking/IETF-protocol blocks.
func isPrivateIP(ip net.IP) bool {
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	if ip4 := ip.To4(); ip4 != nil {
		if ip4[0] == 100 && ip4[1] >= 64 && ip4[1] <= 127 {
			return true
		}
		if ip4[0] == 192 && ip4[1] == 0 && ip4[2] == 0 {
			return true
		}
		if ip4[0] == 198 && (ip4[1] == 18 || ip4[1] == 19) {
			return true
		}
	}
	return false
}
