// Package urlnorm normalizes URLs so that the same page is recognised no matter
// how a link to it was written.
package urlnorm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// Normalize lower-cases scheme and host and drops query, fragment and the
// trailing slash. Only absolute http(s) URLs are accepted.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	return normalizeURL(u)
}

// Resolve resolves href against base and normalizes the result
func Resolve(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	return normalizeURL(base.ResolveReference(ref))
}

func normalizeURL(u *url.URL) (string, error) {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", u.String())
	}

	n := url.URL{
		Scheme:  scheme,
		User:    u.User,
		Host:    strings.ToLower(u.Host),
		Path:    u.Path,
		RawPath: u.RawPath,
	}
	return strings.TrimRight(n.String(), "/"), nil
}

// Hash is the stable url_hash of a URL. Unparseable input is hashed verbatim
// so callers always get a key.
func Hash(raw string) string {
	if n, err := Normalize(raw); err == nil {
		raw = n
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Host returns the lower-cased host (with port) of raw, or "" if it has none
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// SameHost reports whether both URLs point at the same host
func SameHost(a, b string) bool {
	ha := Host(a)
	return ha != "" && ha == Host(b)
}

// IsNested reports whether candidate lives strictly below parent, i.e. it
// starts with the normalized parent followed by "/".
func IsNested(parent, candidate string) bool {
	p, err := Normalize(parent)
	if err != nil {
		return false
	}
	c, err := Normalize(candidate)
	if err != nil {
		return false
	}
	return strings.HasPrefix(c, p+"/")
}
