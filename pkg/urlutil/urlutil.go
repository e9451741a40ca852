// Package urlutil resolves and classifies URLs found in fetched documents.
package urlutil

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Resolve makes ref absolute against base. It reports false unless the
// result is an http(s) URL with a host.
func Resolve(base, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	lower := strings.ToLower(ref)
	for _, scheme := range []string{"data:", "javascript:", "blob:", "mailto:"} {
		if strings.HasPrefix(lower, scheme) {
			return "", false
		}
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return "", false
	}

	if !refURL.IsAbs() {
		baseURL, err := url.Parse(strings.TrimSpace(base))
		if err != nil {
			return "", false
		}
		refURL = baseURL.ResolveReference(refURL)
	}

	if !IsHTTP(refURL) {
		return "", false
	}
	return refURL.String(), true
}

// IsHTTP reports whether u is an absolute http(s) URL with a host
func IsHTTP(u *url.URL) bool {
	if u == nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// ParseHTTP parses s and reports whether it is an absolute http(s) URL
func ParseHTTP(s string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || !IsHTTP(u) {
		return nil, false
	}
	return u, true
}

// HasImageExtension reports whether the path of u ends in a supported
// image extension. Query and fragment are ignored.
func HasImageExtension(u string) bool {
	p := u
	if parsed, err := url.Parse(u); err == nil {
		p = parsed.Path
	}
	return imageExtensions[strings.ToLower(path.Ext(p))]
}

// HostMatches reports whether the host of u equals, or is a subdomain
// of, one of domains. Comparison ignores case and a leading www.
func HostMatches(u *url.URL, domains ...string) bool {
	if u == nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(d), "www.")
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// NormalizePath collapses repeated slashes and guarantees a leading and
// trailing slash
func NormalizePath(p string) string {
	segments := Segments(p)
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/") + "/"
}

// Segments splits a URL path into its non-empty segments
func Segments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// HashID returns a short stable identifier for s
func HashID(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}
