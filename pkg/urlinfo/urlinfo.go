// Package urlinfo decomposes raw URL strings into structured components and
// computes the structural facts the scoring layers consume. Parsing is
// deliberately forgiving: any input that cannot be decomposed yields nil
// rather than an error, and callers fail open on nil.
package urlinfo

import (
	"math"
	"strconv"
	"strings"
)

// MaxInputLength caps how much of the input is processed. It matches the
// largest QR payload the product accepts; longer input is truncated, never
// rejected.
const MaxInputLength = 2048

// ParsedURL holds the decomposed parts of a URL. Host is always lowercase.
// Port is empty unless it appeared explicitly in the input.
type ParsedURL struct {
	Protocol string
	UserInfo string
	Host     string
	Port     string
	Path     string
	Query    string
	Fragment string
}

// shorteners is a fixed allowlist of known URL-shortener hosts.
var shorteners = map[string]bool{
	"bit.ly":      true,
	"t.co":        true,
	"tinyurl.com": true,
	"goo.gl":      true,
	"ow.ly":       true,
	"is.gd":       true,
	"buff.ly":     true,
	"rb.gy":       true,
	"cutt.ly":     true,
	"shorturl.at": true,
}

// suspiciousPathKeywords are path tokens that commonly appear in credential
// harvesting pages.
var suspiciousPathKeywords = []string{
	"login", "verify", "secure", "account", "update", "confirm",
	"signin", "banking", "password", "wallet", "invoice", "billing",
}

// credentialParams are query parameter names that should never travel in a URL.
var credentialParams = []string{
	"password", "passwd", "pwd", "token", "api_key", "apikey",
	"secret", "auth", "session", "credential",
}

// Parse decomposes raw into a ParsedURL. It returns nil for empty input and
// for anything that has no recognizable scheme://host shape. It never panics,
// including on control characters, raw Unicode, or multi-kilobyte input.
func Parse(raw string) *ParsedURL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if len(raw) > MaxInputLength {
		raw = raw[:MaxInputLength]
	}

	idx := strings.Index(raw, "://")
	if idx <= 0 {
		return nil
	}
	scheme := strings.ToLower(raw[:idx])
	if !isValidScheme(scheme) {
		return nil
	}
	rest := raw[idx+3:]
	if rest == "" {
		return nil
	}

	p := &ParsedURL{Protocol: scheme}

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		p.Fragment = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		p.Query = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		p.Path = rest[i:]
		rest = rest[:i]
	}

	// rest is now authority: [user:pass@]host[:port]
	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		p.UserInfo = rest[:i]
		rest = rest[i+1:]
	}

	host, port, ok := splitHostPort(rest)
	if !ok || host == "" {
		return nil
	}
	p.Host = strings.ToLower(host)
	p.Port = port
	return p
}

func isValidScheme(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// splitHostPort separates host and optional port, keeping bracketed IPv6
// hosts intact.
func splitHostPort(authority string) (host, port string, ok bool) {
	if authority == "" {
		return "", "", false
	}
	if authority[0] == '[' {
		end := strings.IndexByte(authority, ']')
		if end < 0 {
			return "", "", false
		}
		host = authority[:end+1]
		rest := authority[end+1:]
		if rest == "" {
			return host, "", true
		}
		if rest[0] != ':' {
			return "", "", false
		}
		return host, rest[1:], validPort(rest[1:])
	}
	if i := strings.LastIndexByte(authority, ':'); i >= 0 {
		return authority[:i], authority[i+1:], validPort(authority[i+1:])
	}
	return authority, "", true
}

func validPort(s string) bool {
	if s == "" {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n > 0 && n <= 65535
}

// IsIPAddress reports whether host is a dotted-quad IPv4 address (each octet
// 0-255) or a bracketed IPv6 literal.
func IsIPAddress(host string) bool {
	if host == "" {
		return false
	}
	if host[0] == '[' && host[len(host)-1] == ']' {
		inner := host[1 : len(host)-1]
		return inner != "" && strings.Contains(inner, ":")
	}
	parts := strings.Split(host, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if part == "" || len(part) > 3 {
			return false
		}
		n := 0
		for _, c := range part {
			if c < '0' || c > '9' {
				return false
			}
			n = n*10 + int(c-'0')
		}
		if n > 255 {
			return false
		}
	}
	return true
}

// IsShortener reports whether host exactly matches a known URL shortener.
func IsShortener(host string) bool {
	return shorteners[strings.ToLower(host)]
}

// CalculateEntropy returns the Shannon entropy of s over character
// frequencies. Empty and single-character-alphabet strings return exactly 0.
func CalculateEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	counts := make(map[rune]float64)
	total := 0.0
	for _, r := range s {
		counts[r]++
		total++
	}
	entropy := 0.0
	for _, count := range counts {
		p := count / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// CountSuspiciousPathKeywords counts case-insensitive occurrences of known
// credential-harvesting tokens in path.
func CountSuspiciousPathKeywords(path string) int {
	if path == "" {
		return 0
	}
	lower := strings.ToLower(path)
	count := 0
	for _, kw := range suspiciousPathKeywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}

// HasCredentialParams reports whether the query string carries any parameter
// name that looks like credential material. Empty query returns false.
func HasCredentialParams(query string) bool {
	if query == "" {
		return false
	}
	lower := strings.ToLower(query)
	for _, pair := range strings.Split(lower, "&") {
		name := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			name = pair[:i]
		}
		for _, p := range credentialParams {
			if name == p || strings.Contains(name, p) {
				return true
			}
		}
	}
	return false
}

// SubdomainCount returns the number of dot-separated labels in host.
// IP addresses count as a single label.
func SubdomainCount(host string) int {
	if host == "" {
		return 0
	}
	if IsIPAddress(host) {
		return 1
	}
	return len(strings.Split(host, "."))
}

// QueryParamCount returns the number of &-separated parameters in query.
func QueryParamCount(query string) int {
	if query == "" {
		return 0
	}
	return len(strings.Split(query, "&"))
}
