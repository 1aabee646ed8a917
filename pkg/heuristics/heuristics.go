// Package heuristics applies additive rule-based point scoring over parsed
// URL structure. Each triggered rule contributes points and a human-readable
// flag. Scores are intentionally not clamped here; the aggregator owns
// clamping.
package heuristics

import (
	"fmt"
	"strings"

	"github.com/linkshield/linkshield/pkg/tld"
	"github.com/linkshield/linkshield/pkg/urlinfo"
)

// Rule point values. The IP-host penalty is the anchor: an IP-hosted URL must
// clear the aggregate floor on its own.
const (
	pointsNoHTTPS       = 10
	pointsIPHost        = 20
	pointsAtInAuthority = 15
	pointsShortener     = 12
	pointsLongURL       = 10
	pointsManyLabels    = 12
	pointsCredParams    = 18
	pointsPathKeyword   = 8
	pointsHostKeyword   = 15
	pointsHighEntropy   = 10
	pointsPunycode      = 15
	pointsOddPort       = 8
	pointsManyParams    = 6
	pointsFreeTLD       = 25
	pointsLeetLabel     = 10
	pointsHyphenHost    = 5
)

const (
	longPathThreshold    = 75
	longURLThreshold     = 100
	maxSubdomainLabels   = 5
	hostEntropyThreshold = 3.6
	manyParamsThreshold  = 6
)

// Result holds the additive heuristic score and the flags of every rule that
// fired.
type Result struct {
	Score int      `json:"score"`
	Flags []string `json:"flags"`
}

// rules is evaluated in order; each entry is independent of the others.
var rules = []struct {
	Name   string
	Points int
	Flag   string
	Match  func(p *urlinfo.ParsedURL, raw string) bool
}{
	{
		Name: "no_https", Points: pointsNoHTTPS,
		Flag: "Connection is not encrypted (no HTTPS)",
		Match: func(p *urlinfo.ParsedURL, _ string) bool {
			return p.Protocol != "https"
		},
	},
	{
		Name: "ip_host", Points: pointsIPHost,
		Flag: "Host is a raw IP address instead of a domain name",
		Match: func(p *urlinfo.ParsedURL, _ string) bool {
			return urlinfo.IsIPAddress(p.Host)
		},
	},
	{
		Name: "at_in_authority", Points: pointsAtInAuthority,
		Flag: "URL contains credentials before the host (@ in authority)",
		Match: func(p *urlinfo.ParsedURL, _ string) bool {
			return p.UserInfo != ""
		},
	},
	{
		Name: "shortener", Points: pointsShortener,
		Flag: "URL uses a link-shortening service",
		Match: func(p *urlinfo.ParsedURL, _ string) bool {
			return urlinfo.IsShortener(p.Host)
		},
	},
	{
		Name: "long_url", Points: pointsLongURL,
		Flag: "Unusually long URL",
		Match: func(p *urlinfo.ParsedURL, raw string) bool {
			return len(p.Path) > longPathThreshold || len(raw) > longURLThreshold
		},
	},
	{
		Name: "many_subdomains", Points: pointsManyLabels,
		Flag: "Excessive number of subdomains",
		Match: func(p *urlinfo.ParsedURL, _ string) bool {
			return urlinfo.SubdomainCount(p.Host) > maxSubdomainLabels
		},
	},
	{
		Name: "credential_params", Points: pointsCredParams,
		Flag: "Query string carries credential-like parameters",
		Match: func(p *urlinfo.ParsedURL, _ string) bool {
			return urlinfo.HasCredentialParams(p.Query)
		},
	},
	{
		Name: "host_keyword", Points: pointsHostKeyword,
		Flag: "Hostname contains phishing bait words",
		Match: func(p *urlinfo.ParsedURL, _ string) bool {
			return urlinfo.CountSuspiciousPathKeywords(p.Host) > 0
		},
	},
	{
		Name: "high_entropy_host", Points: pointsHighEntropy,
		Flag: "Hostname looks randomly generated (high entropy)",
		Match: func(p *urlinfo.ParsedURL, _ string) bool {
			return !urlinfo.IsIPAddress(p.Host) &&
				urlinfo.CalculateEntropy(p.Host) > hostEntropyThreshold
		},
	},
	{
		Name: "punycode_host", Points: pointsPunycode,
		Flag: "Hostname uses punycode-encoded labels",
		Match: func(p *urlinfo.ParsedURL, _ string) bool {
			return strings.Contains(p.Host, "xn--")
		},
	},
	{
		Name: "odd_port", Points: pointsOddPort,
		Flag: "Non-standard port",
		Match: func(p *urlinfo.ParsedURL, _ string) bool {
			return p.Port != "" && p.Port != "80" && p.Port != "443"
		},
	},
	{
		Name: "many_query_params", Points: pointsManyParams,
		Flag: "Unusually many query parameters",
		Match: func(p *urlinfo.ParsedURL, _ string) bool {
			return urlinfo.QueryParamCount(p.Query) > manyParamsThreshold
		},
	},
	{
		Name: "free_tier_tld", Points: pointsFreeTLD,
		Flag: "Domain registered under a high-abuse top-level domain",
		Match: func(p *urlinfo.ParsedURL, _ string) bool {
			return tld.IsHighRiskHost(p.Host)
		},
	},
	{
		Name: "leet_label", Points: pointsLeetLabel,
		Flag: "Hostname mixes digits into an alphabetic label",
		Match: func(p *urlinfo.ParsedURL, _ string) bool {
			return hasLeetLabel(p.Host)
		},
	},
	{
		Name: "hyphenated_host", Points: pointsHyphenHost,
		Flag: "Hyphenated domain label",
		Match: func(p *urlinfo.ParsedURL, _ string) bool {
			return !urlinfo.IsIPAddress(p.Host) && strings.Contains(p.Host, "-")
		},
	},
}

// Analyze scores url against every rule. Unparseable input scores zero with
// no flags. Path keyword hits are scored per keyword on top of the rule
// table.
func Analyze(url string) Result {
	p := urlinfo.Parse(url)
	if p == nil {
		return Result{}
	}
	return AnalyzeParsed(p, url)
}

// AnalyzeParsed scores an already-parsed URL, avoiding a second parse when
// the caller holds one.
func AnalyzeParsed(p *urlinfo.ParsedURL, raw string) Result {
	var r Result
	for _, rule := range rules {
		if rule.Match(p, raw) {
			r.Score += rule.Points
			r.Flags = append(r.Flags, rule.Flag)
		}
	}
	if n := urlinfo.CountSuspiciousPathKeywords(p.Path); n > 0 {
		r.Score += n * pointsPathKeyword
		r.Flags = append(r.Flags, fmt.Sprintf("Path contains %d phishing bait keyword(s)", n))
	}
	return r
}

// hasLeetLabel reports whether any host label mixes digits into letters, the
// classic digit-for-letter substitution (paypa1, g00gle). Pure-numeric labels
// do not count.
func hasLeetLabel(host string) bool {
	if urlinfo.IsIPAddress(host) {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		letters, digits := 0, 0
		for _, r := range label {
			switch {
			case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
				letters++
			case r >= '0' && r <= '9':
				digits++
			}
		}
		if letters >= 3 && digits >= 1 {
			return true
		}
	}
	return false
}
