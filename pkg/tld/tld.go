// Package tld classifies the risk of a URL's top-level domain using static
// lookup tables. Free-tier registries with historically high abuse rates
// score highest; recognized country codes score low; everything else is SAFE.
package tld

import (
	"strings"

	"github.com/linkshield/linkshield/pkg/urlinfo"
)

// Category is the risk class of a top-level domain.
type Category string

const (
	CategorySafe        Category = "SAFE"
	CategoryCountryCode Category = "COUNTRY_CODE"
	CategoryFreeTier    Category = "FREE_TIER"
	CategoryModerate    Category = "MODERATE"
)

const (
	freeTierScore    = 75
	moderateScore    = 45
	countryCodeScore = 10
)

// freeTierTLDs are zero-cost registries heavily abused for phishing.
var freeTierTLDs = map[string]bool{
	"tk": true, "ml": true, "ga": true, "cf": true, "gq": true, "pw": true,
}

// moderateTLDs are cheap generic TLDs with elevated abuse rates.
var moderateTLDs = map[string]bool{
	"top": true, "xyz": true, "online": true, "site": true, "club": true,
	"work": true, "click": true, "link": true, "icu": true, "buzz": true,
	"rest": true, "monster": true, "quest": true, "cam": true,
}

// countryCodeTLDs covers the common two-letter country registries. Free-tier
// entries above take precedence even though they are technically ccTLDs.
var countryCodeTLDs = map[string]bool{
	"uk": true, "de": true, "fr": true, "jp": true, "cn": true, "ru": true,
	"br": true, "in": true, "au": true, "ca": true, "it": true, "es": true,
	"nl": true, "se": true, "no": true, "ch": true, "at": true, "be": true,
	"dk": true, "fi": true, "pl": true, "pt": true, "gr": true, "cz": true,
	"kr": true, "mx": true, "ar": true, "za": true, "tr": true, "ie": true,
	"nz": true, "sg": true, "hk": true, "tw": true, "il": true, "ae": true,
	"ua": true, "ro": true, "hu": true, "vn": true, "th": true, "id": true,
	"my": true, "ph": true, "cl": true, "co": true, "us": true, "eu": true,
}

// Result is the TLD risk classification for a URL.
type Result struct {
	Score      int      `json:"score"`
	Category   Category `json:"category"`
	IsHighRisk bool     `json:"is_high_risk"`
	TLD        string   `json:"tld"`
}

// Score classifies the top-level domain of url. Unparseable input and
// IP-address hosts return the SAFE minimum.
func Score(url string) Result {
	p := urlinfo.Parse(url)
	if p == nil {
		return Result{Category: CategorySafe}
	}
	return ScoreHost(p.Host)
}

// ScoreHost classifies an already-extracted host.
func ScoreHost(host string) Result {
	t := Extract(host)
	if t == "" {
		return Result{Category: CategorySafe}
	}
	switch {
	case freeTierTLDs[t]:
		return Result{Score: freeTierScore, Category: CategoryFreeTier, IsHighRisk: true, TLD: t}
	case moderateTLDs[t]:
		return Result{Score: moderateScore, Category: CategoryModerate, IsHighRisk: true, TLD: t}
	case countryCodeTLDs[t]:
		return Result{Score: countryCodeScore, Category: CategoryCountryCode, TLD: t}
	default:
		return Result{Category: CategorySafe, TLD: t}
	}
}

// IsHighRiskHost reports whether host ends in a free-tier or moderate-risk TLD.
func IsHighRiskHost(host string) bool {
	t := Extract(host)
	return freeTierTLDs[t] || moderateTLDs[t]
}

// Extract returns the final label of host, empty for IP addresses and
// single-label hosts.
func Extract(host string) string {
	if host == "" || urlinfo.IsIPAddress(host) {
		return ""
	}
	i := strings.LastIndexByte(host, '.')
	if i < 0 || i == len(host)-1 {
		return ""
	}
	return strings.ToLower(host[i+1:])
}
