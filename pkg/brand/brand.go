// Package brand detects impersonation of well-known brands: exact official
// domains score zero, while close edit-distance lookalikes and brand tokens
// buried in subdomains score high. The brand dictionary is loaded from YAML
// with a hardcoded fallback so the detector always works out of the box.
package brand

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/publicsuffix"
	"gopkg.in/yaml.v3"
)

// MatchType classifies how a host relates to a known brand.
type MatchType string

const (
	MatchNone           MatchType = ""
	MatchExact          MatchType = "EXACT"
	MatchTyposquat      MatchType = "TYPOSQUAT"
	MatchSubdomainAbuse MatchType = "SUBDOMAIN_ABUSE"
)

const (
	scoreWrongSuffix    = 90 // brand label verbatim under a different registry
	scoreDistanceOne    = 85
	scoreDistanceTwo    = 65
	scoreSubdomainAbuse = 70
	maxEditDistance     = 2
)

// Brand is one dictionary entry: the brand token and its official domain.
type Brand struct {
	Name   string `yaml:"name"`
	Domain string `yaml:"domain"`
}

// Match is the detection outcome. A zero Match means no brand relationship
// was found.
type Match struct {
	Score        int       `json:"score"`
	Brand        string    `json:"brand,omitempty"`
	MatchType    MatchType `json:"match_type,omitempty"`
	EditDistance int       `json:"edit_distance"`
}

type brandsConfig struct {
	Brands []Brand `yaml:"brands"`
}

// Detector matches hosts against a fixed brand dictionary. Safe for
// concurrent use; the dictionary is immutable after construction.
type Detector struct {
	brands []Brand
}

// NewDetector loads brands.yaml from dir when present, otherwise uses the
// built-in seed dictionary. Pass an empty dir to skip the file lookup.
func NewDetector(dir string) *Detector {
	if dir != "" {
		path := filepath.Join(dir, "brands.yaml")
		if data, err := os.ReadFile(path); err == nil {
			var cfg brandsConfig
			if yaml.Unmarshal(data, &cfg) == nil && len(cfg.Brands) > 0 {
				return &Detector{brands: cfg.Brands}
			}
		}
	}
	return &Detector{brands: fallbackBrands()}
}

// fallbackBrands is the seed dictionary used when no YAML file is available.
func fallbackBrands() []Brand {
	return []Brand{
		{Name: "paypal", Domain: "paypal.com"},
		{Name: "google", Domain: "google.com"},
		{Name: "apple", Domain: "apple.com"},
		{Name: "amazon", Domain: "amazon.com"},
		{Name: "microsoft", Domain: "microsoft.com"},
		{Name: "facebook", Domain: "facebook.com"},
		{Name: "netflix", Domain: "netflix.com"},
		{Name: "instagram", Domain: "instagram.com"},
		{Name: "whatsapp", Domain: "whatsapp.com"},
		{Name: "chase", Domain: "chase.com"},
		{Name: "wellsfargo", Domain: "wellsfargo.com"},
		{Name: "bankofamerica", Domain: "bankofamerica.com"},
		{Name: "dhl", Domain: "dhl.com"},
		{Name: "fedex", Domain: "fedex.com"},
		{Name: "ebay", Domain: "ebay.com"},
		{Name: "coinbase", Domain: "coinbase.com"},
		{Name: "binance", Domain: "binance.com"},
	}
}

// Detect inspects the host of url for brand impersonation. Unparseable input
// and IP-address hosts yield a zero Match. Identical input always yields an
// identical result.
func (d *Detector) Detect(host string) Match {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" || strings.HasPrefix(host, "[") || looksLikeIPv4(host) {
		return Match{}
	}

	registrable := RegistrableDomain(host)
	if registrable == "" {
		return Match{}
	}

	// Official domain: whitelisted regardless of subdomain depth.
	for _, b := range d.brands {
		if registrable == b.Domain {
			return Match{Score: 0, Brand: b.Name, MatchType: MatchExact}
		}
	}

	apex := registrable
	if i := strings.IndexByte(registrable, '.'); i > 0 {
		apex = registrable[:i]
	}

	// Brand token hiding in a subdomain of an unrelated registrant.
	sub := strings.TrimSuffix(host, registrable)
	sub = strings.TrimSuffix(sub, ".")
	if sub != "" {
		for _, b := range d.brands {
			for _, label := range strings.Split(sub, ".") {
				if label == b.Name || containsBrandToken(label, b.Name) {
					return Match{
						Score:     scoreSubdomainAbuse,
						Brand:     b.Name,
						MatchType: MatchSubdomainAbuse,
					}
				}
			}
		}
	}

	// Edit-distance lookalikes against the apex label, including
	// hyphen-separated tokens (paypa1-secure).
	best := Match{EditDistance: maxEditDistance + 1}
	tokens := append([]string{apex}, strings.Split(apex, "-")...)
	for _, b := range d.brands {
		for _, token := range tokens {
			if token == "" {
				continue
			}
			dist := Levenshtein(token, b.Name)
			if dist > maxEditDistance || dist >= len(b.Name) {
				continue
			}
			if dist == 0 && registrable == b.Domain {
				continue
			}
			if dist < best.EditDistance {
				best = Match{
					Score:        distanceScore(dist),
					Brand:        b.Name,
					MatchType:    MatchTyposquat,
					EditDistance: dist,
				}
			}
		}
	}
	if best.MatchType == MatchTyposquat {
		return best
	}
	return Match{}
}

// DetectURL is Detect over a raw URL string.
func (d *Detector) DetectURL(url string) Match {
	host := hostOf(url)
	if host == "" {
		return Match{}
	}
	return d.Detect(host)
}

func distanceScore(dist int) int {
	switch dist {
	case 0:
		return scoreWrongSuffix
	case 1:
		return scoreDistanceOne
	default:
		return scoreDistanceTwo
	}
}

// containsBrandToken reports whether a hyphen-separated piece of label is
// within one edit of the brand name.
func containsBrandToken(label, brandName string) bool {
	for _, piece := range strings.Split(label, "-") {
		if piece == brandName {
			return true
		}
		if len(piece) >= 4 && Levenshtein(piece, brandName) <= 1 {
			return true
		}
	}
	return false
}

// RegistrableDomain returns the effective TLD plus one for host, falling back
// to the last two labels when the public suffix list rejects the input.
func RegistrableDomain(host string) string {
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return strings.ToLower(d)
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return ""
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// Levenshtein returns the edit distance between a and b, operating on runes
// so mixed-script input is measured rather than mangled.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func looksLikeIPv4(host string) bool {
	dots := 0
	for _, r := range host {
		switch {
		case r == '.':
			dots++
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return dots == 3
}

// hostOf extracts a lowercase host from a raw URL without pulling in the
// full parser dependency.
func hostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	i := strings.Index(raw, "://")
	if i <= 0 {
		return ""
	}
	rest := raw[i+3:]
	for _, sep := range []byte{'/', '?', '#'} {
		if j := strings.IndexByte(rest, sep); j >= 0 {
			rest = rest[:j]
		}
	}
	if j := strings.LastIndexByte(rest, '@'); j >= 0 {
		rest = rest[j+1:]
	}
	if rest != "" && rest[0] == '[' {
		if j := strings.IndexByte(rest, ']'); j >= 0 {
			return strings.ToLower(rest[:j+1])
		}
		return ""
	}
	if j := strings.LastIndexByte(rest, ':'); j >= 0 {
		rest = rest[:j]
	}
	return strings.ToLower(rest)
}
