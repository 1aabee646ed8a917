// Package features turns a URL into a fixed-length numeric vector for the
// model layer. Every value is normalized into [0,1] and finite; the same
// input always produces the same vector, and empty or unparseable input
// produces the all-zero vector.
package features

import (
	"strings"

	"github.com/linkshield/linkshield/pkg/homograph"
	"github.com/linkshield/linkshield/pkg/tld"
	"github.com/linkshield/linkshield/pkg/urlinfo"
)

// NumFeatures is the dimensionality of the extracted vector. The model layer
// rejects vectors of any other length.
const NumFeatures = 24

// Normalization caps. Values past the cap saturate at 1.0.
const (
	entropyCap      = 5.0
	hostLengthCap   = 64.0
	pathLengthCap   = 256.0
	subdomainCap    = 6.0
	queryParamCap   = 10.0
	hyphenCap       = 5.0
	keywordCap      = 5.0
	dotCap          = 6.0
	pathDepthCap    = 8.0
	longestLabelCap = 32.0
)

var featureNames = [NumFeatures]string{
	"no_https",
	"ip_host",
	"punycode_host",
	"at_in_authority",
	"shortener_host",
	"host_entropy",
	"url_length",
	"host_length",
	"path_length",
	"subdomain_count",
	"query_param_count",
	"host_digit_ratio",
	"host_hyphen_count",
	"suspicious_keyword_count",
	"credential_params",
	"host_dot_count",
	"special_char_ratio",
	"tld_risk",
	"path_depth",
	"has_fragment",
	"explicit_port",
	"host_vowel_scarcity",
	"longest_label_length",
	"confusable_chars",
}

// FeatureNames returns the ordered names of the vector positions.
func FeatureNames() []string {
	names := make([]string, NumFeatures)
	copy(names, featureNames[:])
	return names
}

// Extract computes the feature vector for url. The result always has
// NumFeatures entries, each finite and in [0,1].
func Extract(url string) []float64 {
	v := make([]float64, NumFeatures)
	p := urlinfo.Parse(url)
	if p == nil {
		return v
	}

	host := p.Host
	isIP := urlinfo.IsIPAddress(host)

	v[0] = boolFeature(p.Protocol != "https")
	v[1] = boolFeature(isIP)
	v[2] = boolFeature(strings.Contains(host, "xn--"))
	v[3] = boolFeature(p.UserInfo != "")
	v[4] = boolFeature(urlinfo.IsShortener(host))
	v[5] = capRatio(urlinfo.CalculateEntropy(host), entropyCap)
	v[6] = capRatio(float64(len(url)), float64(urlinfo.MaxInputLength))
	v[7] = capRatio(float64(len(host)), hostLengthCap)
	v[8] = capRatio(float64(len(p.Path)), pathLengthCap)
	v[9] = capRatio(float64(urlinfo.SubdomainCount(host)), subdomainCap)
	v[10] = capRatio(float64(urlinfo.QueryParamCount(p.Query)), queryParamCap)
	v[11] = digitRatio(host, isIP)
	v[12] = capRatio(float64(strings.Count(host, "-")), hyphenCap)
	v[13] = capRatio(float64(urlinfo.CountSuspiciousPathKeywords(p.Path)+urlinfo.CountSuspiciousPathKeywords(host)), keywordCap)
	v[14] = boolFeature(urlinfo.HasCredentialParams(p.Query))
	v[15] = capRatio(float64(strings.Count(host, ".")), dotCap)
	v[16] = specialCharRatio(url)
	v[17] = capRatio(float64(tld.ScoreHost(host).Score), 100)
	v[18] = capRatio(float64(pathDepth(p.Path)), pathDepthCap)
	v[19] = boolFeature(p.Fragment != "")
	v[20] = boolFeature(p.Port != "" && p.Port != "80" && p.Port != "443")
	v[21] = vowelScarcity(host, isIP)
	v[22] = capRatio(float64(longestLabel(host)), longestLabelCap)
	v[23] = boolFeature(homograph.HasConfusables(host))

	return v
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func capRatio(value, limit float64) float64 {
	if limit <= 0 || value <= 0 {
		return 0
	}
	r := value / limit
	if r > 1 {
		return 1
	}
	return r
}

// digitRatio is the share of digits among host characters. IP hosts return 0
// so the signal does not double-count the dedicated IP feature.
func digitRatio(host string, isIP bool) float64 {
	if isIP || host == "" {
		return 0
	}
	digits := 0
	total := 0
	for _, r := range host {
		total++
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(digits) / float64(total)
}

// specialCharRatio is the share of characters outside [a-zA-Z0-9] and the
// structural separators ./:?#&=- in the full URL.
func specialCharRatio(url string) float64 {
	if url == "" {
		return 0
	}
	special := 0
	total := 0
	for _, r := range url {
		total++
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '/' || r == ':' || r == '?' || r == '#' ||
			r == '&' || r == '=' || r == '-' || r == '_' || r == '~':
		default:
			special++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(special) / float64(total)
}

func pathDepth(path string) int {
	depth := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			depth++
		}
	}
	return depth
}

// vowelScarcity measures how far the host's vowel ratio falls below what
// natural-language domains show. Random keyboard-mash hosts are vowel-poor.
func vowelScarcity(host string, isIP bool) float64 {
	if isIP || host == "" {
		return 0
	}
	vowels, letters := 0, 0
	for _, r := range host {
		if r >= 'a' && r <= 'z' {
			letters++
			switch r {
			case 'a', 'e', 'i', 'o', 'u':
				vowels++
			}
		}
	}
	if letters == 0 {
		return 1
	}
	ratio := float64(vowels) / float64(letters)
	// Natural domains sit near 0.35-0.45 vowels per letter.
	const expected = 0.38
	if ratio >= expected {
		return 0
	}
	return (expected - ratio) / expected
}

func longestLabel(host string) int {
	longest := 0
	for _, label := range strings.Split(host, ".") {
		if len(label) > longest {
			longest = len(label)
		}
	}
	return longest
}
