package mlscore

import (
	"strings"

	"github.com/linkshield/linkshield/pkg/tld"
	"github.com/linkshield/linkshield/pkg/urlinfo"
)

// CharScorer is a token-level log-odds scorer: each token seen in the URL
// shifts the odds toward or away from phishing, and structural signals
// (leetspeak labels, free-tier TLDs, IP hosts) add fixed boosts. The final
// log-odds pass through the clamped sigmoid, so output stays in [0,1].
type CharScorer struct {
	tokenWeights map[string]float64
}

// baseLogOdds is the prior: an unremarkable URL sits well below 0.5.
const baseLogOdds = -1.5

// Structural boosts layered on top of token evidence.
const (
	boostLeetLabel = 1.5
	boostFreeTLD   = 2.0
	boostIPHost    = 2.0
	boostPunycode  = 1.5
	boostShortener = 1.0
)

// NewCharScorer returns the default token-weight table.
func NewCharScorer() *CharScorer {
	return &CharScorer{
		tokenWeights: map[string]float64{
			// scheme evidence
			"https": -0.8,
			"http":  0.4,
			// credential-harvesting bait
			"login":     1.2,
			"signin":    1.2,
			"verify":    1.2,
			"secure":    1.0,
			"account":   1.0,
			"update":    0.8,
			"confirm":   1.0,
			"banking":   1.2,
			"password":  1.5,
			"wallet":    1.0,
			"invoice":   0.8,
			"billing":   0.8,
			"suspended": 1.2,
			"unlock":    0.8,
			"urgent":    1.0,
			// lure vocabulary
			"free":  0.6,
			"prize": 1.0,
			"bonus": 0.8,
			"win":   0.6,
			"claim": 0.8,
			"gift":  0.8,
		},
	}
}

// Score returns the token-level phishing probability for url. Empty and
// unparseable input returns 0.
func (s *CharScorer) Score(url string) float64 {
	p := urlinfo.Parse(url)
	if p == nil {
		return 0
	}

	logOdds := baseLogOdds
	for _, token := range tokenize(url) {
		logOdds += s.tokenWeights[token]
	}

	if hasLeetToken(p.Host) {
		logOdds += boostLeetLabel
	}
	if t := tld.ScoreHost(p.Host); t.Category == tld.CategoryFreeTier {
		logOdds += boostFreeTLD
	}
	if urlinfo.IsIPAddress(p.Host) {
		logOdds += boostIPHost
	}
	if strings.Contains(p.Host, "xn--") {
		logOdds += boostPunycode
	}
	if urlinfo.IsShortener(p.Host) {
		logOdds += boostShortener
	}

	return Sigmoid(logOdds)
}

// tokenize lowercases the URL and splits on everything that is not a letter
// or digit.
func tokenize(url string) []string {
	lower := strings.ToLower(url)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// hasLeetToken reports digit-for-letter substitution inside an alphabetic
// host label.
func hasLeetToken(host string) bool {
	if urlinfo.IsIPAddress(host) {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		letters, digits := 0, 0
		for _, r := range label {
			switch {
			case r >= 'a' && r <= 'z':
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
