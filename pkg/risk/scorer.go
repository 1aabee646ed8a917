// Package risk aggregates the component scores into the final assessment: a
// clamped 0-100 score, a verdict from fixed thresholds, and a confidence
// value derived from how much the components agree with each other.
package risk

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Verdict is the user-facing classification of a URL.
type Verdict string

const (
	VerdictSafe       Verdict = "SAFE"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictMalicious  Verdict = "MALICIOUS"
	VerdictUnknown    Verdict = "UNKNOWN"
)

// Score thresholds mapping the aggregate score to a verdict.
const (
	SafeThreshold      = 30
	MaliciousThreshold = 70
)

// ScoreComponents are the four independent signals feeding aggregation.
// Heuristic, Brand and TLD are 0-100 point scales (heuristic may exceed 100
// before clamping); ML is a probability.
type ScoreComponents struct {
	Heuristic int     `json:"heuristic"`
	ML        float64 `json:"ml"`
	Brand     int     `json:"brand"`
	TLD       int     `json:"tld"`
}

// RiskAssessment is the immutable output of an analysis.
type RiskAssessment struct {
	Score      int             `json:"score"`
	Verdict    Verdict         `json:"verdict"`
	Flags      []string        `json:"flags,omitempty"`
	Confidence float64         `json:"confidence"`
	Breakdown  ScoreComponents `json:"breakdown"`
}

// Weights control the component mix. They must sum to exactly 1.0.
type Weights struct {
	Heuristic float64 `yaml:"heuristic"`
	ML        float64 `yaml:"ml"`
	Brand     float64 `yaml:"brand"`
	TLD       float64 `yaml:"tld"`
}

// DefaultWeights is the calibrated production mix.
func DefaultWeights() Weights {
	return Weights{Heuristic: 0.40, ML: 0.35, Brand: 0.15, TLD: 0.10}
}

// Validate rejects weight sets that do not sum to 1.0 (within floating-point
// tolerance) or contain negative entries.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"heuristic": w.Heuristic, "ml": w.ML, "brand": w.Brand, "tld": w.TLD,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s is negative: %f", name, v)
		}
	}
	sum := w.Heuristic + w.ML + w.Brand + w.TLD
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("weights must sum to 1.0, got %f", sum)
	}
	return nil
}

// LoadWeights reads weights.yaml from dir, falling back to defaults when the
// file is missing or invalid. The returned weights always validate.
func LoadWeights(dir string) Weights {
	if dir == "" {
		return DefaultWeights()
	}
	data, err := os.ReadFile(filepath.Join(dir, "weights.yaml"))
	if err != nil {
		return DefaultWeights()
	}
	var w Weights
	if err := yaml.Unmarshal(data, &w); err != nil {
		return DefaultWeights()
	}
	if err := w.Validate(); err != nil {
		return DefaultWeights()
	}
	return w
}

// Scorer combines components under a fixed weight set.
type Scorer struct {
	weights Weights
}

// NewScorer returns a scorer with the given weights, or an error when the
// weights do not validate.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

// MustNewScorer panics on invalid weights. Intended for the default mix.
func MustNewScorer(w Weights) *Scorer {
	s, err := NewScorer(w)
	if err != nil {
		panic(err)
	}
	return s
}

// Calculate produces the assessment for the given components and flags. The
// score is the weighted sum clamped into [0,100]; the verdict follows the
// fixed thresholds; confidence reflects component agreement.
func (s *Scorer) Calculate(c ScoreComponents, flags []string) RiskAssessment {
	weighted := s.weights.Heuristic*float64(c.Heuristic)/100 +
		s.weights.ML*c.ML +
		s.weights.Brand*float64(c.Brand)/100 +
		s.weights.TLD*float64(c.TLD)/100

	score := clampScore(int(math.Round(weighted * 100)))

	return RiskAssessment{
		Score:      score,
		Verdict:    VerdictForScore(score),
		Flags:      flags,
		Confidence: confidence(c),
		Breakdown:  c,
	}
}

// Unknown is the fail-open assessment for input that could not be parsed.
func Unknown() RiskAssessment {
	return RiskAssessment{Verdict: VerdictUnknown}
}

// VerdictForScore maps a clamped score to its verdict.
func VerdictForScore(score int) Verdict {
	switch {
	case score >= MaliciousThreshold:
		return VerdictMalicious
	case score > SafeThreshold:
		return VerdictSuspicious
	default:
		return VerdictSafe
	}
}

// confidence measures agreement: each component is normalized to [0,1] and
// the population standard deviation is folded into [0,1], spread near zero
// giving confidence near one.
func confidence(c ScoreComponents) float64 {
	norm := []float64{
		clamp01(float64(c.Heuristic) / 100),
		clamp01(c.ML),
		clamp01(float64(c.Brand) / 100),
		clamp01(float64(c.TLD) / 100),
	}
	mean := 0.0
	for _, v := range norm {
		mean += v
	}
	mean /= float64(len(norm))

	variance := 0.0
	for _, v := range norm {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(norm))

	return clamp01(1.0 - math.Sqrt(variance))
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
