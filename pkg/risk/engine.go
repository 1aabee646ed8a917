package risk

import (
	"fmt"

	"github.com/linkshield/linkshield/pkg/brand"
	"github.com/linkshield/linkshield/pkg/heuristics"
	"github.com/linkshield/linkshield/pkg/homograph"
	"github.com/linkshield/linkshield/pkg/mlscore"
	"github.com/linkshield/linkshield/pkg/tld"
	"github.com/linkshield/linkshield/pkg/urlinfo"
)

// homographHeuristicBoost is added to the heuristic component when the host
// shows homograph characteristics. Confusable evidence also reaches the ML
// layer through its own feature, so the boost stays moderate.
const homographHeuristicBoost = 25

// Engine is the single entry point of the scoring pipeline. It is stateless
// per call and safe for concurrent use: every collaborator it holds is
// immutable after construction.
type Engine struct {
	brands   *brand.Detector
	ensemble *mlscore.Ensemble
	scorer   *Scorer
}

// NewEngine builds an engine with the default brand dictionary, the
// deterministic two-member ensemble, and the default weight mix.
func NewEngine() *Engine {
	return &Engine{
		brands:   brand.NewDetector(""),
		ensemble: mlscore.NewEnsemble(),
		scorer:   MustNewScorer(DefaultWeights()),
	}
}

// NewEngineWith wires explicit collaborators, for configuration and tests.
func NewEngineWith(brands *brand.Detector, ensemble *mlscore.Ensemble, scorer *Scorer) *Engine {
	return &Engine{brands: brands, ensemble: ensemble, scorer: scorer}
}

// Analyze scores url. It never panics and never errors: input that cannot be
// parsed fails open to an UNKNOWN assessment with score zero. The call is
// synchronous and bounded; there is no I/O anywhere below it.
func (e *Engine) Analyze(url string) (assessment RiskAssessment) {
	// Fail open even if a component violates its no-panic contract.
	defer func() {
		if r := recover(); r != nil {
			assessment = Unknown()
		}
	}()

	p := urlinfo.Parse(url)
	if p == nil {
		return Unknown()
	}

	h := heuristics.AnalyzeParsed(p, url)
	flags := h.Flags

	hg := homograph.DetectHost(p.Host)
	if hg.IsHomograph {
		h.Score += homographHeuristicBoost
		for _, d := range hg.Details {
			flags = append(flags, "Possible homograph attack: "+d)
		}
	}

	bm := e.brands.Detect(p.Host)
	switch bm.MatchType {
	case brand.MatchTyposquat:
		flags = append(flags, fmt.Sprintf(
			"Domain imitates %q (edit distance %d)", bm.Brand, bm.EditDistance))
	case brand.MatchSubdomainAbuse:
		flags = append(flags, fmt.Sprintf(
			"Brand %q abused in subdomain of unrelated registrant", bm.Brand))
	}

	ml := e.ensemble.Predict(url)
	t := tld.ScoreHost(p.Host)

	components := ScoreComponents{
		Heuristic: h.Score,
		ML:        ml.Probability,
		Brand:     bm.Score,
		TLD:       t.Score,
	}
	return e.scorer.Calculate(components, flags)
}

// Explain returns the assessment together with the ensemble's top feature
// contributions, for debugging and the gateway's verbose mode.
func (e *Engine) Explain(url string) (RiskAssessment, []mlscore.FeatureContribution) {
	assessment := e.Analyze(url)
	prediction := e.ensemble.Predict(url)
	return assessment, prediction.TopFeatures
}
