package mlscore

import (
	"context"
	"sort"

	"github.com/linkshield/linkshield/pkg/features"
)

// FeatureContribution explains one feature's share of the logistic score.
type FeatureContribution struct {
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
}

// Prediction is the ensemble output: a bounded probability plus the top
// contributing features for debuggability.
type Prediction struct {
	Probability float64               `json:"probability"`
	TopFeatures []FeatureContribution `json:"top_features,omitempty"`
}

// topFeatureCount limits the explanation payload.
const topFeatureCount = 3

// Ensemble averages the logistic feature model and the token scorer, and
// blends in the optional similarity and ONNX layers when they are ready.
// With no optional layers attached (the default) the output is fully
// deterministic.
type Ensemble struct {
	logistic   *LogisticModel
	char       *CharScorer
	similarity *SimilarityStore
	classifier *OnnxClassifier
}

// NewEnsemble returns the deterministic two-member ensemble.
func NewEnsemble() *Ensemble {
	return &Ensemble{
		logistic: NewLogisticModel(),
		char:     NewCharScorer(),
	}
}

// WithSimilarity attaches the exemplar similarity layer.
func (e *Ensemble) WithSimilarity(store *SimilarityStore) *Ensemble {
	e.similarity = store
	return e
}

// WithClassifier attaches the ONNX classifier layer.
func (e *Ensemble) WithClassifier(c *OnnxClassifier) *Ensemble {
	e.classifier = c
	return e
}

// Predict scores url. Empty or unparseable input yields probability 0 with
// no explanation. Optional layers that fail at query time are skipped, never
// fatal.
func (e *Ensemble) Predict(url string) Prediction {
	vector := features.Extract(url)

	logisticScore, err := e.logistic.Predict(vector)
	if err != nil {
		// Extractor and model dimensions are asserted at init; treat a
		// mismatch here as a zero signal rather than poisoning the scan.
		logisticScore = 0
	}
	charScore := e.char.Score(url)

	if allZero(vector) && charScore == 0 {
		return Prediction{}
	}

	scores := []float64{logisticScore, charScore}
	if e.similarity.IsReady() {
		if s, err := e.similarity.Score(context.Background(), url); err == nil {
			scores = append(scores, s)
		}
	}
	if e.classifier.IsReady() {
		if s, err := e.classifier.Score(context.Background(), url); err == nil {
			scores = append(scores, s)
		}
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	probability := sum / float64(len(scores))
	if probability < 0 {
		probability = 0
	} else if probability > 1 {
		probability = 1
	}

	return Prediction{
		Probability: probability,
		TopFeatures: e.topFeatures(vector),
	}
}

func (e *Ensemble) topFeatures(vector []float64) []FeatureContribution {
	contributions, err := e.logistic.Contributions(vector)
	if err != nil {
		return nil
	}
	names := features.FeatureNames()
	all := make([]FeatureContribution, 0, len(contributions))
	for i, c := range contributions {
		if c == 0 {
			continue
		}
		all = append(all, FeatureContribution{
			Name:         names[i],
			Value:        vector[i],
			Contribution: c,
		})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Contribution > all[j].Contribution
	})
	if len(all) > topFeatureCount {
		all = all[:topFeatureCount]
	}
	return all
}

func allZero(v []float64) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
