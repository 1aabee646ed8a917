// Package mlscore produces a bounded [0,1] machine-learning probability for a
// URL, independent of the rule engine. The core is a small logistic model
// over the extracted feature vector plus a character/token scorer; optional
// similarity and ONNX layers can join the ensemble when available.
package mlscore

import (
	"errors"
	"fmt"
	"math"

	"github.com/linkshield/linkshield/pkg/features"
)

// ErrFeatureLength signals a model/extractor dimension skew. This is a
// programmer error, not bad user input.
var ErrFeatureLength = errors.New("feature vector length mismatch")

// logitClamp bounds the logit before exponentiation so extreme feature
// values can never produce NaN or Inf.
const logitClamp = 30.0

// LogisticModel is a fixed-weight logistic regression over the feature
// vector. Weights are hand-calibrated, not trained online; determinism is a
// contract.
type LogisticModel struct {
	Weights []float64
	Bias    float64
}

// NewLogisticModel returns the default calibrated model. The weight order
// matches features.FeatureNames().
func NewLogisticModel() *LogisticModel {
	return &LogisticModel{
		Weights: []float64{
			1.5, // no_https
			3.0, // ip_host
			3.0, // punycode_host
			2.5, // at_in_authority
			1.5, // shortener_host
			2.0, // host_entropy
			1.0, // url_length
			1.0, // host_length
			1.0, // path_length
			1.5, // subdomain_count
			0.5, // query_param_count
			2.0, // host_digit_ratio
			1.0, // host_hyphen_count
			3.0, // suspicious_keyword_count
			2.5, // credential_params
			0.5, // host_dot_count
			2.0, // special_char_ratio
			3.5, // tld_risk
			0.5, // path_depth
			0.2, // has_fragment
			1.5, // explicit_port
			1.0, // host_vowel_scarcity
			0.5, // longest_label_length
			4.0, // confusable_chars
		},
		Bias: -4.0,
	}
}

// Predict returns the phishing probability for vector. A vector whose length
// differs from the model's weight count is a contract violation and returns
// ErrFeatureLength.
func (m *LogisticModel) Predict(vector []float64) (float64, error) {
	if len(vector) != len(m.Weights) {
		return 0, fmt.Errorf("%w: model expects %d, got %d",
			ErrFeatureLength, len(m.Weights), len(vector))
	}
	logit := m.Bias
	for i, w := range m.Weights {
		logit += w * vector[i]
	}
	return Sigmoid(logit), nil
}

// Contributions returns the per-feature weight*value products for vector,
// used to explain a prediction. Same length contract as Predict.
func (m *LogisticModel) Contributions(vector []float64) ([]float64, error) {
	if len(vector) != len(m.Weights) {
		return nil, fmt.Errorf("%w: model expects %d, got %d",
			ErrFeatureLength, len(m.Weights), len(vector))
	}
	out := make([]float64, len(vector))
	for i, w := range m.Weights {
		out[i] = w * vector[i]
	}
	return out, nil
}

// Sigmoid is the numerically safe logistic function: the input is clamped to
// [-logitClamp, logitClamp] before exponentiation.
func Sigmoid(logit float64) float64 {
	if logit > logitClamp {
		logit = logitClamp
	} else if logit < -logitClamp {
		logit = -logitClamp
	}
	return 1.0 / (1.0 + math.Exp(-logit))
}

// featureCount is asserted at init so a drifting extractor fails loudly at
// startup rather than mid-scan.
func init() {
	if len(NewLogisticModel().Weights) != features.NumFeatures {
		panic("mlscore: logistic weights out of sync with feature extractor")
	}
}
