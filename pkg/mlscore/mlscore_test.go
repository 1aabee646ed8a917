package mlscore

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/linkshield/linkshield/pkg/features"
)

func TestSigmoidSafety(t *testing.T) {
	extremes := []float64{math.Inf(1), math.Inf(-1), 1e300, -1e300, 0}
	for _, logit := range extremes {
		s := Sigmoid(logit)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			t.Errorf("Sigmoid(%v) not finite: %v", logit, s)
		}
		if s < 0 || s > 1 {
			t.Errorf("Sigmoid(%v) out of [0,1]: %v", logit, s)
		}
	}
	if Sigmoid(0) != 0.5 {
		t.Errorf("expected Sigmoid(0) = 0.5, got %f", Sigmoid(0))
	}
}

func TestLogisticPredictBounds(t *testing.T) {
	m := NewLogisticModel()
	urls := []string{
		"https://www.google.com",
		"http://192.168.1.1/login",
		"https://paypa1-secure.tk/login",
		"",
	}
	for _, url := range urls {
		p, err := m.Predict(features.Extract(url))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", url, err)
		}
		if p < 0 || p > 1 || math.IsNaN(p) {
			t.Errorf("probability out of bounds for %q: %f", url, p)
		}
	}
}

func TestLogisticFeatureLengthContract(t *testing.T) {
	m := NewLogisticModel()
	if _, err := m.Predict(make([]float64, 7)); !errors.Is(err, ErrFeatureLength) {
		t.Fatalf("expected ErrFeatureLength, got %v", err)
	}
	if _, err := m.Contributions(nil); !errors.Is(err, ErrFeatureLength) {
		t.Fatalf("expected ErrFeatureLength from Contributions, got %v", err)
	}
}

func TestLogisticExtremesStayFinite(t *testing.T) {
	m := NewLogisticModel()
	ones := make([]float64, features.NumFeatures)
	for i := range ones {
		ones[i] = 1
	}
	p, err := m.Predict(ones)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		t.Errorf("expected finite bounded output for saturated vector, got %f", p)
	}
}

func TestCharScorerOrdering(t *testing.T) {
	s := NewCharScorer()
	phishy := s.Score("http://paypa1-secure.tk/login/verify?password=reset")
	clean := s.Score("https://www.google.com")
	if phishy <= clean {
		t.Errorf("expected phishing URL to outscore clean one: %f vs %f", phishy, clean)
	}
	if phishy < 0.7 {
		t.Errorf("expected strongly phishy score, got %f", phishy)
	}
	if clean > 0.3 {
		t.Errorf("expected low score for clean URL, got %f", clean)
	}
	if s.Score("") != 0 {
		t.Error("expected 0 for empty input")
	}
}

func TestEnsemblePredictDeterministic(t *testing.T) {
	e := NewEnsemble()
	url := "https://login.paypa1-secure.tk/verify"
	a := e.Predict(url)
	b := e.Predict(url)
	if a.Probability != b.Probability {
		t.Errorf("expected deterministic prediction, got %f vs %f", a.Probability, b.Probability)
	}
}

func TestEnsembleBoundsAndExplanation(t *testing.T) {
	e := NewEnsemble()
	p := e.Predict("http://192.168.1.1/login?password=x")
	if p.Probability < 0 || p.Probability > 1 {
		t.Fatalf("probability out of bounds: %f", p.Probability)
	}
	if len(p.TopFeatures) == 0 {
		t.Fatal("expected top-feature explanation")
	}
	if len(p.TopFeatures) > topFeatureCount {
		t.Errorf("expected at most %d top features, got %d", topFeatureCount, len(p.TopFeatures))
	}
	for i := 1; i < len(p.TopFeatures); i++ {
		if p.TopFeatures[i].Contribution > p.TopFeatures[i-1].Contribution {
			t.Error("expected top features sorted by contribution")
		}
	}
}

func TestEnsembleEmptyInput(t *testing.T) {
	e := NewEnsemble()
	p := e.Predict("")
	if p.Probability != 0 || len(p.TopFeatures) != 0 {
		t.Errorf("expected zero prediction for empty input, got %+v", p)
	}
}

func TestEnsembleWithSimilarity(t *testing.T) {
	store, err := NewSimilarityStore(context.Background())
	if err != nil {
		t.Fatalf("similarity store: %v", err)
	}
	e := NewEnsemble().WithSimilarity(store)

	phishy := e.Predict("http://paypa1-secure.tk/login/verify").Probability
	clean := e.Predict("https://www.google.com/search?q=news").Probability
	if phishy <= clean {
		t.Errorf("expected similarity layer to preserve ordering: %f vs %f", phishy, clean)
	}
}

func TestSimilarityStoreScore(t *testing.T) {
	store, err := NewSimilarityStore(context.Background())
	if err != nil {
		t.Fatalf("similarity store: %v", err)
	}
	if !store.IsReady() {
		t.Fatal("expected store to be ready")
	}
	s, err := store.Score(context.Background(), "http://apple-id.unlock-account.gq/signin")
	if err != nil {
		t.Fatal(err)
	}
	if s < 0 || s > 1 {
		t.Errorf("similarity score out of bounds: %f", s)
	}
}

func TestOnnxClassifierDegradesGracefully(t *testing.T) {
	c := NewOnnxClassifierWithFallback(OnnxConfig{ModelPath: "/nonexistent/model"})
	if c.IsReady() {
		t.Fatal("expected classifier not ready for missing model")
	}
	if _, err := c.Score(context.Background(), "https://example.com"); err == nil {
		t.Fatal("expected error from not-ready classifier")
	}

	var nilClassifier *OnnxClassifier
	if nilClassifier.IsReady() {
		t.Fatal("expected nil classifier to report not ready")
	}
}

func TestEmbedURLUnitNorm(t *testing.T) {
	emb, err := embedURL(context.Background(), "https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	var norm float64
	for _, f := range emb {
		norm += float64(f) * float64(f)
	}
	if math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("expected unit-norm embedding, got %f", norm)
	}
	// Empty input must still embed to a nonzero vector via the anchor.
	emb, err = embedURL(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	nonzero := false
	for _, f := range emb {
		if f != 0 {
			nonzero = true
		}
	}
	if !nonzero {
		t.Error("expected anchor component to keep embedding nonzero")
	}
}

func BenchmarkEnsemblePredict(b *testing.B) {
	e := NewEnsemble()
	url := "https://login.secure.paypa1-verify.example.tk/account/update?session=abc123"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Predict(url)
	}
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("https://Paypa1-Secure.tk/Login?x=1")
	joined := strings.Join(tokens, " ")
	for _, want := range []string{"https", "paypa1", "secure", "tk", "login"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected token %q in %v", want, tokens)
		}
	}
}
