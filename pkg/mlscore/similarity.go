package mlscore

import (
	"context"
	"fmt"
	"math"

	chromem "github.com/philippgille/chromem-go"

	"github.com/linkshield/linkshield/pkg/features"
)

// SimilarityStore compares a URL against a small in-memory corpus of labeled
// exemplars using chromem-go. The embedding is the deterministic feature
// vector, so the whole layer stays offline and reproducible; it is an
// optional ensemble member, off by default.
type SimilarityStore struct {
	collection *chromem.Collection
	ready      bool
}

const (
	exemplarCollection = "url-exemplars"
	similarityTopK     = 3
)

// urlExemplars seeds the store. Labels: "phishing" or "benign".
var urlExemplars = []struct {
	ID    string
	URL   string
	Label string
}{
	{"p1", "http://paypa1-secure.tk/login/verify", "phishing"},
	{"p2", "http://192.168.4.12/account/update?password=reset", "phishing"},
	{"p3", "https://apple-id.support-unlock.gq/signin", "phishing"},
	{"p4", "http://secure-banking.chase.account-review.pw/confirm", "phishing"},
	{"p5", "https://xn--pple-43d.com/account", "phishing"},
	{"p6", "http://bit.ly/3xFreePrize", "phishing"},
	{"p7", "https://netfl1x-billing.top/invoice?token=x", "phishing"},
	{"p8", "http://user@wellsfargo.verify-login.ml/secure", "phishing"},
	{"b1", "https://www.google.com/search?q=weather", "benign"},
	{"b2", "https://en.wikipedia.org/wiki/Phishing", "benign"},
	{"b3", "https://github.com/golang/go/issues", "benign"},
	{"b4", "https://www.amazon.com/gp/cart", "benign"},
	{"b5", "https://news.ycombinator.com/item?id=1", "benign"},
	{"b6", "https://www.paypal.com/myaccount/summary", "benign"},
	{"b7", "https://mail.google.com/mail/u/0/", "benign"},
	{"b8", "https://docs.python.org/3/library/urllib.html", "benign"},
}

// NewSimilarityStore builds the exemplar collection. The returned store is
// ready unless seeding failed.
func NewSimilarityStore(ctx context.Context) (*SimilarityStore, error) {
	db := chromem.NewDB()
	collection, err := db.CreateCollection(exemplarCollection, nil, embedURL)
	if err != nil {
		return nil, fmt.Errorf("create exemplar collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(urlExemplars))
	for _, e := range urlExemplars {
		docs = append(docs, chromem.Document{
			ID:       e.ID,
			Content:  e.URL,
			Metadata: map[string]string{"label": e.Label},
		})
	}
	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		return nil, fmt.Errorf("seed exemplars: %w", err)
	}

	return &SimilarityStore{collection: collection, ready: true}, nil
}

// IsReady reports whether the store can serve queries.
func (s *SimilarityStore) IsReady() bool {
	return s != nil && s.ready && s.collection != nil
}

// Score returns a [0,1] phishing probability from nearest-exemplar voting:
// each of the top matches votes with its similarity, phishing exemplars
// pushing up and benign ones down.
func (s *SimilarityStore) Score(ctx context.Context, url string) (float64, error) {
	if !s.IsReady() {
		return 0, fmt.Errorf("similarity store not ready")
	}
	results, err := s.collection.Query(ctx, url, similarityTopK, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("exemplar query: %w", err)
	}
	if len(results) == 0 {
		return 0.5, nil
	}

	var vote, weight float64
	for _, r := range results {
		sim := float64(r.Similarity)
		if sim < 0 {
			sim = 0
		}
		if r.Metadata["label"] == "phishing" {
			vote += sim
		}
		weight += sim
	}
	if weight == 0 {
		return 0.5, nil
	}
	return vote / weight, nil
}

// embedURL is a deterministic local embedding: the normalized feature vector
// with a constant anchor component so no URL embeds to the zero vector.
func embedURL(_ context.Context, url string) ([]float32, error) {
	v := features.Extract(url)
	emb := make([]float32, len(v)+1)
	for i, f := range v {
		emb[i] = float32(f)
	}
	emb[len(v)] = 0.25

	var norm float64
	for _, f := range emb {
		norm += float64(f) * float64(f)
	}
	norm = math.Sqrt(norm)
	for i := range emb {
		emb[i] = float32(float64(emb[i]) / norm)
	}
	return emb, nil
}
