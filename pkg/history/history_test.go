package history

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/linkshield/linkshield/pkg/risk"
)

// Integration test against a real Postgres. Set LINKSHIELD_TEST_DATABASE_URL
// to run it, e.g. postgres://localhost:5432/linkshield_test.
func TestSaveAndRecent(t *testing.T) {
	dsn := os.Getenv("LINKSHIELD_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("LINKSHIELD_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer store.Close()

	a := risk.RiskAssessment{
		Score:      82,
		Verdict:    risk.VerdictMalicious,
		Flags:      []string{"Free-tier TLD", "Domain imitates \"paypal\""},
		Confidence: 0.71,
		Breakdown:  risk.ScoreComponents{Heuristic: 73, ML: 0.95, Brand: 85, TLD: 75},
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	if err := store.Save(ctx, "https://paypa1-secure.tk/login", a, now); err != nil {
		t.Fatalf("save: %v", err)
	}

	records, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.Score != a.Score || got.Verdict != a.Verdict || got.Breakdown != a.Breakdown {
		t.Errorf("round trip mismatch: %+v vs %+v", got, a)
	}
	if len(got.Flags) != 2 {
		t.Errorf("expected 2 flags, got %v", got.Flags)
	}
}
