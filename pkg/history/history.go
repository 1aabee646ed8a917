// Package history persists assessments for the gateway's audit trail. It is
// an optional collaborator: the scoring engine never depends on it, and the
// gateway runs fine without a database configured.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linkshield/linkshield/pkg/risk"
)

const schema = `
CREATE TABLE IF NOT EXISTS assessments (
	id         BIGSERIAL PRIMARY KEY,
	url        TEXT        NOT NULL,
	score      INT         NOT NULL,
	verdict    TEXT        NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	flags      JSONB       NOT NULL DEFAULT '[]',
	breakdown  JSONB       NOT NULL DEFAULT '{}',
	scanned_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS assessments_scanned_at_idx ON assessments (scanned_at DESC);
`

// Record is one persisted assessment.
type Record struct {
	ID         int64                `json:"id"`
	URL        string               `json:"url"`
	Score      int                  `json:"score"`
	Verdict    risk.Verdict         `json:"verdict"`
	Confidence float64              `json:"confidence"`
	Flags      []string             `json:"flags"`
	Breakdown  risk.ScoreComponents `json:"breakdown"`
	ScannedAt  time.Time            `json:"scanned_at"`
}

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to databaseURL and ensures the schema exists.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect history store: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Save persists one assessment with the original URL and scan time.
func (s *Store) Save(ctx context.Context, url string, a risk.RiskAssessment, scannedAt time.Time) error {
	flags, err := json.Marshal(a.Flags)
	if err != nil {
		return fmt.Errorf("encode flags: %w", err)
	}
	breakdown, err := json.Marshal(a.Breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO assessments (url, score, verdict, confidence, flags, breakdown, scanned_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		url, a.Score, string(a.Verdict), a.Confidence, flags, breakdown, scannedAt)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

// Recent returns the newest records, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, url, score, verdict, confidence, flags, breakdown, scanned_at
		 FROM assessments ORDER BY scanned_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r         Record
			verdict   string
			flags     []byte
			breakdown []byte
		)
		if err := rows.Scan(&r.ID, &r.URL, &r.Score, &verdict, &r.Confidence,
			&flags, &breakdown, &r.ScannedAt); err != nil {
			return nil, fmt.Errorf("scan assessment row: %w", err)
		}
		r.Verdict = risk.Verdict(verdict)
		if err := json.Unmarshal(flags, &r.Flags); err != nil {
			return nil, fmt.Errorf("decode flags: %w", err)
		}
		if err := json.Unmarshal(breakdown, &r.Breakdown); err != nil {
			return nil, fmt.Errorf("decode breakdown: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}
