// Package feedback turns user corrections of scoring verdicts into masked
// gradient reports. Reports carry only a masked feature-space gradient; the
// raw URL never leaves the process. The manager owns the only mutable state
// in the system: a per-session counter and an in-memory report queue.
package feedback

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linkshield/linkshield/pkg/features"
	"github.com/linkshield/linkshield/pkg/risk"
	"github.com/linkshield/linkshield/pkg/secureagg"
)

// DefaultSessionLimit caps reports per session.
const DefaultSessionLimit = 10

// Kind distinguishes the two correction types.
type Kind string

const (
	KindFalseNegative Kind = "FALSE_NEGATIVE" // scored SAFE, user says phishing
	KindFalsePositive Kind = "FALSE_POSITIVE" // scored risky, user says legitimate
)

// Status is the result variant of a report submission.
type Status string

const (
	StatusAccepted    Status = "ACCEPTED"
	StatusRateLimited Status = "RATE_LIMITED"
	StatusError       Status = "ERROR"
)

// Result is the tagged outcome of a report call. Gradient is set only when
// Status is ACCEPTED.
type Result struct {
	Status   Status             `json:"status"`
	Reason   string             `json:"reason,omitempty"`
	Gradient *EncryptedGradient `json:"gradient,omitempty"`
}

// EncryptedGradient is a queued report: the masked feature-space gradient
// plus the ephemeral public key needed to cancel the mask in aggregation.
// It is opaque to callers and is never persisted by this package.
type EncryptedGradient struct {
	SessionID string          `json:"session_id"`
	Kind      Kind            `json:"kind"`
	Masked    []float64       `json:"masked"`
	PublicKey secureagg.Point `json:"public_key"`
	CreatedAt time.Time       `json:"created_at"`
}

// SessionStats is a snapshot of the manager's session state.
type SessionStats struct {
	SessionID   string `json:"session_id"`
	Submitted   int    `json:"submitted"`
	Remaining   int    `json:"remaining"`
	QueueLength int    `json:"queue_length"`
}

// Manager validates, rate-limits, masks, and queues feedback reports.
// All methods are safe for concurrent use.
type Manager struct {
	mu         sync.Mutex
	sessionID  string
	submitted  int
	limit      int
	queue      []EncryptedGradient
	aggregator secureagg.KeyPair
}

// NewManager returns a manager with the given per-session report limit;
// limit <= 0 selects DefaultSessionLimit. The aggregator key pair stands in
// for the collection service's public key in the masking exchange.
func NewManager(limit int) (*Manager, error) {
	if limit <= 0 {
		limit = DefaultSessionLimit
	}
	aggregator, err := secureagg.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("aggregator key pair: %w", err)
	}
	return &Manager{
		sessionID:  uuid.NewString(),
		limit:      limit,
		aggregator: aggregator,
	}, nil
}

// ReportFalseNegative reports a URL that was scored SAFE but is phishing.
func (m *Manager) ReportFalseNegative(url string, original risk.Verdict) Result {
	if original != risk.VerdictSafe {
		return Result{
			Status: StatusError,
			Reason: fmt.Sprintf("false negative requires an original SAFE verdict, got %s", original),
		}
	}
	return m.submit(url, KindFalseNegative)
}

// ReportFalsePositive reports a URL that was flagged but is legitimate.
func (m *Manager) ReportFalsePositive(url string, original risk.Verdict) Result {
	if original == risk.VerdictSafe || original == risk.VerdictUnknown {
		return Result{
			Status: StatusError,
			Reason: fmt.Sprintf("false positive requires an original non-SAFE verdict, got %s", original),
		}
	}
	return m.submit(url, KindFalsePositive)
}

func (m *Manager) submit(url string, kind Kind) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.submitted >= m.limit {
		return Result{
			Status: StatusRateLimited,
			Reason: fmt.Sprintf("session limit of %d reports reached", m.limit),
		}
	}

	gradient, err := m.buildGradient(url, kind)
	if err != nil {
		return Result{Status: StatusError, Reason: err.Error()}
	}

	m.submitted++
	m.queue = append(m.queue, *gradient)
	return Result{Status: StatusAccepted, Gradient: gradient}
}

// buildGradient extracts features locally, signs them by correction
// direction, and masks them with an ephemeral key toward the aggregator.
// The caller holds the lock.
func (m *Manager) buildGradient(url string, kind Kind) (*EncryptedGradient, error) {
	vector := features.Extract(url)
	gradient := make([]float64, len(vector))
	sign := 1.0
	if kind == KindFalsePositive {
		sign = -1.0
	}
	for i, v := range vector {
		gradient[i] = sign * v
	}

	ephemeral, err := secureagg.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("ephemeral key pair: %w", err)
	}
	masks, err := secureagg.GenerateAggregationMasks(
		ephemeral, []secureagg.Point{m.aggregator.PublicKey}, len(gradient))
	if err != nil {
		return nil, fmt.Errorf("derive masks: %w", err)
	}
	masked, err := secureagg.ApplyMasks(gradient, masks)
	if err != nil {
		return nil, fmt.Errorf("apply masks: %w", err)
	}

	return &EncryptedGradient{
		SessionID: m.sessionID,
		Kind:      kind,
		Masked:    masked,
		PublicKey: ephemeral.PublicKey,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ReportQueue returns a copy of the queued reports.
func (m *Manager) ReportQueue() []EncryptedGradient {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EncryptedGradient, len(m.queue))
	copy(out, m.queue)
	return out
}

// ClearReportQueue drops all queued reports and returns how many were
// dropped.
func (m *Manager) ClearReportQueue() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.queue)
	m.queue = nil
	return n
}

// SessionStats reports the current session snapshot.
func (m *Manager) SessionStats() SessionStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return SessionStats{
		SessionID:   m.sessionID,
		Submitted:   m.submitted,
		Remaining:   m.limit - m.submitted,
		QueueLength: len(m.queue),
	}
}

// ResetSession starts a fresh session: new ID, zeroed counter. The queue is
// left intact; use ClearReportQueue to drop it.
func (m *Manager) ResetSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionID = uuid.NewString()
	m.submitted = 0
}
