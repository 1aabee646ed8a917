// Package telemetry tracks in-process gateway counters. Counters are
// process-local and reset on restart; nothing leaves the process.
package telemetry

import "sync/atomic"

// Client accumulates gateway counters. The zero value is ready to use and
// all methods are safe for concurrent callers.
type Client struct {
	scans      atomic.Int64
	malicious  atomic.Int64
	suspicious atomic.Int64
	cacheHits  atomic.Int64
	feedback   atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Scans      int64 `json:"scans"`
	Malicious  int64 `json:"malicious"`
	Suspicious int64 `json:"suspicious"`
	CacheHits  int64 `json:"cache_hits"`
	Feedback   int64 `json:"feedback_reports"`
}

// RecordScan counts one completed analysis and its verdict.
func (c *Client) RecordScan(verdict string) {
	c.scans.Add(1)
	switch verdict {
	case "MALICIOUS":
		c.malicious.Add(1)
	case "SUSPICIOUS":
		c.suspicious.Add(1)
	}
}

// RecordCacheHit counts a verdict served from cache.
func (c *Client) RecordCacheHit() {
	c.cacheHits.Add(1)
}

// RecordFeedback counts an accepted feedback report.
func (c *Client) RecordFeedback() {
	c.feedback.Add(1)
}

// Snapshot returns the current counter values.
func (c *Client) Snapshot() Snapshot {
	return Snapshot{
		Scans:      c.scans.Load(),
		Malicious:  c.malicious.Load(),
		Suspicious: c.suspicious.Load(),
		CacheHits:  c.cacheHits.Load(),
		Feedback:   c.feedback.Load(),
	}
}
