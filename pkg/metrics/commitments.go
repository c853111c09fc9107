package metrics

import "github.com/prometheus/client_golang/prometheus"

// CommitmentMetrics counts status transitions applied by the engine.
type CommitmentMetrics struct {
	transitions   *prometheus.CounterVec
	auditFailures *prometheus.CounterVec
}

// NewCommitmentMetrics registers the commitment metrics on the provided registerer.
func NewCommitmentMetrics(reg prometheus.Registerer) *CommitmentMetrics {
	if reg == nil {
		return &CommitmentMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commitment_transitions_total",
		Help: "Commitment status transitions by path and target status.",
	}, []string{"path", "status"})
	auditFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commitment_audit_failures_total",
		Help: "Status-change audit rows that could not be written.",
	}, []string{"path"})
	reg.MustRegister(transitions, auditFailures)
	return &CommitmentMetrics{transitions: transitions, auditFailures: auditFailures}
}

// AddTransitions adds n transitions for the path and target status.
func (c *CommitmentMetrics) AddTransitions(path, status string, n int) {
	if c == nil || c.transitions == nil || n <= 0 {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(path), normalizeLabel(status)).Add(float64(n))
}

// IncAuditFailure records one dropped audit row.
func (c *CommitmentMetrics) IncAuditFailure(path string) {
	if c == nil || c.auditFailures == nil {
		return
	}
	c.auditFailures.WithLabelValues(normalizeLabel(path)).Inc()
}

// DigestMetrics tracks daily summary delivery.
type DigestMetrics struct {
	sent   prometheus.Counter
	failed prometheus.Counter
}

// NewDigestMetrics registers the digest metrics on the provided registerer.
func NewDigestMetrics(reg prometheus.Registerer) *DigestMetrics {
	if reg == nil {
		return &DigestMetrics{}
	}
	sent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "digest_emails_sent_total",
		Help: "Daily commitment summaries delivered.",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "digest_emails_failed_total",
		Help: "Daily commitment summaries that failed to send.",
	})
	reg.MustRegister(sent, failed)
	return &DigestMetrics{sent: sent, failed: failed}
}

// IncSent records one delivered summary.
func (d *DigestMetrics) IncSent() {
	if d == nil || d.sent == nil {
		return
	}
	d.sent.Inc()
}

// IncFailed records one failed summary.
func (d *DigestMetrics) IncFailed() {
	if d == nil || d.failed == nil {
		return
	}
	d.failed.Inc()
}
