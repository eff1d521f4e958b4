package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispenseMetrics records the relay session state and command outcomes.
type DispenseMetrics struct {
	sessionState *prometheus.GaugeVec
	sent         *prometheus.CounterVec
	acked        *prometheus.CounterVec
	errored      *prometheus.CounterVec
	dropped      prometheus.Counter
	ackLatency   *prometheus.HistogramVec
}

// NewDispenseMetrics registers the dispense metrics on the provided registry.
// A nil registry yields inert metrics, so callers without a scrape surface
// can still pass the result around.
func NewDispenseMetrics(reg *prometheus.Registry) *DispenseMetrics {
	if reg == nil {
		return &DispenseMetrics{}
	}
	sessionState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dispense_session_state",
		Help: "Relay session state, one-hot across the state label.",
	}, []string{"state"})
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispense_commands_sent",
		Help: "Dispense commands written to the relay.",
	}, []string{"machine"})
	acked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispense_commands_acked",
		Help: "Dispense commands acknowledged by the relay.",
	}, []string{"machine"})
	errored := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispense_commands_errored",
		Help: "Dispense commands that ended in a relay error or timeout.",
	}, []string{"machine"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispense_messages_dropped",
		Help: "Inbound relay messages dropped as malformed or unknown.",
	})
	ackLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispense_ack_latency_seconds",
		Help:    "Latency between sending a command and its acknowledgement.",
		Buckets: prometheus.DefBuckets,
	}, []string{"machine"})
	reg.MustRegister(sessionState, sent, acked, errored, dropped, ackLatency)
	return &DispenseMetrics{
		sessionState: sessionState,
		sent:         sent,
		acked:        acked,
		errored:      errored,
		dropped:      dropped,
		ackLatency:   ackLatency,
	}
}

// SetSessionState marks the named state as active and zeroes the others.
func (m *DispenseMetrics) SetSessionState(state string, all []string) {
	if m == nil || m.sessionState == nil {
		return
	}
	for _, s := range all {
		value := 0.0
		if s == state {
			value = 1.0
		}
		m.sessionState.WithLabelValues(s).Set(value)
	}
}

// IncSent increments the sent counter for the machine code.
func (m *DispenseMetrics) IncSent(machine string) {
	if m == nil || m.sent == nil {
		return
	}
	m.sent.WithLabelValues(normalizeLabel(machine)).Inc()
}

// IncAcked increments the acknowledged counter for the machine code.
func (m *DispenseMetrics) IncAcked(machine string) {
	if m == nil || m.acked == nil {
		return
	}
	m.acked.WithLabelValues(normalizeLabel(machine)).Inc()
}

// IncErrored increments the errored counter for the machine code.
func (m *DispenseMetrics) IncErrored(machine string) {
	if m == nil || m.errored == nil {
		return
	}
	m.errored.WithLabelValues(normalizeLabel(machine)).Inc()
}

// IncDropped increments the dropped message counter.
func (m *DispenseMetrics) IncDropped() {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.Inc()
}

// ObserveAckLatency records the time from send to acknowledgement.
func (m *DispenseMetrics) ObserveAckLatency(machine string, d time.Duration) {
	if m == nil || m.ackLatency == nil {
		return
	}
	m.ackLatency.WithLabelValues(normalizeLabel(machine)).Observe(d.Seconds())
}

func normalizeLabel(machine string) string {
	if machine == "" {
		return "unknown"
	}
	return machine
}
