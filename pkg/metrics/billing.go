package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BillingMetrics records webhook reconciliation and access-gate outcomes.
type BillingMetrics struct {
	webhookEvents *prometheus.CounterVec
	gateDecisions *prometheus.CounterVec
}

// NewBillingMetrics registers the billing metrics on the provided registerer.
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	if reg == nil {
		return &BillingMetrics{}
	}
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_events_total",
		Help: "Stripe webhook events by type and outcome.",
	}, []string{"event_type", "outcome"})
	gateDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "access_gate_decisions_total",
		Help: "Access gate decisions for the gated content area.",
	}, []string{"decision"})
	reg.MustRegister(webhookEvents, gateDecisions)
	return &BillingMetrics{
		webhookEvents: webhookEvents,
		gateDecisions: gateDecisions,
	}
}

// ObserveWebhookEvent counts one processed webhook delivery.
func (m *BillingMetrics) ObserveWebhookEvent(eventType, outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// ObserveGateDecision counts one access-gate decision.
func (m *BillingMetrics) ObserveGateDecision(decision string) {
	if m == nil || m.gateDecisions == nil {
		return
	}
	m.gateDecisions.WithLabelValues(normalizeLabel(decision)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
