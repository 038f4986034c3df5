package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBillingMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBillingMetrics(reg)

	m.ObserveWebhookEvent("checkout.session.completed", "processed")
	m.ObserveWebhookEvent("checkout.session.completed", "processed")
	m.ObserveGateDecision("denied")
	m.ObserveGateDecision("")

	if got := testutil.ToFloat64(m.webhookEvents.WithLabelValues("checkout.session.completed", "processed")); got != 2 {
		t.Fatalf("expected 2 webhook events, got %v", got)
	}
	if got := testutil.ToFloat64(m.gateDecisions.WithLabelValues("denied")); got != 1 {
		t.Fatalf("expected 1 denied decision, got %v", got)
	}
	if got := testutil.ToFloat64(m.gateDecisions.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty decision to normalize to unknown, got %v", got)
	}
}

func TestBillingMetricsNilSafe(t *testing.T) {
	var m *BillingMetrics
	m.ObserveWebhookEvent("x", "y")
	m.ObserveGateDecision("z")

	empty := NewBillingMetrics(nil)
	empty.ObserveWebhookEvent("x", "y")
	empty.ObserveGateDecision("z")
}
