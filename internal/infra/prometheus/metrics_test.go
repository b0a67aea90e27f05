package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RedirectOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RedirectOutcome("redirected")
	m.RedirectOutcome("redirected")
	m.RedirectOutcome("no_credit")
	m.CreditsAdded(5)

	if got := testutil.ToFloat64(m.redirects.WithLabelValues("redirected")); got != 2 {
		t.Fatalf("expected 2 redirects, got %v", got)
	}
	if got := testutil.ToFloat64(m.redirects.WithLabelValues("no_credit")); got != 1 {
		t.Fatalf("expected 1 no_credit, got %v", got)
	}
	if got := testutil.ToFloat64(m.creditsAdded); got != 5 {
		t.Fatalf("expected 5 credits added, got %v", got)
	}
}
