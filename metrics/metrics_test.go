package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersFamilies(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("minihttpd", reg)

	m.ConnectionsTotal.Inc()
	m.RecordRequest("GET", "200", 5*time.Millisecond)
	m.UpdatePool(2, 7)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}

	for _, name := range []string{
		"minihttpd_connections_total",
		"minihttpd_requests_total",
		"minihttpd_request_latency_seconds",
		"minihttpd_worker_pool_active",
		"minihttpd_worker_pool_pending",
	} {
		if !found[name] {
			t.Errorf("Metric family %s not registered", name)
		}
	}
}

func TestNewOnFreshRegistries(t *testing.T) {
	// Two instances must be able to coexist when each has its own registry.
	_ = New("minihttpd", prometheus.NewRegistry())
	_ = New("minihttpd", prometheus.NewRegistry())
}
