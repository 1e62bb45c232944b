package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func TestCountersIncrement(t *testing.T) {
	ConnectionsTotal.Add(0) // ensure registered without panic
	UDPFramesDroppedTotal.WithLabelValues("bad_header").Inc()

	m := &dto.Metric{}
	if err := UDPFramesDroppedTotal.WithLabelValues("bad_header").Write(m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if m.Counter.GetValue() < 1 {
		t.Fatalf("expected counter >= 1, got %v", m.Counter.GetValue())
	}
}
