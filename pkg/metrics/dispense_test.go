package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestDispenseMetricsExportsCountersAndGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewDispenseMetrics(reg)
	machine := "VM-001"

	states := []string{"disconnected", "connecting", "connected", "error"}
	metrics.SetSessionState("connected", states)
	metrics.IncSent(machine)
	metrics.IncAcked(machine)
	metrics.IncErrored(machine)
	metrics.IncDropped()
	metrics.ObserveAckLatency(machine, 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchGaugeValue(mfs, "dispense_session_state", "state", "connected"); err != nil {
		t.Fatalf("fetch state: %v", err)
	} else if got != 1 {
		t.Fatalf("expected connected=1, got %f", got)
	}
	if got, err := fetchGaugeValue(mfs, "dispense_session_state", "state", "disconnected"); err != nil {
		t.Fatalf("fetch state: %v", err)
	} else if got != 0 {
		t.Fatalf("expected disconnected=0, got %f", got)
	}

	for _, name := range []string{"dispense_commands_sent", "dispense_commands_acked", "dispense_commands_errored"} {
		if got, err := fetchCounterValue(mfs, name, "machine", machine); err != nil {
			t.Fatalf("fetch %s: %v", name, err)
		} else if got != 1 {
			t.Fatalf("expected %s=1, got %f", name, got)
		}
	}

	if got, err := fetchHistogramSum(mfs, "dispense_ack_latency_seconds", "machine", machine); err != nil {
		t.Fatalf("fetch latency: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected latency sum > 0, got %f", got)
	}
}

func TestDispenseMetricsNilReceiversAreSafe(t *testing.T) {
	var metrics *DispenseMetrics
	metrics.IncSent("VM-001")
	metrics.IncDropped()
	metrics.SetSessionState("connected", []string{"connected"})

	empty := NewDispenseMetrics(nil)
	empty.IncAcked("VM-001")
	empty.ObserveAckLatency("VM-001", time.Second)

	var registry *prometheus.Registry
	unregistered := NewDispenseMetrics(registry)
	unregistered.IncSent("VM-001")
	unregistered.SetSessionState("connected", []string{"connected"})
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchGaugeValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetGauge().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("gauge %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
