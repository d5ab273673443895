package stats

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports a set of named Samplers as prometheus gauges, following
// the label-indexed prometheus.Collector shape used elsewhere in this stack
// for per-connection metrics.
type Collector struct {
	mu       sync.Mutex
	samplers map[string]*Sampler

	descs map[string]*prometheus.Desc
}

// NewCollector returns a Collector that labels every exported metric with
// labelName (e.g. "session_id").
func NewCollector(labelName string) *Collector {
	mk := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("lanewire_"+name, help, []string{labelName}, nil)
	}
	return &Collector{
		samplers: make(map[string]*Sampler),
		descs: map[string]*prometheus.Desc{
			"srtt_seconds":  mk("srtt_seconds", "Smoothed round-trip time estimate."),
			"pto_seconds":   mk("pto_seconds", "Current probe timeout."),
			"bytes_sent":    mk("bytes_sent", "Cumulative bytes sent."),
			"bytes_recv":    mk("bytes_recv", "Cumulative bytes received."),
			"packets_sent":  mk("packets_sent", "Cumulative packets sent."),
			"packets_recv":  mk("packets_recv", "Cumulative packets received."),
			"messages_sent": mk("messages_sent", "Cumulative messages pushed."),
			"messages_recv": mk("messages_recv", "Cumulative messages delivered."),
			"loss_estimate": mk("loss_estimate", "Estimated packet loss fraction, in [0,1]."),
		},
	}
}

// Add registers a session's Sampler for export under the given label value.
func (c *Collector) Add(label string, s *Sampler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samplers[label] = s
}

// Remove stops exporting the Sampler registered under label.
func (c *Collector) Remove(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.samplers, label)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(out chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		out <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(out chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for label, sampler := range c.samplers {
		snap := sampler.Latest()
		out <- prometheus.MustNewConstMetric(c.descs["srtt_seconds"], prometheus.GaugeValue, snap.SRTT.Seconds(), label)
		out <- prometheus.MustNewConstMetric(c.descs["pto_seconds"], prometheus.GaugeValue, snap.PTO.Seconds(), label)
		out <- prometheus.MustNewConstMetric(c.descs["bytes_sent"], prometheus.CounterValue, float64(snap.BytesSent), label)
		out <- prometheus.MustNewConstMetric(c.descs["bytes_recv"], prometheus.CounterValue, float64(snap.BytesRecv), label)
		out <- prometheus.MustNewConstMetric(c.descs["packets_sent"], prometheus.CounterValue, float64(snap.PacketsSent), label)
		out <- prometheus.MustNewConstMetric(c.descs["packets_recv"], prometheus.CounterValue, float64(snap.PacketsRecv), label)
		out <- prometheus.MustNewConstMetric(c.descs["messages_sent"], prometheus.CounterValue, float64(snap.MessagesSent), label)
		out <- prometheus.MustNewConstMetric(c.descs["messages_recv"], prometheus.CounterValue, float64(snap.MessagesRecv), label)
		out <- prometheus.MustNewConstMetric(c.descs["loss_estimate"], prometheus.GaugeValue, snap.LossEstimate, label)
	}
}
