package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector adapts Metrics into a prometheus.Collector, exposing the same
// fields Snapshot returns as gauges rather than a one-shot JSON struct.
type Collector struct {
	metrics *Metrics

	quotes        *prometheus.Desc
	submissions   *prometheus.Desc
	fills         *prometheus.Desc
	cancels       *prometheus.Desc
	openOrders    *prometheus.Desc
	position      *prometheus.Desc
	realizedPnL   *prometheus.Desc
	unrealizedPnL *prometheus.Desc
	fillRate      *prometheus.Desc
	cancelRate    *prometheus.Desc
}

// NewCollector wraps m for registration with a prometheus.Registry.
func NewCollector(m *Metrics) *Collector {
	ns := "mm_kernel"
	return &Collector{
		metrics:       m,
		quotes:        prometheus.NewDesc(ns+"_quotes_total", "Quotes generated", nil, nil),
		submissions:   prometheus.NewDesc(ns+"_submissions_total", "Orders submitted", nil, nil),
		fills:         prometheus.NewDesc(ns+"_fills_total", "Fills recorded", nil, nil),
		cancels:       prometheus.NewDesc(ns+"_cancels_total", "Cancels recorded", nil, nil),
		openOrders:    prometheus.NewDesc(ns+"_open_orders", "Currently open orders", nil, nil),
		position:      prometheus.NewDesc(ns+"_position", "Signed inventory position", nil, nil),
		realizedPnL:   prometheus.NewDesc(ns+"_realized_pnl", "Realized P&L", nil, nil),
		unrealizedPnL: prometheus.NewDesc(ns+"_unrealized_pnl", "Unrealized P&L", nil, nil),
		fillRate:      prometheus.NewDesc(ns+"_fill_rate", "Fills divided by quotes", nil, nil),
		cancelRate:    prometheus.NewDesc(ns+"_cancel_rate", "Cancels divided by submissions", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.quotes
	ch <- c.submissions
	ch <- c.fills
	ch <- c.cancels
	ch <- c.openOrders
	ch <- c.position
	ch <- c.realizedPnL
	ch <- c.unrealizedPnL
	ch <- c.fillRate
	ch <- c.cancelRate
}

// Collect implements prometheus.Collector, taking a fresh snapshot on
// every scrape.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.metrics.Snapshot(time.Now())

	ch <- prometheus.MustNewConstMetric(c.quotes, prometheus.CounterValue, float64(snap.Quotes))
	ch <- prometheus.MustNewConstMetric(c.submissions, prometheus.CounterValue, float64(snap.Submissions))
	ch <- prometheus.MustNewConstMetric(c.fills, prometheus.CounterValue, float64(snap.Fills))
	ch <- prometheus.MustNewConstMetric(c.cancels, prometheus.CounterValue, float64(snap.Cancels))
	ch <- prometheus.MustNewConstMetric(c.openOrders, prometheus.GaugeValue, float64(snap.OpenOrders))
	ch <- prometheus.MustNewConstMetric(c.position, prometheus.GaugeValue, snap.Position.InexactFloat64())
	ch <- prometheus.MustNewConstMetric(c.realizedPnL, prometheus.GaugeValue, snap.RealizedPnL.InexactFloat64())
	ch <- prometheus.MustNewConstMetric(c.unrealizedPnL, prometheus.GaugeValue, snap.UnrealizedPnL.InexactFloat64())
	ch <- prometheus.MustNewConstMetric(c.fillRate, prometheus.GaugeValue, snap.FillRate.InexactFloat64())
	ch <- prometheus.MustNewConstMetric(c.cancelRate, prometheus.GaugeValue, snap.CancelRate.InexactFloat64())
}
