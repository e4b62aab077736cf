package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// IngestStats provides the metrics collector access to live pipeline
// gauges that aren't naturally counters (spec §10 "Metrics").
type IngestStats interface {
	ActiveLineCount() int
}

// SchedulerStats exposes the rider-profile worker pool's queue depth.
type SchedulerStats interface {
	PendingRetrievals() int
}

// Collector implements prometheus.Collector to read live gauges at
// scrape time, grounded on internal/metrics/collector.go's scrape-time
// Describe/Collect pattern.
type Collector struct {
	pool      *pgxpool.Pool
	stats     IngestStats
	scheduler SchedulerStats

	activeLines        *prometheus.Desc
	pendingRetrievals  *prometheus.Desc
	dbTotalConns       *prometheus.Desc
	dbAcquiredConns    *prometheus.Desc
	dbIdleConns        *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// pool, stats, and scheduler may all be nil (those gauges report 0).
func NewCollector(pool *pgxpool.Pool, stats IngestStats, scheduler SchedulerStats) *Collector {
	return &Collector{
		pool:      pool,
		stats:     stats,
		scheduler: scheduler,
		activeLines: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "active_lines"),
			"Current number of chalklines marked active.",
			nil, nil,
		),
		pendingRetrievals: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "scheduler_pending_retrievals"),
			"Current depth of the rider-profile retrieval queue.",
			nil, nil,
		),
		dbTotalConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "total_conns"),
			"Total database pool connections.",
			nil, nil,
		),
		dbAcquiredConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "acquired_conns"),
			"Database pool connections currently in use.",
			nil, nil,
		),
		dbIdleConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "idle_conns"),
			"Database pool idle connections.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeLines
	ch <- c.pendingRetrievals
	ch <- c.dbTotalConns
	ch <- c.dbAcquiredConns
	ch <- c.dbIdleConns
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	activeLines := 0
	if c.stats != nil {
		activeLines = c.stats.ActiveLineCount()
	}
	ch <- prometheus.MustNewConstMetric(c.activeLines, prometheus.GaugeValue, float64(activeLines))

	pending := 0
	if c.scheduler != nil {
		pending = c.scheduler.PendingRetrievals()
	}
	ch <- prometheus.MustNewConstMetric(c.pendingRetrievals, prometheus.GaugeValue, float64(pending))

	if c.pool != nil {
		stat := c.pool.Stat()
		ch <- prometheus.MustNewConstMetric(c.dbTotalConns, prometheus.GaugeValue, float64(stat.TotalConns()))
		ch <- prometheus.MustNewConstMetric(c.dbAcquiredConns, prometheus.GaugeValue, float64(stat.AcquiredConns()))
		ch <- prometheus.MustNewConstMetric(c.dbIdleConns, prometheus.GaugeValue, float64(stat.IdleConns()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.dbTotalConns, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.dbAcquiredConns, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.dbIdleConns, prometheus.GaugeValue, 0)
	}
}
