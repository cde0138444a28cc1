package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// PoolSource reports database reachability and connection pool statistics.
type PoolSource interface {
	Ping(ctx context.Context) error
	Health() map[string]any
}

type poolStat struct {
	key       string
	desc      *prometheus.Desc
	valueType prometheus.ValueType
}

// PoolCollector exports database pool statistics at scrape time.
type PoolCollector struct {
	source PoolSource
	up     *prometheus.Desc
	stats  []poolStat
	logger zerolog.Logger
}

// NewPoolCollector creates a PoolCollector over source.
func NewPoolCollector(source PoolSource, logger zerolog.Logger) *PoolCollector {
	gauge := func(key, name, help string) poolStat {
		return poolStat{key, prometheus.NewDesc(prometheus.BuildFQName(namespace, "db", name), help, nil, nil), prometheus.GaugeValue}
	}
	counter := func(key, name, help string) poolStat {
		return poolStat{key, prometheus.NewDesc(prometheus.BuildFQName(namespace, "db", name), help, nil, nil), prometheus.CounterValue}
	}

	return &PoolCollector{
		source: source,
		up: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "up"),
			"Component health status (1 = healthy, 0 = unhealthy).", []string{"component"}, nil),
		stats: []poolStat{
			gauge("total_conns", "connections_total", "Total number of connections in the pool."),
			gauge("acquired_conns", "connections_acquired", "Number of currently acquired connections."),
			gauge("idle_conns", "connections_idle", "Number of idle connections."),
			gauge("max_conns", "connections_max", "Maximum number of connections in the pool."),
			gauge("constructing", "connections_constructing", "Number of connections being constructed."),
			counter("empty_acquire", "acquire_empty_total", "Acquire attempts that had to wait for a connection."),
			counter("canceled_acquire", "acquire_canceled_total", "Acquire attempts that were canceled."),
			counter("max_lifetime_dest", "lifetime_destroy_total", "Connections destroyed due to max lifetime."),
			counter("max_idle_dest", "idle_destroy_total", "Connections destroyed due to max idle time."),
		},
		logger: logger.With().Str("component", "pool_collector").Logger(),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
	for _, s := range c.stats {
		ch <- s.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	up := 1.0
	if err := c.source.Ping(ctx); err != nil {
		up = 0
		c.logger.Warn().Err(err).Msg("database ping failed for metrics")
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, up, "database")

	stats := c.source.Health()
	for _, s := range c.stats {
		if v, ok := toFloat(stats[s.key]); ok {
			ch <- prometheus.MustNewConstMetric(s.desc, s.valueType, v)
		}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
