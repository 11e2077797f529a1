// Package metrics публикует счетчики Prometheus для выполнения операторов,
// пакетов, выбранных строк и чтения длинных значений.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector объединяет метрики моста. nil *Collector допустим
// и ничего не записывает.
type Collector struct {
	statements *prometheus.CounterVec
	failures   *prometheus.CounterVec
	batches    *prometheus.CounterVec
	rows       prometheus.Counter
	longCalls  prometheus.Counter
	longGrowth prometheus.Counter
	copied     *prometheus.CounterVec
}

// New регистрирует коллекторы в reg. В тестах передавайте
// prometheus.NewRegistry(), чтобы не конфликтовать с реестром по умолчанию.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		// statements - выполненные операторы по виду операции.
		statements: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmbridge_statements_total",
				Help: "Total number of executed statements by operation kind",
			},
			[]string{"kind"},
		),
		// failures - неудачные операторы по виду операции и классу ошибки.
		failures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmbridge_statement_failures_total",
				Help: "Total number of failed statements by operation kind and error class",
			},
			[]string{"kind", "class"},
		),
		batches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmbridge_batches_total",
				Help: "Total number of batches by outcome (committed, rolled_back)",
			},
			[]string{"outcome"},
		),
		rows: f.NewCounter(prometheus.CounterOpts{
			Name: "dmbridge_rows_fetched_total",
			Help: "Total number of materialized rows",
		}),
		longCalls: f.NewCounter(prometheus.CounterOpts{
			Name: "dmbridge_long_fetch_calls_total",
			Help: "Total number of GetData calls issued for long values",
		}),
		longGrowth: f.NewCounter(prometheus.CounterOpts{
			Name: "dmbridge_long_fetch_growths_total",
			Help: "Total number of long-value buffer growths",
		}),
		copied: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmbridge_transfer_rows_total",
				Help: "Total number of rows copied to the target by table",
			},
			[]string{"table"},
		),
	}
}

func (c *Collector) Statement(kind string) {
	if c == nil {
		return
	}
	c.statements.WithLabelValues(kind).Inc()
}

func (c *Collector) Failure(kind, class string) {
	if c == nil {
		return
	}
	c.failures.WithLabelValues(kind, class).Inc()
}

func (c *Collector) Batch(outcome string) {
	if c == nil {
		return
	}
	c.batches.WithLabelValues(outcome).Inc()
}

func (c *Collector) Rows(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.rows.Add(float64(n))
}

// LongFetch учитывает вызовы GetData и рост буфера с прошлого отчета.
func (c *Collector) LongFetch(calls, growths int) {
	if c == nil {
		return
	}
	if calls > 0 {
		c.longCalls.Add(float64(calls))
	}
	if growths > 0 {
		c.longGrowth.Add(float64(growths))
	}
}

func (c *Collector) Copied(table string, n int64) {
	if c == nil || n <= 0 {
		return
	}
	c.copied.WithLabelValues(table).Add(float64(n))
}
