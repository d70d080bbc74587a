package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/azargarov/limitq"
)

var _ limitq.MetricsPolicy = (*Prometheus)(nil)

// Prometheus exports queue activity as Prometheus collectors.
type Prometheus struct {
	Queued   prometheus.Counter
	Rejected prometheus.Counter
	Executed prometheus.Counter
	Failed   prometheus.Counter
	Retried  prometheus.Counter
	TimedOut prometheus.Counter
	Terminal prometheus.Counter
	Depth    prometheus.Gauge
	Active   prometheus.Gauge
}

// NewPrometheus creates the collectors and registers them with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewPrometheus(namespace, subsystem string, reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}

	m := &Prometheus{
		Queued:   counter("items_queued_total", "Total number of items accepted into the queue"),
		Rejected: counter("items_rejected_total", "Total number of insertions refused because the queue was full"),
		Executed: counter("attempts_succeeded_total", "Total number of attempts that settled successfully"),
		Failed:   counter("attempts_failed_total", "Total number of failed attempts, timeouts included"),
		Retried:  counter("items_retried_total", "Total number of failed items put back for another attempt"),
		TimedOut: counter("attempts_timed_out_total", "Total number of attempts rejected by the timeout"),
		Terminal: counter("items_terminal_total", "Total number of items dropped after exhausting retries"),
		Depth:    gauge("queue_depth", "Current number of queued items"),
		Active:   gauge("active_workers", "Current number of in-flight invocations"),
	}

	for _, c := range []prometheus.Collector{
		m.Queued, m.Rejected, m.Executed, m.Failed, m.Retried,
		m.TimedOut, m.Terminal, m.Depth, m.Active,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Prometheus) IncQueued()      { m.Queued.Inc() }
func (m *Prometheus) IncRejected()    { m.Rejected.Inc() }
func (m *Prometheus) IncExecuted()    { m.Executed.Inc() }
func (m *Prometheus) IncFailed()      { m.Failed.Inc() }
func (m *Prometheus) IncRetried()     { m.Retried.Inc() }
func (m *Prometheus) IncTimedOut()    { m.TimedOut.Inc() }
func (m *Prometheus) IncTerminal()    { m.Terminal.Inc() }
func (m *Prometheus) SetQueued(n int) { m.Depth.Set(float64(n)) }
func (m *Prometheus) SetActive(n int) { m.Active.Set(float64(n)) }
