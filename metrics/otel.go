package metrics

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/azargarov/limitq"
)

// meterName is the instrumentation scope name for queue metrics.
const meterName = "github.com/azargarov/limitq"

var _ limitq.MetricsPolicy = (*OTel)(nil)

// OTel records queue activity with OpenTelemetry instruments.
//
// Instruments:
//   - limitq.items.queued, limitq.items.rejected, limitq.items.retried,
//     limitq.items.terminal (Int64Counter)
//   - limitq.attempts.succeeded, limitq.attempts.failed,
//     limitq.attempts.timed_out (Int64Counter)
//   - limitq.queue.depth, limitq.workers.active (Int64ObservableGauge)
type OTel struct {
	queued    metric.Int64Counter
	rejected  metric.Int64Counter
	succeeded metric.Int64Counter
	failed    metric.Int64Counter
	retried   metric.Int64Counter
	timedOut  metric.Int64Counter
	terminal  metric.Int64Counter

	depth  atomic.Int64
	active atomic.Int64
}

// NewOTel uses the global MeterProvider.
func NewOTel() (*OTel, error) {
	return NewOTelWithMeter(otel.Meter(meterName))
}

// NewOTelWithMeter creates the instruments on meter.
func NewOTelWithMeter(meter metric.Meter) (*OTel, error) {
	m := &OTel{}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.queued, "limitq.items.queued", "Items accepted into the queue"},
		{&m.rejected, "limitq.items.rejected", "Insertions refused because the queue was full"},
		{&m.succeeded, "limitq.attempts.succeeded", "Attempts that settled successfully"},
		{&m.failed, "limitq.attempts.failed", "Failed attempts, timeouts included"},
		{&m.retried, "limitq.items.retried", "Failed items put back for another attempt"},
		{&m.timedOut, "limitq.attempts.timed_out", "Attempts rejected by the timeout"},
		{&m.terminal, "limitq.items.terminal", "Items dropped after exhausting retries"},
	}
	for _, c := range counters {
		inst, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
		*c.dst = inst
	}

	if _, err := meter.Int64ObservableGauge("limitq.queue.depth",
		metric.WithDescription("Current number of queued items"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.depth.Load())
			return nil
		}),
	); err != nil {
		return nil, err
	}
	if _, err := meter.Int64ObservableGauge("limitq.workers.active",
		metric.WithDescription("Current number of in-flight invocations"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.active.Load())
			return nil
		}),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *OTel) add(c metric.Int64Counter) { c.Add(context.Background(), 1) }

func (m *OTel) IncQueued()      { m.add(m.queued) }
func (m *OTel) IncRejected()    { m.add(m.rejected) }
func (m *OTel) IncExecuted()    { m.add(m.succeeded) }
func (m *OTel) IncFailed()      { m.add(m.failed) }
func (m *OTel) IncRetried()     { m.add(m.retried) }
func (m *OTel) IncTimedOut()    { m.add(m.timedOut) }
func (m *OTel) IncTerminal()    { m.add(m.terminal) }
func (m *OTel) SetQueued(n int) { m.depth.Store(int64(n)) }
func (m *OTel) SetActive(n int) { m.active.Store(int64(n)) }
