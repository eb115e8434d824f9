// Package metrics exports dispatcher activity as Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petrijr/benchseed/pkg/api"
)

const namespace = "benchseed"

// PrometheusObserver is an api.Observer backed by Prometheus collectors.
type PrometheusObserver struct {
	calls      *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	steps      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	chunkItems *prometheus.CounterVec
	reclaims   *prometheus.CounterVec
	status     *prometheus.GaugeVec
}

var _ api.Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PrometheusObserver{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Dispatcher calls, including rejected ones.",
		}, []string{"op"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_calls_total",
			Help:      "Calls refused before any handler ran.",
		}, []string{"code"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Handler invocations by outcome.",
		}, []string{"scenario", "op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Handler wall-clock time.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"scenario", "op"}),
		chunkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_items_total",
			Help:      "Items processed by chunked operations.",
		}, []string{"op"}),
		reclaims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reclaims_total",
			Help:      "Transient state releases inside chunks.",
		}, []string{"op"}),
		status: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "environment_status",
			Help:      "1 for the current environment status label.",
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{
		o.calls, o.rejected, o.steps, o.duration, o.chunkItems, o.reclaims, o.status,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *PrometheusObserver) OnDispatch(ctx context.Context, scenario string, op api.OpName) {
	o.calls.WithLabelValues(opLabel(op)).Inc()
}

func (o *PrometheusObserver) OnRejected(ctx context.Context, scenario string, op api.OpName, err error) {
	o.rejected.WithLabelValues(string(api.CodeOf(err))).Inc()
}

func (o *PrometheusObserver) OnStepStart(ctx context.Context, scenario string, op api.OpName, index int) {
}

func (o *PrometheusObserver) OnStepCompleted(ctx context.Context, scenario string, op api.OpName, index int, next *api.Continuation, err error, d time.Duration) {
	o.steps.WithLabelValues(scenario, string(op), outcome(err)).Inc()
	o.duration.WithLabelValues(scenario, string(op)).Observe(d.Seconds())
}

func (o *PrometheusObserver) OnChunk(ctx context.Context, op api.OpName, start, end, total int) {
	if end >= start {
		o.chunkItems.WithLabelValues(string(op)).Add(float64(end - start + 1))
	}
}

func (o *PrometheusObserver) OnReclaim(ctx context.Context, op api.OpName, index int) {
	o.reclaims.WithLabelValues(string(op)).Inc()
}

func (o *PrometheusObserver) OnStatusChange(ctx context.Context, from, to api.EnvStatus) {
	for _, s := range []api.EnvStatus{api.EnvDirty, api.EnvClean, api.EnvReady} {
		v := 0.0
		if s == to {
			v = 1
		}
		o.status.WithLabelValues(string(s)).Set(v)
	}
}

// opLabel maps caller-supplied names onto a fixed label set. Calls are
// observed before admission, so op may be anything the caller sent.
func opLabel(op api.OpName) string {
	switch {
	case op.IsStart():
		return string(api.OpHello)
	case op.Builtin():
		return string(op)
	}
	return "other"
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case api.IsSoftStop(err):
		return "soft_stop"
	}
	return "error"
}
