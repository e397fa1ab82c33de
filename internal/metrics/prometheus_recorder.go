package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "twm"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once              sync.Once
	tapDuration       *prom.HistogramVec
	tapResults        *prom.CounterVec
	cycleDuration     *prom.HistogramVec
	cycleOutcome      *prom.CounterVec
	actions           *prom.CounterVec
	actionFailures    *prom.CounterVec
	translateFailures *prom.CounterVec
	compileDuration   *prom.HistogramVec
	trackedFiles      *prom.GaugeVec
	watchBatchSize    prom.Histogram
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.tapDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "hook_tap_duration_seconds",
			Help:      "Duration of individual hook taps",
			Buckets:   prom.DefBuckets,
		}, []string{"stage", "tap"})
		pr.tapResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "hook_tap_results_total",
			Help:      "Hook tap results by outcome",
		}, []string{"stage", "tap", "result"})
		pr.cycleDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Build cycle duration by kind",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"})
		pr.cycleOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_outcomes_total",
			Help:      "Build cycle outcomes by final status",
		}, []string{"kind", "outcome"})
		pr.actions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Copy and write actions executed",
		}, []string{"action"})
		pr.actionFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "action_failures_total",
			Help:      "Copy and write actions that failed",
		}, []string{"action"})
		pr.translateFailures = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "translate_failures_total",
			Help:      "Per-file translation failures by translator",
		}, []string{"translator"})
		pr.compileDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Duration of external compiler runs",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.trackedFiles = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_files",
			Help:      "Files tracked per classification collection",
		}, []string{"collection"})
		pr.watchBatchSize = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "watch_batch_size",
			Help:      "Number of paths per aggregated watch batch",
			Buckets:   prom.ExponentialBuckets(1, 2, 10),
		})
		reg.MustRegister(pr.tapDuration, pr.tapResults, pr.cycleDuration, pr.cycleOutcome, pr.actions,
			pr.actionFailures, pr.translateFailures, pr.compileDuration, pr.trackedFiles, pr.watchBatchSize)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveTapDuration(stage, tap string, d time.Duration) {
	if p == nil || p.tapDuration == nil {
		return
	}
	p.tapDuration.WithLabelValues(stage, tap).Observe(d.Seconds())
}
func (p *PrometheusRecorder) IncTapResult(stage, tap string, result ResultLabel) {
	if p == nil || p.tapResults == nil {
		return
	}
	p.tapResults.WithLabelValues(stage, tap, string(result)).Inc()
}
func (p *PrometheusRecorder) ObserveCycleDuration(kind string, d time.Duration) {
	if p == nil || p.cycleDuration == nil {
		return
	}
	p.cycleDuration.WithLabelValues(kind).Observe(d.Seconds())
}
func (p *PrometheusRecorder) IncCycleOutcome(kind string, outcome CycleOutcomeLabel) {
	if p == nil || p.cycleOutcome == nil {
		return
	}
	p.cycleOutcome.WithLabelValues(kind, string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddActions(action string, n int) {
	if p == nil || p.actions == nil || n <= 0 {
		return
	}
	p.actions.WithLabelValues(action).Add(float64(n))
}

func (p *PrometheusRecorder) IncActionFailure(action string) {
	if p == nil || p.actionFailures == nil {
		return
	}
	p.actionFailures.WithLabelValues(action).Inc()
}

func (p *PrometheusRecorder) IncTranslateFailure(translator string) {
	if p == nil || p.translateFailures == nil {
		return
	}
	p.translateFailures.WithLabelValues(translator).Inc()
}

func (p *PrometheusRecorder) ObserveCompileDuration(d time.Duration, success bool) {
	if p == nil || p.compileDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.compileDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetTrackedFiles(collection string, n int) {
	if p == nil || p.trackedFiles == nil {
		return
	}
	p.trackedFiles.WithLabelValues(collection).Set(float64(n))
}

func (p *PrometheusRecorder) ObserveWatchBatch(size int) {
	if p == nil || p.watchBatchSize == nil {
		return
	}
	p.watchBatchSize.Observe(float64(size))
}
