package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports pipeline observations as Prometheus metrics.
type PrometheusRecorder struct {
	once                 sync.Once
	generationDuration   *prom.HistogramVec
	stageDuration        *prom.HistogramVec
	sectionDuration      *prom.HistogramVec
	llmCalls             *prom.CounterVec
	refinementIterations prom.Histogram
	guardWait            prom.Histogram
	publishRetries       prom.Counter
	queueDepth           prom.Gauge
}

// NewPrometheusRecorder builds the metric vectors and registers them on reg,
// which defaults to a fresh private registry when nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.generationDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "gitlyte",
			Name:      "generation_duration_seconds",
			Help:      "Total generation run duration by outcome",
			// Full runs routinely take tens of seconds; the default buckets top out at 10s.
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160, 320},
		}, []string{"outcome"})
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "gitlyte",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.sectionDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "gitlyte",
			Name:      "section_duration_seconds",
			Help:      "Duration of individual section generation tasks",
			Buckets:   prom.DefBuckets,
		}, []string{"section"})
		pr.llmCalls = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gitlyte",
			Name:      "llm_calls_total",
			Help:      "Text-generation calls by operation and result",
		}, []string{"operation", "result"})
		pr.refinementIterations = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "gitlyte",
			Name:      "refinement_iterations",
			Help:      "Refinement iterations performed per generation run",
			Buckets:   prom.LinearBuckets(0, 1, 6),
		})
		pr.guardWait = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "gitlyte",
			Name:      "guard_wait_seconds",
			Help:      "Time spent waiting on the deployment guard before publishing",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
		})
		pr.publishRetries = prom.NewCounter(prom.CounterOpts{
			Namespace: "gitlyte",
			Name:      "publish_retries_total",
			Help:      "Publish attempts retried after a transient failure",
		})
		pr.queueDepth = prom.NewGauge(prom.GaugeOpts{
			Namespace: "gitlyte",
			Name:      "queue_depth",
			Help:      "Generation jobs currently waiting in the queue",
		})
		reg.MustRegister(pr.generationDuration, pr.stageDuration, pr.sectionDuration, pr.llmCalls, pr.refinementIterations, pr.guardWait, pr.publishRetries, pr.queueDepth)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveGenerationDuration(outcome ResultLabel, d time.Duration) {
	if p == nil || p.generationDuration == nil {
		return
	}
	p.generationDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveSectionDuration(section string, d time.Duration) {
	if p == nil || p.sectionDuration == nil {
		return
	}
	p.sectionDuration.WithLabelValues(section).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncLLMCall(operation, result string) {
	if p == nil || p.llmCalls == nil {
		return
	}
	p.llmCalls.WithLabelValues(operation, result).Inc()
}

func (p *PrometheusRecorder) ObserveRefinementIterations(n int) {
	if p == nil || p.refinementIterations == nil {
		return
	}
	p.refinementIterations.Observe(float64(n))
}

func (p *PrometheusRecorder) ObserveGuardWait(d time.Duration) {
	if p == nil || p.guardWait == nil {
		return
	}
	p.guardWait.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPublishRetry() {
	if p == nil || p.publishRetries == nil {
		return
	}
	p.publishRetries.Inc()
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	if p == nil || p.queueDepth == nil {
		return
	}
	p.queueDepth.Set(float64(n))
}
