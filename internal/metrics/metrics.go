// Package metrics records what one digest run did. Values live on a private
// Prometheus registry that can be pushed to a Pushgateway when the run ends.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	namespace = "ainews"
	job       = "ainews_digest"
)

// Pipeline stages reported through SetStage.
const (
	StageFetched  = "fetched"
	StageFresh    = "fresh"
	StageUnique   = "unique"
	StageClusters = "clusters"
	StageSelected = "selected"
	StageDigests  = "digests"
)

type Metrics struct {
	mu    sync.Mutex
	stats Stats

	registry        *prometheus.Registry
	stageItems      *prometheus.GaugeVec
	feedErrors      prometheus.Counter
	modelFallbacks  prometheus.Counter
	summariesFailed prometheus.Counter
	digestsSent     *prometheus.CounterVec
	notifyErrors    prometheus.Counter
	runDuration     prometheus.Gauge
	lastSuccess     prometheus.Gauge
}

// Stats is a plain copy of the run's numbers for the final log line.
type Stats struct {
	Stages          map[string]int
	FeedErrors      int
	ModelFallbacks  int
	SummariesFailed int
	DigestsSent     int
	NotifyErrors    int
	RunDuration     time.Duration
	LastSuccess     time.Time
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		stats:    Stats{Stages: map[string]int{}},
		registry: reg,
		stageItems: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_items",
			Help:      "Items left after each pipeline stage in the last run",
		}, []string{"stage"}),
		feedErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_errors_total",
			Help:      "Feeds that could not be fetched or parsed",
		}),
		modelFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_score_fallbacks_total",
			Help:      "Clusters scored with the default model score",
		}),
		summariesFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_failed_total",
			Help:      "Selected clusters dropped because summarization failed",
		}),
		digestsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "digests_sent_total",
			Help:      "Digest items delivered, by channel",
		}, []string{"channel"}),
		notifyErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_errors_total",
			Help:      "Failed digest deliveries",
		}),
		runDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that finished",
		}),
	}
}

// Registry exposes the collectors, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) SetStage(stage string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Stages[stage] = n
	m.stageItems.WithLabelValues(stage).Set(float64(n))
}

func (m *Metrics) IncrementFeedErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.FeedErrors++
	m.feedErrors.Inc()
}

func (m *Metrics) IncrementModelFallbacks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.ModelFallbacks++
	m.modelFallbacks.Inc()
}

func (m *Metrics) IncrementSummariesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.SummariesFailed++
	m.summariesFailed.Inc()
}

func (m *Metrics) AddDigestsSent(channel string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.DigestsSent += n
	m.digestsSent.WithLabelValues(channel).Add(float64(n))
}

func (m *Metrics) IncrementNotifyErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.NotifyErrors++
	m.notifyErrors.Inc()
}

// RecordRun stores the run duration and marks the run as finished at end.
func (m *Metrics) RecordRun(duration time.Duration, end time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.RunDuration = duration
	m.stats.LastSuccess = end
	m.runDuration.Set(duration.Seconds())
	m.lastSuccess.Set(float64(end.Unix()))
}

func (m *Metrics) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Stages = make(map[string]int, len(m.stats.Stages))
	for k, v := range m.stats.Stages {
		s.Stages[k] = v
	}
	return s
}

// Push sends every collector to the Pushgateway at url, grouped by runID.
func (m *Metrics) Push(ctx context.Context, url, runID string) error {
	err := push.New(url, job).
		Gatherer(m.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
