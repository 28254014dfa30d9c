// Package metrics 定义相似推荐的 Prometheus 指标。
//
// 指标集中在 Collectors 中，注册到调用方提供的 Registerer 上；
// nil *Collectors 的所有方法都是空操作，便于在测试与嵌入场景中省略指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 请求结果
const (
	ResultOK      = "ok"
	ResultEmpty   = "empty"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// 缓存结果
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

type Collectors struct {
	Requests        *prometheus.CounterVec
	Cache           *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	StageDuration   *prometheus.HistogramVec
	Candidates      prometheus.Histogram
	Filtered        *prometheus.CounterVec
}

// New 创建并注册全部指标。reg 为 nil 时只创建不注册。
func New(reg prometheus.Registerer) *Collectors {
	f := promauto.With(reg)
	return &Collectors{
		Requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "itemsim_requests_total",
				Help: "Total number of similar-item requests by result",
			},
			[]string{"result"}, // ok, empty, invalid, error
		),
		Cache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "itemsim_cache_total",
				Help: "Result cache lookups by outcome",
			},
			[]string{"outcome"}, // hit, miss, error
		),
		RequestDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "itemsim_request_duration_seconds",
			Help:    "End-to-end latency of similar-item requests",
			Buckets: prometheus.DefBuckets,
		}),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "itemsim_stage_duration_seconds",
				Help:    "Latency of each pipeline stage",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"stage"},
		),
		Candidates: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "itemsim_candidates",
			Help:    "Number of candidates retrieved per request",
			Buckets: []float64{0, 1, 3, 6, 12, 24, 48, 96},
		}),
		Filtered: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "itemsim_filtered_total",
				Help: "Candidates dropped by business rules",
			},
			[]string{"rule"},
		),
	}
}

func (c *Collectors) ObserveRequest(result string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(result).Inc()
	c.RequestDuration.Observe(elapsed.Seconds())
}

func (c *Collectors) CacheOutcome(outcome string) {
	if c == nil {
		return
	}
	c.Cache.WithLabelValues(outcome).Inc()
}

func (c *Collectors) ObserveStage(stage string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (c *Collectors) ObserveCandidates(n int) {
	if c == nil {
		return
	}
	c.Candidates.Observe(float64(n))
}

func (c *Collectors) IncFiltered(rule string) {
	if c == nil {
		return
	}
	c.Filtered.WithLabelValues(rule).Inc()
}
