package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"method", "endpoint"},
	)

	// 引擎指标
	CheckinTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pillar_checkin_transitions_total",
			Help: "Check-in state transitions by kind (completed, uncompleted, unchanged)",
		},
		[]string{"kind"},
	)

	KarmaAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pillar_karma_points_total",
			Help: "Karma points granted by reason",
		},
		[]string{"reason"},
	)

	BadgesUnlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pillar_badges_unlocked_total",
			Help: "Badges unlocked by slug",
		},
		[]string{"badge"},
	)

	InsightsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pillar_insights_total",
			Help: "Insight drafts generated and saved",
		},
		[]string{"stage"},
	)

	RuleFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pillar_rule_failures_total",
			Help: "Badge and insight rule failures",
		},
		[]string{"pass", "rule"},
	)

	JobEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pillar_jobs_total",
			Help: "Background job outcomes (done, retry, failed, dropped)",
		},
		[]string{"job", "outcome"},
	)
)

var registerOnce sync.Once

// Init 注册全部指标，可重复调用
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			CheckinTransitions,
			KarmaAwarded,
			BadgesUnlocked,
			InsightsGenerated,
			RuleFailures,
			JobEvents,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
