package httpapi

import (
	"strconv"
	"time"

	"github.com/MatheusdoNAm/AutoAtendimento/internal/till"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	checkout *prometheus.CounterVec
	revenue  *prometheus.CounterVec
}

func newMetrics(reg *prometheus.Registry, t *till.Till) *metrics {
	f := promauto.With(reg)
	m := &metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canteen",
			Name:      "http_requests_total",
		}, []string{"method", "route", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "canteen",
			Name:      "http_request_duration_seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		checkout: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canteen",
			Name:      "checkout_total",
			Help:      "Checkout attempts by payment method and result.",
		}, []string{"method", "result"}),
		revenue: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canteen",
			Name:      "revenue_cents_total",
		}, []string{"method"}),
	}
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "canteen",
		Name:      "till_total_cents",
		Help:      "Cash currently in the till.",
	}, func() float64 { return float64(t.Total()) })
	return m
}

func (self *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		self.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		self.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
