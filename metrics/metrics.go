package metrics

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"food-delivery/models"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "food_delivery",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "food_delivery",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "food_delivery",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ordersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "food_delivery",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Total number of orders placed.",
		},
	)

	orderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "food_delivery",
			Subsystem: "orders",
			Name:      "status_changes_total",
			Help:      "Order status transitions.",
		},
		[]string{"from", "to"},
	)

	deliveredRevenue = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "food_delivery",
			Subsystem: "orders",
			Name:      "delivered_revenue_total",
			Help:      "Sum of totals of delivered orders.",
		},
	)

	ordersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "food_delivery",
			Subsystem: "orders",
			Name:      "rejected_total",
			Help:      "Orders that could not be placed, by reason.",
		},
		[]string{"reason"},
	)

	cronRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "food_delivery",
			Subsystem: "cron",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs.",
		},
		[]string{"job", "success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ordersCreated,
		orderTransitions,
		deliveredRevenue,
		ordersRejected,
		cronRuns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Installed with mux.Router.Use so the path label is the route template.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := routePath(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// RecordOrderRejected counts an order that failed to be placed.
func RecordOrderRejected(reason string) {
	ordersRejected.WithLabelValues(reason).Inc()
}

// RecordCronRun counts a scheduled job run.
func RecordCronRun(job string, success bool) {
	cronRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
}

// Orders counts order lifecycle events. It is a services.Notifier.
type Orders struct{}

func (Orders) OrderCreated(_ context.Context, _ *models.Order) {
	ordersCreated.Inc()
}

func (Orders) OrderStatusChanged(_ context.Context, o *models.Order, from string) {
	orderTransitions.WithLabelValues(from, o.Status).Inc()
	if o.Status == models.OrderStatusDelivered {
		deliveredRevenue.Add(o.Total.InexactFloat64())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Hijack lets websocket upgrades pass through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
