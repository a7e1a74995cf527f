package metrics

import (
	"github.com/ZilDuck/zilliqa-marketplace/internal/entity"
	"github.com/ZilDuck/zilliqa-marketplace/internal/event"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const namespace = "marketplace"

var (
	// Registry holds the marketplace collectors.
	Registry = prometheus.NewRegistry()

	settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "total",
			Help:      "Settlements completed, by kind.",
		},
		[]string{"kind"},
	)

	volume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "volume_qa",
			Help:      "Sale volume in Qa, by kind.",
		},
		[]string{"kind"},
	)

	fees = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "fees_qa",
			Help:      "Royalties and platform fees paid in Qa.",
		},
		[]string{"type"},
	)

	reconciliations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "reconciliations_total",
			Help:      "Failures that left funds in escrow for manual reconciliation.",
		},
	)

	failures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "failed_operations_total",
			Help:      "Rejected trading operations, by operation and error class.",
		},
		[]string{"operation", "class"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		settlements,
		volume,
		fees,
		reconciliations,
		failures,
		httpRequests,
		httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Subscribe counts settlements and reconciliations as they are emitted.
func Subscribe(manager *event.Manager) {
	manager.AddListener(event.SettlementEvent, func(msg interface{}) {
		if settlement, ok := msg.(entity.Settlement); ok {
			RecordSettlement(settlement)
		}
	})
	manager.AddListener(event.ReconciliationEvent, func(msg interface{}) {
		reconciliations.Inc()
	})
}

func RecordSettlement(s entity.Settlement) {
	kind := string(s.Kind)
	settlements.WithLabelValues(kind).Inc()
	volume.WithLabelValues(kind).Add(toFloat(s.Price))
	fees.WithLabelValues("royalty").Add(toFloat(s.Royalty))
	fees.WithLabelValues("platform").Add(toFloat(s.PlatformFee))
}

func RecordFailure(operation, class string) {
	failures.WithLabelValues(operation, class).Inc()
}

// InstrumentHandler is a mux middleware recording request counts and durations by route template.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if template, err := route.GetPathTemplate(); err == nil {
				path = template
			}
		}
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func toFloat(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(amount).Float64()
	if f < 0 {
		return 0
	}
	return f
}
