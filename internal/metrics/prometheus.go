package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	usersListed    prometheus.Counter
	userMutations  *prometheus.CounterVec
	listCache      *prometheus.CounterVec
	remoteCalls    *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
}

// NewPrometheus creates a recorder with its own registry, so several
// instances can coexist in tests.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		usersListed: factory.NewCounter(prometheus.CounterOpts{
			Name: "userdesk_users_listed_total",
			Help: "Total number of user list requests served",
		}),
		userMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "userdesk_user_mutations_total",
			Help: "Total number of user mutations by operation",
		}, []string{"op"}),
		listCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "userdesk_list_cache_lookups_total",
			Help: "User list cache lookups by result",
		}, []string{"result"}),
		remoteCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "userdesk_remote_calls_total",
			Help: "Console remote calls by operation and outcome",
		}, []string{"op", "outcome"}),
		remoteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "userdesk_remote_call_duration_seconds",
			Help:    "Duration of console remote calls in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

// Handler returns the exposition handler for this recorder's registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncUsersListed() { p.usersListed.Inc() }

func (p *PrometheusRecorder) IncUserCreated() { p.userMutations.WithLabelValues("create").Inc() }

func (p *PrometheusRecorder) IncUserUpdated() { p.userMutations.WithLabelValues("update").Inc() }

func (p *PrometheusRecorder) IncUserDeleted() { p.userMutations.WithLabelValues("delete").Inc() }

func (p *PrometheusRecorder) IncListCacheHit() { p.listCache.WithLabelValues("hit").Inc() }

func (p *PrometheusRecorder) IncListCacheMiss() { p.listCache.WithLabelValues("miss").Inc() }

func (p *PrometheusRecorder) ObserveRemoteCall(op, outcome string, duration time.Duration) {
	p.remoteCalls.WithLabelValues(op, outcome).Inc()
	p.remoteDuration.WithLabelValues(op).Observe(duration.Seconds())
}
