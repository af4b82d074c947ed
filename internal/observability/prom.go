package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// Accounts
	LoginResults      *prometheus.CounterVec
	TokenIssues       *prometheus.CounterVec
	TokenCacheLookups *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "accounts",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "accounts",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// bcrypt dominates login and signup latency
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "accounts",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "accounts",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "accounts",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),

		LoginResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "accounts",
				Subsystem: "auth",
				Name:      "login_results_total",
				Help:      "Credential checks by result.",
			},
			[]string{"result"}, // result=success|failed
		),
		TokenIssues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "accounts",
				Subsystem: "auth",
				Name:      "token_issues_total",
				Help:      "Tokens handed out at login by outcome.",
			},
			[]string{"outcome"}, // outcome=created|reused
		),
		TokenCacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "accounts",
				Subsystem: "auth",
				Name:      "token_cache_lookups_total",
				Help:      "Token cache lookups by result.",
			},
			[]string{"result"}, // result=hit|miss|error
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.DbQueryDuration, p.DbErrorsTotal, p.LoginResults, p.TokenIssues, p.TokenCacheLookups)

	return p
}

func (p *Prom) ObserveLogin(ok bool) {
	if p == nil {
		return
	}

	result := "failed"
	if ok {
		result = "success"
	}
	p.LoginResults.WithLabelValues(result).Inc()
}

func (p *Prom) ObserveTokenIssue(created bool) {
	if p == nil {
		return
	}

	outcome := "reused"
	if created {
		outcome = "created"
	}
	p.TokenIssues.WithLabelValues(outcome).Inc()
}

func (p *Prom) ObserveTokenCache(result string) {
	if p == nil {
		return
	}
	p.TokenCacheLookups.WithLabelValues(result).Inc()
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}
