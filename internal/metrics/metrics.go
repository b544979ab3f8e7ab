// Package metrics exposes prometheus counters for login and admission outcomes.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts login and admission outcomes.
type Recorder struct {
	registry  *prometheus.Registry
	logins    *prometheus.CounterVec
	admission *prometheus.CounterVec
}

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checador_login_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		admission: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checador_admission_total",
			Help: "Attendance admission decisions by outcome.",
		}, []string{"outcome"}),
	}
	r.registry.MustRegister(r.logins, r.admission)
	return r
}

// Login records a login outcome. A nil recorder is a no-op.
func (r *Recorder) Login(outcome string) {
	if r == nil {
		return
	}
	r.logins.WithLabelValues(outcome).Inc()
}

// Admission records an admission outcome. A nil recorder is a no-op.
func (r *Recorder) Admission(outcome string) {
	if r == nil {
		return
	}
	r.admission.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the prometheus text format.
func (r *Recorder) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
}
