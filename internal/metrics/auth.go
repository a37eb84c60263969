package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth-related Prometheus metrics. These are defined in a standalone package to avoid
// import cycles between the flow/clientauth packages and HTTP packages.

var (
	ClientAuthOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "client_auth_outcomes_total",
		Help: "Resultados de autenticación de clients por estrategia",
	}, []string{"strategy", "outcome"})

	AttestationVerdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webauthn_attestation_verdicts_total",
		Help: "Veredictos de verificación de attestation por formato",
	}, []string{"format", "outcome"})

	FlowStepExits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_flow_step_exits_total",
		Help: "Saltos de la cadena de autenticación por paso",
	}, []string{"step"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_ms",
		Help:    "Latencia de requests HTTP en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"path", "status"})
)

// RegisterAuth registers the gateway metrics on the given registry (or default if nil).
func RegisterAuth(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		ClientAuthOutcomes,
		AttestationVerdicts,
		FlowStepExits,
		HTTPRequestDuration,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
