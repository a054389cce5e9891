package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bootstrap resolution sources.
const (
	SourcePush    = "push"
	SourcePull    = "pull"
	SourceTimeout = "timeout"
)

// Profile load outcomes.
const (
	OutcomeFound        = "found"
	OutcomeMissing      = "missing"
	OutcomeUnauthorized = "unauthorized"
	OutcomeError        = "error"
)

// Registry lookup results.
const (
	RegistryValid       = "valid"
	RegistryNotFound    = "not_found"
	RegistryRateLimited = "rate_limited"
	RegistryError       = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	BootstrapResolutions *prometheus.CounterVec
	ProfileLoads         *prometheus.CounterVec
	ProfileRepairs       prometheus.Counter
	ForcedSignOuts       prometheus.Counter
	RegistryLookups      *prometheus.CounterVec
	SignUps              prometheus.Counter
	SignIns              prometheus.Counter
}

// New creates and registers all Prometheus metrics. Passing nil registers on
// the default registerer; tests pass their own registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		BootstrapResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "usemy_bootstrap_resolutions_total",
			Help: "Bootstrap loading transitions by which source resolved first",
		}, []string{"source"}),
		ProfileLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "usemy_profile_loads_total",
			Help: "Profile load attempts by outcome",
		}, []string{"outcome"}),
		ProfileRepairs: factory.NewCounter(prometheus.CounterOpts{
			Name: "usemy_profile_repairs_total",
			Help: "Profiles synthesized client-side after the backend trigger never produced one",
		}),
		ForcedSignOuts: factory.NewCounter(prometheus.CounterOpts{
			Name: "usemy_forced_signouts_total",
			Help: "Sessions torn down because the profile invariant was violated or the token was rejected",
		}),
		RegistryLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "usemy_registry_lookups_total",
			Help: "SIRET registry lookups by result",
		}, []string{"result"}),
		SignUps: factory.NewCounter(prometheus.CounterOpts{
			Name: "usemy_signups_total",
			Help: "Successful sign-ups",
		}),
		SignIns: factory.NewCounter(prometheus.CounterOpts{
			Name: "usemy_signins_total",
			Help: "Successful sign-ins",
		}),
	}
}
