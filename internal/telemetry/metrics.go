package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	RecommendationsBuilt = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sourcing_recommendations_built_total",
		Help: "Recommendations produced from reference data",
	})

	Approvals = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sourcing_approvals_total",
		Help: "Recommendations approved",
	})

	Rejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sourcing_rejections_total",
		Help: "Recommendations rejected",
	})

	AlternativeFetchFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sourcing_alternative_fetch_failures_total",
		Help: "Failed calls to the recommender service",
	})

	RefdataReloads = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sourcing_refdata_reloads_total",
		Help: "Reference data reload cycles",
	})
)

// Init registers all collectors. Call once at startup.
func Init() {
	prometheus.MustRegister(
		RecommendationsBuilt,
		Approvals,
		Rejections,
		AlternativeFetchFailures,
		RefdataReloads,
	)
}
