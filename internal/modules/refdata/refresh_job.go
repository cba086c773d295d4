package refdata

import (
	"github.com/rs/zerolog"

	"github.com/mpapanik/tariff-scout/internal/domain"
	"github.com/mpapanik/tariff-scout/internal/events"
	"github.com/mpapanik/tariff-scout/internal/telemetry"
)

// Rebuilder consumes a fresh reference snapshot and adds recommendations
// for products that have none yet.
type Rebuilder interface {
	Rebuild(products []domain.Product, replacements []domain.Replacement) int
}

// RefreshJob reloads the reference feeds on a cron schedule and feeds the
// new snapshot to the recommendation registry. Implements scheduler.Job.
type RefreshJob struct {
	store     *Store
	rebuilder Rebuilder
	events    *events.Manager
	log       zerolog.Logger
}

// NewRefreshJob creates a new refresh job
func NewRefreshJob(store *Store, rebuilder Rebuilder, em *events.Manager, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		store:     store,
		rebuilder: rebuilder,
		events:    em,
		log:       log.With().Str("job", "refdata_refresh").Logger(),
	}
}

// Name returns the job name.
func (j *RefreshJob) Name() string {
	return "refdata_refresh"
}

// Run reloads all feeds and rebuilds recommendations. A partially failed
// load still swaps in what did parse and still triggers a rebuild; the
// error is surfaced for the scheduler to log.
func (j *RefreshJob) Run() error {
	loadErr := j.store.Load()

	telemetry.RefdataReloads.Inc()

	products, replacements, tariffs := j.store.Counts()
	j.events.Emit(events.RefdataReloaded, "refdata", map[string]interface{}{
		"products":     products,
		"replacements": replacements,
		"tariffs":      tariffs,
	})

	added := j.rebuilder.Rebuild(j.store.Products(), j.store.Replacements())
	j.log.Info().
		Int("products", products).
		Int("added_recommendations", added).
		Msg("Reference data refreshed")

	return loadErr
}
