package refdata

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/mpapanik/tariff-scout/internal/domain"
)

// Paths names the three reference feeds.
type Paths struct {
	Products     string
	Replacements string
	Tariffs      string
}

// Store holds the loaded reference collections behind a lock so the
// refresh job can swap them while readers aggregate.
type Store struct {
	mu           sync.RWMutex
	products     []domain.Product
	replacements []domain.Replacement
	tariffs      []domain.TariffEntry

	loader *Loader
	paths  Paths
	log    zerolog.Logger
}

// NewStore creates a new reference data store
func NewStore(loader *Loader, paths Paths, log zerolog.Logger) *Store {
	return &Store{
		loader: loader,
		paths:  paths,
		log:    log.With().Str("component", "refdata_store").Logger(),
	}
}

// Load reads all three feeds and replaces the store contents. A feed that
// fails to load leaves that collection empty; the first error is returned
// for the caller to report.
func (s *Store) Load() error {
	products, perr := s.loader.LoadProducts(s.paths.Products)
	replacements, rerr := s.loader.LoadReplacements(s.paths.Replacements)
	tariffs, terr := s.loader.LoadTariffs(s.paths.Tariffs)

	s.mu.Lock()
	s.products = products
	s.replacements = replacements
	s.tariffs = tariffs
	s.mu.Unlock()

	for _, err := range []error{perr, rerr, terr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Products returns a snapshot of the product collection.
func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Replacements returns a snapshot of the replacement collection.
func (s *Store) Replacements() []domain.Replacement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Replacement, len(s.replacements))
	copy(out, s.replacements)
	return out
}

// Tariffs returns a snapshot of the tariff collection.
func (s *Store) Tariffs() []domain.TariffEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TariffEntry, len(s.tariffs))
	copy(out, s.tariffs)
	return out
}

// Counts returns collection sizes for status reporting.
func (s *Store) Counts() (products, replacements, tariffs int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), len(s.replacements), len(s.tariffs)
}
