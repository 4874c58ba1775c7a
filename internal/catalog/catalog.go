package catalog

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Repository defines the interface for loading upgrade definitions
type Repository interface {
	// LoadAll returns every upgrade definition from the backing store
	LoadAll(ctx context.Context) ([]Definition, error)
}

// Catalog holds an in-memory snapshot of the upgrade definitions.
// Definitions are read once from the repository and cached until
// Invalidate is called; the catalog never polls the store.
type Catalog struct {
	repo        Repository
	tapExemptID string
	logger      *slog.Logger

	mu     sync.RWMutex
	byID   map[string]Definition
	sorted []Definition
}

// New creates a new Catalog. tapExemptID is the tap-income upgrade that
// keeps the additive formula when the legacy curve mapping is applied.
func New(repo Repository, tapExemptID string, logger *slog.Logger) *Catalog {
	return &Catalog{
		repo:        repo,
		tapExemptID: tapExemptID,
		logger:      logger,
	}
}

// Load fetches all definitions from the repository if the snapshot is
// not populated yet. Safe for concurrent use.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.byID != nil
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	defs, err := c.repo.LoadAll(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load upgrade catalog")
	}

	byID := make(map[string]Definition, len(defs))
	sorted := make([]Definition, 0, len(defs))
	for _, def := range defs {
		def = c.normalize(def)
		byID[def.ID] = def
		sorted = append(sorted, def)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	c.mu.Lock()
	c.byID = byID
	c.sorted = sorted
	c.mu.Unlock()

	c.logger.Info("Upgrade catalog loaded", "definitions", len(sorted))
	return nil
}

// Get returns the definition for the given upgrade id
func (c *Catalog) Get(id string) (Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.byID[id]
	return def, ok
}

// All returns the definitions sorted by id
func (c *Catalog) All() []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Definition, len(c.sorted))
	copy(out, c.sorted)
	return out
}

// Invalidate drops the cached snapshot; the next Load re-reads the store
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.byID = nil
	c.sorted = nil
	c.mu.Unlock()

	c.logger.Info("Upgrade catalog invalidated")
}

// normalize fills in the effect curve for rows that predate the
// effect_curve column. The legacy rules: a matching flat bonus means
// linear, tap-income compounds except for the designated exempt id,
// everything else is additive. Rows hitting this path are logged so
// designers can see which definitions still rely on the legacy mapping.
func (c *Catalog) normalize(def Definition) Definition {
	if def.EffectCurve != "" {
		return def
	}

	switch {
	case def.TapBonus != 0 && def.Category == CategoryTapIncome:
		def.EffectCurve = CurveLinear
	case def.HourlyBonus != 0 && (def.Category == CategoryHourlyIncome || def.Category == CategoryPassiveIncome):
		def.EffectCurve = CurveLinear
	case def.Category == CategoryTapIncome && def.ID != c.tapExemptID:
		def.EffectCurve = CurveCompounding
	default:
		def.EffectCurve = CurveAdditive
	}

	c.logger.Warn("Upgrade definition has no effect curve, applied legacy mapping",
		"upgrade_id", def.ID,
		"category", def.Category,
		"curve", def.EffectCurve)

	return def
}
