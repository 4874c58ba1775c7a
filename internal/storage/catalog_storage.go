package storage

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/shard-legends/economy-service/internal/catalog"
)

// CatalogStorage implements upgrade definition loading using PostgreSQL
type CatalogStorage struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewCatalogStorage creates a new catalog storage
func NewCatalogStorage(pool *pgxpool.Pool, logger *slog.Logger) catalog.Repository {
	return &CatalogStorage{
		pool:   pool,
		logger: logger,
	}
}

// LoadAll returns every upgrade definition from the catalog table.
// effect_curve is nullable: older rows predate the column and get the
// legacy mapping applied by the catalog on load.
func (s *CatalogStorage) LoadAll(ctx context.Context) ([]catalog.Definition, error) {
	query := `
		SELECT upgrade_id, name, COALESCE(description, ''), category,
		       base_cost, cost_multiplier, base_effect, effect_multiplier,
		       COALESCE(tap_bonus, 0), COALESCE(hourly_bonus, 0),
		       COALESCE(effect_curve, ''),
		       max_level, required_level,
		       COALESCE(prerequisite_upgrade_id, ''), COALESCE(prerequisite_level, 0),
		       COALESCE(total_owned_levels, 0)
		FROM economy.upgrade_definitions
		ORDER BY upgrade_id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		s.logger.Error("Failed to load upgrade definitions", "error", err)
		return nil, errors.Wrap(err, "failed to query upgrade definitions")
	}
	defer rows.Close()

	var defs []catalog.Definition
	for rows.Next() {
		var def catalog.Definition
		var category, curve string
		err := rows.Scan(
			&def.ID,
			&def.Name,
			&def.Description,
			&category,
			&def.BaseCost,
			&def.CostMultiplier,
			&def.BaseEffect,
			&def.EffectMultiplier,
			&def.TapBonus,
			&def.HourlyBonus,
			&curve,
			&def.MaxLevel,
			&def.RequiredLevel,
			&def.Unlock.PrerequisiteUpgradeID,
			&def.Unlock.PrerequisiteLevel,
			&def.Unlock.TotalOwnedLevels,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan upgrade definition row")
		}

		def.Category = catalog.Category(category)
		def.EffectCurve = catalog.CurveKind(curve)
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read upgrade definition rows")
	}

	s.logger.Debug("Upgrade definitions loaded", "count", len(defs))
	return defs, nil
}
