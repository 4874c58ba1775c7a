package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/shard-legends/economy-service/internal/service"
)

// PlayerStorage implements player economic state access using PostgreSQL
type PlayerStorage struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPlayerStorage creates a new player storage
func NewPlayerStorage(pool *pgxpool.Pool, logger *slog.Logger) service.PlayerRepository {
	return &PlayerStorage{
		pool:   pool,
		logger: logger,
	}
}

// GetPlayer returns the player's economic state, or nil when absent
func (s *PlayerStorage) GetPlayer(ctx context.Context, playerID uuid.UUID) (*service.PlayerState, error) {
	query := `
		SELECT player_id, currency, player_level, tap_income, hourly_income,
		       energy_capacity, energy, last_accrual_at
		FROM economy.players
		WHERE player_id = $1
	`

	state := &service.PlayerState{}
	err := s.pool.QueryRow(ctx, query, playerID).Scan(
		&state.PlayerID,
		&state.Currency,
		&state.PlayerLevel,
		&state.TapIncome,
		&state.HourlyIncome,
		&state.EnergyCapacity,
		&state.Energy,
		&state.LastAccrualAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug("Player not found", "player_id", playerID)
			return nil, nil
		}

		s.logger.Error("Failed to get player state", "player_id", playerID, "error", err)
		return nil, errors.Wrap(err, "failed to query player state")
	}

	return state, nil
}

// GetOwnedLevels returns the player's owned upgrade levels. Upgrades
// without a row are simply absent from the map (level 0).
func (s *PlayerStorage) GetOwnedLevels(ctx context.Context, playerID uuid.UUID) (map[string]int, error) {
	query := `
		SELECT upgrade_id, level
		FROM economy.player_upgrades
		WHERE player_id = $1
	`

	rows, err := s.pool.Query(ctx, query, playerID)
	if err != nil {
		s.logger.Error("Failed to get owned upgrades", "player_id", playerID, "error", err)
		return nil, errors.Wrap(err, "failed to query owned upgrades")
	}
	defer rows.Close()

	owned := make(map[string]int)
	for rows.Next() {
		var upgradeID string
		var level int
		if err := rows.Scan(&upgradeID, &level); err != nil {
			return nil, errors.Wrap(err, "failed to scan owned upgrade row")
		}
		owned[upgradeID] = level
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read owned upgrade rows")
	}

	return owned, nil
}

// UpdateCurrency sets the player's currency balance
func (s *PlayerStorage) UpdateCurrency(ctx context.Context, playerID uuid.UUID, currency int64) error {
	query := `
		UPDATE economy.players
		SET currency = $2
		WHERE player_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, playerID, currency)
	if err != nil {
		s.logger.Error("Failed to update currency", "player_id", playerID, "currency", currency, "error", err)
		return errors.Wrap(err, "failed to update currency")
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("no player row for %s", playerID)
	}

	s.logger.Debug("Currency updated", "player_id", playerID, "currency", currency)
	return nil
}

// UpsertOwnedLevel sets the player's level for one upgrade
func (s *PlayerStorage) UpsertOwnedLevel(ctx context.Context, playerID uuid.UUID, upgradeID string, level int) error {
	query := `
		INSERT INTO economy.player_upgrades (player_id, upgrade_id, level, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (player_id, upgrade_id)
		DO UPDATE SET level = EXCLUDED.level, updated_at = NOW()
	`

	if _, err := s.pool.Exec(ctx, query, playerID, upgradeID, level); err != nil {
		s.logger.Error("Failed to upsert owned upgrade level",
			"player_id", playerID,
			"upgrade_id", upgradeID,
			"level", level,
			"error", err)
		return errors.Wrap(err, "failed to upsert owned upgrade level")
	}

	s.logger.Debug("Owned upgrade level updated",
		"player_id", playerID,
		"upgrade_id", upgradeID,
		"level", level)
	return nil
}

// UpdateDerivedStats persists recomputed stats
func (s *PlayerStorage) UpdateDerivedStats(ctx context.Context, playerID uuid.UUID, stats service.DerivedStats) error {
	query := `
		UPDATE economy.players
		SET tap_income = $2, hourly_income = $3, energy_capacity = $4
		WHERE player_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, playerID, stats.TapIncome, stats.HourlyIncome, stats.EnergyCapacity)
	if err != nil {
		s.logger.Error("Failed to update derived stats", "player_id", playerID, "error", err)
		return errors.Wrap(err, "failed to update derived stats")
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("no player row for %s", playerID)
	}

	s.logger.Debug("Derived stats updated",
		"player_id", playerID,
		"tap_income", stats.TapIncome,
		"hourly_income", stats.HourlyIncome,
		"energy_capacity", stats.EnergyCapacity)
	return nil
}

// UpdateEnergy sets the player's current energy
func (s *PlayerStorage) UpdateEnergy(ctx context.Context, playerID uuid.UUID, energy int64) error {
	query := `
		UPDATE economy.players
		SET energy = $2
		WHERE player_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, playerID, energy)
	if err != nil {
		s.logger.Error("Failed to update energy", "player_id", playerID, "energy", energy, "error", err)
		return errors.Wrap(err, "failed to update energy")
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("no player row for %s", playerID)
	}

	return nil
}

// ApplyOfflineAccrual credits earned currency and advances the accrual
// timestamp in a single statement
func (s *PlayerStorage) ApplyOfflineAccrual(ctx context.Context, playerID uuid.UUID, earned int64, accruedAt time.Time) error {
	query := `
		UPDATE economy.players
		SET currency = currency + $2, last_accrual_at = $3
		WHERE player_id = $1
	`

	tag, err := s.pool.Exec(ctx, query, playerID, earned, accruedAt)
	if err != nil {
		s.logger.Error("Failed to apply offline accrual",
			"player_id", playerID,
			"earned", earned,
			"error", err)
		return errors.Wrap(err, "failed to apply offline accrual")
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("no player row for %s", playerID)
	}

	s.logger.Debug("Offline accrual applied",
		"player_id", playerID,
		"earned", earned,
		"accrued_at", accruedAt)
	return nil
}
