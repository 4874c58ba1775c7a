package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shard-legends/economy-service/internal/catalog"
	"github.com/shard-legends/economy-service/internal/models"
)

// EconomyService defines the main business logic interface for economy operations
type EconomyService interface {
	// ListUpgrades returns every catalog upgrade with the player's level, next cost and lock state
	ListUpgrades(ctx context.Context, playerID uuid.UUID) (*models.UpgradeListResponse, error)

	// Purchase buys the next level of an upgrade for the player
	Purchase(ctx context.Context, playerID uuid.UUID, upgradeID string) (*models.PurchaseResponse, error)

	// ClaimOffline credits capped offline earnings since the player's last accrual
	ClaimOffline(ctx context.Context, playerID uuid.UUID) (*models.OfflineClaimResponse, error)
}

// PlayerState is the per-player economic record held by the store
type PlayerState struct {
	PlayerID       uuid.UUID
	Currency       int64
	PlayerLevel    int
	TapIncome      int64
	HourlyIncome   int64
	EnergyCapacity int64
	Energy         int64
	LastAccrualAt  time.Time
}

// DerivedStats are the stat values recomputed from owned upgrade levels
type DerivedStats struct {
	TapIncome      int64
	HourlyIncome   int64
	EnergyCapacity int64
}

// PlayerRepository defines the interface for player economic state access.
// A nil state with a nil error means the player record is absent.
type PlayerRepository interface {
	// GetPlayer returns the player's economic state, or nil when absent
	GetPlayer(ctx context.Context, playerID uuid.UUID) (*PlayerState, error)

	// GetOwnedLevels returns the player's owned upgrade levels; absent rows mean level 0
	GetOwnedLevels(ctx context.Context, playerID uuid.UUID) (map[string]int, error)

	// UpdateCurrency sets the player's currency balance
	UpdateCurrency(ctx context.Context, playerID uuid.UUID, currency int64) error

	// UpsertOwnedLevel sets the player's level for one upgrade
	UpsertOwnedLevel(ctx context.Context, playerID uuid.UUID, upgradeID string, level int) error

	// UpdateDerivedStats persists recomputed stats
	UpdateDerivedStats(ctx context.Context, playerID uuid.UUID, stats DerivedStats) error

	// UpdateEnergy sets the player's current energy
	UpdateEnergy(ctx context.Context, playerID uuid.UUID, energy int64) error

	// ApplyOfflineAccrual credits earned currency and advances the accrual
	// timestamp in a single write
	ApplyOfflineAccrual(ctx context.Context, playerID uuid.UUID, earned int64, accruedAt time.Time) error
}

// CatalogProvider is the read side of the upgrade catalog used by the service
type CatalogProvider interface {
	// Get returns the definition for the given upgrade id
	Get(id string) (catalog.Definition, bool)

	// All returns the definitions sorted by id
	All() []catalog.Definition
}
