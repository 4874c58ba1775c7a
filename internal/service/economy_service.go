package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/shard-legends/economy-service/internal/catalog"
	"github.com/shard-legends/economy-service/internal/config"
	"github.com/shard-legends/economy-service/internal/models"
	"github.com/shard-legends/economy-service/pkg/metrics"
)

// economyService implements EconomyService
type economyService struct {
	players PlayerRepository
	catalog CatalogProvider
	config  *config.Config
	locks   *PlayerLocks
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewEconomyService creates a new economy service
func NewEconomyService(
	players PlayerRepository,
	cat CatalogProvider,
	cfg *config.Config,
	locks *PlayerLocks,
	logger *slog.Logger,
	m *metrics.Metrics,
) EconomyService {
	return &economyService{
		players: players,
		catalog: cat,
		config:  cfg,
		locks:   locks,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

func (s *economyService) floors() StatFloors {
	return StatFloors{
		TapIncome:      s.config.BaseTapIncome,
		HourlyIncome:   s.config.BaseHourlyIncome,
		EnergyCapacity: s.config.BaseEnergyCapacity,
	}
}

// ListUpgrades returns every catalog upgrade with the player's level, next cost and lock state
func (s *economyService) ListUpgrades(ctx context.Context, playerID uuid.UUID) (*models.UpgradeListResponse, error) {
	state, err := s.players.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, storeUnavailable("load player", err)
	}
	if state == nil {
		return nil, ErrPlayerNotFound
	}

	owned, err := s.players.GetOwnedLevels(ctx, playerID)
	if err != nil {
		return nil, storeUnavailable("load owned upgrades", err)
	}

	defs := s.catalog.All()
	items := make([]models.UpgradeListItem, 0, len(defs))
	for _, def := range defs {
		level := ownedLevel(owned, def.ID)

		item := models.UpgradeListItem{
			Definition: models.UpgradeView{
				ID:            def.ID,
				Name:          def.Name,
				Description:   def.Description,
				Category:      string(def.Category),
				MaxLevel:      def.MaxLevel,
				RequiredLevel: def.RequiredLevel,
			},
			CurrentLevel: level,
			Locked:       !unlocked(state.PlayerLevel, owned, def),
		}

		if cost := catalog.Cost(def, level); !math.IsInf(cost, 1) {
			nextCost := int64(cost)
			item.NextCost = &nextCost
		}

		items = append(items, item)
	}

	return &models.UpgradeListResponse{Upgrades: items}, nil
}

// Purchase buys the next level of an upgrade for the player.
//
// Every precondition is checked before anything is written; a failed
// precondition mutates nothing. The write sequence is currency, level,
// stats — and if a later write fails, the currency deduction is rolled
// back by a compensating restore. A failed restore escalates to a
// ReconciliationError; that balance needs out-of-band repair.
func (s *economyService) Purchase(ctx context.Context, playerID uuid.UUID, upgradeID string) (*models.PurchaseResponse, error) {
	started := s.now()

	def, ok := s.catalog.Get(upgradeID)
	if !ok {
		s.recordPurchase("unknown_upgrade", started)
		return nil, ErrUnknownUpgrade
	}

	// Serialize all mutating operations for this player
	lock := s.locks.get(playerID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.players.GetPlayer(ctx, playerID)
	if err != nil {
		s.recordPurchase("store_error", started)
		return nil, storeUnavailable("load player", err)
	}
	if state == nil {
		s.recordPurchase("player_not_found", started)
		return nil, ErrPlayerNotFound
	}

	owned, err := s.players.GetOwnedLevels(ctx, playerID)
	if err != nil {
		s.recordPurchase("store_error", started)
		return nil, storeUnavailable("load owned upgrades", err)
	}

	if !unlocked(state.PlayerLevel, owned, def) {
		s.recordPurchase("locked", started)
		return nil, ErrUpgradeLocked
	}

	level := ownedLevel(owned, upgradeID)
	if level >= def.MaxLevel {
		s.recordPurchase("max_level", started)
		return nil, ErrMaxLevelReached
	}

	cost := catalog.Cost(def, level)
	if math.IsInf(cost, 1) {
		s.recordPurchase("max_level", started)
		return nil, ErrMaxLevelReached
	}
	costPaid := int64(cost)

	if state.Currency < costPaid {
		s.recordPurchase("insufficient_funds", started)
		return nil, &InsufficientFundsError{Required: costPaid, Balance: state.Currency}
	}

	// (a) deduct currency
	newCurrency := state.Currency - costPaid
	if err := s.players.UpdateCurrency(ctx, playerID, newCurrency); err != nil {
		s.recordPurchase("store_error", started)
		return nil, storeUnavailable("deduct currency", err)
	}

	// (b) persist the new level
	newLevel := level + 1
	if err := s.players.UpsertOwnedLevel(ctx, playerID, upgradeID, newLevel); err != nil {
		return nil, s.rollbackCurrency(ctx, playerID, upgradeID, state.Currency, started, err)
	}

	// (c) recompute and persist derived stats from the full owned map
	owned[upgradeID] = newLevel
	stats := recomputeStats(s.catalog, owned, s.floors())
	if err := s.players.UpdateDerivedStats(ctx, playerID, stats); err != nil {
		return nil, s.rollbackCurrency(ctx, playerID, upgradeID, state.Currency, started, err)
	}

	s.logger.Info("Upgrade purchased",
		"player_id", playerID,
		"upgrade_id", upgradeID,
		"new_level", newLevel,
		"cost_paid", costPaid,
		"currency", newCurrency)

	s.recordPurchase("success", started)
	if s.metrics != nil {
		s.metrics.PurchaseCostValues.Observe(float64(costPaid))
	}

	return &models.PurchaseResponse{
		UpgradeID: upgradeID,
		NewLevel:  newLevel,
		CostPaid:  costPaid,
		Currency:  newCurrency,
		Stats: models.StatsView{
			TapIncome:      stats.TapIncome,
			HourlyIncome:   stats.HourlyIncome,
			EnergyCapacity: stats.EnergyCapacity,
		},
	}, nil
}

// rollbackCurrency restores the pre-transaction balance after a failed
// purchase step. The restore is attempted once; if it also fails the
// error escalates to a ReconciliationError.
func (s *economyService) rollbackCurrency(ctx context.Context, playerID uuid.UUID, upgradeID string, previousCurrency int64, started time.Time, cause error) error {
	s.logger.Warn("Purchase failed after currency deduction, rolling back",
		"player_id", playerID,
		"upgrade_id", upgradeID,
		"restore_currency", previousCurrency,
		"error", cause)

	if restoreErr := s.players.UpdateCurrency(ctx, playerID, previousCurrency); restoreErr != nil {
		reconciliation := &ReconciliationError{
			PlayerID:        playerID,
			UpgradeID:       upgradeID,
			RestoreCurrency: previousCurrency,
			Cause:           cause,
			RestoreErr:      restoreErr,
		}

		s.logger.Error("FATAL: currency rollback failed, manual reconciliation required",
			"player_id", playerID,
			"upgrade_id", upgradeID,
			"restore_currency", previousCurrency,
			"cause", cause,
			"restore_error", restoreErr)

		s.recordPurchase("reconciliation_failure", started)
		if s.metrics != nil {
			s.metrics.ReconciliationFailures.Inc()
		}
		return reconciliation
	}

	s.recordPurchase("rolled_back", started)
	return storeUnavailable("persist purchase", cause)
}

// ClaimOffline credits capped offline earnings since the player's last
// accrual. The accrual timestamp always advances to now, even when
// nothing was earned, so repeated calls never credit the same idle
// window twice.
func (s *economyService) ClaimOffline(ctx context.Context, playerID uuid.UUID) (*models.OfflineClaimResponse, error) {
	lock := s.locks.get(playerID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.players.GetPlayer(ctx, playerID)
	if err != nil {
		s.recordOfflineClaim("store_error", 0)
		return nil, storeUnavailable("load player", err)
	}
	if state == nil {
		s.recordOfflineClaim("player_not_found", 0)
		return nil, ErrPlayerNotFound
	}

	now := s.now()
	elapsedMinutes := int(now.Sub(state.LastAccrualAt) / time.Minute)
	if elapsedMinutes < 0 {
		elapsedMinutes = 0
	}

	capMinutes := s.config.OfflineBaseCapMin
	if s.config.OfflineCapUpgradeID != "" {
		owned, err := s.players.GetOwnedLevels(ctx, playerID)
		if err != nil {
			s.recordOfflineClaim("store_error", 0)
			return nil, storeUnavailable("load owned upgrades", err)
		}
		if def, ok := s.catalog.Get(s.config.OfflineCapUpgradeID); ok {
			bonus := catalog.CumulativeEffect(def, ownedLevel(owned, def.ID))
			capMinutes += int(math.Floor(bonus))
		}
	}

	minutesApplied := elapsedMinutes
	if minutesApplied > capMinutes {
		minutesApplied = capMinutes
	}

	// floor((minutes / 60) × hourlyIncome), in integer arithmetic
	earned := int64(minutesApplied) * state.HourlyIncome / 60

	if err := s.players.ApplyOfflineAccrual(ctx, playerID, earned, now); err != nil {
		s.recordOfflineClaim("store_error", 0)
		return nil, storeUnavailable("apply offline accrual", err)
	}

	s.logger.Info("Offline earnings claimed",
		"player_id", playerID,
		"earned", earned,
		"minutes_applied", minutesApplied,
		"cap_minutes", capMinutes,
		"elapsed_minutes", elapsedMinutes)

	s.recordOfflineClaim("success", minutesApplied)

	return &models.OfflineClaimResponse{
		Earned:         earned,
		MinutesApplied: minutesApplied,
		CapMinutes:     capMinutes,
		Currency:       state.Currency + earned,
	}, nil
}

func (s *economyService) recordPurchase(status string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordPurchase(status, s.now().Sub(started).Seconds())
}

func (s *economyService) recordOfflineClaim(status string, minutesApplied int) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordOfflineClaim(status, minutesApplied)
}
