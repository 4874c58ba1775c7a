package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shard-legends/economy-service/internal/catalog"
	"github.com/shard-legends/economy-service/internal/config"
)

// Mock implementations
type MockPlayerRepository struct {
	mock.Mock
}

func (m *MockPlayerRepository) GetPlayer(ctx context.Context, playerID uuid.UUID) (*PlayerState, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PlayerState), args.Error(1)
}

func (m *MockPlayerRepository) GetOwnedLevels(ctx context.Context, playerID uuid.UUID) (map[string]int, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockPlayerRepository) UpdateCurrency(ctx context.Context, playerID uuid.UUID, currency int64) error {
	args := m.Called(ctx, playerID, currency)
	return args.Error(0)
}

func (m *MockPlayerRepository) UpsertOwnedLevel(ctx context.Context, playerID uuid.UUID, upgradeID string, level int) error {
	args := m.Called(ctx, playerID, upgradeID, level)
	return args.Error(0)
}

func (m *MockPlayerRepository) UpdateDerivedStats(ctx context.Context, playerID uuid.UUID, stats DerivedStats) error {
	args := m.Called(ctx, playerID, stats)
	return args.Error(0)
}

func (m *MockPlayerRepository) UpdateEnergy(ctx context.Context, playerID uuid.UUID, energy int64) error {
	args := m.Called(ctx, playerID, energy)
	return args.Error(0)
}

func (m *MockPlayerRepository) ApplyOfflineAccrual(ctx context.Context, playerID uuid.UUID, earned int64, accruedAt time.Time) error {
	args := m.Called(ctx, playerID, earned, accruedAt)
	return args.Error(0)
}

func testConfig() *config.Config {
	return &config.Config{
		BaseTapIncome:       1,
		BaseHourlyIncome:    10,
		BaseEnergyCapacity:  100,
		RegenIntervalSec:    5,
		RegenAmount:         3,
		OfflineBaseCapMin:   180,
		OfflineCapUpgradeID: "offline_cap",
		TapExemptUpgradeID:  "tap_power",
	}
}

func economyCatalog() *staticCatalog {
	return newStaticCatalog(
		catalog.Definition{
			ID: "energy_tank", Category: catalog.CategoryEnergyCapacity,
			BaseCost: 100, CostMultiplier: 1.3,
			BaseEffect: 20, EffectMultiplier: 10, EffectCurve: catalog.CurveAdditive,
			MaxLevel: 10,
		},
		catalog.Definition{
			ID: "golden_finger", Category: catalog.CategoryTapIncome,
			BaseCost: 200, CostMultiplier: 1.5,
			TapBonus: 5, EffectCurve: catalog.CurveLinear,
			MaxLevel: 5,
		},
		catalog.Definition{
			ID: "offline_cap", Category: catalog.CategorySpecial,
			BaseCost: 500, CostMultiplier: 2.0,
			EffectMultiplier: 30, EffectCurve: catalog.CurveLinear,
			MaxLevel: 6,
		},
		catalog.Definition{
			ID: "endgame_rig", Category: catalog.CategoryHourlyIncome,
			BaseCost: 1000, CostMultiplier: 1.8,
			BaseEffect: 500, EffectMultiplier: 100, EffectCurve: catalog.CurveAdditive,
			MaxLevel: 3, RequiredLevel: 50,
		},
	)
}

func setupEconomyService() (*economyService, *MockPlayerRepository) {
	mockRepo := &MockPlayerRepository{}
	svc := NewEconomyService(mockRepo, economyCatalog(), testConfig(), NewPlayerLocks(), slog.Default(), nil).(*economyService)
	return svc, mockRepo
}

func basePlayer(playerID uuid.UUID) *PlayerState {
	return &PlayerState{
		PlayerID:       playerID,
		Currency:       500,
		PlayerLevel:    1,
		TapIncome:      1,
		HourlyIncome:   10,
		EnergyCapacity: 100,
		Energy:         100,
		LastAccrualAt:  time.Now(),
	}
}

func TestPurchase_Success(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(basePlayer(playerID), nil)
	mockRepo.On("GetOwnedLevels", mock.Anything, playerID).Return(map[string]int{}, nil)
	mockRepo.On("UpdateCurrency", mock.Anything, playerID, int64(400)).Return(nil)
	mockRepo.On("UpsertOwnedLevel", mock.Anything, playerID, "energy_tank", 1).Return(nil)
	mockRepo.On("UpdateDerivedStats", mock.Anything, playerID, DerivedStats{
		TapIncome:      1,
		HourlyIncome:   10,
		EnergyCapacity: 130, // 100 base + 20 + 10×1
	}).Return(nil)

	response, err := svc.Purchase(context.Background(), playerID, "energy_tank")

	assert.NoError(t, err)
	assert.Equal(t, "energy_tank", response.UpgradeID)
	assert.Equal(t, 1, response.NewLevel)
	assert.Equal(t, int64(100), response.CostPaid)
	assert.Equal(t, int64(400), response.Currency)
	assert.Equal(t, int64(130), response.Stats.EnergyCapacity)
	mockRepo.AssertExpectations(t)
}

func TestPurchase_CostCurve(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	// At level 4 the next one costs floor(100 × 1.3^4) = 285
	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(basePlayer(playerID), nil)
	mockRepo.On("GetOwnedLevels", mock.Anything, playerID).Return(map[string]int{"energy_tank": 4}, nil)
	mockRepo.On("UpdateCurrency", mock.Anything, playerID, int64(215)).Return(nil)
	mockRepo.On("UpsertOwnedLevel", mock.Anything, playerID, "energy_tank", 5).Return(nil)
	mockRepo.On("UpdateDerivedStats", mock.Anything, playerID, mock.Anything).Return(nil)

	response, err := svc.Purchase(context.Background(), playerID, "energy_tank")

	assert.NoError(t, err)
	assert.Equal(t, int64(285), response.CostPaid)
	mockRepo.AssertExpectations(t)
}

func TestPurchase_UnknownUpgrade(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	_, err := svc.Purchase(context.Background(), playerID, "does_not_exist")

	assert.ErrorIs(t, err, ErrUnknownUpgrade)
	mockRepo.AssertNotCalled(t, "GetPlayer", mock.Anything, mock.Anything)
}

func TestPurchase_PlayerNotFound(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(nil, nil)

	_, err := svc.Purchase(context.Background(), playerID, "energy_tank")

	assert.ErrorIs(t, err, ErrPlayerNotFound)
	mockRepo.AssertNotCalled(t, "UpdateCurrency", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_Locked(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	// endgame_rig requires player level 50
	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(basePlayer(playerID), nil)
	mockRepo.On("GetOwnedLevels", mock.Anything, playerID).Return(map[string]int{}, nil)

	_, err := svc.Purchase(context.Background(), playerID, "endgame_rig")

	assert.ErrorIs(t, err, ErrUpgradeLocked)
	mockRepo.AssertNotCalled(t, "UpdateCurrency", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_MaxLevelReached(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(basePlayer(playerID), nil)
	mockRepo.On("GetOwnedLevels", mock.Anything, playerID).Return(map[string]int{"golden_finger": 5}, nil)

	_, err := svc.Purchase(context.Background(), playerID, "golden_finger")

	assert.ErrorIs(t, err, ErrMaxLevelReached)
	mockRepo.AssertNotCalled(t, "UpdateCurrency", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_InsufficientFunds(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	player := basePlayer(playerID)
	player.Currency = 50

	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(player, nil)
	mockRepo.On("GetOwnedLevels", mock.Anything, playerID).Return(map[string]int{}, nil)

	_, err := svc.Purchase(context.Background(), playerID, "energy_tank")

	var insufficientFunds *InsufficientFundsError
	assert.ErrorAs(t, err, &insufficientFunds)
	assert.Equal(t, int64(100), insufficientFunds.Required)
	assert.Equal(t, int64(50), insufficientFunds.Balance)

	// Nothing was written
	mockRepo.AssertNotCalled(t, "UpdateCurrency", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "UpsertOwnedLevel", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_StoreErrorDuringValidation(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(nil, errors.New("connection reset"))

	_, err := svc.Purchase(context.Background(), playerID, "energy_tank")

	var storeErr *StoreUnavailableError
	assert.ErrorAs(t, err, &storeErr)
	mockRepo.AssertNotCalled(t, "UpdateCurrency", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_RollbackOnLevelWriteFailure(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(basePlayer(playerID), nil)
	mockRepo.On("GetOwnedLevels", mock.Anything, playerID).Return(map[string]int{}, nil)
	mockRepo.On("UpdateCurrency", mock.Anything, playerID, int64(400)).Return(nil).Once()
	mockRepo.On("UpsertOwnedLevel", mock.Anything, playerID, "energy_tank", 1).Return(errors.New("write timeout"))
	// Compensating restore to the pre-transaction balance
	mockRepo.On("UpdateCurrency", mock.Anything, playerID, int64(500)).Return(nil).Once()

	_, err := svc.Purchase(context.Background(), playerID, "energy_tank")

	var storeErr *StoreUnavailableError
	assert.ErrorAs(t, err, &storeErr)
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "UpdateDerivedStats", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_RollbackOnStatsWriteFailure(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(basePlayer(playerID), nil)
	mockRepo.On("GetOwnedLevels", mock.Anything, playerID).Return(map[string]int{}, nil)
	mockRepo.On("UpdateCurrency", mock.Anything, playerID, int64(400)).Return(nil).Once()
	mockRepo.On("UpsertOwnedLevel", mock.Anything, playerID, "energy_tank", 1).Return(nil)
	mockRepo.On("UpdateDerivedStats", mock.Anything, playerID, mock.Anything).Return(errors.New("write timeout"))
	mockRepo.On("UpdateCurrency", mock.Anything, playerID, int64(500)).Return(nil).Once()

	_, err := svc.Purchase(context.Background(), playerID, "energy_tank")

	var storeErr *StoreUnavailableError
	assert.ErrorAs(t, err, &storeErr)
	mockRepo.AssertExpectations(t)
}

func TestPurchase_ReconciliationFailure(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(basePlayer(playerID), nil)
	mockRepo.On("GetOwnedLevels", mock.Anything, playerID).Return(map[string]int{}, nil)
	mockRepo.On("UpdateCurrency", mock.Anything, playerID, int64(400)).Return(nil).Once()
	mockRepo.On("UpsertOwnedLevel", mock.Anything, playerID, "energy_tank", 1).Return(errors.New("write timeout"))
	// The restore write fails as well
	mockRepo.On("UpdateCurrency", mock.Anything, playerID, int64(500)).Return(errors.New("still down")).Once()

	_, err := svc.Purchase(context.Background(), playerID, "energy_tank")

	var reconciliation *ReconciliationError
	assert.ErrorAs(t, err, &reconciliation)
	assert.Equal(t, playerID, reconciliation.PlayerID)
	assert.Equal(t, int64(500), reconciliation.RestoreCurrency)
	mockRepo.AssertExpectations(t)
}

func TestListUpgrades(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(basePlayer(playerID), nil)
	mockRepo.On("GetOwnedLevels", mock.Anything, playerID).Return(map[string]int{"golden_finger": 5}, nil)

	response, err := svc.ListUpgrades(context.Background(), playerID)

	assert.NoError(t, err)
	assert.Len(t, response.Upgrades, 4)

	byID := make(map[string]int)
	for i, item := range response.Upgrades {
		byID[item.Definition.ID] = i
	}

	tank := response.Upgrades[byID["energy_tank"]]
	assert.Equal(t, 0, tank.CurrentLevel)
	assert.False(t, tank.Locked)
	if assert.NotNil(t, tank.NextCost) {
		assert.Equal(t, int64(100), *tank.NextCost)
	}

	// Maxed upgrades carry no next cost
	finger := response.Upgrades[byID["golden_finger"]]
	assert.Equal(t, 5, finger.CurrentLevel)
	assert.Nil(t, finger.NextCost)

	// Player level 1 < required 50
	rig := response.Upgrades[byID["endgame_rig"]]
	assert.True(t, rig.Locked)
}

func TestClaimOffline_CapsElapsedTime(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	now := time.Now()
	svc.now = func() time.Time { return now }

	player := basePlayer(playerID)
	player.HourlyIncome = 250
	player.LastAccrualAt = now.Add(-400 * time.Minute)

	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(player, nil)
	mockRepo.On("GetOwnedLevels", mock.Anything, playerID).Return(map[string]int{}, nil)
	mockRepo.On("ApplyOfflineAccrual", mock.Anything, playerID, int64(750), now).Return(nil)

	response, err := svc.ClaimOffline(context.Background(), playerID)

	assert.NoError(t, err)
	assert.Equal(t, 180, response.MinutesApplied)
	assert.Equal(t, 180, response.CapMinutes)
	assert.Equal(t, int64(750), response.Earned) // floor(180/60 × 250)
	mockRepo.AssertExpectations(t)
}

func TestClaimOffline_CapUpgradeExtendsWindow(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	now := time.Now()
	svc.now = func() time.Time { return now }

	player := basePlayer(playerID)
	player.HourlyIncome = 250
	player.LastAccrualAt = now.Add(-400 * time.Minute)

	// offline_cap at level 3 grants +30 minutes per level
	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(player, nil)
	mockRepo.On("GetOwnedLevels", mock.Anything, playerID).Return(map[string]int{"offline_cap": 3}, nil)
	mockRepo.On("ApplyOfflineAccrual", mock.Anything, playerID, int64(1125), now).Return(nil)

	response, err := svc.ClaimOffline(context.Background(), playerID)

	assert.NoError(t, err)
	assert.Equal(t, 270, response.CapMinutes)
	assert.Equal(t, 270, response.MinutesApplied)
	assert.Equal(t, int64(1125), response.Earned)
	mockRepo.AssertExpectations(t)
}

func TestClaimOffline_ZeroElapsedStillAdvancesTimestamp(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	now := time.Now()
	svc.now = func() time.Time { return now }

	player := basePlayer(playerID)
	player.LastAccrualAt = now

	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(player, nil)
	mockRepo.On("GetOwnedLevels", mock.Anything, playerID).Return(map[string]int{}, nil)
	// The timestamp write happens even with nothing earned
	mockRepo.On("ApplyOfflineAccrual", mock.Anything, playerID, int64(0), now).Return(nil)

	response, err := svc.ClaimOffline(context.Background(), playerID)

	assert.NoError(t, err)
	assert.Equal(t, int64(0), response.Earned)
	assert.Equal(t, 0, response.MinutesApplied)
	mockRepo.AssertExpectations(t)
}

func TestClaimOffline_PlayerNotFound(t *testing.T) {
	svc, mockRepo := setupEconomyService()
	playerID := uuid.New()

	mockRepo.On("GetPlayer", mock.Anything, playerID).Return(nil, nil)

	_, err := svc.ClaimOffline(context.Background(), playerID)

	assert.ErrorIs(t, err, ErrPlayerNotFound)
	mockRepo.AssertNotCalled(t, "ApplyOfflineAccrual", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// fakePlayerRepo is a stateful in-memory PlayerRepository used for
// concurrency tests, where call-sequence mocks cannot model interleaving
type fakePlayerRepo struct {
	mu    sync.Mutex
	state *PlayerState
	owned map[string]int
}

func newFakePlayerRepo(state *PlayerState) *fakePlayerRepo {
	return &fakePlayerRepo{state: state, owned: make(map[string]int)}
}

func (f *fakePlayerRepo) GetPlayer(ctx context.Context, playerID uuid.UUID) (*PlayerState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *f.state
	return &copied, nil
}

func (f *fakePlayerRepo) GetOwnedLevels(ctx context.Context, playerID uuid.UUID) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	owned := make(map[string]int, len(f.owned))
	for k, v := range f.owned {
		owned[k] = v
	}
	return owned, nil
}

func (f *fakePlayerRepo) UpdateCurrency(ctx context.Context, playerID uuid.UUID, currency int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Currency = currency
	return nil
}

func (f *fakePlayerRepo) UpsertOwnedLevel(ctx context.Context, playerID uuid.UUID, upgradeID string, level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owned[upgradeID] = level
	return nil
}

func (f *fakePlayerRepo) UpdateDerivedStats(ctx context.Context, playerID uuid.UUID, stats DerivedStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.TapIncome = stats.TapIncome
	f.state.HourlyIncome = stats.HourlyIncome
	f.state.EnergyCapacity = stats.EnergyCapacity
	return nil
}

func (f *fakePlayerRepo) UpdateEnergy(ctx context.Context, playerID uuid.UUID, energy int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Energy = energy
	return nil
}

func (f *fakePlayerRepo) ApplyOfflineAccrual(ctx context.Context, playerID uuid.UUID, earned int64, accruedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Currency += earned
	f.state.LastAccrualAt = accruedAt
	return nil
}

func TestPurchase_NoDoubleSpend(t *testing.T) {
	playerID := uuid.New()
	player := basePlayer(playerID)
	player.Currency = 150 // affords level 1 (100) but not level 2 (130)

	repo := newFakePlayerRepo(player)
	svc := NewEconomyService(repo, economyCatalog(), testConfig(), NewPlayerLocks(), slog.Default(), nil).(*economyService)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Purchase(context.Background(), playerID, "energy_tank")
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	insufficient := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		var insufficientFunds *InsufficientFundsError
		if assert.ErrorAs(t, err, &insufficientFunds) {
			insufficient++
		}
	}

	assert.Equal(t, 1, successes, "exactly one purchase may succeed")
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, int64(50), repo.state.Currency)
	assert.Equal(t, 1, repo.owned["energy_tank"])
}

func TestClaimOffline_NoDoubleCredit(t *testing.T) {
	playerID := uuid.New()
	now := time.Now()

	player := basePlayer(playerID)
	player.HourlyIncome = 250
	player.Currency = 0
	player.LastAccrualAt = now.Add(-400 * time.Minute)

	repo := newFakePlayerRepo(player)
	svc := NewEconomyService(repo, economyCatalog(), testConfig(), NewPlayerLocks(), slog.Default(), nil).(*economyService)
	svc.now = func() time.Time { return now }

	first, err := svc.ClaimOffline(context.Background(), playerID)
	assert.NoError(t, err)
	assert.Equal(t, int64(750), first.Earned)

	// Immediately claiming again earns nothing more
	second, err := svc.ClaimOffline(context.Background(), playerID)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), second.Earned)
	assert.Equal(t, int64(750), repo.state.Currency)
}
