package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shard-legends/economy-service/pkg/metrics"
)

// tickTimeout bounds the store calls made by a single regeneration tick
const tickTimeout = 5 * time.Second

// RegenScheduler runs one recurring energy regeneration task per active
// player. Start replaces any existing task for the player, Stop cancels
// it, StopAll tears everything down on shutdown; at most one task is
// ever active per player id.
type RegenScheduler struct {
	players  PlayerRepository
	interval time.Duration
	amount   int64
	locks    *PlayerLocks
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu    sync.Mutex
	tasks map[uuid.UUID]chan struct{}
	wg    sync.WaitGroup
}

// NewRegenScheduler creates a new regeneration scheduler
func NewRegenScheduler(
	players PlayerRepository,
	interval time.Duration,
	amount int64,
	locks *PlayerLocks,
	logger *slog.Logger,
	m *metrics.Metrics,
) *RegenScheduler {
	return &RegenScheduler{
		players:  players,
		interval: interval,
		amount:   amount,
		locks:    locks,
		logger:   logger,
		metrics:  m,
		tasks:    make(map[uuid.UUID]chan struct{}),
	}
}

// Start begins regeneration for the player. If a task is already
// running it is replaced, never stacked.
func (s *RegenScheduler) Start(playerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stop, ok := s.tasks[playerID]; ok {
		close(stop)
		s.logger.Debug("Replacing existing regeneration task", "player_id", playerID)
	}

	stop := make(chan struct{})
	s.tasks[playerID] = stop
	s.updateTaskGauge()

	s.wg.Add(1)
	go s.run(playerID, stop)

	s.logger.Info("Regeneration started", "player_id", playerID, "interval", s.interval)
}

// Stop cancels the player's regeneration task. Idempotent: stopping a
// player with no task is a no-op.
func (s *RegenScheduler) Stop(playerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stop, ok := s.tasks[playerID]
	if !ok {
		return
	}

	close(stop)
	delete(s.tasks, playerID)
	s.updateTaskGauge()

	s.logger.Info("Regeneration stopped", "player_id", playerID)
}

// StopAll cancels every running task and waits for the loops to exit.
// Called on process shutdown.
func (s *RegenScheduler) StopAll() {
	s.mu.Lock()
	for playerID, stop := range s.tasks {
		close(stop)
		delete(s.tasks, playerID)
	}
	s.updateTaskGauge()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("All regeneration tasks stopped")
}

// Running reports whether the player currently has an active task
func (s *RegenScheduler) Running(playerID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[playerID]
	return ok
}

func (s *RegenScheduler) run(playerID uuid.UUID, stop chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick(playerID)
		}
	}
}

// tick applies one regeneration step. The player's capacity is re-read
// every tick, so a concurrent purchase that raises it is picked up on
// the next tick. A failed tick is logged and skipped; the task keeps
// running through transient store errors.
func (s *RegenScheduler) tick(playerID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	lock := s.locks.get(playerID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.players.GetPlayer(ctx, playerID)
	if err != nil {
		s.logger.Warn("Regeneration tick failed to load player, skipping",
			"player_id", playerID, "error", err)
		s.recordTick("load_error")
		return
	}
	if state == nil {
		s.logger.Warn("Regeneration tick for unknown player, skipping", "player_id", playerID)
		s.recordTick("player_missing")
		return
	}

	if state.Energy >= state.EnergyCapacity {
		s.recordTick("full")
		return
	}

	energy := state.Energy + s.amount
	if energy > state.EnergyCapacity {
		energy = state.EnergyCapacity
	}

	if err := s.players.UpdateEnergy(ctx, playerID, energy); err != nil {
		s.logger.Warn("Regeneration tick failed to persist energy, skipping",
			"player_id", playerID, "energy", energy, "error", err)
		s.recordTick("write_error")
		return
	}

	s.recordTick("ok")
}

func (s *RegenScheduler) updateTaskGauge() {
	if s.metrics != nil {
		s.metrics.ActiveRegenTasks.Set(float64(len(s.tasks)))
	}
}

func (s *RegenScheduler) recordTick(status string) {
	if s.metrics != nil {
		s.metrics.RecordRegenTick(status)
	}
}
