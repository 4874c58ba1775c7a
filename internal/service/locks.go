package service

import (
	"sync"

	"github.com/google/uuid"
)

// PlayerLocks serializes mutating economy operations per player. The
// store guarantees statement-level atomicity only, so purchase and
// offline-claim (and regen energy writes) take the player's lock before
// issuing store calls. Locks are independent across players. The same
// registry must be shared between the economy service and the
// regeneration scheduler.
type PlayerLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewPlayerLocks creates an empty per-player lock registry
func NewPlayerLocks() *PlayerLocks {
	return &PlayerLocks{
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// get returns the mutex for the given player, creating it on first use.
// Locks are never removed; the per-player footprint is one mutex.
func (p *PlayerLocks) get(playerID uuid.UUID) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.locks[playerID]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[playerID] = lock
	}
	return lock
}
