package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Validation errors are expected outcomes: they are surfaced to the
// caller unchanged, with no retry and no state change.
var (
	ErrUnknownUpgrade  = errors.New("unknown upgrade")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrUpgradeLocked   = errors.New("upgrade locked")
	ErrMaxLevelReached = errors.New("max level reached")
)

// InsufficientFundsError reports a purchase the player cannot afford.
// It carries the required cost so the caller can display it.
type InsufficientFundsError struct {
	Required int64
	Balance  int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %d, have %d", e.Required, e.Balance)
}

// StoreUnavailableError wraps a transient persistence failure. Callers
// may retry the whole operation; no partial state was left behind.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// ReconciliationError means a purchase failed mid-transaction and the
// compensating currency restore also failed. The player's balance is
// wrong until repaired out of band; this must never be swallowed.
type ReconciliationError struct {
	PlayerID        uuid.UUID
	UpgradeID       string
	RestoreCurrency int64
	Cause           error
	RestoreErr      error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation failure for player %s upgrade %s: restore to %d failed: %v (original: %v)",
		e.PlayerID, e.UpgradeID, e.RestoreCurrency, e.RestoreErr, e.Cause)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Cause
}

func storeUnavailable(op string, err error) error {
	return &StoreUnavailableError{Op: op, Err: err}
}
