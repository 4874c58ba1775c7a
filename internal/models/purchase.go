package models

// StatsView represents the derived stats returned to the client
type StatsView struct {
	TapIncome      int64 `json:"tap_income"`
	HourlyIncome   int64 `json:"hourly_income"`
	EnergyCapacity int64 `json:"energy_capacity"`
}

// PurchaseResponse represents the response for POST /economy/upgrades/:upgrade_id/purchase
type PurchaseResponse struct {
	UpgradeID string    `json:"upgrade_id"`
	NewLevel  int       `json:"new_level"`
	CostPaid  int64     `json:"cost_paid"`
	Currency  int64     `json:"currency"`
	Stats     StatsView `json:"stats"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	// Required carries the purchase cost on insufficient_funds errors
	Required int64 `json:"required,omitempty"`
}
