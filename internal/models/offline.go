package models

// OfflineClaimResponse represents the response for POST /economy/offline/claim
type OfflineClaimResponse struct {
	Earned         int64 `json:"earned"`
	MinutesApplied int   `json:"minutes_applied"`
	CapMinutes     int   `json:"cap_minutes"`
	Currency       int64 `json:"currency"`
}
