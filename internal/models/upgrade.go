package models

// UpgradeView is the client-facing projection of an upgrade definition
type UpgradeView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Category      string `json:"category"`
	MaxLevel      int    `json:"max_level"`
	RequiredLevel int    `json:"required_level"`
}

// UpgradeListItem represents one upgrade in GET /economy/upgrades
type UpgradeListItem struct {
	Definition   UpgradeView `json:"definition"`
	CurrentLevel int         `json:"current_level"`
	// NextCost is omitted once the upgrade is at max level
	NextCost *int64 `json:"next_cost,omitempty"`
	Locked   bool   `json:"locked"`
}

// UpgradeListResponse represents the response for GET /economy/upgrades
type UpgradeListResponse struct {
	Upgrades []UpgradeListItem `json:"upgrades"`
}
