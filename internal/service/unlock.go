package service

import "github.com/shard-legends/economy-service/internal/catalog"

// ownedLevel returns the player's level for an upgrade; absence means 0
func ownedLevel(owned map[string]int, upgradeID string) int {
	return owned[upgradeID]
}

// unlocked decides whether the player may purchase the upgrade at all.
// Every configured gate must hold: minimum player level, prerequisite
// upgrade level, and total owned levels across all upgrades.
func unlocked(playerLevel int, owned map[string]int, def catalog.Definition) bool {
	if playerLevel < def.RequiredLevel {
		return false
	}

	if def.Unlock.PrerequisiteUpgradeID != "" {
		if ownedLevel(owned, def.Unlock.PrerequisiteUpgradeID) < def.Unlock.PrerequisiteLevel {
			return false
		}
	}

	if def.Unlock.TotalOwnedLevels > 0 {
		total := 0
		for _, level := range owned {
			total += level
		}
		if total < def.Unlock.TotalOwnedLevels {
			return false
		}
	}

	return true
}
