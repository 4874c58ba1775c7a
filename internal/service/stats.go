package service

import (
	"math"

	"github.com/shard-legends/economy-service/internal/catalog"
)

// StatFloors are the fixed base values the fold starts from
type StatFloors struct {
	TapIncome      int64
	HourlyIncome   int64
	EnergyCapacity int64
}

// Minimum clamps applied after the fold. Derived stats can never drop
// below these regardless of catalog contents.
const (
	minTapIncome    = 1
	minHourlyIncome = 10
)

// recomputeStats folds every owned upgrade level into the derived stats.
// This is always a full recompute from the complete owned map, never an
// incremental delta: running it twice over the same inputs yields the
// same outputs, and it self-heals from any previously missed update.
func recomputeStats(cat CatalogProvider, owned map[string]int, floors StatFloors) DerivedStats {
	tap := float64(floors.TapIncome)
	hourly := float64(floors.HourlyIncome)
	energyCap := float64(floors.EnergyCapacity)

	for upgradeID, level := range owned {
		if level <= 0 {
			continue
		}
		def, ok := cat.Get(upgradeID)
		if !ok {
			// Levels for retired definitions contribute nothing
			continue
		}

		effect := catalog.CumulativeEffect(def, level)
		switch def.Category {
		case catalog.CategoryTapIncome:
			tap += effect
		case catalog.CategoryHourlyIncome, catalog.CategoryPassiveIncome:
			hourly += effect
		case catalog.CategoryEnergyCapacity:
			energyCap += effect
		}
	}

	stats := DerivedStats{
		TapIncome:      int64(math.Floor(tap)),
		HourlyIncome:   int64(math.Floor(hourly)),
		EnergyCapacity: int64(math.Floor(energyCap)),
	}

	if stats.TapIncome < minTapIncome {
		stats.TapIncome = minTapIncome
	}
	if stats.HourlyIncome < minHourlyIncome {
		stats.HourlyIncome = minHourlyIncome
	}
	if stats.EnergyCapacity < floors.EnergyCapacity {
		stats.EnergyCapacity = floors.EnergyCapacity
	}

	return stats
}
