package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shard-legends/economy-service/internal/catalog"
)

// staticCatalog is a CatalogProvider over a fixed definition set
type staticCatalog struct {
	defs map[string]catalog.Definition
}

func newStaticCatalog(defs ...catalog.Definition) *staticCatalog {
	byID := make(map[string]catalog.Definition, len(defs))
	for _, def := range defs {
		byID[def.ID] = def
	}
	return &staticCatalog{defs: byID}
}

func (c *staticCatalog) Get(id string) (catalog.Definition, bool) {
	def, ok := c.defs[id]
	return def, ok
}

func (c *staticCatalog) All() []catalog.Definition {
	ids := make([]string, 0, len(c.defs))
	for id := range c.defs {
		ids = append(ids, id)
	}
	// sorted for deterministic listing
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	out := make([]catalog.Definition, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.defs[id])
	}
	return out
}

func testFloors() StatFloors {
	return StatFloors{TapIncome: 1, HourlyIncome: 10, EnergyCapacity: 100}
}

func statsCatalog() *staticCatalog {
	return newStaticCatalog(
		catalog.Definition{
			ID: "golden_finger", Category: catalog.CategoryTapIncome,
			TapBonus: 5, EffectCurve: catalog.CurveLinear, MaxLevel: 10,
		},
		catalog.Definition{
			ID: "passive_rig", Category: catalog.CategoryPassiveIncome,
			BaseEffect: 100, EffectMultiplier: 25, EffectCurve: catalog.CurveAdditive, MaxLevel: 10,
		},
		catalog.Definition{
			ID: "battery", Category: catalog.CategoryEnergyCapacity,
			BaseEffect: 20, EffectMultiplier: 10, EffectCurve: catalog.CurveAdditive, MaxLevel: 10,
		},
		catalog.Definition{
			ID: "charm_school", Category: catalog.CategoryCharisma,
			BaseEffect: 50, EffectMultiplier: 50, EffectCurve: catalog.CurveAdditive, MaxLevel: 10,
		},
	)
}

func TestRecomputeStats_EmptyOwnedUsesFloors(t *testing.T) {
	stats := recomputeStats(statsCatalog(), map[string]int{}, testFloors())

	assert.Equal(t, int64(1), stats.TapIncome)
	assert.Equal(t, int64(10), stats.HourlyIncome)
	assert.Equal(t, int64(100), stats.EnergyCapacity)
}

func TestRecomputeStats_CategoryBuckets(t *testing.T) {
	owned := map[string]int{
		"golden_finger": 2, // tap: +10
		"passive_rig":   1, // hourly: +125
		"battery":       3, // energy cap: +50
		"charm_school":  4, // no derived-stat bucket
	}

	stats := recomputeStats(statsCatalog(), owned, testFloors())

	assert.Equal(t, int64(11), stats.TapIncome)
	assert.Equal(t, int64(135), stats.HourlyIncome)
	assert.Equal(t, int64(150), stats.EnergyCapacity)
}

func TestRecomputeStats_ZeroLevelsIgnored(t *testing.T) {
	owned := map[string]int{
		"golden_finger": 0,
		"battery":       0,
	}

	stats := recomputeStats(statsCatalog(), owned, testFloors())
	assert.Equal(t, recomputeStats(statsCatalog(), map[string]int{}, testFloors()), stats)
}

func TestRecomputeStats_RetiredUpgradeIgnored(t *testing.T) {
	owned := map[string]int{
		"removed_from_catalog": 7,
		"golden_finger":        1,
	}

	stats := recomputeStats(statsCatalog(), owned, testFloors())
	assert.Equal(t, int64(6), stats.TapIncome)
}

func TestRecomputeStats_Idempotent(t *testing.T) {
	owned := map[string]int{
		"golden_finger": 3,
		"passive_rig":   2,
		"battery":       5,
	}

	first := recomputeStats(statsCatalog(), owned, testFloors())
	second := recomputeStats(statsCatalog(), owned, testFloors())

	assert.Equal(t, first, second)
}

func TestRecomputeStats_Clamps(t *testing.T) {
	// A catalog with negative effects cannot push stats below the minimums
	cat := newStaticCatalog(catalog.Definition{
		ID: "cursed", Category: catalog.CategoryTapIncome,
		BaseEffect: -100, EffectMultiplier: -10, EffectCurve: catalog.CurveAdditive, MaxLevel: 10,
	})

	stats := recomputeStats(cat, map[string]int{"cursed": 1}, testFloors())

	assert.Equal(t, int64(minTapIncome), stats.TapIncome)
	assert.Equal(t, int64(minHourlyIncome), stats.HourlyIncome)
	assert.Equal(t, int64(100), stats.EnergyCapacity)
}
