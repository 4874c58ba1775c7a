package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func costDef() Definition {
	return Definition{
		ID:             "energy_tank",
		Category:       CategoryEnergyCapacity,
		BaseCost:       100,
		CostMultiplier: 1.3,
		MaxLevel:       10,
	}
}

func TestCost_Curve(t *testing.T) {
	def := costDef()

	assert.Equal(t, float64(100), Cost(def, 0))
	assert.Equal(t, float64(130), Cost(def, 1))
	assert.Equal(t, float64(285), Cost(def, 4)) // floor(100 × 1.3^4)
}

func TestCost_MaxLevelIsUnaffordable(t *testing.T) {
	def := costDef()

	assert.True(t, math.IsInf(Cost(def, def.MaxLevel), 1))
	assert.True(t, math.IsInf(Cost(def, def.MaxLevel+3), 1))
}

func TestCost_Monotonic(t *testing.T) {
	def := costDef()

	prev := Cost(def, 0)
	for level := 1; level < def.MaxLevel; level++ {
		next := Cost(def, level)
		assert.GreaterOrEqual(t, next, prev, "cost must not decrease at level %d", level)
		prev = next
	}
}

func TestCumulativeEffect_LevelZero(t *testing.T) {
	def := Definition{
		ID:               "any",
		Category:         CategoryHourlyIncome,
		BaseEffect:       50,
		EffectMultiplier: 10,
		EffectCurve:      CurveAdditive,
	}

	assert.Equal(t, float64(0), CumulativeEffect(def, 0))
	assert.Equal(t, float64(0), CumulativeEffect(def, -1))
}

func TestCumulativeEffect_Linear(t *testing.T) {
	def := Definition{
		ID:          "offline_cap",
		Category:    CategorySpecial,
		EffectMultiplier: 30,
		EffectCurve: CurveLinear,
	}

	assert.Equal(t, float64(30), CumulativeEffect(def, 1))
	assert.Equal(t, float64(90), CumulativeEffect(def, 3))
}

func TestCumulativeEffect_LinearFlatBonus(t *testing.T) {
	def := Definition{
		ID:          "golden_finger",
		Category:    CategoryTapIncome,
		TapBonus:    5,
		EffectCurve: CurveLinear,
	}

	assert.Equal(t, float64(5), CumulativeEffect(def, 1))
	assert.Equal(t, float64(20), CumulativeEffect(def, 4))
}

func TestCumulativeEffect_Additive(t *testing.T) {
	def := Definition{
		ID:               "passive_rig",
		Category:         CategoryPassiveIncome,
		BaseEffect:       100,
		EffectMultiplier: 25,
		EffectCurve:      CurveAdditive,
	}

	assert.Equal(t, float64(125), CumulativeEffect(def, 1))
	assert.Equal(t, float64(200), CumulativeEffect(def, 4))
}

func TestCumulativeEffect_Compounding(t *testing.T) {
	def := Definition{
		ID:               "tap_booster",
		Category:         CategoryTapIncome,
		BaseEffect:       10,
		EffectMultiplier: 0.5,
		EffectCurve:      CurveCompounding,
	}

	// base × (1 + mult)^(level-1)
	assert.Equal(t, float64(10), CumulativeEffect(def, 1))
	assert.Equal(t, float64(15), CumulativeEffect(def, 2))
	assert.Equal(t, float64(22.5), CumulativeEffect(def, 3))
}

func TestCumulativeEffect_Deterministic(t *testing.T) {
	def := Definition{
		ID:               "tap_booster",
		Category:         CategoryTapIncome,
		BaseEffect:       10,
		EffectMultiplier: 0.5,
		EffectCurve:      CurveCompounding,
	}

	for level := 0; level <= 5; level++ {
		assert.Equal(t, CumulativeEffect(def, level), CumulativeEffect(def, level))
	}
}
