package catalog

import "math"

// Cost returns the price of buying the next level given the current one.
// A definition at (or past) MaxLevel returns +Inf, which no balance can
// afford. Both calculations are pure functions of (definition, level).
func Cost(def Definition, currentLevel int) float64 {
	if currentLevel >= def.MaxLevel {
		return math.Inf(1)
	}
	return math.Floor(float64(def.BaseCost) * math.Pow(def.CostMultiplier, float64(currentLevel)))
}

// CumulativeEffect returns the total stat contribution of owning the
// upgrade at the given level. Level 0 contributes nothing.
func CumulativeEffect(def Definition, level int) float64 {
	if level <= 0 {
		return 0
	}

	switch def.EffectCurve {
	case CurveLinear:
		return def.FlatBonus() * float64(level)
	case CurveCompounding:
		return def.BaseEffect * math.Pow(1+def.EffectMultiplier, float64(level-1))
	default:
		return def.BaseEffect + def.EffectMultiplier*float64(level)
	}
}
