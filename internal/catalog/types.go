package catalog

// Category classifies which derived stat an upgrade feeds
type Category string

const (
	CategoryTapIncome      Category = "tap_income"
	CategoryHourlyIncome   Category = "hourly_income"
	CategoryEnergyCapacity Category = "energy_capacity"
	CategoryPassiveIncome  Category = "passive_income"
	CategoryCharisma       Category = "charisma"
	CategorySpecial        Category = "special"
)

// CurveKind selects the cumulative-effect formula for an upgrade.
// The curve is part of the definition so the formula choice is data,
// not a special case keyed off category or id.
type CurveKind string

const (
	// CurveLinear is flat bonus × level
	CurveLinear CurveKind = "linear"
	// CurveAdditive is baseEffect + effectMultiplier × level
	CurveAdditive CurveKind = "additive"
	// CurveCompounding is baseEffect × (1 + effectMultiplier)^(level-1)
	CurveCompounding CurveKind = "compounding"
)

// UnlockRequirements are the optional gates on top of RequiredLevel.
// Zero values mean the gate is not set.
type UnlockRequirements struct {
	PrerequisiteUpgradeID string
	PrerequisiteLevel     int
	TotalOwnedLevels      int
}

// Definition is a single purchasable upgrade from the catalog.
// Definitions are immutable for the lifetime of a catalog snapshot.
type Definition struct {
	ID          string
	Name        string
	Description string
	Category    Category

	// Cost curve: floor(BaseCost × CostMultiplier^level)
	BaseCost       int64
	CostMultiplier float64

	// Effect curve parameters, interpreted per EffectCurve
	BaseEffect       float64
	EffectMultiplier float64
	TapBonus         float64
	HourlyBonus      float64
	EffectCurve      CurveKind

	MaxLevel      int
	RequiredLevel int
	Unlock        UnlockRequirements
}

// FlatBonus returns the per-level step used by the linear curve.
// Category-specific flat bonuses win over the generic multiplier.
func (d Definition) FlatBonus() float64 {
	if d.TapBonus != 0 && d.Category == CategoryTapIncome {
		return d.TapBonus
	}
	if d.HourlyBonus != 0 && (d.Category == CategoryHourlyIncome || d.Category == CategoryPassiveIncome) {
		return d.HourlyBonus
	}
	return d.EffectMultiplier
}
