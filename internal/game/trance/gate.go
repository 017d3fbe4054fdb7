// Package trance computes an agent's ability tier from its vitality and the
// bonuses each weaver archetype gains per tier.
package trance

import "fmt"

// MaxTier is the highest reachable tier.
const MaxTier = 2

// Thresholds are the vitality levels at or below which a tier unlocks.
// Tier2 must be strictly below Tier1.
type Thresholds struct {
	Tier1 int `json:"tier1" mapstructure:"tier1"`
	Tier2 int `json:"tier2" mapstructure:"tier2"`
}

// DefaultThresholds pairs with a starting vitality of 20.
var DefaultThresholds = Thresholds{Tier1: 10, Tier2: 5}

// Validate checks the ordering constraint.
func (th Thresholds) Validate() error {
	if th.Tier2 >= th.Tier1 {
		return fmt.Errorf("trance thresholds: tier2 (%d) must be below tier1 (%d)", th.Tier2, th.Tier1)
	}
	return nil
}

// Tier returns the tier unlocked by a vitality value.
func Tier(vitality int, th Thresholds) int {
	switch {
	case vitality <= th.Tier2:
		return 2
	case vitality <= th.Tier1:
		return 1
	default:
		return 0
	}
}

// Next recomputes a tier. Tiers never decrease within a game, so healing
// above a threshold keeps the tier already reached.
func Next(current, vitality int, th Thresholds) int {
	t := Tier(vitality, th)
	if current > t {
		return current
	}
	return t
}

// Weaver is an agent archetype.
type Weaver string

const (
	WeaverEmber Weaver = "EMBER"
	WeaverTide  Weaver = "TIDE"
)

// Bonus is what a weaver gains at one tier.
type Bonus struct {
	AdvanceDiscount int
	DiscardBonus    int
}

var weavers = map[Weaver][MaxTier + 1]Bonus{
	WeaverEmber: {
		{},
		{AdvanceDiscount: 1},
		{AdvanceDiscount: 1, DiscardBonus: 1},
	},
	WeaverTide: {
		{},
		{DiscardBonus: 1},
		{AdvanceDiscount: 1, DiscardBonus: 2},
	},
}

// ParseWeaver validates a weaver name.
func ParseWeaver(name string) (Weaver, error) {
	w := Weaver(name)
	if _, ok := weavers[w]; !ok {
		return "", fmt.Errorf("unknown weaver %q", name)
	}
	return w, nil
}

// BonusFor returns the bonus of a weaver at a tier. Unknown weavers and
// out-of-range tiers get no bonus.
func BonusFor(w Weaver, tier int) Bonus {
	table, ok := weavers[w]
	if !ok || tier < 0 || tier > MaxTier {
		return Bonus{}
	}
	return table[tier]
}

// AdvanceCost applies the weaver discount to a per-step advance cost.
func AdvanceCost(base int, w Weaver, tier int) int {
	cost := base - BonusFor(w, tier).AdvanceDiscount
	if cost < 0 {
		return 0
	}
	return cost
}

// DiscardYield applies the weaver bonus to a card's discard value.
func DiscardYield(value int, w Weaver, tier int) int {
	return value + BonusFor(w, tier).DiscardBonus
}
