package catalog

import (
	"fmt"
	"sort"

	"github.com/aetherweave/aether-server-go/internal/game/rng"
)

func dmg(n int) Effect     { return Effect{Tag: EffectDamage, Amount: n} }
func heal(n int) Effect    { return Effect{Tag: EffectHeal, Amount: n} }
func gain(n int) Effect    { return Effect{Tag: EffectGainAether, Amount: n} }
func channel(n int) Effect { return Effect{Tag: EffectChannel, Amount: n} }
func draw(n int) Effect    { return Effect{Tag: EffectDraw, Amount: n} }
func drain(n int) Effect   { return Effect{Tag: EffectDrain, Amount: n} }

func on(event TriggerEvent, effects ...Effect) Trigger {
	return Trigger{On: event, Effects: effects}
}

// Starter holds the ten templates every agent's opening deck is built from.
var Starter = map[string]Template{
	"spark_lance":  {ID: "spark_lance", Name: "Spark Lance", Type: CardTypeSpell, PlayCost: 1, AdvanceRequirement: 2, DiscardValue: 2, Effects: []Effect{dmg(3)}},
	"tidal_mend":   {ID: "tidal_mend", Name: "Tidal Mend", Type: CardTypeSpell, PlayCost: 1, AdvanceRequirement: 2, DiscardValue: 2, Effects: []Effect{heal(3)}},
	"slow_burn":    {ID: "slow_burn", Name: "Slow Burn", Type: CardTypeSpell, PlayCost: 1, AdvanceRequirement: 3, DiscardValue: 2, Effects: []Effect{dmg(5)}},
	"wellspring":   {ID: "wellspring", Name: "Wellspring", Type: CardTypeSpell, PlayCost: 1, AdvanceRequirement: 2, DiscardValue: 2, Effects: []Effect{channel(2)}},
	"flicker":      {ID: "flicker", Name: "Flicker", Type: CardTypeInstant, PlayCost: 1, DiscardValue: 2, Effects: []Effect{dmg(1)}},
	"insight":      {ID: "insight", Name: "Insight", Type: CardTypeInstant, PlayCost: 1, DiscardValue: 2, Effects: []Effect{draw(1)}},
	"aether_shard": {ID: "aether_shard", Name: "Aether Shard", Type: CardTypeInstant, PlayCost: 0, DiscardValue: 2, Effects: []Effect{gain(1)}},
	"siphon":       {ID: "siphon", Name: "Siphon", Type: CardTypeInstant, PlayCost: 2, DiscardValue: 1, Effects: []Effect{drain(2), gain(1)}},
	"ember_glyph":  {ID: "ember_glyph", Name: "Ember Glyph", Type: CardTypeGlyph, DiscardValue: 1, Triggers: []Trigger{on(TriggerSpellResolved, dmg(1))}},
	"tide_glyph":   {ID: "tide_glyph", Name: "Tide Glyph", Type: CardTypeGlyph, DiscardValue: 1, Triggers: []Trigger{on(TriggerDiscardForAether, gain(1))}},
}

// StarterDeck lists the template ids of an opening deck, one copy each.
var StarterDeck = []string{
	"spark_lance", "tidal_mend", "slow_burn", "wellspring", "flicker",
	"insight", "aether_shard", "siphon", "ember_glyph", "tide_glyph",
}

// MarketPool holds the templates the market supply is built from.
var MarketPool = map[string]Template{
	"meteor_call":    {ID: "meteor_call", Name: "Meteor Call", Type: CardTypeSpell, PlayCost: 2, AdvanceRequirement: 3, DiscardValue: 2, Effects: []Effect{dmg(8)}},
	"cinder_storm":   {ID: "cinder_storm", Name: "Cinder Storm", Type: CardTypeSpell, PlayCost: 1, AdvanceRequirement: 3, DiscardValue: 2, Effects: []Effect{dmg(4), drain(1)}},
	"renewal":        {ID: "renewal", Name: "Renewal", Type: CardTypeSpell, PlayCost: 1, AdvanceRequirement: 2, DiscardValue: 2, Effects: []Effect{heal(5)}},
	"deep_current":   {ID: "deep_current", Name: "Deep Current", Type: CardTypeSpell, PlayCost: 1, AdvanceRequirement: 2, DiscardValue: 3, Effects: []Effect{channel(3)}},
	"archive_weave":  {ID: "archive_weave", Name: "Archive Weave", Type: CardTypeSpell, PlayCost: 1, AdvanceRequirement: 2, DiscardValue: 2, Effects: []Effect{draw(2)}},
	"arc_flash":      {ID: "arc_flash", Name: "Arc Flash", Type: CardTypeInstant, PlayCost: 2, DiscardValue: 2, Effects: []Effect{dmg(3)}},
	"quick_study":    {ID: "quick_study", Name: "Quick Study", Type: CardTypeInstant, PlayCost: 1, DiscardValue: 2, Effects: []Effect{draw(2)}},
	"mana_tap":       {ID: "mana_tap", Name: "Mana Tap", Type: CardTypeInstant, PlayCost: 0, DiscardValue: 3, Effects: []Effect{gain(2)}},
	"leech":          {ID: "leech", Name: "Leech", Type: CardTypeInstant, PlayCost: 1, DiscardValue: 2, Effects: []Effect{drain(3), channel(1)}},
	"soothing_mist":  {ID: "soothing_mist", Name: "Soothing Mist", Type: CardTypeInstant, PlayCost: 1, DiscardValue: 2, Effects: []Effect{heal(2)}},
	"furnace_glyph":  {ID: "furnace_glyph", Name: "Furnace Glyph", Type: CardTypeGlyph, DiscardValue: 2, Triggers: []Trigger{on(TriggerInstantCast, dmg(1))}},
	"wellhead_glyph": {ID: "wellhead_glyph", Name: "Wellhead Glyph", Type: CardTypeGlyph, DiscardValue: 2, Triggers: []Trigger{on(TriggerTurnStart, channel(1))}},
	"merchant_glyph": {ID: "merchant_glyph", Name: "Merchant Glyph", Type: CardTypeGlyph, DiscardValue: 2, Triggers: []Trigger{on(TriggerMarketBuy, gain(1))}},
	"scholar_glyph":  {ID: "scholar_glyph", Name: "Scholar Glyph", Type: CardTypeGlyph, DiscardValue: 2, Triggers: []Trigger{on(TriggerSpellResolved, draw(1))}},
}

// MarketSupply lists the template ids (with repeats) of the market supply.
var MarketSupply = []string{
	"meteor_call",
	"cinder_storm", "cinder_storm",
	"renewal", "renewal",
	"deep_current", "deep_current",
	"archive_weave",
	"arc_flash", "arc_flash",
	"quick_study", "quick_study",
	"mana_tap", "mana_tap",
	"leech",
	"soothing_mist", "soothing_mist",
	"furnace_glyph",
	"wellhead_glyph",
	"merchant_glyph",
	"scholar_glyph",
}

// Lookup finds a template in either catalog.
func Lookup(id string) (Template, bool) {
	if t, ok := Starter[id]; ok {
		return t, true
	}
	t, ok := MarketPool[id]
	return t, ok
}

// IDs returns every known template id in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(Starter)+len(MarketPool))
	for id := range Starter {
		ids = append(ids, id)
	}
	for id := range MarketPool {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BuildDeck expands template ids into card instances with distinct ids drawn
// from r. Duplicate template ids yield distinct cards.
func BuildDeck(ids []string, r *rng.RNG) ([]*Card, error) {
	cards := make([]*Card, 0, len(ids))
	for _, id := range ids {
		t, ok := Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown card template %q", id)
		}
		cards = append(cards, NewCard(t, r.ID()))
	}
	return cards, nil
}
