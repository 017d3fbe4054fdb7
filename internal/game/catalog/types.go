// Package catalog holds the immutable card templates and the card instance
// type that moves between zones.
package catalog

import "fmt"

// CardType is the rules type of a card.
type CardType string

const (
	CardTypeSpell   CardType = "SPELL"
	CardTypeInstant CardType = "INSTANT"
	CardTypeGlyph   CardType = "GLYPH"
)

// Valid reports whether the type is one of the known card types.
func (ct CardType) Valid() bool {
	switch ct {
	case CardTypeSpell, CardTypeInstant, CardTypeGlyph:
		return true
	default:
		return false
	}
}

// EffectTag names an entry in the engine's effect table. The set is closed:
// adding a card never requires a new tag unless it needs a new kind of
// state change.
type EffectTag string

const (
	EffectDamage     EffectTag = "DAMAGE"
	EffectHeal       EffectTag = "HEAL"
	EffectGainAether EffectTag = "GAIN_AETHER"
	EffectChannel    EffectTag = "CHANNEL"
	EffectDraw       EffectTag = "DRAW"
	EffectDrain      EffectTag = "DRAIN"
)

// EffectTags lists every tag the engine must handle.
var EffectTags = []EffectTag{
	EffectDamage,
	EffectHeal,
	EffectGainAether,
	EffectChannel,
	EffectDraw,
	EffectDrain,
}

// Effect is one tagged state change with its magnitude.
type Effect struct {
	Tag    EffectTag `json:"tag" yaml:"tag"`
	Amount int       `json:"amount" yaml:"amount"`
}

func (e Effect) String() string {
	return fmt.Sprintf("%s(%d)", e.Tag, e.Amount)
}

// TriggerEvent is a game event a glyph can react to.
type TriggerEvent string

const (
	TriggerTurnStart        TriggerEvent = "TURN_START"
	TriggerDiscardForAether TriggerEvent = "DISCARD_FOR_AETHER"
	TriggerSpellResolved    TriggerEvent = "SPELL_RESOLVED"
	TriggerInstantCast      TriggerEvent = "INSTANT_CAST"
	TriggerMarketBuy        TriggerEvent = "MARKET_BUY"
)

// Trigger is a glyph passive: when On fires for the glyph's owner, Effects
// resolve through the effect table.
type Trigger struct {
	On      TriggerEvent `json:"on"`
	Effects []Effect     `json:"effects"`
}

// Template is the static definition of a card.
type Template struct {
	ID                 string
	Name               string
	Type               CardType
	PlayCost           int
	AdvanceRequirement int // 0 for cards that do not advance
	DiscardValue       int
	Effects            []Effect
	Triggers           []Trigger
}

// Card is a card instance in play. Effects and Triggers are shared with the
// template and must never be modified.
type Card struct {
	ID                 string    `json:"id"`
	TemplateID         string    `json:"templateId"`
	Name               string    `json:"name"`
	Type               CardType  `json:"type"`
	PlayCost           int       `json:"playCost"`
	AdvanceRequirement int       `json:"advanceRequirement,omitempty"`
	CurrentPips        int       `json:"currentPips"`
	DiscardValue       int       `json:"discardValue"`
	Effects            []Effect  `json:"effects,omitempty"`
	Triggers           []Trigger `json:"triggers,omitempty"`
}

// NewCard instantiates a template under the given id.
func NewCard(t Template, id string) *Card {
	return &Card{
		ID:                 id,
		TemplateID:         t.ID,
		Name:               t.Name,
		Type:               t.Type,
		PlayCost:           t.PlayCost,
		AdvanceRequirement: t.AdvanceRequirement,
		DiscardValue:       t.DiscardValue,
		Effects:            t.Effects,
		Triggers:           t.Triggers,
	}
}

// Copy returns an independent copy of the card.
func (c *Card) Copy() *Card {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// RemainingPips is the number of advances still needed to resolve.
func (c *Card) RemainingPips() int {
	if c.AdvanceRequirement == 0 {
		return 0
	}
	return c.AdvanceRequirement - c.CurrentPips
}

func (c *Card) String() string {
	return fmt.Sprintf("%s[%s]", c.Name, c.ID)
}
