package rules

import "fmt"

// ActionType enumerates the transitions the engine accepts.
type ActionType string

const (
	ActionStartTurn        ActionType = "START_TURN"
	ActionPlayToSpellSlot  ActionType = "PLAY_TO_SPELL_SLOT"
	ActionSetGlyph         ActionType = "SET_GLYPH"
	ActionCastInstant      ActionType = "CAST_INSTANT"
	ActionAdvanceSpell     ActionType = "ADVANCE_SPELL"
	ActionDiscardForAether ActionType = "DISCARD_FOR_AETHER"
	ActionBuyFromMarket    ActionType = "BUY_FROM_MARKET"
	ActionEndTurn          ActionType = "END_TURN"
)

// Action is one request from an agent. Fields not used by a type are ignored.
type Action struct {
	Type   ActionType `json:"type"`
	Agent  AgentID    `json:"agent"`
	CardID string     `json:"cardId,omitempty"`
	Slot   int        `json:"slot,omitempty"`
	Amount int        `json:"amount,omitempty"`
}

func (a Action) String() string {
	switch a.Type {
	case ActionPlayToSpellSlot:
		return fmt.Sprintf("%s(%s, %s, %d)", a.Type, a.Agent, a.CardID, a.Slot)
	case ActionSetGlyph, ActionCastInstant, ActionDiscardForAether:
		return fmt.Sprintf("%s(%s, %s)", a.Type, a.Agent, a.CardID)
	case ActionAdvanceSpell:
		return fmt.Sprintf("%s(%s, %d, %d)", a.Type, a.Agent, a.Slot, a.Amount)
	case ActionBuyFromMarket:
		return fmt.Sprintf("%s(%s, %d)", a.Type, a.Agent, a.Slot)
	default:
		return fmt.Sprintf("%s(%s)", a.Type, a.Agent)
	}
}

// StartTurn builds a START_TURN action.
func StartTurn(agent AgentID) Action {
	return Action{Type: ActionStartTurn, Agent: agent}
}

// PlayToSpellSlot builds a PLAY_TO_SPELL_SLOT action.
func PlayToSpellSlot(agent AgentID, cardID string, slot int) Action {
	return Action{Type: ActionPlayToSpellSlot, Agent: agent, CardID: cardID, Slot: slot}
}

// SetGlyph builds a SET_GLYPH action.
func SetGlyph(agent AgentID, cardID string) Action {
	return Action{Type: ActionSetGlyph, Agent: agent, CardID: cardID}
}

// CastInstant builds a CAST_INSTANT action.
func CastInstant(agent AgentID, cardID string) Action {
	return Action{Type: ActionCastInstant, Agent: agent, CardID: cardID}
}

// AdvanceSpell builds an ADVANCE_SPELL action. An amount of 0 means 1.
func AdvanceSpell(agent AgentID, slot, amount int) Action {
	return Action{Type: ActionAdvanceSpell, Agent: agent, Slot: slot, Amount: amount}
}

// DiscardForAether builds a DISCARD_FOR_AETHER action.
func DiscardForAether(agent AgentID, cardID string) Action {
	return Action{Type: ActionDiscardForAether, Agent: agent, CardID: cardID}
}

// BuyFromMarket builds a BUY_FROM_MARKET action.
func BuyFromMarket(agent AgentID, slot int) Action {
	return Action{Type: ActionBuyFromMarket, Agent: agent, Slot: slot}
}

// EndTurn builds an END_TURN action.
func EndTurn(agent AgentID) Action {
	return Action{Type: ActionEndTurn, Agent: agent}
}
