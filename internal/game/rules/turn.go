package rules

import (
	"fmt"
)

// AgentID identifies one of the two agents.
type AgentID string

const (
	AgentHuman AgentID = "human"
	AgentAI    AgentID = "ai"
)

// Agents lists both agents in seat order.
var Agents = [2]AgentID{AgentHuman, AgentAI}

// Seat returns the index of an agent, or -1 for an unknown id.
func (a AgentID) Seat() int {
	for i, id := range Agents {
		if id == a {
			return i
		}
	}
	return -1
}

// Opponent returns the other agent.
func (a AgentID) Opponent() AgentID {
	if a == AgentHuman {
		return AgentAI
	}
	return AgentHuman
}

// Phase is the turn state of the active agent. There are no sub-phases
// inside ACTIVE: any validated action may follow any other.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseFinished
)

var phaseNames = map[Phase]string{
	PhaseIdle:     "IDLE",
	PhaseActive:   "ACTIVE",
	PhaseFinished: "FINISHED",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}
