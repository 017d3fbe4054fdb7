// Package watchers tracks per-agent statistics from the game event stream.
package watchers

import (
	"github.com/aetherweave/aether-server-go/internal/game/rules"
)

// Registry keys of the standard watchers.
const (
	KeySpellsResolved = "SpellsResolvedWatcher"
	KeyInstantsCast   = "InstantsCastWatcher"
	KeyCardsBought    = "CardsBoughtWatcher"
	KeyDamageTaken    = "DamageTakenWatcher"
	KeyAetherThisTurn = "AetherSpentThisTurnWatcher"
)

// Counter is a watcher that keeps a total per agent.
type Counter interface {
	rules.Watcher
	GetCount(agent rules.AgentID) int
}

// perAgent counts events by agent.
type perAgent struct {
	*rules.BaseWatcher
	counts map[rules.AgentID]int
}

func newPerAgent(scope rules.WatcherScope, key string) perAgent {
	return perAgent{
		BaseWatcher: rules.NewBaseWatcher(scope, key),
		counts:      make(map[rules.AgentID]int),
	}
}

func (p *perAgent) add(agent rules.AgentID, n int) {
	if agent == "" || n == 0 {
		return
	}
	p.counts[agent] += n
	p.SetCondition(true)
}

// Reset clears the watcher's state.
func (p *perAgent) Reset() {
	p.BaseWatcher.Reset()
	p.counts = make(map[rules.AgentID]int)
}

// GetCount returns the tracked total for agent.
func (p *perAgent) GetCount(agent rules.AgentID) int {
	return p.counts[agent]
}

// SpellsResolvedWatcher counts completed spells.
type SpellsResolvedWatcher struct {
	perAgent
}

// NewSpellsResolvedWatcher creates a spells-resolved watcher.
func NewSpellsResolvedWatcher() *SpellsResolvedWatcher {
	return &SpellsResolvedWatcher{perAgent: newPerAgent(rules.WatcherScopeGame, KeySpellsResolved)}
}

// Watch implements the Watcher interface.
func (w *SpellsResolvedWatcher) Watch(event rules.Event) {
	if event.Type == rules.EventSpellResolved {
		w.add(event.Agent, 1)
	}
}

// InstantsCastWatcher counts instants cast.
type InstantsCastWatcher struct {
	perAgent
}

// NewInstantsCastWatcher creates an instants-cast watcher.
func NewInstantsCastWatcher() *InstantsCastWatcher {
	return &InstantsCastWatcher{perAgent: newPerAgent(rules.WatcherScopeGame, KeyInstantsCast)}
}

// Watch implements the Watcher interface.
func (w *InstantsCastWatcher) Watch(event rules.Event) {
	if event.Type == rules.EventInstantCast {
		w.add(event.Agent, 1)
	}
}

// CardsBoughtWatcher counts market purchases.
type CardsBoughtWatcher struct {
	perAgent
}

// NewCardsBoughtWatcher creates a cards-bought watcher.
func NewCardsBoughtWatcher() *CardsBoughtWatcher {
	return &CardsBoughtWatcher{perAgent: newPerAgent(rules.WatcherScopeGame, KeyCardsBought)}
}

// Watch implements the Watcher interface.
func (w *CardsBoughtWatcher) Watch(event rules.Event) {
	if event.Type == rules.EventCardBought {
		w.add(event.Agent, 1)
	}
}

// DamageTakenWatcher sums vitality lost. VITALITY_CHANGED carries the
// damaged agent and a negative amount.
type DamageTakenWatcher struct {
	perAgent
}

// NewDamageTakenWatcher creates a damage-taken watcher.
func NewDamageTakenWatcher() *DamageTakenWatcher {
	return &DamageTakenWatcher{perAgent: newPerAgent(rules.WatcherScopeGame, KeyDamageTaken)}
}

// Watch implements the Watcher interface.
func (w *DamageTakenWatcher) Watch(event rules.Event) {
	if event.Type == rules.EventVitalityChanged && event.Amount < 0 {
		w.add(event.Agent, -event.Amount)
	}
}

// AetherSpentThisTurnWatcher sums aether spent during the current turn.
type AetherSpentThisTurnWatcher struct {
	perAgent
}

// NewAetherSpentThisTurnWatcher creates a turn-scoped aether watcher.
func NewAetherSpentThisTurnWatcher() *AetherSpentThisTurnWatcher {
	return &AetherSpentThisTurnWatcher{perAgent: newPerAgent(rules.WatcherScopeTurn, KeyAetherThisTurn)}
}

// Watch implements the Watcher interface.
func (w *AetherSpentThisTurnWatcher) Watch(event rules.Event) {
	if event.Type == rules.EventAetherSpent {
		w.add(event.Agent, event.Amount)
	}
}

// GameStats is the set of standard watchers of one game.
type GameStats struct {
	Registry       *rules.WatcherRegistry
	SpellsResolved *SpellsResolvedWatcher
	InstantsCast   *InstantsCastWatcher
	CardsBought    *CardsBoughtWatcher
	DamageTaken    *DamageTakenWatcher
	AetherThisTurn *AetherSpentThisTurnWatcher
}

// NewGameStats registers the standard watchers in a fresh registry.
func NewGameStats() *GameStats {
	s := &GameStats{
		Registry:       rules.NewWatcherRegistry(),
		SpellsResolved: NewSpellsResolvedWatcher(),
		InstantsCast:   NewInstantsCastWatcher(),
		CardsBought:    NewCardsBoughtWatcher(),
		DamageTaken:    NewDamageTakenWatcher(),
		AetherThisTurn: NewAetherSpentThisTurnWatcher(),
	}
	s.Registry.AddWatcher(s.SpellsResolved)
	s.Registry.AddWatcher(s.InstantsCast)
	s.Registry.AddWatcher(s.CardsBought)
	s.Registry.AddWatcher(s.DamageTaken)
	s.Registry.AddWatcher(s.AetherThisTurn)
	return s
}

// AgentStats is a snapshot of one agent's game-scoped counts.
type AgentStats struct {
	SpellsResolved int `json:"spellsResolved"`
	InstantsCast   int `json:"instantsCast"`
	CardsBought    int `json:"cardsBought"`
	DamageTaken    int `json:"damageTaken"`
}

// For returns agent's game-scoped counts from the registry.
func (s *GameStats) For(agent rules.AgentID) AgentStats {
	return AgentStats{
		SpellsResolved: s.Count(KeySpellsResolved, agent),
		InstantsCast:   s.Count(KeyInstantsCast, agent),
		CardsBought:    s.Count(KeyCardsBought, agent),
		DamageTaken:    s.Count(KeyDamageTaken, agent),
	}
}

// Count returns the total of the counter registered under key, or 0 when
// there is none.
func (s *GameStats) Count(key string, agent rules.AgentID) int {
	c, ok := s.Registry.GetWatcher(key).(Counter)
	if !ok {
		return 0
	}
	return c.GetCount(agent)
}
