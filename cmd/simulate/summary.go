package main

import (
	"fmt"
	"strings"

	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/aetherweave/aether-server-go/internal/game/watchers"
)

type summary struct {
	games      int
	wins       map[rules.AgentID]int
	unfinished int
	totalTurns int
	minTurns   int
	maxTurns   int
	totalLost  int
	totals     [2]watchers.AgentStats
}

func summarize(results []result) summary {
	s := summary{games: len(results), wins: make(map[rules.AgentID]int)}
	for i, r := range results {
		if r.winner == "" {
			s.unfinished++
		} else {
			s.wins[r.winner]++
		}
		s.totalTurns += r.turns
		s.totalLost += r.lost
		for seat, st := range r.stats {
			s.totals[seat].SpellsResolved += st.SpellsResolved
			s.totals[seat].InstantsCast += st.InstantsCast
			s.totals[seat].CardsBought += st.CardsBought
			s.totals[seat].DamageTaken += st.DamageTaken
		}
		if i == 0 || r.turns < s.minTurns {
			s.minTurns = r.turns
		}
		if r.turns > s.maxTurns {
			s.maxTurns = r.turns
		}
	}
	return s
}

func (s summary) averageTurns() float64 {
	if s.games == 0 {
		return 0
	}
	return float64(s.totalTurns) / float64(s.games)
}

func (s summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "games:       %d\n", s.games)
	for _, id := range rules.Agents {
		pct := 0.0
		if s.games > 0 {
			pct = 100 * float64(s.wins[id]) / float64(s.games)
		}
		fmt.Fprintf(&b, "%-12s %d (%.1f%%)\n", string(id)+" wins:", s.wins[id], pct)
	}
	fmt.Fprintf(&b, "unfinished:  %d\n", s.unfinished)
	fmt.Fprintf(&b, "turns:       avg %.1f, min %d, max %d\n", s.averageTurns(), s.minTurns, s.maxTurns)
	if s.games == 0 {
		return b.String()
	}
	n := float64(s.games)
	fmt.Fprintf(&b, "market:      %.1f cards lost per game\n", float64(s.totalLost)/n)
	for seat, id := range rules.Agents {
		t := s.totals[seat]
		fmt.Fprintf(&b, "%-6s per game: %.1f spells, %.1f instants, %.1f buys, %.1f damage taken\n",
			id, float64(t.SpellsResolved)/n, float64(t.InstantsCast)/n, float64(t.CardsBought)/n, float64(t.DamageTaken)/n)
	}
	return b.String()
}
