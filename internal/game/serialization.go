package game

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/aetherweave/aether-server-go/internal/game/catalog"
	"golang.org/x/crypto/blake2b"
)

// ChecksumVersion is bumped whenever the canonical representation changes.
const ChecksumVersion = 1

// SerializationChecksum is a deterministic digest of a game state. Two
// states with equal checksums agree on every zone, pool, pip and RNG word.
type SerializationChecksum struct {
	Hash    string // BLAKE2b-256 of the canonical representation
	Version int
}

// ComputeChecksum hashes the canonical representation of the state.
func (s *GameState) ComputeChecksum() (*SerializationChecksum, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create hash: %w", err)
	}
	if _, err := h.Write(s.buildDeterministicRepresentation()); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &SerializationChecksum{
		Hash:    hex.EncodeToString(h.Sum(nil)),
		Version: ChecksumVersion,
	}, nil
}

// Checksum returns the hash string, or "" if hashing failed.
func (s *GameState) Checksum() string {
	sum, err := s.ComputeChecksum()
	if err != nil {
		return ""
	}
	return sum.Hash
}

// buildDeterministicRepresentation writes every field that affects future
// play in a fixed order. Zone order is kept as-is: deck order matters.
func (s *GameState) buildDeterministicRepresentation() []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:%d|%s|%s|%s\n", s.Turn, s.Active, s.Phase, s.Winner)
	fmt.Fprintf(&buf, "RNG:%d|%d\n", s.RNG.State, s.RNG.Issued)
	fmt.Fprintf(&buf, "RULES:%d|%d|%d|%d|%v\n",
		s.Rules.HandSize,
		s.Rules.StartingVitality,
		s.Rules.Thresholds.Tier1,
		s.Rules.Thresholds.Tier2,
		s.Rules.MarketPrices,
	)

	for i := range s.Agents {
		a := &s.Agents[i]
		fmt.Fprintf(&buf, "AGENT:%s|%s|%d|%d|%d|%d\n",
			a.ID, a.Weaver, a.Vitality, a.Pool.Aether, a.Pool.Channeled, a.TranceTier)
		writeZone(&buf, "  DECK", a.Deck)
		writeZone(&buf, "  HAND", a.Hand)
		writeZone(&buf, "  DISCARD", a.Discard)
		writeZone(&buf, "  SLOT", a.SpellSlots[:])
		writeZone(&buf, "  GLYPH", []*catalog.Card{a.Glyph})
	}

	writeZone(&buf, "MARKET", s.Market[:])
	writeZone(&buf, "SUPPLY", s.Supply)
	writeZone(&buf, "LOST", s.Lost)

	return buf.Bytes()
}

func writeZone(buf *bytes.Buffer, label string, cards []*catalog.Card) {
	for i, c := range cards {
		if c == nil {
			fmt.Fprintf(buf, "%s[%d]:-\n", label, i)
			continue
		}
		fmt.Fprintf(buf, "%s[%d]:%s|%s|%d\n", label, i, c.ID, c.TemplateID, c.CurrentPips)
	}
}
