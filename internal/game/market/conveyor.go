// Package market implements the five-position acquisition row.
//
// Cards enter at position 0 and drift right one position per turn end; the
// card pushed past position 4 is lost. Prices depend on position only.
package market

import (
	"fmt"

	"github.com/aetherweave/aether-server-go/internal/game/catalog"
)

// Size is the fixed number of market positions.
const Size = 5

// Prices is a per-position price schedule.
type Prices [Size]int

// DefaultPrices is the canonical schedule: newest cards cost the most.
var DefaultPrices = Prices{4, 3, 3, 2, 2}

// Row is the visible market. A nil entry is an empty position.
type Row [Size]*catalog.Card

// Copy returns a row whose cards are independent copies.
func (r Row) Copy() Row {
	var out Row
	for i, c := range r {
		out[i] = c.Copy()
	}
	return out
}

// Price returns the price of a position.
func (p Prices) Price(slot int) (int, error) {
	if slot < 0 || slot >= Size {
		return 0, fmt.Errorf("market slot %d out of range", slot)
	}
	return p[slot], nil
}

// Count returns the number of occupied positions.
func (r Row) Count() int {
	n := 0
	for _, c := range r {
		if c != nil {
			n++
		}
	}
	return n
}

// Buy removes the card at slot and telescopes every position left of it one
// step right, leaving position 0 empty. Positions right of slot keep their
// cards. The caller validates the slot.
func (r Row) Buy(slot int) (Row, *catalog.Card) {
	bought := r[slot]
	out := r
	for i := slot; i > 0; i-- {
		out[i] = r[i-1]
	}
	out[0] = nil
	return out, bought
}

// Shift moves the whole row one step right, opening position 0. The card
// that falls off the end (nil if the last position was empty) is returned.
func (r Row) Shift() (Row, *catalog.Card) {
	lost := r[Size-1]
	var out Row
	for i := Size - 1; i > 0; i-- {
		out[i] = r[i-1]
	}
	return out, lost
}

// Refill draws from the top of supply into every empty position, left to
// right, until supply runs out. It returns the new row, the remaining supply
// and the positions that were filled.
func (r Row) Refill(supply []*catalog.Card) (Row, []*catalog.Card, []int) {
	var filled []int
	for i := range r {
		if r[i] != nil {
			continue
		}
		if len(supply) == 0 {
			break
		}
		r[i] = supply[0]
		supply = supply[1:]
		filled = append(filled, i)
	}
	return r, supply, filled
}
