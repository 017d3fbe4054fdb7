// Package aether models an agent's two-tier resource pool.
package aether

// Pool holds an agent's spendable resources.
//
// Aether is the primary pool and empties at its owner's turn start.
// Channeled aether persists across turns and is only drawn on when a cost
// allows it.
type Pool struct {
	Aether    int `json:"aether"`
	Channeled int `json:"channeledAether"`
}

// Add adds aether to the primary pool.
func (p *Pool) Add(amount int) {
	if amount <= 0 {
		return
	}
	p.Aether += amount
}

// AddChanneled adds aether to the channeled pool.
func (p *Pool) AddChanneled(amount int) {
	if amount <= 0 {
		return
	}
	p.Channeled += amount
}

// Total returns primary plus channeled aether.
func (p Pool) Total() int {
	return p.Aether + p.Channeled
}

// CanAfford reports whether cost can be paid from both pools.
func (p Pool) CanAfford(cost int) bool {
	return cost <= p.Total()
}

// Spend pays cost from the primary pool first, then from channeled aether.
// Returns false and leaves the pool unchanged when the total is short.
func (p *Pool) Spend(cost int) bool {
	if cost <= 0 {
		return true
	}
	if cost > p.Total() {
		return false
	}

	fromAether := cost
	if fromAether > p.Aether {
		fromAether = p.Aether
	}
	p.Aether -= fromAether
	p.Channeled -= cost - fromAether
	return true
}

// SpendAether pays cost from the primary pool only.
func (p *Pool) SpendAether(cost int) bool {
	if cost <= 0 {
		return true
	}
	if cost > p.Aether {
		return false
	}
	p.Aether -= cost
	return true
}

// Drain removes up to amount channeled aether and returns how much was lost.
func (p *Pool) Drain(amount int) int {
	if amount <= 0 {
		return 0
	}
	if amount > p.Channeled {
		amount = p.Channeled
	}
	p.Channeled -= amount
	return amount
}

// Empty empties the primary pool (channeled aether persists).
func (p *Pool) Empty() {
	p.Aether = 0
}
