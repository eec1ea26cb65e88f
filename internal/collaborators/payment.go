package collaborators

import (
	"fmt"
	"math/rand"
	"sync"
)

// SimulatedGateway approves most payments at random. It stands in for the
// real payment provider during development and tests.
type SimulatedGateway struct {
	mu          sync.Mutex
	rng         *rand.Rand
	approveRate float64
}

// NewSimulatedGateway creates a gateway approving roughly approveRate of
// payments (clamped to [0, 1]).
func NewSimulatedGateway(seed int64, approveRate float64) *SimulatedGateway {
	if approveRate < 0 {
		approveRate = 0
	}
	if approveRate > 1 {
		approveRate = 1
	}
	return &SimulatedGateway{
		rng:         rand.New(rand.NewSource(seed)),
		approveRate: approveRate,
	}
}

// AuthorizePayment approves or declines the card at the configured rate.
func (g *SimulatedGateway) AuthorizePayment(cardNumber string) (bool, error) {
	if cardNumber == "" {
		return false, fmt.Errorf("authorize payment: empty card number")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64() < g.approveRate, nil
}

// StaticGateway always returns the configured outcome. Tests use it to
// force declines deterministically.
type StaticGateway struct {
	Approve bool
}

// AuthorizePayment returns the fixed outcome.
func (g StaticGateway) AuthorizePayment(cardNumber string) (bool, error) {
	if cardNumber == "" {
		return false, fmt.Errorf("authorize payment: empty card number")
	}
	return g.Approve, nil
}
