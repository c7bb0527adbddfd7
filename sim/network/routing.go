package network

import (
	"fmt"
	"math/rand"

	"github.com/buffet-sim/buffet-sim/sim"
)

// Outcome classifies where a routing decision sends a customer.
type Outcome string

const (
	OutcomeOrder   Outcome = "order"
	OutcomeStall   Outcome = "stall"
	OutcomePayment Outcome = "payment"
	OutcomeDepart  Outcome = "depart"
)

// RoutingDecision encapsulates the routing decision for a served customer.
type RoutingDecision struct {
	Target  *sim.Queue // destination queue; nil when the customer departs
	Outcome Outcome
	Reason  string // Human-readable explanation
}

// RoutingPolicy decides where a stage sends a customer after service.
// Implementations draw only from the rng they are given.
type RoutingPolicy interface {
	Route(c *sim.Customer, rng *rand.Rand) RoutingDecision
}

// UniformPolicy sends every customer to one of Targets chosen uniformly.
type UniformPolicy struct {
	Outcome Outcome
	Targets []*sim.Queue
}

// Route implements RoutingPolicy for UniformPolicy.
func (u *UniformPolicy) Route(_ *sim.Customer, rng *rand.Rand) RoutingDecision {
	if len(u.Targets) == 0 {
		panic("UniformPolicy.Route: no targets")
	}
	idx := rng.Intn(len(u.Targets))
	return RoutingDecision{
		Target:  u.Targets[idx],
		Outcome: u.Outcome,
		Reason:  fmt.Sprintf("uniform[%d/%d]", idx, len(u.Targets)),
	}
}

// StallPolicy routes a customer leaving a stall: to payment, back to an order
// queue, or on to one of the other stalls. The outcome is drawn from an
// explicit discrete distribution; the queue within the outcome is uniform.
// The stall being left is never a candidate.
type StallPolicy struct {
	Weights     StallWeights
	Self        *sim.Queue
	Payment     *sim.Queue
	Orders      []*sim.Queue
	OtherStalls []*sim.Queue
}

// NewStallPolicy builds the policy for the stall fed by self.
func NewStallPolicy(weights StallWeights, self, payment *sim.Queue, orders, stalls []*sim.Queue) *StallPolicy {
	others := make([]*sim.Queue, 0, len(stalls)-1)
	for _, q := range stalls {
		if q != self {
			others = append(others, q)
		}
	}
	return &StallPolicy{
		Weights:     weights,
		Self:        self,
		Payment:     payment,
		Orders:      orders,
		OtherStalls: others,
	}
}

// Route implements RoutingPolicy for StallPolicy.
func (sp *StallPolicy) Route(_ *sim.Customer, rng *rand.Rand) RoutingDecision {
	pPay, pOrder, _ := sp.Weights.Probabilities()
	u := rng.Float64()
	switch {
	case u < pPay:
		return RoutingDecision{
			Target:  sp.Payment,
			Outcome: OutcomePayment,
			Reason:  fmt.Sprintf("u=%.4f < p(payment)=%.4f", u, pPay),
		}
	case u < pPay+pOrder || sp.Weights.OtherStall == 0 || len(sp.OtherStalls) == 0:
		idx := rng.Intn(len(sp.Orders))
		return RoutingDecision{
			Target:  sp.Orders[idx],
			Outcome: OutcomeOrder,
			Reason:  fmt.Sprintf("u=%.4f in order band, order[%d]", u, idx),
		}
	default:
		idx := rng.Intn(len(sp.OtherStalls))
		return RoutingDecision{
			Target:  sp.OtherStalls[idx],
			Outcome: OutcomeStall,
			Reason:  fmt.Sprintf("u=%.4f in other-stall band, other[%d]", u, idx),
		}
	}
}

// DepartPolicy lets the customer leave the network.
type DepartPolicy struct{}

// Route implements RoutingPolicy for DepartPolicy.
func (DepartPolicy) Route(_ *sim.Customer, _ *rand.Rand) RoutingDecision {
	return RoutingDecision{Outcome: OutcomeDepart, Reason: "exit"}
}
