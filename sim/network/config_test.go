package network

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/buffet-sim/buffet-sim/sim/workload"
)

func TestDefaultRunConfig_IsValid(t *testing.T) {
	cfg := DefaultRunConfig()
	assert.NoError(t, cfg.Validate())
	assert.Len(t, cfg.ServiceTimes, NumServers)
	assert.Len(t, cfg.QueueCapacities, NumQueueCapacities)
	assert.Equal(t, 12, NumServers)
	assert.Equal(t, 7, NumQueues)
	assert.Equal(t, 6, NumQueueCapacities)
}

func TestRunConfig_Validate_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunConfig)
	}{
		{"eleven service times", func(c *RunConfig) { c.ServiceTimes = c.ServiceTimes[:11] }},
		{"five capacities", func(c *RunConfig) { c.QueueCapacities = c.QueueCapacities[:5] }},
		{"seven capacities", func(c *RunConfig) { c.QueueCapacities = append(c.QueueCapacities, 5) }},
		{"zero capacity", func(c *RunConfig) { c.QueueCapacities[3] = 0 }},
		{"negative service mean", func(c *RunConfig) { c.ServiceTimes[0] = workload.Constant(-1) }},
		{"unknown distribution", func(c *RunConfig) { c.ServiceTimes[0] = workload.DistSpec{Type: "lognormal"} }},
		{"zero arrival rate", func(c *RunConfig) { c.ArrivalRate = 0 }},
		{"NaN arrival rate", func(c *RunConfig) { c.ArrivalRate = math.NaN() }},
		{"negative customers", func(c *RunConfig) { c.NumCustomers = -1 }},
		{"zero horizon", func(c *RunConfig) { c.Horizon = 0 }},
		{"infinite horizon", func(c *RunConfig) { c.Horizon = math.Inf(1) }},
		{"unknown arrival process", func(c *RunConfig) { c.Arrival.Process = "bursty" }},
		{"all-zero stall weights", func(c *RunConfig) { c.StallWeights = StallWeights{} }},
		{"negative stall weight", func(c *RunConfig) { c.StallWeights.Order = -0.1 }},
		{"unknown discipline", func(c *RunConfig) { c.Discipline = "random" }},
		{"unknown trace level", func(c *RunConfig) { c.TraceLevel = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRunConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestRunConfig_Validate_ZeroCustomersAllowed(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.NumCustomers = 0
	assert.NoError(t, cfg.Validate())
}

func TestCapacityIndex_PaymentSharesLastEntry(t *testing.T) {
	// waiting, order 0-1, stall 0-2, payment
	want := []int{0, 1, 2, 3, 4, 5, 5}
	for q, idx := range want {
		assert.Equal(t, idx, CapacityIndex(q), "queue %d", q)
	}
}

func TestStallWeights_Probabilities_Normalize(t *testing.T) {
	pay, order, other := StallWeights{Payment: 2, Order: 1, OtherStall: 1}.Probabilities()
	assert.InDelta(t, 0.5, pay, 1e-12)
	assert.InDelta(t, 0.25, order, 1e-12)
	assert.InDelta(t, 0.25, other, 1e-12)

	pay, order, other = DefaultStallWeights.Probabilities()
	assert.InDelta(t, 1.0, pay+order+other, 1e-12)
}
