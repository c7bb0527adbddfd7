package network

import (
	"errors"
	"fmt"
	"math"

	"github.com/buffet-sim/buffet-sim/sim/trace"
	"github.com/buffet-sim/buffet-sim/sim/workload"
)

// Fixed topology sizes.
const (
	NumOrderQueues = 2
	NumStallQueues = 3
	NumQueues      = 1 + NumOrderQueues + NumStallQueues + 1 // waiting, order, stall, payment
	// NumQueueCapacities is the length of RunConfig.QueueCapacities. The last
	// stall queue and the payment queue share the final entry.
	NumQueueCapacities = 1 + NumOrderQueues + NumStallQueues

	ServersPerOrderStage = 2
	ServersPerStallStage = 2
	NumServers           = 1 + NumOrderQueues*ServersPerOrderStage + NumStallQueues*ServersPerStallStage + 1
)

// ErrInvalidConfig wraps every configuration error detected before a run.
var ErrInvalidConfig = errors.New("invalid run configuration")

// Discipline selects how a stage drives its server pool.
type Discipline string

const (
	// DisciplineParallel runs one worker per server; all workers pull from the
	// stage's input queue, so a stage serves up to pool-size customers at once.
	DisciplineParallel Discipline = "parallel"
	// DisciplineAlternating runs one process per stage that hands successive
	// customers to its servers in round-robin order, one at a time.
	DisciplineAlternating Discipline = "alternating"
)

// StallWeights is the discrete distribution over the three stall-stage
// outcomes. Weights need not sum to one; they are normalized.
type StallWeights struct {
	Payment    float64 `yaml:"payment"`
	Order      float64 `yaml:"order"`
	OtherStall float64 `yaml:"other_stall"`
}

// DefaultStallWeights reproduces a fair coin for payment, then a fair coin
// between returning to an order queue and moving to another stall.
var DefaultStallWeights = StallWeights{Payment: 0.5, Order: 0.25, OtherStall: 0.25}

// RunConfig is the immutable input of a run.
type RunConfig struct {
	Seed         int64
	NumCustomers int
	ArrivalRate  float64
	Arrival      workload.ArrivalSpec
	// ServiceTimes holds one entry per server, in order: 1 waiting, 4 order,
	// 6 stall, 1 payment.
	ServiceTimes []workload.DistSpec
	// QueueCapacities holds NumQueueCapacities entries, in order: 1 waiting,
	// 2 order, 3 stall. The payment queue reuses the last entry.
	QueueCapacities []int
	Horizon         float64
	StallWeights    StallWeights
	Discipline      Discipline
	TraceLevel      trace.TraceLevel
}

// DefaultRunConfig returns the reference buffet: 30 customers at rate 0.4,
// constant service times and a horizon of 100.
func DefaultRunConfig() RunConfig {
	means := []float64{1, 3, 4, 3, 5, 4, 3, 4, 4, 3, 5, 1}
	services := make([]workload.DistSpec, len(means))
	for i, m := range means {
		services[i] = workload.Constant(m)
	}
	return RunConfig{
		Seed:            42,
		NumCustomers:    30,
		ArrivalRate:     0.4,
		Arrival:         workload.ArrivalSpec{Process: "poisson"},
		ServiceTimes:    services,
		QueueCapacities: []int{5, 3, 4, 3, 4, 5},
		Horizon:         100,
		StallWeights:    DefaultStallWeights,
		Discipline:      DisciplineParallel,
		TraceLevel:      trace.TraceLevelNone,
	}
}

// Validate checks the configuration against the fixed topology.
// All errors wrap ErrInvalidConfig.
func (c RunConfig) Validate() error {
	if c.NumCustomers < 0 {
		return invalid("num customers must be >= 0, got %d", c.NumCustomers)
	}
	if !(c.ArrivalRate > 0) || math.IsInf(c.ArrivalRate, 0) {
		return invalid("arrival rate must be positive and finite, got %v", c.ArrivalRate)
	}
	if !workload.ValidArrivalProcess(c.Arrival.Process) && c.Arrival.Process != "" {
		return invalid("unknown arrival process %q", c.Arrival.Process)
	}
	if !(c.Horizon > 0) || math.IsInf(c.Horizon, 0) {
		return invalid("horizon must be positive and finite, got %v", c.Horizon)
	}
	if len(c.ServiceTimes) != NumServers {
		return invalid("expected %d service times (1 waiting, 4 order, 6 stall, 1 payment), got %d",
			NumServers, len(c.ServiceTimes))
	}
	for i, spec := range c.ServiceTimes {
		if _, err := workload.NewDurationSampler(spec); err != nil {
			return invalid("service time %d: %v", i, err)
		}
	}
	if len(c.QueueCapacities) != NumQueueCapacities {
		return invalid("expected %d queue capacities (1 waiting, 2 order, 3 stall; payment shares the last), got %d",
			NumQueueCapacities, len(c.QueueCapacities))
	}
	for i, capacity := range c.QueueCapacities {
		if capacity < 1 {
			return invalid("queue capacity %d must be >= 1, got %d", i, capacity)
		}
	}
	if err := c.StallWeights.validate(); err != nil {
		return err
	}
	switch c.Discipline {
	case DisciplineParallel, DisciplineAlternating, "":
	default:
		return invalid("unknown service discipline %q", c.Discipline)
	}
	if !trace.IsValidTraceLevel(string(c.TraceLevel)) {
		return invalid("unknown trace level %q", c.TraceLevel)
	}
	return nil
}

// CapacityIndex returns the QueueCapacities entry sizing queue q, where q
// indexes System.Queues (waiting, order, stall, payment).
func CapacityIndex(q int) int {
	return min(q, NumQueueCapacities-1)
}

func (w StallWeights) validate() error {
	sum := 0.0
	for _, v := range []float64{w.Payment, w.Order, w.OtherStall} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("stall weights must be finite and >= 0, got %+v", w)
		}
		sum += v
	}
	if sum == 0 {
		return invalid("stall weights must not all be zero")
	}
	return nil
}

// Probabilities returns the normalized (payment, order, other-stall) probabilities.
func (w StallWeights) Probabilities() (payment, order, otherStall float64) {
	sum := w.Payment + w.Order + w.OtherStall
	return w.Payment / sum, w.Order / sum, w.OtherStall / sum
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
