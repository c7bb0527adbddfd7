package network

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/buffet-sim/buffet-sim/sim"
	"github.com/buffet-sim/buffet-sim/sim/trace"
	"github.com/buffet-sim/buffet-sim/sim/workload"
)

// Names of the entry and exit points of the network.
const (
	WaitingQueueName  = "Waiting Queue"
	PaymentQueueName  = "Payment Queue"
	PaymentServerName = "Payment Server"
)

// System is the buffet: six queues, twelve servers and the seven stage
// processes connecting them, plus the arrival generator.
type System struct {
	cfg RunConfig
	sim *sim.Simulator
	rng *sim.PartitionedRNG

	WaitingQueue *sim.Queue
	OrderQueues  []*sim.Queue
	StallQueues  []*sim.Queue
	PaymentQueue *sim.Queue
	// Servers in configuration order: waiting, order 0-3, stall 0-5, payment.
	Servers []*sim.Server
	Stages  []*Stage

	arrivals  workload.ArrivalSampler
	customers []*sim.Customer
	trace     *trace.SimulationTrace
}

// Result is everything a run produces for reporting.
type Result struct {
	Customers []*sim.Customer
	Metrics   *sim.Metrics
	Queues    []sim.QueueStats
	Servers   []sim.ServerStats
	Trace     *trace.SimulationTrace
	Clock     float64 // virtual time when the run stopped
}

// NewSystem validates cfg and builds the topology.
func NewSystem(cfg RunConfig) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Discipline == "" {
		cfg.Discipline = DisciplineParallel
	}

	sys := &System{
		cfg: cfg,
		sim: sim.NewSimulator(cfg.Horizon),
		rng: sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)),
	}
	if cfg.TraceLevel == trace.TraceLevelDecisions {
		sys.trace = trace.NewSimulationTrace(trace.TraceConfig{Level: cfg.TraceLevel})
	}

	arrivals, err := workload.NewArrivalSampler(cfg.Arrival, cfg.ArrivalRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	sys.arrivals = arrivals

	if err := sys.buildQueues(); err != nil {
		return nil, err
	}
	if err := sys.buildServers(); err != nil {
		return nil, err
	}
	sys.buildStages()
	return sys, nil
}

func (sys *System) buildQueues() error {
	caps := sys.cfg.QueueCapacities
	newQueue := func(name string, capacity int) (*sim.Queue, error) {
		q, err := sim.NewQueue(sys.sim, name, capacity)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
		return q, nil
	}

	var err error
	if sys.WaitingQueue, err = newQueue(WaitingQueueName, caps[CapacityIndex(0)]); err != nil {
		return err
	}
	for i := 0; i < NumOrderQueues; i++ {
		q, err := newQueue(fmt.Sprintf("Order Queue %d", i), caps[CapacityIndex(1+i)])
		if err != nil {
			return err
		}
		sys.OrderQueues = append(sys.OrderQueues, q)
	}
	for i := 0; i < NumStallQueues; i++ {
		q, err := newQueue(fmt.Sprintf("Stall Queue %d", i), caps[CapacityIndex(1+NumOrderQueues+i)])
		if err != nil {
			return err
		}
		sys.StallQueues = append(sys.StallQueues, q)
	}
	sys.PaymentQueue, err = newQueue(PaymentQueueName, caps[CapacityIndex(NumQueues-1)])
	return err
}

func (sys *System) buildServers() error {
	names := make([]string, 0, NumServers)
	names = append(names, "Waiting Server")
	for i := 0; i < NumOrderQueues*ServersPerOrderStage; i++ {
		names = append(names, fmt.Sprintf("Order Server %d", i))
	}
	for i := 0; i < NumStallQueues*ServersPerStallStage; i++ {
		names = append(names, fmt.Sprintf("Stall Server %d", i))
	}
	names = append(names, PaymentServerName)

	for i, name := range names {
		sampler, err := workload.NewDurationSampler(sys.cfg.ServiceTimes[i])
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
		sys.Servers = append(sys.Servers, sim.NewServer(name, sampler, sys.rng.ForSubsystem(sim.SubsystemServer(name))))
	}
	return nil
}

func (sys *System) buildStages() {
	newStage := func(name string, input *sim.Queue, servers []*sim.Server, policy RoutingPolicy) *Stage {
		rng := sys.rng.ForSubsystem(sim.SubsystemRouting(name))
		return NewStage(name, input, servers, policy, rng, sys.trace)
	}

	sys.Stages = append(sys.Stages, newStage("Waiting Stage", sys.WaitingQueue, sys.Servers[0:1],
		&UniformPolicy{Outcome: OutcomeOrder, Targets: sys.OrderQueues}))

	first := 1
	for i, q := range sys.OrderQueues {
		lo := first + i*ServersPerOrderStage
		sys.Stages = append(sys.Stages, newStage(fmt.Sprintf("Order Stage %d", i), q,
			sys.Servers[lo:lo+ServersPerOrderStage],
			&UniformPolicy{Outcome: OutcomeStall, Targets: sys.StallQueues}))
	}

	first += NumOrderQueues * ServersPerOrderStage
	for i, q := range sys.StallQueues {
		lo := first + i*ServersPerStallStage
		sys.Stages = append(sys.Stages, newStage(fmt.Sprintf("Stall Stage %d", i), q,
			sys.Servers[lo:lo+ServersPerStallStage],
			NewStallPolicy(sys.cfg.StallWeights, q, sys.PaymentQueue, sys.OrderQueues, sys.StallQueues)))
	}

	sys.Stages = append(sys.Stages, newStage("Payment Stage", sys.PaymentQueue, sys.Servers[NumServers-1:],
		DepartPolicy{}))
}

// Queues returns all queues in configuration order.
func (sys *System) Queues() []*sim.Queue {
	qs := []*sim.Queue{sys.WaitingQueue}
	qs = append(qs, sys.OrderQueues...)
	qs = append(qs, sys.StallQueues...)
	return append(qs, sys.PaymentQueue)
}

// Simulator exposes the kernel driving this system.
func (sys *System) Simulator() *sim.Simulator {
	return sys.sim
}

// arrive generates exactly NumCustomers customers, pushing each into the
// waiting queue (blocking while it is full) and then waiting one
// inter-arrival time.
func (sys *System) arrive(p *sim.Process) error {
	rng := sys.rng.ForSubsystem(sim.SubsystemArrivals)
	for i := 0; i < sys.cfg.NumCustomers; i++ {
		c := sim.NewCustomer(i)
		sys.customers = append(sys.customers, c)
		logrus.Debugf("[t=%.3f] << Arrival: %s", p.Now(), c.Name)
		sys.WaitingQueue.Enqueue(p, c)
		if err := p.Wait(sys.arrivals.SampleIAT(rng)); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the simulation to the horizon and reduces the results.
// Configuration or scheduling errors abort the run with no partial result.
func (sys *System) Run() (*Result, error) {
	logrus.Infof("Starting buffet simulation: seed=%d customers=%d rate=%v horizon=%v discipline=%s",
		sys.cfg.Seed, sys.cfg.NumCustomers, sys.cfg.ArrivalRate, sys.cfg.Horizon, sys.cfg.Discipline)

	sys.sim.Spawn("arrivals", sys.arrive)
	for _, st := range sys.Stages {
		st.Start(sys.sim, sys.cfg.Discipline)
	}
	if err := sys.sim.Run(); err != nil {
		return nil, err
	}

	res := &Result{
		Customers: sys.customers,
		Metrics:   sim.ComputeMetrics(sys.customers, sys.cfg.Horizon, PaymentServerName),
		Trace:     sys.trace,
		Clock:     sys.sim.Clock,
	}
	for _, q := range sys.Queues() {
		res.Queues = append(res.Queues, q.Stats(sys.cfg.Horizon))
	}
	for _, s := range sys.Servers {
		res.Servers = append(res.Servers, s.Stats(sys.cfg.Horizon))
	}
	logrus.Infof("Buffet simulation complete: %d/%d customers finished", res.Metrics.Finished, res.Metrics.Generated)
	return res, nil
}

// Run builds a System from cfg and runs it.
func Run(cfg RunConfig) (*Result, error) {
	sys, err := NewSystem(cfg)
	if err != nil {
		return nil, err
	}
	return sys.Run()
}
