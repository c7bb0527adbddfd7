package network

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/buffet-sim/buffet-sim/sim"
	"github.com/buffet-sim/buffet-sim/sim/trace"
)

// Stage is one queue + server pool + routing policy unit of the network.
// Every stage runs the same loop: dequeue, serve, route.
type Stage struct {
	Name    string
	Input   *sim.Queue
	Servers []*sim.Server
	Policy  RoutingPolicy

	rng   *rand.Rand
	trace *trace.SimulationTrace
}

// NewStage creates a stage. rng is used only for routing draws.
func NewStage(name string, input *sim.Queue, servers []*sim.Server, policy RoutingPolicy, rng *rand.Rand, st *trace.SimulationTrace) *Stage {
	if len(servers) == 0 {
		panic(fmt.Sprintf("NewStage %s: empty server pool", name))
	}
	return &Stage{
		Name:    name,
		Input:   input,
		Servers: servers,
		Policy:  policy,
		rng:     rng,
		trace:   st,
	}
}

// Start spawns the stage's perpetual processes on s.
func (st *Stage) Start(s *sim.Simulator, discipline Discipline) {
	if discipline == DisciplineAlternating {
		s.Spawn(st.Name, st.alternate)
		return
	}
	for _, srv := range st.Servers {
		s.Spawn(st.Name+"/"+srv.Name, func(p *sim.Process) error {
			for {
				if err := st.step(p, srv); err != nil {
					return err
				}
			}
		})
	}
}

// alternate serves one customer at a time, cycling through the pool.
func (st *Stage) alternate(p *sim.Process) error {
	for i := 0; ; i = (i + 1) % len(st.Servers) {
		if err := st.step(p, st.Servers[i]); err != nil {
			return err
		}
	}
}

func (st *Stage) step(p *sim.Process, srv *sim.Server) error {
	c := st.Input.Dequeue(p)
	if err := srv.Serve(p, c); err != nil {
		return err
	}

	decision := st.Policy.Route(c, st.rng)
	target := ""
	if decision.Target != nil {
		target = decision.Target.Name
	}
	if st.trace.Enabled() {
		st.trace.RecordRouting(trace.RoutingRecord{
			Customer: c.Name,
			Clock:    p.Now(),
			Stage:    st.Name,
			Server:   srv.Name,
			Outcome:  string(decision.Outcome),
			Target:   target,
		})
	}

	if decision.Target == nil {
		logrus.Debugf("[t=%.3f] %s departs after %s", p.Now(), c.Name, srv.Name)
		return nil
	}
	logrus.Debugf("[t=%.3f] %s: %s -> %s (%s)", p.Now(), st.Name, c.Name, target, decision.Reason)
	decision.Target.Enqueue(p, c)
	return nil
}
