package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// DurationSampler draws service durations in virtual time units.
// Implementations live in sim/workload.
type DurationSampler interface {
	Sample(rng *rand.Rand) float64
}

// Server holds one customer at a time for a sampled duration.
// It has no queue of its own: callers dequeue from an upstream Queue first.
type Server struct {
	Name string

	sampler   DurationSampler
	rng       *rand.Rand
	busy      bool
	busySince float64
	busyTime  float64
	served    int
}

// ServerStats summarizes a server's activity over a run.
type ServerStats struct {
	Name        string
	Served      int     // completed services
	BusyTime    float64 // virtual time spent serving, including an in-progress service
	Utilization float64 // BusyTime / horizon
}

// NewServer creates a server drawing durations from sampler using rng.
func NewServer(name string, sampler DurationSampler, rng *rand.Rand) *Server {
	if sampler == nil {
		panic("NewServer: sampler must not be nil")
	}
	return &Server{Name: name, sampler: sampler, rng: rng}
}

// Busy reports whether a customer currently occupies the server.
func (s *Server) Busy() bool { return s.busy }

// Serve occupies the server with c for one sampled duration, suspending p
// meanwhile, and appends the start/end entries to c's service log.
func (s *Server) Serve(p *Process, c *Customer) error {
	if s.busy {
		return fmt.Errorf("%w: %s cannot take %s", ErrServerBusy, s.Name, c.Name)
	}
	d := s.sampler.Sample(s.rng)
	if d < 0 || math.IsNaN(d) {
		return fmt.Errorf("%w: %s drew %v", ErrNegativeDuration, s.Name, d)
	}

	start := p.Now()
	s.busy = true
	s.busySince = start
	logrus.Debugf("[t=%.3f] %s serving %s for %.3f", start, s.Name, c.Name, d)
	if err := p.Wait(d); err != nil {
		s.busy = false
		return err
	}
	end := p.Now()
	s.busy = false
	s.busyTime += end - start
	s.served++

	c.AddService(start, LabelServed+s.Name)
	c.AddService(end, LabelCompleted+s.Name)
	return nil
}

// Stats returns activity statistics over [0, horizon].
func (s *Server) Stats(horizon float64) ServerStats {
	busy := s.busyTime
	if s.busy {
		busy += max(0, horizon-s.busySince)
	}
	util := math.NaN()
	if horizon > 0 && !math.IsInf(horizon, 0) {
		util = busy / horizon
	}
	return ServerStats{Name: s.Name, Served: s.served, BusyTime: busy, Utilization: util}
}
