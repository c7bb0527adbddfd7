// sim/simulator.go
package sim

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNegativeDelay is returned when a wake-up is requested in the past.
	ErrNegativeDelay = errors.New("negative scheduling delay")
	// ErrNegativeDuration is returned when a server draws a negative service time.
	ErrNegativeDuration = errors.New("negative service duration")
	// ErrInvalidCapacity is returned when a store is created with capacity < 1.
	ErrInvalidCapacity = errors.New("store capacity must be >= 1")
	// ErrServerBusy is returned when a server is asked to serve while occupied.
	ErrServerBusy = errors.New("server already occupied")
	// ErrAlreadyRun is returned when Run is called twice on the same Simulator.
	ErrAlreadyRun = errors.New("simulator already ran")
)

// Simulator is the core object that holds virtual time, the event queue and
// the set of logical processes.
//
// Processes are backed by goroutines, but only one of them executes at any
// instant: the simulator hands control to a process and blocks until the
// process yields back by waiting on a timer or a store. All queue and server
// state is therefore mutated by exactly one goroutine at a time and needs no
// locking.
type Simulator struct {
	Clock   float64
	Horizon float64
	// EventQueue has all pending wake-ups ordered by (time, scheduling order)
	EventQueue EventQueue

	nextSeq uint64
	procs   []*Process
	current *Process
	yield   chan struct{}
	err     error
	ran     bool
}

// NewSimulator creates a simulator whose Run stops once virtual time reaches horizon.
func NewSimulator(horizon float64) *Simulator {
	return &Simulator{
		Clock:      0,
		Horizon:    horizon,
		EventQueue: make(EventQueue, 0),
		yield:      make(chan struct{}),
	}
}

// Now returns the current virtual time.
func (sim *Simulator) Now() float64 {
	return sim.Clock
}

// Schedule pushes an event into the simulator's EventQueue.
// Events timestamped before the current clock are rejected.
func (sim *Simulator) Schedule(ev Event) error {
	ts := ev.Timestamp()
	if math.IsNaN(ts) || ts < sim.Clock {
		return fmt.Errorf("%w: event at %v scheduled at clock %v", ErrNegativeDelay, ts, sim.Clock)
	}
	sim.nextSeq++
	heap.Push(&sim.EventQueue, eventEntry{event: ev, seqID: sim.nextSeq})
	return nil
}

// scheduleWake registers a wake-up for p at Clock + delay.
func (sim *Simulator) scheduleWake(p *Process, delay float64) error {
	if math.IsNaN(delay) || delay < 0 {
		return fmt.Errorf("%w: %v (process %s)", ErrNegativeDelay, delay, p.Name)
	}
	return sim.Schedule(&WakeEvent{time: sim.Clock + delay, Proc: p})
}

// wake makes p runnable at the current time, after anything already due now.
func (sim *Simulator) wake(p *Process) {
	// zero delay cannot fail
	_ = sim.scheduleWake(p, 0)
}

// Spawn registers a new logical process. It first runs at the current
// virtual time, after every event already scheduled for that time.
// A non-nil error returned by fn aborts the run.
func (sim *Simulator) Spawn(name string, fn func(p *Process) error) *Process {
	p := &Process{
		Name:   name,
		sim:    sim,
		fn:     fn,
		resume: make(chan struct{}),
	}
	sim.procs = append(sim.procs, p)
	sim.wake(p)
	return p
}

// Processes returns every process spawned so far, in spawn order.
func (sim *Simulator) Processes() []*Process {
	return sim.procs
}

// Run executes events in time order until the queue is empty, the next event
// is due at or beyond the horizon, or a process fails. Processes still
// suspended when Run returns are torn down.
func (sim *Simulator) Run() error {
	if sim.ran {
		return ErrAlreadyRun
	}
	sim.ran = true
	logrus.Infof("[t=%.3f] Simulation started, horizon=%v, processes=%d", sim.Clock, sim.Horizon, len(sim.procs))

	for sim.EventQueue.Len() > 0 && sim.err == nil {
		if next := sim.EventQueue.peek(); next.Timestamp() >= sim.Horizon {
			sim.Clock = sim.Horizon
			break
		}
		entry := heap.Pop(&sim.EventQueue).(eventEntry)
		ts := entry.event.Timestamp()
		if ts < sim.Clock {
			panic(fmt.Sprintf("Run: clock moved backwards from %v to %v", sim.Clock, ts))
		}
		sim.Clock = ts
		logrus.Debugf("[t=%.3f] Executing %T", sim.Clock, entry.event)
		entry.event.Execute(sim)
	}

	sim.shutdown()
	if sim.err != nil {
		logrus.Errorf("[t=%.3f] Simulation aborted: %v", sim.Clock, sim.err)
		return sim.err
	}
	logrus.Infof("[t=%.3f] Simulation ended", sim.Clock)
	return nil
}

// resume hands control to p and blocks until p suspends or finishes.
func (sim *Simulator) resume(p *Process) {
	if p.done {
		return
	}
	sim.current = p
	if !p.started {
		p.started = true
		go p.run()
	} else {
		p.resume <- struct{}{}
	}
	<-sim.yield
	sim.current = nil
}

// shutdown unwinds every suspended process so no goroutine outlives Run.
func (sim *Simulator) shutdown() {
	for _, p := range sim.procs {
		if p.done {
			continue
		}
		if !p.started {
			p.done = true
			continue
		}
		p.killed = true
		sim.current = p
		p.resume <- struct{}{}
		<-sim.yield
		sim.current = nil
	}
	if n := sim.EventQueue.Len(); n > 0 {
		logrus.Debugf("[t=%.3f] %d pending events discarded", sim.Clock, n)
	}
}

// fail records the first error raised by a process.
func (sim *Simulator) fail(err error) {
	if sim.err == nil {
		sim.err = err
	}
}
