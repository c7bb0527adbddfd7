package sim

import (
	"fmt"
	"runtime"
)

// Process is a cooperatively scheduled logical process. Its body runs on its
// own goroutine but only while the Simulator has handed it control; it gives
// control back at every suspension point (Wait, Store.Put, Store.Get).
type Process struct {
	Name string

	sim     *Simulator
	fn      func(p *Process) error
	resume  chan struct{}
	started bool
	done    bool
	killed  bool
}

// Now returns the simulator's current virtual time.
func (p *Process) Now() float64 {
	return p.sim.Clock
}

// Done reports whether the process body has returned or was torn down.
func (p *Process) Done() bool {
	return p.done
}

// Simulator returns the simulator that owns this process.
func (p *Process) Simulator() *Simulator {
	return p.sim
}

// Wait suspends the process for delay units of virtual time.
// A negative or NaN delay is a defect and returns ErrNegativeDelay without
// suspending. An infinite delay parks the process past any finite horizon.
func (p *Process) Wait(delay float64) error {
	if err := p.sim.scheduleWake(p, delay); err != nil {
		return err
	}
	p.suspend()
	return nil
}

// suspend yields control to the simulator and blocks until resumed.
// A process resumed for teardown exits its goroutine here.
func (p *Process) suspend() {
	if p.sim.current != p {
		panic(fmt.Sprintf("process %s suspended while not running", p.Name))
	}
	p.sim.yield <- struct{}{}
	<-p.resume
	if p.killed {
		runtime.Goexit()
	}
}

func (p *Process) run() {
	defer func() {
		if r := recover(); r != nil {
			p.sim.fail(fmt.Errorf("process %s panicked: %v", p.Name, r))
		}
		p.done = true
		p.sim.yield <- struct{}{}
	}()
	if err := p.fn(p); err != nil {
		p.sim.fail(fmt.Errorf("process %s: %w", p.Name, err))
	}
}
