package sim

import (
	"fmt"
	"math"
)

// Store is a bounded FIFO buffer shared between logical processes.
// Put blocks while the store is full and Get blocks while it is empty.
// Blocked producers and consumers are released in the order they blocked.
type Store[T any] struct {
	sim      *Simulator
	capacity int
	items    []T
	putters  []*putRequest[T]
	getters  []*getRequest[T]

	peak        int
	blockedPuts int
	blockedGets int
	area        float64 // integral of len(items) over virtual time
	lastChange  float64
}

type putRequest[T any] struct {
	proc *Process
	item T
}

type getRequest[T any] struct {
	proc *Process
	item T
}

// NewStore creates a store holding at most capacity items.
func NewStore[T any](sim *Simulator, capacity int) (*Store[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return &Store[T]{
		sim:      sim,
		capacity: capacity,
		items:    make([]T, 0, capacity),
	}, nil
}

// Put appends item, suspending p until there is room for it.
func (s *Store[T]) Put(p *Process, item T) {
	if len(s.putters) == 0 && len(s.items) < s.capacity {
		s.push(item)
		s.settle()
		return
	}
	s.blockedPuts++
	s.putters = append(s.putters, &putRequest[T]{proc: p, item: item})
	p.suspend()
}

// Get removes and returns the head item, suspending p until one is available.
func (s *Store[T]) Get(p *Process) T {
	if len(s.getters) == 0 && len(s.items) > 0 {
		item := s.pop()
		s.settle()
		return item
	}
	s.blockedGets++
	req := &getRequest[T]{proc: p}
	s.getters = append(s.getters, req)
	p.suspend()
	return req.item
}

// settle matches waiting consumers with items and waiting producers with free
// slots until neither side can make progress. Released processes are woken at
// the current time in the order they blocked.
func (s *Store[T]) settle() {
	for {
		progressed := false
		for len(s.getters) > 0 && len(s.items) > 0 {
			req := s.getters[0]
			s.getters = s.getters[1:]
			req.item = s.pop()
			s.sim.wake(req.proc)
			progressed = true
		}
		for len(s.putters) > 0 && len(s.items) < s.capacity {
			req := s.putters[0]
			s.putters = s.putters[1:]
			s.push(req.item)
			s.sim.wake(req.proc)
			progressed = true
		}
		if !progressed {
			return
		}
	}
}

func (s *Store[T]) push(item T) {
	s.accumulate()
	s.items = append(s.items, item)
	if len(s.items) > s.capacity {
		panic(fmt.Sprintf("Store: length %d exceeds capacity %d", len(s.items), s.capacity))
	}
	s.peak = max(s.peak, len(s.items))
}

func (s *Store[T]) pop() T {
	s.accumulate()
	item := s.items[0]
	var zero T
	s.items[0] = zero
	s.items = s.items[1:]
	return item
}

func (s *Store[T]) accumulate() {
	now := s.sim.Clock
	s.area += float64(len(s.items)) * (now - s.lastChange)
	s.lastChange = now
}

// Len returns the number of buffered items.
func (s *Store[T]) Len() int { return len(s.items) }

// Capacity returns the fixed capacity.
func (s *Store[T]) Capacity() int { return s.capacity }

// Peak returns the highest occupancy observed.
func (s *Store[T]) Peak() int { return s.peak }

// BlockedPuts returns how many Put calls had to wait for room.
func (s *Store[T]) BlockedPuts() int { return s.blockedPuts }

// BlockedGets returns how many Get calls had to wait for an item.
func (s *Store[T]) BlockedGets() int { return s.blockedGets }

// WaitingProducers returns the number of processes blocked in Put.
func (s *Store[T]) WaitingProducers() int { return len(s.putters) }

// WaitingConsumers returns the number of processes blocked in Get.
func (s *Store[T]) WaitingConsumers() int { return len(s.getters) }

// MeanLength returns the time-averaged occupancy over [0, until].
func (s *Store[T]) MeanLength(until float64) float64 {
	if until <= 0 || math.IsInf(until, 0) {
		return math.NaN()
	}
	area := s.area
	if until > s.lastChange {
		area += float64(len(s.items)) * (until - s.lastChange)
	}
	return area / until
}
