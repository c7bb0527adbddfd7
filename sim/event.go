package sim

// Event defines the interface for all simulation events.
// Each event has a Timestamp (virtual time) and an Execute method
// that advances simulation state when invoked.
type Event interface {
	Timestamp() float64
	Execute(*Simulator)
}

// WakeEvent resumes a suspended logical process.
type WakeEvent struct {
	time float64  // Virtual time at which the process resumes
	Proc *Process // The process to resume
}

// Timestamp returns the scheduled time of the WakeEvent.
func (e *WakeEvent) Timestamp() float64 {
	return e.time
}

// Execute hands control to the target process until it suspends again.
func (e *WakeEvent) Execute(sim *Simulator) {
	sim.resume(e.Proc)
}

// eventEntry wraps an Event with a sequence ID for deterministic FIFO
// tie-breaking when timestamps are equal.
type eventEntry struct {
	event Event
	seqID uint64
}

// EventQueue is a min-heap ordered by (Timestamp, seqID).
// Implements heap.Interface.
type EventQueue []eventEntry

func (q EventQueue) Len() int { return len(q) }

func (q EventQueue) Less(i, j int) bool {
	if q[i].event.Timestamp() != q[j].event.Timestamp() {
		return q[i].event.Timestamp() < q[j].event.Timestamp()
	}
	return q[i].seqID < q[j].seqID
}

func (q EventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *EventQueue) Push(x any) {
	*q = append(*q, x.(eventEntry))
}

func (q *EventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// peek returns the next event without removing it, or nil when empty.
func (q EventQueue) peek() Event {
	if len(q) == 0 {
		return nil
	}
	return q[0].event
}
