// Implements the named customer queues that connect stages.

package sim

// Queue is a named bounded FIFO of customers. It stamps each customer's
// waiting log on the way in and on the way out.
type Queue struct {
	Name  string
	store *Store[*Customer]
}

// QueueStats summarizes the occupancy of a queue over a run.
type QueueStats struct {
	Name        string
	Capacity    int
	Len         int     // customers still buffered at the end
	Peak        int     // highest occupancy observed
	MeanLength  float64 // time-averaged occupancy
	BlockedPuts int     // enqueues that had to wait for room (backpressure)
}

// NewQueue creates a queue with the given capacity (>= 1).
func NewQueue(sim *Simulator, name string, capacity int) (*Queue, error) {
	store, err := NewStore[*Customer](sim, capacity)
	if err != nil {
		return nil, err
	}
	return &Queue{Name: name, store: store}, nil
}

// Enqueue records the enqueue time, then blocks p until c has been admitted.
func (q *Queue) Enqueue(p *Process, c *Customer) {
	c.AddWaiting(p.Now(), LabelEnqueue+q.Name)
	q.store.Put(p, c)
}

// Dequeue blocks p until a customer is available, then records the dequeue time.
func (q *Queue) Dequeue(p *Process) *Customer {
	c := q.store.Get(p)
	c.AddWaiting(p.Now(), LabelDequeue+q.Name)
	return c
}

// Len returns the number of customers currently buffered.
func (q *Queue) Len() int { return q.store.Len() }

// Capacity returns the queue capacity.
func (q *Queue) Capacity() int { return q.store.Capacity() }

// Stats returns occupancy statistics over [0, horizon].
func (q *Queue) Stats(horizon float64) QueueStats {
	return QueueStats{
		Name:        q.Name,
		Capacity:    q.store.Capacity(),
		Len:         q.store.Len(),
		Peak:        q.store.Peak(),
		MeanLength:  q.store.MeanLength(horizon),
		BlockedPuts: q.store.BlockedPuts(),
	}
}
