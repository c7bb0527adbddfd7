package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_StampsWaitingLog(t *testing.T) {
	// GIVEN a customer enqueued at t=1 and dequeued at t=3
	s := NewSimulator(10)
	q, err := NewQueue(s, "Q", 2)
	require.NoError(t, err)
	c := NewCustomer(0)
	s.Spawn("in", func(p *Process) error {
		if err := p.Wait(1); err != nil {
			return err
		}
		q.Enqueue(p, c)
		return nil
	})
	s.Spawn("out", func(p *Process) error {
		if err := p.Wait(3); err != nil {
			return err
		}
		q.Dequeue(p)
		return nil
	})

	// WHEN run
	require.NoError(t, s.Run())

	// THEN both entries name the queue
	assert.Equal(t, []Record{
		{Time: 1, Label: "enqueue Q"},
		{Time: 3, Label: "dequeue Q"},
	}, c.WaitingLog)

	stats := q.Stats(10)
	assert.Equal(t, "Q", stats.Name)
	assert.Equal(t, 2, stats.Capacity)
	assert.Equal(t, 0, stats.Len)
	assert.Equal(t, 1, stats.Peak)
	assert.InDelta(t, 0.2, stats.MeanLength, 1e-12)
}

func TestQueue_FullQueue_EnqueueLoggedBeforeAdmission(t *testing.T) {
	// GIVEN a full queue of capacity 1
	s := NewSimulator(10)
	q, err := NewQueue(s, "Q", 1)
	require.NoError(t, err)
	first, second := NewCustomer(0), NewCustomer(1)
	s.Spawn("in", func(p *Process) error {
		q.Enqueue(p, first)
		q.Enqueue(p, second)
		return nil
	})
	s.Spawn("out", func(p *Process) error {
		if err := p.Wait(4); err != nil {
			return err
		}
		q.Dequeue(p)
		return nil
	})

	// WHEN run
	require.NoError(t, s.Run())

	// THEN the blocked customer's wait started when it reached the queue
	require.Len(t, second.WaitingLog, 1)
	assert.Equal(t, 0.0, second.WaitingLog[0].Time)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 1, q.Stats(10).BlockedPuts)
}

func TestNewQueue_ZeroCapacity_ReturnsError(t *testing.T) {
	_, err := NewQueue(NewSimulator(1), "Q", 0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}
