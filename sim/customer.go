// Customer lifecycle: created by the arrival generator, carried through the
// stage network, and kept afterwards for metrics.

package sim

import (
	"fmt"
	"strings"
)

// Label prefixes written into customer logs.
const (
	LabelEnqueue   = "enqueue "
	LabelDequeue   = "dequeue "
	LabelServed    = "served by "
	LabelCompleted = "completed service by "
)

// Record is a single timestamped entry of a customer log.
type Record struct {
	Time  float64
	Label string
}

func (r Record) String() string {
	return fmt.Sprintf("(%v, %q)", r.Time, r.Label)
}

// Customer is the unit of flow through the network.
// A customer occupies exactly one stage at a time, so its logs are only
// mutated by the process currently holding it.
type Customer struct {
	ID   int
	Name string
	// WaitingLog holds enqueue/dequeue pairs, one pair per queue visited.
	WaitingLog []Record
	// ServiceLog holds served/completed pairs, one pair per service received.
	ServiceLog []Record
}

// NewCustomer creates customer number id.
func NewCustomer(id int) *Customer {
	return &Customer{
		ID:   id,
		Name: fmt.Sprintf("Customer-%d", id),
	}
}

func (c *Customer) String() string {
	return c.Name
}

// AddWaiting appends an entry to the waiting log.
func (c *Customer) AddWaiting(t float64, label string) {
	c.WaitingLog = append(c.WaitingLog, Record{Time: t, Label: label})
}

// AddService appends an entry to the service log.
func (c *Customer) AddService(t float64, label string) {
	c.ServiceLog = append(c.ServiceLog, Record{Time: t, Label: label})
}

// FinishedAt reports whether the last service entry is the completion marker
// of the named server.
func (c *Customer) FinishedAt(server string) bool {
	n := len(c.ServiceLog)
	return n > 0 && c.ServiceLog[n-1].Label == LabelCompleted+server
}

// WaitingTime sums dequeue - enqueue over every complete pair of the waiting log.
func (c *Customer) WaitingTime() float64 {
	return pairedSum(c.WaitingLog)
}

// ServiceTime sums completed - served over every pair of the service log.
func (c *Customer) ServiceTime() float64 {
	return pairedSum(c.ServiceLog)
}

// ArrivalTime returns the time of the first enqueue, or false if the customer
// never entered a queue.
func (c *Customer) ArrivalTime() (float64, bool) {
	if len(c.WaitingLog) == 0 {
		return 0, false
	}
	return c.WaitingLog[0].Time, true
}

// SojournTime returns last service completion minus arrival.
func (c *Customer) SojournTime() (float64, bool) {
	arrival, ok := c.ArrivalTime()
	if !ok || len(c.ServiceLog) == 0 {
		return 0, false
	}
	return c.ServiceLog[len(c.ServiceLog)-1].Time - arrival, true
}

// CheckLogs verifies that both logs alternate start/end markers naming the
// same queue or server. A trailing unmatched enqueue is allowed: the customer
// was still waiting when the run ended.
func (c *Customer) CheckLogs() error {
	if err := checkPairs(c.WaitingLog, LabelEnqueue, LabelDequeue, true); err != nil {
		return fmt.Errorf("%s waiting log: %w", c.Name, err)
	}
	if err := checkPairs(c.ServiceLog, LabelServed, LabelCompleted, false); err != nil {
		return fmt.Errorf("%s service log: %w", c.Name, err)
	}
	return nil
}

func checkPairs(log []Record, open, closing string, allowOpenTail bool) error {
	for i := 0; i < len(log); i += 2 {
		start := log[i]
		if !strings.HasPrefix(start.Label, open) {
			return fmt.Errorf("entry %d %v: want prefix %q", i, start, open)
		}
		if i+1 == len(log) {
			if allowOpenTail {
				return nil
			}
			return fmt.Errorf("entry %d %v has no matching end", i, start)
		}
		end := log[i+1]
		if end.Label != closing+strings.TrimPrefix(start.Label, open) {
			return fmt.Errorf("entry %d %v does not close %v", i+1, end, start)
		}
		if end.Time < start.Time {
			return fmt.Errorf("entry %d %v ends before it starts", i+1, end)
		}
	}
	return nil
}

func pairedSum(log []Record) float64 {
	total := 0.0
	for i := 0; i+1 < len(log); i += 2 {
		total += log[i+1].Time - log[i].Time
	}
	return total
}
