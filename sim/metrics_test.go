package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buffet-sim/buffet-sim/sim/internal/testutil"
)

func customerWithHistory(id int, arrive, wait, service float64, exit string) *Customer {
	c := NewCustomer(id)
	c.AddWaiting(arrive, "enqueue Payment Queue")
	c.AddWaiting(arrive+wait, "dequeue Payment Queue")
	c.AddService(arrive+wait, "served by "+exit)
	c.AddService(arrive+wait+service, "completed service by "+exit)
	return c
}

func TestComputeMetrics_FinishedAndUnfinished(t *testing.T) {
	// GIVEN two finished customers and one still inside the network
	customers := []*Customer{
		customerWithHistory(0, 0, 1, 2, "Payment Server"),
		customerWithHistory(1, 1, 3, 4, "Payment Server"),
		customerWithHistory(2, 2, 1, 1, "Stall Server 0"),
	}

	// WHEN reduced over a horizon of 20
	m := ComputeMetrics(customers, 20, "Payment Server")

	// THEN only finished customers feed the averages
	assert.Equal(t, 3, m.Generated)
	assert.Equal(t, 2, m.Finished)
	testutil.AssertFloat64Equal(t, "utilization", 6.0/20, m.ServerUtilization, 1e-12)
	testutil.AssertFloat64Equal(t, "avg waiting", 2, m.AverageWaitingTime, 1e-12)
	testutil.AssertFloat64Equal(t, "avg service", 3, m.AverageServiceTime, 1e-12)
	testutil.AssertFloat64Equal(t, "satisfaction", 2.0/3, m.SatisfactionRate, 1e-12)
	testutil.AssertFloat64Equal(t, "total time", 5, m.TotalTimeInSystem, 1e-12)

	// sojourns are 3 and 7
	testutil.AssertFloat64Equal(t, "sojourn mean", 5, m.SojournMean, 1e-12)
	testutil.AssertFloat64Equal(t, "sojourn p50", 3, m.SojournP50, 1e-12)
	testutil.AssertFloat64Equal(t, "sojourn p99", 7, m.SojournP99, 1e-12)
	assert.False(t, math.IsNaN(m.SojournStdDev))
}

func TestComputeMetrics_NobodyFinished_AveragesUndefined(t *testing.T) {
	customers := []*Customer{customerWithHistory(0, 0, 1, 1, "Waiting Server")}

	m := ComputeMetrics(customers, 10, "Payment Server")

	assert.Equal(t, 0, m.Finished)
	assert.Zero(t, m.ServerUtilization)
	assert.Zero(t, m.SatisfactionRate)
	assert.True(t, math.IsNaN(m.AverageWaitingTime))
	assert.True(t, math.IsNaN(m.AverageServiceTime))
	assert.True(t, math.IsNaN(m.TotalTimeInSystem))
	assert.True(t, math.IsNaN(m.SojournP90))
}

func TestComputeMetrics_NoCustomers_SatisfactionZero(t *testing.T) {
	m := ComputeMetrics(nil, 10, "Payment Server")

	assert.Equal(t, 0, m.Generated)
	assert.Zero(t, m.SatisfactionRate)
	assert.True(t, math.IsNaN(m.AverageWaitingTime))
}

func TestMetrics_Map_HasEveryHeadlineMetric(t *testing.T) {
	m := ComputeMetrics([]*Customer{customerWithHistory(0, 0, 1, 2, "Payment Server")}, 10, "Payment Server")

	values := m.Map()
	require.Len(t, values, len(MetricNames()))
	for _, name := range MetricNames() {
		_, ok := values[name]
		assert.True(t, ok, "missing %s", name)
	}
	assert.Equal(t, m.SatisfactionRate, values[MetricSatisfactionRate])
	// single finished customer: no spread
	assert.True(t, math.IsNaN(m.SojournStdDev))
}
