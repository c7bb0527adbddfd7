// Reduces finished customers' histories into run-level performance metrics.

package sim

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metric names used in Metrics.Map.
const (
	MetricUtilization       = "Server Utilization Rate"
	MetricAverageWaiting    = "Average Waiting Time"
	MetricAverageService    = "Average Service Time"
	MetricSatisfactionRate  = "Customer Satisfaction Rate"
	MetricTotalTimeInSystem = "Total Time in System"
)

// Metrics aggregates statistics over the customers of a run.
// Averages over finished customers are NaN when nobody finished.
type Metrics struct {
	Generated int     // customers created by the arrival generator
	Finished  int     // customers whose last service was at the exit server
	Horizon   float64 // total simulation time

	TotalServiceTime float64 // summed over finished customers
	TotalWaitingTime float64 // summed over finished customers

	ServerUtilization  float64 // TotalServiceTime / Horizon
	AverageWaitingTime float64
	AverageServiceTime float64
	SatisfactionRate   float64 // Finished / Generated, 0 when nothing was generated
	TotalTimeInSystem  float64 // AverageWaitingTime + AverageServiceTime

	// Sojourn (first enqueue to exit) distribution over finished customers
	SojournMean   float64
	SojournStdDev float64
	SojournP50    float64
	SojournP90    float64
	SojournP99    float64
}

// ComputeMetrics reduces the customer list of a run. A customer counts as
// finished only if its service log ends with the completion marker of
// exitServer.
func ComputeMetrics(customers []*Customer, horizon float64, exitServer string) *Metrics {
	m := &Metrics{
		Generated: len(customers),
		Horizon:   horizon,
	}

	sojourns := make([]float64, 0, len(customers))
	for _, c := range customers {
		if !c.FinishedAt(exitServer) {
			continue
		}
		m.Finished++
		m.TotalServiceTime += c.ServiceTime()
		m.TotalWaitingTime += c.WaitingTime()
		if d, ok := c.SojournTime(); ok {
			sojourns = append(sojourns, d)
		}
	}

	m.ServerUtilization = m.TotalServiceTime / horizon
	if m.Generated > 0 {
		m.SatisfactionRate = float64(m.Finished) / float64(m.Generated)
	}

	if m.Finished == 0 {
		nan := math.NaN()
		m.AverageWaitingTime, m.AverageServiceTime, m.TotalTimeInSystem = nan, nan, nan
		m.SojournMean, m.SojournStdDev = nan, nan
		m.SojournP50, m.SojournP90, m.SojournP99 = nan, nan, nan
		return m
	}

	m.AverageWaitingTime = m.TotalWaitingTime / float64(m.Finished)
	m.AverageServiceTime = m.TotalServiceTime / float64(m.Finished)
	m.TotalTimeInSystem = m.AverageWaitingTime + m.AverageServiceTime

	sort.Float64s(sojourns)
	m.SojournMean = stat.Mean(sojourns, nil)
	m.SojournStdDev = math.NaN()
	if len(sojourns) > 1 {
		m.SojournStdDev = stat.StdDev(sojourns, nil)
	}
	m.SojournP50 = stat.Quantile(0.50, stat.Empirical, sojourns, nil)
	m.SojournP90 = stat.Quantile(0.90, stat.Empirical, sojourns, nil)
	m.SojournP99 = stat.Quantile(0.99, stat.Empirical, sojourns, nil)
	return m
}

// Map returns the headline metrics keyed by display name.
func (m *Metrics) Map() map[string]float64 {
	return map[string]float64{
		MetricUtilization:       m.ServerUtilization,
		MetricAverageWaiting:    m.AverageWaitingTime,
		MetricAverageService:    m.AverageServiceTime,
		MetricSatisfactionRate:  m.SatisfactionRate,
		MetricTotalTimeInSystem: m.TotalTimeInSystem,
	}
}

// MetricNames lists the headline metrics in display order.
func MetricNames() []string {
	return []string{
		MetricUtilization,
		MetricAverageWaiting,
		MetricAverageService,
		MetricSatisfactionRate,
		MetricTotalTimeInSystem,
	}
}
