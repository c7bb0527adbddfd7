package cmd

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/buffet-sim/buffet-sim/sim"
	"github.com/buffet-sim/buffet-sim/sim/network"
	"github.com/buffet-sim/buffet-sim/sim/trace"
)

// PrintHistory writes every customer's service log followed by its waiting log.
func PrintHistory(w io.Writer, customers []*sim.Customer) {
	for _, c := range customers {
		fmt.Fprintf(w, "# %s History:\n", c.Name)
		for _, r := range c.ServiceLog {
			fmt.Fprintln(w, r)
		}
		for _, r := range c.WaitingLog {
			fmt.Fprintln(w, r)
		}
	}
}

// formatMetric renders undefined (NaN) metrics explicitly.
func formatMetric(v float64) string {
	if math.IsNaN(v) {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", v)
}

// PrintMetrics writes the headline metrics, then per-queue, per-server and
// routing breakdowns.
func PrintMetrics(w io.Writer, res *network.Result) {
	m := res.Metrics
	values := m.Map()

	fmt.Fprintln(w, "\nSystem Metrics:")
	for _, name := range sim.MetricNames() {
		fmt.Fprintf(w, "%s: %s\n", name, formatMetric(values[name]))
	}
	fmt.Fprintf(w, "Finished Customers: %d / %d\n", m.Finished, m.Generated)
	fmt.Fprintf(w, "Sojourn Time: mean=%s stddev=%s p50=%s p90=%s p99=%s\n",
		formatMetric(m.SojournMean), formatMetric(m.SojournStdDev),
		formatMetric(m.SojournP50), formatMetric(m.SojournP90), formatMetric(m.SojournP99))

	fmt.Fprintln(w, "\nQueues:")
	for _, q := range res.Queues {
		fmt.Fprintf(w, "  %-15s cap=%d peak=%d mean=%s blocked=%d left=%d\n",
			q.Name, q.Capacity, q.Peak, formatMetric(q.MeanLength), q.BlockedPuts, q.Len)
	}

	fmt.Fprintln(w, "\nServers:")
	for _, s := range res.Servers {
		fmt.Fprintf(w, "  %-15s served=%d busy=%.2f utilization=%s\n",
			s.Name, s.Served, s.BusyTime, formatMetric(s.Utilization))
	}

	if res.Trace.Enabled() {
		summary := trace.Summarize(res.Trace)
		fmt.Fprintf(w, "\nRouting: %d decisions, %d departures\n", summary.TotalDecisions, summary.Departures)
		outcomes := make([]string, 0, len(summary.OutcomeDistribution))
		for o := range summary.OutcomeDistribution {
			outcomes = append(outcomes, o)
		}
		sort.Strings(outcomes)
		for _, o := range outcomes {
			fmt.Fprintf(w, "  %-8s %d\n", o, summary.OutcomeDistribution[o])
		}
	}
}

// ExportTrace writes every customer log entry and every recorded routing
// decision to writer under runID.
func ExportTrace(writer trace.Writer, runID string, res *network.Result) error {
	for _, c := range res.Customers {
		for i, r := range c.WaitingLog {
			row := trace.EventRow{RunID: runID, Customer: c.Name, Log: "waiting", Seq: i, Time: r.Time, Label: r.Label}
			if err := writer.WriteEvent(row); err != nil {
				return err
			}
		}
		for i, r := range c.ServiceLog {
			row := trace.EventRow{RunID: runID, Customer: c.Name, Log: "service", Seq: i, Time: r.Time, Label: r.Label}
			if err := writer.WriteEvent(row); err != nil {
				return err
			}
		}
	}
	if res.Trace != nil {
		for _, rec := range res.Trace.Routings {
			if err := writer.WriteRouting(runID, rec); err != nil {
				return err
			}
		}
	}
	return writer.Flush()
}
