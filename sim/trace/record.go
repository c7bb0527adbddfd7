// Package trace provides routing-decision recording and event-log export for
// buffet-sim runs. It has no dependencies on sim/ or sim/network/, so records
// carry names rather than pointers.
package trace

// RoutingRecord captures a single stage routing decision.
type RoutingRecord struct {
	Customer string
	Clock    float64
	Stage    string
	Server   string // server that just finished with the customer
	Outcome  string // "order", "stall", "payment" or "depart"
	Target   string // destination queue name, empty when the customer departs
}

// EventRow is one entry of a customer's waiting or service log, flattened
// for export.
type EventRow struct {
	RunID    string
	Customer string
	Log      string // "waiting" or "service"
	Seq      int    // position within that log
	Time     float64
	Label    string
}
