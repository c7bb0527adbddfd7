// Package sim provides the discrete-event simulation kernel for buffet-sim.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - simulator.go: the event loop, virtual clock and process hand-off
//   - process.go: logical processes and their suspension points
//   - store.go: the bounded FIFO that blocks producers and consumers
//   - server.go, queue.go, customer.go: the queueing primitives built on top
//
// # Concurrency
//
// Logical processes run on goroutines but never in parallel: the Simulator
// resumes exactly one process per event and waits until it suspends again
// (Process.Wait, Store.Put, Store.Get). Equal-time events run in the order
// they were scheduled, so a run is fully determined by its configuration and
// its PartitionedRNG seed.
//
// # Sub-packages
//   - sim/workload/: service-time and inter-arrival samplers
//   - sim/network/: the restaurant topology, stage processes and routing policies
//   - sim/trace/: routing decision records and event-log writers
package sim
