// Package network wires the buffet restaurant out of sim primitives: one
// waiting stage, two order stages, three stall stages and a payment stage,
// each a bounded queue feeding a pool of servers and a routing policy.
//
// A customer always enters at the waiting queue, goes to a random order
// queue, then a random stall. From a stall it either pays, goes back to an
// order queue, or moves to a different stall, per StallWeights. Payment is
// the only exit.
package network
