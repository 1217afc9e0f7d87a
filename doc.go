// Package autoinvest automates a weekly recurring-investment workflow. It
// reads target investment amounts from a spreadsheet, verifies sufficient
// funds across a bank account and a brokerage account, places a throttled
// sequence of fractional buy orders, and records completed batches to a
// durable history log.
//
// The core of the package is the order-flow state machine implemented by
// [OrderFlowEngine]: a weekly batch of orders is either fully completed
// exactly once, or safely resumable after interruption without
// double-submitting orders or losing track of partial progress.
//
// The main components are:
//   - Order Cache: a durable pair of files (a write-once main snapshot and a
//     shrinking progress worklist) that makes a partially drained batch
//     resumable across restarts.
//   - Investment History: an append-only, date-keyed log of completed weekly
//     batches; at most one entry per calendar date.
//   - Funding Coordinator: computes the funding shortfall against the full
//     batch total, honoring cash buffers, and triggers a single transfer from
//     the bank to the brokerage before any order is placed.
//   - Collaborator clients: thin HTTP clients for the spreadsheet source, the
//     bank balance provider, and the brokerage execution venue, consumed by
//     the engine only through small interfaces so tests can substitute fakes.
//
// This package serves as the foundational logic for the `riv` command-line
// tool, which is intended to be run once per invocation by an external
// scheduler.
package autoinvest
