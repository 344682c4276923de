// Package culturalindex provides an in-memory registry of cultural pieces and
// a weighted-voting tally over them.
//
// Pieces are append-only: each upload receives the next sequential ID starting
// at zero, and a piece is never mutated or removed. Each piece owns a vote
// ledger that grows monotonically. A given address may hold at most one vote
// per piece; the first vote wins.
//
// Voting weight is always derived by summing a piece's ledger, it is never
// stored separately.
//
// Notifications
//
// Uploads and accepted votes are reported to an EventSink and to lifecycle
// Hooks. Both are fire-and-forget: their errors are logged and never change
// the result of the operation. Sinks are invoked after the index releases its
// lock, so they may safely call back into the index.
package culturalindex
