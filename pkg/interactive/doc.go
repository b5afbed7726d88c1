// Package interactive supervises long-running external robot-control
// processes on behalf of clients that can only poll over stateless
// request/response calls.
//
// Each supervised run is a Session: one external process spawned on a
// pseudo-terminal, its combined output continuously drained into an
// append-only buffer, its stdin addressable for synthetic keystrokes,
// and its lifecycle driven through a small status state machine
// (pending -> running -> completed|failed|cancelled).
//
// Sessions live in memory for the lifetime of the Manager. They are
// never evicted automatically unless the opt-in retention Janitor is
// enabled.
package interactive
