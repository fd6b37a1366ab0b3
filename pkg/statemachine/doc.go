// Package statemachine provides a stateless finite-state-machine transition
// table.
//
// A Table does not own a current state. Callers keep the state alongside their
// records (a database row, a cache entry) and ask the table which state an
// event leads to from the state they just read:
//
//	const (
//	    Pending  = statemachine.StringState("pending")
//	    Active   = statemachine.StringState("active")
//	    Activate = statemachine.StringEvent("activate")
//	)
//
//	table := statemachine.MustNew(
//	    statemachine.WithTransition(Pending, Active, Activate),
//	)
//
//	next, err := table.Next(ctx, Pending, Activate, nil)
//
// Transitions for the same (from, event) pair are evaluated in registration
// order and the first one whose guards all pass wins, which enables
// guard-based branching.
//
// Errors distinguish an undefined transition (ErrNoTransitionAvailable) from
// one that exists but was blocked by guards (ErrTransitionRejected); use
// IsNoTransitionAvailableError and IsTransitionRejectedError to tell them
// apart.
//
// A Table is immutable after construction and safe for concurrent use.
package statemachine
