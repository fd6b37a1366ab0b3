package statemachine

import (
	"context"
	"slices"
)

// Table is an immutable transition table indexed as [fromState][event][]Transition.
type Table struct {
	transitions map[string]map[string][]Transition
}

func newTable() *Table {
	return &Table{transitions: make(map[string]map[string][]Transition)}
}

func (t *Table) add(tr Transition) error {
	if tr.From == nil || tr.To == nil || tr.Event == nil {
		return ErrInvalidTransition
	}

	from := tr.From.Name()
	if _, ok := t.transitions[from]; !ok {
		t.transitions[from] = make(map[string][]Transition)
	}
	// Several transitions per from/event pair are allowed for guard-based branching.
	t.transitions[from][tr.Event.Name()] = append(t.transitions[from][tr.Event.Name()], tr)
	return nil
}

// Next returns the target state of the first transition from `from` on `event`
// whose guards all pass.
func (t *Table) Next(ctx context.Context, from State, event Event, data any) (State, error) {
	if from == nil || event == nil {
		return nil, ErrInvalidEvent
	}

	candidates := t.transitions[from.Name()][event.Name()]
	if len(candidates) == 0 {
		return nil, &ErrNoTransitionAvailable{StateName: from.Name(), EventName: event.Name()}
	}

	for _, tr := range candidates {
		if tr.allowed(ctx, from, event, data) {
			return tr.To, nil
		}
	}

	return nil, &ErrTransitionRejected{StateName: from.Name(), EventName: event.Name()}
}

// Can reports whether Next would succeed.
func (t *Table) Can(ctx context.Context, from State, event Event, data any) bool {
	_, err := t.Next(ctx, from, event, data)
	return err == nil
}

// Events lists the event names that currently pass their guards from the given state, sorted.
func (t *Table) Events(ctx context.Context, from State, data any) []string {
	if from == nil {
		return nil
	}

	var names []string
	for name, candidates := range t.transitions[from.Name()] {
		for _, tr := range candidates {
			if tr.allowed(ctx, from, tr.Event, data) {
				names = append(names, name)
				break
			}
		}
	}
	slices.Sort(names)
	return names
}
