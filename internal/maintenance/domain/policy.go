package domain

import (
	"errors"
	"fmt"
)

// ErrTransitionNotAllowed is wrapped by policies that reject a change.
var ErrTransitionNotAllowed = errors.New("status transition not allowed")

// TransitionPolicy decides whether a request may move between statuses.
type TransitionPolicy interface {
	Allow(from, to Status) error
}

// AllowAll accepts every transition, so staff can correct any status by hand.
type AllowAll struct{}

func (AllowAll) Allow(Status, Status) error { return nil }

// StrictPolicy only accepts transitions listed in its table. Rewriting the
// current status is always accepted.
type StrictPolicy struct {
	table map[Status]map[Status]struct{}
}

// DefaultTransitions is the table used by NewStrictPolicy.
var DefaultTransitions = map[Status][]Status{
	StatusOpen:       {StatusAssigned, StatusInProgress, StatusResolved, StatusCancelled, StatusRejected},
	StatusAssigned:   {StatusOpen, StatusInProgress, StatusResolved, StatusCancelled},
	StatusInProgress: {StatusAssigned, StatusResolved, StatusCancelled},
	StatusResolved:   {StatusOpen},
	StatusCancelled:  {StatusOpen},
	StatusRejected:   {StatusOpen},
}

// NewStrictPolicy builds a policy from table, or DefaultTransitions when nil.
func NewStrictPolicy(table map[Status][]Status) StrictPolicy {
	if table == nil {
		table = DefaultTransitions
	}
	policy := StrictPolicy{table: make(map[Status]map[Status]struct{}, len(table))}
	for from, targets := range table {
		set := make(map[Status]struct{}, len(targets))
		for _, to := range targets {
			set[to] = struct{}{}
		}
		policy.table[from] = set
	}
	return policy
}

func (p StrictPolicy) Allow(from, to Status) error {
	if from == to {
		return nil
	}
	if _, ok := p.table[from][to]; ok {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, to)
}

// PolicyFor maps the configured policy name to a policy. Unknown names get AllowAll.
func PolicyFor(name string) TransitionPolicy {
	if name == "strict" {
		return NewStrictPolicy(nil)
	}
	return AllowAll{}
}
