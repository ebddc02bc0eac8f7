// Package workflow holds the application status state machine.
//
// The happy path is pending -> reviewed -> shortlisted -> hired.  Steps may be
// skipped forward but never repeated or reversed.  rejected can be reached
// from any non-terminal status.  hired and rejected are terminal.
package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the review state of a job application.
type Status string

const (
	Pending     Status = "pending"
	Reviewed    Status = "reviewed"
	Shortlisted Status = "shortlisted"
	Rejected    Status = "rejected"
	Hired       Status = "hired"
)

// Initial is the status assigned to every new application.
const Initial = Pending

var (
	ErrUnknownStatus     = errors.New("unknown application status")
	ErrTerminalStatus    = errors.New("application status is terminal")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// All returns the statuses in display order.
func All() []Status {
	return []Status{Pending, Reviewed, Shortlisted, Hired, Rejected}
}

// ParseStatus accepts a status name in any case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Valid reports whether s is one of the five statuses.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// transitions lists every legal move.  A status missing from its source row
// is unreachable from that source.
var transitions = map[Status]map[Status]bool{
	Pending:     {Reviewed: true, Shortlisted: true, Hired: true, Rejected: true},
	Reviewed:    {Shortlisted: true, Hired: true, Rejected: true},
	Shortlisted: {Hired: true, Rejected: true},
	Hired:       {},
	Rejected:    {},
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Status) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransition reports whether moving from -> to is legal.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

// Validate explains why a transition is illegal, or returns nil.
func Validate(from, to Status) error {
	if !from.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if IsTerminal(from) {
		return fmt.Errorf("%w: %s", ErrTerminalStatus, from)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// NextStatuses returns the statuses reachable from s in display order, for
// building the status-change menu.
func NextStatuses(s Status) []Status {
	var out []Status
	for _, st := range All() {
		if CanTransition(s, st) {
			out = append(out, st)
		}
	}
	return out
}
