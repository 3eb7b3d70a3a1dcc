// Package tracker decides whether the newest homework entry differs from the
// last notification that was delivered.
package tracker

import (
	"hwbot/internal/homework"
	"hwbot/internal/verdict"
)

// State is the (homework, message) pair last delivered. The zero value means
// nothing has been delivered yet.
type State struct {
	Name    string
	Message string
}

func (s State) IsZero() bool { return s == State{} }

type Kind int

const (
	NoEntries Kind = iota
	Unchanged
	Changed
)

func (k Kind) String() string {
	switch k {
	case NoEntries:
		return "no_entries"
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	default:
		return "unknown"
	}
}

// Result is the outcome of Diff. Candidate is set for Changed and Unchanged.
type Result struct {
	Kind      Kind
	Candidate State
}

// Diff looks only at the first entry. Equality is by value over name and
// rendered message, so a rename without a status change still counts as a
// change. Formatting errors are returned as-is.
func Diff(entries []homework.ItemStatus, prev State) (Result, error) {
	if len(entries) == 0 {
		return Result{Kind: NoEntries}, nil
	}
	first := entries[0]
	msg, err := verdict.Format(first)
	if err != nil {
		return Result{}, err
	}
	candidate := State{Name: *first.Name, Message: msg}
	if candidate == prev {
		return Result{Kind: Unchanged, Candidate: candidate}, nil
	}
	return Result{Kind: Changed, Candidate: candidate}, nil
}
