// Package lifecycle defines the ticket status state machine. Rules are
// expressed over canonical status names; callers resolve configured status
// rows to names before consulting the table.
package lifecycle

import "github.com/spec-kit/helpdesk-service/internal/domain"

var allowedTransitions = map[string][]string{
	domain.StatusOpen:       {domain.StatusInProgress, domain.StatusCancelled},
	domain.StatusInProgress: {domain.StatusPending, domain.StatusResolved, domain.StatusCancelled},
	domain.StatusPending:    {domain.StatusInProgress},
	domain.StatusResolved:   {domain.StatusClosed, domain.StatusOpen},
	// leaving Closed requires the explicit reopen operation, see CanReopen
	domain.StatusClosed:    {},
	domain.StatusCancelled: {},
}

// CanTransition reports whether the (current, next) pair is in the base
// transition table. Privileged overrides are handled by CanCancelOverride
// and CanCloseOverride.
func CanTransition(current, next string) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// CanCancelOverride reports whether a privileged actor may cancel from the
// given state. Admins and managers may cancel from any non-terminal state.
func CanCancelOverride(current string) bool {
	return !domain.IsTerminalStatus(current)
}

// CanCloseOverride reports whether a privileged actor may close from the
// given state, bypassing the Resolved requirement.
func CanCloseOverride(current string) bool {
	return !domain.IsTerminalStatus(current)
}

// CanReopen reports whether a ticket in the given state may be reopened
// through the explicit reopen operation. Resolved tickets may also reach
// Open through the generic transition table; Closed tickets may not.
func CanReopen(current string) bool {
	return current == domain.StatusClosed || current == domain.StatusResolved
}

// KnownStatus reports whether the name appears in the transition table.
func KnownStatus(name string) bool {
	_, ok := allowedTransitions[name]
	return ok
}
