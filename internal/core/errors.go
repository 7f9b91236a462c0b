package core

import "errors"

// The four error classes every operation can return. Handlers translate them
// to HTTP statuses; the core never formats user-facing text beyond these.
var (
	// ErrNotFound: a resource or user id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied: the resolver returned false for the caller.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrPreconditionFailed: the operation's preconditions do not hold, e.g.
	// granting to a non-member. On an internal invariant (a vault with no
	// owner membership) this is a defect and is logged as such, not shown as
	// a user error.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrConflict: a concurrent structural change invalidated the caller's
	// assumed parent; the caller should retry against fresh state.
	ErrConflict = errors.New("conflict")
)
