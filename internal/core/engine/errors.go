package engine

import "errors"

// Stale-reference errors. Always recoverable: the holder drops the dependent
// subscription or mapping and moves on.
var (
	ErrStale    = errors.New("entity handle is stale")
	ErrGone     = errors.New("referent no longer exists")
	ErrNotFound = errors.New("component not found")
)

// Protocol-misuse errors. Reported back to the offending connection only;
// other connections and the simulation are unaffected.
var (
	ErrUnknownProperty = errors.New("no such property")
	ErrNotVisible      = errors.New("not visible to this connection")
	ErrReadOnly        = errors.New("property is read-only")
	ErrInvalidValue    = errors.New("invalid value")
	ErrWrongMethod     = errors.New("wrong method for member kind")
)

// Invariant violations. These indicate a bug in simulation code; the
// offending operation is aborted but the server keeps running.
var (
	ErrAlreadyAttached   = errors.New("component type already attached")
	ErrAlreadySubscribed = errors.New("already subscribed")
	ErrNotSubscribed     = errors.New("not subscribed")
	ErrTickReentry       = errors.New("tick started while a tick is in progress")
)
