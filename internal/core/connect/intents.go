package connect

import "github.com/orbitsync/orbitsync/internal/core/engine"

// Intent is one client-originated request. Sessions enqueue intents from
// their own goroutines; the collection drains and applies them, in arrival
// order, at the start of the next tick. That funnel is the only path by
// which client input mutates the State.
type Intent interface {
	apply(s *engine.State, c *Collection)
}

// ConnectionOpened announces a new session with an already-scoped
// capability. The session picks its own ConnectionID so it can tag
// subsequent intents before the collection has seen the connection.
type ConnectionOpened struct {
	Conn    engine.ConnectionID
	Vis     Visibility
	Session Session
}

// ConnectionClosed tears down everything the collection holds for the
// connection. No notification is sent; there is no longer a destination.
type ConnectionClosed struct {
	Conn engine.ConnectionID
}

// SetProperty writes a client-supplied value to a property.
type SetProperty struct {
	Conn     engine.ConnectionID
	Object   ObjectID
	Property string
	Value    engine.Value
}

// GetProperty requests a one-shot value, answered with a ValueReply in the
// same tick's batch.
type GetProperty struct {
	Conn     engine.ConnectionID
	Object   ObjectID
	Property string
}

// InvokeAction triggers an action member.
type InvokeAction struct {
	Conn   engine.ConnectionID
	Object ObjectID
	Action string
	Args   engine.Value
}

// Subscribe starts change notifications for a property or signal member.
type Subscribe struct {
	Conn   engine.ConnectionID
	Object ObjectID
	Member string
}

// Unsubscribe stops them.
type Unsubscribe struct {
	Conn   engine.ConnectionID
	Object ObjectID
	Member string
}
