package connect

import "github.com/orbitsync/orbitsync/internal/core/engine"

// Outbound is one message queued for a single connection. A connection's
// messages for one tick are handed to its session as a single batch, so the
// client observes each tick atomically.
type Outbound interface {
	isOutbound()
}

// PropertyUpdate reports a subscribed property's new value.
type PropertyUpdate struct {
	Object   ObjectID
	Property string
	Value    engine.Value
}

// SignalEvent reports one firing of a subscribed signal.
type SignalEvent struct {
	Object ObjectID
	Signal string
	Value  engine.Value
}

// ValueReply answers a one-shot get request.
type ValueReply struct {
	Object   ObjectID
	Property string
	Value    engine.Value
}

// ObjectRemoved tells the connection an exposed object ceased to exist. Sent
// exactly once per connection that had the entity exposed.
type ObjectRemoved struct {
	Object ObjectID
}

// RequestError reports a failed request back to the connection that made it.
type RequestError struct {
	Request string
	Object  ObjectID
	Member  string
	Message string
}

func (PropertyUpdate) isOutbound() {}
func (SignalEvent) isOutbound()    {}
func (ValueReply) isOutbound()     {}
func (ObjectRemoved) isOutbound()  {}
func (RequestError) isOutbound()   {}

// Session is the transport-side half of one connection. Send must not block
// the tick goroutine; implementations queue and report failure instead.
type Session interface {
	Send(batch []Outbound) error
	Close()
}
