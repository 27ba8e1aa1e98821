package engine

// Shared test doubles for the engine package.

type sinkEvent struct {
	conn   ConnectionID
	entity Entity
	name   string
	value  Value
	signal bool
}

// recordingSink captures every event the flush produces, in order.
type recordingSink struct {
	events []sinkEvent
}

func (r *recordingSink) PropertyChanged(_ *State, conn ConnectionID, entity Entity, name string, value Value) error {
	r.events = append(r.events, sinkEvent{conn: conn, entity: entity, name: name, value: value})
	return nil
}

func (r *recordingSink) SignalFired(_ *State, conn ConnectionID, entity Entity, name string, payload Value) error {
	r.events = append(r.events, sinkEvent{conn: conn, entity: entity, name: name, value: payload, signal: true})
	return nil
}

// funcSub adapts a closure into a Subscriber.
type funcSub struct {
	fn func(s *State, sink EventSink) error
}

func (f *funcSub) Notify(s *State, sink EventSink) error {
	return f.fn(s, sink)
}

func countingSub(n *int) *funcSub {
	return &funcSub{fn: func(*State, EventSink) error {
		*n++
		return nil
	}}
}
