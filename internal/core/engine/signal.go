package engine

// Signal is a subscribable event source that carries no persistent value.
// Unlike Element writes, firings are never coalesced: every firing within a
// tick is delivered, in fire order, when the tick's notifications flush.
type Signal[T any] struct {
	pending []T
	queued  bool
	queue   *NotifQueue
	subs    subscriberList
}

func NewSignal[T any]() *Signal[T] {
	return &Signal[T]{}
}

// Bind attaches the signal to the state's notification queue. Firing an
// unbound signal is allowed and drops the payload.
func (g *Signal[T]) Bind(s *State) {
	g.queue = &s.notifs
}

// Fire appends the payload to this tick's batch. The signal puts itself on
// the notification queue at most once per tick, so subscribers see one
// notification covering the whole ordered batch.
func (g *Signal[T]) Fire(payload T) {
	if g.queue == nil {
		return
	}
	g.pending = append(g.pending, payload)
	if !g.queued {
		g.queue.push(g)
		g.queued = true
	}
}

// Pending returns the payloads fired so far this tick, in fire order. Only
// meaningful to subscribers during the flush phase.
func (g *Signal[T]) Pending() []T {
	return g.pending
}

func (g *Signal[T]) Subscribe(sub Subscriber) error {
	_, err := g.subs.add(sub)
	return err
}

func (g *Signal[T]) Unsubscribe(sub Subscriber) error {
	_, err := g.subs.remove(sub)
	return err
}

// Notify lets every subscriber observe the pending batch, then clears it.
func (g *Signal[T]) Notify(s *State, sink EventSink) error {
	err := g.subs.notifyAll(s, sink)
	g.pending = g.pending[:0]
	// a very active tick should not pin a large buffer forever
	if cap(g.pending) > 32 {
		g.pending = nil
	}
	g.queued = false
	return err
}
