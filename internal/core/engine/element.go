package engine

// Element is an atomic, subscribable unit of mutable state. Writes take
// effect immediately; subscriber notifications are queued and flushed at the
// end of the tick, with multiple writes in one tick collapsing to a single
// notification carrying the final value.
type Element[T any] struct {
	value        T
	lastNotified T
	eq           func(a, b T) bool
	queue        *NotifQueue
	queued       bool
	subs         subscriberList
}

// NewElement creates an element for a type with meaningful equality; writes
// that match the last-notified value do not mark the element dirty.
func NewElement[T comparable](initial T) *Element[T] {
	return NewElementEq(initial, func(a, b T) bool { return a == b })
}

// NewElementEq creates an element with a custom equality function. Pass nil
// to notify unconditionally on every write.
func NewElementEq[T any](initial T, eq func(a, b T) bool) *Element[T] {
	return &Element[T]{value: initial, lastNotified: initial, eq: eq}
}

// Bind attaches the element to the state's notification queue. Components do
// this when they are attached to an entity; writes before binding update the
// value silently.
func (e *Element[T]) Bind(s *State) {
	e.queue = &s.notifs
}

func (e *Element[T]) Get() T {
	return e.value
}

// Set stores v and marks the element dirty for this tick unless v equals the
// last value subscribers were notified of.
func (e *Element[T]) Set(v T) {
	e.value = v
	if e.queue == nil {
		e.lastNotified = v
		return
	}
	if e.eq != nil && e.eq(v, e.lastNotified) {
		return
	}
	e.markDirty()
}

// Update mutates the value in place and always marks the element dirty.
// Prefer Set where possible; that can save work when the value is unchanged.
func (e *Element[T]) Update(fn func(v *T)) {
	fn(&e.value)
	if e.queue != nil {
		e.markDirty()
	}
}

func (e *Element[T]) markDirty() {
	if !e.queued {
		e.queue.push(e)
		e.queued = true
	}
}

func (e *Element[T]) Subscribe(sub Subscriber) error {
	_, err := e.subs.add(sub)
	return err
}

func (e *Element[T]) Unsubscribe(sub Subscriber) error {
	_, err := e.subs.remove(sub)
	return err
}

// Notify flushes the element's pending notification to its subscribers.
// Called by the engine during the flush phase, never directly.
func (e *Element[T]) Notify(s *State, sink EventSink) error {
	e.queued = false
	e.lastNotified = e.value
	return e.subs.notifyAll(s, sink)
}
