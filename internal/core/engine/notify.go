package engine

import (
	"errors"
	"fmt"
)

// EventSink receives the client-facing fallout of a notification flush. It is
// implemented by the connection layer; the engine calls it once per changed
// property per subscribed connection and once per signal firing.
type EventSink interface {
	PropertyChanged(s *State, conn ConnectionID, entity Entity, name string, value Value) error
	SignalFired(s *State, conn ConnectionID, entity Entity, name string, payload Value) error
}

// Subscriber is anything that reacts to a queued notification at flush time.
type Subscriber interface {
	Notify(s *State, sink EventSink) error
}

// NotifQueue collects the Subscribers that became dirty during the current
// tick, in the order they became dirty. It is only touched from the tick
// goroutine, so it needs no lock.
type NotifQueue struct {
	pending []Subscriber
}

func (q *NotifQueue) push(sub Subscriber) {
	q.pending = append(q.pending, sub)
}

func (q *NotifQueue) Len() int {
	return len(q.pending)
}

// swap exchanges the internal buffer with buf so the flush can iterate a
// frozen batch while new notifications accumulate for the next tick. Neither
// buffer is deallocated.
func (q *NotifQueue) swap(buf []Subscriber) []Subscriber {
	buf = buf[:0]
	q.pending, buf = buf, q.pending
	return buf
}

// subscriberList tracks the subscribers of one Element, Signal or conduit.
// Duplicate subscriptions are rejected by identity.
type subscriberList struct {
	subs []Subscriber
}

// add reports whether this was the first subscription, which is what a
// caching conduit needs to know to connect upstream.
func (l *subscriberList) add(sub Subscriber) (first bool, err error) {
	for _, existing := range l.subs {
		if existing == sub {
			return false, ErrAlreadySubscribed
		}
	}
	l.subs = append(l.subs, sub)
	return len(l.subs) == 1, nil
}

// remove reports whether this was the last subscription.
func (l *subscriberList) remove(sub Subscriber) (last bool, err error) {
	for i, existing := range l.subs {
		if existing == sub {
			l.subs = append(l.subs[:i], l.subs[i+1:]...)
			return len(l.subs) == 0, nil
		}
	}
	return false, ErrNotSubscribed
}

func (l *subscriberList) empty() bool {
	return len(l.subs) == 0
}

func (l *subscriberList) notifyAll(s *State, sink EventSink) error {
	// iterate a copy so a subscriber can unsubscribe itself mid-flush
	subs := append([]Subscriber(nil), l.subs...)
	var errs []error
	for _, sub := range subs {
		if err := sub.Notify(s, sink); err != nil {
			errs = append(errs, fmt.Errorf("notify subscriber: %w", err))
		}
	}
	return errors.Join(errs...)
}
