package engine

import (
	"errors"
	"fmt"
)

// MemberKind distinguishes the three kinds of client-visible members an
// entity can expose.
type MemberKind uint8

const (
	MemberProperty MemberKind = iota
	MemberAction
	MemberSignal
)

func (k MemberKind) String() string {
	switch k {
	case MemberProperty:
		return "property"
	case MemberAction:
		return "action"
	case MemberSignal:
		return "signal"
	default:
		return "unknown"
	}
}

// Object is the client-facing face of one entity: its named members and
// their per-connection subscriptions. Owned by the State alongside the
// entity row.
type Object struct {
	entity  Entity
	members map[string]*Member
}

func newObject(e Entity) *Object {
	return &Object{entity: e, members: make(map[string]*Member)}
}

func (o *Object) add(name string, kind MemberKind, conduit Conduit) error {
	if _, ok := o.members[name]; ok {
		return fmt.Errorf("member %q added to %s multiple times", name, o.entity)
	}
	o.members[name] = &Member{
		kind:    kind,
		entity:  o.entity,
		name:    name,
		conduit: conduit,
		subs:    make(map[ConnectionID]*memberSub),
	}
	return nil
}

// finalize drops every connection's subscription to every member, while the
// underlying components still resolve.
func (o *Object) finalize(s *State) error {
	var errs []error
	for name, m := range o.members {
		for conn := range m.subs {
			if err := m.Unsubscribe(s, conn); err != nil {
				errs = append(errs, fmt.Errorf("drop %s subscription to %q: %w", conn, name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// AddProperty registers a gettable/settable/subscribable member backed by the
// conduit, wrapped in the standard caching stage.
func (s *State) AddProperty(e Entity, name string, conduit Conduit) error {
	row, err := s.row(e)
	if err != nil {
		return err
	}
	return row.object.add(name, MemberProperty, Cached(conduit))
}

// AddAction registers an invoke-only member.
func (s *State) AddAction(e Entity, name string, conduit Conduit) error {
	row, err := s.row(e)
	if err != nil {
		return err
	}
	return row.object.add(name, MemberAction, conduit)
}

// AddSignal registers a subscribable event member. No caching stage: signal
// batches are never deduplicated.
func (s *State) AddSignal(e Entity, name string, conduit Conduit) error {
	row, err := s.row(e)
	if err != nil {
		return err
	}
	return row.object.add(name, MemberSignal, conduit)
}

// Member looks up the named member on the entity. ErrStale for dead
// entities, ErrUnknownProperty for unknown names.
func (s *State) Member(e Entity, name string) (*Member, error) {
	row, err := s.row(e)
	if err != nil {
		return nil, err
	}
	m, ok := row.object.members[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q on %s", ErrUnknownProperty, name, e)
	}
	return m, nil
}

// Member is one named property, action or signal of an entity.
type Member struct {
	kind    MemberKind
	entity  Entity
	name    string
	conduit Conduit
	subs    map[ConnectionID]*memberSub
}

func (m *Member) Kind() MemberKind { return m.kind }

func (m *Member) Get(s *State) (Value, error) {
	if m.kind == MemberAction {
		return Null(), fmt.Errorf("%w: cannot get %s %q", ErrWrongMethod, m.kind, m.name)
	}
	return m.conduit.Output(s)
}

func (m *Member) Set(s *State, value Value) error {
	if m.kind != MemberProperty {
		return fmt.Errorf("%w: cannot set %s %q", ErrWrongMethod, m.kind, m.name)
	}
	return m.conduit.Input(s, value)
}

func (m *Member) Invoke(s *State, args Value) error {
	if m.kind != MemberAction {
		return fmt.Errorf("%w: cannot invoke %s %q", ErrWrongMethod, m.kind, m.name)
	}
	return m.conduit.Input(s, args)
}

// Subscribe registers the connection for change notifications on this
// member, delivered through the EventSink during the flush phase.
func (m *Member) Subscribe(s *State, conn ConnectionID) error {
	if m.kind == MemberAction {
		return fmt.Errorf("%w: cannot subscribe to %s %q", ErrWrongMethod, m.kind, m.name)
	}
	if _, ok := m.subs[conn]; ok {
		return fmt.Errorf("%w: %s to %q on %s", ErrAlreadySubscribed, conn, m.name, m.entity)
	}
	ms := &memberSub{conn: conn, member: m}
	if err := m.conduit.Subscribe(s, ms); err != nil {
		return err
	}
	m.subs[conn] = ms
	return nil
}

func (m *Member) Unsubscribe(s *State, conn ConnectionID) error {
	ms, ok := m.subs[conn]
	if !ok {
		return fmt.Errorf("%w: %s to %q on %s", ErrNotSubscribed, conn, m.name, m.entity)
	}
	delete(m.subs, conn)
	return m.conduit.Unsubscribe(s, ms)
}

func (m *Member) Subscribed(conn ConnectionID) bool {
	_, ok := m.subs[conn]
	return ok
}

// memberSub adapts one (connection, member) subscription into a Subscriber.
// For properties it forwards the recomputed value; for signals it replays
// every pending firing in order.
type memberSub struct {
	conn   ConnectionID
	member *Member
}

func (ms *memberSub) Notify(s *State, sink EventSink) error {
	v, err := ms.member.conduit.Output(s)
	if err != nil {
		return fmt.Errorf("update %q on %s for %s: %w", ms.member.name, ms.member.entity, ms.conn, err)
	}
	if ms.member.kind == MemberSignal {
		for _, payload := range v.Items() {
			if err := sink.SignalFired(s, ms.conn, ms.member.entity, ms.member.name, payload); err != nil {
				return err
			}
		}
		return nil
	}
	return sink.PropertyChanged(s, ms.conn, ms.member.entity, ms.member.name, v)
}
