package engine

import (
	"errors"
	"fmt"
	"reflect"
)

// Binder is implemented by components whose elements and signals need the
// state's notification queue. Attach calls it before the component becomes
// visible to lookups.
type Binder interface {
	Bind(s *State)
}

type componentSet struct {
	byEntity map[Entity]any
	order    []Entity // creation order; flush visits dirty elements stably
	list     *Element[uint64]
}

func (cs *componentSet) bumpList() {
	cs.list.Update(func(rev *uint64) { *rev++ })
}

type entityRow struct {
	gen       uint32
	alive     bool
	object    *Object
	destroyed *Signal[Entity]
	cleanup   []func(s *State) error
}

// State is the exclusive authoritative owner of all entities and components.
// All mutation happens on the single tick goroutine, so the state carries no
// locks; concurrent readers are a bug by construction.
type State struct {
	// Time is seconds since the start of the game, advanced once per tick.
	Time *Element[float64]

	notifs     NotifQueue
	entities   []entityRow
	free       []uint32
	components map[reflect.Type]*componentSet
}

func NewState() *State {
	s := &State{components: make(map[reflect.Type]*componentSet)}
	s.Time = NewElement(0.0)
	s.Time.Bind(s)
	return s
}

// CreateEntity returns a fresh handle with no components attached.
func (s *State) CreateEntity() Entity {
	var index uint32
	if n := len(s.free); n > 0 {
		index = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.entities = append(s.entities, entityRow{})
		index = uint32(len(s.entities) - 1)
	}
	row := &s.entities[index]
	row.gen++
	row.alive = true
	row.destroyed = NewSignal[Entity]()
	row.destroyed.Bind(s)
	e := Entity{index: index, gen: row.gen}
	row.object = newObject(e)
	return e
}

func (s *State) row(e Entity) (*entityRow, error) {
	if e.IsZero() || int(e.index) >= len(s.entities) {
		return nil, fmt.Errorf("%w: %s", ErrStale, e)
	}
	row := &s.entities[e.index]
	if !row.alive || row.gen != e.gen {
		return nil, fmt.Errorf("%w: %s", ErrStale, e)
	}
	return row, nil
}

func (s *State) Alive(e Entity) bool {
	_, err := s.row(e)
	return err == nil
}

// Destroyed returns the signal fired when the entity is destroyed. The
// connection layer subscribes to it to emit object-removed notifications.
func (s *State) Destroyed(e Entity) (*Signal[Entity], error) {
	row, err := s.row(e)
	if err != nil {
		return nil, err
	}
	return row.destroyed, nil
}

// DestroyEntity detaches every component in attach order, drops all property
// subscriptions, fires the destroyed signal and invalidates the handle.
// Destroying an already-dead handle fails with ErrStale.
func (s *State) DestroyEntity(e Entity) error {
	row, err := s.row(e)
	if err != nil {
		return err
	}
	// unsubscribe members first, while their components still resolve
	var errs []error
	if err := row.object.finalize(s); err != nil {
		errs = append(errs, err)
	}
	cleanup := row.cleanup
	row.cleanup = nil
	for _, fn := range cleanup {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	row.destroyed.Fire(e)
	row.alive = false
	s.free = append(s.free, e.index)
	if len(errs) > 0 {
		return fmt.Errorf("destroy %s: %w", e, errors.Join(errs...))
	}
	return nil
}

func (s *State) set(t reflect.Type) *componentSet {
	cs, ok := s.components[t]
	if !ok {
		cs = &componentSet{
			byEntity: make(map[Entity]any),
			list:     NewElement(uint64(0)),
		}
		cs.list.Bind(s)
		s.components[t] = cs
	}
	return cs
}

// Attach inserts the component on the entity. At most one component of a
// given type may be attached to an entity at a time.
func Attach[C any](s *State, e Entity, component C) error {
	row, err := s.row(e)
	if err != nil {
		return err
	}
	t := reflect.TypeOf((*C)(nil)).Elem()
	cs := s.set(t)
	if _, ok := cs.byEntity[e]; ok {
		return fmt.Errorf("%w: %s on %s", ErrAlreadyAttached, t, e)
	}
	if b, ok := any(component).(Binder); ok {
		b.Bind(s)
	}
	cs.byEntity[e] = component
	cs.order = append(cs.order, e)
	row.cleanup = append(row.cleanup, func(s *State) error {
		err := Detach[C](s, e)
		if errors.Is(err, ErrNotFound) {
			return nil // already detached by hand
		}
		return err
	})
	cs.bumpList()
	return nil
}

// ComponentOf returns the entity's component of type C. A dead entity yields
// ErrStale, a live entity without the component ErrNotFound; both are
// recoverable lookups.
func ComponentOf[C any](s *State, e Entity) (C, error) {
	var zero C
	if _, err := s.row(e); err != nil {
		return zero, err
	}
	cs, ok := s.components[reflect.TypeOf((*C)(nil)).Elem()]
	if !ok {
		return zero, fmt.Errorf("%w: %s on %s", ErrNotFound, reflect.TypeOf((*C)(nil)).Elem(), e)
	}
	c, ok := cs.byEntity[e]
	if !ok {
		return zero, fmt.Errorf("%w: %s on %s", ErrNotFound, reflect.TypeOf((*C)(nil)).Elem(), e)
	}
	return c.(C), nil
}

// Detach removes the component from the entity. Removal is irrevocable and
// takes effect immediately, within the tick.
func Detach[C any](s *State, e Entity) error {
	t := reflect.TypeOf((*C)(nil)).Elem()
	cs, ok := s.components[t]
	if !ok {
		return fmt.Errorf("%w: %s on %s", ErrNotFound, t, e)
	}
	if _, ok := cs.byEntity[e]; !ok {
		return fmt.Errorf("%w: %s on %s", ErrNotFound, t, e)
	}
	delete(cs.byEntity, e)
	for i, ent := range cs.order {
		if ent == e {
			cs.order = append(cs.order[:i], cs.order[i+1:]...)
			break
		}
	}
	cs.bumpList()
	return nil
}

// EachComponent visits every component of type C in creation order. The
// visitor returns false to stop early. It must not attach or detach
// components of type C while iterating.
func EachComponent[C any](s *State, fn func(e Entity, c C) bool) {
	cs, ok := s.components[reflect.TypeOf((*C)(nil)).Elem()]
	if !ok {
		return
	}
	for _, e := range cs.order {
		c, ok := cs.byEntity[e]
		if !ok {
			continue
		}
		if !fn(e, c.(C)) {
			return
		}
	}
}

// CountComponents returns how many entities currently hold a component of
// type C.
func CountComponents[C any](s *State) int {
	cs, ok := s.components[reflect.TypeOf((*C)(nil)).Elem()]
	if !ok {
		return 0
	}
	return len(cs.byEntity)
}

// SubscribeComponentList notifies the subscriber whenever a component of type
// C is attached or detached anywhere in the state.
func SubscribeComponentList[C any](s *State, sub Subscriber) error {
	return s.set(reflect.TypeOf((*C)(nil)).Elem()).list.Subscribe(sub)
}

func UnsubscribeComponentList[C any](s *State, sub Subscriber) error {
	return s.set(reflect.TypeOf((*C)(nil)).Elem()).list.Unsubscribe(sub)
}
