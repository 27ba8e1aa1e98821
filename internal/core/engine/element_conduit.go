package engine

import "fmt"

// NewElementConduit bridges a single element to a client-facing property.
// resolve is called on every access and should fail with ErrGone when the
// owning entity or component no longer exists. decode may be nil for
// read-only properties.
func NewElementConduit[T any](
	resolve func(s *State) (*Element[T], error),
	encode func(v T) Value,
	decode func(v Value) (T, error),
) Conduit {
	c := &elementConduit[T]{resolve: resolve, encode: encode}
	if decode != nil {
		c.write = func(s *State, value Value) error {
			el, err := resolve(s)
			if err != nil {
				return err
			}
			v, err := decode(value)
			if err != nil {
				return err
			}
			el.Set(v)
			return nil
		}
	}
	return c
}

// NewElementConduitWithSet is NewElementConduit with a custom write path, for
// properties whose writes need validation or side effects beyond storing the
// decoded value.
func NewElementConduitWithSet[T any](
	resolve func(s *State) (*Element[T], error),
	encode func(v T) Value,
	write func(s *State, value Value) error,
) Conduit {
	return &elementConduit[T]{resolve: resolve, encode: encode, write: write}
}

type elementConduit[T any] struct {
	resolve func(s *State) (*Element[T], error)
	encode  func(v T) Value
	write   func(s *State, value Value) error
}

func (c *elementConduit[T]) Output(s *State) (Value, error) {
	el, err := c.resolve(s)
	if err != nil {
		return Null(), err
	}
	return c.encode(el.Get()), nil
}

func (c *elementConduit[T]) Input(s *State, value Value) error {
	if c.write == nil {
		return ErrReadOnly
	}
	return c.write(s, value)
}

func (c *elementConduit[T]) Subscribe(s *State, sub Subscriber) error {
	el, err := c.resolve(s)
	if err != nil {
		return err
	}
	return el.Subscribe(sub)
}

func (c *elementConduit[T]) Unsubscribe(s *State, sub Subscriber) error {
	el, err := c.resolve(s)
	if err != nil {
		return err
	}
	return el.Unsubscribe(sub)
}

// NewSignalConduit bridges a signal to a client-facing signal member. Output
// is only meaningful during the flush phase, when it yields the tick's
// payload batch in fire order.
func NewSignalConduit[T any](
	resolve func(s *State) (*Signal[T], error),
	encode func(v T) Value,
) Conduit {
	return &signalConduit[T]{resolve: resolve, encode: encode}
}

type signalConduit[T any] struct {
	resolve func(s *State) (*Signal[T], error)
	encode  func(v T) Value
}

func (c *signalConduit[T]) Output(s *State) (Value, error) {
	sig, err := c.resolve(s)
	if err != nil {
		return Null(), err
	}
	pending := sig.Pending()
	items := make([]Value, len(pending))
	for i, p := range pending {
		items[i] = c.encode(p)
	}
	return Array(items...), nil
}

func (c *signalConduit[T]) Input(*State, Value) error {
	return ErrReadOnly
}

func (c *signalConduit[T]) Subscribe(s *State, sub Subscriber) error {
	sig, err := c.resolve(s)
	if err != nil {
		return err
	}
	return sig.Subscribe(sub)
}

func (c *signalConduit[T]) Unsubscribe(s *State, sub Subscriber) error {
	sig, err := c.resolve(s)
	if err != nil {
		return err
	}
	return sig.Unsubscribe(sub)
}

// NewActionConduit builds an invoke-only conduit. Actions have no value and
// cannot be subscribed to.
func NewActionConduit(invoke func(s *State, args Value) error) Conduit {
	return &actionConduit{invoke: invoke}
}

type actionConduit struct {
	invoke func(s *State, args Value) error
}

func (c *actionConduit) Output(*State) (Value, error) {
	return Null(), fmt.Errorf("%w: actions have no value", ErrWrongMethod)
}

func (c *actionConduit) Input(s *State, args Value) error {
	return c.invoke(s, args)
}

func (c *actionConduit) Subscribe(*State, Subscriber) error {
	return fmt.Errorf("%w: actions cannot be subscribed to", ErrWrongMethod)
}

func (c *actionConduit) Unsubscribe(*State, Subscriber) error {
	return fmt.Errorf("%w: actions cannot be subscribed to", ErrWrongMethod)
}

// NewComponentListConduit produces the list of entities holding a component
// of type C, notifying subscribers when the set changes.
func NewComponentListConduit[C any]() Conduit {
	return componentListConduit[C]{}
}

type componentListConduit[C any] struct{}

func (componentListConduit[C]) Output(s *State) (Value, error) {
	var items []Value
	EachComponent[C](s, func(e Entity, _ C) bool {
		items = append(items, EntityRef(e))
		return true
	})
	return Array(items...), nil
}

func (componentListConduit[C]) Input(*State, Value) error {
	return ErrReadOnly
}

func (componentListConduit[C]) Subscribe(s *State, sub Subscriber) error {
	return SubscribeComponentList[C](s, sub)
}

func (componentListConduit[C]) Unsubscribe(s *State, sub Subscriber) error {
	return UnsubscribeComponentList[C](s, sub)
}
