package engine

// Conduit bridges one or more Elements or Signals to a single client-facing
// property, action or signal, translating between server and client
// representations. Conduits hold weak references only (entity handles
// resolved on every access) and must tolerate the referent vanishing between
// accesses.
type Conduit interface {
	// Output computes the current client-facing value. Fails with ErrGone
	// when the underlying entity or component no longer exists.
	Output(s *State) (Value, error)
	// Input applies a client-supplied value. Fails with ErrInvalidValue on
	// translation or range errors, ErrGone when the target vanished, and
	// ErrReadOnly when writes are not supported.
	Input(s *State, value Value) error
	Subscribe(s *State, sub Subscriber) error
	Unsubscribe(s *State, sub Subscriber) error
}

// MapOutput wraps a conduit, transforming every value it produces. The
// wrapped conduit does not know about the wrapper.
func MapOutput(inner Conduit, f func(s *State, v Value) (Value, error)) Conduit {
	return &mapOutputConduit{inner: inner, f: f}
}

type mapOutputConduit struct {
	inner Conduit
	f     func(s *State, v Value) (Value, error)
}

func (c *mapOutputConduit) Output(s *State) (Value, error) {
	v, err := c.inner.Output(s)
	if err != nil {
		return Null(), err
	}
	return c.f(s, v)
}

func (c *mapOutputConduit) Input(s *State, value Value) error {
	return c.inner.Input(s, value)
}

func (c *mapOutputConduit) Subscribe(s *State, sub Subscriber) error {
	return c.inner.Subscribe(s, sub)
}

func (c *mapOutputConduit) Unsubscribe(s *State, sub Subscriber) error {
	return c.inner.Unsubscribe(s, sub)
}

// MapInput wraps a conduit, transforming every value written through it
// before the wrapped conduit sees it.
func MapInput(inner Conduit, f func(s *State, v Value) (Value, error)) Conduit {
	return &mapInputConduit{inner: inner, f: f}
}

type mapInputConduit struct {
	inner Conduit
	f     func(s *State, v Value) (Value, error)
}

func (c *mapInputConduit) Output(s *State) (Value, error) {
	return c.inner.Output(s)
}

func (c *mapInputConduit) Input(s *State, value Value) error {
	v, err := c.f(s, value)
	if err != nil {
		return err
	}
	return c.inner.Input(s, v)
}

func (c *mapInputConduit) Subscribe(s *State, sub Subscriber) error {
	return c.inner.Subscribe(s, sub)
}

func (c *mapInputConduit) Unsubscribe(s *State, sub Subscriber) error {
	return c.inner.Unsubscribe(s, sub)
}

// ReadOnly wraps a conduit, rejecting all writes.
func ReadOnly(inner Conduit) Conduit {
	return &roConduit{inner: inner}
}

type roConduit struct {
	inner Conduit
}

func (c *roConduit) Output(s *State) (Value, error)         { return c.inner.Output(s) }
func (c *roConduit) Input(*State, Value) error              { return ErrReadOnly }
func (c *roConduit) Subscribe(s *State, sub Subscriber) error {
	return c.inner.Subscribe(s, sub)
}
func (c *roConduit) Unsubscribe(s *State, sub Subscriber) error {
	return c.inner.Unsubscribe(s, sub)
}

// Const is a conduit that always produces the same value and never notifies.
func Const(v Value) Conduit {
	return constConduit{v: v}
}

type constConduit struct {
	v Value
}

func (c constConduit) Output(*State) (Value, error)    { return c.v, nil }
func (c constConduit) Input(*State, Value) error       { return ErrReadOnly }
func (c constConduit) Subscribe(*State, Subscriber) error   { return nil }
func (c constConduit) Unsubscribe(*State, Subscriber) error { return nil }
