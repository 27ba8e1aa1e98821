package engine

// CachingConduit is the default property pipeline stage. It subscribes to its
// inner conduit once, no matter how many downstream subscribers it has, and
// when notified recomputes the client-facing value, passing the notification
// on only when the recomputed value actually changed. This is what turns
// "element was written" into "property value changed".
type CachingConduit struct {
	inner  Conduit
	cached Value
	valid  bool
	subs   subscriberList
}

func Cached(inner Conduit) *CachingConduit {
	return &CachingConduit{inner: inner}
}

func (c *CachingConduit) Output(s *State) (Value, error) {
	if c.valid {
		return c.cached, nil
	}
	return c.inner.Output(s)
}

func (c *CachingConduit) Input(s *State, value Value) error {
	return c.inner.Input(s, value)
}

func (c *CachingConduit) Subscribe(s *State, sub Subscriber) error {
	first, err := c.subs.add(sub)
	if err != nil {
		return err
	}
	if first {
		if err := c.inner.Subscribe(s, c); err != nil {
			_, _ = c.subs.remove(sub)
			return err
		}
	}
	return nil
}

func (c *CachingConduit) Unsubscribe(s *State, sub Subscriber) error {
	last, err := c.subs.remove(sub)
	if err != nil {
		return err
	}
	if last {
		c.valid = false
		return c.inner.Unsubscribe(s, c)
	}
	return nil
}

// Notify implements Subscriber for the inner conduit's notifications.
func (c *CachingConduit) Notify(s *State, sink EventSink) error {
	v, err := c.inner.Output(s)
	if err != nil {
		return err
	}
	if c.valid && v.Equal(c.cached) {
		return nil
	}
	c.cached = v
	c.valid = true
	return c.subs.notifyAll(s, sink)
}
