package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func cachedIntConduit(el *Element[int]) *CachingConduit {
	return Cached(NewElementConduit(
		func(*State) (*Element[int], error) { return el, nil },
		func(v int) Value { return Int(int64(v)) },
		nil,
	))
}

func TestCachingConduitSuppressesRevertedWrite(t *testing.T) {
	s := NewState()
	el := NewElement(5)
	el.Bind(s)
	c := cachedIntConduit(el)

	notifies := 0
	require.NoError(t, c.Subscribe(s, countingSub(&notifies)))

	// prime the cache
	el.Set(6)
	require.NoError(t, FlushFor(s, &recordingSink{}))
	require.Equal(t, 1, notifies)

	// a write that is reverted within the tick recomputes to the cached
	// value and goes nowhere
	el.Set(99)
	el.Set(6)
	require.NoError(t, FlushFor(s, &recordingSink{}))
	require.Equal(t, 1, notifies)
}

func TestCachingConduitSingleUpstreamSubscription(t *testing.T) {
	s := NewState()
	el := NewElement(0)
	el.Bind(s)
	c := cachedIntConduit(el)

	a := countingSub(new(int))
	b := countingSub(new(int))
	require.NoError(t, c.Subscribe(s, a))
	require.NoError(t, c.Subscribe(s, b))
	require.Len(t, el.subs.subs, 1, "fanout must not multiply upstream subscriptions")

	require.NoError(t, c.Unsubscribe(s, a))
	require.Len(t, el.subs.subs, 1)
	require.NoError(t, c.Unsubscribe(s, b))
	require.True(t, el.subs.empty())
}

func TestCachingConduitInvalidatesOnLastUnsubscribe(t *testing.T) {
	s := NewState()
	el := NewElement(1)
	el.Bind(s)
	c := cachedIntConduit(el)

	sub := countingSub(new(int))
	require.NoError(t, c.Subscribe(s, sub))
	el.Set(2)
	require.NoError(t, FlushFor(s, &recordingSink{}))

	require.NoError(t, c.Unsubscribe(s, sub))

	// with no subscribers the cache must not serve stale values
	el.Set(3)
	v, err := c.Output(s)
	require.NoError(t, err)
	require.True(t, v.Equal(Int(3)))
}

func TestCachingConduitOutputUsesCacheWhileSubscribed(t *testing.T) {
	s := NewState()
	el := NewElement(1)
	el.Bind(s)
	c := cachedIntConduit(el)

	require.NoError(t, c.Subscribe(s, countingSub(new(int))))
	el.Set(2)
	require.NoError(t, FlushFor(s, &recordingSink{}))

	v, err := c.Output(s)
	require.NoError(t, err)
	require.True(t, v.Equal(Int(2)))
}
