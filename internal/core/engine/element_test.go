package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestElementCoalescesWritesWithinTick(t *testing.T) {
	s := NewState()
	el := NewElement(0)
	el.Bind(s)

	var seen []int
	require.NoError(t, el.Subscribe(&funcSub{fn: func(*State, EventSink) error {
		seen = append(seen, el.Get())
		return nil
	}}))

	el.Set(1)
	el.Set(2)
	el.Set(3)
	require.NoError(t, FlushFor(s, &recordingSink{}))

	require.Equal(t, []int{3}, seen, "several writes should collapse to one notification with the final value")
}

func TestElementSkipsRedundantWrite(t *testing.T) {
	s := NewState()
	el := NewElement(42)
	el.Bind(s)

	notifies := 0
	require.NoError(t, el.Subscribe(countingSub(&notifies)))

	el.Set(42)
	require.NoError(t, FlushFor(s, &recordingSink{}))
	require.Zero(t, notifies)

	el.Set(7)
	require.NoError(t, FlushFor(s, &recordingSink{}))
	require.Equal(t, 1, notifies)

	// redundancy is judged against the last-notified value, not the previous
	// write
	el.Set(7)
	require.NoError(t, FlushFor(s, &recordingSink{}))
	require.Equal(t, 1, notifies)
}

func TestElementWriteBeforeBindIsSilent(t *testing.T) {
	s := NewState()
	el := NewElement("initial")

	notifies := 0
	require.NoError(t, el.Subscribe(countingSub(&notifies)))

	el.Set("configured")
	el.Bind(s)
	require.NoError(t, FlushFor(s, &recordingSink{}))

	require.Zero(t, notifies)
	require.Equal(t, "configured", el.Get())

	// and the pre-bind value counts as already notified
	el.Set("configured")
	require.NoError(t, FlushFor(s, &recordingSink{}))
	require.Zero(t, notifies)
}

func TestElementUpdateAlwaysNotifies(t *testing.T) {
	s := NewState()
	el := NewElement(10)
	el.Bind(s)

	notifies := 0
	require.NoError(t, el.Subscribe(countingSub(&notifies)))

	el.Update(func(v *int) {})
	require.NoError(t, FlushFor(s, &recordingSink{}))
	require.Equal(t, 1, notifies)
}

func TestElementEqNilNotifiesUnconditionally(t *testing.T) {
	s := NewState()
	el := NewElementEq([]int{1}, nil)
	el.Bind(s)

	notifies := 0
	require.NoError(t, el.Subscribe(countingSub(&notifies)))

	el.Set([]int{1})
	require.NoError(t, FlushFor(s, &recordingSink{}))
	require.Equal(t, 1, notifies)
}

func TestElementDuplicateSubscribe(t *testing.T) {
	el := NewElement(0)
	sub := countingSub(new(int))
	require.NoError(t, el.Subscribe(sub))
	require.ErrorIs(t, el.Subscribe(sub), ErrAlreadySubscribed)
	require.NoError(t, el.Unsubscribe(sub))
	require.ErrorIs(t, el.Unsubscribe(sub), ErrNotSubscribed)
}

func TestElementUnsubscribeDuringFlush(t *testing.T) {
	s := NewState()
	el := NewElement(0)
	el.Bind(s)

	var self *funcSub
	notified := 0
	self = &funcSub{fn: func(*State, EventSink) error {
		notified++
		return el.Unsubscribe(self)
	}}
	require.NoError(t, el.Subscribe(self))

	el.Set(1)
	require.NoError(t, FlushFor(s, &recordingSink{}))
	require.Equal(t, 1, notified)

	el.Set(2)
	require.NoError(t, FlushFor(s, &recordingSink{}))
	require.Equal(t, 1, notified)
}
