package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignalDeliversEveryFiringInOrder(t *testing.T) {
	s := NewState()
	sig := NewSignal[int]()
	sig.Bind(s)

	var batches [][]int
	require.NoError(t, sig.Subscribe(&funcSub{fn: func(*State, EventSink) error {
		batches = append(batches, append([]int(nil), sig.Pending()...))
		return nil
	}}))

	sig.Fire(1)
	sig.Fire(2)
	sig.Fire(3)
	require.Equal(t, 1, s.notifs.Len(), "a signal queues itself at most once per tick")
	require.NoError(t, FlushFor(s, &recordingSink{}))

	require.Equal(t, [][]int{{1, 2, 3}}, batches)
}

func TestSignalClearsBatchAfterFlush(t *testing.T) {
	s := NewState()
	sig := NewSignal[string]()
	sig.Bind(s)

	notifies := 0
	require.NoError(t, sig.Subscribe(countingSub(&notifies)))

	sig.Fire("a")
	require.NoError(t, FlushFor(s, &recordingSink{}))
	require.Empty(t, sig.Pending())
	require.Equal(t, 1, notifies)

	// no new firings, no new notification
	require.NoError(t, FlushFor(s, &recordingSink{}))
	require.Equal(t, 1, notifies)
}

func TestSignalUnboundFireIsDropped(t *testing.T) {
	sig := NewSignal[int]()
	sig.Fire(99)
	require.Empty(t, sig.Pending())
}
