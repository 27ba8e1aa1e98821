package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orbitsync/orbitsync/internal/core/observability/log"
)

// fakeConns is a minimal ConnectionLayer that records what the engine feeds
// it.
type fakeConns struct {
	recordingSink
	inbound func(s *State)
	flushes int
}

func (f *fakeConns) ProcessInbound(s *State) {
	if f.inbound != nil {
		f.inbound(s)
	}
}

func (f *fakeConns) FlushOutbound(*State) {
	f.flushes++
}

func TestTickAdvancesTimeAndCounts(t *testing.T) {
	conns := &fakeConns{}
	eng := New(conns, log.NewNop())

	require.NoError(t, eng.Tick(0.5))
	require.NoError(t, eng.Tick(0.5))

	require.Equal(t, uint64(2), eng.TickCount())
	require.Equal(t, 1.0, eng.State().Time.Get())
	require.Equal(t, 2, conns.flushes)
}

func TestSystemsRunInRegistrationOrder(t *testing.T) {
	eng := New(&fakeConns{}, log.NewNop())
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		eng.AddSystem(name, func(*State, float64) error {
			order = append(order, name)
			return nil
		})
	}
	require.NoError(t, eng.Tick(0.1))
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestFailingSystemDoesNotStopTheTick(t *testing.T) {
	eng := New(&fakeConns{}, log.NewNop())
	ran := false
	eng.AddSystem("broken", func(*State, float64) error {
		return errors.New("boom")
	})
	eng.AddSystem("panicky", func(*State, float64) error {
		panic("much worse")
	})
	eng.AddSystem("healthy", func(*State, float64) error {
		ran = true
		return nil
	})

	require.NoError(t, eng.Tick(0.1))
	require.True(t, ran)
	require.Equal(t, uint64(1), eng.TickCount())
}

func TestTickReentryRejected(t *testing.T) {
	eng := New(&fakeConns{}, log.NewNop())
	var inner error
	eng.AddSystem("reentrant", func(*State, float64) error {
		inner = eng.Tick(0.1)
		return nil
	})
	require.NoError(t, eng.Tick(0.1))
	require.ErrorIs(t, inner, ErrTickReentry)
	require.Equal(t, uint64(1), eng.TickCount())
}

func TestTickFlushesSubscribedProperty(t *testing.T) {
	conns := &fakeConns{}
	eng := New(conns, log.NewNop())
	s := eng.State()

	e, h := attachHealth(t, s, 100)
	m, err := s.Member(e, "hp")
	require.NoError(t, err)
	conn := NewConnectionID()
	require.NoError(t, m.Subscribe(s, conn))

	eng.AddSystem("damage", func(s *State, _ float64) error {
		if h.HP.Get() > 90 {
			h.HP.Set(90)
		}
		return nil
	})

	require.NoError(t, eng.Tick(0.1))
	require.Len(t, conns.events, 1)
	require.True(t, conns.events[0].value.Equal(Int(90)))

	// second tick changes nothing, so nothing is delivered
	conns.events = nil
	require.NoError(t, eng.Tick(0.1))
	require.Empty(t, conns.events)
}

func TestDirtyDuringFlushBelongsToNextTick(t *testing.T) {
	conns := &fakeConns{}
	eng := New(conns, log.NewNop())
	s := eng.State()

	a := NewElement(0)
	a.Bind(s)
	b := NewElement(0)
	b.Bind(s)

	bNotifies := 0
	require.NoError(t, a.Subscribe(&funcSub{fn: func(*State, EventSink) error {
		b.Set(b.Get() + 1) // cascade during the flush
		return nil
	}}))
	require.NoError(t, b.Subscribe(countingSub(&bNotifies)))

	a.Set(1)
	require.NoError(t, eng.Tick(0.1))
	require.Zero(t, bNotifies, "writes made during a flush must wait for the next tick")

	require.NoError(t, eng.Tick(0.1))
	require.Equal(t, 1, bNotifies)
}
