package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intElementConduit(el *Element[int]) Conduit {
	return NewElementConduit(
		func(*State) (*Element[int], error) { return el, nil },
		func(v int) Value { return Int(int64(v)) },
		func(v Value) (int, error) {
			i, err := v.AsInt()
			return int(i), err
		},
	)
}

func TestMapOutputTransformsReads(t *testing.T) {
	s := NewState()
	el := NewElement(100) // centi-units
	el.Bind(s)

	c := MapOutput(intElementConduit(el), func(_ *State, v Value) (Value, error) {
		i, err := v.AsInt()
		if err != nil {
			return Null(), err
		}
		return Float(float64(i) / 100), nil
	})

	v, err := c.Output(s)
	require.NoError(t, err)
	require.True(t, v.Equal(Float(1)))

	// writes pass through untouched
	require.NoError(t, c.Input(s, Int(250)))
	require.Equal(t, 250, el.Get())
}

func TestMapInputTransformsWrites(t *testing.T) {
	s := NewState()
	el := NewElement(0)
	el.Bind(s)

	c := MapInput(intElementConduit(el), func(_ *State, v Value) (Value, error) {
		f, err := v.AsFloat()
		if err != nil {
			return Null(), err
		}
		return Int(int64(f * 100)), nil
	})

	require.NoError(t, c.Input(s, Float(2.5)))
	require.Equal(t, 250, el.Get())
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	s := NewState()
	el := NewElement(7)
	el.Bind(s)

	c := ReadOnly(intElementConduit(el))
	require.ErrorIs(t, c.Input(s, Int(9)), ErrReadOnly)
	require.Equal(t, 7, el.Get())

	v, err := c.Output(s)
	require.NoError(t, err)
	require.True(t, v.Equal(Int(7)))
}

func TestConstConduit(t *testing.T) {
	s := NewState()
	c := Const(Text("fixed"))

	v, err := c.Output(s)
	require.NoError(t, err)
	require.True(t, v.Equal(Text("fixed")))
	require.ErrorIs(t, c.Input(s, Text("other")), ErrReadOnly)
	require.NoError(t, c.Subscribe(s, countingSub(new(int))))
}

func TestElementConduitReportsGoneReferent(t *testing.T) {
	s := NewState()
	e := s.CreateEntity()
	h := &health{HP: NewElement(5)}
	require.NoError(t, Attach(s, e, h))

	c := NewElementConduit(
		func(s *State) (*Element[int], error) {
			hc, err := ComponentOf[*health](s, e)
			if err != nil {
				return nil, err
			}
			return hc.HP, nil
		},
		func(v int) Value { return Int(int64(v)) },
		nil,
	)

	_, err := c.Output(s)
	require.NoError(t, err)
	require.ErrorIs(t, c.Input(s, Int(1)), ErrReadOnly)

	require.NoError(t, s.DestroyEntity(e))
	_, err = c.Output(s)
	require.ErrorIs(t, err, ErrStale)
}
