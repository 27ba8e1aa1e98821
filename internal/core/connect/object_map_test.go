package connect

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orbitsync/orbitsync/internal/core/engine"
)

func TestObjectMapAssignsFromOne(t *testing.T) {
	s := engine.NewState()
	m := NewObjectMap()

	a, b := s.CreateEntity(), s.CreateEntity()
	idA, err := m.Register(a)
	require.NoError(t, err)
	require.Equal(t, ObjectID(1), idA)

	idB, err := m.Register(b)
	require.NoError(t, err)
	require.Equal(t, ObjectID(2), idB)

	_, err = m.Register(a)
	require.Error(t, err)
	require.Equal(t, 2, m.Len())
}

func TestObjectMapLookupBothWays(t *testing.T) {
	s := engine.NewState()
	m := NewObjectMap()
	e := s.CreateEntity()
	id, err := m.Register(e)
	require.NoError(t, err)

	gotID, ok := m.Object(e)
	require.True(t, ok)
	require.Equal(t, id, gotID)

	gotE, ok := m.Entity(id)
	require.True(t, ok)
	require.Equal(t, e, gotE)

	_, ok = m.Entity(ObjectID(99))
	require.False(t, ok)
}

func TestObjectMapRemoveNeverReusesIDs(t *testing.T) {
	s := engine.NewState()
	m := NewObjectMap()
	a := s.CreateEntity()
	idA, err := m.Register(a)
	require.NoError(t, err)

	removed, ok := m.Remove(a)
	require.True(t, ok)
	require.Equal(t, idA, removed)
	_, ok = m.Remove(a)
	require.False(t, ok)

	idB, err := m.Register(s.CreateEntity())
	require.NoError(t, err)
	require.Greater(t, idB, idA)
}
