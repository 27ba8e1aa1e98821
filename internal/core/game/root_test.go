package game

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/orbitsync/orbitsync/internal/core/engine"
)

func TestInstallRootMembers(t *testing.T) {
	s := engine.NewState()
	root, err := InstallRoot(s)
	require.NoError(t, err)

	for _, name := range []string{"time", "ships", "bodies"} {
		m, err := s.Member(root, name)
		require.NoError(t, err)
		require.Equal(t, engine.MemberProperty, m.Kind())
	}
	m, err := s.Member(root, "create_ship")
	require.NoError(t, err)
	require.Equal(t, engine.MemberAction, m.Kind())
	m, err = s.Member(root, "ship_created")
	require.NoError(t, err)
	require.Equal(t, engine.MemberSignal, m.Kind())
}

func TestTimePropertyIsReadOnly(t *testing.T) {
	s := engine.NewState()
	root, err := InstallRoot(s)
	require.NoError(t, err)

	m, err := s.Member(root, "time")
	require.NoError(t, err)
	require.ErrorIs(t, m.Set(s, engine.Float(42)), engine.ErrReadOnly)

	s.Time.Set(12.5)
	v, err := m.Get(s)
	require.NoError(t, err)
	require.True(t, v.Equal(engine.Float(12.5)))
}

func TestCreateShipAction(t *testing.T) {
	s := engine.NewState()
	root, err := InstallRoot(s)
	require.NoError(t, err)
	m, err := s.Member(root, "create_ship")
	require.NoError(t, err)

	args := engine.Array(engine.Vector(mgl64.Vec3{1, 2, 3}), engine.Vector(mgl64.Vec3{0, 1, 0}))
	require.NoError(t, m.Invoke(s, args))
	require.Equal(t, 1, engine.CountComponents[*Ship](s))

	ship := findBody(t, s, "ship")
	require.Equal(t, mgl64.Vec3{1, 2, 3}, ship.Position.Get())
	require.Equal(t, mgl64.Vec3{0, 1, 0}, ship.Velocity.Get())

	// defaults apply when args are omitted
	require.NoError(t, m.Invoke(s, engine.Null()))
	require.Equal(t, 2, engine.CountComponents[*Ship](s))

	require.ErrorIs(t, m.Invoke(s, engine.Int(3)), engine.ErrInvalidValue)
}

func TestCreateShipFiresSignal(t *testing.T) {
	s := engine.NewState()
	root, err := InstallRoot(s)
	require.NoError(t, err)

	r, err := engine.ComponentOf[*Root](s, root)
	require.NoError(t, err)
	fired := 0
	require.NoError(t, r.ShipCreated.Subscribe(&signalCounter{n: &fired}))

	m, err := s.Member(root, "create_ship")
	require.NoError(t, err)
	require.NoError(t, m.Invoke(s, engine.Null()))

	require.NoError(t, engine.FlushFor(s, &orbitSink{}))
	require.Equal(t, 1, fired)
}

func TestShipListTracksSpawns(t *testing.T) {
	s := engine.NewState()
	root, err := InstallRoot(s)
	require.NoError(t, err)

	ship, err := SpawnDefaultShip(s, root, mgl64.Vec3{}, mgl64.Vec3{})
	require.NoError(t, err)

	m, err := s.Member(root, "ships")
	require.NoError(t, err)
	v, err := m.Get(s)
	require.NoError(t, err)
	items := v.Items()
	require.Len(t, items, 1)
	got, err := items[0].AsEntity()
	require.NoError(t, err)
	require.Equal(t, ship, got)

	require.NoError(t, s.DestroyEntity(ship))
	v, err = m.Get(s)
	require.NoError(t, err)
	require.Empty(t, v.Items())
}

type signalCounter struct {
	n *int
}

func (c *signalCounter) Notify(*engine.State, engine.EventSink) error {
	*c.n++
	return nil
}
