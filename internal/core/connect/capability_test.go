package connect

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/orbitsync/orbitsync/internal/core/engine"
)

func TestParseCapability(t *testing.T) {
	for in, want := range map[string]Capability{
		"":          CapabilitySpectator,
		"spectator": CapabilitySpectator,
		"owner":     CapabilityOwner,
		"admin":     CapabilityAdmin,
	} {
		got, err := ParseCapability(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseCapability("superuser")
	require.Error(t, err)
}

func TestAccessControl(t *testing.T) {
	s := engine.NewState()
	ship := s.CreateEntity()
	other := s.CreateEntity()

	spectator := Visibility{Cap: CapabilitySpectator}
	owner := Visibility{Cap: CapabilityOwner, Owner: ship}
	admin := Visibility{Cap: CapabilityAdmin}

	// public telemetry is readable by everyone, writable by nobody weaker
	// than the controller
	require.True(t, spectator.CanAccess(ship, "position"))
	require.False(t, spectator.CanMutate(ship, "position"))
	require.True(t, owner.CanMutate(ship, "position"))
	require.False(t, owner.CanMutate(other, "position"))
	require.True(t, admin.CanMutate(other, "position"))

	// control members are private to the controller
	require.False(t, spectator.CanAccess(ship, "accel"))
	require.True(t, owner.CanAccess(ship, "accel"))
	require.False(t, owner.CanAccess(other, "accel"))
	require.True(t, admin.CanAccess(other, "accel"))

	// admin members
	require.False(t, owner.CanAccess(ship, "create_ship"))
	require.True(t, admin.CanMutate(ship, "create_ship"))
}

func TestSpectatorTransformCoarsensVectors(t *testing.T) {
	spectator := Visibility{Cap: CapabilitySpectator}
	admin := Visibility{Cap: CapabilityAdmin}

	v := engine.Vector(mgl64.Vec3{1.4, 2.6, -0.5})
	coarse := spectator.Transform("position", v)
	vec, err := coarse.AsVector()
	require.NoError(t, err)
	require.Equal(t, mgl64.Vec3{1, 3, -1}, vec)

	require.True(t, admin.Transform("position", v).Equal(v))

	nested := engine.Array(engine.Vector(mgl64.Vec3{0.9, 0, 0}), engine.Int(3))
	out := spectator.Transform("stuff", nested)
	items := out.Items()
	require.Len(t, items, 2)
	gotVec, err := items[0].AsVector()
	require.NoError(t, err)
	require.Equal(t, mgl64.Vec3{1, 0, 0}, gotVec)
	require.True(t, items[1].Equal(engine.Int(3)))
}
