package game

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/orbitsync/orbitsync/internal/core/engine"
)

func TestAutopilotOffLeavesThrustAlone(t *testing.T) {
	s := engine.NewState()
	body := NewBody()
	e, err := SpawnShip(s, body, 10)
	require.NoError(t, err)
	sh, err := engine.ComponentOf[*Ship](s, e)
	require.NoError(t, err)
	require.NoError(t, sh.SetThrust(mgl64.Vec3{1, 0, 0}))

	require.NoError(t, RunAutopilot(s, 0.1))
	require.Equal(t, mgl64.Vec3{1, 0, 0}, sh.Acceleration.Get())
}

func TestOrbitAutopilotCommandsBoundedThrust(t *testing.T) {
	s := engine.NewState()
	const starMass = 1e27
	star, err := SpawnBody(s, NewBody().WithMass(starMass))
	require.NoError(t, err)

	body := NewBody().WithPosition(mgl64.Vec3{1e6, 0, 0})
	e, err := SpawnShip(s, body, 5)
	require.NoError(t, err)
	sh, err := engine.ComponentOf[*Ship](s, e)
	require.NoError(t, err)
	sh.AutopilotScheme.Set(AutopilotOrbit)
	sh.AutopilotTarget.Set(star)
	sh.AutopilotDistance.Set(1e6)

	require.NoError(t, RunAutopilot(s, 0.1))
	accel := sh.Acceleration.Get()
	require.NotEqual(t, mgl64.Vec3{}, accel)
	require.LessOrEqual(t, accel.Len(), 5*1.0000001)
}

func TestOrbitAutopilotDefaultsToDominantWell(t *testing.T) {
	s := engine.NewState()
	_, err := SpawnBody(s, NewBody().WithMass(1e27))
	require.NoError(t, err)

	body := NewBody().WithPosition(mgl64.Vec3{1e6, 0, 0})
	e, err := SpawnShip(s, body, 5)
	require.NoError(t, err)
	sh, err := engine.ComponentOf[*Ship](s, e)
	require.NoError(t, err)
	sh.AutopilotScheme.Set(AutopilotOrbit)

	require.NoError(t, RunAutopilot(s, 0.1))
	require.NotEqual(t, mgl64.Vec3{}, sh.Acceleration.Get())
}

func TestOrbitAutopilotDisengagesWhenTargetDies(t *testing.T) {
	s := engine.NewState()
	star, err := SpawnBody(s, NewBody().WithMass(1e27))
	require.NoError(t, err)

	body := NewBody().WithPosition(mgl64.Vec3{1e6, 0, 0})
	e, err := SpawnShip(s, body, 5)
	require.NoError(t, err)
	sh, err := engine.ComponentOf[*Ship](s, e)
	require.NoError(t, err)
	sh.AutopilotScheme.Set(AutopilotOrbit)
	sh.AutopilotTarget.Set(star)

	require.NoError(t, s.DestroyEntity(star))
	require.NoError(t, RunAutopilot(s, 0.1))

	require.Equal(t, AutopilotOff, sh.AutopilotScheme.Get())
	require.Equal(t, mgl64.Vec3{}, sh.Acceleration.Get())
}

func TestOrbitAutopilotCirclesTargetOverTime(t *testing.T) {
	s := engine.NewState()
	const starMass = 1e27
	star, err := SpawnBody(s, NewBody().WithMass(starMass))
	require.NoError(t, err)

	dist := 1e6
	speed := math.Sqrt(GravitationalConstant * starMass / dist)
	body := NewBody().
		WithPosition(mgl64.Vec3{dist * 1.02, 0, 0}).
		WithVelocity(mgl64.Vec3{0, speed * 0.98, 0})
	e, err := SpawnShip(s, body, 50)
	require.NoError(t, err)
	sh, err := engine.ComponentOf[*Ship](s, e)
	require.NoError(t, err)
	sh.AutopilotScheme.Set(AutopilotOrbit)
	sh.AutopilotTarget.Set(star)
	sh.AutopilotDistance.Set(dist)

	dt := 1.0
	for i := 0; i < 2000; i++ {
		require.NoError(t, RunAutopilot(s, dt))
		require.NoError(t, ApplyThrust(s, dt))
		require.NoError(t, ApplyGravity(s, dt))
		require.NoError(t, ApplyMotion(s, dt))
	}
	r := body.Position.Get().Len()
	require.InEpsilon(t, dist, r, 0.05, "autopilot should settle near the requested distance")
}
