package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/orbitsync/orbitsync/internal/core/engine"
)

// RunAutopilot steers every ship whose autopilot is engaged. Runs before the
// physics systems so the thrust it commands takes effect the same tick.
func RunAutopilot(s *engine.State, dt float64) error {
	var errs []error
	engine.EachComponent[*Ship](s, func(e engine.Entity, sh *Ship) bool {
		if sh.AutopilotScheme.Get() != AutopilotOrbit {
			return true
		}
		if err := orbitAutopilot(s, e, sh, dt); err != nil {
			if errors.Is(err, engine.ErrStale) || errors.Is(err, engine.ErrNotFound) {
				// target vanished; disengage rather than error every tick
				sh.AutopilotScheme.Set(AutopilotOff)
				sh.Acceleration.Set(mgl64.Vec3{})
				return true
			}
			errs = append(errs, fmt.Errorf("autopilot on %s: %w", e, err))
		}
		return true
	})
	return errors.Join(errs...)
}

// orbitAutopilot drives the ship toward a circular orbit around the target at
// the requested distance: a velocity-matching controller that blends the
// tangential speed a circular orbit needs with a radial approach term.
func orbitAutopilot(s *engine.State, e engine.Entity, sh *Ship, dt float64) error {
	body, err := engine.ComponentOf[*Body](s, e)
	if err != nil {
		return err
	}
	targetEntity := sh.AutopilotTarget.Get()
	if targetEntity.IsZero() {
		targetEntity = dominantWell(s, e, body.Position.Get())
		if targetEntity.IsZero() {
			return nil // nothing to orbit, coast
		}
	}
	target, err := engine.ComponentOf[*Body](s, targetEntity)
	if err != nil {
		return err
	}

	rel := body.Position.Get().Sub(target.Position.Get())
	dist := rel.Len()
	if dist == 0 {
		return nil
	}
	goal := sh.AutopilotDistance.Get()
	if goal <= 0 {
		goal = dist
	}
	gm := GravitationalConstant * target.Mass.Get()
	orbitSpeed := math.Sqrt(gm / goal)

	radial := rel.Mul(1 / dist)
	relVel := body.Velocity.Get().Sub(target.Velocity.Get())
	tangent := relVel.Sub(radial.Mul(relVel.Dot(radial)))
	if tangent.Len() < 1e-9 {
		tangent = anyPerpendicular(radial)
	} else {
		tangent = tangent.Normalize()
	}

	// close the distance error radially, hold orbital speed tangentially;
	// the radial approach is capped well below orbital speed to keep the
	// trajectory from plunging
	radialSpeed := clamp(0.1*(goal-dist)/math.Max(dt, 1e-6), -0.2*orbitSpeed, 0.2*orbitSpeed)
	wantVel := tangent.Mul(orbitSpeed).Add(radial.Mul(radialSpeed))
	accel := wantVel.Sub(relVel).Mul(1 / math.Max(dt, 1e-6))
	if max := sh.MaxAcceleration; accel.Len() > max {
		accel = accel.Normalize().Mul(max)
	}
	sh.Acceleration.Set(accel)
	return nil
}

// dominantWell returns the gravity source with the strongest pull at pos,
// skipping the ship itself. Zero entity when there are no wells.
func dominantWell(s *engine.State, self engine.Entity, pos mgl64.Vec3) engine.Entity {
	var best engine.Entity
	bestPull := 0.0
	engine.EachComponent[GravityWell](s, func(e engine.Entity, _ GravityWell) bool {
		if e == self {
			return true
		}
		b, err := engine.ComponentOf[*Body](s, e)
		if err != nil {
			return true
		}
		d2 := b.Position.Get().Sub(pos).LenSqr()
		if d2 == 0 {
			return true
		}
		pull := b.Mass.Get() / d2
		if pull > bestPull {
			best, bestPull = e, pull
		}
		return true
	})
	return best
}

func anyPerpendicular(v mgl64.Vec3) mgl64.Vec3 {
	axis := mgl64.Vec3{0, 0, 1}
	if math.Abs(v.Dot(axis)) > 0.9 {
		axis = mgl64.Vec3{0, 1, 0}
	}
	return v.Cross(axis).Normalize()
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
