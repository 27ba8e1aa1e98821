package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/orbitsync/orbitsync/internal/core/engine"
)

// GravitationalConstant in km³ / (t · s²). Distances are kilometers, masses
// metric tons, time seconds.
const GravitationalConstant = 6.6743e-17

// ApplyThrust integrates each ship's commanded acceleration into its body's
// velocity.
func ApplyThrust(s *engine.State, dt float64) error {
	var errs []error
	engine.EachComponent[*Ship](s, func(e engine.Entity, sh *Ship) bool {
		b, err := engine.ComponentOf[*Body](s, e)
		if err != nil {
			errs = append(errs, fmt.Errorf("thrust on %s: %w", e, err))
			return true
		}
		accel := sh.Acceleration.Get()
		if accel == (mgl64.Vec3{}) {
			return true
		}
		b.Velocity.Set(b.Velocity.Get().Add(accel.Mul(dt)))
		return true
	})
	return errors.Join(errs...)
}

// ApplyGravity accelerates every body toward every gravity well.
func ApplyGravity(s *engine.State, dt float64) error {
	type well struct {
		entity engine.Entity
		pos    mgl64.Vec3
		gm     float64
	}
	var wells []well
	var errs []error
	engine.EachComponent[GravityWell](s, func(e engine.Entity, _ GravityWell) bool {
		b, err := engine.ComponentOf[*Body](s, e)
		if err != nil {
			errs = append(errs, fmt.Errorf("gravity well %s: %w", e, err))
			return true
		}
		wells = append(wells, well{entity: e, pos: b.Position.Get(), gm: GravitationalConstant * b.Mass.Get()})
		return true
	})
	if len(wells) == 0 {
		return errors.Join(errs...)
	}
	engine.EachComponent[*Body](s, func(e engine.Entity, b *Body) bool {
		var accel mgl64.Vec3
		pos := b.Position.Get()
		for _, w := range wells {
			if w.entity == e {
				continue
			}
			delta := w.pos.Sub(pos)
			d2 := delta.LenSqr()
			if d2 == 0 {
				continue
			}
			accel = accel.Add(delta.Mul(w.gm / (d2 * math.Sqrt(d2))))
		}
		if accel != (mgl64.Vec3{}) {
			b.Velocity.Set(b.Velocity.Get().Add(accel.Mul(dt)))
		}
		return true
	})
	return errors.Join(errs...)
}

// ApplyCollisions sweeps every pair of bodies over the tick and fires both
// collision signals for each impact found.
func ApplyCollisions(s *engine.State, dt float64) error {
	type mover struct {
		entity engine.Entity
		body   *Body
		pos    mgl64.Vec3
		vel    mgl64.Vec3
	}
	var movers []mover
	engine.EachComponent[*Body](s, func(e engine.Entity, b *Body) bool {
		movers = append(movers, mover{entity: e, body: b, pos: b.Position.Get(), vel: b.Velocity.Get()})
		return true
	})
	for i := 0; i < len(movers); i++ {
		for j := i + 1; j < len(movers); j++ {
			a, b := movers[i], movers[j]
			if sweepHit(a.pos, a.vel, b.pos, b.vel, a.body.Radius+b.body.Radius, dt) {
				a.body.Collision.Fire(b.entity)
				b.body.Collision.Fire(a.entity)
			}
		}
	}
	return nil
}

// sweepHit solves |relPos + relVel*t| = radius for t in [0, dt].
func sweepHit(posA, velA, posB, velB mgl64.Vec3, radius, dt float64) bool {
	rel := posB.Sub(posA)
	if rel.Len() <= radius {
		return true
	}
	relVel := velB.Sub(velA)
	a := relVel.LenSqr()
	if a == 0 {
		return false
	}
	b := 2 * rel.Dot(relVel)
	c := rel.LenSqr() - radius*radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return false
	}
	t := (-b - math.Sqrt(disc)) / (2 * a)
	return t >= 0 && t <= dt
}

// ApplyMotion integrates positions from velocities.
func ApplyMotion(s *engine.State, dt float64) error {
	engine.EachComponent[*Body](s, func(e engine.Entity, b *Body) bool {
		vel := b.Velocity.Get()
		if vel != (mgl64.Vec3{}) {
			b.Position.Set(b.Position.Get().Add(vel.Mul(dt)))
		}
		return true
	})
	return nil
}
