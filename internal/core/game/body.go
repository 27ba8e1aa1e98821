package game

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/orbitsync/orbitsync/internal/core/engine"
)

// GravityWellThreshold is the mass, in metric tons, at which a body starts
// pulling on everything else. Planets and moons are far above it, ships far
// below.
const GravityWellThreshold = 100_000.0

// Body is the physical component every simulated object carries: kinematic
// state, mass and a collision hull.
type Body struct {
	Name     *engine.Element[string]
	Position *engine.Element[mgl64.Vec3]
	Velocity *engine.Element[mgl64.Vec3]
	Mass     *engine.Element[float64]
	Radius   float64

	// Collision fires once per impact detected during a tick, carrying the
	// other body.
	Collision *engine.Signal[engine.Entity]
}

// GravityWell marks bodies massive enough to act as gravity sources. Attached
// and detached automatically as mass crosses the threshold.
type GravityWell struct{}

func NewBody() *Body {
	return &Body{
		Name:      engine.NewElement(""),
		Position:  engine.NewElement(mgl64.Vec3{}),
		Velocity:  engine.NewElement(mgl64.Vec3{}),
		Mass:      engine.NewElement(0.0),
		Collision: engine.NewSignal[engine.Entity](),
	}
}

func (b *Body) WithName(name string) *Body {
	b.Name.Set(name)
	return b
}

func (b *Body) WithPosition(p mgl64.Vec3) *Body {
	b.Position.Set(p)
	return b
}

func (b *Body) WithVelocity(v mgl64.Vec3) *Body {
	b.Velocity.Set(v)
	return b
}

func (b *Body) WithMass(mass float64) *Body {
	b.Mass.Set(mass)
	return b
}

func (b *Body) WithRadius(r float64) *Body {
	b.Radius = r
	return b
}

func (b *Body) Bind(s *engine.State) {
	b.Name.Bind(s)
	b.Position.Bind(s)
	b.Velocity.Bind(s)
	b.Mass.Bind(s)
	b.Collision.Bind(s)
}

func bodyOf(e engine.Entity) func(s *engine.State) (*Body, error) {
	return func(s *engine.State) (*Body, error) {
		return engine.ComponentOf[*Body](s, e)
	}
}

// SpawnBody creates an entity carrying the body and exposes its members.
func SpawnBody(s *engine.State, b *Body) (engine.Entity, error) {
	e := s.CreateEntity()
	if err := engine.Attach(s, e, b); err != nil {
		return engine.Entity{}, err
	}
	if b.Mass.Get() >= GravityWellThreshold {
		if err := engine.Attach(s, e, GravityWell{}); err != nil {
			return engine.Entity{}, err
		}
	}
	if err := installBodyMembers(s, e, b); err != nil {
		return engine.Entity{}, err
	}
	return e, nil
}

func installBodyMembers(s *engine.State, e engine.Entity, b *Body) error {
	body := bodyOf(e)
	if err := s.AddProperty(e, "name", engine.NewElementConduit(
		func(s *engine.State) (*engine.Element[string], error) {
			bd, err := body(s)
			if err != nil {
				return nil, err
			}
			return bd.Name, nil
		},
		func(v string) engine.Value { return engine.Text(v) },
		func(v engine.Value) (string, error) { return v.AsText() },
	)); err != nil {
		return err
	}
	if err := s.AddProperty(e, "position", engine.NewElementConduit(
		func(s *engine.State) (*engine.Element[mgl64.Vec3], error) {
			bd, err := body(s)
			if err != nil {
				return nil, err
			}
			return bd.Position, nil
		},
		func(v mgl64.Vec3) engine.Value { return engine.Vector(v) },
		func(v engine.Value) (mgl64.Vec3, error) { return v.AsVector() },
	)); err != nil {
		return err
	}
	if err := s.AddProperty(e, "velocity", engine.NewElementConduit(
		func(s *engine.State) (*engine.Element[mgl64.Vec3], error) {
			bd, err := body(s)
			if err != nil {
				return nil, err
			}
			return bd.Velocity, nil
		},
		func(v mgl64.Vec3) engine.Value { return engine.Vector(v) },
		func(v engine.Value) (mgl64.Vec3, error) { return v.AsVector() },
	)); err != nil {
		return err
	}
	// mass writes go through SetMass so the gravity-well marker tracks the
	// threshold crossing
	if err := s.AddProperty(e, "mass", engine.NewElementConduitWithSet(
		func(s *engine.State) (*engine.Element[float64], error) {
			bd, err := body(s)
			if err != nil {
				return nil, err
			}
			return bd.Mass, nil
		},
		func(v float64) engine.Value { return engine.Float(v) },
		func(s *engine.State, value engine.Value) error {
			mass, err := value.AsFloat()
			if err != nil {
				return err
			}
			return SetMass(s, e, mass)
		},
	)); err != nil {
		return err
	}
	if err := s.AddProperty(e, "size", engine.Const(engine.Float(b.Radius))); err != nil {
		return err
	}
	if err := s.AddProperty(e, "orbit", newOrbitConduit(e)); err != nil {
		return err
	}
	return s.AddSignal(e, "collision", engine.NewSignalConduit(
		func(s *engine.State) (*engine.Signal[engine.Entity], error) {
			bd, err := body(s)
			if err != nil {
				return nil, err
			}
			return bd.Collision, nil
		},
		func(hit engine.Entity) engine.Value { return engine.EntityRef(hit) },
	))
}

// SetMass updates a body's mass, attaching or detaching the gravity-well
// marker when the value crosses the threshold.
func SetMass(s *engine.State, e engine.Entity, mass float64) error {
	b, err := engine.ComponentOf[*Body](s, e)
	if err != nil {
		return err
	}
	if mass < 0 {
		return fmt.Errorf("%w: mass must be non-negative, got %g", engine.ErrInvalidValue, mass)
	}
	was := b.Mass.Get() >= GravityWellThreshold
	b.Mass.Set(mass)
	now := mass >= GravityWellThreshold
	switch {
	case now && !was:
		return engine.Attach(s, e, GravityWell{})
	case was && !now:
		return engine.Detach[GravityWell](s, e)
	}
	return nil
}
