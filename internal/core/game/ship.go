package game

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/orbitsync/orbitsync/internal/core/engine"
)

// Autopilot schemes. Off means thrust is whatever the client last set;
// orbit steers toward a circular orbit around the target.
const (
	AutopilotOff   = "off"
	AutopilotOrbit = "orbit"
)

// Ship is the controllable component layered on top of a Body.
type Ship struct {
	MaxAcceleration float64
	Acceleration    *engine.Element[mgl64.Vec3]

	AutopilotScheme   *engine.Element[string]
	AutopilotTarget   *engine.Element[engine.Entity]
	AutopilotDistance *engine.Element[float64]
}

func NewShip(maxAccel float64) *Ship {
	return &Ship{
		MaxAcceleration:   maxAccel,
		Acceleration:      engine.NewElement(mgl64.Vec3{}),
		AutopilotScheme:   engine.NewElement(AutopilotOff),
		AutopilotTarget:   engine.NewElement(engine.Entity{}),
		AutopilotDistance: engine.NewElement(0.0),
	}
}

func (sh *Ship) Bind(s *engine.State) {
	sh.Acceleration.Bind(s)
	sh.AutopilotScheme.Bind(s)
	sh.AutopilotTarget.Bind(s)
	sh.AutopilotDistance.Bind(s)
}

// SetThrust sets the ship's commanded acceleration, rejecting vectors beyond
// the ship's drive capability.
func (sh *Ship) SetThrust(accel mgl64.Vec3) error {
	if accel.Len() > sh.MaxAcceleration*1.0000001 {
		return fmt.Errorf("%w: acceleration %g exceeds maximum %g",
			engine.ErrInvalidValue, accel.Len(), sh.MaxAcceleration)
	}
	sh.Acceleration.Set(accel)
	return nil
}

func shipOf(e engine.Entity) func(s *engine.State) (*Ship, error) {
	return func(s *engine.State) (*Ship, error) {
		return engine.ComponentOf[*Ship](s, e)
	}
}

// SpawnShip creates a ship entity: a body plus the control surface.
func SpawnShip(s *engine.State, b *Body, maxAccel float64) (engine.Entity, error) {
	e, err := SpawnBody(s, b)
	if err != nil {
		return engine.Entity{}, err
	}
	sh := NewShip(maxAccel)
	if err := engine.Attach(s, e, sh); err != nil {
		return engine.Entity{}, err
	}
	if err := installShipMembers(s, e, maxAccel); err != nil {
		return engine.Entity{}, err
	}
	return e, nil
}

func installShipMembers(s *engine.State, e engine.Entity, maxAccel float64) error {
	ship := shipOf(e)
	if err := s.AddProperty(e, "accel", engine.NewElementConduitWithSet(
		func(s *engine.State) (*engine.Element[mgl64.Vec3], error) {
			sh, err := ship(s)
			if err != nil {
				return nil, err
			}
			return sh.Acceleration, nil
		},
		func(v mgl64.Vec3) engine.Value { return engine.Vector(v) },
		func(s *engine.State, value engine.Value) error {
			accel, err := value.AsVector()
			if err != nil {
				return err
			}
			sh, err := ship(s)
			if err != nil {
				return err
			}
			return sh.SetThrust(accel)
		},
	)); err != nil {
		return err
	}
	if err := s.AddProperty(e, "max_accel", engine.Const(engine.Float(maxAccel))); err != nil {
		return err
	}
	if err := s.AddProperty(e, "ap_scheme", engine.NewElementConduitWithSet(
		func(s *engine.State) (*engine.Element[string], error) {
			sh, err := ship(s)
			if err != nil {
				return nil, err
			}
			return sh.AutopilotScheme, nil
		},
		func(v string) engine.Value { return engine.Text(v) },
		func(s *engine.State, value engine.Value) error {
			scheme, err := value.AsText()
			if err != nil {
				return err
			}
			if scheme != AutopilotOff && scheme != AutopilotOrbit {
				return fmt.Errorf("%w: unknown autopilot scheme %q", engine.ErrInvalidValue, scheme)
			}
			sh, err := ship(s)
			if err != nil {
				return err
			}
			sh.AutopilotScheme.Set(scheme)
			return nil
		},
	)); err != nil {
		return err
	}
	if err := s.AddProperty(e, "ap_target", engine.NewElementConduit(
		func(s *engine.State) (*engine.Element[engine.Entity], error) {
			sh, err := ship(s)
			if err != nil {
				return nil, err
			}
			return sh.AutopilotTarget, nil
		},
		func(target engine.Entity) engine.Value {
			if target.IsZero() {
				return engine.Null()
			}
			return engine.EntityRef(target)
		},
		func(v engine.Value) (engine.Entity, error) { return v.AsEntity() },
	)); err != nil {
		return err
	}
	return s.AddProperty(e, "ap_distance", engine.NewElementConduit(
		func(s *engine.State) (*engine.Element[float64], error) {
			sh, err := ship(s)
			if err != nil {
				return nil, err
			}
			return sh.AutopilotDistance, nil
		},
		func(v float64) engine.Value { return engine.Float(v) },
		func(v engine.Value) (float64, error) { return v.AsFloat() },
	))
}
