package game

import (
	"errors"
	"math"

	"github.com/orbitsync/orbitsync/internal/core/engine"
)

// orbitConduit derives a body's osculating orbit around the dominant gravity
// well: [parent, semi-major axis, period]. Null while the body is not bound
// to any well.
type orbitConduit struct {
	entity engine.Entity
}

func newOrbitConduit(e engine.Entity) engine.Conduit {
	return &orbitConduit{entity: e}
}

func (c *orbitConduit) Output(s *engine.State) (engine.Value, error) {
	body, err := engine.ComponentOf[*Body](s, c.entity)
	if err != nil {
		return engine.Null(), err
	}
	parent := dominantWell(s, c.entity, body.Position.Get())
	if parent.IsZero() {
		return engine.Null(), nil
	}
	well, err := engine.ComponentOf[*Body](s, parent)
	if err != nil {
		return engine.Null(), err
	}
	gm := GravitationalConstant * well.Mass.Get()
	if gm <= 0 {
		return engine.Null(), nil
	}
	r := body.Position.Get().Sub(well.Position.Get()).Len()
	if r == 0 {
		return engine.Null(), nil
	}
	v2 := body.Velocity.Get().Sub(well.Velocity.Get()).LenSqr()
	// vis-viva: 1/a = 2/r - v²/GM; non-positive means escape trajectory
	inv := 2/r - v2/gm
	if inv <= 0 {
		return engine.Null(), nil
	}
	semiMajor := 1 / inv
	period := 2 * math.Pi * math.Sqrt(semiMajor*semiMajor*semiMajor/gm)
	return engine.Array(
		engine.EntityRef(parent),
		engine.Float(semiMajor),
		engine.Float(period),
	), nil
}

func (c *orbitConduit) Input(*engine.State, engine.Value) error {
	return engine.ErrReadOnly
}

func (c *orbitConduit) Subscribe(s *engine.State, sub engine.Subscriber) error {
	body, err := engine.ComponentOf[*Body](s, c.entity)
	if err != nil {
		return err
	}
	if err := body.Position.Subscribe(sub); err != nil {
		return err
	}
	if err := body.Velocity.Subscribe(sub); err != nil {
		_ = body.Position.Unsubscribe(sub)
		return err
	}
	if err := engine.SubscribeComponentList[GravityWell](s, sub); err != nil {
		_ = body.Position.Unsubscribe(sub)
		_ = body.Velocity.Unsubscribe(sub)
		return err
	}
	return nil
}

func (c *orbitConduit) Unsubscribe(s *engine.State, sub engine.Subscriber) error {
	body, err := engine.ComponentOf[*Body](s, c.entity)
	if err != nil {
		return err
	}
	return errors.Join(
		body.Position.Unsubscribe(sub),
		body.Velocity.Unsubscribe(sub),
		engine.UnsubscribeComponentList[GravityWell](s, sub),
	)
}
