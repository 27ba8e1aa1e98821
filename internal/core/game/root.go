package game

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/orbitsync/orbitsync/internal/core/engine"
)

// Defaults for ships created through the root object.
const (
	DefaultShipRadius   = 0.1  // km
	DefaultShipMaxAccel = 10.0 // km/s²
)

// Root is the component on the singleton entry-point entity every client
// sees first.
type Root struct {
	ShipCreated *engine.Signal[engine.Entity]
}

func (r *Root) Bind(s *engine.State) {
	r.ShipCreated.Bind(s)
}

// InstallRoot creates the root entity: simulation time, the entity indexes
// and the ship factory.
func InstallRoot(s *engine.State) (engine.Entity, error) {
	e := s.CreateEntity()
	root := &Root{ShipCreated: engine.NewSignal[engine.Entity]()}
	if err := engine.Attach(s, e, root); err != nil {
		return engine.Entity{}, err
	}
	if err := s.AddProperty(e, "time", engine.NewElementConduit(
		func(s *engine.State) (*engine.Element[float64], error) { return s.Time, nil },
		func(v float64) engine.Value { return engine.Float(v) },
		nil,
	)); err != nil {
		return engine.Entity{}, err
	}
	if err := s.AddProperty(e, "ships", engine.NewComponentListConduit[*Ship]()); err != nil {
		return engine.Entity{}, err
	}
	if err := s.AddProperty(e, "bodies", engine.NewComponentListConduit[*Body]()); err != nil {
		return engine.Entity{}, err
	}
	if err := s.AddAction(e, "create_ship", engine.NewActionConduit(
		func(s *engine.State, args engine.Value) error {
			return createShip(s, e, args)
		},
	)); err != nil {
		return engine.Entity{}, err
	}
	if err := s.AddSignal(e, "ship_created", engine.NewSignalConduit(
		func(s *engine.State) (*engine.Signal[engine.Entity], error) {
			r, err := engine.ComponentOf[*Root](s, e)
			if err != nil {
				return nil, err
			}
			return r.ShipCreated, nil
		},
		func(ship engine.Entity) engine.Value { return engine.EntityRef(ship) },
	)); err != nil {
		return engine.Entity{}, err
	}
	return e, nil
}

// createShip spawns a ship from [position, velocity] args; both are optional
// and default to zero.
func createShip(s *engine.State, rootEntity engine.Entity, args engine.Value) error {
	var position, velocity mgl64.Vec3
	if !args.IsNull() {
		items := args.Items()
		if args.Kind() != engine.KindArray || len(items) > 2 {
			return fmt.Errorf("%w: create_ship takes [position, velocity]", engine.ErrInvalidValue)
		}
		var err error
		if len(items) > 0 {
			if position, err = items[0].AsVector(); err != nil {
				return err
			}
		}
		if len(items) > 1 {
			if velocity, err = items[1].AsVector(); err != nil {
				return err
			}
		}
	}
	_, err := SpawnDefaultShip(s, rootEntity, position, velocity)
	return err
}

// SpawnDefaultShip creates a stock ship and announces it on the root's
// ship_created signal.
func SpawnDefaultShip(s *engine.State, rootEntity engine.Entity, position, velocity mgl64.Vec3) (engine.Entity, error) {
	body := NewBody().
		WithName("ship").
		WithPosition(position).
		WithVelocity(velocity).
		WithRadius(DefaultShipRadius)
	ship, err := SpawnShip(s, body, DefaultShipMaxAccel)
	if err != nil {
		return engine.Entity{}, err
	}
	root, err := engine.ComponentOf[*Root](s, rootEntity)
	if err != nil {
		return engine.Entity{}, err
	}
	root.ShipCreated.Fire(ship)
	return ship, nil
}
