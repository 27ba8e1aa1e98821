package server

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/orbitsync/orbitsync/internal/core/engine"
	"github.com/orbitsync/orbitsync/internal/core/game"
)

// Stock system layout. Units: km, metric tons, seconds.
var (
	starMass   = 1.989e27
	starRadius = 695700.0

	planetMass   = 5.972e21
	planetRadius = 6371.0
	planetDist   = 1.496e8

	moonMass   = 7.35e19
	moonRadius = 1737.0
	moonDist   = 3.844e5

	// new ships appear near the planet, co-moving with it
	spawnPosition = mgl64.Vec3{planetDist + 2e4, 0, 0}
	spawnVelocity = mgl64.Vec3{0, circularSpeed(starMass, planetDist), 0}
)

func circularSpeed(centralMass, dist float64) float64 {
	return math.Sqrt(game.GravitationalConstant * centralMass / dist)
}

// seedSystem populates a fresh state with a star, a planet and its moon on
// circular orbits.
func seedSystem(s *engine.State) error {
	if _, err := game.SpawnBody(s, game.NewBody().
		WithName("star").
		WithMass(starMass).
		WithRadius(starRadius)); err != nil {
		return err
	}

	planetVel := circularSpeed(starMass, planetDist)
	planetPos := mgl64.Vec3{planetDist, 0, 0}
	if _, err := game.SpawnBody(s, game.NewBody().
		WithName("planet").
		WithMass(planetMass).
		WithRadius(planetRadius).
		WithPosition(planetPos).
		WithVelocity(mgl64.Vec3{0, planetVel, 0})); err != nil {
		return err
	}

	moonVel := circularSpeed(planetMass, moonDist)
	if _, err := game.SpawnBody(s, game.NewBody().
		WithName("moon").
		WithMass(moonMass).
		WithRadius(moonRadius).
		WithPosition(planetPos.Add(mgl64.Vec3{moonDist, 0, 0})).
		WithVelocity(mgl64.Vec3{0, planetVel + moonVel, 0})); err != nil {
		return err
	}
	return nil
}
