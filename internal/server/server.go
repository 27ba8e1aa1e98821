package server

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/orbitsync/orbitsync/internal/core/connect"
	"github.com/orbitsync/orbitsync/internal/core/engine"
	"github.com/orbitsync/orbitsync/internal/core/game"
	"github.com/orbitsync/orbitsync/internal/core/observability/log"
	"github.com/orbitsync/orbitsync/internal/gateway"
)

// Server assembles the engine, the connection collection and the gateway
// into a runnable process.
type Server struct {
	cfg       Config
	logger    log.Log
	engine    *engine.Engine
	col       *connect.Collection
	gw        *gateway.Gateway
	metronome *Metronome
}

func New(cfg Config, logger log.Log) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	col := connect.NewCollection(logger)
	eng := engine.New(col, logger)
	state := eng.State()

	root, err := game.InstallRoot(state)
	if err != nil {
		return nil, fmt.Errorf("install root: %w", err)
	}
	col.SetRoot(root)
	col.SetOwnerFactory(func(s *engine.State) (engine.Entity, error) {
		return game.SpawnDefaultShip(s, root, spawnPosition, spawnVelocity)
	})

	if cfg.Game.SeedSystem {
		if err := seedSystem(state); err != nil {
			return nil, fmt.Errorf("seed system: %w", err)
		}
	}

	// registration order is execution order: steer, burn, fall, hit, move
	eng.AddSystem("autopilot", game.RunAutopilot)
	eng.AddSystem("thrust", game.ApplyThrust)
	eng.AddSystem("gravity", game.ApplyGravity)
	eng.AddSystem("collisions", game.ApplyCollisions)
	eng.AddSystem("motion", game.ApplyMotion)

	return &Server{
		cfg:       cfg,
		logger:    logger,
		engine:    eng,
		col:       col,
		gw:        gateway.New(cfg.ListenAddr, cfg.MaxConnections, col, logger),
		metronome: NewMetronome(cfg.TickInterval(), logger),
	}, nil
}

// Engine exposes the assembled engine, mostly for tests.
func (s *Server) Engine() *engine.Engine {
	return s.engine
}

// Run drives the tick loop and the gateway until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("server starting",
		log.String("addr", s.cfg.ListenAddr),
		log.Float64("tick_rate", s.cfg.TickRate),
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.metronome.Run(ctx, s.engine.Tick)
	})
	g.Go(func() error {
		return s.gw.Run(ctx)
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
