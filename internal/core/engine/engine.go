package engine

import (
	"fmt"

	"github.com/orbitsync/orbitsync/internal/core/observability/log"
)

// ConnectionLayer is the engine's view of the connection side: a source of
// queued client intents, a sink for per-connection notifications, and the
// outbound flush at tick end.
type ConnectionLayer interface {
	EventSink
	// ProcessInbound drains and applies all client intents queued since the
	// last tick, in arrival order. This is the only point where
	// client-originated mutation touches the State.
	ProcessInbound(s *State)
	// FlushOutbound hands each connection's accumulated batch to its session.
	FlushOutbound(s *State)
}

type phase uint8

const (
	phaseIdle phase = iota
	phaseRunning
	phaseFlushing
)

type system struct {
	name string
	run  func(s *State, dt float64) error
}

// Engine owns the State and drives the tick cycle:
// Idle -> Running(systems) -> Flushing(notifications) -> Idle.
// The cycle never overlaps itself.
type Engine struct {
	state   *State
	conns   ConnectionLayer
	systems []system
	backBuf []Subscriber
	tick    uint64
	phase   phase
	logger  log.Log
}

func New(conns ConnectionLayer, logger log.Log) *Engine {
	return &Engine{
		state:  NewState(),
		conns:  conns,
		logger: logger,
	}
}

func (e *Engine) State() *State {
	return e.state
}

func (e *Engine) TickCount() uint64 {
	return e.tick
}

// AddSystem appends a simulation system. Systems run every tick in
// registration order; that order is the determinism guarantee, so register
// everything up front.
func (e *Engine) AddSystem(name string, run func(s *State, dt float64) error) {
	e.systems = append(e.systems, system{name: name, run: run})
}

// Tick runs one full cycle: drain client intents, run systems, advance time,
// flush notifications, hand outbound batches to the connection layer.
func (e *Engine) Tick(dt float64) error {
	if e.phase != phaseIdle {
		return ErrTickReentry
	}
	e.phase = phaseRunning
	defer func() { e.phase = phaseIdle }()

	e.conns.ProcessInbound(e.state)

	for _, sys := range e.systems {
		e.runSystem(sys, dt)
	}
	e.state.Time.Set(e.state.Time.Get() + dt)

	e.phase = phaseFlushing
	// freeze this tick's batch; anything marked dirty during the flush
	// belongs to the next tick
	e.backBuf = e.state.notifs.swap(e.backBuf)
	for _, sub := range e.backBuf {
		if err := sub.Notify(e.state, e.conns); err != nil {
			e.logger.Error("notification flush failed",
				log.Uint64("tick", e.tick),
				log.Error(err),
			)
		}
	}
	e.conns.FlushOutbound(e.state)
	e.tick++
	return nil
}

// runSystem isolates one system: an error or panic aborts that system for
// this tick but must not take the server down with it.
func (e *Engine) runSystem(sys system, dt float64) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("system panicked",
				log.String("system", sys.name),
				log.Uint64("tick", e.tick),
				log.Any("panic", r),
			)
		}
	}()
	if err := sys.run(e.state, dt); err != nil {
		e.logger.Error("system failed",
			log.String("system", sys.name),
			log.Uint64("tick", e.tick),
			log.Error(err),
		)
	}
}

// FlushFor runs just the notification flush against the given sink. Test
// seam; production code always goes through Tick.
func FlushFor(s *State, sink EventSink) error {
	var errs error
	buf := s.notifs.swap(nil)
	for _, sub := range buf {
		if err := sub.Notify(s, sink); err != nil {
			if errs == nil {
				errs = err
			} else {
				errs = fmt.Errorf("%w; %w", errs, err)
			}
		}
	}
	return errs
}
