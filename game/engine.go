// Package game runs the flappy simulation: agents, the training population
// and the tick engine that drives them.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/flappy/config"
	"github.com/pthm-cable/flappy/neural"
	"github.com/pthm-cable/flappy/storage"
	"github.com/pthm-cable/flappy/systems"
	"github.com/pthm-cable/flappy/telemetry"
)

var (
	// ErrInvalidArgument reports an out-of-range index or invalid parameter.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInterrupted is returned by Run when its context is cancelled.
	ErrInterrupted = errors.New("engine interrupted")
)

// Presenter receives engine notifications. Calls are made from the loop
// goroutine and must not block.
type Presenter interface {
	RequestRepaint()
	EngineFailed(err error)
}

// Leaderboard records finished human games.
type Leaderboard interface {
	SavePlayer(ctx context.Context, rec storage.PlayerRecord) error
}

// NetworkSink records the best network of each finished generation.
type NetworkSink interface {
	SaveNetwork(ctx context.Context, rec storage.NetworkRecord) error
}

// Options holds optional collaborators. The zero value runs the engine with
// the default logger and no outputs.
type Options struct {
	Logger      *slog.Logger
	Presenter   Presenter
	Leaderboard Leaderboard
	Networks    NetworkSink
	Output      *telemetry.OutputManager
	HallOfFame  *telemetry.HallOfFame
	RunID       string

	// TickInterval overrides the configured tick rate; negative runs flat out.
	TickInterval time.Duration
	// MaxGenerations ends a training run after that many finished generations (0 = unlimited).
	MaxGenerations int
	// OnGeneration is called from the loop goroutine after each finished generation.
	OnGeneration func(telemetry.GenerationStats)
}

// commandQueueSize bounds the number of pending commands between ticks.
const commandQueueSize = 64

// Engine owns the simulation and advances it one tick per Step.
// Step, Agents, AgentAt, Pairs and BestNetwork belong to the loop goroutine;
// commands, State, Generation and Status are safe from any goroutine.
type Engine struct {
	cfg    *config.Config
	env    systems.Env
	opts   Options
	logger *slog.Logger

	mode      Mode
	obstacles *systems.ObstacleField
	seed      int64
	interval  time.Duration

	state    atomic.Int32
	status   atomic.Pointer[Status]
	champion atomic.Pointer[Champion]
	commands chan command

	tick       uint64
	genTicks   int
	idleTicks  int
	pendingGap int

	decider   *decider
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	bookmarks *telemetry.BookmarkDetector
}

// NewEngine builds an engine in the Starting state with the first obstacle
// pair already spawned.
func NewEngine(cfg *config.Config, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	interval := cfg.Derived.TickInterval
	if opts.TickInterval != 0 {
		interval = opts.TickInterval
	}

	env := systems.NewEnv(cfg)
	e := &Engine{
		cfg:        cfg,
		env:        env,
		opts:       opts,
		logger:     logger,
		obstacles:  systems.NewObstacleField(rand.New(rand.NewSource(seed))),
		seed:       seed,
		interval:   interval,
		commands:   make(chan command, commandQueueSize),
		pendingGap: env.Gap,
		decider:    newDecider(),
		collector:  telemetry.NewCollector(opts.RunID),
		perf:       telemetry.NewPerfCollector(cfg.Physics.FPS),
		bookmarks:  telemetry.NewBookmarkDetector(10),
	}

	switch cfg.Game.Mode {
	case config.ModePlayer:
		e.mode = SingleMode(NewAgent(env, &Player{Name: cfg.Game.Player, PipeGap: env.Gap}, nil))
	case config.ModeTraining:
		pop, err := NewRandomPopulation(env, cfg.Population.Size, BreedParamsFromConfig(cfg), rand.New(rand.NewSource(seed+1)))
		if err != nil {
			return nil, err
		}
		e.mode = PopulationMode(pop)
	default:
		return nil, fmt.Errorf("game mode %q: %w", cfg.Game.Mode, ErrInvalidArgument)
	}

	e.obstacles.Reset(e.env)
	e.state.Store(int32(Starting))
	e.publish()

	logger.Info("engine created",
		"mode", cfg.Game.Mode,
		"seed", seed,
		"agents", len(e.mode.Agents()),
		"run_id", opts.RunID,
	)
	return e, nil
}

// Seed returns the seed the run was started with.
func (e *Engine) Seed() int64 {
	return e.seed
}

// Env returns the current simulation context.
func (e *Engine) Env() systems.Env {
	return e.env
}

// Mode returns the active game mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// State returns the current run state.
func (e *Engine) State() RunState {
	return RunState(e.state.Load())
}

// Generation returns the training generation counter, 0 outside training.
func (e *Engine) Generation() int {
	return e.Status().Generation
}

// Agents returns every agent.
func (e *Engine) Agents() []*Agent {
	return e.mode.Agents()
}

// AgentAt returns the agent at index i.
func (e *Engine) AgentAt(i int) (*Agent, error) {
	return e.mode.AgentAt(i)
}

// Pairs returns the live obstacle pairs in spawn order.
func (e *Engine) Pairs() []systems.Pair {
	return e.obstacles.Pairs()
}

// BestNetwork returns a copy of the smartest agent's network.
// Returns false outside training.
func (e *Engine) BestNetwork() (*neural.Network, bool) {
	brain, ok := e.mode.Best().Brain()
	if !ok {
		return nil, false
	}
	return brain.Clone(), true
}

// Champion returns the best agent of the most recently finished generation.
func (e *Engine) Champion() (Champion, bool) {
	c := e.champion.Load()
	if c == nil {
		return Champion{}, false
	}
	return *c, true
}

// Run drives the engine at the tick interval until it is ended or lost, or
// ctx is cancelled. Cancellation is reported to the presenter and returned
// wrapped in ErrInterrupted.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine loop started", "interval", e.interval)

	var timer *time.Timer
	if e.interval > 0 {
		timer = time.NewTimer(e.interval)
		defer timer.Stop()
	}

	for {
		switch e.State() {
		case Ended, Lost:
			e.logger.Info("engine loop stopped", "state", e.State(), "tick", e.tick)
			return nil
		}

		if timer != nil {
			select {
			case <-ctx.Done():
				return e.interrupted(ctx)
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return e.interrupted(ctx)
		}

		e.Step()

		if timer != nil {
			timer.Reset(e.interval)
		}
	}
}

func (e *Engine) interrupted(ctx context.Context) error {
	err := fmt.Errorf("%w at tick %d: %w", ErrInterrupted, e.tick, ctx.Err())
	e.logger.Error("engine loop interrupted", "error", err)
	if e.opts.Presenter != nil {
		e.opts.Presenter.EngineFailed(err)
	}
	return err
}

// Step advances the simulation by one tick.
func (e *Engine) Step() {
	e.perf.StartTick()
	e.perf.StartPhase(telemetry.PhaseCommands)
	e.drainCommands()

	state := e.State()
	if state != Ended && state != Lost {
		e.env.GroundX -= e.env.ScrollSpeed
	}

	switch state {
	case Starting:
		e.stepStarting()
	case Running:
		e.stepRunning()
	case AdvancingGeneration:
		e.advanceGeneration()
	case Paused, Lost, Ended:
	}

	e.tick++
	e.perf.EndTick()
	e.publish()
	if e.opts.Presenter != nil {
		e.opts.Presenter.RequestRepaint()
	}
}

func (e *Engine) setState(s RunState) {
	old := e.State()
	if old == s {
		return
	}
	e.state.Store(int32(s))
	e.logger.Debug("state changed", "from", old, "to", s, "tick", e.tick)
}

// stepStarting toggles the idle sprites while waiting for Start.
func (e *Engine) stepStarting() {
	e.idleTicks++
	if e.idleTicks <= e.cfg.Physics.IdleToggleTicks {
		return
	}
	e.idleTicks = 0
	for _, a := range e.mode.Agents() {
		systems.Idle(e.env, &a.Body)
	}
}

func (e *Engine) stepRunning() {
	e.perf.StartPhase(telemetry.PhaseObstacles)
	e.obstacles.Advance(e.env)
	pairs := e.obstacles.Pairs()

	e.perf.StartPhase(telemetry.PhaseAgents)
	agents := e.mode.Agents()
	flaps := e.decider.decide(e.env, agents, pairs)
	for i, a := range agents {
		e.stepAgent(a, flaps[i], pairs)
	}
	e.genTicks++

	if e.mode.IsTraining() && e.cfg.Population.MaxTicks > 0 && e.genTicks >= e.cfg.Population.MaxTicks {
		for _, a := range e.mode.Agents() {
			if a.Alive {
				a.Alive = false
				e.collector.RecordDeath(telemetry.DeathTimeout)
			}
		}
	}

	e.perf.StartPhase(telemetry.PhaseScoring)
	e.updateScores(pairs)

	if !e.mode.AllDead() {
		return
	}
	if e.mode.IsTraining() {
		e.setState(AdvancingGeneration)
		return
	}
	e.setState(Lost)
	e.perf.StartPhase(telemetry.PhaseTelemetry)
	e.recordLoss()
}

// stepAgent applies the flap decision, physics and death for one agent.
func (e *Engine) stepAgent(a *Agent, flap bool, pairs []systems.Pair) {
	if !a.Alive {
		systems.Drift(e.env, &a.Body)
		return
	}

	if flap {
		a.Flap()
		e.collector.RecordFlap()
	}

	systems.StepVertical(e.env, &a.Body)
	a.Distance += e.env.ScrollSpeed

	switch {
	case systems.OutOfBounds(e.env, a.Body):
		a.Alive = false
		e.collector.RecordDeath(telemetry.DeathOutOfBounds)
	case systems.CollidesAny(e.env, a.Hitbox, pairs):
		a.Alive = false
		e.collector.RecordDeath(telemetry.DeathCollision)
	}
}

func (e *Engine) updateScores(pairs []systems.Pair) {
	for _, a := range e.mode.Agents() {
		scored, latch := systems.UpdateScore(e.env, a.Hitbox, pairs, a.Player.ScoredAtPipe)
		if scored && a.Alive {
			a.Player.Score++
		}
		a.Player.ScoredAtPipe = latch
	}
}

// advanceGeneration records the finished generation, breeds the next one
// and restarts the obstacle course.
func (e *Engine) advanceGeneration() {
	pop, ok := e.mode.Population()
	if !ok {
		e.setState(Running)
		return
	}

	e.perf.StartPhase(telemetry.PhaseTelemetry)
	e.finishGeneration(pop)

	e.perf.StartPhase(telemetry.PhaseBreeding)
	if err := pop.NewPopulation(e.env); err != nil {
		// Shapes are fixed at construction, so this is a programming error
		e.logger.Error("breeding failed", "error", err)
		e.setState(Ended)
		if e.opts.Presenter != nil {
			e.opts.Presenter.EngineFailed(err)
		}
		return
	}

	e.obstacles.Reset(e.env)
	e.genTicks = 0

	if e.opts.MaxGenerations > 0 && pop.Generation() >= e.opts.MaxGenerations {
		e.logger.Info("generation limit reached", "generations", pop.Generation())
		e.setState(Ended)
		return
	}
	e.setState(Running)
}
