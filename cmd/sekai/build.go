package main

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/sekai/sekai/internal/config"
	"github.com/sekai/sekai/internal/core/ecs"
	"github.com/sekai/sekai/internal/core/event"
	coresys "github.com/sekai/sekai/internal/core/system"
	"github.com/sekai/sekai/internal/data"
	"github.com/sekai/sekai/internal/mathx"
	"github.com/sekai/sekai/internal/scripting"
	"github.com/sekai/sekai/internal/swarm"
	"github.com/sekai/sekai/internal/system"
	"github.com/sekai/sekai/internal/world"
)

// simulation is one scenario wired into a system runner.
type simulation struct {
	runner     *coresys.Runner
	stats      *system.Stats
	population func() int
	board      *swarm.Board // life only
	closers    []func()
}

func (s *simulation) Close() {
	for _, c := range s.closers {
		c()
	}
}

// build creates the world for sc and registers its systems.
func build(sc *data.Scenario, cfg *config.Config, log *zap.Logger) (*simulation, error) {
	seed := cfg.World.Seed
	if sc.Seed != 0 {
		seed = sc.Seed
	}
	rng := rand.New(rand.NewSource(seed))
	log = log.With(zap.String("scenario", sc.Name), zap.String("kind", sc.Kind))

	switch sc.Kind {
	case data.KindFirefly:
		return buildFireflies(sc, cfg, seed, rng, log)
	case data.KindAnt:
		return buildAnts(sc, cfg, seed, rng, log)
	case data.KindLife:
		return buildLife(sc, cfg, seed, log)
	case data.KindMortal:
		return buildMortals(sc, cfg, seed, rng, log)
	case data.KindScript:
		return buildScripts(sc, cfg, seed, rng, log)
	}
	return nil, fmt.Errorf("unknown scenario kind %q", sc.Kind)
}

func buildFireflies(sc *data.Scenario, cfg *config.Config, seed int64, rng *rand.Rand, log *zap.Logger) (*simulation, error) {
	opts := worldOptions[swarm.Light](cfg, seed, log)
	if cfg.World.Coalesce {
		opts = append(opts, world.WithCoalesce(swarm.AverageLight))
	}
	w, err := world.New[swarm.Light](sc.Dims, opts...)
	if err != nil {
		return nil, err
	}
	for _, g := range sc.Entities {
		err := spawnGroup(w, g, rng, true, func() (world.Behavior[swarm.Light], error) {
			f := swarm.NewFirefly()
			f.Lifetime = int(param(g.Params, "lifetime", float64(f.Lifetime)))
			f.FlashCooldown = int(param(g.Params, "flash_cooldown", float64(f.FlashCooldown)))
			f.FlashRate = int(param(g.Params, "flash_rate", float64(f.FlashRate)))
			f.SightRange = param(g.Params, "sight_range", f.SightRange)
			f.ReproductionRange = param(g.Params, "reproduction_range", f.ReproductionRange)
			f.Alpha = param(g.Params, "alpha", f.Alpha)
			f.CurFlashCooldown = f.FlashCooldown
			if f.FlashCooldown > 0 {
				f.CurFlashCooldown = 1 + rng.Intn(f.FlashCooldown)
			}
			return f, nil
		})
		if err != nil {
			return nil, err
		}
	}
	return assemble(w, sc, cfg, log, func(st data.Stimulus) swarm.Light {
		c := swarm.RGB{R: 255, G: 255, B: 255}
		if len(st.Color) == 3 {
			c = swarm.RGB{R: st.Color[0], G: st.Color[1], B: st.Color[2]}
		}
		return swarm.Light{Color: c}
	}), nil
}

func buildAnts(sc *data.Scenario, cfg *config.Config, seed int64, rng *rand.Rand, log *zap.Logger) (*simulation, error) {
	w, err := world.New[swarm.Pheromone](sc.Dims, worldOptions[swarm.Pheromone](cfg, seed, log)...)
	if err != nil {
		return nil, err
	}
	for _, g := range sc.Entities {
		err := spawnGroup(w, g, rng, true, func() (world.Behavior[swarm.Pheromone], error) {
			a := swarm.NewAnt()
			a.Stride = param(g.Params, "stride", a.Stride)
			a.SenseThreshold = param(g.Params, "sense_threshold", a.SenseThreshold)
			a.DepositEvery = int(param(g.Params, "deposit_every", float64(a.DepositEvery)))
			a.TrailStrength = param(g.Params, "trail_strength", a.TrailStrength)
			a.TrailDecay = param(g.Params, "trail_decay", a.TrailDecay)
			a.Sensitivity = param(g.Params, "sensitivity", a.Sensitivity)
			a.FootstepRadius = param(g.Params, "footstep_radius", a.FootstepRadius)
			return a, nil
		})
		if err != nil {
			return nil, err
		}
	}
	return assemble(w, sc, cfg, log, func(st data.Stimulus) swarm.Pheromone {
		return swarm.Pheromone{Strength: st.Value}
	}), nil
}

func buildLife(sc *data.Scenario, cfg *config.Config, seed int64, log *zap.Logger) (*simulation, error) {
	w, err := world.New[swarm.Neighbor](sc.Dims, worldOptions[swarm.Neighbor](cfg, seed, log)...)
	if err != nil {
		return nil, err
	}
	width, height := 0, len(sc.Board)
	if height > 0 {
		width = len(sc.Board[0])
	}
	board, err := swarm.NewBoard(w, width, height, sc.LiveCells())
	if err != nil {
		return nil, err
	}
	sim := assemble(w, sc, cfg, log, func(data.Stimulus) swarm.Neighbor { return swarm.Neighbor{} })
	sim.board = board
	sim.population = board.Population
	return sim, nil
}

func buildMortals(sc *data.Scenario, cfg *config.Config, seed int64, rng *rand.Rand, log *zap.Logger) (*simulation, error) {
	w, err := world.New[float64](sc.Dims, worldOptions[float64](cfg, seed, log)...)
	if err != nil {
		return nil, err
	}
	for _, g := range sc.Entities {
		lifetime := int(param(g.Params, "lifetime", 10))
		err := spawnGroup(w, g, rng, false, func() (world.Behavior[float64], error) {
			return swarm.NewMortal[float64](lifetime), nil
		})
		if err != nil {
			return nil, err
		}
	}
	return assemble(w, sc, cfg, log, func(st data.Stimulus) float64 { return st.Value }), nil
}

func buildScripts(sc *data.Scenario, cfg *config.Config, seed int64, rng *rand.Rand, log *zap.Logger) (*simulation, error) {
	engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return nil, err
	}
	if cfg.World.ParallelWorkers > 1 {
		log.Warn("scripted worlds update serially", zap.Int("parallel_workers", cfg.World.ParallelWorkers))
	}
	opts := worldOptions[scripting.Signal](cfg, seed, log)
	opts = append(opts, world.WithParallelUpdate[scripting.Signal](0))
	w, err := world.New[scripting.Signal](sc.Dims, opts...)
	if err != nil {
		engine.Close()
		return nil, err
	}
	for _, g := range sc.Entities {
		err := spawnGroup(w, g, rng, false, func() (world.Behavior[scripting.Signal], error) {
			return engine.NewBehavior(g.Script, g.Params)
		})
		if err != nil {
			engine.Close()
			return nil, err
		}
	}
	sim := assemble(w, sc, cfg, log, func(st data.Stimulus) scripting.Signal {
		return scripting.Signal{Name: st.Name, Value: st.Value}
	})
	sim.closers = append(sim.closers, engine.Close)
	return sim, nil
}

func worldOptions[M any](cfg *config.Config, seed int64, log *zap.Logger) []world.Option[M] {
	return []world.Option[M]{
		world.WithLogger[M](log),
		world.WithSeed[M](seed),
		world.WithParallelUpdate[M](cfg.World.ParallelWorkers),
	}
}

// assemble registers the stimulus, step and report systems for w.
func assemble[M any](w *world.World[M], sc *data.Scenario, cfg *config.Config, log *zap.Logger, payload func(data.Stimulus) M) *simulation {
	stats := &system.Stats{}
	runner := coresys.NewRunner()
	runner.Register(system.NewStimulusSystem(w, stimuli(sc, payload), stats, log))
	runner.Register(system.NewStepSystem(w, stats))
	runner.Register(system.NewReportSystem(stats, w.NumEntities, cfg.Simulation.ReportEvery, log))
	return &simulation{
		runner:     runner,
		stats:      stats,
		population: w.NumEntities,
	}
}

// stimuli turns scheduled scenario stimuli into envelopes. Positioned
// stimuli reach entities within their radius; the rest are broadcast.
func stimuli[M any](sc *data.Scenario, payload func(data.Stimulus) M) system.StimulusSource[M] {
	return func(tick uint64) []event.Envelope[M] {
		var out []event.Envelope[M]
		for _, st := range sc.StimuliAt(tick) {
			env := event.Envelope[M]{
				Message: event.Message[M]{Payload: payload(st), Origin: ecs.NoEntity},
				Scope:   event.ScopeBroadcast,
			}
			if st.Position != nil {
				env.Message.Position = mathx.Point(st.Position).Clone()
				env.Message.Radius = st.Radius
				env.Scope = event.ScopeProximity
			}
			out = append(out, env)
		}
		return out
	}
}

// spawnGroup spawns g.Count behaviors. Groups without a position or spread
// are non-spatial unless the behavior needs a position, in which case they
// start at the origin.
func spawnGroup[M any](w *world.World[M], g data.EntityGroup, rng *rand.Rand, spatial bool, mk func() (world.Behavior[M], error)) error {
	if !spatial && g.Position == nil && g.Spread == 0 {
		for range g.Count {
			b, err := mk()
			if err != nil {
				return err
			}
			w.Spawn(b)
		}
		return nil
	}
	for _, p := range place(g, w.Dims(), rng) {
		b, err := mk()
		if err != nil {
			return err
		}
		if _, err := w.SpawnAt(b, p); err != nil {
			return err
		}
	}
	return nil
}

func place(g data.EntityGroup, dims int, rng *rand.Rand) []mathx.Point {
	center := make(mathx.Point, dims)
	copy(center, g.Position)
	switch {
	case g.Spread == 0:
		out := make([]mathx.Point, g.Count)
		for i := range out {
			out[i] = center.Clone()
		}
		return out
	case g.Layout == data.LayoutUniform:
		return swarm.UniformSwarm(rng, g.Count, center, g.Spread)
	default:
		return swarm.GaussianSwarm(rng, g.Count, center, g.Spread)
	}
}

func param(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}
