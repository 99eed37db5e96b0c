package systems

import (
	"math/rand"
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flappy/components"
)

// Pair is a read-only view of one obstacle pair.
type Pair struct {
	Seq          uint64
	X            int
	Width        int
	TopHeight    int
	BottomHeight int
	Gap          int
}

// TopEdge returns the y of the top pipe's lower edge.
func (p Pair) TopEdge(env Env) int {
	return env.Top + p.TopHeight
}

// BottomEdge returns the y of the bottom pipe's upper edge.
func (p Pair) BottomEdge(env Env) int {
	return env.Ground - p.BottomHeight
}

// GapCenter returns the vertical center of the gap.
func (p Pair) GapCenter(env Env) int {
	return (p.TopEdge(env) + p.BottomEdge(env)) / 2
}

// SpawnHeights draws the pipe heights for a new pair.
// The top height is uniform in [minHeight, minHeight+span) with
// span = playfield - 2*minHeight - gap; the bottom takes the remainder,
// so both heights are at least minHeight whenever span >= 0.
func SpawnHeights(env Env, rng *rand.Rand) (top, bottom int) {
	span := env.PlayfieldHeight - 2*env.MinPipeHeight - env.Gap
	top = env.MinPipeHeight
	if span > 0 {
		top += rng.Intn(span)
	}
	bottom = env.PlayfieldHeight - top - env.Gap
	return top, bottom
}

// ObstacleField owns the live obstacle pairs as ECS entities.
type ObstacleField struct {
	world  *ecs.World
	mapper *ecs.Map2[components.Position, components.Pipe]
	filter *ecs.Filter2[components.Position, components.Pipe]
	rng    *rand.Rand

	nextSeq    uint64
	sinceSpawn int

	// Cached view, rebuilt after every mutation
	pairs  []Pair
	doomed []ecs.Entity
}

// NewObstacleField creates an empty field drawing heights from rng.
func NewObstacleField(rng *rand.Rand) *ObstacleField {
	world := ecs.NewWorld()
	return &ObstacleField{
		world:  world,
		mapper: ecs.NewMap2[components.Position, components.Pipe](world),
		filter: ecs.NewFilter2[components.Position, components.Pipe](world),
		rng:    rng,
	}
}

// Spawn adds one pair at the right edge of the board.
func (f *ObstacleField) Spawn(env Env) Pair {
	top, bottom := SpawnHeights(env, f.rng)
	pos := components.Position{X: env.Right}
	pipe := components.Pipe{
		Seq:          f.nextSeq,
		Width:        env.PipeWidth,
		TopHeight:    top,
		BottomHeight: bottom,
		Gap:          env.Gap,
	}
	f.nextSeq++
	f.mapper.NewEntity(&pos, &pipe)
	f.refresh()
	return toPair(pos, pipe)
}

// Advance runs one tick: spawn on cadence, scroll every pair left and prune
// the ones that are fully past the left edge.
func (f *ObstacleField) Advance(env Env) {
	if f.sinceSpawn >= env.SpawnInterval {
		f.Spawn(env)
		f.sinceSpawn = 0
	}

	query := f.filter.Query()
	for query.Next() {
		pos, pipe := query.Get()
		pos.X -= env.ScrollSpeed
		if pos.X+pipe.Width < env.Left {
			f.doomed = append(f.doomed, query.Entity())
		}
	}
	f.removeDoomed()
	f.refresh()

	f.sinceSpawn++
}

// Reset removes every pair, restarts the spawn cadence and spawns the first pair.
func (f *ObstacleField) Reset(env Env) {
	f.Clear()
	f.Spawn(env)
}

// Clear removes every pair and restarts the spawn cadence.
func (f *ObstacleField) Clear() {
	query := f.filter.Query()
	for query.Next() {
		f.doomed = append(f.doomed, query.Entity())
	}
	f.removeDoomed()
	f.sinceSpawn = 0
	f.refresh()
}

// Pairs returns the live pairs in spawn order. The slice is owned by the
// field and valid until the next mutation.
func (f *ObstacleField) Pairs() []Pair {
	return f.pairs
}

// Len returns the number of live pairs.
func (f *ObstacleField) Len() int {
	return len(f.pairs)
}

// SinceSpawn returns the ticks elapsed since the last cadence spawn.
func (f *ObstacleField) SinceSpawn() int {
	return f.sinceSpawn
}

func (f *ObstacleField) removeDoomed() {
	for _, e := range f.doomed {
		f.world.RemoveEntity(e)
	}
	f.doomed = f.doomed[:0]
}

// refresh rebuilds the cached view. Entity order changes on removal, so the
// view is sorted by spawn sequence.
func (f *ObstacleField) refresh() {
	f.pairs = f.pairs[:0]
	query := f.filter.Query()
	for query.Next() {
		pos, pipe := query.Get()
		f.pairs = append(f.pairs, toPair(*pos, *pipe))
	}
	sort.Slice(f.pairs, func(i, j int) bool { return f.pairs[i].Seq < f.pairs[j].Seq })
}

func toPair(pos components.Position, pipe components.Pipe) Pair {
	return Pair{
		Seq:          pipe.Seq,
		X:            pos.X,
		Width:        pipe.Width,
		TopHeight:    pipe.TopHeight,
		BottomHeight: pipe.BottomHeight,
		Gap:          pipe.Gap,
	}
}
