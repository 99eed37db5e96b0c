package game

import (
	"runtime"
	"sync"

	"github.com/pthm-cable/flappy/systems"
)

// parallelThreshold is the minimum number of trainees to decide in parallel.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// decider evaluates every trainee's network for one tick. Sensing and the
// forward pass only read agent and obstacle state, so chunks run
// concurrently; the flaps are applied afterwards in agent order.
type decider struct {
	numWorkers int
	flaps      []bool
	wg         sync.WaitGroup
}

func newDecider() *decider {
	return &decider{numWorkers: runtime.GOMAXPROCS(0)}
}

// decide fills and returns one flap decision per agent. Dead and human
// agents never flap. The returned slice is reused by the next call.
func (d *decider) decide(env systems.Env, agents []*Agent, pairs []systems.Pair) []bool {
	if cap(d.flaps) < len(agents) {
		d.flaps = make([]bool, len(agents))
	}
	d.flaps = d.flaps[:len(agents)]

	if len(agents) < parallelThreshold || d.numWorkers < 2 {
		decideRange(env, agents, pairs, d.flaps, 0, len(agents))
		return d.flaps
	}

	chunk := (len(agents) + d.numWorkers - 1) / d.numWorkers
	for start := 0; start < len(agents); start += chunk {
		end := min(start+chunk, len(agents))
		d.wg.Add(1)
		go func(start, end int) {
			defer d.wg.Done()
			decideRange(env, agents, pairs, d.flaps, start, end)
		}(start, end)
	}
	d.wg.Wait()
	return d.flaps
}

func decideRange(env systems.Env, agents []*Agent, pairs []systems.Pair, out []bool, start, end int) {
	for i := start; i < end; i++ {
		a := agents[i]
		out[i] = false
		if !a.Alive {
			continue
		}
		if brain, ok := a.Brain(); ok {
			out[i] = brain.Decide(systems.Sense(env, a.Body, pairs))
		}
	}
}
