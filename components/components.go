// Package components defines ECS components for the simulation.
package components

// Position is the horizontal position of an obstacle pair's left edge.
// Pairs share one x for both pipes, so there is no Y.
type Position struct {
	X int
}

// Pipe holds the geometry of a top/bottom pipe pair.
// TopHeight + Gap + BottomHeight always equals the playfield height.
type Pipe struct {
	Seq          uint64 // Spawn order, used for stable iteration
	Width        int
	TopHeight    int
	BottomHeight int
	Gap          int
}
