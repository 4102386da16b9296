// Package cppr implements common path pessimism removal:
// given a launch (data) pin and a capture (clock) pin, it walks both
// backward to their nearest shared ancestor in the timing graph and
// returns the late/early AT delta there as a nonnegative credit to
// subtract from a test's pre-CPPR slack.
//
// Grounded on dijkstra's predecessor-map path reconstruction
// (`prev[v] == u`, walked from a destination back to the source),
// inverted here to walk backward from two different destinations and
// stopped at their common ancestor instead of a single source.
package cppr

import (
	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/tgraph"
)

// Credit is the result of one CPPR computation.
type Credit struct {
	// Value is the nonnegative pessimism credit (property:
	// "post-CPPR slack >= pre-CPPR slack").
	Value float64
	// Divergence is the node index of the nearest common ancestor of the
	// launch and capture paths, or arena.Invalid if none was found (the
	// two pins share no ancestor, e.g. no clock tree reaches one of them).
	Divergence arena.Index
	// Found reports whether a common ancestor exists at all.
	Found bool
}

// Compute walks backward from dataPin and clockPin — preferring a jump
// over a plain edge at every step, since a jump collapses an entire
// unbranching chain into one hop — until the two walks meet at a shared
// node, then returns the late-minus-early AT delta there as the credit.
// An undefined AT at the divergence point (per tgraph.IsUndefined)
// carries no comparable pessimism to remove, so the credit is zero
// (Open Question resolution).
func Compute(g *tgraph.Graph, dataPin, clockPin string, rf split.Trans) Credit {
	dPin := g.Pin(dataPin)
	ckPin := g.Pin(clockPin)
	if dPin == nil || ckPin == nil {
		return Credit{Divergence: arena.Invalid}
	}

	launch := ancestorPath(g, dPin.Node)
	capture := ancestorPath(g, ckPin.Node)

	launchSet := make(map[arena.Index]bool, len(launch))
	for _, idx := range launch {
		launchSet[idx] = true
	}

	div := arena.Invalid
	for _, idx := range capture {
		if launchSet[idx] {
			div = idx
			break
		}
	}
	if div == arena.Invalid {
		return Credit{Divergence: arena.Invalid}
	}

	n := g.Nodes.At(div)
	if n == nil {
		return Credit{Divergence: div, Found: true}
	}
	lateAT := n.AT.Get(split.Late, rf)
	earlyAT := n.AT.Get(split.Early, rf)
	if tgraph.IsUndefined(lateAT) || tgraph.IsUndefined(earlyAT) {
		return Credit{Divergence: div, Found: true}
	}

	credit := lateAT - earlyAT
	if credit < 0 {
		credit = 0
	}
	return Credit{Value: credit, Divergence: div, Found: true}
}

// ancestorPath walks backward from start, one parent per step, returning
// the visited nodes start-first. Stops at a node with no backward hop
// (a source) or on revisiting an already-seen node (defensive against a
// malformed jump cycle).
func ancestorPath(g *tgraph.Graph, start arena.Index) []arena.Index {
	var path []arena.Index
	visited := make(map[arena.Index]bool)
	cur := start
	for {
		if visited[cur] {
			break
		}
		path = append(path, cur)
		visited[cur] = true

		n := g.Nodes.At(cur)
		if n == nil {
			break
		}
		next := parentOf(g, n)
		if next == arena.Invalid {
			break
		}
		cur = next
	}
	return path
}

// parentOf picks the single backward hop out of n: a jump if one exists
// (it collapses a whole chain), otherwise the first non-constraint fanin
// edge.
func parentOf(g *tgraph.Graph, n *tgraph.Node) arena.Index {
	if len(n.JumpIn) > 0 {
		if j := g.Jumps.At(n.JumpIn[0]); j != nil {
			return j.From
		}
	}
	for _, eIdx := range n.FaninEdges {
		e := g.Edges.At(eIdx)
		if e != nil && e.Kind != tgraph.EdgeConstraint {
			return e.From
		}
	}
	return arena.Invalid
}
