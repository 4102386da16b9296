// Package clocktree determines, for every node reachable from the
// designated clock pin, which transitions (rise, fall) can
// arrive there by propagating sense (positive/negative/non-unate) forward
// over non-constraint edges from the clock source.
//
// Grounded on bfs.BFS's queue/visited walker shape, adapted from a
// single-valued "visited" flag to a per-transition reachability set that
// merges across converging paths (a diamond in the graph can make both
// rise and fall reachable at the same node even though each individual
// path only flips parity one way), so a node is requeued when a later
// path adds a transition its first visit didn't reach.
package clocktree

import (
	"errors"
	"fmt"

	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/tgraph"
)

// ErrNoClockPin is returned when the graph has no clock pin configured.
var ErrNoClockPin = errors.New("clocktree: no clock pin set")

// reach[Rise] / reach[Fall] record whether that transition can arrive at
// a node by propagating forward from the clock source.
type reach [2]bool

func (r reach) merge(o reach) (reach, bool) {
	m := reach{r[0] || o[0], r[1] || o[1]}
	return m, m != r
}

// Tree holds the clock-reachability set computed by Build.
type Tree struct {
	clockNode arena.Index
	reached   map[arena.Index]reach
}

// Build walks g forward from its clock pin over every non-constraint edge
// (cell and RC edges), tracking which transitions reach each node.
// Returns ErrNoClockPin if g has no clock pin configured.
func Build(g *tgraph.Graph) (*Tree, error) {
	g.RLock()
	defer g.RUnlock()

	clockPinName := g.ClockPin()
	if clockPinName == "" {
		return nil, ErrNoClockPin
	}
	p := g.Pin(clockPinName)
	if p == nil {
		return nil, fmt.Errorf("%w: clock pin %s not found", ErrNoClockPin, clockPinName)
	}

	t := &Tree{clockNode: p.Node, reached: make(map[arena.Index]reach)}
	start := reach{true, true}
	t.reached[p.Node] = start

	queue := []arena.Index{p.Node}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		n := g.Nodes.At(cur)
		if n == nil {
			continue
		}
		curReach := t.reached[cur]
		for _, eIdx := range n.FanoutEdges {
			e := g.Edges.At(eIdx)
			if e == nil || e.Kind == tgraph.EdgeConstraint {
				continue
			}
			next := propagate(curReach, e.Sense)
			prev, existed := t.reached[e.To]
			merged, changed := prev.merge(next)
			if !existed {
				changed = true
			}
			if changed {
				t.reached[e.To] = merged
				queue = append(queue, e.To)
			}
		}
	}
	return t, nil
}

// propagate maps an incoming reach set across one edge's timing sense.
func propagate(in reach, sense celllib.TimingSense) reach {
	switch sense {
	case celllib.NegativeUnate:
		return reach{in[1], in[0]}
	case celllib.NonUnate:
		both := in[0] || in[1]
		return reach{both, both}
	default: // PositiveUnate, and RC edges (zero-value Sense, pass-through)
		return in
	}
}

// Reachable reports whether node idx is reachable from the clock source at
// all (by either transition).
func (t *Tree) Reachable(idx arena.Index) bool {
	r, ok := t.reached[idx]
	return ok && (r[0] || r[1])
}

// ReachableBy reports whether transition rf can arrive at node idx from
// the clock source.
func (t *Tree) ReachableBy(idx arena.Index, rf split.Trans) bool {
	return t.reached[idx][rf]
}

// ClockNode returns the node index of the clock pin this tree was built
// from.
func (t *Tree) ClockNode() arena.Index { return t.clockNode }

// Apply writes this tree's reachability into the IsClocked field
// (Node.is_clocked) of every node the clock reaches, replicated across
// both splits since clock-path parity does not depend on the early/late
// corner. Nodes the clock does not reach are left unchanged.
func (t *Tree) Apply(g *tgraph.Graph) {
	g.Lock()
	defer g.Unlock()

	for idx, r := range t.reached {
		n := g.Nodes.At(idx)
		if n == nil {
			continue
		}
		var q split.Quad[bool]
		for _, el := range split.All {
			q.Set(el, split.Rise, r[split.Rise])
			q.Set(el, split.Fall, r[split.Fall])
		}
		n.IsClocked = q
	}
}
