package constraint

import (
	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/tgraph"
)

// Discover scans g for every constrained pin — a D pin with one or more
// incoming constraint edges, or a primary output — and returns one Test
// per such pin, keyed by pin name. Per lifecycle note, the
// caller re-runs Discover (or applies an incremental variant) whenever a
// gate or primary output is inserted or removed.
func Discover(g *tgraph.Graph) map[string]*Test {
	tests := make(map[string]*Test)

	g.Edges.ForEach(func(idx arena.Index, e *tgraph.Edge) {
		if e.Kind != tgraph.EdgeConstraint {
			return
		}
		toNode := g.Nodes.At(e.To)
		fromNode := g.Nodes.At(e.From)
		if toNode == nil || fromNode == nil {
			return
		}
		dPinName := toNode.Pin
		ckPinName := fromNode.Pin

		test, ok := tests[dPinName]
		if !ok {
			test = NewSequential(dPinName, ckPinName)
			tests[dPinName] = test
		}
		switch arcTypeOf(e) {
		case celllib.ArcSetup:
			test.SetupEdge = idx
		case celllib.ArcHold:
			test.HoldEdge = idx
		}
	})

	for _, idx := range g.AllNodeIndices() {
		n := g.Nodes.At(idx)
		if n == nil {
			continue
		}
		p := g.Pin(n.Pin)
		if p != nil && p.Kind == tgraph.PinPrimaryOutput {
			tests[p.Name] = NewPrimaryOutput(p.Name)
		}
	}

	return tests
}

// arcTypeOf reports a constraint edge's setup/hold kind, preferring the
// early-split arc and falling back to the late one (both splits carry the
// same Type, per the Gate invariant — only table values differ).
func arcTypeOf(e *tgraph.Edge) celllib.ArcType {
	if e.Arc[0] != nil {
		return e.Arc[0].Type
	}
	if e.Arc[1] != nil {
		return e.Arc[1].Type
	}
	return celllib.ArcSetup
}
