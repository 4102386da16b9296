package kpaths

import (
	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/tgraph"
)

// fanin is one legal (edge, input-transition) pair that can drive a
// node's AT at a given output transition, together with the AT value it
// would imply (relaxation: at(v)[el][orf] =
// at(u)[el][irf] + delay(u->v)[el][irf][orf]).
type fanin struct {
	edge arena.Index
	from arena.Index
	irf  split.Trans
	cost float64
}

// legalFanins enumerates every (edge, irf) pair that can legally drive
// node idx's AT at [el][orf]. RC edges always carry orf straight through
// (net.go's convention); cell edges are filtered by the arc's timing
// sense.
func legalFanins(g *tgraph.Graph, idx arena.Index, el split.Split, orf split.Trans) []fanin {
	n := g.Nodes.At(idx)
	if n == nil {
		return nil
	}
	var out []fanin
	for _, eIdx := range n.FaninEdges {
		e := g.Edges.At(eIdx)
		if e == nil || e.Kind == tgraph.EdgeConstraint {
			continue
		}
		fromNode := g.Nodes.At(e.From)
		if fromNode == nil {
			continue
		}
		if e.Kind == tgraph.EdgeRC {
			cost := fromNode.AT.Get(el, orf) + e.Delay.Get(el, orf, orf)
			out = append(out, fanin{edge: eIdx, from: e.From, irf: orf, cost: cost})
			continue
		}
		for _, irf := range split.AllTrans {
			if e.Arc[el] == nil || !e.Arc[el].Allows(int(irf), int(orf)) {
				continue
			}
			cost := fromNode.AT.Get(el, irf) + e.Delay.Get(el, irf, orf)
			out = append(out, fanin{edge: eIdx, from: e.From, irf: irf, cost: cost})
		}
	}
	return out
}

// critical picks the Worse-achieving fanin among legalFanins(idx, el,
// orf) — the one that actually determines the node's AT. ok is false at
// a source node (no legal fanin): a primary input, or a node whose only
// fanins are constraint edges.
func critical(g *tgraph.Graph, idx arena.Index, el split.Split, orf split.Trans) (fanin, bool) {
	fanins := legalFanins(g, idx, el, orf)
	if len(fanins) == 0 {
		return fanin{}, false
	}
	best := fanins[0]
	for _, f := range fanins[1:] {
		if tgraph.Worse(el, f.cost, best.cost) == f.cost && f.cost != best.cost {
			best = f
		}
	}
	return best, true
}
