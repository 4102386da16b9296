package propagate

import (
	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/lut"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/tgraph"
)

// forwardPass drains the frontier level by level: RC delay is already
// current (LoadParasitics resolves it eagerly, not lazily here — the RC
// solver has no partial-update path, so there is nothing left for a
// per-level "RC update" stage to redo), so each node's worker folds
// slew, cell delay, and AT relaxation into a single pass.
func (e *Engine) forwardPass() error {
	min, max := e.pipe.MinLevel(), e.pipe.MaxLevel()
	for l := min; l <= max; l++ {
		e.forNodesAtLevel(l, e.processNode)
	}
	return nil
}

// processNode relaxes every [el][rf] quadrant of node idx's AT/slew/
// is_clocked from its fanin, per relaxation rule.
func (e *Engine) processNode(idx arena.Index) {
	n := e.g.Nodes.At(idx)
	if n == nil {
		return
	}
	for _, el := range split.All {
		for _, rf := range split.AllTrans {
			e.relaxOne(n, el, rf)
		}
	}
}

// candidate is one legal fanin's contribution to node n's [el][orf] AT.
type candidate struct {
	at      float64
	slew    float64
	clocked bool
}

// relaxOne computes node n's AT, slew, and is_clocked bit at [el][orf]
// from its asserted value (a source node) or the Worse of its legal
// fanin candidates. The is_clocked bit is carried
// from whichever fanin wins the relaxation — not from clocktree's
// structural reachability, since the winning path is the one that
// actually determines this node's AT and may differ from the structural
// clock tree at a reconvergent node with a non-clock-sourced worse input.
func (e *Engine) relaxOne(n *tgraph.Node, el split.Split, orf split.Trans) {
	if n.AssertedATSet.Get(el, orf) {
		n.AT.Set(el, orf, n.AssertedAT.Get(el, orf))
		if n.AssertedSlewSet.Get(el, orf) {
			n.Slew.Set(el, orf, n.AssertedSlew.Get(el, orf))
		}
		n.IsClocked.Set(el, orf, e.g.ClockPin() != "" && n.Pin == e.g.ClockPin())
		return
	}

	var candidates []candidate
	for _, eIdx := range n.FaninEdges {
		edge := e.g.Edges.At(eIdx)
		if edge == nil || edge.Kind == tgraph.EdgeConstraint {
			continue
		}
		fromNode := e.g.Nodes.At(edge.From)
		if fromNode == nil {
			continue
		}

		if edge.Kind == tgraph.EdgeRC {
			if c, ok := e.rcCandidate(n, edge, fromNode, el, orf); ok {
				candidates = append(candidates, c)
			}
			continue
		}
		candidates = append(candidates, e.cellCandidates(edge, fromNode, el, orf)...)
	}

	if len(candidates) == 0 {
		return // no legal fanin: stays at the reset undefined sentinel
	}

	best := candidates[0]
	slew := best.slew
	for _, c := range candidates[1:] {
		if tgraph.Worse(el, c.at, best.at) == c.at && c.at != best.at {
			best = c
		}
		slew = tgraph.Worse(el, slew, c.slew)
	}
	n.AT.Set(el, orf, best.at)
	n.Slew.Set(el, orf, slew)
	n.IsClocked.Set(el, orf, best.clocked)
}

func (e *Engine) rcCandidate(n *tgraph.Node, edge *tgraph.Edge, fromNode *tgraph.Node, el split.Split, orf split.Trans) (candidate, bool) {
	tree := e.g.RCTree(edge.Net)
	leaf := e.g.Pin(n.Pin)
	if tree == nil || leaf == nil || leaf.RCNode == arena.Invalid {
		return candidate{}, false
	}
	at := fromNode.AT.Get(el, orf) + edge.Delay.Get(el, orf, orf)
	slew := tree.Slew(leaf.RCNode, el, orf, fromNode.Slew.Get(el, orf))
	return candidate{at: at, slew: slew, clocked: fromNode.IsClocked.Get(el, orf)}, true
}

// cellCandidates evaluates every input transition the arc's timing sense
// allows, storing each legal (el, irf, orf) delay onto the edge itself
// (cppr and kpaths read it back later as the authoritative per-hop delay)
// and returning one candidate per legal irf.
func (e *Engine) cellCandidates(edge *tgraph.Edge, fromNode *tgraph.Node, el split.Split, orf split.Trans) []candidate {
	arc := edge.Arc[el]
	if arc == nil {
		return nil
	}
	delayTable, slewTable := arcTables(arc, orf)
	toNode := e.g.Nodes.At(edge.To)
	load := e.outputLoad(toNode, el, orf)

	var out []candidate
	for _, irf := range split.AllTrans {
		if !arc.Allows(int(irf), int(orf)) {
			continue
		}
		inputSlew := fromNode.Slew.Get(el, irf)
		delay, err := lut.Eval(delayTable, load, inputSlew)
		if err != nil {
			continue
		}
		slew, err := lut.Eval(slewTable, load, inputSlew)
		if err != nil {
			continue
		}
		edge.Delay.Set(el, irf, orf, delay)
		out = append(out, candidate{
			at:      fromNode.AT.Get(el, irf) + delay,
			slew:    slew,
			clocked: fromNode.IsClocked.Get(el, irf),
		})
	}
	return out
}

// arcTables picks the (delay, transition) LUT pair for output transition
// orf, per six-table arc layout.
func arcTables(arc *celllib.TimingArc, orf split.Trans) (lut.Table, lut.Table) {
	if orf == split.Rise {
		return arc.CellRise, arc.RiseTransition
	}
	return arc.CellFall, arc.FallTransition
}

// outputLoad returns the capacitive load a gate's output pin node
// presents to its own driven net — the "total_output_net_capacitance"
// term of a cell delay/transition LUT lookup.
func (e *Engine) outputLoad(n *tgraph.Node, el split.Split, rf split.Trans) float64 {
	if n == nil {
		return 0
	}
	p := e.g.Pin(n.Pin)
	if p == nil || p.Net == "" {
		return 0
	}
	net := e.g.Net(p.Net)
	if net == nil {
		return 0
	}
	return net.Load.Get(el, rf)
}
