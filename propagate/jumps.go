package propagate

import (
	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/tgraph"
)

// inductJumps rebuilds every jump shortcut after a forward pass: a jump
// collapses an unbranching chain of single-fanin, single-sense hops into
// one backward-walk step, so cppr's shared-ancestor search and kpaths'
// critical-predecessor walk do not have to cross every buffer/inverter
// in a long chain one edge at a time.
//
// A node is a jump head — the chain's landing point — if it branches
// (fanin degree other than one), is a sequential test's D pin, or is a
// primary input/output (boundary pins terminate chains by
// definition). inductJumps walks backward from every head through its
// unbranching predecessors, composing delay only across RC hops and
// unate (non-ambiguous) cell hops; a NonUnate hop cannot be composed
// without knowing which input transition the caller will ask about, so
// the chain stops there rather than guess (the resulting jump is simply
// shorter, never wrong).
func (e *Engine) inductJumps() {
	e.g.Lock()
	defer e.g.Unlock()

	for _, idx := range e.g.AllNodeIndices() {
		n := e.g.Nodes.At(idx)
		if n == nil {
			continue
		}
		e.invalidateJumpsOf(n)
	}
	for _, idx := range e.g.AllNodeIndices() {
		n := e.g.Nodes.At(idx)
		if n == nil || !e.isJumpHead(n) {
			continue
		}
		e.induceFrom(idx, n)
	}
}

func (e *Engine) invalidateJumpsOf(n *tgraph.Node) {
	for _, jIdx := range n.JumpOut {
		e.g.Jumps.Remove(jIdx)
	}
	n.JumpOut = nil
	n.JumpIn = nil
}

// isJumpHead reports whether n terminates a jump chain: a branch point,
// a constrained (D-pin) node, or a primary input/output.
func (e *Engine) isJumpHead(n *tgraph.Node) bool {
	p := e.g.Pin(n.Pin)
	if p != nil && p.Kind != tgraph.PinCell {
		return true
	}
	nonConstraint := 0
	for _, eIdx := range n.FaninEdges {
		edge := e.g.Edges.At(eIdx)
		if edge == nil {
			continue
		}
		if edge.Kind == tgraph.EdgeConstraint {
			return true
		}
		nonConstraint++
	}
	return nonConstraint != 1
}

// singleFanin returns n's one non-constraint fanin edge, or ok=false if
// it has zero or more than one (isJumpHead already screens those out for
// everything but the starting head itself).
func singleFanin(g *tgraph.Graph, n *tgraph.Node) (*tgraph.Edge, bool) {
	var found *tgraph.Edge
	for _, eIdx := range n.FaninEdges {
		edge := g.Edges.At(eIdx)
		if edge == nil || edge.Kind == tgraph.EdgeConstraint {
			continue
		}
		if found != nil {
			return nil, false
		}
		found = edge
	}
	return found, found != nil
}

// induceFrom walks backward from head through its unbranching
// predecessor chain and installs one jump from the chain's tail to head,
// provided the chain has at least one hop.
func (e *Engine) induceFrom(headIdx arena.Index, head *tgraph.Node) {
	composable := func(edge *tgraph.Edge) bool {
		if edge.Kind == tgraph.EdgeRC {
			return true
		}
		for _, el := range split.All {
			if edge.Arc[el] == nil || edge.Arc[el].Sense == celllib.NonUnate {
				return false
			}
		}
		return true
	}
	first, ok := singleFanin(e.g, head)
	if !ok || !composable(first) {
		return
	}

	var edges []*tgraph.Edge
	edges = append(edges, first)
	cur := first.From
	for {
		curNode := e.g.Nodes.At(cur)
		if curNode == nil || e.isJumpHead(curNode) {
			break
		}
		next, ok := singleFanin(e.g, curNode)
		if !ok || !composable(next) {
			break
		}
		edges = append(edges, next)
		cur = next.From
	}

	var delay split.Cube[float64]
	var parity [2][2]bool
	for _, el := range split.All {
		for _, headOrf := range split.AllTrans {
			total, tailIrf, flipped, ok := chainDelay(el, headOrf, edges)
			if !ok {
				continue
			}
			delay.Set(el, tailIrf, headOrf, total)
			parity[el][tailIrf] = flipped
		}
	}

	jIdx := e.g.Jumps.Insert(tgraph.Jump{From: cur, To: headIdx, Delay: delay, Parity: parity})
	if tailNode := e.g.Nodes.At(cur); tailNode != nil {
		tailNode.JumpOut = append(tailNode.JumpOut, jIdx)
	}
	head.JumpIn = append(head.JumpIn, jIdx)
}

// chainDelay composes the per-hop delays of edges (head-to-tail order)
// for split el and head-side output transition headOrf, returning the
// total delay, the transition the chain requires at its tail end, and
// whether an odd number of negative-unate hops flipped the transition
// along the way. ok is false if any hop is NonUnate (ambiguous without a
// caller-supplied input transition) or is a cell hop with no arc for el.
func chainDelay(el split.Split, headOrf split.Trans, edges []*tgraph.Edge) (total float64, tailRf split.Trans, flipped bool, ok bool) {
	rf := headOrf
	for _, edge := range edges {
		switch {
		case edge.Kind == tgraph.EdgeRC:
			total += edge.Delay.Get(el, rf, rf)
		case edge.Arc[el] != nil && edge.Arc[el].Sense == celllib.PositiveUnate:
			total += edge.Delay.Get(el, rf, rf)
		case edge.Arc[el] != nil && edge.Arc[el].Sense == celllib.NegativeUnate:
			irf := rf.Other()
			total += edge.Delay.Get(el, irf, rf)
			flipped = !flipped
			rf = irf
		default:
			return 0, rf, false, false
		}
	}
	return total, rf, flipped, true
}
