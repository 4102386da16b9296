package propagate

import (
	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/constraint"
	"github.com/tauphase/statiming/cppr"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/tgraph"
)

// updateTests recomputes every discovered test's endpoints, applies CPPR
// where an endpoint's pre-CPPR slack sits at or below the configured
// cutoff ("only pay for CPPR where it might matter"), and keeps the
// endpoint heap in sync.
func (e *Engine) updateTests() {
	for _, t := range e.tests {
		if err := t.Recompute(e.g); err != nil {
			continue
		}
		if t.Kind == constraint.Sequential {
			e.applyCPPR(t)
			e.seedRAT(t)
		}
		e.syncHeap(t)
	}
}

// seedRAT derives a Sequential test's D pin RAT seed from its own
// (post-CPPR) margin: RAT = AT + slack on the late/setup side, RAT = AT -
// slack on the early/hold side — the algebraic inverse of
// constraint.setupSlack/holdSlack, so the backward pass starts from
// exactly the same margin the test itself reports.
func (e *Engine) seedRAT(t *constraint.Test) {
	p := e.g.Pin(t.Pin)
	if p == nil {
		return
	}
	dNode := e.g.Nodes.At(p.Node)
	if dNode == nil {
		return
	}
	seed, ok := e.ratSeed[p.Node]
	if !ok {
		seed = &ratSeed{}
		e.ratSeed[p.Node] = seed
	}
	if t.SetupEdge != arena.Invalid {
		for _, rf := range split.AllTrans {
			ep := t.Endpoints.Get(split.Late, rf)
			if !ep.Computed {
				continue
			}
			seed.value.Set(split.Late, rf, dNode.AT.Get(split.Late, rf)+ep.Slack)
			seed.set.Set(split.Late, rf, true)
		}
	}
	if t.HoldEdge != arena.Invalid {
		for _, rf := range split.AllTrans {
			ep := t.Endpoints.Get(split.Early, rf)
			if !ep.Computed {
				continue
			}
			seed.value.Set(split.Early, rf, dNode.AT.Get(split.Early, rf)-ep.Slack)
			seed.set.Set(split.Early, rf, true)
		}
	}
}

// applyCPPR corrects a Sequential test's setup (late) and hold (early)
// endpoints whenever their pre-CPPR slack is at or below the cutoff,
// adding back the nonnegative shared-clock-path credit.
func (e *Engine) applyCPPR(t *constraint.Test) {
	if t.SetupEdge != arena.Invalid {
		e.correctEndpoint(t, split.Late)
	}
	if t.HoldEdge != arena.Invalid {
		e.correctEndpoint(t, split.Early)
	}
}

func (e *Engine) correctEndpoint(t *constraint.Test, el split.Split) {
	for _, rf := range split.AllTrans {
		ep := t.Endpoints.Get(el, rf)
		if !ep.Computed || ep.Slack > e.cutoff.Get(el, rf) {
			continue
		}
		credit := cppr.Compute(e.g, t.Pin, t.ClockPin, rf)
		if !credit.Found {
			continue
		}
		ep.Slack += credit.Value
		t.Endpoints.Set(el, rf, ep)
	}
}

// syncHeap pushes every computed, non-suppressed endpoint of t into the
// endpoint heap, or removes it if suppressed.
func (e *Engine) syncHeap(t *constraint.Test) {
	split.ForEach(func(el split.Split, rf split.Trans) {
		key := constraint.EndpointKey(t.Pin, el, rf)
		ep := t.Endpoints.Get(el, rf)
		if !ep.Computed || t.Suppressed {
			e.heap.Remove(key)
			return
		}
		e.heap.Upsert(key, ep.Slack)
	})
}

// backwardPass computes RAT over every node reachable backward from a
// constrained endpoint: a node's RAT is the Tighter of its fanout's RAT
// minus the connecting edge's delay, seeded
// at every Test's D pin (from the corresponding setup/hold margin) and
// at every primary output (from its asserted RAT).
func (e *Engine) backwardPass() {
	frontier := e.seedBackwardFrontier()
	levels := make(map[int][]arena.Index)
	minLevel, maxLevel := 0, -1
	for idx := range frontier {
		n := e.g.Nodes.At(idx)
		if n == nil {
			continue
		}
		levels[n.Level] = append(levels[n.Level], idx)
		if len(levels) == 1 || n.Level < minLevel {
			minLevel = n.Level
		}
		if n.Level > maxLevel {
			maxLevel = n.Level
		}
	}
	for l := maxLevel; l >= minLevel; l-- {
		for _, idx := range levels[l] {
			e.relaxRAT(idx)
		}
	}
}

// seedBackwardFrontier returns the set of nodes whose RAT needs
// recomputing: every node reachable backward (over non-constraint edges)
// from a node that itself has an asserted RAT or a test endpoint.
func (e *Engine) seedBackwardFrontier() map[arena.Index]bool {
	seen := make(map[arena.Index]bool)
	var queue []arena.Index

	push := func(idx arena.Index) {
		if !seen[idx] {
			seen[idx] = true
			queue = append(queue, idx)
		}
	}

	for _, idx := range e.g.AllNodeIndices() {
		n := e.g.Nodes.At(idx)
		if n == nil {
			continue
		}
		if n.AssertedRATSet.Get(split.Early, split.Rise) || n.AssertedRATSet.Get(split.Late, split.Rise) ||
			n.AssertedRATSet.Get(split.Early, split.Fall) || n.AssertedRATSet.Get(split.Late, split.Fall) {
			push(idx)
		}
	}
	for idx := range e.ratSeed {
		push(idx)
	}

	for i := 0; i < len(queue); i++ {
		n := e.g.Nodes.At(queue[i])
		if n == nil {
			continue
		}
		for _, eIdx := range n.FaninEdges {
			edge := e.g.Edges.At(eIdx)
			if edge == nil || edge.Kind == tgraph.EdgeConstraint {
				continue
			}
			push(edge.From)
		}
	}
	return seen
}

// relaxRAT computes node idx's RAT at every [el][rf] as the Tighter of
// its own asserted RAT (if any) and the RAT implied by each fanout edge:
// rat(u)[el][irf] = min/max over fanout of (rat(v)[el][orf] - delay(u->v)).
func (e *Engine) relaxRAT(idx arena.Index) {
	n := e.g.Nodes.At(idx)
	if n == nil {
		return
	}
	for _, el := range split.All {
		for _, irf := range split.AllTrans {
			best := tgraph.UndefinedRAT(el)
			if n.AssertedRATSet.Get(el, irf) {
				best = tgraph.Tighter(el, best, n.AssertedRAT.Get(el, irf))
			}
			if seed, ok := e.ratSeed[idx]; ok && seed.set.Get(el, irf) {
				best = tgraph.Tighter(el, best, seed.value.Get(el, irf))
			}

			for _, eIdx := range n.FanoutEdges {
				edge := e.g.Edges.At(eIdx)
				if edge == nil || edge.Kind == tgraph.EdgeConstraint {
					continue
				}
				toNode := e.g.Nodes.At(edge.To)
				if toNode == nil {
					continue
				}
				if edge.Kind == tgraph.EdgeRC {
					cand := toNode.RAT.Get(el, irf) - edge.Delay.Get(el, irf, irf)
					best = tgraph.Tighter(el, best, cand)
					continue
				}
				arc := edge.Arc[el]
				if arc == nil {
					continue
				}
				for _, orf := range split.AllTrans {
					if !arc.Allows(int(irf), int(orf)) {
						continue
					}
					cand := toNode.RAT.Get(el, orf) - edge.Delay.Get(el, irf, orf)
					best = tgraph.Tighter(el, best, cand)
				}
			}
			n.RAT.Set(el, irf, best)
		}
	}
}
