// Package propagate implements the staged propagation engine: the pass
// update_timing drains the frontier pipeline through, level by level —
// slew, delay, arrival time, jump induction, test update, and a backward
// required-arrival-time sweep.
//
// The intra-level concurrency (goroutines synchronized by a
// sync.WaitGroup barrier, capped by a worker count) fans a level's nodes
// out in parallel while levels themselves are processed strictly in
// order, since the only real ordering constraint is RC -> slew -> delay
// -> AT(l+1) across levels — nodes within one level are independent of
// each other — so collapsing same-level RC/slew/delay/AT into one worker
// function per node keeps that guarantee without a heavier task
// scheduler.
package propagate

import (
	"runtime"
	"sync"

	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/clocktree"
	"github.com/tauphase/statiming/constraint"
	"github.com/tauphase/statiming/epheap"
	"github.com/tauphase/statiming/pipeline"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/tgraph"
)

// Engine owns the mutable propagation state that sits alongside a
// tgraph.Graph: the frontier pipeline (C6), the endpoint heap (C12), and
// the discovered tests (C9).
type Engine struct {
	g       *tgraph.Graph
	pipe    *pipeline.Pipeline
	heap    *epheap.Heap
	tests   map[string]*constraint.Test
	clock   *clocktree.Tree
	cutoff  split.Quad[float64]
	workers int

	// ratSeed holds the per-endpoint RAT the backward pass seeds at each
	// constrained D pin, derived from that test's own post-CPPR margin
	// rather than a user assertion (set_rat only ever targets primary
	// outputs) — kept separate from Node.AssertedRAT so the two concepts
	// (user input vs. derived backward-pass seed) never collide.
	ratSeed map[arena.Index]*ratSeed

	// suppressed records which constrained pins have been excluded from
	// TNS/WNS/worst_paths via SetSuppressed. constraint.Discover rebuilds
	// the test map from scratch on every pass, so this flag lives outside
	// Test and is reapplied each time.
	suppressed map[string]bool
}

// ratSeed is one D pin's derived RAT seed, set only for the [el][rf]
// quadrants its test actually computed (setup populates late, hold
// populates early).
type ratSeed struct {
	value split.Quad[float64]
	set   split.Quad[bool]
}

// Option configures an Engine at construction time, per dijkstra's
// functional-options pattern.
type Option func(*Engine)

// WithWorkers bounds the number of goroutines used to process a single
// level's nodes concurrently, generalized from a fixed fork/join fan-out
// into a configurable worker count.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithCutoff sets the initial cutoff slack (set_cutoff_slack) for every
// [el][rf]; CPPR is invoked only for endpoints at or below this slack.
func WithCutoff(value float64) Option {
	return func(e *Engine) {
		var q split.Quad[float64]
		split.ForEach(func(el split.Split, rf split.Trans) { q.Set(el, rf, value) })
		e.cutoff = q
	}
}

// New constructs an Engine bound to g, with an empty frontier and
// endpoint heap.
func New(g *tgraph.Graph, opts ...Option) *Engine {
	e := &Engine{
		g:       g,
		pipe:    pipeline.New(),
		heap:    epheap.New(),
		tests:   make(map[string]*constraint.Test),
		workers:    runtime.GOMAXPROCS(0),
		ratSeed:    make(map[arena.Index]*ratSeed),
		suppressed: make(map[string]bool),
	}
	var defaultCutoff split.Quad[float64]
	split.ForEach(func(el split.Split, rf split.Trans) { defaultCutoff.Set(el, rf, 0) })
	e.cutoff = defaultCutoff
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetCutoff implements set_cutoff_slack(el, rf, value).
func (e *Engine) SetCutoff(el split.Split, rf split.Trans, value float64) {
	e.cutoff.Set(el, rf, value)
}

// Heap exposes the endpoint min-heap for worst_endpoints queries.
func (e *Engine) Heap() *epheap.Heap { return e.heap }

// Tests exposes the discovered test set for worst_paths queries.
func (e *Engine) Tests() map[string]*constraint.Test { return e.tests }

// SetSuppressed marks pin's test as excluded (or no longer excluded) from
// TNS/WNS and worst_paths without removing its gate.
func (e *Engine) SetSuppressed(pin string, suppressed bool) {
	if suppressed {
		e.suppressed[pin] = true
	} else {
		delete(e.suppressed, pin)
	}
	if t, ok := e.tests[pin]; ok {
		t.Suppressed = suppressed
	}
}

// Enqueue places node idx into the frontier at its current graph level.
// Called by every mutator that touches a node directly.
func (e *Engine) Enqueue(idx arena.Index) {
	n := e.g.Nodes.At(idx)
	if n == nil {
		return
	}
	e.pipe.Insert(idx, n.Level)
}

// EnqueueClosure enqueues idx and every node transitively reachable from
// it over non-constraint fanout edges — the forward-closure expansion an
// incremental update_timing needs so a single mutated node's effect
// reaches every downstream node whose inputs actually changed, not just
// its immediate neighbor. "Reload parasitics, then expect downstream
// slacks to update" only holds if the frontier grows forward from the
// mutated point; the backward pass does the symmetric thing for RAT by
// expanding over fanin, which this mirrors going forward.
func (e *Engine) EnqueueClosure(idx arena.Index) {
	seen := map[arena.Index]bool{idx: true}
	queue := []arena.Index{idx}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		e.Enqueue(cur)

		n := e.g.Nodes.At(cur)
		if n == nil {
			continue
		}
		for _, eIdx := range n.FanoutEdges {
			edge := e.g.Edges.At(eIdx)
			if edge == nil || edge.Kind == tgraph.EdgeConstraint {
				continue
			}
			if !seen[edge.To] {
				seen[edge.To] = true
				queue = append(queue, edge.To)
			}
		}
	}
}

// UpdateTiming drains the frontier through every staged pass.
// incremental=false forces a full reset and relevelization first;
// incremental=true only forward-expands whatever mutators already
// enqueued.
func (e *Engine) UpdateTiming(incremental bool) error {
	e.g.Lock()
	if !incremental {
		e.resetAll()
	}
	e.g.Unlock()

	if !incremental {
		if err := e.g.FullRelevelize(); err != nil {
			return err
		}
		for _, idx := range e.g.AllNodeIndices() {
			e.Enqueue(idx)
		}
	}

	// clocktree.Build is kept for is_clocked-reachability queries a caller
	// may ask independently of AT (e.g. "can this node ever see the
	// clock"), but forwardPass does not Apply its structural result onto
	// Node.IsClocked: the bit that actually matters for CPPR eligibility
	// is carried forward from whichever fanin wins each AT relaxation
	// (forward.go's relaxOne), which can differ from clocktree's purely
	// structural reachability at a reconvergent node whose worse input
	// happens to be the non-clock one.
	if tree, err := clocktree.Build(e.g); err == nil {
		e.clock = tree
	}

	if err := e.forwardPass(); err != nil {
		return err
	}
	e.inductJumps()
	e.tests = constraint.Discover(e.g)
	for pin := range e.suppressed {
		if t, ok := e.tests[pin]; ok {
			t.Suppressed = true
		}
	}
	e.ratSeed = make(map[arena.Index]*ratSeed)
	e.updateTests()
	e.backwardPass()

	e.pipe.RemoveAll()
	return nil
}

// resetAll clears every node's AT/slew/RAT/is_clocked to the undefined
// sentinel before a full (non-incremental) pass.
func (e *Engine) resetAll() {
	for _, idx := range e.g.AllNodeIndices() {
		n := e.g.Nodes.At(idx)
		for _, el := range split.All {
			for _, rf := range split.AllTrans {
				n.AT.Set(el, rf, tgraph.UndefinedAT(el))
				n.Slew.Set(el, rf, tgraph.UndefinedSlew(el))
				n.RAT.Set(el, rf, tgraph.UndefinedRAT(el))
				n.IsClocked.Set(el, rf, false)
			}
		}
	}
}

// forNodesAtLevel runs fn over every node at level l concurrently,
// bounded by e.workers, and waits for all of them before returning.
func (e *Engine) forNodesAtLevel(l int, fn func(arena.Index)) {
	nodes := e.pipe.NodesAtLevel(l)
	if len(nodes) == 0 {
		return
	}
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	for _, idx := range nodes {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx arena.Index) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(idx)
		}(idx)
	}
	wg.Wait()
}
