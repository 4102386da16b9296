// Package rctree implements the per-net parasitic RC-tree solver: Elmore
// delay, downstream capacitance, and PERI (second-moment) slew
// propagation on a tree rooted at a net's driver pin.
//
// A Tree is rebuilt and fully resolved whenever its topology or any leaf
// capacitance changes — correctness is the only requirement, not
// incremental update, so Solve always reruns all three DFS passes on the
// whole tree: no partial-update fast path.
package rctree

import (
	"errors"
	"math"

	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/split"
)

// ErrInvalidTopology indicates the RC tree is not connected or contains a
// cycle, per solver contract.
var ErrInvalidTopology = errors.New("rctree: topology is not a tree (cycle or disconnected)")

// ErrNoRoot indicates Solve was called before SetRoot.
var ErrNoRoot = errors.New("rctree: no root set")

// Node is one RC-tree node's per-[el][rf] state.
type node struct {
	pin     string // associated pin name, "" for an internal parasitic node
	cap     split.Quad[float64]
	load    split.Quad[float64] // downstream capacitance
	y2      split.Quad[float64] // bottom-up second-moment accumulator (subtree-local)
	delay   split.Quad[float64] // root-to-node Elmore delay
	ldelay  split.Quad[float64] // root-to-node second-moment delay
	impulse split.Quad[float64] // 2*ldelay - delay^2, PERI slew-impulse term
}

type neighbor struct {
	to  arena.Index
	res float64
}

// Tree is a single net's parasitic model: an acyclic, connected set of
// nodes joined by resistor segments, rooted at the driver pin's node.
type Tree struct {
	nodes *arena.Arena[node]
	adj   map[arena.Index][]neighbor
	root  arena.Index
	solved bool
}

// New constructs an empty Tree. Call InsertNode to populate it, then
// SetRoot and Solve.
func New() *Tree {
	return &Tree{
		nodes: arena.New[node](),
		adj:   make(map[arena.Index][]neighbor),
		root:  arena.Invalid,
	}
}

// InsertNode adds a new RC-tree node, optionally bound to a pin (pin=""
// for a purely-parasitic internal node), and returns its stable index.
func (t *Tree) InsertNode(pin string) arena.Index {
	t.solved = false
	return t.nodes.Insert(node{pin: pin})
}

// InsertEdge adds an undirected resistor segment between a and b of
// resistance res. Both endpoints must already exist.
func (t *Tree) InsertEdge(a, b arena.Index, res float64) {
	t.solved = false
	t.adj[a] = append(t.adj[a], neighbor{to: b, res: res})
	t.adj[b] = append(t.adj[b], neighbor{to: a, res: res})
}

// SetRoot designates idx as the tree's root (the driver pin's node).
func (t *Tree) SetRoot(idx arena.Index) {
	t.solved = false
	t.root = idx
}

// SetCap sets the lumped capacitance at idx for [el][rf]. Changing a
// capacitance invalidates the last Solve, per the package's rerun-whole-
// tree contract.
func (t *Tree) SetCap(idx arena.Index, el split.Split, rf split.Trans, value float64) {
	t.solved = false
	if n := t.nodes.At(idx); n != nil {
		n.cap.Set(el, rf, value)
	}
}

// NumNodes reports the number of live RC-tree nodes.
func (t *Tree) NumNodes() int { return t.nodes.Len() }

// Load returns the downstream capacitance at idx for [el][rf]. Valid only
// after a successful Solve.
func (t *Tree) Load(idx arena.Index, el split.Split, rf split.Trans) float64 {
	if n := t.nodes.At(idx); n != nil {
		return n.load.Get(el, rf)
	}
	return 0
}

// Delay returns the Elmore delay from the root to idx for [el][rf]. Valid
// only after a successful Solve.
func (t *Tree) Delay(idx arena.Index, el split.Split, rf split.Trans) float64 {
	if n := t.nodes.At(idx); n != nil {
		return n.delay.Get(el, rf)
	}
	return 0
}

// Slew computes the PERI output slew at idx given an input slew si at the
// root: so = sign(si) * sqrt(si^2 + impulse(idx)). Valid only after a
// successful Solve.
func (t *Tree) Slew(idx arena.Index, el split.Split, rf split.Trans, si float64) float64 {
	n := t.nodes.At(idx)
	if n == nil {
		return si
	}
	imp := n.impulse.Get(el, rf)
	mag := si*si + imp
	if mag < 0 {
		mag = 0 // guard against a numerically negative impulse on a near-zero-length net
	}
	so := math.Sqrt(mag)
	if si < 0 {
		so = -so
	}
	return so
}

// Solve runs three DFS passes — capacitance sum-up, Elmore delay, and
// PERI second-moment impulse — over the whole tree, rooted at the node
// designated by SetRoot.
//
// Returns ErrNoRoot if no root has been set, ErrInvalidTopology if the
// graph induced by InsertEdge is not connected or contains a cycle.
// Complexity: O(n) in the number of RC-tree nodes.
func (t *Tree) Solve() error {
	n := t.nodes.Len()
	if n == 0 {
		t.solved = true
		return nil
	}
	if !t.nodes.Valid(t.root) {
		return ErrNoRoot
	}

	order, parent, parentRes, err := t.dfsOrder(n)
	if err != nil {
		return err
	}

	// Pass 1: capacitance sum-up and the bottom-up second-moment helper,
	// processed children-before-parent (reverse of the preorder DFS order).
	for i := len(order) - 1; i >= 0; i-- {
		idx := order[i]
		cur := t.nodes.At(idx)
		split.ForEach(func(el split.Split, rf split.Trans) {
			load := cur.cap.Get(el, rf)
			y2 := 0.0
			for _, nb := range t.adj[idx] {
				if nb.to == parent[idx] {
					continue
				}
				child := t.nodes.At(nb.to)
				load += child.load.Get(el, rf)
				y2 += nb.res*child.load.Get(el, rf) + child.y2.Get(el, rf)
			}
			cur.load.Set(el, rf, load)
			cur.y2.Set(el, rf, y2)
		})
	}

	// Pass 2 & 3: Elmore delay and PERI impulse, processed parent-before-
	// child (the DFS preorder itself).
	for _, idx := range order {
		cur := t.nodes.At(idx)
		p := parent[idx]
		split.ForEach(func(el split.Split, rf split.Trans) {
			var parentDelay, parentLDelay float64
			if p != arena.Invalid {
				pn := t.nodes.At(p)
				parentDelay = pn.delay.Get(el, rf)
				parentLDelay = pn.ldelay.Get(el, rf)
			}
			r := parentRes[idx]
			delay := parentDelay + r*cur.load.Get(el, rf)
			ldelay := parentLDelay + r*(cur.cap.Get(el, rf)+cur.y2.Get(el, rf))
			cur.delay.Set(el, rf, delay)
			cur.ldelay.Set(el, rf, ldelay)
			cur.impulse.Set(el, rf, 2*ldelay-delay*delay)
		})
	}

	t.solved = true
	return nil
}

// Solved reports whether the tree's cached quantities reflect the current
// topology and capacitances (i.e. Solve has run since the last mutation).
func (t *Tree) Solved() bool { return t.solved }

// dfsOrder performs an iterative DFS from root, returning nodes in preorder
// (parent before child) plus parent/parent-resistance maps. An attempt to
// revisit an already-visited node (a back edge) or a live-node count short
// of n after the walk both surface as ErrInvalidTopology.
func (t *Tree) dfsOrder(n int) (order []arena.Index, parent map[arena.Index]arena.Index, parentRes map[arena.Index]float64, err error) {
	type frame struct {
		idx, from arena.Index
		res       float64
	}
	visited := make(map[arena.Index]bool, n)
	parent = make(map[arena.Index]arena.Index, n)
	parentRes = make(map[arena.Index]float64, n)
	order = make([]arena.Index, 0, n)

	stack := []frame{{idx: t.root, from: arena.Invalid, res: 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.idx] {
			return nil, nil, nil, ErrInvalidTopology
		}
		visited[f.idx] = true
		parent[f.idx] = f.from
		parentRes[f.idx] = f.res
		order = append(order, f.idx)
		for _, nb := range t.adj[f.idx] {
			if nb.to == f.from {
				continue
			}
			stack = append(stack, frame{idx: nb.to, from: f.idx, res: nb.res})
		}
	}
	if len(visited) != n {
		return nil, nil, nil, ErrInvalidTopology
	}
	return order, parent, parentRes, nil
}
