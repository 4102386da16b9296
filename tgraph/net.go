package tgraph

import (
	"fmt"

	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/rctree"
	"github.com/tauphase/statiming/split"
)

// ConnectPin attaches pin to net: an output-direction pin (a primary input
// or a gate output cellpin) becomes the net's root (driver); an
// input-direction pin becomes a leaf (sink). A pin has at most one
// enclosing net, and a net has at most one root.
//
// Connecting also inserts the RC edges the new membership implies (from
// the root to every leaf when pin becomes the root, from the root to pin
// when pin becomes a leaf), with zero delay; LoadParasitics later
// rebuilds a net's RC edges from its RC tree.
func (g *Graph) ConnectPin(pinName, netName string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.pins[pinName]
	if p == nil {
		return fmt.Errorf("%w: pin %s", ErrMissingPin, pinName)
	}
	n := g.nets[netName]
	if n == nil {
		return fmt.Errorf("%w: net %s", ErrMissingNet, netName)
	}
	if p.Net != "" {
		return fmt.Errorf("%w: pin %s already connected to net %s", ErrInvalidMutation, pinName, p.Net)
	}

	if p.Direction == celllib.DirOutput {
		if n.Root != "" {
			return fmt.Errorf("%w: net %s already has driver %s", ErrInvalidMutation, netName, n.Root)
		}
		n.Root = pinName
	} else {
		n.Leaves = append(n.Leaves, pinName)
	}
	p.Net = netName

	link := func(root, leaf *Pin) {
		idx := g.Edges.Insert(Edge{Kind: EdgeRC, From: root.Node, To: leaf.Node, Net: netName})
		g.Nodes.At(root.Node).FanoutEdges = append(g.Nodes.At(root.Node).FanoutEdges, idx)
		g.Nodes.At(leaf.Node).FaninEdges = append(g.Nodes.At(leaf.Node).FaninEdges, idx)
		bumpLevel(g.Nodes.At(leaf.Node), g.Nodes.At(root.Node).Level+1)
	}
	if p.Direction == celllib.DirOutput {
		for _, leafName := range n.Leaves {
			link(p, g.pins[leafName])
		}
	} else if root := g.pins[n.Root]; root != nil {
		link(root, p)
	}

	g.refreshNetLoad(n)
	return nil
}

// DisconnectPin removes pin from its net. If pin was the net's root, the
// net becomes driverless. The net's RC tree (if any) and all of its RC
// edges are dropped, since the tree's topology no longer matches the net's
// membership; pins still on the net have no RC edges until LoadParasitics
// rebuilds them or a new root is connected.
func (g *Graph) DisconnectPin(pinName string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.pins[pinName]
	if p == nil {
		return fmt.Errorf("%w: pin %s", ErrMissingPin, pinName)
	}
	if p.Net == "" {
		return nil // already disconnected: idempotent, matching arena.Remove's convention
	}
	n := g.nets[p.Net]
	if n == nil {
		return fmt.Errorf("%w: net %s", ErrMissingNet, p.Net)
	}

	if n.Root == pinName {
		delete(g.rcs, n.Name)
		g.removeNetEdges(n)
		n.Root = ""
	} else {
		n.Leaves = removeString(n.Leaves, pinName)
		delete(g.rcs, n.Name)
		g.removeNetEdges(n)
	}
	p.Net = ""
	p.RCNode = arena.Invalid

	g.refreshNetLoad(n)
	return nil
}

func removeString(s []string, target string) []string {
	out := s[:0]
	for _, v := range s {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// removeNetEdges drops every RC edge owned by net n (and their incident
// jumps), since its RC tree is being rebuilt or abandoned.
func (g *Graph) removeNetEdges(n *Net) {
	if n.Root == "" {
		return
	}
	rootPin := g.pins[n.Root]
	if rootPin == nil {
		return
	}
	rootNode := g.Nodes.At(rootPin.Node)
	if rootNode == nil {
		return
	}
	var toRemove []arena.Index
	for _, eIdx := range rootNode.FanoutEdges {
		if e := g.Edges.At(eIdx); e != nil && e.Kind == EdgeRC && e.Net == n.Name {
			toRemove = append(toRemove, eIdx)
		}
	}
	for _, eIdx := range toRemove {
		g.removeEdgeAndJumps(eIdx)
	}
}

// RefreshNetLoad recomputes net's Load from its current leaf pins. Exposed
// for set_load: changing a primary-output leaf's asserted
// load after the net already exists doesn't go through ConnectPin, so the
// caller re-drives the same recomputation this way instead of duplicating
// the capacitance formula outside the package.
func (g *Graph) RefreshNetLoad(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.nets[name]
	if n == nil {
		return fmt.Errorf("%w: net %s", ErrMissingNet, name)
	}
	g.refreshNetLoad(n)
	return nil
}

// refreshNetLoad recomputes a net's total leaf capacitance per [el][rf]
// from its leaf pins' cellpin (or asserted primary-output) capacitance.
func (g *Graph) refreshNetLoad(n *Net) {
	var load split.Quad[float64]
	for _, leafName := range n.Leaves {
		leaf := g.pins[leafName]
		if leaf == nil {
			continue
		}
		split.ForEach(func(el split.Split, rf split.Trans) {
			c := g.leafCapacitance(leaf, el, rf)
			load.Set(el, rf, load.Get(el, rf)+c)
		})
	}
	n.Load = load
}

func (g *Graph) leafCapacitance(p *Pin, el split.Split, rf split.Trans) float64 {
	if p.Kind == PinPrimaryOutput {
		if p.AssertedLoadSet.Get(el, rf) {
			return p.AssertedLoad.Get(el, rf)
		}
		return 0
	}
	gate := g.gates[p.Gate]
	if gate == nil {
		return 0
	}
	cell := gate.EarlyCell
	if el == split.Late {
		cell = gate.LateCell
	}
	cp := cell.Pins[p.CellPin]
	if cp == nil {
		return 0
	}
	return cp.Capacitance
}

// LoadParasitics (re)builds net's RC tree from rc and creates the per
// (root, leaf) RC edges that carry its Elmore delay. RC is a plain
// description: node capacitances keyed by pin name (or "" for
// purely-parasitic internal nodes) and resistor segments between named RC
// nodes. Returns the net's root node index, for the caller to enqueue.
func (g *Graph) LoadParasitics(netName string, rc RCDescription) (arena.Index, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.nets[netName]
	if n == nil {
		return arena.Invalid, fmt.Errorf("%w: net %s", ErrMissingNet, netName)
	}
	if n.Root == "" {
		return arena.Invalid, fmt.Errorf("%w: net %s has no driver", ErrInvalidMutation, netName)
	}
	rootPin := g.pins[n.Root]

	g.removeNetEdges(n)

	tree := rctree.New()
	nodeByName := make(map[string]arena.Index, len(rc.Nodes))
	for _, rn := range rc.Nodes {
		idx := tree.InsertNode(rn.Pin)
		nodeByName[rn.Name] = idx
		split.ForEach(func(el split.Split, rf split.Trans) {
			tree.SetCap(idx, el, rf, rn.Cap.Get(el, rf))
		})
		if rn.Pin != "" {
			if pp := g.pins[rn.Pin]; pp != nil {
				pp.RCNode = idx
			}
		}
	}
	for _, seg := range rc.Segments {
		a, aok := nodeByName[seg.A]
		b, bok := nodeByName[seg.B]
		if !aok || !bok {
			return arena.Invalid, fmt.Errorf("%w: net %s segment references unknown RC node", ErrBadTopology, netName)
		}
		tree.InsertEdge(a, b, seg.Resistance)
	}
	rootRCNode, ok := nodeByName[rootPinKey(rc, n.Root)]
	if !ok {
		return arena.Invalid, fmt.Errorf("%w: net %s has no RC node for its root pin", ErrBadTopology, netName)
	}
	tree.SetRoot(rootRCNode)
	if err := tree.Solve(); err != nil {
		return arena.Invalid, fmt.Errorf("net %s: %w", netName, err)
	}
	g.rcs[netName] = tree

	for _, leafName := range n.Leaves {
		leaf := g.pins[leafName]
		if leaf == nil || leaf.RCNode == arena.Invalid {
			continue
		}
		var delay split.Cube[float64]
		split.ForEach(func(el split.Split, rf split.Trans) {
			d := tree.Delay(leaf.RCNode, el, rf)
			delay.Set(el, rf, rf, d) // RC edges carry the same transition in and out
		})
		edge := Edge{Kind: EdgeRC, From: rootPin.Node, To: leaf.Node, Delay: delay, Net: netName}
		edgeIdx := g.Edges.Insert(edge)
		g.Nodes.At(rootPin.Node).FanoutEdges = append(g.Nodes.At(rootPin.Node).FanoutEdges, edgeIdx)
		g.Nodes.At(leaf.Node).FaninEdges = append(g.Nodes.At(leaf.Node).FaninEdges, edgeIdx)
		bumpLevel(g.Nodes.At(leaf.Node), g.Nodes.At(rootPin.Node).Level+1)
	}

	g.refreshNetLoad(n)
	return rootPin.Node, nil
}

func rootPinKey(rc RCDescription, rootPin string) string {
	for _, rn := range rc.Nodes {
		if rn.Pin == rootPin {
			return rn.Name
		}
	}
	return ""
}

// RCDescription is the structured parasitics description the engine
// consumes for one net ("Parasitics" input row): per-RC-node
// capacitances and the resistor segments joining them, with a subset of
// nodes bound to pins.
type RCDescription struct {
	Nodes    []RCNodeDesc
	Segments []RCSegmentDesc
}

// RCNodeDesc describes one RC-tree node. Pin is "" for a purely parasitic
// (unbound) node; Cap is replicated across [el][rf] by the caller when the
// source format gives only a scalar capacitance.
type RCNodeDesc struct {
	Name string
	Pin  string
	Cap  split.Quad[float64]
}

// RCSegmentDesc describes one resistor segment between two named RC nodes.
type RCSegmentDesc struct {
	A, B       string
	Resistance float64
}
