package tgraph

import (
	"fmt"
	"sort"

	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/celllib"
)

// placeholderCell auto-creates a blockage cell for a cell name that is
// missing from one library: no pins, no arcs.
func placeholderCell(name string) *celllib.Cell {
	return &celllib.Cell{Name: name, Pins: map[string]*celllib.CellPin{}}
}

// InsertGate instantiates cellName as a new gate, creating one Pin+Node
// per cellpin and the combinational/constraint edges described by the
// early library's arc topology.
//
// If cellName is absent from either library, a placeholder cell is used
// for that split rather than failing the mutation — the gate becomes a
// blockage with no internal arcs on that split, but its pins still exist
// and can be connected.
//
// Returns the newly created node indices, for the caller to enqueue into
// the frontier pipeline.
func (g *Graph) InsertGate(name, cellName string) ([]arena.Index, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.gates[name]; exists {
		return nil, fmt.Errorf("%w: gate %s", ErrDuplicateName, name)
	}

	earlyCell := g.EarlyLib.Lookup(cellName)
	if earlyCell == nil {
		earlyCell = placeholderCell(cellName)
	}
	lateCell := g.LateLib.Lookup(cellName)
	if lateCell == nil {
		lateCell = placeholderCell(cellName)
	}

	gate := &Gate{Name: name, EarlyCell: earlyCell, LateCell: lateCell, Pins: map[string]string{}}

	var created []arena.Index
	// Sort cellpin names for deterministic creation order (matches the
	// corpus's preference for sort.SliceStable-style determinism, e.g.
	// prim_kruskal.Kruskal's stable edge sort).
	cellpinNames := make([]string, 0, len(earlyCell.Pins))
	for pn := range earlyCell.Pins {
		cellpinNames = append(cellpinNames, pn)
	}
	sort.Strings(cellpinNames)

	for _, pn := range cellpinNames {
		cp := earlyCell.Pins[pn]
		fullName := name + ":" + pn
		idx, err := g.insertPin(fullName, PinCell, cp.Direction, name, pn)
		if err != nil {
			return nil, err
		}
		gate.Pins[pn] = fullName
		created = append(created, idx)
	}

	// Combinational and constraint edges, grounded on the early cell's arc
	// topology (structurally identical to the late cell, per the Gate
	// invariant); table values are looked up independently per split at
	// evaluation time via Edge.Arc[el].
	for _, pn := range cellpinNames {
		outCP := earlyCell.Pins[pn]
		for _, arc := range outCP.Arcs {
			inCP, ok := earlyCell.Pins[arc.RelatedPin]
			if !ok {
				continue
			}
			fromIdx := g.pins[gate.Pins[arc.RelatedPin]].Node
			toIdx := g.pins[fullNameOf(name, pn)].Node

			lateArc := findArc(lateCell, pn, arc.RelatedPin, arc.Type)
			edge := Edge{
				From:  fromIdx,
				To:    toIdx,
				Sense: arc.Sense,
				Arc:   [2]*celllib.TimingArc{arc, lateArc},
			}
			switch arc.Type {
			case celllib.ArcCombinational:
				edge.Kind = EdgeCell
			case celllib.ArcSetup, celllib.ArcHold:
				edge.Kind = EdgeConstraint
			}
			edgeIdx := g.Edges.Insert(edge)
			g.Nodes.At(fromIdx).FanoutEdges = append(g.Nodes.At(fromIdx).FanoutEdges, edgeIdx)
			g.Nodes.At(toIdx).FaninEdges = append(g.Nodes.At(toIdx).FaninEdges, edgeIdx)

			if edge.Kind == EdgeConstraint && inCP.IsClock {
				// Level bump: the D pin must sit strictly above its clock
				// pin so level(u) < level(v) holds even across constraint
				// edges that happen to run level-decreasing in a naive
				// topological sense (the levelizer's own invariant only
				// covers non-constraint edges, but keeping levels monotone
				// here too keeps its single relaxation rule simple).
				bumpLevel(g.Nodes.At(toIdx), g.Nodes.At(fromIdx).Level+1)
			}
		}
	}

	g.gates[name] = gate
	return created, nil
}

func fullNameOf(gate, cellpin string) string { return gate + ":" + cellpin }

func findArc(cell *celllib.Cell, outPin, relatedPin string, t celllib.ArcType) *celllib.TimingArc {
	cp, ok := cell.Pins[outPin]
	if !ok {
		return nil
	}
	for _, a := range cp.Arcs {
		if a.RelatedPin == relatedPin && a.Type == t {
			return a
		}
	}
	return nil
}

func bumpLevel(n *Node, newLevel int) {
	if newLevel > n.Level {
		n.Level = newLevel
	}
}

// RemoveGate deletes gate and all its pins/edges. Per the gate
// must be fully disconnected first (no member pin still in a net).
func (g *Graph) RemoveGate(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gate := g.gates[name]
	if gate == nil {
		return fmt.Errorf("%w: gate %s", ErrMissingGate, name)
	}
	for _, pinName := range gate.Pins {
		if p := g.pins[pinName]; p != nil && p.Net != "" {
			return fmt.Errorf("%w: gate %s still connected via pin %s", ErrInvalidMutation, name, pinName)
		}
	}

	for _, pinName := range gate.Pins {
		p := g.pins[pinName]
		node := g.Nodes.At(p.Node)
		for _, eIdx := range append(append([]arena.Index{}, node.FaninEdges...), node.FanoutEdges...) {
			g.removeEdgeAndJumps(eIdx)
		}
		g.Nodes.Remove(p.Node)
		delete(g.pins, pinName)
	}
	delete(g.gates, name)
	return nil
}

// removeEdgeAndJumps deletes edge idx (if still present) and every jump
// incident to either endpoint: creating or destroying any edge
// invalidates jumps that crossed through it.
func (g *Graph) removeEdgeAndJumps(idx arena.Index) {
	e := g.Edges.At(idx)
	if e == nil {
		return
	}
	from, to := e.From, e.To
	g.Edges.Remove(idx)

	if fn := g.Nodes.At(from); fn != nil {
		fn.FanoutEdges = removeIndex(fn.FanoutEdges, idx)
		g.invalidateJumps(from)
	}
	if tn := g.Nodes.At(to); tn != nil {
		tn.FaninEdges = removeIndex(tn.FaninEdges, idx)
		g.invalidateJumps(to)
	}
}

func (g *Graph) invalidateJumps(nodeIdx arena.Index) {
	n := g.Nodes.At(nodeIdx)
	if n == nil {
		return
	}
	for _, jIdx := range append(append([]arena.Index{}, n.JumpIn...), n.JumpOut...) {
		if j := g.Jumps.At(jIdx); j != nil {
			if from := g.Nodes.At(j.From); from != nil {
				from.JumpOut = removeIndex(from.JumpOut, jIdx)
			}
			if to := g.Nodes.At(j.To); to != nil {
				to.JumpIn = removeIndex(to.JumpIn, jIdx)
			}
			g.Jumps.Remove(jIdx)
		}
	}
	n.JumpIn = nil
	n.JumpOut = nil
}

func removeIndex(s []arena.Index, target arena.Index) []arena.Index {
	out := s[:0]
	for _, v := range s {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// RepowerGate swaps gate's library cell in place for newCell, on both
// splits, keeping the same pins and edges (the Gate invariant guarantees
// identical topology): only the LUT tables an edge's Arc[el] points at
// change. Returns the gate's node indices, for the caller to enqueue into
// the frontier (every arc's delay/slew may now differ).
func (g *Graph) RepowerGate(name, newCell string) ([]arena.Index, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	gate := g.gates[name]
	if gate == nil {
		return nil, fmt.Errorf("%w: gate %s", ErrMissingGate, name)
	}

	earlyCell := g.EarlyLib.Lookup(newCell)
	if earlyCell == nil {
		earlyCell = placeholderCell(newCell)
	}
	lateCell := g.LateLib.Lookup(newCell)
	if lateCell == nil {
		lateCell = placeholderCell(newCell)
	}
	gate.EarlyCell = earlyCell
	gate.LateCell = lateCell

	var affected []arena.Index
	for cellpin, pinName := range gate.Pins {
		p := g.pins[pinName]
		affected = append(affected, p.Node)
		node := g.Nodes.At(p.Node)
		for _, eIdx := range node.FaninEdges {
			e := g.Edges.At(eIdx)
			if e == nil || e.Kind == EdgeRC {
				continue
			}
			fromPin := g.pins[nodeOwnerPin(g, e.From)]
			e.Arc[0] = findArc(earlyCell, cellpin, fromPin.CellPin, arcTypeOf(e))
			e.Arc[1] = findArc(lateCell, cellpin, fromPin.CellPin, arcTypeOf(e))
		}
	}
	return affected, nil
}

func arcTypeOf(e *Edge) celllib.ArcType {
	if e.Kind == EdgeConstraint {
		if e.Arc[0] != nil {
			return e.Arc[0].Type
		}
		return celllib.ArcSetup
	}
	return celllib.ArcCombinational
}

func nodeOwnerPin(g *Graph, nodeIdx arena.Index) string {
	n := g.Nodes.At(nodeIdx)
	if n == nil {
		return ""
	}
	return n.Pin
}
