package tgraph

import (
	"fmt"
	"sync"

	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/rctree"
)

// Graph is the induced directed multigraph over timing-graph nodes,
// together with the pin/net/gate dictionaries that own the entities it
// indexes. Mutators acquire mu for writing; queries acquire it for
// reading — mirroring core.Graph's RWMutex-guarded map access, adapted to
// arena-indexed nodes/edges/jumps instead of map-keyed ones.
//
// Mutators are not safe to call concurrently with a propagation pass
// (shared-resource policy): callers serialize mutation against
// Timer.UpdateTiming themselves.
type Graph struct {
	mu sync.RWMutex

	Nodes *arena.Arena[Node]
	Edges *arena.Arena[Edge]
	Jumps *arena.Arena[Jump]

	pins  map[string]*Pin
	nets  map[string]*Net
	gates map[string]*Gate
	rcs   map[string]*rctree.Tree // net name -> RC tree, present only once parasitics are loaded

	EarlyLib *celllib.Library
	LateLib  *celllib.Library

	clockPin string // full pin name of the clock primary input, "" if none
}

// New constructs an empty Graph bound to the two split cell libraries.
func New(early, late *celllib.Library) *Graph {
	return &Graph{
		Nodes: arena.New[Node](),
		Edges: arena.New[Edge](),
		Jumps: arena.New[Jump](),
		pins:  make(map[string]*Pin),
		nets:  make(map[string]*Net),
		gates: make(map[string]*Gate),
		rcs:   make(map[string]*rctree.Tree),

		EarlyLib: early,
		LateLib:  late,
	}
}

// Lock/Unlock/RLock/RUnlock expose the graph's RWMutex to other packages:
// the propagation engine write-locks it around individual steps of
// update_timing (such as jump induction), not across a whole pass, and
// clocktree read-locks it in Build and write-locks it in Apply.
func (g *Graph) Lock()    { g.mu.Lock() }
func (g *Graph) Unlock()  { g.mu.Unlock() }
func (g *Graph) RLock()   { g.mu.RLock() }
func (g *Graph) RUnlock() { g.mu.RUnlock() }

// Pin returns the named pin, or nil if absent.
func (g *Graph) Pin(name string) *Pin { return g.pins[name] }

// Net returns the named net, or nil if absent.
func (g *Graph) Net(name string) *Net { return g.nets[name] }

// Gate returns the named gate, or nil if absent.
func (g *Graph) Gate(name string) *Gate { return g.gates[name] }

// RCTree returns the named net's RC tree, or nil if parasitics have not
// been loaded for it.
func (g *Graph) RCTree(net string) *rctree.Tree { return g.rcs[net] }

// SetClockPin designates name as the clock primary input, used by
// clocktree's BFS. name must already exist as a
// PinPrimaryInput.
func (g *Graph) SetClockPin(name string) error {
	p := g.pins[name]
	if p == nil {
		return fmt.Errorf("%w: %s", ErrMissingPin, name)
	}
	if p.Kind != PinPrimaryInput {
		return fmt.Errorf("%w: %s is not a primary input", ErrWrongPinKind, name)
	}
	g.clockPin = name
	return nil
}

// ClockPin returns the designated clock primary input's name, or "" if
// none has been set.
func (g *Graph) ClockPin() string { return g.clockPin }

// AllNodeIndices returns every live node index. Used by full
// relevelization and by update_timing(false)'s total reset.
func (g *Graph) AllNodeIndices() []arena.Index {
	out := make([]arena.Index, 0, g.Nodes.Len())
	g.Nodes.ForEach(func(idx arena.Index, _ *Node) { out = append(out, idx) })
	return out
}

// insertPin creates a Pin + Node pair and returns the node index.
func (g *Graph) insertPin(name string, kind PinKind, dir celllib.Direction, gate, cellpin string) (arena.Index, error) {
	if _, exists := g.pins[name]; exists {
		return arena.Invalid, fmt.Errorf("%w: pin %s", ErrDuplicateName, name)
	}
	nodeIdx := g.Nodes.Insert(Node{Pin: name})
	g.pins[name] = &Pin{
		Name:      name,
		Kind:      kind,
		Direction: dir,
		Node:      nodeIdx,
		Gate:      gate,
		CellPin:   cellpin,
		RCNode:    arena.Invalid,
		Test:      arena.Invalid,
	}
	return nodeIdx, nil
}

// InsertPrimaryInput adds a primary input port. Its direction is modeled
// as celllib.DirOutput since a primary input drives the nets below it.
func (g *Graph) InsertPrimaryInput(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := g.insertPin(name, PinPrimaryInput, celllib.DirOutput, "", "")
	return err
}

// InsertPrimaryOutput adds a primary output port. Its direction is modeled
// as celllib.DirInput since a primary output is driven by the nets above it.
func (g *Graph) InsertPrimaryOutput(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := g.insertPin(name, PinPrimaryOutput, celllib.DirInput, "", "")
	return err
}

// InsertNet adds an empty net.
func (g *Graph) InsertNet(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nets[name]; exists {
		return fmt.Errorf("%w: net %s", ErrDuplicateName, name)
	}
	g.nets[name] = &Net{Name: name}
	return nil
}

// RemoveNet deletes an empty net. Per lifecycle rule,
// removing a net requires that all its pins already be disconnected.
func (g *Graph) RemoveNet(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.nets[name]
	if n == nil {
		return fmt.Errorf("%w: net %s", ErrMissingNet, name)
	}
	if n.Root != "" || len(n.Leaves) != 0 {
		return fmt.Errorf("%w: net %s still has connected pins", ErrInvalidMutation, name)
	}
	delete(g.rcs, name)
	delete(g.nets, name)
	return nil
}
