// Package tgraph implements the timing graph: nodes (one
// per pin), edges (cell arcs, net arcs, constraint arcs), and the jumps
// that shortcut long unbranching chains for CPPR. It also
// owns the levelizer, since the level invariant it
// maintains is inseparable from the graph it is computed over.
package tgraph

import (
	"errors"

	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/split"
)

// Sentinel errors, per error-kind catalogue.
var (
	ErrMissingPin       = errors.New("tgraph: pin not found")
	ErrMissingNet       = errors.New("tgraph: net not found")
	ErrMissingGate      = errors.New("tgraph: gate not found")
	ErrDuplicateName    = errors.New("tgraph: name already in use")
	ErrInvalidMutation  = errors.New("tgraph: mutation would leave the graph inconsistent")
	ErrBadTopology      = errors.New("tgraph: cycle in non-constraint subgraph")
	ErrWrongPinKind     = errors.New("tgraph: assertion applied to a pin of the wrong kind")
)

// PinKind distinguishes the three things a Pin can be.
type PinKind int

const (
	PinCell PinKind = iota
	PinPrimaryInput
	PinPrimaryOutput
)

// EdgeKind distinguishes the three edge semantics tgraph tracks.
type EdgeKind int

const (
	EdgeRC EdgeKind = iota
	EdgeCell
	EdgeConstraint
)

// Pin is the finest electrical endpoint: exactly one of a gate cellpin, a
// primary input port, or a primary output port.
type Pin struct {
	Name      string
	Kind      PinKind
	Direction celllib.Direction
	Node      arena.Index // its tgraph Node
	Gate      string      // owning gate name, "" for primary I/O
	CellPin   string      // cellpin name within the gate, "" for primary I/O
	Net       string      // enclosing net name, "" if unconnected
	RCNode    arena.Index // RC-tree node index within Net's tree, arena.Invalid if none
	Test      arena.Index // always arena.Invalid: constraint keys its tests by pin name, not by index

	// AssertedLoad is the capacitance a primary-output pin presents to its
	// net, the PO analogue of a cellpin's library capacitance, set by
	// set_load(pin, el, rf, value).
	AssertedLoad    split.Quad[float64]
	AssertedLoadSet split.Quad[bool]
}

// Node is a timing-graph vertex: exactly one per Pin.
type Node struct {
	Pin   string // back-reference to the owning Pin's name
	Level int

	AT        split.Quad[float64]
	Slew      split.Quad[float64]
	RAT       split.Quad[float64]
	IsClocked split.Quad[bool]

	FaninEdges  []arena.Index
	FanoutEdges []arena.Index
	JumpIn      []arena.Index
	JumpOut     []arena.Index

	// Asserted* carry the external I/O timing environment set by
	// set_at/set_slew/set_rat: the seed value a source node relaxes from
	// instead of its (nonexistent) fanin, and the seed a sinkless node's
	// RAT is taken from instead of a fanout relaxation. The *Set quads
	// distinguish "asserted zero" from "never asserted".
	AssertedAT      split.Quad[float64]
	AssertedATSet   split.Quad[bool]
	AssertedSlew    split.Quad[float64]
	AssertedSlewSet split.Quad[bool]
	AssertedRAT      split.Quad[float64]
	AssertedRATSet   split.Quad[bool]
}

// Edge is a directed timing-graph edge of one of three kinds.
type Edge struct {
	Kind EdgeKind
	From arena.Index
	To   arena.Index

	// Delay[el][irf][orf] — populated for EdgeRC and EdgeCell; zero and
	// unused for EdgeConstraint, which does not propagate AT.
	Delay split.Cube[float64]
	Sense celllib.TimingSense

	Net string // owning net name, for EdgeRC
	// Arc holds the shared per-split arc definition for EdgeCell/
	// EdgeConstraint edges: Arc[split.Early] and Arc[split.Late] come from
	// the two independent libraries (Gate invariant: same
	// topology, different table values).
	Arc [2]*celllib.TimingArc
}

// Jump is a transitive shortcut recording the accumulated delay from a
// jump tail to a jump head across a unique chain of non-constraint edges
// ().
type Jump struct {
	From  arena.Index // tail
	To    arena.Index // head
	Delay split.Cube[float64]
	// Parity[el][irf] records whether the accumulated chain inverts (odd
	// number of negative-unate hops) the transition at irf under split el.
	Parity [2][2]bool
}

// Net is a multi-pin electrical net with one root (driver) pin and zero or
// more leaf (sink) pins.
type Net struct {
	Name  string
	Root  string
	Leaves []string
	Load  split.Quad[float64]
}

// Gate is a logic cell instance. EarlyCell/LateCell must be
// structurally identical per the Library invariant; Pins maps cellpin name
// to the full pin name ("gate:cellpin") in the owning Graph's pin
// dictionary.
type Gate struct {
	Name      string
	EarlyCell *celllib.Cell
	LateCell  *celllib.Cell
	Pins      map[string]string
}
