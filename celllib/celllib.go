// Package celllib holds the structured cell-characterization description
// the engine consumes — the parsed-but-not-parsing-owned output of a
// Liberty reader. Two independent Library values (one "early", one
// "late") are built by the caller and handed to the engine; celllib
// itself never touches a .lib file.
package celllib

import "github.com/tauphase/statiming/lut"

// Direction is a cellpin's signal direction.
type Direction int

const (
	DirInput Direction = iota
	DirOutput
)

// TimingSense is the unateness of a combinational or constraint arc,
// controlling which (input transition, output transition) pairs the arc
// is allowed to produce.
type TimingSense int

const (
	// PositiveUnate arcs propagate rise->rise and fall->fall only.
	PositiveUnate TimingSense = iota
	// NegativeUnate arcs propagate rise->fall and fall->rise only.
	NegativeUnate
	// NonUnate arcs propagate every (input, output) transition pair.
	NonUnate
)

// ArcType distinguishes a combinational delay arc from a sequential
// setup/hold constraint arc.
type ArcType int

const (
	ArcCombinational ArcType = iota
	ArcSetup
	ArcHold
)

// TimingArc is one cellpin timing group: six LUT tables keyed on the
// arc's related pin. CellRise/CellFall/RiseTransition/FallTransition
// apply to combinational arcs; RiseConstraint/FallConstraint apply to
// setup/hold arcs.
type TimingArc struct {
	RelatedPin string
	Sense      TimingSense
	Type       ArcType

	CellRise  lut.Table
	CellFall  lut.Table
	RiseTransition lut.Table
	FallTransition lut.Table

	RiseConstraint lut.Table
	FallConstraint lut.Table
}

// Allows reports whether the arc propagates from input transition irf to
// output transition orf under its timing sense.
func (a *TimingArc) Allows(irf, orf int) bool {
	// 0 == rise, 1 == fall by the split package's own Trans encoding; celllib
	// stays agnostic of split.Trans to avoid importing it purely for this.
	switch a.Sense {
	case PositiveUnate:
		return irf == orf
	case NegativeUnate:
		return irf != orf
	default:
		return true
	}
}

// CellPin is one pin of a Cell: its direction, loading/transition limits,
// and the timing arcs for which it is the arc's output (or, for a
// sequential D pin, the constrained) pin.
type CellPin struct {
	Name           string
	Direction      Direction
	Capacitance    float64
	MaxCapacitance float64
	MinCapacitance float64
	MaxTransition  float64
	MinTransition  float64
	IsClock        bool
	// NextStateType records the liberty next_state_type function string
	// (e.g. "D", "clocked_on"); the engine does not evaluate it (no logic
	// simulation is performed) but carries it for callers that inspect cell
	// function metadata.
	NextStateType string
	Arcs          []*TimingArc
}

// Cell is one library cell: a named, fixed set of pins and their arcs.
type Cell struct {
	Name    string
	Area    float64
	Leakage float64
	Pins    map[string]*CellPin
}

// Library is a set of Cells for one split (early or late). The early and
// late Library for a design must be structurally identical — same cell
// names, same pin names, same arc topology — per Gate
// invariant; only table values differ.
type Library struct {
	Name  string
	Cells map[string]*Cell
}

// NewLibrary constructs an empty, named Library.
func NewLibrary(name string) *Library {
	return &Library{Name: name, Cells: make(map[string]*Cell)}
}

// Lookup returns the named cell, or nil if absent. Absence is not an error
// here: gate insertion against a missing cell is handled by tgraph's
// MissingCell placeholder policy.
func (l *Library) Lookup(name string) *Cell {
	return l.Cells[name]
}
