// Package constraint implements tests and endpoints: the
// setup/hold checks owned by a sequential D pin and the RAT assertion
// owned by a primary output, each scored as a pre-CPPR slack per
// [el][rf].
//
// Grounded on dijkstra's Option pattern for the two constructors'
// shape (NewSequential/NewPrimaryOutput as small focused builders rather
// than one constructor branching on a kind flag) and on core's
// sentinel-error style for malformed constraint lookups.
package constraint

import (
	"errors"
	"fmt"

	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/lut"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/tgraph"
)

// ErrMissingEdge is returned when Recompute is asked to evaluate a test
// whose recorded constraint edge no longer exists in the graph.
var ErrMissingEdge = errors.New("constraint: recorded edge missing from graph")

// Kind distinguishes what a Test checks.
type Kind int

const (
	// Sequential is a setup/hold check on a flip-flop's D pin.
	Sequential Kind = iota
	// PrimaryOutputRAT is a required-arrival-time assertion on a primary
	// output.
	PrimaryOutputRAT
)

// Endpoint is one [el][rf] view of a Test's current slack.
type Endpoint struct {
	Slack float64
	// Computed is false until Recompute has run at least once; an
	// uncomputed endpoint carries no meaningful Slack.
	Computed bool
}

// Test owns four endpoints, one per [el][rf]. For a
// Sequential test, the late column is populated by the setup check and
// the early column by the hold check, pairing both constraints on the
// same D pin in one Test. For a PrimaryOutputRAT test, both columns are
// populated by the same asserted-RAT comparison, late direct and early
// sign-reversed.
type Test struct {
	Kind     Kind
	Pin      string // D pin, or primary-output pin
	ClockPin string // related clock pin; "" for PrimaryOutputRAT

	SetupEdge arena.Index // arena.Invalid if this D pin has no setup arc
	HoldEdge  arena.Index // arena.Invalid if this D pin has no hold arc

	Endpoints  split.Quad[Endpoint]
	Suppressed bool // excluded from TNS/WNS/worst_paths without removing the gate
}

// NewSequential constructs a setup/hold Test for D pin dPin checked
// against clock pin ckPin. Edge indices are filled in separately (via
// Discover, or directly by a caller that already has them).
func NewSequential(dPin, ckPin string) *Test {
	return &Test{
		Kind:      Sequential,
		Pin:       dPin,
		ClockPin:  ckPin,
		SetupEdge: arena.Invalid,
		HoldEdge:  arena.Invalid,
	}
}

// NewPrimaryOutput constructs a RAT-assertion Test for primary output po.
func NewPrimaryOutput(po string) *Test {
	return &Test{
		Kind:      PrimaryOutputRAT,
		Pin:       po,
		SetupEdge: arena.Invalid,
		HoldEdge:  arena.Invalid,
	}
}

// EndpointKey names a (test, el, rf) tuple for use as an epheap identity.
func EndpointKey(pin string, el split.Split, rf split.Trans) string {
	return fmt.Sprintf("%s|%s|%s", pin, el, rf)
}

// Recompute re-derives every endpoint's pre-CPPR slack from g's current
// AT/slew/RAT values.
func (t *Test) Recompute(g *tgraph.Graph) error {
	switch t.Kind {
	case Sequential:
		return t.recomputeSequential(g)
	case PrimaryOutputRAT:
		return t.recomputePrimaryOutput(g)
	default:
		return nil
	}
}

func (t *Test) recomputeSequential(g *tgraph.Graph) error {
	dPin := g.Pin(t.Pin)
	if dPin == nil {
		return fmt.Errorf("%w: D pin %s", tgraph.ErrMissingPin, t.Pin)
	}
	dNode := g.Nodes.At(dPin.Node)

	var ckNode *tgraph.Node
	if t.ClockPin != "" {
		if ckPin := g.Pin(t.ClockPin); ckPin != nil {
			ckNode = g.Nodes.At(ckPin.Node)
		}
	}

	if t.SetupEdge != arena.Invalid {
		edge := g.Edges.At(t.SetupEdge)
		if edge == nil {
			return fmt.Errorf("%w: setup arc on %s", ErrMissingEdge, t.Pin)
		}
		for _, dRf := range split.AllTrans {
			slack := setupSlack(dNode, ckNode, edge, dRf)
			t.Endpoints.Set(split.Late, dRf, Endpoint{Slack: slack, Computed: true})
		}
	}
	if t.HoldEdge != arena.Invalid {
		edge := g.Edges.At(t.HoldEdge)
		if edge == nil {
			return fmt.Errorf("%w: hold arc on %s", ErrMissingEdge, t.Pin)
		}
		for _, dRf := range split.AllTrans {
			slack := holdSlack(dNode, ckNode, edge, dRf)
			t.Endpoints.Set(split.Early, dRf, Endpoint{Slack: slack, Computed: true})
		}
	}
	return nil
}

func (t *Test) recomputePrimaryOutput(g *tgraph.Graph) error {
	pin := g.Pin(t.Pin)
	if pin == nil {
		return fmt.Errorf("%w: primary output %s", tgraph.ErrMissingPin, t.Pin)
	}
	node := g.Nodes.At(pin.Node)
	for _, rf := range split.AllTrans {
		late := node.AssertedRAT.Get(split.Late, rf) - node.AT.Get(split.Late, rf)
		t.Endpoints.Set(split.Late, rf, Endpoint{Slack: late, Computed: true})

		early := node.AT.Get(split.Early, rf) - node.AssertedRAT.Get(split.Early, rf)
		t.Endpoints.Set(split.Early, rf, Endpoint{Slack: early, Computed: true})
	}
	return nil
}

// setupSlack implements setup (late) formula: positive
// means the data arrives early enough relative to the capturing clock
// edge plus the cell's setup requirement.
func setupSlack(dNode, ckNode *tgraph.Node, edge *tgraph.Edge, dRf split.Trans) float64 {
	arc := edge.Arc[split.Late]
	if arc == nil || ckNode == nil {
		return 0
	}
	ckRf := relatedTrans(arc, dRf)
	table := arc.RiseConstraint
	if dRf == split.Fall {
		table = arc.FallConstraint
	}
	v, _ := lut.Eval(table, ckNode.Slew.Get(split.Late, ckRf), dNode.Slew.Get(split.Late, dRf))
	return ckNode.AT.Get(split.Late, ckRf) + v - dNode.AT.Get(split.Late, dRf)
}

// holdSlack implements hold (early) formula: early/late
// swapped and the sign reversed relative to setupSlack.
func holdSlack(dNode, ckNode *tgraph.Node, edge *tgraph.Edge, dRf split.Trans) float64 {
	arc := edge.Arc[split.Early]
	if arc == nil || ckNode == nil {
		return 0
	}
	ckRf := relatedTrans(arc, dRf)
	table := arc.RiseConstraint
	if dRf == split.Fall {
		table = arc.FallConstraint
	}
	v, _ := lut.Eval(table, ckNode.Slew.Get(split.Early, ckRf), dNode.Slew.Get(split.Early, dRf))
	return dNode.AT.Get(split.Early, dRf) - ckNode.AT.Get(split.Early, ckRf) - v
}

// relatedTrans picks the clock-pin transition arc allows alongside dRf,
// defaulting to dRf itself if the arc's sense does not single one out
// (NonUnate, or a malformed arc matching neither).
func relatedTrans(arc *celllib.TimingArc, dRf split.Trans) split.Trans {
	if arc.Sense == celllib.NonUnate {
		return dRf
	}
	for _, ckRf := range split.AllTrans {
		if arc.Allows(int(ckRf), int(dRf)) {
			return ckRf
		}
	}
	return dRf
}
