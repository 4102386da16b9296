package propagate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/constraint"
	"github.com/tauphase/statiming/lut"
	"github.com/tauphase/statiming/propagate"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/tgraph"
)

func quad(v float64) split.Quad[float64] {
	var q split.Quad[float64]
	split.ForEach(func(el split.Split, rf split.Trans) { q.Set(el, rf, v) })
	return q
}

func quadTrue() split.Quad[bool] {
	var q split.Quad[bool]
	split.ForEach(func(el split.Split, rf split.Trans) { q.Set(el, rf, true) })
	return q
}

func bufLib(delay, slew float64) *celllib.Library {
	lib := celllib.NewLibrary("test")
	delayTable := lut.Table{Index1: []float64{0}, Index2: []float64{0}, Values: []float64{delay}}
	slewTable := lut.Table{Index1: []float64{0}, Index2: []float64{0}, Values: []float64{slew}}
	lib.Cells["BUF"] = &celllib.Cell{
		Name: "BUF",
		Pins: map[string]*celllib.CellPin{
			"A": {Name: "A", Direction: celllib.DirInput, Capacitance: 1.0},
			"Y": {Name: "Y", Direction: celllib.DirOutput, Arcs: []*celllib.TimingArc{
				{
					RelatedPin: "A", Sense: celllib.PositiveUnate, Type: celllib.ArcCombinational,
					CellRise: delayTable, CellFall: delayTable,
					RiseTransition: slewTable, FallTransition: slewTable,
				},
			}},
		},
	}
	return lib
}

// loadRC wires a two-node RC tree (root -> leaf) with a single resistor
// segment and a fixed leaf capacitance, so its Elmore delay is exactly
// resistance*cap regardless of which split/transition is queried.
func loadRC(t *testing.T, g *tgraph.Graph, net, rootPin, leafPin string, resistance, leafCap float64) {
	t.Helper()
	_, err := g.LoadParasitics(net, tgraph.RCDescription{
		Nodes: []tgraph.RCNodeDesc{
			{Name: "root", Pin: rootPin},
			{Name: "leaf", Pin: leafPin, Cap: quad(leafCap)},
		},
		Segments: []tgraph.RCSegmentDesc{{A: "root", B: "leaf", Resistance: resistance}},
	})
	require.NoError(t, err)
}

func TestUpdateTiming_CombinationalChainAndPrimaryOutputSlack(t *testing.T) {
	lib := bufLib(2.0, 0.3)
	g := tgraph.New(lib, lib)
	require.NoError(t, g.InsertPrimaryInput("D0"))
	_, err := g.InsertGate("buf1", "BUF")
	require.NoError(t, err)
	require.NoError(t, g.InsertPrimaryOutput("OUT"))

	require.NoError(t, g.InsertNet("n0"))
	require.NoError(t, g.ConnectPin("D0", "n0"))
	require.NoError(t, g.ConnectPin("buf1:A", "n0"))
	loadRC(t, g, "n0", "D0", "buf1:A", 1.0, 0.2)

	require.NoError(t, g.InsertNet("n1"))
	require.NoError(t, g.ConnectPin("buf1:Y", "n1"))
	require.NoError(t, g.ConnectPin("OUT", "n1"))
	loadRC(t, g, "n1", "buf1:Y", "OUT", 1.0, 0.1)

	d0 := g.Nodes.At(g.Pin("D0").Node)
	d0.AssertedAT = quad(0.0)
	d0.AssertedATSet = quadTrue()
	d0.AssertedSlew = quad(0.1)
	d0.AssertedSlewSet = quadTrue()

	out := g.Nodes.At(g.Pin("OUT").Node)
	out.AssertedRAT = quad(5.0)
	out.AssertedRATSet = quadTrue()

	eng := propagate.New(g)
	require.NoError(t, eng.UpdateTiming(false))

	// 0.2 (RC n0) + 2.0 (cell) + 0.1 (RC n1) = 2.3, for every split/rf
	// since every asserted/table value was replicated across the quad.
	gotAT := out.AT.Get(split.Late, split.Rise)
	require.InDelta(t, 2.3, gotAT, 1e-9)
	require.InDelta(t, 2.3, out.AT.Get(split.Early, split.Fall), 1e-9)

	tests := eng.Tests()
	test, ok := tests["OUT"]
	require.True(t, ok)
	require.Equal(t, constraint.PrimaryOutputRAT, test.Kind)

	lateSlack := test.Endpoints.Get(split.Late, split.Rise)
	require.True(t, lateSlack.Computed)
	require.InDelta(t, 5.0-2.3, lateSlack.Slack, 1e-9)

	key := constraint.EndpointKey("OUT", split.Late, split.Rise)
	slack, ok := eng.Heap().Slack(key)
	require.True(t, ok)
	require.InDelta(t, 5.0-2.3, slack, 1e-9)

	// RAT propagates backward through the chain: OUT's asserted RAT minus
	// the two RC hops and the cell delay lands at D0.
	require.InDelta(t, 5.0-0.1-2.0-0.2, d0.RAT.Get(split.Late, split.Rise), 1e-9)
}

func TestUpdateTiming_WNSReflectsWorstNegativeSlack(t *testing.T) {
	lib := bufLib(1.0, 0.2)
	g := tgraph.New(lib, lib)
	require.NoError(t, g.InsertPrimaryInput("D0"))
	require.NoError(t, g.InsertPrimaryOutput("OUT"))
	require.NoError(t, g.InsertNet("n0"))
	require.NoError(t, g.ConnectPin("D0", "n0"))
	require.NoError(t, g.ConnectPin("OUT", "n0"))
	loadRC(t, g, "n0", "D0", "OUT", 1.0, 1.0)

	d0 := g.Nodes.At(g.Pin("D0").Node)
	d0.AssertedAT = quad(0.0)
	d0.AssertedATSet = quadTrue()

	out := g.Nodes.At(g.Pin("OUT").Node)
	out.AssertedRAT = quad(0.5) // RAT(0.5) < AT(1.0): negative slack
	out.AssertedRATSet = quadTrue()

	eng := propagate.New(g)
	require.NoError(t, eng.UpdateTiming(false))

	require.InDelta(t, -0.5, eng.WNS(split.Late, split.Rise), 1e-9)
	require.InDelta(t, -0.5, eng.TNS(split.Late, split.Rise), 1e-9)
}

func TestEnqueueClosure_ReachesForwardNeighbors(t *testing.T) {
	lib := bufLib(1.0, 0.1)
	g := tgraph.New(lib, lib)
	require.NoError(t, g.InsertPrimaryInput("D0"))
	_, err := g.InsertGate("buf1", "BUF")
	require.NoError(t, err)
	require.NoError(t, g.InsertNet("n0"))
	require.NoError(t, g.ConnectPin("D0", "n0"))
	require.NoError(t, g.ConnectPin("buf1:A", "n0"))
	loadRC(t, g, "n0", "D0", "buf1:A", 1.0, 0.1)

	eng := propagate.New(g)
	eng.EnqueueClosure(g.Pin("D0").Node)
	require.NoError(t, eng.UpdateTiming(true))
}
