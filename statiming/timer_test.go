package statiming_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/lut"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/statiming"
	"github.com/tauphase/statiming/tgraph"
)

func scalarTable(v float64) lut.Table {
	return lut.Table{Index1: []float64{0}, Index2: []float64{0}, Values: []float64{v}}
}

func bufLibrary(name string, delay, slew float64) *celllib.Library {
	lib := celllib.NewLibrary(name)
	dt, st := scalarTable(delay), scalarTable(slew)
	lib.Cells["BUF"] = &celllib.Cell{
		Name: "BUF",
		Pins: map[string]*celllib.CellPin{
			"A": {Name: "A", Direction: celllib.DirInput, Capacitance: 1.0},
			"Y": {Name: "Y", Direction: celllib.DirOutput, Arcs: []*celllib.TimingArc{
				{RelatedPin: "A", Sense: celllib.PositiveUnate, Type: celllib.ArcCombinational,
					CellRise: dt, CellFall: dt, RiseTransition: st, FallTransition: st},
			}},
		},
	}
	return lib
}

func directRC(t *testing.T, timer *statiming.Timer, net, root string, leaves ...string) {
	t.Helper()
	nodes := []tgraph.RCNodeDesc{{Name: "root", Pin: root}}
	var segs []tgraph.RCSegmentDesc
	for i, leaf := range leaves {
		name := "leaf"
		if i > 0 {
			name = "leaf2"
		}
		nodes = append(nodes, tgraph.RCNodeDesc{Name: name, Pin: leaf})
		segs = append(segs, tgraph.RCSegmentDesc{A: "root", B: name, Resistance: 0.1})
	}
	require.NoError(t, timer.LoadParasitics(net, tgraph.RCDescription{Nodes: nodes, Segments: segs}))
}

// buildChain wires PI D0 -> buf1:A -> BUF -> buf1:Y -> OUT, returning the
// timer before UpdateTiming has run.
func buildChain(t *testing.T) *statiming.Timer {
	t.Helper()
	early := bufLibrary("early", 1.0, 0.1)
	late := bufLibrary("late", 1.2, 0.12)
	timer := statiming.New(early, late)

	require.NoError(t, timer.InsertPrimaryInput("D0"))
	require.NoError(t, timer.InsertPrimaryOutput("OUT"))
	require.NoError(t, timer.InsertGate("buf1", "BUF"))
	require.NoError(t, timer.InsertNet("n0"))
	require.NoError(t, timer.InsertNet("n1"))
	require.NoError(t, timer.ConnectPin("D0", "n0"))
	require.NoError(t, timer.ConnectPin("buf1:A", "n0"))
	require.NoError(t, timer.ConnectPin("buf1:Y", "n1"))
	require.NoError(t, timer.ConnectPin("OUT", "n1"))
	directRC(t, timer, "n0", "D0", "buf1:A")
	directRC(t, timer, "n1", "buf1:Y", "OUT")

	split.ForEach(func(el split.Split, rf split.Trans) {
		require.NoError(t, timer.SetAT("D0", el, rf, 0))
		require.NoError(t, timer.SetSlew("D0", el, rf, 0.05))
		require.NoError(t, timer.SetRAT("OUT", el, rf, 10))
	})
	return timer
}

func TestTimer_LazyUpdateOnFirstQuery(t *testing.T) {
	timer := buildChain(t)

	at, err := timer.AT("OUT", split.Late, split.Rise)
	require.NoError(t, err)
	require.Greater(t, at, 0.0)

	slack, err := timer.Slack("OUT", split.Late, split.Rise)
	require.NoError(t, err)
	require.Equal(t, 10-at, slack)
}

func TestTimer_MutateAndRequeryIncremental(t *testing.T) {
	timer := buildChain(t)
	require.NoError(t, timer.UpdateTiming(false))

	before, err := timer.AT("OUT", split.Late, split.Rise)
	require.NoError(t, err)

	require.NoError(t, timer.SetAT("D0", split.Late, split.Rise, 1.0))
	after, err := timer.AT("OUT", split.Late, split.Rise)
	require.NoError(t, err)
	require.InDelta(t, before+1.0, after, 1e-9)
}

func TestTimer_DisconnectReconnectRoundTrip(t *testing.T) {
	timer := buildChain(t)
	require.NoError(t, timer.UpdateTiming(false))

	before, err := timer.Slack("OUT", split.Late, split.Rise)
	require.NoError(t, err)

	require.NoError(t, timer.DisconnectPin("buf1:A"))
	require.NoError(t, timer.ConnectPin("buf1:A", "n0"))
	directRC(t, timer, "n0", "D0", "buf1:A")

	after, err := timer.Slack("OUT", split.Late, split.Rise)
	require.NoError(t, err)
	require.InDelta(t, before, after, 1e-9)
}

func TestTimer_QueryMissingPinReturnsError(t *testing.T) {
	timer := buildChain(t)
	_, err := timer.AT("nonexistent", split.Late, split.Rise)
	require.ErrorIs(t, err, statiming.ErrMissingPin)
}

func TestTimer_WorstEndpointsAndWorstPaths(t *testing.T) {
	timer := buildChain(t)

	eps, err := timer.WorstEndpoints("", 1)
	require.NoError(t, err)
	require.Len(t, eps, 1)
	require.Equal(t, "OUT", eps[0].Pin)

	paths, err := timer.WorstPaths("", 1)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Equal(t, eps[0].Slack, paths[0].Slack)
}

func TestTimer_ReportSummaryIncludesCounts(t *testing.T) {
	timer := buildChain(t)
	summary, err := timer.ReportSummary()
	require.NoError(t, err)
	require.Contains(t, summary, "nodes=")
	require.Contains(t, summary, "tns=")
}

func TestTimer_SetLoadRefreshesNetCapacitance(t *testing.T) {
	timer := buildChain(t)
	require.NoError(t, timer.UpdateTiming(false))

	before, err := timer.Slack("OUT", split.Late, split.Rise)
	require.NoError(t, err)

	split.ForEach(func(el split.Split, rf split.Trans) {
		require.NoError(t, timer.SetLoad("OUT", el, rf, 50))
	})

	after, err := timer.Slack("OUT", split.Late, split.Rise)
	require.NoError(t, err)
	require.Less(t, after, before)
}

func TestTimer_SuppressedEndpointExcludedFromWNS(t *testing.T) {
	timer := buildChain(t)
	split.ForEach(func(el split.Split, rf split.Trans) {
		require.NoError(t, timer.SetRAT("OUT", el, rf, -100))
	})
	require.NoError(t, timer.UpdateTiming(false))

	wns, err := timer.WNS(split.Late, split.Rise)
	require.NoError(t, err)
	require.Less(t, wns, 0.0)

	timer.SetEndpointSuppressed("OUT", true)
	require.NoError(t, timer.UpdateTiming(true))

	wnsAfter, err := timer.WNS(split.Late, split.Rise)
	require.NoError(t, err)
	require.Equal(t, 0.0, wnsAfter)
}
