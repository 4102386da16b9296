package cppr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/cppr"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/tgraph"
)

func bufLib() *celllib.Library {
	lib := celllib.NewLibrary("test")
	lib.Cells["BUF"] = &celllib.Cell{
		Name: "BUF",
		Pins: map[string]*celllib.CellPin{
			"A": {Name: "A", Direction: celllib.DirInput},
			"Y": {Name: "Y", Direction: celllib.DirOutput, Arcs: []*celllib.TimingArc{
				{RelatedPin: "A", Sense: celllib.PositiveUnate, Type: celllib.ArcCombinational},
			}},
		},
	}
	return lib
}

// buildSharedPrefix wires CLK -> buf_root:Y -> (buf_a:A/Y and buf_b:A/Y),
// so buf_a:Y and buf_b:Y share the CLK -> buf_root:Y prefix before
// diverging.
func buildSharedPrefix(t *testing.T) (*tgraph.Graph, string, string, float64) {
	t.Helper()
	lib := bufLib()
	g := tgraph.New(lib, lib)
	require.NoError(t, g.InsertPrimaryInput("CLK"))
	require.NoError(t, g.SetClockPin("CLK"))

	for _, name := range []string{"root", "a", "b"} {
		_, err := g.InsertGate(name, "BUF")
		require.NoError(t, err)
	}
	require.NoError(t, g.InsertNet("n0"))
	require.NoError(t, g.ConnectPin("CLK", "n0"))
	require.NoError(t, g.ConnectPin("root:A", "n0"))
	_, err := g.LoadParasitics("n0", tgraph.RCDescription{
		Nodes: []tgraph.RCNodeDesc{
			{Name: "CLK", Pin: "CLK"},
			{Name: "rootA", Pin: "root:A"},
		},
		Segments: []tgraph.RCSegmentDesc{{A: "CLK", B: "rootA", Resistance: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, g.InsertNet("n1"))
	require.NoError(t, g.ConnectPin("root:Y", "n1"))
	require.NoError(t, g.ConnectPin("a:A", "n1"))
	require.NoError(t, g.ConnectPin("b:A", "n1"))
	_, err = g.LoadParasitics("n1", tgraph.RCDescription{
		Nodes: []tgraph.RCNodeDesc{
			{Name: "rootY", Pin: "root:Y"},
			{Name: "aA", Pin: "a:A"},
			{Name: "bA", Pin: "b:A"},
		},
		Segments: []tgraph.RCSegmentDesc{
			{A: "rootY", B: "aA", Resistance: 1},
			{A: "rootY", B: "bA", Resistance: 1},
		},
	})
	require.NoError(t, err)

	rootY := g.Nodes.At(g.Pin("root:Y").Node)
	rootY.AT.Set(split.Late, split.Rise, 5.0)
	rootY.AT.Set(split.Early, split.Rise, 4.0)

	return g, "a:Y", "b:Y", 1.0 // late-early delta at the shared ancestor
}

func TestCompute_FindsSharedAncestorCredit(t *testing.T) {
	g, dataPin, clockPin, wantCredit := buildSharedPrefix(t)

	credit := cppr.Compute(g, dataPin, clockPin, split.Rise)
	require.True(t, credit.Found)
	require.InDelta(t, wantCredit, credit.Value, 1e-9)
}

func TestCompute_NoSharedAncestor(t *testing.T) {
	lib := bufLib()
	g := tgraph.New(lib, lib)
	require.NoError(t, g.InsertPrimaryInput("CLK"))
	require.NoError(t, g.InsertPrimaryInput("D"))
	_, err := g.InsertGate("buf1", "BUF")
	require.NoError(t, err)
	require.NoError(t, g.InsertNet("n1"))
	require.NoError(t, g.ConnectPin("D", "n1"))
	require.NoError(t, g.ConnectPin("buf1:A", "n1"))

	credit := cppr.Compute(g, "buf1:Y", "CLK", split.Rise)
	require.False(t, credit.Found)
	require.Zero(t, credit.Value)
}

func TestCompute_CreditNeverNegative(t *testing.T) {
	g, dataPin, clockPin, _ := buildSharedPrefix(t)
	rootY := g.Nodes.At(g.Pin("root:Y").Node)
	rootY.AT.Set(split.Late, split.Rise, 1.0)
	rootY.AT.Set(split.Early, split.Rise, 4.0) // late < early: malformed, but credit still clamps

	credit := cppr.Compute(g, dataPin, clockPin, split.Rise)
	require.True(t, credit.Found)
	require.GreaterOrEqual(t, credit.Value, 0.0)
}
