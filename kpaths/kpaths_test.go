package kpaths_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/kpaths"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/tgraph"
)

func and2Lib() *celllib.Library {
	lib := celllib.NewLibrary("test")
	lib.Cells["AND2"] = &celllib.Cell{
		Name: "AND2",
		Pins: map[string]*celllib.CellPin{
			"A": {Name: "A", Direction: celllib.DirInput},
			"B": {Name: "B", Direction: celllib.DirInput},
			"Y": {Name: "Y", Direction: celllib.DirOutput, Arcs: []*celllib.TimingArc{
				{RelatedPin: "A", Sense: celllib.PositiveUnate, Type: celllib.ArcCombinational},
				{RelatedPin: "B", Sense: celllib.PositiveUnate, Type: celllib.ArcCombinational},
			}},
		},
	}
	return lib
}

// buildDiamond sets and1:A and and1:B to distinct ATs and gives the two
// fanin edges into and1:Y distinct delays, so the A-edge is critical
// (late, rise) and the B-edge is a single known deviation.
func buildDiamond(t *testing.T) *tgraph.Graph {
	t.Helper()
	lib := and2Lib()
	g := tgraph.New(lib, lib)
	_, err := g.InsertGate("and1", "AND2")
	require.NoError(t, err)

	aNode := g.Nodes.At(g.Pin("and1:A").Node)
	aNode.AT.Set(split.Late, split.Rise, 10.0)
	bNode := g.Nodes.At(g.Pin("and1:B").Node)
	bNode.AT.Set(split.Late, split.Rise, 6.0)

	yNode := g.Nodes.At(g.Pin("and1:Y").Node)
	for _, eIdx := range yNode.FaninEdges {
		e := g.Edges.At(eIdx)
		if e.From == g.Pin("and1:A").Node {
			e.Delay.Set(split.Late, split.Rise, split.Rise, 1.0) // A path total: 11.0
		} else {
			e.Delay.Set(split.Late, split.Rise, split.Rise, 2.0) // B path total: 8.0
		}
	}
	return g
}

func TestForEndpoint_CriticalPathIsWorst(t *testing.T) {
	g := buildDiamond(t)
	yIdx := g.Pin("and1:Y").Node

	paths := kpaths.ForEndpoint(g, yIdx, split.Late, split.Rise, kpaths.Setup, -0.5, 2)
	require.Len(t, paths, 2)

	require.Equal(t, -0.5, paths[0].Slack)
	require.Len(t, paths[0].Steps, 2)
	require.Equal(t, "and1:A", paths[0].Steps[0].Pin)
	require.Equal(t, "and1:Y", paths[0].Steps[1].Pin)

	// B's path costs 8.0 vs A's 11.0: detour 3.0, so the deviated path's
	// slack is 3.0 better than the critical path's.
	require.InDelta(t, -0.5+3.0, paths[1].Slack, 1e-9)
	require.Equal(t, "and1:B", paths[1].Steps[0].Pin)
}

func TestForEndpoint_KEqualsOneReturnsOnlyCritical(t *testing.T) {
	g := buildDiamond(t)
	yIdx := g.Pin("and1:Y").Node

	paths := kpaths.ForEndpoint(g, yIdx, split.Late, split.Rise, kpaths.Setup, 0.0, 1)
	require.Len(t, paths, 1)
}

func TestForEndpoint_ZeroKReturnsNil(t *testing.T) {
	g := buildDiamond(t)
	yIdx := g.Pin("and1:Y").Node
	require.Nil(t, kpaths.ForEndpoint(g, yIdx, split.Late, split.Rise, kpaths.Setup, 0.0, 0))
}

func TestPathType_String(t *testing.T) {
	require.Equal(t, "setup", kpaths.Setup.String())
	require.Equal(t, "hold", kpaths.Hold.String())
	require.Equal(t, "rat", kpaths.RAT.String())
}
