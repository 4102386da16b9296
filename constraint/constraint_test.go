package constraint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/constraint"
	"github.com/tauphase/statiming/lut"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/tgraph"
)

func dffLib() *celllib.Library {
	lib := celllib.NewLibrary("test")
	scalar := lut.Table{Index1: []float64{0}, Index2: []float64{0}, Values: []float64{0.1}}
	lib.Cells["DFF"] = &celllib.Cell{
		Name: "DFF",
		Pins: map[string]*celllib.CellPin{
			"CK": {Name: "CK", Direction: celllib.DirInput, IsClock: true},
			"D": {Name: "D", Direction: celllib.DirInput, Arcs: []*celllib.TimingArc{
				{RelatedPin: "CK", Sense: celllib.PositiveUnate, Type: celllib.ArcSetup, RiseConstraint: scalar, FallConstraint: scalar},
				{RelatedPin: "CK", Sense: celllib.PositiveUnate, Type: celllib.ArcHold, RiseConstraint: scalar, FallConstraint: scalar},
			}},
			"Q": {Name: "Q", Direction: celllib.DirOutput},
		},
	}
	return lib
}

func TestRecompute_SequentialSetupAndHold(t *testing.T) {
	lib := dffLib()
	g := tgraph.New(lib, lib)
	require.NoError(t, g.InsertPrimaryInput("CLK"))
	require.NoError(t, g.SetClockPin("CLK"))
	_, err := g.InsertGate("ff1", "DFF")
	require.NoError(t, err)

	require.NoError(t, g.InsertNet("clknet"))
	require.NoError(t, g.ConnectPin("CLK", "clknet"))
	require.NoError(t, g.ConnectPin("ff1:CK", "clknet"))

	ckNode := g.Nodes.At(g.Pin("ff1:CK").Node)
	ckNode.AT.Set(split.Late, split.Rise, 10.0)
	ckNode.AT.Set(split.Early, split.Rise, 10.0)
	ckNode.Slew.Set(split.Late, split.Rise, 0.05)
	ckNode.Slew.Set(split.Early, split.Rise, 0.05)

	dNode := g.Nodes.At(g.Pin("ff1:D").Node)
	dNode.AT.Set(split.Late, split.Rise, 9.5)
	dNode.AT.Set(split.Early, split.Rise, 10.2)
	dNode.Slew.Set(split.Late, split.Rise, 0.05)
	dNode.Slew.Set(split.Early, split.Rise, 0.05)

	tests := constraint.Discover(g)
	test, ok := tests["ff1:D"]
	require.True(t, ok)
	require.NoError(t, test.Recompute(g))

	setup := test.Endpoints.Get(split.Late, split.Rise)
	require.True(t, setup.Computed)
	require.InDelta(t, 10.0+0.1-9.5, setup.Slack, 1e-9)

	hold := test.Endpoints.Get(split.Early, split.Rise)
	require.True(t, hold.Computed)
	require.InDelta(t, 10.2-10.0-0.1, hold.Slack, 1e-9)
}

func TestRecompute_PrimaryOutputRAT(t *testing.T) {
	lib := celllib.NewLibrary("test")
	g := tgraph.New(lib, lib)
	require.NoError(t, g.InsertPrimaryOutput("OUT"))

	node := g.Nodes.At(g.Pin("OUT").Node)
	node.AssertedRAT.Set(split.Late, split.Rise, 12.0)
	node.AT.Set(split.Late, split.Rise, 9.0)
	node.AssertedRAT.Set(split.Early, split.Rise, 1.0)
	node.AT.Set(split.Early, split.Rise, 1.5)

	tests := constraint.Discover(g)
	test, ok := tests["OUT"]
	require.True(t, ok)
	require.Equal(t, constraint.PrimaryOutputRAT, test.Kind)
	require.NoError(t, test.Recompute(g))

	late := test.Endpoints.Get(split.Late, split.Rise)
	require.InDelta(t, 3.0, late.Slack, 1e-9)

	early := test.Endpoints.Get(split.Early, split.Rise)
	require.InDelta(t, 0.5, early.Slack, 1e-9)
}

func TestEndpointKey_Distinct(t *testing.T) {
	a := constraint.EndpointKey("ff1:D", split.Late, split.Rise)
	b := constraint.EndpointKey("ff1:D", split.Early, split.Fall)
	require.NotEqual(t, a, b)
}
