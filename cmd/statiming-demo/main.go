// Command statiming-demo wires two sample circuits (c17, a hand-built
// rendition of the ISCAS c17 benchmark, and simple, a small sequential
// chain) through statiming's programmatic API in place of an interactive
// shell, exercising the mutator and query surface end to end.
package main

import (
	"fmt"
	"os"

	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/lut"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/statiming"
	"github.com/tauphase/statiming/tgraph"
)

func main() {
	fmt.Println("=== c17 ===")
	if err := runC17(); err != nil {
		fmt.Fprintln(os.Stderr, "c17:", err)
		os.Exit(1)
	}

	fmt.Println("=== simple ===")
	if err := runSimple(); err != nil {
		fmt.Fprintln(os.Stderr, "simple:", err)
		os.Exit(1)
	}
}

func scalarTable(v float64) lut.Table {
	return lut.Table{Index1: []float64{0}, Index2: []float64{0}, Values: []float64{v}}
}

// nand2Lib builds a two-input NAND library: NonUnate (a NAND's output sense
// depends on the other input's value, so neither rise nor fall at the
// output is tied to one input transition), scalar delay/slew tables.
func nand2Lib(name string, delay, slew float64) *celllib.Library {
	lib := celllib.NewLibrary(name)
	dt, st := scalarTable(delay), scalarTable(slew)
	lib.Cells["NAND2"] = &celllib.Cell{
		Name: "NAND2",
		Pins: map[string]*celllib.CellPin{
			"A": {Name: "A", Direction: celllib.DirInput, Capacitance: 1.0},
			"B": {Name: "B", Direction: celllib.DirInput, Capacitance: 1.0},
			"Z": {Name: "Z", Direction: celllib.DirOutput, Arcs: []*celllib.TimingArc{
				{RelatedPin: "A", Sense: celllib.NonUnate, Type: celllib.ArcCombinational,
					CellRise: dt, CellFall: dt, RiseTransition: st, FallTransition: st},
				{RelatedPin: "B", Sense: celllib.NonUnate, Type: celllib.ArcCombinational,
					CellRise: dt, CellFall: dt, RiseTransition: st, FallTransition: st},
			}},
		},
	}
	return lib
}

// directRC loads a zero-resistance, zero-capacitance RC tree between root
// and each leaf: a stand-in for the pack's pin-to-pin nets where no .spef
// parasitics file is available ('s struct-shape note for // inputs, used here in place of an actual file).
func directRC(t *statiming.Timer, net, root string, leaves ...string) error {
	nodes := []tgraph.RCNodeDesc{{Name: "root", Pin: root}}
	var segs []tgraph.RCSegmentDesc
	for i, leaf := range leaves {
		name := fmt.Sprintf("leaf%d", i)
		nodes = append(nodes, tgraph.RCNodeDesc{Name: name, Pin: leaf})
		segs = append(segs, tgraph.RCSegmentDesc{A: "root", B: name, Resistance: 0})
	}
	return t.LoadParasitics(net, tgraph.RCDescription{Nodes: nodes, Segments: segs})
}

// runC17 builds the classic ISCAS c17 topology by hand (5 primary inputs,
// 2 primary outputs, 6 two-input NAND gates) since netlist parsing is
// out of scope.
func runC17() error {
	early := nand2Lib("c17_early", 0.5, 0.1)
	late := nand2Lib("c17_late", 0.6, 0.12)
	timer := statiming.New(early, late)

	for _, pi := range []string{"n1", "n2", "n3", "n6", "n7"} {
		if err := timer.InsertPrimaryInput(pi); err != nil {
			return err
		}
	}
	for _, po := range []string{"n22", "n23"} {
		if err := timer.InsertPrimaryOutput(po); err != nil {
			return err
		}
	}

	gates := []struct{ name, a, b, out string }{
		{"g10", "n1", "n3", "n10"},
		{"g11", "n3", "n6", "n11"},
		{"g16", "n2", "n11", "n16"},
		{"g19", "n11", "n7", "n19"},
		{"g22", "n10", "n16", "n22"},
		{"g23", "n16", "n19", "n23"},
	}
	for _, g := range gates {
		if err := timer.InsertGate(g.name, "NAND2"); err != nil {
			return err
		}
	}
	for _, net := range []string{"n1", "n2", "n3", "n6", "n7", "n10", "n11", "n16", "n19", "n22", "n23"} {
		if err := timer.InsertNet(net); err != nil {
			return err
		}
	}

	connections := []struct{ pin, net string }{
		{"n1", "n1"}, {"n2", "n2"}, {"n3", "n3"}, {"n6", "n6"}, {"n7", "n7"},
		{"g10:A", "n1"}, {"g10:B", "n3"}, {"g10:Z", "n10"},
		{"g11:A", "n3"}, {"g11:B", "n6"}, {"g11:Z", "n11"},
		{"g16:A", "n2"}, {"g16:B", "n11"}, {"g16:Z", "n16"},
		{"g19:A", "n11"}, {"g19:B", "n7"}, {"g19:Z", "n19"},
		{"g22:A", "n10"}, {"g22:B", "n16"}, {"g22:Z", "n22"},
		{"g23:A", "n16"}, {"g23:B", "n19"}, {"g23:Z", "n23"},
		{"n22", "n22"}, {"n23", "n23"},
	}
	for _, c := range connections {
		if err := timer.ConnectPin(c.pin, c.net); err != nil {
			return err
		}
	}
	// Each net has exactly one driver (a PI itself, or a gate output) and
	// one or more sinks; LoadParasitics needs the driver name.
	nets := map[string]string{
		"n1": "n1", "n2": "n2", "n3": "n3", "n6": "n6", "n7": "n7",
		"n10": "g10:Z", "n11": "g11:Z", "n16": "g16:Z", "n19": "g19:Z",
		"n22": "g22:Z", "n23": "g23:Z",
	}
	for net, root := range nets {
		leaves := leavesOf(connections, net, root)
		if err := directRC(timer, net, root, leaves...); err != nil {
			return err
		}
	}

	for _, pi := range []string{"n1", "n2", "n3", "n6", "n7"} {
		split.ForEach(func(el split.Split, rf split.Trans) {
			_ = timer.SetAT(pi, el, rf, 0)
			_ = timer.SetSlew(pi, el, rf, 0.05)
		})
	}
	for _, po := range []string{"n22", "n23"} {
		split.ForEach(func(el split.Split, rf split.Trans) {
			_ = timer.SetRAT(po, el, rf, 10)
		})
	}

	if err := timer.UpdateTiming(false); err != nil {
		return err
	}
	summary, err := timer.ReportSummary()
	if err != nil {
		return err
	}
	fmt.Print(summary)

	slack, err := timer.Slack("n22", split.Late, split.Fall)
	if err != nil {
		return err
	}
	fmt.Printf("slack(n22, late, fall) = %.4f\n", slack)
	return nil
}

func leavesOf(conns []struct{ pin, net string }, net, root string) []string {
	var out []string
	for _, c := range conns {
		if c.net == net && c.pin != root {
			out = append(out, c.pin)
		}
	}
	return out
}

// bufLib builds the two cells (BUF and DFF) runSimple needs.
func bufLib(name string, delay, slew float64) *celllib.Library {
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
	ct := scalarTable(0.1)
	lib.Cells["DFF"] = &celllib.Cell{
		Name: "DFF",
		Pins: map[string]*celllib.CellPin{
			"CK": {Name: "CK", Direction: celllib.DirInput, IsClock: true},
			"D": {Name: "D", Direction: celllib.DirInput, Capacitance: 1.0, Arcs: []*celllib.TimingArc{
				{RelatedPin: "CK", Sense: celllib.PositiveUnate, Type: celllib.ArcSetup, RiseConstraint: ct, FallConstraint: ct},
				{RelatedPin: "CK", Sense: celllib.PositiveUnate, Type: celllib.ArcHold, RiseConstraint: ct, FallConstraint: ct},
			}},
			"Q": {Name: "Q", Direction: celllib.DirOutput, Arcs: []*celllib.TimingArc{
				{RelatedPin: "CK", Sense: celllib.PositiveUnate, Type: celllib.ArcCombinational,
					CellRise: dt, CellFall: dt, RiseTransition: st, FallTransition: st},
			}},
		},
	}
	return lib
}

// runSimple builds a small sequential chain: CLK/D0 -> DFF -> BUF -> OUT,
// exercising the setup/hold test path and CPPR end to end.
func runSimple() error {
	early := bufLib("simple_early", 1.0, 0.2)
	late := bufLib("simple_late", 1.2, 0.24)
	timer := statiming.New(early, late, statiming.WithCutoffSlack(1000))

	for _, pi := range []string{"CLK", "D0"} {
		if err := timer.InsertPrimaryInput(pi); err != nil {
			return err
		}
	}
	if err := timer.InsertPrimaryOutput("OUT"); err != nil {
		return err
	}
	if err := timer.InsertGate("ff1", "DFF"); err != nil {
		return err
	}
	if err := timer.InsertGate("buf1", "BUF"); err != nil {
		return err
	}
	if err := timer.Graph().SetClockPin("CLK"); err != nil {
		return err
	}

	for _, n := range []string{"nck", "nd", "nq", "nout"} {
		if err := timer.InsertNet(n); err != nil {
			return err
		}
	}
	conns := [][2]string{
		{"CLK", "nck"}, {"ff1:CK", "nck"},
		{"D0", "nd"}, {"ff1:D", "nd"},
		{"ff1:Q", "nq"}, {"buf1:A", "nq"},
		{"buf1:Y", "nout"}, {"OUT", "nout"},
	}
	for _, c := range conns {
		if err := timer.ConnectPin(c[0], c[1]); err != nil {
			return err
		}
	}
	if err := directRC(timer, "nck", "CLK", "ff1:CK"); err != nil {
		return err
	}
	if err := directRC(timer, "nd", "D0", "ff1:D"); err != nil {
		return err
	}
	if err := directRC(timer, "nq", "ff1:Q", "buf1:A"); err != nil {
		return err
	}
	if err := directRC(timer, "nout", "buf1:Y", "OUT"); err != nil {
		return err
	}

	split.ForEach(func(el split.Split, rf split.Trans) {
		_ = timer.SetAT("CLK", el, rf, 0)
		_ = timer.SetSlew("CLK", el, rf, 0.05)
		_ = timer.SetAT("D0", el, rf, 0)
		_ = timer.SetSlew("D0", el, rf, 0.05)
		_ = timer.SetRAT("OUT", el, rf, 5)
	})

	if err := timer.UpdateTiming(false); err != nil {
		return err
	}
	summary, err := timer.ReportSummary()
	if err != nil {
		return err
	}
	fmt.Print(summary)

	paths, err := timer.WorstPaths("", 2)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Printf("path type=%s split=%s slack=%.4f steps=%d\n", p.Type, p.Split, p.Slack, len(p.Steps))
	}
	return nil
}
