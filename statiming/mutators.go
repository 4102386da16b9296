package statiming

import (
	"fmt"

	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/tgraph"
)

// InsertPrimaryInput implements insert_primary_input(name).
func (t *Timer) InsertPrimaryInput(name string) error {
	if err := t.g.InsertPrimaryInput(name); err != nil {
		return err
	}
	t.markDirty()
	return nil
}

// InsertPrimaryOutput implements insert_primary_output(name).
func (t *Timer) InsertPrimaryOutput(name string) error {
	if err := t.g.InsertPrimaryOutput(name); err != nil {
		return err
	}
	t.markDirty()
	return nil
}

// InsertGate implements insert_gate(name, cell).
func (t *Timer) InsertGate(name, cell string) error {
	nodes, err := t.g.InsertGate(name, cell)
	if err != nil {
		return err
	}
	t.env.infoMutation("insert_gate", map[string]string{"gate": name, "cell": cell})
	if t.ran {
		for _, idx := range nodes {
			t.eng.Enqueue(idx)
		}
	}
	t.markDirty()
	return nil
}

// RemoveGate implements remove_gate(name); per round-trip
// law, insert_gate(g, C); remove_gate(g) is a no-op.
func (t *Timer) RemoveGate(name string) error {
	if err := t.g.RemoveGate(name); err != nil {
		return err
	}
	t.env.infoMutation("remove_gate", map[string]string{"gate": name})
	t.markDirty()
	return nil
}

// RepowerGate implements repower_gate(name, new_cell).
func (t *Timer) RepowerGate(name, newCell string) error {
	nodes, err := t.g.RepowerGate(name, newCell)
	if err != nil {
		return err
	}
	if t.ran {
		for _, idx := range nodes {
			t.eng.EnqueueClosure(idx)
		}
	}
	t.markDirty()
	return nil
}

// InsertNet implements insert_net(name).
func (t *Timer) InsertNet(name string) error {
	if err := t.g.InsertNet(name); err != nil {
		return err
	}
	t.markDirty()
	return nil
}

// RemoveNet implements remove_net(name); per round-trip
// law it requires the net already be empty.
func (t *Timer) RemoveNet(name string) error {
	if err := t.g.RemoveNet(name); err != nil {
		return err
	}
	t.markDirty()
	return nil
}

// ConnectPin implements connect_pin(pin, net).
func (t *Timer) ConnectPin(pin, net string) error {
	if err := t.g.ConnectPin(pin, net); err != nil {
		return err
	}
	if t.ran {
		if p := t.g.Pin(pin); p != nil {
			t.eng.EnqueueClosure(p.Node)
		}
	}
	t.markDirty()
	return nil
}

// DisconnectPin implements disconnect_pin(pin); per // round-trip law, connect_pin(p, n); disconnect_pin(p) restores every
// pre-existing timing quantity to within machine epsilon.
func (t *Timer) DisconnectPin(pin string) error {
	p := t.g.Pin(pin)
	if err := t.g.DisconnectPin(pin); err != nil {
		return err
	}
	if t.ran && p != nil {
		t.eng.EnqueueClosure(p.Node)
	}
	t.markDirty()
	return nil
}

// LoadParasitics implements load_parasitics(net, rc_description).
func (t *Timer) LoadParasitics(net string, rc tgraph.RCDescription) error {
	root, err := t.g.LoadParasitics(net, rc)
	if err != nil {
		return err
	}
	if t.ran {
		t.eng.EnqueueClosure(root)
	}
	t.markDirty()
	return nil
}

// SetAT implements set_at(pin, el, rf, value). Per // AssertionOnWrongPinKind, asserting AT on anything but a primary input is
// logged as a warning and still applied.
func (t *Timer) SetAT(pin string, el split.Split, rf split.Trans, value float64) error {
	p, n, err := t.resolvePin(pin)
	if err != nil {
		return err
	}
	if p.Kind != tgraph.PinPrimaryInput {
		t.env.warnWrongPinKind("set_at", pin)
	}
	n.AssertedAT.Set(el, rf, value)
	n.AssertedATSet.Set(el, rf, true)
	if t.ran {
		t.eng.EnqueueClosure(p.Node)
	}
	t.markDirty()
	return nil
}

// SetSlew implements set_slew(pin, el, rf, value).
func (t *Timer) SetSlew(pin string, el split.Split, rf split.Trans, value float64) error {
	p, n, err := t.resolvePin(pin)
	if err != nil {
		return err
	}
	if p.Kind != tgraph.PinPrimaryInput {
		t.env.warnWrongPinKind("set_slew", pin)
	}
	n.AssertedSlew.Set(el, rf, value)
	n.AssertedSlewSet.Set(el, rf, true)
	if t.ran {
		t.eng.EnqueueClosure(p.Node)
	}
	t.markDirty()
	return nil
}

// SetRAT implements set_rat(pin, el, rf, value).
func (t *Timer) SetRAT(pin string, el split.Split, rf split.Trans, value float64) error {
	p, n, err := t.resolvePin(pin)
	if err != nil {
		return err
	}
	if p.Kind != tgraph.PinPrimaryOutput {
		t.env.warnWrongPinKind("set_rat", pin)
	}
	n.AssertedRAT.Set(el, rf, value)
	n.AssertedRATSet.Set(el, rf, true)
	t.markDirty()
	return nil
}

// SetLoad implements set_load(pin, el, rf, value): the
// capacitance a primary-output pin presents to its net.
func (t *Timer) SetLoad(pin string, el split.Split, rf split.Trans, value float64) error {
	p := t.g.Pin(pin)
	if p == nil {
		return fmt.Errorf("%w: %s", tgraph.ErrMissingPin, pin)
	}
	if p.Kind != tgraph.PinPrimaryOutput {
		t.env.warnWrongPinKind("set_load", pin)
	}
	p.AssertedLoad.Set(el, rf, value)
	p.AssertedLoadSet.Set(el, rf, true)
	if p.Net != "" {
		if err := t.g.RefreshNetLoad(p.Net); err != nil {
			return err
		}
		if t.ran {
			t.eng.EnqueueClosure(p.Node)
		}
	}
	t.markDirty()
	return nil
}

// SetCutoffSlack implements set_cutoff_slack(el, rf, value).
func (t *Timer) SetCutoffSlack(el split.Split, rf split.Trans, value float64) {
	t.eng.SetCutoff(el, rf, value)
}

// SetEndpointSuppressed excludes (or restores) a constrained endpoint
// from TNS/WNS/worst_paths without removing its gate.
func (t *Timer) SetEndpointSuppressed(pin string, suppressed bool) {
	t.eng.SetSuppressed(pin, suppressed)
}

func (t *Timer) resolvePin(pin string) (*tgraph.Pin, *tgraph.Node, error) {
	p := t.g.Pin(pin)
	if p == nil {
		return nil, nil, fmt.Errorf("%w: %s", tgraph.ErrMissingPin, pin)
	}
	n := t.g.Nodes.At(p.Node)
	if n == nil {
		return nil, nil, fmt.Errorf("%w: %s", tgraph.ErrMissingPin, pin)
	}
	return p, n, nil
}
