package statiming

import (
	"fmt"
	"strings"

	"github.com/tauphase/statiming/arena"
	"github.com/tauphase/statiming/constraint"
	"github.com/tauphase/statiming/kpaths"
	"github.com/tauphase/statiming/split"
	"github.com/tauphase/statiming/tgraph"
)

// AT implements at(pin, el, rf); each query triggers a lazy
// update_timing first.
func (t *Timer) AT(pin string, el split.Split, rf split.Trans) (float64, error) {
	n, err := t.queryNode(pin)
	if err != nil {
		return 0, err
	}
	return n.AT.Get(el, rf), nil
}

// Slew implements slew(pin, el, rf).
func (t *Timer) Slew(pin string, el split.Split, rf split.Trans) (float64, error) {
	n, err := t.queryNode(pin)
	if err != nil {
		return 0, err
	}
	return n.Slew.Get(el, rf), nil
}

// RAT implements rat(pin, el, rf).
func (t *Timer) RAT(pin string, el split.Split, rf split.Trans) (float64, error) {
	n, err := t.queryNode(pin)
	if err != nil {
		return 0, err
	}
	return n.RAT.Get(el, rf), nil
}

// Slack implements slack(pin, el, rf), with positive meaning safe:
// slack = rat - at on the late split and at - rat on the early split.
func (t *Timer) Slack(pin string, el split.Split, rf split.Trans) (float64, error) {
	n, err := t.queryNode(pin)
	if err != nil {
		return 0, err
	}
	at, rat := n.AT.Get(el, rf), n.RAT.Get(el, rf)
	if el == split.Late {
		return rat - at, nil
	}
	return at - rat, nil
}

func (t *Timer) queryNode(pin string) (*tgraph.Node, error) {
	if err := t.ensureUpdated(); err != nil {
		return nil, err
	}
	p := t.g.Pin(pin)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", tgraph.ErrMissingPin, pin)
	}
	return t.g.Nodes.At(p.Node), nil
}

// TNS implements tns(el, rf).
func (t *Timer) TNS(el split.Split, rf split.Trans) (float64, error) {
	if err := t.ensureUpdated(); err != nil {
		return 0, err
	}
	return t.eng.TNS(el, rf), nil
}

// TotalTNS implements zero-argument tns(): the sum of TNS
// across every [el][rf].
func (t *Timer) TotalTNS() (float64, error) {
	if err := t.ensureUpdated(); err != nil {
		return 0, err
	}
	var total float64
	split.ForEach(func(el split.Split, rf split.Trans) { total += t.eng.TNS(el, rf) })
	return total, nil
}

// WNS implements wns(el, rf).
func (t *Timer) WNS(el split.Split, rf split.Trans) (float64, error) {
	if err := t.ensureUpdated(); err != nil {
		return 0, err
	}
	return t.eng.WNS(el, rf), nil
}

// TotalWNS implements zero-argument wns(): the worst (most
// negative) WNS across every [el][rf].
func (t *Timer) TotalWNS() (float64, error) {
	if err := t.ensureUpdated(); err != nil {
		return 0, err
	}
	worst := 0.0
	split.ForEach(func(el split.Split, rf split.Trans) {
		if w := t.eng.WNS(el, rf); w < worst {
			worst = w
		}
	})
	return worst, nil
}

// Endpoint is one reported constrained endpoint, as returned by
// WorstEndpoints.
type Endpoint struct {
	Pin   string
	El    split.Split
	Rf    split.Trans
	Slack float64
}

// WorstEndpoints implements worst_endpoints(through_pin_opt,
// K): the K endpoints with the smallest slack, optionally restricted to
// those whose critical path passes through throughPin.
func (t *Timer) WorstEndpoints(throughPin string, k int) ([]Endpoint, error) {
	if err := t.ensureUpdated(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	if throughPin == "" {
		items := t.eng.Heap().Top(k)
		out := make([]Endpoint, 0, len(items))
		for _, it := range items {
			pin, el, rf, ok := parseEndpointKey(it.Endpoint)
			if !ok {
				continue
			}
			out = append(out, Endpoint{Pin: pin, El: el, Rf: rf, Slack: it.Slack})
		}
		return out, nil
	}

	all := t.eng.Heap().Top(t.eng.Heap().Len())
	out := make([]Endpoint, 0, k)
	for _, it := range all {
		if len(out) == k {
			break
		}
		pin, el, rf, ok := parseEndpointKey(it.Endpoint)
		if !ok {
			continue
		}
		if t.pathContains(pin, el, rf, throughPin) {
			out = append(out, Endpoint{Pin: pin, El: el, Rf: rf, Slack: it.Slack})
		}
	}
	return out, nil
}

// pathContains reports whether the critical path ending at (pin, el, rf)
// passes through pin named through.
func (t *Timer) pathContains(pin string, el split.Split, rf split.Trans, through string) bool {
	p := t.g.Pin(pin)
	if p == nil {
		return false
	}
	test, kind, _ := t.testFor(pin, el)
	if test == nil {
		return false
	}
	paths := kpaths.ForEndpoint(t.g, p.Node, el, rf, kind, 0, 1)
	for _, path := range paths {
		for _, step := range path.Steps {
			if step.Pin == through {
				return true
			}
		}
	}
	return false
}

func (t *Timer) testFor(pin string, el split.Split) (*constraint.Test, kpaths.PathType, string) {
	test, ok := t.eng.Tests()[pin]
	if !ok {
		return nil, kpaths.RAT, ""
	}
	if test.Kind == constraint.PrimaryOutputRAT {
		return test, kpaths.RAT, ""
	}
	if test.SetupEdge != arena.Invalid && (el == split.Late || test.HoldEdge == arena.Invalid) {
		return test, kpaths.Setup, test.ClockPin
	}
	return test, kpaths.Hold, test.ClockPin
}

// WorstPaths implements worst_paths(through_pin_opt, K): the
// K globally worst paths (or, with throughPin set, the K worst paths that
// include it), per endpoint in non-decreasing slack order via kpaths.
func (t *Timer) WorstPaths(throughPin string, k int) ([]kpaths.Path, error) {
	if err := t.ensureUpdated(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	ranked := t.eng.Heap().Top(t.eng.Heap().Len())
	out := make([]kpaths.Path, 0, k)
	for _, it := range ranked {
		if len(out) >= k {
			break
		}
		pin, el, rf, ok := parseEndpointKey(it.Endpoint)
		if !ok {
			continue
		}
		p := t.g.Pin(pin)
		if p == nil {
			continue
		}
		_, kind, _ := t.testFor(pin, el)
		want := k - len(out)
		for _, path := range kpaths.ForEndpoint(t.g, p.Node, el, rf, kind, it.Slack, want) {
			if throughPin != "" && !containsPin(path, throughPin) {
				continue
			}
			out = append(out, path)
			if len(out) >= k {
				break
			}
		}
	}
	return out, nil
}

func containsPin(path kpaths.Path, pin string) bool {
	for _, step := range path.Steps {
		if step.Pin == pin {
			return true
		}
	}
	return false
}

// parseEndpointKey reverses constraint.EndpointKey's "pin|el|rf" encoding.
func parseEndpointKey(key string) (pin string, el split.Split, rf split.Trans, ok bool) {
	parts := strings.Split(key, "|")
	if len(parts) != 3 {
		return "", 0, 0, false
	}
	switch parts[1] {
	case "early":
		el = split.Early
	case "late":
		el = split.Late
	default:
		return "", 0, 0, false
	}
	switch parts[2] {
	case "rise":
		rf = split.Rise
	case "fall":
		rf = split.Fall
	default:
		return "", 0, 0, false
	}
	return parts[0], el, rf, true
}
