package statiming

import (
	"github.com/tauphase/statiming/celllib"
	"github.com/tauphase/statiming/propagate"
	"github.com/tauphase/statiming/tgraph"
)

// Re-exported sentinel errors: statiming's mutators surface tgraph's own
// sentinels directly rather than wrapping them a second time, so a
// caller can errors.Is against one name regardless of which package
// actually detected the problem.
var (
	ErrMissingPin      = tgraph.ErrMissingPin
	ErrMissingNet      = tgraph.ErrMissingNet
	ErrMissingGate     = tgraph.ErrMissingGate
	ErrDuplicateName   = tgraph.ErrDuplicateName
	ErrInvalidMutation = tgraph.ErrInvalidMutation
	ErrBadTopology     = tgraph.ErrBadTopology
)

// Timer is the engine's root handle: a timing graph plus the propagation
// engine that maintains it, queried lazily — a mutator marks the state
// dirty; the next query re-runs update_timing before answering.
type Timer struct {
	g   *tgraph.Graph
	eng *propagate.Engine
	env *Env

	engOpts []propagate.Option
	ran     bool // has update_timing ever completed
	dirty   bool // a mutator has touched the graph since the last pass
}

// New constructs a Timer over the two split cell libraries (an early and
// a late characterization of the same cells), ready for mutators to
// populate its netlist.
func New(early, late *celllib.Library, opts ...Option) *Timer {
	t := &Timer{g: tgraph.New(early, late), env: NewEnv(nil)}
	for _, opt := range opts {
		opt(t)
	}
	t.eng = propagate.New(t.g, t.engOpts...)
	return t
}

// Graph exposes the underlying timing graph for callers that need direct
// access the mutator surface doesn't cover (e.g. the demo binary building
// a net by hand from a parsed RC description).
func (t *Timer) Graph() *tgraph.Graph { return t.g }

// UpdateTiming runs update_timing explicitly, surfacing the
// full/incremental choice instead of collapsing every pass into an
// always-incremental lazy call.
func (t *Timer) UpdateTiming(incremental bool) error {
	if err := t.eng.UpdateTiming(incremental); err != nil {
		return err
	}
	t.ran = true
	t.dirty = false
	return nil
}

// ensureUpdated lazily re-runs update_timing if a mutator has touched the
// graph since the last pass, incrementally once an initial full pass has
// already run.
func (t *Timer) ensureUpdated() error {
	if !t.dirty && t.ran {
		return nil
	}
	return t.UpdateTiming(t.ran)
}

func (t *Timer) markDirty() { t.dirty = true }
