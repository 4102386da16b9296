package statiming

import "github.com/tauphase/statiming/propagate"

// Option configures a Timer at construction time, per dijkstra.Option's
// functional-options pattern (carried through from propagate.Option).
type Option func(*Timer)

// WithWorkers bounds update_timing's per-level fork/join fan-out width.
// Defaults to runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(t *Timer) { t.engOpts = append(t.engOpts, propagate.WithWorkers(n)) }
}

// WithCutoffSlack sets the initial CPPR cutoff uniformly across every
// [el][rf] (set_cutoff_slack, applied once at construction
// rather than requiring a call immediately after New).
func WithCutoffSlack(value float64) Option {
	return func(t *Timer) { t.engOpts = append(t.engOpts, propagate.WithCutoff(value)) }
}

// WithEnv attaches a logging handle other than the default (stderr)
// Env.
func WithEnv(env *Env) Option {
	return func(t *Timer) { t.env = env }
}
