// Package statiming is the public API surface of the static timing
// analysis engine: Timer wraps a tgraph.Graph and a
// propagate.Engine and exposes the full mutator/query contract, lazily
// re-running update_timing whenever a query observes stale state.
package statiming

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Env is the explicit, request-scoped logging handle threaded through a
// Timer (Design Note "Global state": no package-level
// logger). Grounded on the corpus's preference for explicit receivers
// over singletons (core.Graph never reaches for a package variable), with
// zerolog standing in for the structured logger the ambient stack calls
// for.
type Env struct {
	log zerolog.Logger
}

// NewEnv builds an Env writing structured, leveled events to w. Passing
// nil defaults to os.Stderr.
func NewEnv(w io.Writer) *Env {
	if w == nil {
		w = os.Stderr
	}
	return &Env{log: zerolog.New(w).With().Timestamp().Logger()}
}

// warnWrongPinKind logs AssertionOnWrongPinKind warning: the
// assertion is still applied, but the caller is told their pin kind
// assumption was wrong.
func (e *Env) warnWrongPinKind(op, pin string) {
	e.log.Warn().Str("op", op).Str("pin", pin).Msg("assertion applied to a pin of the wrong kind")
}

func (e *Env) infoMutation(op string, fields map[string]string) {
	ev := e.log.Info().Str("op", op)
	for k, v := range fields {
		ev = ev.Str(k, v)
	}
	ev.Msg("mutation applied")
}
