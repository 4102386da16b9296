package propagate

import "github.com/tauphase/statiming/split"

// TNS sums every negative, non-suppressed endpoint slack at [el][rf]
// (total negative slack). A reduction over the test map
// is run serially here rather than fanned out across goroutines: the
// per-level forward/backward passes already dominate update_timing's
// cost, and a second concurrency dimension over a handful of endpoints
// would trade a negligible wall-clock gain for real complexity (lock
// contention on a running sum) — matching the pack's general bias
// against reaching for concurrency where a flat scan already finishes
// before the next cache line loads.
func (e *Engine) TNS(el split.Split, rf split.Trans) float64 {
	var total float64
	for _, t := range e.tests {
		if t.Suppressed {
			continue
		}
		ep := t.Endpoints.Get(el, rf)
		if ep.Computed && ep.Slack < 0 {
			total += ep.Slack
		}
	}
	return total
}

// WNS returns the single worst (most negative) non-suppressed endpoint
// slack at [el][rf], or 0 if none are negative.
func (e *Engine) WNS(el split.Split, rf split.Trans) float64 {
	worst := 0.0
	for _, t := range e.tests {
		if t.Suppressed {
			continue
		}
		ep := t.Endpoints.Get(el, rf)
		if ep.Computed && ep.Slack < worst {
			worst = ep.Slack
		}
	}
	return worst
}
