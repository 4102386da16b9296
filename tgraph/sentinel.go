package tgraph

import (
	"math"

	"github.com/tauphase/statiming/split"
)

// Undefined timing sentinels: an undefined AT is +inf on the late split,
// -inf on the early split; an undefined RAT is the opposite, and an
// undefined slew follows the AT convention. A
// relaxation that only ever sees sentinel inputs stays a sentinel, for
// free, from ordinary +inf/-inf arithmetic under max/min relaxation, as
// long as delays are never themselves +-inf (they are not: a missing arc
// contributes no edge at all, not an infinite-delay edge).
func UndefinedAT(el split.Split) float64 {
	if el == split.Late {
		return math.Inf(1)
	}
	return math.Inf(-1)
}

// UndefinedRAT is the opposite convention from UndefinedAT: late is
// -inf (nothing is ever late enough to violate), early is +inf.
func UndefinedRAT(el split.Split) float64 {
	if el == split.Late {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// UndefinedSlew follows the same convention as UndefinedAT.
func UndefinedSlew(el split.Split) float64 {
	return UndefinedAT(el)
}

// IsUndefined reports whether v is one of the +-inf sentinels above. A
// caller that queries an AT/RAT/slew value is expected to test for it
// before treating the result as a real timing quantity.
func IsUndefined(v float64) bool {
	return math.IsInf(v, 0)
}

// Worse returns the more pessimistic of a and b for split el: for LATE,
// larger is worse (arrives later / is less safe); for EARLY, smaller is
// worse (arrives earlier). Forward slew and AT relaxation both use this
// same "take the worst" comparison; backward RAT relaxation uses Tighter.
func Worse(el split.Split, a, b float64) float64 {
	if el == split.Late {
		if a > b {
			return a
		}
		return b
	}
	if a < b {
		return a
	}
	return b
}

// Tighter returns the more constraining of a and b for split el — the
// dual of Worse, used when relaxing RAT backward from fanout: LATE wants
// the smaller (earlier-required) RAT, EARLY wants the larger.
func Tighter(el split.Split, a, b float64) float64 {
	if el == split.Late {
		if a < b {
			return a
		}
		return b
	}
	if a > b {
		return a
	}
	return b
}
