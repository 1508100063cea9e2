package engine

import (
	"math"

	"github.com/mootlab/moot/pkg/domain"
)

// RoundingPolicy selects how the final real-valued score becomes an
// integer. The two graph generations disagreed (truncate vs round), so
// the policy is explicit rather than silently picked.
type RoundingPolicy int

const (
	// RoundTruncate drops the fractional part (current generation).
	RoundTruncate RoundingPolicy = iota
	// RoundNearest rounds half away from zero (legacy generation).
	RoundNearest
)

// Response-time thresholds in seconds. Answers strictly under the fast
// threshold earn a bonus; answers strictly over the slow one a penalty.
const (
	fastResponseThreshold = 30.0
	slowResponseThreshold = 300.0

	fastResponseBonus   = 1.2
	slowResponsePenalty = 0.8
)

// Score computes a decision's final score from the edge base score, the
// client-reported elapsed time and an ordered modifier list. Pure and
// deterministic; unknown modifier types are ignored.
func Score(base int, elapsedSeconds *float64, modifiers []domain.ScoreModifier, policy RoundingPolicy) int {
	score := float64(base)

	if elapsedSeconds != nil {
		switch {
		case *elapsedSeconds < fastResponseThreshold:
			score *= fastResponseBonus
		case *elapsedSeconds > slowResponseThreshold:
			score *= slowResponsePenalty
		}
	}

	for _, m := range modifiers {
		switch m.Type {
		case domain.ModifierMultiply:
			score *= m.Value
		case domain.ModifierAdd:
			score += m.Value
		case domain.ModifierSubtract:
			score -= m.Value
		}
	}

	if policy == RoundNearest {
		return int(math.Round(score))
	}
	return int(math.Trunc(score))
}
