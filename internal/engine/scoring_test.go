package engine

import (
	"testing"

	"github.com/mootlab/moot/pkg/domain"
)

func ptr(v float64) *float64 { return &v }

func TestScore_TimeThresholds(t *testing.T) {
	tests := []struct {
		name    string
		base    int
		elapsed *float64
		want    int
	}{
		{name: "fast answer earns bonus", base: 100, elapsed: ptr(29), want: 120},
		{name: "boundary 30s is neutral", base: 100, elapsed: ptr(30), want: 100},
		{name: "mid-range neutral", base: 100, elapsed: ptr(120), want: 100},
		{name: "boundary 300s is neutral", base: 100, elapsed: ptr(300), want: 100},
		{name: "slow answer penalized", base: 100, elapsed: ptr(301), want: 80},
		{name: "no elapsed time is neutral", base: 100, elapsed: nil, want: 100},
		{name: "negative base keeps sign", base: -10, elapsed: ptr(10), want: -12},
		{name: "bonus truncates", base: 10, elapsed: ptr(5), want: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.base, tt.elapsed, nil, RoundTruncate)
			if got != tt.want {
				t.Errorf("Score(%d, %v) = %d, want %d", tt.base, tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestScore_Modifiers(t *testing.T) {
	mods := []domain.ScoreModifier{
		{Type: domain.ModifierMultiply, Value: 2},
		{Type: domain.ModifierAdd, Value: 5},
		{Type: domain.ModifierSubtract, Value: 3},
		{Type: "squared", Value: 99}, // unknown, ignored
	}

	// 10 * 1.2 = 12, * 2 = 24, + 5 = 29, - 3 = 26
	got := Score(10, ptr(10), mods, RoundTruncate)
	if got != 26 {
		t.Errorf("got %d, want 26", got)
	}

	// Order matters: add before multiply gives a different result.
	reordered := []domain.ScoreModifier{
		{Type: domain.ModifierAdd, Value: 5},
		{Type: domain.ModifierMultiply, Value: 2},
	}
	got = Score(10, ptr(10), reordered, RoundTruncate)
	if got != 34 {
		t.Errorf("got %d, want 34", got)
	}
}

func TestScore_RoundingPolicies(t *testing.T) {
	mods := []domain.ScoreModifier{{Type: domain.ModifierMultiply, Value: 0.5}}

	// 15 * 0.5 = 7.5
	if got := Score(15, nil, mods, RoundTruncate); got != 7 {
		t.Errorf("truncate: got %d, want 7", got)
	}
	if got := Score(15, nil, mods, RoundNearest); got != 8 {
		t.Errorf("nearest: got %d, want 8", got)
	}
}
