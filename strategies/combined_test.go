package strategies

import (
	"errors"
	"testing"

	"quantbt/internal/engine"
	"quantbt/types"
)

// fixed always votes the same signal.
type fixed struct {
	signal types.Signal
	warmUp int
}

func (f *fixed) Name() string             { return "fixed" }
func (f *fixed) WarmUp() int              { return f.warmUp }
func (f *fixed) Init(*types.Series) error { return nil }
func (f *fixed) OnBar(int) types.Signal   { return f.signal }

func TestCombinedMajority(t *testing.T) {
	tests := []struct {
		name  string
		votes []types.Signal
		want  types.Signal
	}{
		{
			name:  "two of three buy",
			votes: []types.Signal{types.SignalBuy, types.SignalBuy, types.SignalSell},
			want:  types.SignalBuy,
		},
		{
			name:  "two of three sell",
			votes: []types.Signal{types.SignalSell, types.SignalSell, types.SignalHold},
			want:  types.SignalSell,
		},
		{
			name:  "tie holds",
			votes: []types.Signal{types.SignalBuy, types.SignalSell},
			want:  types.SignalHold,
		},
		{
			name:  "plurality below half holds",
			votes: []types.Signal{types.SignalBuy, types.SignalHold, types.SignalHold},
			want:  types.SignalHold,
		},
		{
			name:  "all hold",
			votes: []types.Signal{types.SignalHold, types.SignalHold, types.SignalHold},
			want:  types.SignalHold,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			strat := mustCombined(t, VoteMajority, test.votes...)
			if got := strat.OnBar(0); got != test.want {
				t.Errorf("OnBar = %s, want %s", got, test.want)
			}
		})
	}
}

func TestCombinedUnanimous(t *testing.T) {
	tests := []struct {
		name  string
		votes []types.Signal
		want  types.Signal
	}{
		{
			name:  "all buy",
			votes: []types.Signal{types.SignalBuy, types.SignalBuy, types.SignalBuy},
			want:  types.SignalBuy,
		},
		{
			name:  "all sell",
			votes: []types.Signal{types.SignalSell, types.SignalSell},
			want:  types.SignalSell,
		},
		{
			name:  "one dissenter holds",
			votes: []types.Signal{types.SignalBuy, types.SignalBuy, types.SignalHold},
			want:  types.SignalHold,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			strat := mustCombined(t, VoteUnanimous, test.votes...)
			if got := strat.OnBar(0); got != test.want {
				t.Errorf("OnBar = %s, want %s", got, test.want)
			}
		})
	}
}

func TestCombinedWarmUp(t *testing.T) {
	strat, err := NewCombined(VoteMajority,
		&fixed{warmUp: 5}, &fixed{warmUp: 27}, &fixed{warmUp: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strat.WarmUp(); got != 27 {
		t.Errorf("WarmUp() = %d, want the longest sub warm-up 27", got)
	}
}

func TestNewCombinedValidation(t *testing.T) {
	if _, err := NewCombined(VotingRule("QUORUM"), &fixed{}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for unknown rule, got %v", err)
	}
	if _, err := NewCombined(VoteMajority); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for no sub-strategies, got %v", err)
	}
}

func mustCombined(t *testing.T, rule VotingRule, votes ...types.Signal) *Combined {
	t.Helper()
	subs := make([]engine.Strategy, 0, len(votes))
	for _, v := range votes {
		subs = append(subs, &fixed{signal: v})
	}
	strat, err := NewCombined(rule, subs...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return strat
}
