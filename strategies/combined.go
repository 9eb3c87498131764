package strategies

import (
	"fmt"

	"quantbt/internal/engine"
	"quantbt/types"
)

var _ engine.Strategy = (*Combined)(nil)

// VotingRule decides how sub-strategy signals aggregate into one.
type VotingRule string

const (
	// VoteMajority emits BUY when count(BUY) > count(SELL) and at least
	// half of the sub-strategies vote BUY; symmetric for SELL; otherwise
	// HOLD. Ties resolve to HOLD.
	VoteMajority VotingRule = "MAJORITY"
	// VoteUnanimous emits a signal only when every sub-strategy agrees.
	VoteUnanimous VotingRule = "UNANIMOUS"
)

// Combined aggregates a fixed set of sub-strategies through a voting rule.
type Combined struct {
	rule VotingRule
	subs []engine.Strategy
}

func NewCombined(rule VotingRule, subs ...engine.Strategy) (*Combined, error) {
	switch rule {
	case VoteMajority, VoteUnanimous:
	default:
		return nil, fmt.Errorf("%w: unknown voting rule %q", ErrInvalidParameter, rule)
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("%w: combined strategy needs at least one sub-strategy", ErrInvalidParameter)
	}
	return &Combined{rule: rule, subs: subs}, nil
}

func (s *Combined) Name() string { return "combined" }

// WarmUp is the longest warm-up among the sub-strategies.
func (s *Combined) WarmUp() int {
	max := 0
	for _, sub := range s.subs {
		if w := sub.WarmUp(); w > max {
			max = w
		}
	}
	return max
}

func (s *Combined) Init(series *types.Series) error {
	for _, sub := range s.subs {
		if err := sub.Init(series); err != nil {
			return fmt.Errorf("init %s: %w", sub.Name(), err)
		}
	}
	return nil
}

func (s *Combined) OnBar(i int) types.Signal {
	buys, sells := 0, 0
	for _, sub := range s.subs {
		switch sub.OnBar(i) {
		case types.SignalBuy:
			buys++
		case types.SignalSell:
			sells++
		}
	}

	n := len(s.subs)
	switch s.rule {
	case VoteUnanimous:
		if buys == n {
			return types.SignalBuy
		}
		if sells == n {
			return types.SignalSell
		}
	default: // VoteMajority
		if buys > sells && 2*buys >= n {
			return types.SignalBuy
		}
		if sells > buys && 2*sells >= n {
			return types.SignalSell
		}
	}
	return types.SignalHold
}
