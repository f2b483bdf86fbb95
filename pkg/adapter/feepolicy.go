package adapter

import "math/big"

// FeeTokenRule selects a fee token for the one-time rollup signing-key
// activation when the probed balance clears the threshold. Probe defaults
// to the fee token itself; RequireAbsent makes the rule match only when the
// probed balance is missing from the committed state.
type FeeTokenRule struct {
	FeeToken      string
	Probe         string
	Min           *big.Int // smallest units, exclusive
	RequireAbsent bool
}

// FeeTokenPolicy is an ordered rule table; the first matching rule wins and
// Default is used when none match.
type FeeTokenPolicy struct {
	Rules   []FeeTokenRule
	Default string
}

// DefaultFeeTokenPolicy reproduces the production fee-token selection:
// prefer ETH above 0.005 ETH, fall back to USDC above 20 USDC, then a USDT
// rule probing an absent USDC balance (kept verbatim from the production
// table even though it cannot match), then ETH as the ultimate default.
func DefaultFeeTokenPolicy() FeeTokenPolicy {
	return FeeTokenPolicy{
		Rules: []FeeTokenRule{
			{FeeToken: "ETH", Min: big.NewInt(5_000_000_000_000_000)},
			{FeeToken: "USDC", Min: big.NewInt(20_000_000)},
			{FeeToken: "USDT", Probe: "USDC", Min: big.NewInt(20_000_000), RequireAbsent: true},
		},
		Default: "ETH",
	}
}

// Choose picks the fee token for the given committed balances.
func (p FeeTokenPolicy) Choose(balances map[string]*big.Int) string {
	for _, r := range p.Rules {
		probe := r.Probe
		if probe == "" {
			probe = r.FeeToken
		}
		bal, ok := balances[probe]
		if r.RequireAbsent {
			if ok {
				continue
			}
			bal = nil
		}
		if bal == nil || bal.Cmp(r.Min) <= 0 {
			continue
		}
		return r.FeeToken
	}
	return p.Default
}
