package adapter

import (
	"math/big"
	"testing"
)

func TestFeeTokenPolicy(t *testing.T) {
	policy := DefaultFeeTokenPolicy()

	eth := func(v int64) *big.Int { return big.NewInt(v) }
	cases := []struct {
		name     string
		balances map[string]*big.Int
		want     string
	}{
		{
			name:     "rich in ETH",
			balances: map[string]*big.Int{"ETH": eth(6_000_000_000_000_000)},
			want:     "ETH",
		},
		{
			name:     "ETH at threshold is not enough",
			balances: map[string]*big.Int{"ETH": eth(5_000_000_000_000_000)},
			want:     "ETH", // falls through to the default
		},
		{
			name:     "USDC covers the fee",
			balances: map[string]*big.Int{"USDC": eth(25_000_000)},
			want:     "USDC",
		},
		{
			name: "ETH preferred over USDC",
			balances: map[string]*big.Int{
				"ETH":  eth(6_000_000_000_000_000),
				"USDC": eth(25_000_000),
			},
			want: "ETH",
		},
		{
			name:     "empty account defaults to ETH",
			balances: map[string]*big.Int{},
			want:     "ETH",
		},
		{
			// The USDT rule probes USDC and requires it absent, so a
			// present USDC balance can never select USDT.
			name: "USDT balance alone never selects USDT",
			balances: map[string]*big.Int{
				"USDT": eth(100_000_000),
			},
			want: "ETH",
		},
	}

	for _, tc := range cases {
		if got := policy.Choose(tc.balances); got != tc.want {
			t.Errorf("%s: Choose = %s, want %s", tc.name, got, tc.want)
		}
	}
}
