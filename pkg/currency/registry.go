package currency

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency is returned when a currency (or its parameters for a
// specific chain) is not present in the registry.
var ErrUnknownCurrency = errors.New("unknown currency")

// ChainParams holds the chain-specific identity of a currency.
// Rollup chains address tokens by numeric id, the proof chain by contract address.
type ChainParams struct {
	TokenID         uint32
	ContractAddress string
}

// Info is the static per-currency metadata shared by every component.
// GasFee is the flat settlement fee charged on the sell side of an order,
// expressed in whole units of the currency (not smallest units).
// L1Address is the ERC-20 contract on Ethereum mainnet, empty for native ETH.
type Info struct {
	Symbol    string
	Decimals  uint8
	Chains    map[uint64]ChainParams
	GasFee    decimal.Decimal
	L1Address string
}

// Registry maps currency symbols to their metadata. It is immutable after
// construction and safe to share by reference across all components.
type Registry struct {
	currencies map[string]Info
	symbols    []string
}

// NewRegistry builds a registry from the given currency table.
func NewRegistry(currencies []Info) *Registry {
	m := make(map[string]Info, len(currencies))
	syms := make([]string, 0, len(currencies))
	for _, c := range currencies {
		m[c.Symbol] = c
		syms = append(syms, c.Symbol)
	}
	sort.Strings(syms)
	return &Registry{currencies: m, symbols: syms}
}

// Default returns the production currency table.
// Chains: 1 = zkSync mainnet, 1000 = zkSync rinkeby, 1001 = StarkNet goerli.
func Default() *Registry {
	return NewRegistry([]Info{
		{
			Symbol:   "ETH",
			Decimals: 18,
			Chains: map[uint64]ChainParams{
				1:    {TokenID: 0},
				1000: {TokenID: 0},
				1001: {ContractAddress: "0x06a75fdd9c9e376aebf43ece91ffb315dbaa753f9c0ddfeb8d7f3af0124cd0b6"},
			},
			GasFee: decimal.RequireFromString("0.0003"),
		},
		{
			Symbol:    "USDC",
			L1Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			Decimals:  6,
			Chains: map[uint64]ChainParams{
				1:    {TokenID: 2},
				1000: {TokenID: 2},
				1001: {ContractAddress: "0x0545d006f9f53169a94b568e031a3e16f0ea00e9563dc0255f15c2a1323d6811"},
			},
			GasFee: decimal.NewFromInt(1),
		},
		{
			Symbol:    "USDT",
			L1Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7",
			Decimals:  6,
			Chains: map[uint64]ChainParams{
				1:    {TokenID: 4},
				1000: {TokenID: 1},
				1001: {ContractAddress: "0x03d3af6e3567c48173ff9b9ae7efc1816562e558ee0cc9abc0fe1862b2931d9a"},
			},
			GasFee: decimal.NewFromInt(1),
		},
	})
}

// Lookup returns the metadata for a currency symbol.
func (r *Registry) Lookup(symbol string) (Info, error) {
	info, ok := r.currencies[symbol]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, symbol)
	}
	return info, nil
}

// ChainParams returns the chain-specific token identity for a currency.
// Fails with ErrUnknownCurrency when the currency is not listed for the chain.
func (r *Registry) ChainParams(symbol string, chainID uint64) (ChainParams, error) {
	info, err := r.Lookup(symbol)
	if err != nil {
		return ChainParams{}, err
	}
	params, ok := info.Chains[chainID]
	if !ok {
		return ChainParams{}, fmt.Errorf("%w: %s on chain %d", ErrUnknownCurrency, symbol, chainID)
	}
	return params, nil
}

// Symbols returns all registered currency symbols in stable (sorted) order.
// Balance scans iterate in this order so wire traffic is deterministic.
func (r *Registry) Symbols() []string {
	return r.symbols
}
