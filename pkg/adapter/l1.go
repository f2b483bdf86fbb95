package adapter

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/zigzag-exchange/zigzag-go/pkg/order"
)

// erc20ABI covers the two read methods the client needs.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

// L1 is the read-only Ethereum companion of a rollup chain. It answers
// balance and allowance queries against mainnet state so the client can
// show what is available to deposit; every order operation is unsupported.
type L1 struct {
	chainID uint64
	deps    Deps
	erc20   abi.ABI
}

func NewL1(chainID uint64, deps Deps) *L1 {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		panic(fmt.Sprintf("erc20 abi: %v", err))
	}
	return &L1{chainID: chainID, deps: deps, erc20: parsed}
}

func (l *L1) Variant() Variant { return VariantL1 }
func (l *L1) ChainID() uint64  { return l.chainID }

// SignIn wraps the configured owner address. No keys are held; the session
// only scopes read queries.
func (l *L1) SignIn(ctx context.Context) (*Session, error) {
	return &Session{
		ChainID:   l.chainID,
		Address:   l.deps.OwnerAddress.Hex(),
		AccountID: l.deps.OwnerAddress.Hex(),
		Variant:   VariantL1,
	}, nil
}

// Bootstrap is a no-op: there is nothing to set up for read-only queries.
func (l *L1) Bootstrap(ctx context.Context, s *Session) error {
	if !s.Valid() {
		return ErrSessionClosed
	}
	return nil
}

// Balances reads the owner's ETH balance plus every registered ERC-20.
func (l *L1) Balances(ctx context.Context, s *Session) (Balances, error) {
	if !s.Valid() {
		return nil, ErrSessionClosed
	}
	out := make(Balances)
	for _, cur := range l.deps.Registry.Symbols() {
		info, err := l.deps.Registry.Lookup(cur)
		if err != nil {
			return nil, err
		}
		if info.L1Address == "" {
			bal, err := l.deps.L1Client.BalanceAt(ctx, l.deps.OwnerAddress, nil)
			if err != nil {
				return nil, fmt.Errorf("eth balance: %w", err)
			}
			out[cur] = Balance{Amount: bal}
			continue
		}
		bal, err := l.readUint(ctx, info.L1Address, "balanceOf", l.deps.OwnerAddress)
		if err != nil {
			return nil, fmt.Errorf("balanceOf %s: %w", cur, err)
		}
		out[cur] = Balance{Amount: bal}
	}
	return out, nil
}

// Allowance reads the bridge contract's spending allowance on an ERC-20.
// Native ETH needs no allowance and reports zero.
func (l *L1) Allowance(ctx context.Context, s *Session, cur string) (*big.Int, error) {
	if !s.Valid() {
		return nil, ErrSessionClosed
	}
	info, err := l.deps.Registry.Lookup(cur)
	if err != nil {
		return nil, err
	}
	if info.L1Address == "" {
		return big.NewInt(0), nil
	}
	return l.readUint(ctx, info.L1Address, "allowance", l.deps.OwnerAddress, l.deps.L1Bridge)
}

func (l *L1) SetAllowance(ctx context.Context, s *Session, cur string, amount *big.Int) error {
	return fmt.Errorf("%w: approvals require a funded L1 signer", ErrUnsupportedOperation)
}

func (l *L1) BuildOrder(ctx context.Context, s *Session, req order.Request) (any, error) {
	return nil, fmt.Errorf("%w: orders on L1", ErrUnsupportedOperation)
}

func (l *L1) SubmitOrder(ctx context.Context, s *Session, req order.Request) error {
	return fmt.Errorf("%w: orders on L1", ErrUnsupportedOperation)
}

func (l *L1) SubmitFill(ctx context.Context, s *Session, receipt order.Receipt) error {
	return fmt.Errorf("%w: fills on L1", ErrUnsupportedOperation)
}

func (l *L1) CancelOrder(ctx context.Context, s *Session, orderID uint64) error {
	return fmt.Errorf("%w: cancels on L1", ErrUnsupportedOperation)
}

func (l *L1) CancelAll(ctx context.Context, s *Session) error {
	return fmt.Errorf("%w: cancels on L1", ErrUnsupportedOperation)
}

// readUint eth_calls a view method returning a single uint256.
func (l *L1) readUint(ctx context.Context, contract, method string, args ...any) (*big.Int, error) {
	input, err := l.erc20.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	to := common.HexToAddress(contract)
	raw, err := l.deps.L1Client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, err
	}
	results, err := l.erc20.Unpack(method, raw)
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("%s: unexpected result arity %d", method, len(results))
	}
	value, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected result type %T", method, results[0])
	}
	return value, nil
}
