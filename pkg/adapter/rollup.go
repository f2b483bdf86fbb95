package adapter

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/zigzag-exchange/zigzag-go/pkg/currency"
	"github.com/zigzag-exchange/zigzag-go/pkg/notify"
	"github.com/zigzag-exchange/zigzag-go/pkg/order"
	"github.com/zigzag-exchange/zigzag-go/pkg/protocol"
)

// rollupOrderValidity is the fixed validity window for rollup orders, in seconds.
const rollupOrderValidity = 180

// Rollup adapts the provider-managed rollup backend. The provider wraps the
// user's wallet signer; committed account state doubles as the allowance
// (the rollup settles swaps from committed balances directly).
type Rollup struct {
	chainID uint64
	deps    Deps
	builder *order.Builder
}

func NewRollup(chainID uint64, deps Deps) *Rollup {
	return &Rollup{
		chainID: chainID,
		deps:    deps,
		builder: order.NewBuilder(deps.Registry),
	}
}

func (r *Rollup) Variant() Variant { return VariantRollup }
func (r *Rollup) ChainID() uint64  { return r.chainID }

// SignIn fetches the rollup account state. An account with no id has never
// deposited; trading requires a funded account.
func (r *Rollup) SignIn(ctx context.Context) (*Session, error) {
	state, err := r.deps.Provider.AccountState(ctx)
	if err != nil {
		return nil, fmt.Errorf("account state: %w", err)
	}
	if state.AccountID == "" {
		return nil, fmt.Errorf("%w: deposit funds before signing in", ErrAccountNotFound)
	}
	return &Session{
		ChainID:   r.chainID,
		Address:   state.Address,
		AccountID: state.AccountID,
		Variant:   VariantRollup,
	}, nil
}

// Bootstrap registers the signing key on-chain if this account has never
// traded. The activation fee token comes from the policy table applied to
// committed balances.
func (r *Rollup) Bootstrap(ctx context.Context, s *Session) error {
	if !s.Valid() {
		return ErrSessionClosed
	}
	set, err := r.deps.Provider.IsSigningKeySet(ctx)
	if err != nil {
		return fmt.Errorf("%w: signing key check: %v", ErrBootstrapFailed, err)
	}
	if set {
		return nil
	}

	if r.chainID == ChainZkSyncMainnet {
		notify.Infof(r.deps.Notify, "You need to sign a one-time transaction to activate your account. The fee will be ~0.003 ETH")
	} else {
		notify.Infof(r.deps.Notify, "You need to sign a one-time transaction to activate your account.")
	}

	state, err := r.deps.Provider.AccountState(ctx)
	if err != nil {
		return fmt.Errorf("%w: account state: %v", ErrBootstrapFailed, err)
	}
	feeToken := r.deps.FeePolicy.Choose(state.Committed)
	if err := r.deps.Provider.SetSigningKey(ctx, feeToken); err != nil {
		notify.Errorf(r.deps.Notify, "Signing key activation failed")
		return fmt.Errorf("%w: %v", ErrSigningKeyActivationFailed, err)
	}
	r.deps.Log.Infow("signing_key_activated", "chain", r.chainID, "fee_token", feeToken)
	return nil
}

// Balances returns committed balances. The rollup has no separate allowance;
// the committed balance is reported as both.
func (r *Rollup) Balances(ctx context.Context, s *Session) (Balances, error) {
	if !s.Valid() {
		return nil, ErrSessionClosed
	}
	state, err := r.deps.Provider.AccountState(ctx)
	if err != nil {
		return nil, fmt.Errorf("account state: %w", err)
	}
	out := make(Balances, len(state.Committed))
	for cur, amount := range state.Committed {
		out[cur] = Balance{Amount: amount, Allowance: amount}
	}
	return out, nil
}

func (r *Rollup) Allowance(ctx context.Context, s *Session, cur string) (*big.Int, error) {
	if _, err := r.deps.Registry.Lookup(cur); err != nil {
		return nil, err
	}
	balances, err := r.Balances(ctx, s)
	if err != nil {
		return nil, err
	}
	bal, ok := balances[cur]
	if !ok {
		return big.NewInt(0), nil
	}
	return bal.Allowance, nil
}

// SetAllowance is a no-op on the rollup: swaps settle from committed
// balances without a separate approval step.
func (r *Rollup) SetAllowance(ctx context.Context, s *Session, cur string, amount *big.Int) error {
	if !s.Valid() {
		return ErrSessionClosed
	}
	_, err := r.deps.Registry.Lookup(cur)
	return err
}

// BuildOrder fee-adjusts the request and asks the provider for its native
// ratio order, valid for 180 seconds from construction.
func (r *Rollup) BuildOrder(ctx context.Context, s *Session, req order.Request) (any, error) {
	if !s.Valid() {
		return nil, ErrSessionClosed
	}
	fa, err := r.builder.Build(req)
	if err != nil {
		return nil, err
	}
	base, quote, err := order.SplitMarket(req.Market)
	if err != nil {
		return nil, err
	}
	sellInfo, err := r.deps.Registry.Lookup(fa.TokenSell)
	if err != nil {
		return nil, err
	}
	params := RollupOrderParams{
		TokenSell: fa.TokenSell,
		TokenBuy:  fa.TokenBuy,
		// Wire amount: fee-inclusive sell quantity at the engine's
		// 6-significant-digit precision, in smallest units.
		Amount:     currency.ToBaseUnits(order.RoundSig(fa.SellQuantity, 6), sellInfo.Decimals),
		Ratio:      tokenRatio(base, quote, fa.Price),
		ValidUntil: r.deps.Clock.Now().Unix() + rollupOrderValidity,
	}
	payload, err := r.deps.Provider.BuildOrder(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("provider order: %w", err)
	}
	return payload, nil
}

func (r *Rollup) SubmitOrder(ctx context.Context, s *Session, req order.Request) error {
	payload, err := r.BuildOrder(ctx, s, req)
	if err != nil {
		return err
	}
	r.deps.Log.Infow("submit_order", "chain", r.chainID, "market", req.Market, "side", req.Side)
	return r.deps.Conn.Send(protocol.SubmitOrder(r.chainID, payload))
}

// SubmitFill builds a slippage-adjusted fill against a resting order and
// offers it to the matching engine. Fill orders carry no explicit validity
// window; the provider default applies.
func (r *Rollup) SubmitFill(ctx context.Context, s *Session, receipt order.Receipt) error {
	if !s.Valid() {
		return ErrSessionClosed
	}
	fill, err := r.builder.BuildFill(receipt)
	if err != nil {
		return err
	}
	base, quote, err := order.SplitMarket(receipt.Market)
	if err != nil {
		return err
	}
	sellInfo, err := r.deps.Registry.Lookup(fill.TokenSell)
	if err != nil {
		return err
	}
	params := RollupOrderParams{
		TokenSell: fill.TokenSell,
		TokenBuy:  fill.TokenBuy,
		Amount:    currency.ToBaseUnits(fill.SellQuantity, sellInfo.Decimals),
		Ratio:     tokenRatio(base, quote, fill.Price),
	}
	payload, err := r.deps.Provider.BuildOrder(ctx, params)
	if err != nil {
		return fmt.Errorf("provider fill order: %w", err)
	}
	r.deps.Log.Infow("fill_request", "chain", r.chainID, "order_id", receipt.OrderID)
	return r.deps.Conn.Send(protocol.FillRequest(receipt.ChainID, receipt.OrderID, payload))
}

func (r *Rollup) CancelOrder(ctx context.Context, s *Session, orderID uint64) error {
	if !s.Valid() {
		return ErrSessionClosed
	}
	return r.deps.Conn.Send(protocol.CancelOrder(r.chainID, orderID))
}

func (r *Rollup) CancelAll(ctx context.Context, s *Session) error {
	if !s.Valid() {
		return ErrSessionClosed
	}
	return r.deps.Conn.Send(protocol.CancelAll(r.chainID, s.AccountID))
}

// tokenRatio expresses a price as the provider's relative-price mapping:
// one unit of base against price units of quote.
func tokenRatio(base, quote string, price decimal.Decimal) map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		base:  decimal.NewFromInt(1),
		quote: price,
	}
}
