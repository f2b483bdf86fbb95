package adapter

import (
	"context"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	zzcrypto "github.com/zigzag-exchange/zigzag-go/pkg/crypto"
	"github.com/zigzag-exchange/zigzag-go/pkg/notify"
	"github.com/zigzag-exchange/zigzag-go/pkg/order"
	"github.com/zigzag-exchange/zigzag-go/pkg/protocol"
	"github.com/zigzag-exchange/zigzag-go/pkg/storage"
)

// proofOrderValidity is the fixed validity window for proof-chain orders,
// in seconds.
const proofOrderValidity = 86400

// approveTarget is the allowance granted to the exchange contract when the
// current allowance runs low, in smallest units (1e21).
var approveTarget = new(big.Int).Exp(big.NewInt(10), big.NewInt(21), nil)

// Starter balances minted for blank accounts, in smallest units.
var (
	mintAmountETH   = big.NewInt(1_000_000_000_000_000_000) // 1 ETH
	mintAmountOther = big.NewInt(5_000_000_000)             // 5000 USDC/USDT
)

// Proof adapts the proof-based backend. The session key is a locally
// generated keypair persisted in the blob store; orders are hashed through
// the canonical field chain and signed before submission. First use deploys
// and initializes an account contract, then mints starter balances.
type Proof struct {
	chainID uint64
	deps    Deps
}

func NewProof(chainID uint64, deps Deps) *Proof {
	return &Proof{chainID: chainID, deps: deps}
}

func (p *Proof) Variant() Variant { return VariantProof }
func (p *Proof) ChainID() uint64  { return p.chainID }

// SignIn loads or generates the local keypair. The account address may
// still be empty here; Bootstrap deploys the account contract when needed.
func (p *Proof) SignIn(ctx context.Context) (*Session, error) {
	var signer *zzcrypto.Signer
	keyHex, ok, err := p.deps.Store.Get(storage.PrivKeyKey(p.chainID))
	if err != nil {
		return nil, err
	}
	if ok {
		signer, err = zzcrypto.FromPrivateKeyHex(keyHex)
		if err != nil {
			return nil, fmt.Errorf("stored key: %w", err)
		}
	} else {
		signer, err = zzcrypto.GenerateKey()
		if err != nil {
			return nil, err
		}
		if err := p.deps.Store.Set(storage.PrivKeyKey(p.chainID), signer.PrivateKeyHex()); err != nil {
			return nil, err
		}
	}

	address, _, err := p.deps.Store.Get(storage.AccountAddressKey(p.chainID))
	if err != nil {
		return nil, err
	}
	return &Session{
		ChainID:   p.chainID,
		Address:   address,
		AccountID: address,
		Variant:   VariantProof,
		signer:    signer,
	}, nil
}

// Bootstrap walks the first-use sequence: deploy, initialize, mint. Every
// step re-checks the persisted flags first, so a bootstrap abandoned midway
// resumes without duplicating on-chain side effects.
func (p *Proof) Bootstrap(ctx context.Context, s *Session) error {
	if !s.Valid() {
		return ErrSessionClosed
	}
	if s.Address == "" {
		id := notify.Progress(p.deps.Notify, "First time trading on this chain. Deploying account contract...")
		keyInt := new(big.Int).SetBytes(s.signer.Address().Bytes())
		address, err := p.deps.Caller.Deploy(ctx, p.deps.AccountContract, []*big.Int{keyInt})
		p.deps.Notify.Dismiss(id)
		if err != nil {
			notify.Errorf(p.deps.Notify, "Account contract deployment failed")
			return fmt.Errorf("%w: deploy: %v", ErrBootstrapFailed, err)
		}
		if err := p.deps.Store.Set(storage.AccountAddressKey(p.chainID), address); err != nil {
			return err
		}
		s.Address = address
		s.AccountID = address
		notify.Successf(p.deps.Notify, "Account contract deployed")
	}

	if _, ok, err := p.deps.Store.Get(storage.AccountInitializedKey(p.chainID)); err != nil {
		return err
	} else if !ok {
		id := notify.Progress(p.deps.Notify, "Initializing account")
		addrInt, err := parseFelt(s.Address)
		if err != nil {
			return err
		}
		_, err = p.deps.Caller.Invoke(ctx, s.Address, "initialize", []*big.Int{addrInt}, nil)
		p.deps.Notify.Dismiss(id)
		if err != nil {
			return fmt.Errorf("%w: initialize: %v", ErrBootstrapFailed, err)
		}
		if err := p.deps.Store.Set(storage.AccountInitializedKey(p.chainID), "1"); err != nil {
			return err
		}
	}

	id := notify.Progress(p.deps.Notify, "Waiting on balances to load...")
	balances, err := p.Balances(ctx, s)
	p.deps.Notify.Dismiss(id)
	if err != nil {
		return fmt.Errorf("%w: balances: %v", ErrBootstrapFailed, err)
	}
	for _, cur := range p.deps.Registry.Symbols() {
		bal, ok := balances[cur]
		if !ok || bal.Amount.Sign() != 0 {
			continue
		}
		notify.Infof(p.deps.Notify, fmt.Sprintf("No %s found. Minting you some", cur))
		if err := p.mint(ctx, s, cur); err != nil {
			return fmt.Errorf("%w: mint %s: %v", ErrBootstrapFailed, cur, err)
		}
	}
	return nil
}

func (p *Proof) mint(ctx context.Context, s *Session, cur string) error {
	params, err := p.deps.Registry.ChainParams(cur, p.chainID)
	if err != nil {
		return err
	}
	addrInt, err := parseFelt(s.Address)
	if err != nil {
		return err
	}
	amount := mintAmountOther
	if cur == "ETH" {
		amount = mintAmountETH
	}
	_, err = p.deps.Caller.Invoke(ctx, params.ContractAddress, "mint",
		[]*big.Int{addrInt, amount, big.NewInt(0)}, nil)
	return err
}

// Balances reads every registered currency's balance via read-only
// contract calls.
func (p *Proof) Balances(ctx context.Context, s *Session) (Balances, error) {
	if !s.Valid() {
		return nil, ErrSessionClosed
	}
	addrInt, err := parseFelt(s.Address)
	if err != nil {
		return nil, err
	}
	out := make(Balances)
	for _, cur := range p.deps.Registry.Symbols() {
		params, err := p.deps.Registry.ChainParams(cur, p.chainID)
		if err != nil {
			return nil, err
		}
		result, err := p.deps.Caller.Call(ctx, params.ContractAddress, "balance_of", []*big.Int{addrInt})
		if err != nil {
			return nil, fmt.Errorf("balance_of %s: %w", cur, err)
		}
		if len(result) == 0 {
			return nil, fmt.Errorf("balance_of %s: empty result", cur)
		}
		out[cur] = Balance{Amount: result[0]}
	}
	return out, nil
}

func (p *Proof) Allowance(ctx context.Context, s *Session, cur string) (*big.Int, error) {
	if !s.Valid() {
		return nil, ErrSessionClosed
	}
	params, err := p.deps.Registry.ChainParams(cur, p.chainID)
	if err != nil {
		return nil, err
	}
	addrInt, err := parseFelt(s.Address)
	if err != nil {
		return nil, err
	}
	spenderInt, err := parseFelt(p.deps.ExchangeAddress)
	if err != nil {
		return nil, err
	}
	result, err := p.deps.Caller.Call(ctx, params.ContractAddress, "allowance", []*big.Int{addrInt, spenderInt})
	if err != nil {
		return nil, fmt.Errorf("allowance %s: %w", cur, err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("allowance %s: empty result", cur)
	}
	return result[0], nil
}

// SetAllowance approves the exchange contract to spend the given amount.
// The invocation is signed with the session keypair; the account contract
// verifies the signature on-chain.
func (p *Proof) SetAllowance(ctx context.Context, s *Session, cur string, amount *big.Int) error {
	if !s.Valid() {
		return ErrSessionClosed
	}
	params, err := p.deps.Registry.ChainParams(cur, p.chainID)
	if err != nil {
		return err
	}
	spenderInt, err := parseFelt(p.deps.ExchangeAddress)
	if err != nil {
		return err
	}
	calldata := []*big.Int{spenderInt, amount, big.NewInt(0)}
	sig, err := signInvoke(s.signer, params.ContractAddress, "approve", calldata)
	if err != nil {
		return err
	}
	_, err = p.deps.Caller.Invoke(ctx, params.ContractAddress, "approve", calldata, sig)
	return err
}

// BuildOrder hashes and signs the order for the proof chain, returning the
// plain-field array with the signature pair appended.
func (p *Proof) BuildOrder(ctx context.Context, s *Session, req order.Request) (any, error) {
	if !s.Valid() {
		return nil, ErrSessionClosed
	}
	base, quote, err := order.SplitMarket(req.Market)
	if err != nil {
		return nil, err
	}
	side, err := order.ParseSide(string(req.Side))
	if err != nil {
		return nil, err
	}
	if !req.Price.IsPositive() {
		return nil, fmt.Errorf("%w: %s", order.ErrInvalidPrice, req.Price)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", order.ErrInvalidAmount, req.Amount)
	}
	baseInfo, err := p.deps.Registry.Lookup(base)
	if err != nil {
		return nil, err
	}
	quoteInfo, err := p.deps.Registry.Lookup(quote)
	if err != nil {
		return nil, err
	}
	baseParams, err := p.deps.Registry.ChainParams(base, p.chainID)
	if err != nil {
		return nil, err
	}
	quoteParams, err := p.deps.Registry.ChainParams(quote, p.chainID)
	if err != nil {
		return nil, err
	}

	// The numerator/denominator representation is only defined for
	// USD-stable quotes so far.
	if quote != "USDT" && quote != "USDC" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPair, req.Market)
	}
	decimalDiff := int32(baseInfo.Decimals) - int32(quoteInfo.Decimals)
	priceDenominator := decimal.NewFromInt(1).Div(req.Price).Shift(decimalDiff).Round(0).BigInt()

	sideInt := uint8(0)
	if side == order.Sell {
		sideInt = 1
	}
	fields := zzcrypto.OrderFields{
		ChainID:          p.chainID,
		AccountAddress:   s.Address,
		BaseAsset:        baseParams.ContractAddress,
		QuoteAsset:       quoteParams.ContractAddress,
		Side:             sideInt,
		BaseQuantity:     req.Amount.Shift(int32(baseInfo.Decimals)).Round(0).BigInt(),
		PriceNumerator:   big.NewInt(1),
		PriceDenominator: priceDenominator,
		Expiration:       p.deps.Clock.Now().Unix() + proofOrderValidity,
	}
	payload, err := zzcrypto.SignOrder(s.signer, fields)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// SubmitOrder ensures the exchange has a sufficient allowance on the sell
// currency, then signs and sends the order.
func (p *Proof) SubmitOrder(ctx context.Context, s *Session, req order.Request) error {
	if !s.Valid() {
		return ErrSessionClosed
	}
	base, quote, err := order.SplitMarket(req.Market)
	if err != nil {
		return err
	}
	side, err := order.ParseSide(string(req.Side))
	if err != nil {
		return err
	}
	sellCurrency := quote
	if side == order.Sell {
		sellCurrency = base
	}
	p.ensureAllowance(ctx, s, sellCurrency)

	payload, err := p.BuildOrder(ctx, s, req)
	if err != nil {
		return err
	}
	p.deps.Log.Infow("submit_order", "chain", p.chainID, "market", req.Market, "side", req.Side)
	return p.deps.Conn.Send(protocol.SubmitOrder(p.chainID, payload))
}

// ensureAllowance checks the cached allowance, re-queries the chain when
// the cache is cold or low, and approves more when still short. An approve
// failure is reported, not retried: the account contract may still be
// initializing, and the resting order is submitted regardless.
func (p *Proof) ensureAllowance(ctx context.Context, s *Session, cur string) {
	var allowance *big.Int
	cached, ok, err := p.deps.Store.Get(storage.AllowanceKey(p.chainID, cur))
	if err == nil && ok {
		allowance, _ = new(big.Int).SetString(cached, 10)
	}
	if allowance == nil || allowance.Cmp(approveTarget) < 0 {
		id := notify.Progress(p.deps.Notify, fmt.Sprintf("Checking allowances on %s", cur))
		onchain, err := p.Allowance(ctx, s, cur)
		p.deps.Notify.Dismiss(id)
		if err != nil {
			p.deps.Log.Warnw("allowance_check_failed", "currency", cur, "err", err)
			return
		}
		allowance = onchain
		if err := p.deps.Store.Set(storage.AllowanceKey(p.chainID, cur), allowance.String()); err != nil {
			p.deps.Log.Warnw("allowance_cache_failed", "currency", cur, "err", err)
		}
	}
	if allowance.Cmp(approveTarget) < 0 {
		id := notify.Progress(p.deps.Notify, fmt.Sprintf("Setting allowance on %s", cur))
		err := p.SetAllowance(ctx, s, cur, approveTarget)
		p.deps.Notify.Dismiss(id)
		if err != nil {
			notify.Errorf(p.deps.Notify, "Your account is still initializing. Try again in 1 min")
			p.deps.Log.Warnw("approve_failed", "currency", cur, "err", err)
		}
	}
}

// SubmitFill is not part of the proof chain's client contract: fills are
// settled engine-side against the resting order's signature.
func (p *Proof) SubmitFill(ctx context.Context, s *Session, receipt order.Receipt) error {
	return fmt.Errorf("%w: fill requests on proof chain", ErrUnsupportedOperation)
}

func (p *Proof) CancelOrder(ctx context.Context, s *Session, orderID uint64) error {
	if !s.Valid() {
		return ErrSessionClosed
	}
	return p.deps.Conn.Send(protocol.CancelOrder(p.chainID, orderID))
}

func (p *Proof) CancelAll(ctx context.Context, s *Session) error {
	if !s.Valid() {
		return ErrSessionClosed
	}
	return p.deps.Conn.Send(protocol.CancelAll(p.chainID, s.AccountID))
}

// parseFelt parses a 0x-prefixed hex field element into an integer.
func parseFelt(addr string) (*big.Int, error) {
	if addr == "" {
		return nil, fmt.Errorf("empty address")
	}
	s := addr
	if len(s) >= 2 && s[:2] == "0x" {
		s = s[2:]
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("invalid address %q", addr)
	}
	return v, nil
}

// signInvoke signs a contract invocation with the session keypair: keccak
// over contract, selector and calldata words, signed as an {r, s} pair.
func signInvoke(signer *zzcrypto.Signer, contract, entryPoint string, calldata []*big.Int) ([]*big.Int, error) {
	contractInt, err := parseFelt(contract)
	if err != nil {
		return nil, err
	}
	selector := new(big.Int).SetBytes(ethcrypto.Keccak256([]byte(entryPoint)))
	words := make([]byte, 0, 32*(2+len(calldata)))
	words = append(words, padWord(contractInt)...)
	words = append(words, padWord(selector)...)
	for _, w := range calldata {
		words = append(words, padWord(w)...)
	}
	sig, err := signer.Sign(ethcrypto.Keccak256(words))
	if err != nil {
		return nil, err
	}
	r, s, err := zzcrypto.SignatureRS(sig)
	if err != nil {
		return nil, err
	}
	return []*big.Int{r, s}, nil
}

func padWord(v *big.Int) []byte {
	b := v.Bytes()
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}
