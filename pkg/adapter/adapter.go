package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	zzcrypto "github.com/zigzag-exchange/zigzag-go/pkg/crypto"
	"github.com/zigzag-exchange/zigzag-go/pkg/currency"
	"github.com/zigzag-exchange/zigzag-go/pkg/notify"
	"github.com/zigzag-exchange/zigzag-go/pkg/order"
	"github.com/zigzag-exchange/zigzag-go/pkg/protocol"
	"github.com/zigzag-exchange/zigzag-go/pkg/storage"
	"github.com/zigzag-exchange/zigzag-go/pkg/util"
)

// Chain identifiers understood by the client.
const (
	ChainZkSyncMainnet  uint64 = 1
	ChainZkSyncRinkeby  uint64 = 1000
	ChainStarknetGoerli uint64 = 1001
)

var (
	ErrUnsupportedChain           = errors.New("unsupported chain")
	ErrUnsupportedOperation       = errors.New("unsupported operation")
	ErrAccountNotFound            = errors.New("account not found")
	ErrBootstrapFailed            = errors.New("bootstrap failed")
	ErrSigningKeyActivationFailed = errors.New("signing key activation failed")
	ErrSessionClosed              = errors.New("session closed")
	// ErrUnsupportedPair marks markets the proof chain's price-ratio
	// representation is not defined for yet. Extension point, not a bug.
	ErrUnsupportedPair = errors.New("unsupported market pair")
)

// Variant tags the settlement backend behind an adapter.
type Variant string

const (
	VariantRollup Variant = "rollup"
	VariantProof  Variant = "proof"
	VariantL1     Variant = "l1"
)

// Session is the authenticated state for one chain. At most one session is
// active per process; the Session Manager owns its lifecycle. Key material
// stays unexported: callers only get opaque signing through adapter calls.
type Session struct {
	ChainID   uint64
	Address   string
	AccountID string
	Variant   Variant

	signer      *zzcrypto.Signer
	invalidated bool
}

// Valid reports whether the session can still perform adapter operations.
// Every variant goes invalid on sign-out; proof-chain sessions additionally
// require their key material.
func (s *Session) Valid() bool {
	if s == nil || s.invalidated {
		return false
	}
	if s.Variant == VariantProof {
		return s.signer != nil
	}
	return true
}

// Invalidate marks the session unusable and discards key material on
// sign-out. Persisted bootstrap flags in the local store are untouched.
func (s *Session) Invalidate() {
	s.signer = nil
	s.invalidated = true
}

// Balance is an account's holding in one currency, in smallest units.
// Allowance is nil where the backend has no allowance concept.
type Balance struct {
	Amount    *big.Int
	Allowance *big.Int
}

// Balances maps currency symbol to balance.
type Balances map[string]Balance

// Adapter is the capability set shared by all settlement backends.
// Operations requiring an order flow return ErrUnsupportedOperation on
// partial adapters (the read-only L1 variant).
type Adapter interface {
	Variant() Variant
	ChainID() uint64

	// SignIn establishes the chain identity. It does not bootstrap.
	SignIn(ctx context.Context) (*Session, error)
	// Bootstrap performs idempotent first-use setup (key activation,
	// account deployment, initialization, starter mint). Safe to re-run
	// after a partial failure; persisted flags prevent duplicate
	// on-chain side effects.
	Bootstrap(ctx context.Context, s *Session) error

	Balances(ctx context.Context, s *Session) (Balances, error)
	Allowance(ctx context.Context, s *Session, cur string) (*big.Int, error)
	SetAllowance(ctx context.Context, s *Session, cur string, amount *big.Int) error

	// BuildOrder produces the chain-specific signed order payload without
	// sending it. SubmitOrder builds and sends.
	BuildOrder(ctx context.Context, s *Session, req order.Request) (any, error)
	SubmitOrder(ctx context.Context, s *Session, req order.Request) error
	SubmitFill(ctx context.Context, s *Session, receipt order.Receipt) error
	CancelOrder(ctx context.Context, s *Session, orderID uint64) error
	CancelAll(ctx context.Context, s *Session) error
}

// RollupOrderParams is the provider-native order request for the rollup.
// Ratio maps each token of the pair to its relative price.
type RollupOrderParams struct {
	TokenSell  string
	TokenBuy   string
	Amount     *big.Int // smallest units of TokenSell
	Ratio      map[string]decimal.Decimal
	ValidUntil int64 // unix seconds, 0 = provider default
}

// RollupAccountState mirrors the rollup provider's account view.
// AccountID is empty for unregistered accounts (no deposit yet).
type RollupAccountState struct {
	Address   string
	AccountID string
	Committed map[string]*big.Int // currency → smallest-unit balance
}

// RollupProvider is the signer-backed rollup wallet collaborator. Its order
// objects are opaque to this client; they are forwarded to the matching
// engine verbatim.
type RollupProvider interface {
	AccountState(ctx context.Context) (*RollupAccountState, error)
	IsSigningKeySet(ctx context.Context) (bool, error)
	SetSigningKey(ctx context.Context, feeToken string) error
	BuildOrder(ctx context.Context, p RollupOrderParams) (json.RawMessage, error)
}

// ContractCaller is the proof chain's read/write gateway collaborator.
type ContractCaller interface {
	Call(ctx context.Context, contract, entryPoint string, calldata []*big.Int) ([]*big.Int, error)
	Invoke(ctx context.Context, contract, entryPoint string, calldata, signature []*big.Int) (string, error)
	Deploy(ctx context.Context, contractDefinition json.RawMessage, constructorCalldata []*big.Int) (string, error)
}

// Deps carries the collaborators an adapter needs. Only the fields relevant
// to the selected variant must be set.
type Deps struct {
	Registry *currency.Registry
	Store    *storage.Store
	Conn     *protocol.Client
	Notify   notify.Sink
	Log      *zap.SugaredLogger
	Clock    util.Clock

	// Rollup
	Provider  RollupProvider
	FeePolicy FeeTokenPolicy

	// Proof chain
	Caller          ContractCaller
	ExchangeAddress string          // exchange contract, allowance spender
	AccountContract json.RawMessage // compiled account contract for deploy

	// Read-only L1
	L1Client     *ethclient.Client
	OwnerAddress common.Address
	L1Bridge     common.Address // allowance spender on L1
}

// ForChain selects the adapter for a chain identifier. Pure function of the
// id: 1 and 1000 are rollup networks, 1001 is the proof chain.
func ForChain(chainID uint64, deps Deps) (Adapter, error) {
	switch chainID {
	case ChainZkSyncMainnet, ChainZkSyncRinkeby:
		return NewRollup(chainID, deps), nil
	case ChainStarknetGoerli:
		return NewProof(chainID, deps), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChain, chainID)
	}
}

// ForL1 returns the read-only Ethereum adapter backing a rollup chain id.
// It supports balance and allowance queries only.
func ForL1(chainID uint64, deps Deps) (Adapter, error) {
	switch chainID {
	case ChainZkSyncMainnet, ChainZkSyncRinkeby:
		return NewL1(chainID, deps), nil
	default:
		return nil, fmt.Errorf("%w: %d has no L1 companion", ErrUnsupportedChain, chainID)
	}
}
