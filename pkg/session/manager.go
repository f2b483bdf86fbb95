// Package session owns the at-most-one authenticated chain session and the
// state machine around signing in, bootstrapping and signing out.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/zigzag-exchange/zigzag-go/pkg/adapter"
	"github.com/zigzag-exchange/zigzag-go/pkg/protocol"
	"github.com/zigzag-exchange/zigzag-go/pkg/wallet"
)

var (
	// ErrWalletUnavailable is returned when sign-in is attempted without a
	// connected wallet.
	ErrWalletUnavailable = errors.New("wallet unavailable")
	// ErrChainSwitchRejected is returned when the wallet refuses to move
	// to the requested chain.
	ErrChainSwitchRejected = errors.New("chain switch rejected")
	// ErrNotSignedIn is returned by operations that need an active session.
	ErrNotSignedIn = errors.New("not signed in")
)

// State is the manager's lifecycle position.
type State string

const (
	StateDisconnected      State = "disconnected"
	StateConnecting        State = "connecting"
	StateAwaitingBootstrap State = "awaiting_bootstrap"
	StateActive            State = "active"
)

// Manager drives sign-in end to end: wallet check, chain switch, adapter
// selection, bootstrap and the login announcement. At most one session is
// active at a time; a new SignIn replaces the previous session.
type Manager struct {
	wallet wallet.Wallet
	deps   adapter.Deps
	log    *zap.SugaredLogger

	mu      sync.Mutex
	state   State
	adapter adapter.Adapter
	session *adapter.Session
}

func NewManager(w wallet.Wallet, deps adapter.Deps) *Manager {
	return &Manager{
		wallet: w,
		deps:   deps,
		log:    deps.Log,
		state:  StateDisconnected,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns the active session, or nil when not signed in.
func (m *Manager) Session() *adapter.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Adapter returns the adapter backing the active session, or nil.
func (m *Manager) Adapter() adapter.Adapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adapter
}

// SignIn establishes a session on the given chain. Any failure rolls the
// manager back to Disconnected; a partial bootstrap can be resumed by
// calling SignIn again.
func (m *Manager) SignIn(ctx context.Context, chainID uint64) (*adapter.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.wallet == nil {
		return nil, ErrWalletUnavailable
	}
	m.state = StateConnecting

	if err := m.wallet.RequestChainSwitch(ctx, chainID); err != nil {
		m.state = StateDisconnected
		return nil, fmt.Errorf("%w: %v", ErrChainSwitchRejected, err)
	}

	ad, err := adapter.ForChain(chainID, m.deps)
	if err != nil {
		m.state = StateDisconnected
		return nil, err
	}

	s, err := ad.SignIn(ctx)
	if err != nil {
		m.state = StateDisconnected
		return nil, err
	}
	m.state = StateAwaitingBootstrap

	if err := ad.Bootstrap(ctx, s); err != nil {
		m.state = StateDisconnected
		return nil, err
	}

	if err := m.deps.Conn.Send(protocol.Login(chainID, s.AccountID)); err != nil {
		m.state = StateDisconnected
		return nil, fmt.Errorf("login: %w", err)
	}

	m.adapter = ad
	m.session = s
	m.state = StateActive
	m.log.Infow("signed_in", "chain", chainID, "account", s.AccountID, "variant", ad.Variant())
	return s, nil
}

// SignOut discards the session's key material and returns to Disconnected.
// Persisted bootstrap flags stay in the store, so signing back in does not
// repeat on-chain setup.
func (m *Manager) SignOut() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.Invalidate()
		m.log.Infow("signed_out", "chain", m.session.ChainID)
	}
	m.session = nil
	m.adapter = nil
	m.state = StateDisconnected
}

// AccountState refreshes balances through the active adapter.
func (m *Manager) AccountState(ctx context.Context) (adapter.Balances, error) {
	m.mu.Lock()
	ad, s := m.adapter, m.session
	m.mu.Unlock()
	if ad == nil || s == nil {
		return nil, ErrNotSignedIn
	}
	return ad.Balances(ctx, s)
}
