// Package wallet abstracts the user's key holder. The session manager only
// needs to know whether a wallet is present, which address it controls, and
// whether it agrees to operate on a given chain.
package wallet

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	zzcrypto "github.com/zigzag-exchange/zigzag-go/pkg/crypto"
)

var (
	// ErrNoWallet is returned when no wallet is attached to the client.
	ErrNoWallet = errors.New("no wallet available")
	// ErrSwitchRejected is returned when the wallet refuses to switch to
	// the requested chain.
	ErrSwitchRejected = errors.New("chain switch rejected")
)

// Wallet is a connected key holder.
type Wallet interface {
	// Address returns the wallet's primary account address.
	Address() common.Address
	// RequestChainSwitch asks the wallet to operate on the given chain.
	// Wallets that cannot or will not switch return ErrSwitchRejected.
	RequestChainSwitch(ctx context.Context, chainID uint64) error
}

// Local is a wallet backed by an in-process keypair. It accepts any chain
// switch; there is no external signer to ask.
type Local struct {
	signer *zzcrypto.Signer
}

// NewLocal wraps an existing keypair.
func NewLocal(signer *zzcrypto.Signer) *Local {
	return &Local{signer: signer}
}

// GenerateLocal creates a local wallet with a fresh keypair.
func GenerateLocal() (*Local, error) {
	signer, err := zzcrypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Local{signer: signer}, nil
}

func (l *Local) Address() common.Address { return l.signer.Address() }

func (l *Local) RequestChainSwitch(ctx context.Context, chainID uint64) error {
	return nil
}

// Signer exposes the underlying keypair for adapters that sign in-process.
func (l *Local) Signer() *zzcrypto.Signer { return l.signer }
