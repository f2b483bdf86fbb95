package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds the locally generated secp256k1 keypair used to sign orders
// for the proof-based chain. The private key never leaves this type; callers
// only get opaque signing operations and the derived address.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// GenerateKey creates a new random keypair.
func GenerateKey() (*Signer, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return newSigner(privateKey), nil
}

// FromPrivateKeyHex restores a Signer from a hex-encoded private key
// (64 hex chars, with or without 0x prefix) as persisted in the local store.
func FromPrivateKeyHex(hexKey string) (*Signer, error) {
	if len(hexKey) >= 2 && hexKey[:2] == "0x" {
		hexKey = hexKey[2:]
	}
	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return newSigner(privateKey), nil
}

func newSigner(privateKey *ecdsa.PrivateKey) *Signer {
	pub := privateKey.Public().(*ecdsa.PublicKey)
	return &Signer{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(*pub),
	}
}

// Address returns the address derived from the public key.
func (s *Signer) Address() common.Address {
	return s.address
}

// PrivateKeyHex returns the private key as hex without 0x prefix.
// Only the local store should ever see this value.
func (s *Signer) PrivateKeyHex() string {
	return fmt.Sprintf("%x", crypto.FromECDSA(s.privateKey))
}

// Sign signs a 32-byte digest and returns the signature in [R || S || V] form.
func (s *Signer) Sign(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	sig, err := crypto.Sign(hash, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return sig, nil
}

// SignatureRS splits a 65-byte signature into its R and S components.
// The proof chain's wire payload carries the pair as decimal strings.
func SignatureRS(signature []byte) (r, s *big.Int, err error) {
	if len(signature) != 65 {
		return nil, nil, fmt.Errorf("invalid signature length: %d", len(signature))
	}
	r = new(big.Int).SetBytes(signature[:32])
	s = new(big.Int).SetBytes(signature[32:64])
	return r, s, nil
}

// VerifySignature reports whether signature over hash was produced by address.
func VerifySignature(address common.Address, hash, signature []byte) bool {
	if len(signature) != 65 || len(hash) != 32 {
		return false
	}
	pubBytes, err := crypto.Ecrecover(hash, signature)
	if err != nil {
		return false
	}
	pub, err := crypto.UnmarshalPubkey(pubBytes)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub) == address
}
