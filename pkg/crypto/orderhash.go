package crypto

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// OrderFields are the plain fields of a proof-chain order, in wire order.
// The field order is a wire-compatibility contract with the matching engine:
// the hash chain folds them in exactly this sequence and the signed payload
// lists them in exactly this sequence.
type OrderFields struct {
	ChainID          uint64
	AccountAddress   string // account contract address, 0x-prefixed hex
	BaseAsset        string // base token contract address
	QuoteAsset       string // quote token contract address
	Side             uint8  // 0 = buy, 1 = sell
	BaseQuantity     *big.Int
	PriceNumerator   *big.Int
	PriceDenominator *big.Int
	Expiration       int64 // unix seconds
}

// OrderHash computes the canonical hash of an order as an ordered binding
// accumulator: seed = H(chainID, accountAddress), then each subsequent field
// is folded in as H(acc, field). Every field is encoded as a 32-byte
// big-endian word, addresses as their integer value.
func OrderHash(o OrderFields) ([]byte, error) {
	account, err := addressToInt(o.AccountAddress)
	if err != nil {
		return nil, fmt.Errorf("account address: %w", err)
	}
	base, err := addressToInt(o.BaseAsset)
	if err != nil {
		return nil, fmt.Errorf("base asset: %w", err)
	}
	quote, err := addressToInt(o.QuoteAsset)
	if err != nil {
		return nil, fmt.Errorf("quote asset: %w", err)
	}

	acc := crypto.Keccak256(word(new(big.Int).SetUint64(o.ChainID)), word(account))
	for _, field := range []*big.Int{
		base,
		quote,
		new(big.Int).SetUint64(uint64(o.Side)),
		o.BaseQuantity,
		o.PriceNumerator,
		o.PriceDenominator,
		big.NewInt(o.Expiration),
	} {
		acc = crypto.Keccak256(acc, word(field))
	}
	return acc, nil
}

// SignOrder hashes the order fields and signs the digest, returning the
// signature pair appended to the plain fields as the wire payload:
// [chainId, account, baseAsset, quoteAsset, side, baseQuantity,
//  priceNumerator, priceDenominator, expiration, sigR, sigS].
func SignOrder(signer *Signer, o OrderFields) ([]string, error) {
	hash, err := OrderHash(o)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(hash)
	if err != nil {
		return nil, err
	}
	r, s, err := SignatureRS(sig)
	if err != nil {
		return nil, err
	}
	return []string{
		fmt.Sprintf("%d", o.ChainID),
		o.AccountAddress,
		o.BaseAsset,
		o.QuoteAsset,
		fmt.Sprintf("%d", o.Side),
		o.BaseQuantity.String(),
		o.PriceNumerator.String(),
		o.PriceDenominator.String(),
		fmt.Sprintf("%d", o.Expiration),
		r.String(),
		s.String(),
	}, nil
}

// word encodes a non-negative integer as a 32-byte big-endian word.
func word(v *big.Int) []byte {
	return common.BigToHash(v).Bytes()
}

// addressToInt parses a 0x-prefixed hex address into its integer value.
// Proof-chain addresses are field elements wider than 20 bytes, so they are
// handled as big integers rather than common.Address.
func addressToInt(addr string) (*big.Int, error) {
	s := addr
	if len(s) >= 2 && s[:2] == "0x" {
		s = s[2:]
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex address %q", addr)
	}
	return v, nil
}
