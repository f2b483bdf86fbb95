package crypto

import (
	"bytes"
	"math/big"
	"testing"
)

func testOrder() OrderFields {
	return OrderFields{
		ChainID:          1001,
		AccountAddress:   "0x07a1b2c3d4e5f60718293a4b5c6d7e8f9a0b1c2d3e4f5a6b7c8d9e0f1a2b3c4d",
		BaseAsset:        "0x06a75fdd9c9e376aebf43ece91ffb315dbaa753f9c0ddfeb8d7f3af0124cd0b6",
		QuoteAsset:       "0x03d3af6e3567c48173ff9b9ae7efc1816562e558ee0cc9abc0fe1862b2931d9a",
		Side:             1,
		BaseQuantity:     big.NewInt(1_000_000_000_000_000_000),
		PriceNumerator:   big.NewInt(1),
		PriceDenominator: big.NewInt(500_000_000),
		Expiration:       1700000000,
	}
}

func TestOrderHashDeterministic(t *testing.T) {
	h1, err := OrderHash(testOrder())
	if err != nil {
		t.Fatalf("OrderHash: %v", err)
	}
	h2, err := OrderHash(testOrder())
	if err != nil {
		t.Fatalf("OrderHash: %v", err)
	}
	if !bytes.Equal(h1, h2) {
		t.Error("same order hashed to different digests")
	}
	if len(h1) != 32 {
		t.Errorf("digest length = %d, want 32", len(h1))
	}
}

func TestOrderHashBindsEveryField(t *testing.T) {
	base, err := OrderHash(testOrder())
	if err != nil {
		t.Fatalf("OrderHash: %v", err)
	}

	mutations := map[string]func(*OrderFields){
		"chain":       func(o *OrderFields) { o.ChainID = 1000 },
		"account":     func(o *OrderFields) { o.AccountAddress = "0x01" },
		"base asset":  func(o *OrderFields) { o.BaseAsset = "0x02" },
		"quote asset": func(o *OrderFields) { o.QuoteAsset = "0x03" },
		"side":        func(o *OrderFields) { o.Side = 0 },
		"quantity":    func(o *OrderFields) { o.BaseQuantity = big.NewInt(1) },
		"numerator":   func(o *OrderFields) { o.PriceNumerator = big.NewInt(2) },
		"denominator": func(o *OrderFields) { o.PriceDenominator = big.NewInt(2) },
		"expiration":  func(o *OrderFields) { o.Expiration = 1 },
	}
	for name, mutate := range mutations {
		o := testOrder()
		mutate(&o)
		h, err := OrderHash(o)
		if err != nil {
			t.Fatalf("OrderHash after %s change: %v", name, err)
		}
		if bytes.Equal(base, h) {
			t.Errorf("changing %s did not change the hash", name)
		}
	}
}

func TestOrderHashRejectsBadAddress(t *testing.T) {
	o := testOrder()
	o.AccountAddress = "not-hex"
	if _, err := OrderHash(o); err == nil {
		t.Error("invalid account address accepted")
	}
}

func TestSignOrderPayload(t *testing.T) {
	signer, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	o := testOrder()
	payload, err := SignOrder(signer, o)
	if err != nil {
		t.Fatalf("SignOrder: %v", err)
	}
	if len(payload) != 11 {
		t.Fatalf("payload length = %d, want 11", len(payload))
	}
	if payload[0] != "1001" || payload[4] != "1" || payload[8] != "1700000000" {
		t.Errorf("plain fields mis-ordered: %v", payload[:9])
	}
	if payload[5] != o.BaseQuantity.String() {
		t.Errorf("baseQuantity = %s, want %s", payload[5], o.BaseQuantity)
	}

	// The trailing pair must be the actual signature over the order hash.
	// Signing is deterministic, so a fresh signature must match the payload.
	hash, err := OrderHash(o)
	if err != nil {
		t.Fatalf("OrderHash: %v", err)
	}
	sig, err := signer.Sign(hash)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !VerifySignature(signer.Address(), hash, sig) {
		t.Error("signature does not verify against the order hash")
	}
	r, s, err := SignatureRS(sig)
	if err != nil {
		t.Fatalf("SignatureRS: %v", err)
	}
	if payload[9] != r.String() || payload[10] != s.String() {
		t.Errorf("payload signature pair = %s/%s, want %s/%s", payload[9], payload[10], r, s)
	}
}

func TestSignerRoundTrip(t *testing.T) {
	signer, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	restored, err := FromPrivateKeyHex(signer.PrivateKeyHex())
	if err != nil {
		t.Fatalf("FromPrivateKeyHex: %v", err)
	}
	if restored.Address() != signer.Address() {
		t.Errorf("restored address = %s, want %s", restored.Address(), signer.Address())
	}
}
