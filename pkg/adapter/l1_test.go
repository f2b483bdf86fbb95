package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/zigzag-exchange/zigzag-go/pkg/currency"
	"github.com/zigzag-exchange/zigzag-go/pkg/order"
)

func newL1UnderTest() *L1 {
	deps := Deps{
		Registry:     currency.Default(),
		Notify:       &recordingSink{},
		Log:          zap.NewNop().Sugar(),
		OwnerAddress: common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		L1Bridge:     common.HexToAddress("0x00000000000000000000000000000000000000bb"),
	}
	return NewL1(ChainZkSyncMainnet, deps)
}

func TestL1SignIn(t *testing.T) {
	l1 := newL1UnderTest()
	s, err := l1.SignIn(context.Background())
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if s.Variant != VariantL1 {
		t.Errorf("variant = %s, want l1", s.Variant)
	}
	want := common.HexToAddress("0x00000000000000000000000000000000000000aa").Hex()
	if s.Address != want {
		t.Errorf("Address = %q, want %q", s.Address, want)
	}
	if err := l1.Bootstrap(context.Background(), s); err != nil {
		t.Errorf("Bootstrap: %v", err)
	}
}

func TestL1NativeEthNeedsNoAllowance(t *testing.T) {
	l1 := newL1UnderTest()
	s, err := l1.SignIn(context.Background())
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	al, err := l1.Allowance(context.Background(), s, "ETH")
	if err != nil {
		t.Fatalf("Allowance(ETH): %v", err)
	}
	if al.Sign() != 0 {
		t.Errorf("ETH allowance = %s, want 0", al)
	}
}

func TestL1OrderOpsUnsupported(t *testing.T) {
	l1 := newL1UnderTest()
	ctx := context.Background()
	s, err := l1.SignIn(ctx)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	req := order.Request{Market: "ETH-USDT", Side: order.Sell}
	if _, err := l1.BuildOrder(ctx, s, req); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("BuildOrder: err = %v, want ErrUnsupportedOperation", err)
	}
	if err := l1.SubmitOrder(ctx, s, req); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("SubmitOrder: err = %v, want ErrUnsupportedOperation", err)
	}
	if err := l1.SubmitFill(ctx, s, order.Receipt{}); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("SubmitFill: err = %v, want ErrUnsupportedOperation", err)
	}
	if err := l1.CancelOrder(ctx, s, 1); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("CancelOrder: err = %v, want ErrUnsupportedOperation", err)
	}
	if err := l1.CancelAll(ctx, s); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("CancelAll: err = %v, want ErrUnsupportedOperation", err)
	}
	if err := l1.SetAllowance(ctx, s, "USDC", nil); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("SetAllowance: err = %v, want ErrUnsupportedOperation", err)
	}
}
