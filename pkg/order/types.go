package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side of an order. The wire protocol uses single-letter sides.
type Side string

const (
	Buy  Side = "b"
	Sell Side = "s"
)

var (
	ErrInvalidSide = errors.New("invalid side")
	// ErrInvalidPrice and ErrInvalidAmount reject non-positive inputs before
	// they reach the ratio arithmetic, which divides by both.
	ErrInvalidPrice  = errors.New("invalid price")
	ErrInvalidAmount = errors.New("invalid amount")
)

// ParseSide validates a raw side string.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Buy, Sell:
		return Side(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

// Request is a user's raw trading intent, before fee reconciliation.
// Market is "BASE-QUOTE", e.g. "ETH-USDT". Price and Amount are in whole
// currency units.
type Request struct {
	Market string
	Side   Side
	Price  decimal.Decimal
	Amount decimal.Decimal
}

// SplitMarket breaks a "BASE-QUOTE" market symbol into its currencies.
func SplitMarket(market string) (base, quote string, err error) {
	parts := strings.SplitN(market, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed market %q", market)
	}
	return parts[0], parts[1], nil
}

// FeeAdjusted is an order payload whose sell quantity embeds the settlement
// fee, so the counterparty receives the intended net amount. Derived per
// request, never persisted.
type FeeAdjusted struct {
	TokenSell    string
	TokenBuy     string
	SellQuantity decimal.Decimal // fee-inclusive
	BuyQuantity  decimal.Decimal
	Price        decimal.Decimal // effective ratio after fee, 6 significant digits
}

// Receipt is the backend's view of a resting order, as delivered by an
// inbound event. Remaining is null until the backend reports a partial fill.
type Receipt struct {
	ChainID       uint64
	OrderID       uint64
	Market        string
	Side          Side
	Price         decimal.Decimal
	BaseQuantity  decimal.Decimal
	QuoteQuantity decimal.Decimal
	Remaining     decimal.NullDecimal
}

// Fill is a fee- and slippage-adjusted fill against a resting order.
type Fill struct {
	TokenSell    string
	TokenBuy     string
	SellQuantity decimal.Decimal
	Price        decimal.Decimal // ratio quote price, 6 decimal places
}

// Details is an order or fill with the settlement fee backed out, for
// display to the user.
type Details struct {
	Price         decimal.Decimal
	BaseQuantity  decimal.Decimal
	QuoteQuantity decimal.Decimal
	Remaining     decimal.Decimal
}
