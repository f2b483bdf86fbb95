package order

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zigzag-exchange/zigzag-go/pkg/currency"
)

// Slippage margins applied to fill requests. These absorb the matching
// engine's rounding asymmetry and are part of the wire contract: a fill
// priced without them can be rejected or under-fill.
var (
	fillBuyPriceMargin  = decimal.RequireFromString("0.9997")
	fillSellPriceMargin = decimal.RequireFromString("1.0003")
	fillSellQtyMargin   = decimal.RequireFromString("1.0001")
)

// Builder converts raw trading intents into fee-adjusted payloads using the
// currency registry's fee constants and precision rules.
type Builder struct {
	registry *currency.Registry
}

func NewBuilder(registry *currency.Registry) *Builder {
	return &Builder{registry: registry}
}

// Build reconciles the settlement fee into the order quantities.
//
// The sell quantity always carries the full gas fee for the sell currency,
// and the effective price is recomputed so the sell/buy ratio stays
// consistent, then rounded to 6 significant digits to match the matching
// engine's accepted precision.
func (b *Builder) Build(req Request) (FeeAdjusted, error) {
	base, quote, err := SplitMarket(req.Market)
	if err != nil {
		return FeeAdjusted{}, err
	}
	if _, err := ParseSide(string(req.Side)); err != nil {
		return FeeAdjusted{}, err
	}
	if !req.Price.IsPositive() {
		return FeeAdjusted{}, fmt.Errorf("%w: %s", ErrInvalidPrice, req.Price)
	}
	if !req.Amount.IsPositive() {
		return FeeAdjusted{}, fmt.Errorf("%w: %s", ErrInvalidAmount, req.Amount)
	}

	amount := req.Amount
	// Stable-coin bases get the engine's own odd normalization: round at
	// 7 decimals, then truncate to 6.
	if base == "USDC" || base == "USDT" {
		amount = amount.Round(7).Truncate(6)
	}
	price := RoundSig(req.Price, 8)

	var tokenSell, tokenBuy string
	var sellQuantity, buyQuantity decimal.Decimal
	switch req.Side {
	case Buy:
		tokenBuy = base
		tokenSell = quote
		buyQuantity = amount
		sellQuantity = amount.Mul(price)
	case Sell:
		tokenBuy = quote
		tokenSell = base
		buyQuantity = amount.Mul(price)
		sellQuantity = amount
	}

	sellInfo, err := b.registry.Lookup(tokenSell)
	if err != nil {
		return FeeAdjusted{}, err
	}
	if _, err := b.registry.Lookup(tokenBuy); err != nil {
		return FeeAdjusted{}, err
	}

	sellWithFee := sellQuantity.Add(sellInfo.GasFee)
	var priceWithFee decimal.Decimal
	if req.Side == Buy {
		priceWithFee = RoundSig(sellWithFee.Div(buyQuantity), 6)
	} else {
		priceWithFee = RoundSig(buyQuantity.Div(sellWithFee), 6)
	}

	return FeeAdjusted{
		TokenSell:    tokenSell,
		TokenBuy:     tokenBuy,
		SellQuantity: sellWithFee,
		BuyQuantity:  buyQuantity,
		Price:        priceWithFee,
	}, nil
}

// BuildFill prepares a fill against a resting order, applying the fixed
// slippage margins: buy side discounts the price by 0.9997, sell side pads
// it by 1.0003 and pads the sell quantity by 1.0001.
func (b *Builder) BuildFill(r Receipt) (Fill, error) {
	base, quote, err := SplitMarket(r.Market)
	if err != nil {
		return Fill{}, err
	}

	var fill Fill
	switch r.Side {
	case Buy:
		fill.TokenSell = base
		fill.TokenBuy = quote
		fill.Price = r.Price.Mul(fillBuyPriceMargin)
		fill.SellQuantity = RoundSig(r.BaseQuantity, 8)
	case Sell:
		fill.TokenSell = quote
		fill.TokenBuy = base
		fill.Price = r.Price.Mul(fillSellPriceMargin)
		fill.SellQuantity = r.QuoteQuantity.Mul(fillSellQtyMargin).Round(6)
	default:
		return Fill{}, fmt.Errorf("%w: %q", ErrInvalidSide, r.Side)
	}
	if _, err := b.registry.Lookup(fill.TokenSell); err != nil {
		return Fill{}, err
	}
	fill.Price = fill.Price.Round(6)
	return fill, nil
}

// OrderDetailsWithoutFee backs the settlement fee out of a resting order for
// display. Remaining defaults to the full base quantity when the backend has
// not reported it, and never goes negative.
func (b *Builder) OrderDetailsWithoutFee(r Receipt) (Details, error) {
	base, quote, err := SplitMarket(r.Market)
	if err != nil {
		return Details{}, err
	}
	quoteQuantity := r.Price.Mul(r.BaseQuantity)
	remaining := r.BaseQuantity
	if r.Remaining.Valid {
		remaining = r.Remaining.Decimal
	}

	var d Details
	switch r.Side {
	case Sell:
		info, err := b.registry.Lookup(base)
		if err != nil {
			return Details{}, err
		}
		d.BaseQuantity = r.BaseQuantity.Sub(info.GasFee)
		if !d.BaseQuantity.IsPositive() {
			return Details{}, fmt.Errorf("%w: quantity %s does not cover the %s settlement fee",
				ErrInvalidAmount, r.BaseQuantity, base)
		}
		d.Remaining = decimal.Max(decimal.Zero, remaining.Sub(info.GasFee))
		d.Price = quoteQuantity.Div(d.BaseQuantity)
		d.QuoteQuantity = d.Price.Mul(d.BaseQuantity)
	case Buy:
		info, err := b.registry.Lookup(quote)
		if err != nil {
			return Details{}, err
		}
		d.QuoteQuantity = quoteQuantity.Sub(info.GasFee)
		if !r.BaseQuantity.IsPositive() {
			return Details{}, fmt.Errorf("%w: %s", ErrInvalidAmount, r.BaseQuantity)
		}
		if !d.QuoteQuantity.IsPositive() {
			return Details{}, fmt.Errorf("%w: volume %s does not cover the %s settlement fee",
				ErrInvalidAmount, quoteQuantity, quote)
		}
		d.Price = d.QuoteQuantity.Div(r.BaseQuantity)
		d.BaseQuantity = d.QuoteQuantity.Div(d.Price)
		d.Remaining = decimal.Min(d.BaseQuantity, remaining)
	default:
		return Details{}, fmt.Errorf("%w: %q", ErrInvalidSide, r.Side)
	}
	return d, nil
}

// FillDetailsWithoutFee backs the settlement fee out of an executed fill.
func (b *Builder) FillDetailsWithoutFee(r Receipt) (Details, error) {
	d, err := b.OrderDetailsWithoutFee(r)
	if err != nil {
		return Details{}, err
	}
	d.Remaining = decimal.Zero
	return d, nil
}

// RoundSig rounds to the given number of significant digits, half away from
// zero, mirroring the engine's accepted precision.
func RoundSig(d decimal.Decimal, digits int32) decimal.Decimal {
	if d.IsZero() {
		return d
	}
	magnitude := int32(d.NumDigits()) + d.Exponent()
	return d.Round(digits - magnitude)
}
