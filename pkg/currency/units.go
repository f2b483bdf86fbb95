package currency

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ToBaseUnits converts a whole-unit amount into the currency's smallest unit
// as an integer, truncating anything finer than the declared precision.
// Every amount crossing the wire goes through this conversion.
func ToBaseUnits(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).Truncate(0).BigInt()
}

// FromBaseUnits converts a smallest-unit integer back into whole units.
func FromBaseUnits(amount *big.Int, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(amount, 0).Shift(-int32(decimals))
}
