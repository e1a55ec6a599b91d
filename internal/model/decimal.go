package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Limits of a stored value, matching the NUMERIC(20, 10) column.
const (
	MaxDigits        = 20
	MaxDecimalPlaces = 10
	MaxWholeDigits   = MaxDigits - MaxDecimalPlaces
)

// CheckDecimal returns a message when d does not fit a stored value, or "".
// It never formats d, so huge exponents are rejected without expanding them.
func CheckDecimal(d decimal.Decimal) string {
	coef := d.Coefficient()
	coef.Abs(coef)
	// 2^70 > 10^21, so anything longer cannot fit and is not worth printing.
	if coef.BitLen() > 70 {
		return fmt.Sprintf("ensure there are no more than %d digits in total", MaxDigits)
	}
	n := int64(len(coef.String()))
	exp := int64(d.Exponent())

	var whole, decimals int64
	if exp >= 0 {
		whole = n + exp
	} else {
		decimals = -exp
		whole = max(n-decimals, 0)
	}
	switch {
	case whole+decimals > MaxDigits:
		return fmt.Sprintf("ensure there are no more than %d digits in total", MaxDigits)
	case decimals > MaxDecimalPlaces:
		return fmt.Sprintf("ensure there are no more than %d decimal places", MaxDecimalPlaces)
	case whole > MaxWholeDigits:
		return fmt.Sprintf("ensure there are no more than %d digits before the decimal point", MaxWholeDigits)
	}
	return ""
}
