// Package currencypkg provides common currency related functionality for apps.
package currencypkg

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Constants for all supported currencies.
const (
	BWP = "BWP"
	USD = "USD"
	ZAR = "ZAR"
)

// SupportedCurrencies holds all the supported currencies.
var SupportedCurrencies = []string{
	BWP,
	USD,
	ZAR,
}

// minorUnits maps a currency to the number of decimal places of its
// smallest representable unit.
var minorUnits = map[string]int32{
	BWP: 2,
	USD: 2,
	ZAR: 2,
}

// IsSupportedCurrency returns true if the currency is supported.
func IsSupportedCurrency(currency string) bool {
	for _, c := range SupportedCurrencies {
		if c == currency {
			return true
		}
	}

	return false
}

// MinorUnits returns the number of decimal places of the currency's
// smallest unit (2 for BWP thebe).
func MinorUnits(currency string) int32 {
	if u, ok := minorUnits[currency]; ok {
		return u
	}

	return 2
}

// IsRepresentable reports whether the amount can be expressed exactly
// in the currency's minor unit. The value decides, not the notation:
// "30.000" is a valid BWP amount, "30.001" is not.
func IsRepresentable(amount decimal.Decimal, currency string) bool {
	return amount.Equal(amount.Truncate(MinorUnits(currency)))
}

// ValidCurrency validates a request field as a supported currency code.
var ValidCurrency validator.Func = func(fieldLevel validator.FieldLevel) bool {
	if currency, ok := fieldLevel.Field().Interface().(string); ok {
		return IsSupportedCurrency(currency)
	}

	return false
}
