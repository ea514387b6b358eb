package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in the minor units of its currency: cents for
// USD, yen for JPY, fils for KWD.
type Amount int64

var ErrInvalidAmount = errors.New("invalid amount")

// ISO 4217 currencies whose minor unit is not a hundredth.
var currencyExponents = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0,
	"KRW": 0, "PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0,
	"XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// Exponent is the number of decimal places of the currency's minor unit.
// Unknown and empty codes use two.
func Exponent(currency string) int32 {
	if exp, ok := currencyExponents[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}

// ParseMoney parses a decimal string in major units of currency, such as
// "248.24" USD or "120.125" KWD. Values finer than the currency's minor unit
// are rejected.
func ParseMoney(s, currency string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	minor := d.Shift(Exponent(currency))
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: %q has more decimals than %s allows", ErrInvalidAmount, s, currencyLabel(currency))
	}
	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}
	return Amount(minor.IntPart()), nil
}

// ParseAmount parses a two-decimal amount such as a price-list value.
func ParseAmount(s string) (Amount, error) {
	return ParseMoney(s, "")
}

// MustAmount is ParseAmount for constants.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// InCurrency converts a price-list amount, kept in hundredths, to minor
// units of currency. Zero-decimal currencies round half away from zero.
func (a Amount) InCurrency(currency string) Amount {
	exp := Exponent(currency)
	if exp == 2 {
		return a
	}
	return Amount(decimal.New(int64(a), -2).Shift(exp).Round(0).IntPart())
}

// Format renders a in major units of currency.
func (a Amount) Format(currency string) string {
	exp := Exponent(currency)
	return decimal.New(int64(a), -exp).StringFixed(exp)
}

func (a Amount) String() string {
	return a.Format("")
}

func currencyLabel(currency string) string {
	if currency == "" {
		return "a two-decimal amount"
	}
	return strings.ToUpper(currency)
}

// Money pairs an amount with its ISO currency code.
type Money struct {
	Amount   Amount `json:"amount"`
	Currency string `json:"currency"`
}
