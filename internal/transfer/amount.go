package transfer

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxDecimals is the largest token precision accepted by the codec.
	MaxDecimals = 36
	// DefaultDecimals is used when a token does not answer decimals().
	DefaultDecimals = 18

	base10 = 10
)

// TokenAmount is a user-entered decimal amount together with the token precision.
type TokenAmount struct {
	Text     string
	Decimals uint8
}

// BaseUnits converts the amount, see ToBaseUnits.
func (a TokenAmount) BaseUnits() (*big.Int, error) {
	return ToBaseUnits(a.Text, a.Decimals)
}

// ToBaseUnits converts a non-negative decimal numeral into token base units.
// The fractional part is truncated (never rounded) or right-padded to exactly
// decimals digits before the digits are parsed as one integer.
func ToBaseUnits(text string, decimals uint8) (*big.Int, error) {
	if decimals > MaxDecimals {
		return nil, NewError(KindInvalidAmountFormat, "decimals %d exceeds %d", decimals, MaxDecimals)
	}

	intPart, fracPart, err := splitDecimal(text)
	if err != nil {
		return nil, err
	}

	if len(fracPart) > int(decimals) {
		fracPart = fracPart[:decimals]
	} else {
		fracPart += strings.Repeat("0", int(decimals)-len(fracPart))
	}

	digits := strings.TrimLeft(intPart+fracPart, "0")
	if digits == "" {
		return new(big.Int), nil
	}

	v, ok := new(big.Int).SetString(digits, base10)
	if !ok {
		return nil, NewError(KindInvalidAmountFormat, "%q is not a decimal number", text)
	}

	return v, nil
}

// FormatBaseUnits renders base units as a plain decimal string with trailing
// zeros removed, the inverse of ToBaseUnits for inputs with at most decimals
// fractional digits.
func FormatBaseUnits(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}

	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

// TruncateAmount returns text cut to at most decimals fractional digits, in the
// canonical form FormatBaseUnits produces.
func TruncateAmount(text string, decimals uint8) (string, error) {
	v, err := ToBaseUnits(text, decimals)
	if err != nil {
		return "", err
	}

	return FormatBaseUnits(v, decimals), nil
}

// splitDecimal validates text and returns its integer and fractional digits.
// Accepted forms: "12", "12.", "12.5", ".5". Signs, exponents, grouping and
// whitespace inside the number are rejected.
func splitDecimal(text string) (string, string, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return "", "", NewError(KindInvalidAmountFormat, "amount is empty")
	}

	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if hasDot && strings.Contains(fracPart, ".") {
		return "", "", NewError(KindInvalidAmountFormat, "%q has more than one decimal separator", text)
	}

	if intPart == "" && fracPart == "" {
		return "", "", NewError(KindInvalidAmountFormat, "%q has no digits", text)
	}

	if !isDigits(intPart) || !isDigits(fracPart) {
		return "", "", NewError(KindInvalidAmountFormat, "%q is not a non-negative decimal number", text)
	}

	return intPart, fracPart, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
