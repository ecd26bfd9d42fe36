package ledger

import (
	"errors"
	"strings"

	"github.com/govalues/money"
)

// DefaultCurrency is used when no ledger currency is configured.
const DefaultCurrency = "USD"

// Amount is a signed monetary value in minor units (cents for USD).
// Integer arithmetic keeps debit/credit equality exact.
type Amount int64

// MaxAmount bounds a single stored amount: an item debit or credit, or the
// magnitude of an account balance. For two-decimal currencies that is ten
// trillion units.
const MaxAmount Amount = 1_000_000_000_000_000

// ErrOverflow is returned when a sum or difference does not fit in an Amount.
var ErrOverflow = errors.New("amount overflow")

// InRange reports whether |a| <= MaxAmount.
func (a Amount) InRange() bool { return a >= -MaxAmount && a <= MaxAmount }

// Add returns a+b, or ErrOverflow instead of wrapping.
func (a Amount) Add(b Amount) (Amount, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b, or ErrOverflow instead of wrapping.
func (a Amount) Sub(b Amount) (Amount, error) {
	diff := a - b
	if (b > 0 && diff > a) || (b < 0 && diff < a) {
		return 0, ErrOverflow
	}
	return diff, nil
}

// Money converts a to a money.Amount in the given currency.
func (a Amount) Money(curr string) (money.Amount, error) {
	return money.NewAmountFromMinorUnits(curr, int64(a))
}

// Format renders a with the currency's scale, e.g. "1234.50".
// Unknown currencies fall back to two decimals.
func (a Amount) Format(curr string) string {
	m, err := a.Money(curr)
	if err != nil {
		m, _ = a.Money(DefaultCurrency)
	}
	return m.Decimal().String()
}

// ParseAmount parses a decimal string like "12.34" into minor units of curr.
// More fractional digits than the currency allows is an error.
func ParseAmount(curr, s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	m, err := money.ParseAmount(curr, s)
	if err != nil {
		return 0, err
	}
	if m.Decimal().Scale() > m.Curr().Scale() {
		return 0, errors.New("too many decimal places for " + m.Curr().Code())
	}
	units, ok := m.MinorUnits()
	if !ok {
		return 0, errors.New("amount out of range")
	}
	return Amount(units), nil
}

// ValidCurrency reports whether code is a known ISO 4217 currency.
func ValidCurrency(code string) bool {
	_, err := money.ParseCurr(code)
	return err == nil
}
