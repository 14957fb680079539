package currency

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// Money is an amount in the smallest denomination of its currency.
type Money struct {
	Amount   int64
	Currency Code
}

func New(amount int64, c Code) Money {
	return Money{Amount: amount, Currency: c}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

// Major returns the amount in major units as an exact decimal (12050 USD -> 120.50).
func (m Money) Major() decimal.Decimal {
	return decimal.New(m.Amount, -m.Currency.MinorUnits())
}

// FromMajor rounds a major-unit amount to the minor-unit precision of c using
// round-half-to-even. Results that do not fit in int64 minor units are
// rejected with ErrAmountOutOfRange.
func FromMajor(amount decimal.Decimal, c Code) (Money, error) {
	minor := amount.Shift(c.MinorUnits()).RoundBank(0)
	if !minor.BigInt().IsInt64() {
		return Money{}, fmt.Errorf("%w: %s %s", ErrAmountOutOfRange, amount.String(), c)
	}
	return Money{Amount: minor.IntPart(), Currency: c}, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Major().StringFixed(m.Currency.MinorUnits()), m.Currency)
}
