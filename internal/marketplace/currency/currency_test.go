package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	code, err := Parse(" rub ")
	require.NoError(t, err)
	assert.Equal(t, RUB, code)

	_, err = Parse("XXX")
	assert.ErrorIs(t, err, ErrUnknownCurrency)

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestMinorUnits(t *testing.T) {
	assert.EqualValues(t, 2, RUB.MinorUnits())
	assert.EqualValues(t, 2, USD.MinorUnits())
	assert.EqualValues(t, 0, JPY.MinorUnits())
	assert.EqualValues(t, 0, KRW.MinorUnits())
}

func TestAllIsSortedAndComplete(t *testing.T) {
	all := All()
	assert.Len(t, all, len(table))
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Code, all[i].Code)
	}
}

func TestFromMajorRoundsHalfToEven(t *testing.T) {
	tests := []struct {
		name     string
		major    string
		code     Code
		expected int64
	}{
		{name: "half down to even", major: "0.125", code: USD, expected: 12},
		{name: "half up to even", major: "0.135", code: USD, expected: 14},
		{name: "negative half", major: "-0.125", code: USD, expected: -12},
		{name: "yen has no minor unit", major: "150.5", code: JPY, expected: 150},
		{name: "yen odd half", major: "151.5", code: JPY, expected: 152},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m, err := FromMajor(decimal.RequireFromString(test.major), test.code)
			require.NoError(t, err)
			assert.Equal(t, test.expected, m.Amount)
			assert.Equal(t, test.code, m.Currency)
		})
	}
}

func TestFromMajorRejectsOverflow(t *testing.T) {
	_, err := FromMajor(decimal.RequireFromString("38000000000000000000"), KRW)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	_, err = FromMajor(decimal.RequireFromString("-92233720368547758.09"), USD)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	m, err := FromMajor(decimal.RequireFromString("92233720368547758.07"), USD)
	require.NoError(t, err)
	assert.Equal(t, int64(9223372036854775807), m.Amount)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		expected string
	}{
		{name: "usd prefix", money: New(132000, USD), expected: "$1,320.00"},
		{name: "rub suffix", money: New(12000000, RUB), expected: "120 000,00 ₽"},
		{name: "eur suffix", money: New(123456789, EUR), expected: "1.234.567,89 €"},
		{name: "jpy no decimals", money: New(1500, JPY), expected: "¥1,500"},
		{name: "chf spaced prefix", money: New(99, CHF), expected: "CHF 0.99"},
		{name: "negative refund", money: New(-2550, GBP), expected: "-£25.50"},
		{name: "zero", money: New(0, RUB), expected: "0,00 ₽"},
		{name: "unknown currency", money: New(100, Code("XYZ")), expected: "1.00 XYZ"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, Format(test.money))
		})
	}
}

func TestFormatIsPure(t *testing.T) {
	m := New(4200, USD)
	assert.Equal(t, Format(m), Format(m))
	assert.Equal(t, int64(4200), m.Amount)
}
