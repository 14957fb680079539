package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/pkg/logging"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestConverter(rates RateReader, metrics Metrics) *Converter {
	c := NewConverter(rates, ConversionConfig{
		BaseCurrency:    currency.USD,
		FreshnessWindow: 24 * time.Hour,
	}, metrics, logging.NewNop())
	c.now = func() time.Time { return testNow }
	return c
}

func TestConvertDirect(t *testing.T) {
	rates := newMemoryRates()
	rates.put(currency.RUB, currency.USD, "0.011", testNow.Add(-time.Hour))
	metrics := newRecordingMetrics()
	c := newTestConverter(rates, metrics)

	conv, err := c.Convert(context.Background(), currency.New(12000000, currency.RUB), currency.USD)
	require.NoError(t, err)

	assert.Equal(t, currency.New(132000, currency.USD), conv.Result)
	assert.Equal(t, "$1,320.00", currency.Format(conv.Result))
	assert.True(t, conv.Rate.Equal(decimal.RequireFromString("0.011")))
	assert.False(t, conv.Composed)
	assert.False(t, conv.Stale)
	assert.Equal(t, testNow.Add(-time.Hour), conv.RateTime)
	assert.Equal(t, 1, metrics.conversions[OutcomeDirect])
}

func TestConvertWithoutLookup(t *testing.T) {
	rates := newMemoryRates()
	rates.readErr = errors.New("must not be called")
	c := newTestConverter(rates, NopMetrics())

	t.Run("same currency", func(t *testing.T) {
		amount := currency.New(4550, currency.EUR)
		conv, err := c.Convert(context.Background(), amount, currency.EUR)
		require.NoError(t, err)
		assert.Equal(t, amount, conv.Result)
		assert.True(t, conv.Rate.Equal(decimal.NewFromInt(1)))
	})

	t.Run("zero amount", func(t *testing.T) {
		conv, err := c.Convert(context.Background(), currency.New(0, currency.RUB), currency.JPY)
		require.NoError(t, err)
		assert.Equal(t, currency.New(0, currency.JPY), conv.Result)
	})
}

func TestConvertComposed(t *testing.T) {
	rates := newMemoryRates()
	rates.put(currency.RUB, currency.USD, "0.011", testNow.Add(-2*time.Hour))
	rates.put(currency.USD, currency.EUR, "0.92", testNow.Add(-time.Hour))
	metrics := newRecordingMetrics()
	c := newTestConverter(rates, metrics)

	conv, err := c.Convert(context.Background(), currency.New(100000, currency.RUB), currency.EUR)
	require.NoError(t, err)

	assert.Equal(t, currency.New(1012, currency.EUR), conv.Result)
	assert.True(t, conv.Composed)
	assert.True(t, conv.Rate.Equal(decimal.RequireFromString("0.01012")))
	assert.Equal(t, testNow.Add(-2*time.Hour), conv.RateTime)
	assert.Equal(t, 1, metrics.conversions[OutcomeComposed])
}

func TestConvertPrefersDirectRate(t *testing.T) {
	rates := newMemoryRates()
	rates.put(currency.RUB, currency.EUR, "0.01", testNow)
	rates.put(currency.RUB, currency.USD, "0.011", testNow)
	rates.put(currency.USD, currency.EUR, "0.92", testNow)
	c := newTestConverter(rates, NopMetrics())

	conv, err := c.Convert(context.Background(), currency.New(100000, currency.RUB), currency.EUR)
	require.NoError(t, err)
	assert.Equal(t, currency.New(1000, currency.EUR), conv.Result)
	assert.False(t, conv.Composed)
}

func TestConvertUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*memoryRates)
		amount currency.Money
		target currency.Code
	}{
		{
			name:   "no rates at all",
			setup:  func(*memoryRates) {},
			amount: currency.New(1000, currency.EUR),
			target: currency.JPY,
		},
		{
			name: "second leg missing",
			setup: func(m *memoryRates) {
				m.put(currency.EUR, currency.USD, "1.08", testNow)
			},
			amount: currency.New(1000, currency.EUR),
			target: currency.JPY,
		},
		{
			name: "base currency is not composed",
			setup: func(m *memoryRates) {
				m.put(currency.USD, currency.EUR, "0.92", testNow)
			},
			amount: currency.New(1000, currency.USD),
			target: currency.JPY,
		},
		{
			name: "non-positive stored rate",
			setup: func(m *memoryRates) {
				m.put(currency.EUR, currency.GBP, "0", testNow)
			},
			amount: currency.New(1000, currency.EUR),
			target: currency.GBP,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rates := newMemoryRates()
			test.setup(rates)
			metrics := newRecordingMetrics()
			c := newTestConverter(rates, metrics)

			_, err := c.Convert(context.Background(), test.amount, test.target)
			assert.ErrorIs(t, err, ErrRateUnavailable)
			assert.Equal(t, 1, metrics.conversions[OutcomeUnavailable])
		})
	}
}

func TestConvertStoreError(t *testing.T) {
	rates := newMemoryRates()
	rates.readErr = errors.New("connection reset")
	c := newTestConverter(rates, NopMetrics())

	_, err := c.Convert(context.Background(), currency.New(1000, currency.EUR), currency.GBP)
	assert.ErrorIs(t, err, ErrRateUnavailable)
}

func TestConvertUnknownCurrency(t *testing.T) {
	c := newTestConverter(newMemoryRates(), NopMetrics())

	_, err := c.Convert(context.Background(), currency.New(100, "XXX"), currency.USD)
	assert.ErrorIs(t, err, ErrUnknownCurrency)

	_, err = c.Convert(context.Background(), currency.New(100, currency.USD), "usd")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestConvertStaleRate(t *testing.T) {
	rates := newMemoryRates()
	rates.put(currency.RUB, currency.USD, "0.011", testNow.Add(-48*time.Hour))
	metrics := newRecordingMetrics()
	c := newTestConverter(rates, metrics)

	conv, err := c.Convert(context.Background(), currency.New(100000, currency.RUB), currency.USD)
	require.NoError(t, err)
	assert.True(t, conv.Stale)
	assert.Equal(t, currency.New(1100, currency.USD), conv.Result)
	assert.Equal(t, 1, metrics.stale)
}

func TestConvertComposedStaleWhenAnyLegIsStale(t *testing.T) {
	rates := newMemoryRates()
	rates.put(currency.RUB, currency.USD, "0.011", testNow)
	rates.put(currency.USD, currency.EUR, "0.92", testNow.Add(-25*time.Hour))
	c := newTestConverter(rates, NopMetrics())

	conv, err := c.Convert(context.Background(), currency.New(100000, currency.RUB), currency.EUR)
	require.NoError(t, err)
	assert.True(t, conv.Stale)
	assert.Equal(t, testNow.Add(-25*time.Hour), conv.RateTime)
}

func TestConvertNegativeAmount(t *testing.T) {
	rates := newMemoryRates()
	rates.put(currency.RUB, currency.USD, "0.011", testNow)
	c := newTestConverter(rates, NopMetrics())

	conv, err := c.Convert(context.Background(), currency.New(-10000, currency.RUB), currency.USD)
	require.NoError(t, err)
	assert.Equal(t, currency.New(-110, currency.USD), conv.Result)
}

func TestConvertRoundsHalfToEven(t *testing.T) {
	rates := newMemoryRates()
	rates.put(currency.USD, currency.JPY, "150.5", testNow)
	c := newTestConverter(rates, NopMetrics())

	// 1.00 USD -> 150.5 JPY -> 150, 3.00 USD -> 451.5 JPY -> 452
	conv, err := c.Convert(context.Background(), currency.New(100, currency.USD), currency.JPY)
	require.NoError(t, err)
	assert.Equal(t, currency.New(150, currency.JPY), conv.Result)

	conv, err = c.Convert(context.Background(), currency.New(300, currency.USD), currency.JPY)
	require.NoError(t, err)
	assert.Equal(t, currency.New(452, currency.JPY), conv.Result)
}

func TestConvertRoundTrip(t *testing.T) {
	rates := newMemoryRates()
	rates.put(currency.USD, currency.EUR, "0.92", testNow)
	rates.put(currency.EUR, currency.USD, decimal.NewFromInt(1).DivRound(decimal.RequireFromString("0.92"), 12).String(), testNow)
	c := newTestConverter(rates, NopMetrics())

	for _, amount := range []int64{1, 99, 12345, 1000000, 987654321} {
		original := currency.New(amount, currency.USD)
		there, err := c.Convert(context.Background(), original, currency.EUR)
		require.NoError(t, err)
		back, err := c.Convert(context.Background(), there.Result, currency.USD)
		require.NoError(t, err)

		diff := back.Result.Amount - original.Amount
		assert.LessOrEqual(t, diff, int64(1), "amount %d", amount)
		assert.GreaterOrEqual(t, diff, int64(-1), "amount %d", amount)
	}
}

func TestConvertRejectsOutOfRangeResult(t *testing.T) {
	rates := newMemoryRates()
	rates.put(currency.JPY, currency.KRW, "9.5", testNow.Add(-time.Hour))
	metrics := newRecordingMetrics()
	c := newTestConverter(rates, metrics)

	amount := currency.New(4_000_000_000_000_000_000, currency.JPY)
	_, err := c.Convert(context.Background(), amount, currency.KRW)
	require.ErrorIs(t, err, ErrAmountOutOfRange)
	assert.ErrorIs(t, err, currency.ErrAmountOutOfRange)
	assert.Equal(t, 1, metrics.conversions[OutcomeOutOfRange])

	price := c.Display(context.Background(), amount, currency.KRW)
	assert.True(t, price.Unavailable)
	assert.False(t, price.Converted)
	assert.Equal(t, amount, price.Money)
}

func TestDisplay(t *testing.T) {
	rates := newMemoryRates()
	rates.put(currency.RUB, currency.USD, "0.011", testNow.Add(-48*time.Hour))
	c := newTestConverter(rates, NopMetrics())

	t.Run("converted", func(t *testing.T) {
		price := c.Display(context.Background(), currency.New(12000000, currency.RUB), currency.USD)
		assert.Equal(t, "$1,320.00", price.Text)
		assert.True(t, price.Converted)
		assert.True(t, price.Stale)
		assert.False(t, price.Unavailable)
		assert.Equal(t, currency.New(12000000, currency.RUB), price.Original)
	})

	t.Run("falls back to original", func(t *testing.T) {
		amount := currency.New(12000000, currency.RUB)
		price := c.Display(context.Background(), amount, currency.JPY)
		assert.True(t, price.Unavailable)
		assert.False(t, price.Converted)
		assert.Equal(t, amount, price.Money)
		assert.Equal(t, "120 000,00 ₽", price.Text)
	})

	t.Run("same currency", func(t *testing.T) {
		price := c.Display(context.Background(), currency.New(2550, currency.GBP), currency.GBP)
		assert.Equal(t, "£25.50", price.Text)
		assert.False(t, price.Converted)
	})
}
