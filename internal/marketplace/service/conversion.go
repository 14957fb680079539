package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/data"
	"go-marketplace/pkg/logging"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	OutcomeIdentity    = "identity"
	OutcomeDirect      = "direct"
	OutcomeComposed    = "composed"
	OutcomeUnavailable = "unavailable"
	OutcomeOutOfRange  = "out_of_range"
)

type RateReader interface {
	GetRate(ctx context.Context, from, to currency.Code) (data.ExchangeRate, error)
}

type ConversionConfig struct {
	BaseCurrency    currency.Code
	FreshnessWindow time.Duration
}

// Conversion describes how Result was obtained. Rate is the effective
// From->To rate, RateTime the oldest lastUpdated of the legs used.
type Conversion struct {
	Original currency.Money
	Result   currency.Money
	Rate     decimal.Decimal
	Composed bool
	Stale    bool
	RateTime time.Time
}

type Converter struct {
	rates   RateReader
	cfg     ConversionConfig
	metrics Metrics
	logger  *logging.ZapLogger
	now     func() time.Time
}

func NewConverter(rates RateReader, cfg ConversionConfig, metrics Metrics, logger *logging.ZapLogger) *Converter {
	return &Converter{
		rates:   rates,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Convert converts amount into target.
//
// Same-currency and zero amounts are returned without a rate lookup. Otherwise
// the direct rate is used, falling back to composing amount->base->target.
// Results are rounded half-to-even to the target's minor units. A rate older
// than the freshness window is still used and reported through Stale.
func (c *Converter) Convert(ctx context.Context, amount currency.Money, target currency.Code) (Conversion, error) {
	if !amount.Currency.Valid() {
		return Conversion{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, amount.Currency)
	}
	if !target.Valid() {
		return Conversion{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, target)
	}
	if amount.Currency == target {
		c.metrics.ConversionDone(OutcomeIdentity)
		return Conversion{Original: amount, Result: amount, Rate: decimal.NewFromInt(1)}, nil
	}
	if amount.IsZero() {
		c.metrics.ConversionDone(OutcomeIdentity)
		return Conversion{Original: amount, Result: currency.New(0, target)}, nil
	}

	conv, err := c.resolveRate(ctx, amount.Currency, target)
	if err != nil {
		c.metrics.ConversionDone(OutcomeUnavailable)
		return Conversion{}, err
	}
	conv.Original = amount
	conv.Result, err = currency.FromMajor(amount.Major().Mul(conv.Rate), target)
	if err != nil {
		c.metrics.ConversionDone(OutcomeOutOfRange)
		return Conversion{}, fmt.Errorf("%w: %w", ErrAmountOutOfRange, err)
	}
	conv.Stale = c.isStale(conv.RateTime)

	if conv.Composed {
		c.metrics.ConversionDone(OutcomeComposed)
	} else {
		c.metrics.ConversionDone(OutcomeDirect)
	}
	if conv.Stale {
		c.metrics.StaleRateUsed()
		c.logger.DebugCtx(ctx, "stale exchange rate used",
			zap.String("from", string(amount.Currency)),
			zap.String("to", string(target)),
			zap.Time("rateTime", conv.RateTime),
		)
	}
	return conv, nil
}

func (c *Converter) resolveRate(ctx context.Context, from, to currency.Code) (Conversion, error) {
	direct, found, err := c.lookup(ctx, from, to)
	if err != nil {
		return Conversion{}, err
	}
	if found {
		return Conversion{Rate: direct.Rate, RateTime: direct.LastUpdated}, nil
	}

	base := c.cfg.BaseCurrency
	if from == base || to == base {
		return Conversion{}, fmt.Errorf("%w: no rate %s->%s", ErrRateUnavailable, from, to)
	}
	first, found, err := c.lookup(ctx, from, base)
	if err != nil {
		return Conversion{}, err
	}
	if !found {
		return Conversion{}, fmt.Errorf("%w: no rate %s->%s or %s->%s", ErrRateUnavailable, from, to, from, base)
	}
	second, found, err := c.lookup(ctx, base, to)
	if err != nil {
		return Conversion{}, err
	}
	if !found {
		return Conversion{}, fmt.Errorf("%w: no rate %s->%s or %s->%s", ErrRateUnavailable, from, to, base, to)
	}

	rateTime := first.LastUpdated
	if second.LastUpdated.Before(rateTime) {
		rateTime = second.LastUpdated
	}
	return Conversion{
		Rate:     first.Rate.Mul(second.Rate),
		Composed: true,
		RateTime: rateTime,
	}, nil
}

func (c *Converter) lookup(ctx context.Context, from, to currency.Code) (data.ExchangeRate, bool, error) {
	rate, err := c.rates.GetRate(ctx, from, to)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return data.ExchangeRate{}, false, nil
		}
		c.logger.ErrorCtx(ctx, "failed to read exchange rate",
			zap.String("from", string(from)), zap.String("to", string(to)), zap.Error(err))
		return data.ExchangeRate{}, false, fmt.Errorf("%w: reading %s->%s: %w", ErrRateUnavailable, from, to, err)
	}
	// A non-positive row can only come from outside this service; never apply it.
	if !rate.Rate.IsPositive() {
		return data.ExchangeRate{}, false, nil
	}
	return rate, true, nil
}

func (c *Converter) isStale(rateTime time.Time) bool {
	if c.cfg.FreshnessWindow <= 0 {
		return false
	}
	return c.now().Sub(rateTime) > c.cfg.FreshnessWindow
}

// DisplayPrice is what a page renders. When Unavailable is set, Money and Text
// hold the original amount.
type DisplayPrice struct {
	Money       currency.Money
	Text        string
	Original    currency.Money
	Converted   bool
	Stale       bool
	Unavailable bool
}

// Display converts for rendering and never fails: any conversion error
// degrades to the unconverted amount.
func (c *Converter) Display(ctx context.Context, amount currency.Money, target currency.Code) DisplayPrice {
	conv, err := c.Convert(ctx, amount, target)
	if err != nil {
		c.logger.DebugCtx(ctx, "conversion unavailable, displaying original amount",
			zap.String("amount", amount.String()), zap.String("target", string(target)), zap.Error(err))
		return DisplayPrice{
			Money:       amount,
			Text:        currency.Format(amount),
			Original:    amount,
			Unavailable: true,
		}
	}
	return DisplayPrice{
		Money:     conv.Result,
		Text:      currency.Format(conv.Result),
		Original:  amount,
		Converted: amount.Currency != target,
		Stale:     conv.Stale,
	}
}
