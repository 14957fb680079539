package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-marketplace/internal/common/rateproviderprotocol"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/data"
	"go-marketplace/pkg/logging"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
)

// rateScale matches the scale of the exchange_rates.rate column.
const rateScale = 12

// toRateScale rounds d to rateScale, leaving shorter values untouched.
func toRateScale(d decimal.Decimal) decimal.Decimal {
	if d.Exponent() >= -rateScale {
		return d
	}
	return d.Round(rateScale)
}

type RefreshConfig struct {
	// DeriveInverse stores 1/rate for B->A whenever A->B was fetched and B->A was not.
	DeriveInverse bool
}

type RefreshResult struct {
	Batch     uuid.UUID
	Updated   []currency.Pair
	Unchanged []currency.Pair
	Failed    []rateproviderprotocol.PairFailure
}

type Refresher struct {
	rates    RateRepository
	provider RateProvider
	cfg      RefreshConfig
	metrics  Metrics
	logger   *logging.ZapLogger
	now      func() time.Time
}

func NewRefresher(
	rates RateRepository,
	provider RateProvider,
	cfg RefreshConfig,
	metrics Metrics,
	logger *logging.ZapLogger,
) *Refresher {
	return &Refresher{
		rates:    rates,
		provider: provider,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// RefreshRates fetches pairs from the provider and upserts what it returned.
//
// Pairs the provider could not serve are reported in Failed and do not stop
// the batch. A stored rate is only rewritten when the fetched quote differs
// from it or is newer, so repeating a refresh with identical provider data
// leaves the store untouched. Quotes older than the stored rate are ignored.
// If ctx is canceled mid-batch the upserts already made stay and the context
// error is returned together with the partial result.
func (r *Refresher) RefreshRates(ctx context.Context, pairs []currency.Pair) (RefreshResult, error) {
	result := RefreshResult{Batch: uuid.New()}
	ctx = logging.WithContextFields(ctx, zap.String("batch", result.Batch.String()))

	pairs = normalizePairs(pairs)
	if len(pairs) == 0 {
		return result, nil
	}
	r.logger.InfoCtx(ctx, "refreshing exchange rates", zap.Int("pairs", len(pairs)))

	fetchedAt := r.now().UTC()
	quotes, failures := r.provider.FetchRates(ctx, pairs)
	for _, f := range failures {
		r.fail(ctx, &result, f.Pair, fmt.Errorf("%w: %w", ErrRateUnavailable, f.Err))
	}

	valid := make([]rateproviderprotocol.Quote, 0, len(quotes))
	for _, q := range quotes {
		if !q.Rate.IsPositive() {
			r.fail(ctx, &result, q.Pair, fmt.Errorf("%w: got %s", ErrInvalidRate, q.Rate))
			continue
		}
		valid = append(valid, q)
	}
	if r.cfg.DeriveInverse {
		valid = append(valid, deriveInverses(valid)...)
	}

	for _, q := range valid {
		if err := ctx.Err(); err != nil {
			r.logger.WarnCtx(ctx, "exchange rate refresh aborted", zap.Error(err))
			return result, fmt.Errorf("refresh aborted: %w", err)
		}
		changed, err := r.store(ctx, q, fetchedAt)
		switch {
		case err != nil:
			r.fail(ctx, &result, q.Pair, err)
		case changed:
			result.Updated = append(result.Updated, q.Pair)
			r.metrics.RefreshPairDone(OutcomeUpdated)
		default:
			result.Unchanged = append(result.Unchanged, q.Pair)
			r.metrics.RefreshPairDone(OutcomeUnchanged)
		}
	}

	r.metrics.RefreshFinished(r.now())
	r.logger.InfoCtx(ctx, "exchange rates refreshed",
		zap.Int("updated", len(result.Updated)),
		zap.Int("unchanged", len(result.Unchanged)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

// store reports whether the quote was written. The rate is rounded to the
// stored scale before comparing. Quotes without a provider timestamp are
// stamped with fetchedAt but never rewrite an equal stored rate.
func (r *Refresher) store(ctx context.Context, q rateproviderprotocol.Quote, fetchedAt time.Time) (bool, error) {
	rate := toRateScale(q.Rate)
	if !rate.IsPositive() {
		return false, fmt.Errorf("%w: %s rounds to %s", ErrInvalidRate, q.Rate, rate)
	}
	stamped := !q.AsOf.IsZero()
	asOf := q.AsOf
	if !stamped {
		asOf = fetchedAt
	}

	existing, err := r.rates.GetRate(ctx, q.Pair.From, q.Pair.To)
	switch {
	case errors.Is(err, data.ErrNotFound):
	case err != nil:
		return false, fmt.Errorf("failed to read stored rate: %w", err)
	case stamped && asOf.Before(existing.LastUpdated):
		return false, nil
	case existing.Rate.Equal(rate) && (!stamped || !asOf.After(existing.LastUpdated)):
		return false, nil
	}

	err = r.rates.UpsertRate(ctx, data.ExchangeRate{
		From:        q.Pair.From,
		To:          q.Pair.To,
		Rate:        rate,
		LastUpdated: asOf,
	})
	if err != nil {
		return false, fmt.Errorf("failed to store rate: %w", err)
	}
	return true, nil
}

func (r *Refresher) fail(ctx context.Context, result *RefreshResult, pair currency.Pair, err error) {
	r.logger.WarnCtx(ctx, "exchange rate pair failed", zap.String("pair", pair.String()), zap.Error(err))
	result.Failed = append(result.Failed, rateproviderprotocol.PairFailure{Pair: pair, Err: err})
	r.metrics.RefreshPairDone(OutcomeFailed)
}

func normalizePairs(pairs []currency.Pair) []currency.Pair {
	seen := make(map[currency.Pair]struct{}, len(pairs))
	res := make([]currency.Pair, 0, len(pairs))
	for _, p := range pairs {
		if p.From == p.To {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		res = append(res, p)
	}
	return res
}

func deriveInverses(quotes []rateproviderprotocol.Quote) []rateproviderprotocol.Quote {
	fetched := make(map[currency.Pair]struct{}, len(quotes))
	for _, q := range quotes {
		fetched[q.Pair] = struct{}{}
	}
	one := decimal.NewFromInt(1)
	res := make([]rateproviderprotocol.Quote, 0)
	for _, q := range quotes {
		inverse := q.Pair.Inverse()
		if _, ok := fetched[inverse]; ok {
			continue
		}
		fetched[inverse] = struct{}{}
		res = append(res, rateproviderprotocol.Quote{
			Pair: inverse,
			Rate: one.DivRound(q.Rate, rateScale),
			AsOf: q.AsOf,
		})
	}
	return res
}
