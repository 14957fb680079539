package service

import (
	"context"
	"time"

	"go-marketplace/internal/common/rateproviderprotocol"
	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/data"
	"go-marketplace/internal/marketplace/location"
)

type TransactionManager interface {
	DoWithTransaction(ctx context.Context, f func(ctx context.Context) error) error
}

type RateRepository interface {
	GetRate(ctx context.Context, from, to currency.Code) (data.ExchangeRate, error)
	UpsertRate(ctx context.Context, rate data.ExchangeRate) error
}

type RateProvider interface {
	FetchRates(
		ctx context.Context,
		pairs []currency.Pair,
	) ([]rateproviderprotocol.Quote, []rateproviderprotocol.PairFailure)
}

type CapabilityResolver interface {
	Resolve(ctx context.Context, role access.Role, loc location.Location) access.Capabilities
}

type TokenFactory interface {
	Generate(extraClaims map[string]string) (string, error)
}

// Metrics receives outcome counts. metrics.Metrics implements it.
type Metrics interface {
	ConversionDone(outcome string)
	StaleRateUsed()
	RefreshPairDone(outcome string)
	RefreshFinished(at time.Time)
}

type nopMetrics struct{}

func (nopMetrics) ConversionDone(string)     {}
func (nopMetrics) StaleRateUsed()            {}
func (nopMetrics) RefreshPairDone(string)    {}
func (nopMetrics) RefreshFinished(time.Time) {}

// NopMetrics discards everything.
func NopMetrics() Metrics {
	return nopMetrics{}
}
