package service

import (
	"context"
	"sync"
	"time"

	"go-marketplace/internal/common/rateproviderprotocol"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/data"

	"github.com/shopspring/decimal"
)

type memoryRates struct {
	mu      sync.Mutex
	rates   map[currency.Pair]data.ExchangeRate
	upserts int
	readErr error
}

func newMemoryRates() *memoryRates {
	return &memoryRates{rates: make(map[currency.Pair]data.ExchangeRate)}
}

func (m *memoryRates) put(from, to currency.Code, rate string, updated time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[currency.Pair{From: from, To: to}] = data.ExchangeRate{
		From:        from,
		To:          to,
		Rate:        decimal.RequireFromString(rate),
		LastUpdated: updated,
	}
}

func (m *memoryRates) GetRate(_ context.Context, from, to currency.Code) (data.ExchangeRate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return data.ExchangeRate{}, m.readErr
	}
	rate, ok := m.rates[currency.Pair{From: from, To: to}]
	if !ok {
		return data.ExchangeRate{}, data.ErrNotFound
	}
	return rate, nil
}

func (m *memoryRates) UpsertRate(_ context.Context, rate data.ExchangeRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[currency.Pair{From: rate.From, To: rate.To}] = rate
	m.upserts++
	return nil
}

type stubProvider struct {
	quotes   []rateproviderprotocol.Quote
	failures []rateproviderprotocol.PairFailure
	calls    int
}

func (s *stubProvider) FetchRates(
	_ context.Context,
	_ []currency.Pair,
) ([]rateproviderprotocol.Quote, []rateproviderprotocol.PairFailure) {
	s.calls++
	return s.quotes, s.failures
}

type recordingMetrics struct {
	mu          sync.Mutex
	conversions map[string]int
	refreshes   map[string]int
	stale       int
	finished    int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		conversions: make(map[string]int),
		refreshes:   make(map[string]int),
	}
}

func (r *recordingMetrics) ConversionDone(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversions[outcome]++
}

func (r *recordingMetrics) StaleRateUsed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale++
}

func (r *recordingMetrics) RefreshPairDone(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshes[outcome]++
}

func (r *recordingMetrics) RefreshFinished(time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
}

type inlineTransactions struct {
	calls int
}

func (t *inlineTransactions) DoWithTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	t.calls++
	return f(ctx)
}
