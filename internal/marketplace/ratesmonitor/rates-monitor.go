package ratesmonitor

import (
	"context"
	"sync"
	"time"

	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/service"
	"go-marketplace/pkg/logging"
	"go-marketplace/pkg/threadsafe"

	"go.uber.org/zap"
)

type Refresher interface {
	RefreshRates(ctx context.Context, pairs []currency.Pair) (service.RefreshResult, error)
}

type Config struct {
	TickPeriod     time.Duration
	WorkersCount   int
	BatchSize      int
	Pairs          []currency.Pair
	RefreshOnStart bool
}

// RatesMonitor refreshes the configured pairs every TickPeriod. A pair whose
// previous refresh is still running is skipped until that refresh finishes.
type RatesMonitor struct {
	refresher     Refresher
	refreshing    *threadsafe.HashSet[currency.Pair]
	lastRefreshed *threadsafe.Time
	config        Config
	logger        *logging.ZapLogger
	done          chan struct{}
	stopOnce      sync.Once
	now           func() time.Time
}

func NewRatesMonitor(config Config, refresher Refresher, logger *logging.ZapLogger) *RatesMonitor {
	if config.WorkersCount <= 0 {
		config.WorkersCount = 1
	}
	if config.BatchSize <= 0 {
		config.BatchSize = len(config.Pairs)
	}
	return &RatesMonitor{
		refresher:     refresher,
		refreshing:    threadsafe.NewHashSet[currency.Pair](),
		lastRefreshed: threadsafe.NewTime(time.Time{}),
		config:        config,
		logger:        logger,
		done:          make(chan struct{}),
		now:           time.Now,
	}
}

func (rm *RatesMonitor) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-rm.done
		cancel()
	}()

	batches := make(chan []currency.Pair, rm.config.WorkersCount)

	wg := &sync.WaitGroup{}

	for i := 0; i < rm.config.WorkersCount; i++ {
		wg.Add(1)
		go func(batches <-chan []currency.Pair) {
			defer wg.Done()
			rm.worker(ctx, batches)
		}(batches)
	}

	wg.Add(1)
	go func(batches chan<- []currency.Pair) {
		defer wg.Done()
		rm.scheduler(batches)
	}(batches)

	wg.Wait()
}

func (rm *RatesMonitor) Stop() {
	rm.stopOnce.Do(func() {
		close(rm.done)
	})
}

// LastRefreshed is the time of the last batch that refreshed every pair it
// was given. Zero until then.
func (rm *RatesMonitor) LastRefreshed() time.Time {
	return rm.lastRefreshed.Get()
}

func (rm *RatesMonitor) scheduler(batches chan<- []currency.Pair) {
	defer close(batches)

	if rm.config.RefreshOnStart {
		rm.tick(batches)
	}

	ticker := time.NewTicker(rm.config.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-rm.done:
			return
		case <-ticker.C:
			rm.tick(batches)
		}
	}
}

func (rm *RatesMonitor) tick(batches chan<- []currency.Pair) {
	pending := make([]currency.Pair, 0, len(rm.config.Pairs))
	for _, pair := range rm.config.Pairs {
		if !rm.refreshing.Add(pair) {
			continue
		}
		pending = append(pending, pair)
	}
	if len(pending) == 0 {
		return
	}
	rm.logger.DebugCtx(context.Background(), "scheduling rate refresh", zap.Int("pairs", len(pending)))

	for start := 0; start < len(pending); start += rm.config.BatchSize {
		end := min(start+rm.config.BatchSize, len(pending))
		batch := pending[start:end]
		select {
		case batches <- batch:
		case <-rm.done:
			rm.release(pending[start:])
			return
		}
	}
}

func (rm *RatesMonitor) worker(ctx context.Context, batches <-chan []currency.Pair) {
	for batch := range batches {
		rm.handleBatch(ctx, batch)
		rm.release(batch)
	}
}

func (rm *RatesMonitor) handleBatch(ctx context.Context, batch []currency.Pair) {
	result, err := rm.refresher.RefreshRates(ctx, batch)
	if err != nil {
		rm.logger.ErrorCtx(ctx, "failed to refresh exchange rates", zap.Error(err))
		return
	}
	if len(result.Failed) == 0 {
		rm.lastRefreshed.SetIfAfter(rm.now())
	}
}

func (rm *RatesMonitor) release(pairs []currency.Pair) {
	for _, pair := range pairs {
		rm.refreshing.Remove(pair)
	}
}
