package rateprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-marketplace/internal/common/rateproviderprotocol"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/pkg/logging"
	"go-marketplace/pkg/threadsafe"
	"go-marketplace/pkg/timeutils"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrPairUnavailable = errors.New("pair unavailable")

	errTransient = errors.New("transient provider error")
)

const ratePath = "/api/rates/{from}/{to}"

type Config struct {
	ServerAddress string
	// Timeout bounds every single request. A timed out pair is not retried.
	Timeout     time.Duration
	Concurrency int
	RetryDelays []time.Duration
}

type Client struct {
	client *resty.Client
	cfg    Config
	logger *logging.ZapLogger
}

func New(cfg Config, logger *logging.ZapLogger) *Client {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Client{
		client: resty.New().SetBaseURL(cfg.ServerAddress),
		cfg:    cfg,
		logger: logger,
	}
}

// FetchRates requests every pair concurrently. Each pair ends up either in the
// returned quotes or in the failures, never in both.
func (c *Client) FetchRates(
	ctx context.Context,
	pairs []currency.Pair,
) ([]rateproviderprotocol.Quote, []rateproviderprotocol.PairFailure) {
	quotes := threadsafe.NewSafeSlice[rateproviderprotocol.Quote](len(pairs))
	failures := threadsafe.NewSafeSlice[rateproviderprotocol.PairFailure](0)

	g := &errgroup.Group{}
	g.SetLimit(c.cfg.Concurrency)
	for _, pair := range pairs {
		pair := pair
		g.Go(func() error {
			q, err := c.fetchWithRetry(ctx, pair)
			if err != nil {
				failures.Append(rateproviderprotocol.PairFailure{Pair: pair, Err: err})
				return nil
			}
			quotes.Append(q)
			return nil
		})
	}
	_ = g.Wait()

	return quotes.Snapshot(), failures.Snapshot()
}

func (c *Client) fetchWithRetry(ctx context.Context, pair currency.Pair) (rateproviderprotocol.Quote, error) {
	q, err := timeutils.Retry(
		ctx,
		c.cfg.RetryDelays,
		func(ctx context.Context) (rateproviderprotocol.Quote, error) {
			return c.fetchRate(ctx, pair)
		},
		func(_ rateproviderprotocol.Quote, err error) bool {
			if errors.Is(err, errTransient) {
				c.logger.DebugCtx(ctx, "retrying rate request", zap.String("pair", pair.String()), zap.Error(err))
				return true
			}
			return false
		},
	)
	if err != nil {
		if errors.Is(err, ErrPairUnavailable) {
			return rateproviderprotocol.Quote{}, err
		}
		return rateproviderprotocol.Quote{}, fmt.Errorf("%w: %s: %w", ErrPairUnavailable, pair, err)
	}
	return q, nil
}

func (c *Client) fetchRate(ctx context.Context, pair currency.Pair) (rateproviderprotocol.Quote, error) {
	reqCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.client.
		R().
		SetContext(reqCtx).
		SetPathParams(map[string]string{
			"from": string(pair.From),
			"to":   string(pair.To),
		}).
		Get(ratePath)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return rateproviderprotocol.Quote{}, fmt.Errorf("rate request canceled: %w", ctx.Err())
		case errors.Is(err, context.DeadlineExceeded):
			return rateproviderprotocol.Quote{}, fmt.Errorf("%w: %s: timed out after %s", ErrPairUnavailable, pair, c.cfg.Timeout)
		default:
			return rateproviderprotocol.Quote{}, fmt.Errorf("%w: get request failed: %w", errTransient, err)
		}
	}

	statusCode := resp.StatusCode()
	switch {
	case statusCode == http.StatusOK:
	case statusCode == http.StatusNotFound || statusCode == http.StatusNoContent:
		c.logger.DebugCtx(ctx, "pair not served by provider", zap.String("pair", pair.String()))
		return rateproviderprotocol.Quote{}, fmt.Errorf("%w: %s", ErrPairUnavailable, pair)
	case statusCode >= http.StatusInternalServerError || statusCode == http.StatusTooManyRequests:
		return rateproviderprotocol.Quote{}, fmt.Errorf("%w: status code %d", errTransient, statusCode)
	default:
		return rateproviderprotocol.Quote{}, fmt.Errorf("unexpected status code %d", statusCode)
	}

	res := rateproviderprotocol.RateResponse{}
	if err := json.Unmarshal(resp.Body(), &res); err != nil {
		c.logger.ErrorCtx(ctx, "error unmarshalling rate response", zap.Error(err))
		return rateproviderprotocol.Quote{}, fmt.Errorf("error unmarshalling rate response: %w", err)
	}
	if (res.From != "" && res.From != string(pair.From)) || (res.To != "" && res.To != string(pair.To)) {
		return rateproviderprotocol.Quote{}, fmt.Errorf("provider answered %s:%s for %s", res.From, res.To, pair)
	}

	q := rateproviderprotocol.Quote{Pair: pair, Rate: res.Rate}
	if res.AsOf != nil {
		q.AsOf = res.AsOf.UTC()
	}
	return q, nil
}
