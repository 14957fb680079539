package handlers

import (
	"context"
	"net/http"

	"go-marketplace/internal/common/clientprotocol"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/data"
	"go-marketplace/internal/marketplace/service"
	"go-marketplace/pkg/logging"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RatesService interface {
	SetRate(ctx context.Context, from, to string, rate decimal.Decimal) (data.ExchangeRate, error)
	ListRates(ctx context.Context) ([]data.ExchangeRate, error)
}

type RatesListHandler struct {
	service RatesService
	logger  *logging.ZapLogger
}

func NewRatesListHandler(service RatesService, logger *logging.ZapLogger) *RatesListHandler {
	return &RatesListHandler{
		service: service,
		logger:  logger,
	}
}

func (h *RatesListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rates, err := h.service.ListRates(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	res := make([]clientprotocol.ExchangeRate, 0, len(rates))
	for _, rate := range rates {
		res = append(res, exchangeRateDTO(rate))
	}
	writeResponse(r.Context(), w, h.logger, http.StatusOK, res)
}

type RateSettingHandler struct {
	service RatesService
	logger  *logging.ZapLogger
}

func NewRateSettingHandler(service RatesService, logger *logging.ZapLogger) *RateSettingHandler {
	return &RateSettingHandler{
		service: service,
		logger:  logger,
	}
}

func (h *RateSettingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r.Context(), r.Body, h.logger)

	input, err := decodeJSON[clientprotocol.RateInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(r.Context(), "error decoding input", zap.Error(err))
		WriteError(r.Context(), w, h.logger, http.StatusBadRequest, "malformed request body")
		return
	}
	rate, err := h.service.SetRate(r.Context(), chi.URLParam(r, "from"), chi.URLParam(r, "to"), input.Rate)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeResponse(r.Context(), w, h.logger, http.StatusOK, exchangeRateDTO(rate))
}

type RatesRefresher interface {
	RefreshRates(ctx context.Context, pairs []currency.Pair) (service.RefreshResult, error)
}

type RatesRefreshHandler struct {
	refresher RatesRefresher
	pairs     []currency.Pair
	logger    *logging.ZapLogger
}

// NewRatesRefreshHandler refreshes pairs on demand.
func NewRatesRefreshHandler(refresher RatesRefresher, pairs []currency.Pair, logger *logging.ZapLogger) *RatesRefreshHandler {
	return &RatesRefreshHandler{
		refresher: refresher,
		pairs:     pairs,
		logger:    logger,
	}
}

func (h *RatesRefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result, err := h.refresher.RefreshRates(r.Context(), h.pairs)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeResponse(r.Context(), w, h.logger, http.StatusOK, refreshResultDTO(result))
}

func exchangeRateDTO(rate data.ExchangeRate) clientprotocol.ExchangeRate {
	return clientprotocol.ExchangeRate{
		From:        string(rate.From),
		To:          string(rate.To),
		Rate:        rate.Rate,
		LastUpdated: rate.LastUpdated.UTC(),
	}
}

func refreshResultDTO(result service.RefreshResult) clientprotocol.RefreshResult {
	res := clientprotocol.RefreshResult{
		Batch:     result.Batch.String(),
		Updated:   pairsDTO(result.Updated),
		Unchanged: pairsDTO(result.Unchanged),
		Failed:    make([]clientprotocol.PairFailure, 0, len(result.Failed)),
	}
	for _, f := range result.Failed {
		res.Failed = append(res.Failed, clientprotocol.PairFailure{Pair: f.Pair.String(), Error: f.Err.Error()})
	}
	return res
}

func pairsDTO(pairs []currency.Pair) []string {
	res := make([]string, 0, len(pairs))
	for _, p := range pairs {
		res = append(res, p.String())
	}
	return res
}
