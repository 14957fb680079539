package handlers

import (
	"context"
	"fmt"
	"net/http"

	"go-marketplace/internal/common/clientprotocol"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/service"
	"go-marketplace/pkg/logging"
)

type ConversionService interface {
	Convert(ctx context.Context, amount currency.Money, target currency.Code) (service.Conversion, error)
}

type ConversionHandler struct {
	service ConversionService
	logger  *logging.ZapLogger
}

func NewConversionHandler(service ConversionService, logger *logging.ZapLogger) *ConversionHandler {
	return &ConversionHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ConversionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	amount, err := parseMoney(query.Get("amount"), query.Get("from"))
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	target, err := currency.Parse(query.Get("to"))
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, fmt.Errorf("%w: %w", service.ErrUnknownCurrency, err))
		return
	}

	conv, err := h.service.Convert(r.Context(), amount, target)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}

	res := clientprotocol.Conversion{
		Original: moneyDTO(conv.Original),
		Result:   moneyDTO(conv.Result),
		Rate:     conv.Rate,
		Composed: conv.Composed,
		Stale:    conv.Stale,
	}
	if !conv.RateTime.IsZero() {
		rateTime := conv.RateTime.UTC()
		res.RateTime = &rateTime
	}
	writeResponse(r.Context(), w, h.logger, http.StatusOK, res)
}

type CurrenciesHandler struct {
	logger *logging.ZapLogger
}

func NewCurrenciesHandler(logger *logging.ZapLogger) *CurrenciesHandler {
	return &CurrenciesHandler{
		logger: logger,
	}
}

func (h *CurrenciesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	all := currency.All()
	res := make([]clientprotocol.Currency, 0, len(all))
	for _, info := range all {
		res = append(res, clientprotocol.Currency{
			Code:       string(info.Code),
			Name:       info.Name,
			Symbol:     info.Rules.Symbol,
			MinorUnits: info.Rules.MinorUnits,
		})
	}
	writeResponse(r.Context(), w, h.logger, http.StatusOK, res)
}
