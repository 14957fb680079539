package handlers

import (
	"context"
	"net/http"

	"go-marketplace/internal/common/clientprotocol"
	"go-marketplace/internal/marketplace/data"
	"go-marketplace/internal/marketplace/service"
	"go-marketplace/pkg/logging"

	"go.uber.org/zap"
)

type CatalogService interface {
	AddShippingProvider(ctx context.Context, input service.CatalogInput) (data.ShippingProvider, error)
	AddPaymentMethod(ctx context.Context, input service.CatalogInput) (data.PaymentMethod, error)
	ShippingProvidersFor(ctx context.Context, loc string) ([]data.ShippingProvider, error)
	PaymentMethodsFor(ctx context.Context, loc string) ([]data.PaymentMethod, error)
}

type ShippingProviderAddingHandler struct {
	service CatalogService
	logger  *logging.ZapLogger
}

func NewShippingProviderAddingHandler(service CatalogService, logger *logging.ZapLogger) *ShippingProviderAddingHandler {
	return &ShippingProviderAddingHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ShippingProviderAddingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r.Context(), r.Body, h.logger)

	input, err := decodeJSON[clientprotocol.CatalogInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(r.Context(), "error decoding input", zap.Error(err))
		WriteError(r.Context(), w, h.logger, http.StatusBadRequest, "malformed request body")
		return
	}
	provider, err := h.service.AddShippingProvider(r.Context(), catalogInput(input))
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeResponse(r.Context(), w, h.logger, http.StatusCreated, shippingProviderDTO(provider))
}

type PaymentMethodAddingHandler struct {
	service CatalogService
	logger  *logging.ZapLogger
}

func NewPaymentMethodAddingHandler(service CatalogService, logger *logging.ZapLogger) *PaymentMethodAddingHandler {
	return &PaymentMethodAddingHandler{
		service: service,
		logger:  logger,
	}
}

func (h *PaymentMethodAddingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r.Context(), r.Body, h.logger)

	input, err := decodeJSON[clientprotocol.CatalogInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(r.Context(), "error decoding input", zap.Error(err))
		WriteError(r.Context(), w, h.logger, http.StatusBadRequest, "malformed request body")
		return
	}
	method, err := h.service.AddPaymentMethod(r.Context(), catalogInput(input))
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeResponse(r.Context(), w, h.logger, http.StatusCreated, paymentMethodDTO(method))
}

type ShippingProvidersHandler struct {
	service CatalogService
	logger  *logging.ZapLogger
}

func NewShippingProvidersHandler(service CatalogService, logger *logging.ZapLogger) *ShippingProvidersHandler {
	return &ShippingProvidersHandler{
		service: service,
		logger:  logger,
	}
}

func (h *ShippingProvidersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	providers, err := h.service.ShippingProvidersFor(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	res := make([]clientprotocol.ShippingProvider, 0, len(providers))
	for _, p := range providers {
		res = append(res, shippingProviderDTO(p))
	}
	writeResponse(r.Context(), w, h.logger, http.StatusOK, res)
}

type PaymentMethodsHandler struct {
	service CatalogService
	logger  *logging.ZapLogger
}

func NewPaymentMethodsHandler(service CatalogService, logger *logging.ZapLogger) *PaymentMethodsHandler {
	return &PaymentMethodsHandler{
		service: service,
		logger:  logger,
	}
}

func (h *PaymentMethodsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	methods, err := h.service.PaymentMethodsFor(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	res := make([]clientprotocol.PaymentMethod, 0, len(methods))
	for _, m := range methods {
		res = append(res, paymentMethodDTO(m))
	}
	writeResponse(r.Context(), w, h.logger, http.StatusOK, res)
}

func catalogInput(input clientprotocol.CatalogInput) service.CatalogInput {
	return service.CatalogInput{
		Name:       input.Name,
		Type:       input.Type,
		Countries:  input.Countries,
		Currencies: input.Currencies,
	}
}

func shippingProviderDTO(p data.ShippingProvider) clientprotocol.ShippingProvider {
	return clientprotocol.ShippingProvider{
		ID:         p.ID.String(),
		Name:       p.Name,
		Countries:  append([]string{}, p.Countries...),
		Currencies: codesDTO(p.Currencies),
		IsActive:   p.IsActive,
		CreatedAt:  p.CreatedAt.UTC(),
	}
}

func paymentMethodDTO(m data.PaymentMethod) clientprotocol.PaymentMethod {
	return clientprotocol.PaymentMethod{
		ID:         m.ID.String(),
		Name:       m.Name,
		Type:       m.Type,
		Countries:  append([]string{}, m.Countries...),
		Currencies: codesDTO(m.Currencies),
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}
