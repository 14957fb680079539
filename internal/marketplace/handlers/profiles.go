package handlers

import (
	"context"
	"fmt"
	"net/http"

	"go-marketplace/internal/common/clientprotocol"
	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/data"
	"go-marketplace/internal/marketplace/service"
	"go-marketplace/pkg/logging"

	"go.uber.org/zap"
)

type SignupService interface {
	Register(ctx context.Context, input service.SignupInput) (data.Profile, string, error)
}

type SignupHandler struct {
	service SignupService
	logger  *logging.ZapLogger
}

func NewSignupHandler(service SignupService, logger *logging.ZapLogger) *SignupHandler {
	return &SignupHandler{
		service: service,
		logger:  logger,
	}
}

func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r.Context(), r.Body, h.logger)

	input, err := decodeJSON[clientprotocol.SignupInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(r.Context(), "error decoding input", zap.Error(err))
		WriteError(r.Context(), w, h.logger, http.StatusBadRequest, "malformed request body")
		return
	}

	profile, tkn, err := h.service.Register(r.Context(), service.SignupInput{
		Role:                input.Role,
		Location:            input.Location,
		BaseCurrency:        input.BaseCurrency,
		CurrencyPreferences: input.CurrencyPreferences,
	})
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}

	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", tkn))
	writeResponse(r.Context(), w, h.logger, http.StatusCreated, clientprotocol.Profile{
		ID:                  profile.ID,
		Role:                string(profile.Role),
		Location:            string(profile.Location),
		BaseCurrency:        string(profile.BaseCurrency),
		CurrencyPreferences: codesDTO(profile.CurrencyPreferences),
		FeatureAccess:       capabilitiesDTO(profile.FeatureAccess),
	})
}

type CapabilitiesService interface {
	Capabilities(ctx context.Context, profileID int64) (access.Capabilities, error)
}

type CapabilitiesHandler struct {
	service CapabilitiesService
	logger  *logging.ZapLogger
}

func NewCapabilitiesHandler(service CapabilitiesService, logger *logging.ZapLogger) *CapabilitiesHandler {
	return &CapabilitiesHandler{
		service: service,
		logger:  logger,
	}
}

func (h *CapabilitiesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Admin tokens carry no profile row.
	if RoleFromCtx(r.Context()) == access.Admin {
		caps, _ := access.RoleDefaults(access.Admin)
		writeResponse(r.Context(), w, h.logger, http.StatusOK, capabilitiesDTO(caps))
		return
	}
	profileID, err := profileIDFromCtx(r.Context())
	if err != nil {
		h.logger.DebugCtx(r.Context(), failedToRecoverProfileIDErrorMessage, zap.Error(err))
		WriteError(r.Context(), w, h.logger, http.StatusUnauthorized, failedToRecoverProfileIDErrorMessage)
		return
	}
	caps, err := h.service.Capabilities(r.Context(), profileID)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeResponse(r.Context(), w, h.logger, http.StatusOK, capabilitiesDTO(caps))
}

type PriceService interface {
	Price(ctx context.Context, profileID int64, amount currency.Money) (service.DisplayPrice, error)
}

type PriceHandler struct {
	service PriceService
	logger  *logging.ZapLogger
}

func NewPriceHandler(service PriceService, logger *logging.ZapLogger) *PriceHandler {
	return &PriceHandler{
		service: service,
		logger:  logger,
	}
}

func (h *PriceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	profileID, err := profileIDFromCtx(r.Context())
	if err != nil {
		h.logger.DebugCtx(r.Context(), failedToRecoverProfileIDErrorMessage, zap.Error(err))
		WriteError(r.Context(), w, h.logger, http.StatusUnauthorized, failedToRecoverProfileIDErrorMessage)
		return
	}
	query := r.URL.Query()
	amount, err := parseMoney(query.Get("amount"), query.Get("currency"))
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}

	price, err := h.service.Price(r.Context(), profileID, amount)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeResponse(r.Context(), w, h.logger, http.StatusOK, clientprotocol.Price{
		Money: clientprotocol.Money{
			Amount:    price.Money.Amount,
			Currency:  string(price.Money.Currency),
			Formatted: price.Text,
		},
		Original:              moneyDTO(price.Original),
		Converted:             price.Converted,
		Stale:                 price.Stale,
		ConversionUnavailable: price.Unavailable,
	})
}
