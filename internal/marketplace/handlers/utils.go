package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go-marketplace/internal/common/clientprotocol"
	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/service"
	"go-marketplace/pkg/logging"

	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

const (
	failedToRecoverProfileIDErrorMessage = "failed to recover profile id from token"
	internalErrorMessage                 = "internal error"
)

var (
	errNoProfileClaim = errors.New("token carries no profile id")
)

func closeBody(ctx context.Context, body io.ReadCloser, logger *logging.ZapLogger) {
	err := body.Close()
	if err != nil {
		logger.ErrorCtx(ctx, "failed to close body", zap.Error(err))
	}
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(&out)
	return out, err
}

func profileIDFromCtx(ctx context.Context) (int64, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get claims: %w", err)
	}
	raw, ok := claims[service.ProfileIDClaimName].(string)
	if !ok {
		return 0, errNoProfileClaim
	}
	return strconv.ParseInt(raw, 10, 64)
}

// RoleFromCtx returns the role claim of the verified token, empty when absent.
func RoleFromCtx(ctx context.Context) access.Role {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return ""
	}
	raw, _ := claims[service.RoleClaimName].(string)
	role, _ := access.ParseRole(raw)
	return role
}

func tryWriteResponseJSON(w http.ResponseWriter, statusCode int, responseItem any) error {
	res, err := json.Marshal(responseItem)
	if err != nil {
		return err
	}
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, err = w.Write(res)
	if err != nil {
		return err
	}
	return nil
}

func writeResponse(ctx context.Context, w http.ResponseWriter, logger *logging.ZapLogger, statusCode int, item any) {
	if err := tryWriteResponseJSON(w, statusCode, item); err != nil {
		logger.ErrorCtx(ctx, "error writing response", zap.Error(err))
	}
}

// WriteError renders {"error": message} with the given status code.
func WriteError(ctx context.Context, w http.ResponseWriter, logger *logging.ZapLogger, statusCode int, message string) {
	writeResponse(ctx, w, logger, statusCode, clientprotocol.Error{Error: message})
}

// writeServiceError maps service errors to status codes. Unclassified errors
// are logged and hidden behind a 500.
func writeServiceError(ctx context.Context, w http.ResponseWriter, logger *logging.ZapLogger, err error) {
	var statusCode int
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUnknownCurrency):
		statusCode = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		statusCode = http.StatusConflict
	case errors.Is(err, service.ErrInvalidRate),
		errors.Is(err, service.ErrRateUnavailable),
		errors.Is(err, service.ErrAmountOutOfRange):
		statusCode = http.StatusUnprocessableEntity
	default:
		logger.ErrorCtx(ctx, "request failed", zap.Error(err))
		WriteError(ctx, w, logger, http.StatusInternalServerError, internalErrorMessage)
		return
	}
	logger.DebugCtx(ctx, "request rejected", zap.Int("status", statusCode), zap.Error(err))
	WriteError(ctx, w, logger, statusCode, err.Error())
}

func moneyDTO(m currency.Money) clientprotocol.Money {
	return clientprotocol.Money{
		Amount:    m.Amount,
		Currency:  string(m.Currency),
		Formatted: currency.Format(m),
	}
}

func codesDTO(codes []currency.Code) []string {
	res := make([]string, 0, len(codes))
	for _, c := range codes {
		res = append(res, string(c))
	}
	return res
}

func capabilitiesDTO(c access.Capabilities) clientprotocol.Capabilities {
	return clientprotocol.Capabilities{
		CanBuy:     c.CanBuy,
		CanList:    c.CanList,
		CanSell:    c.CanSell,
		CanCourier: c.CanCourier,
		CanAdmin:   c.CanAdmin,
	}
}

// parseMoney reads an amount in minor units and a currency code.
func parseMoney(rawAmount, rawCurrency string) (currency.Money, error) {
	amount, err := strconv.ParseInt(rawAmount, 10, 64)
	if err != nil {
		return currency.Money{}, fmt.Errorf("%w: amount must be an integer number of minor units", service.ErrInvalidInput)
	}
	code, err := currency.Parse(rawCurrency)
	if err != nil {
		return currency.Money{}, fmt.Errorf("%w: %w", service.ErrUnknownCurrency, err)
	}
	return currency.New(amount, code), nil
}
