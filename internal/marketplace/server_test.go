package marketplace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/currency"
	"go-marketplace/internal/marketplace/data"
	"go-marketplace/internal/marketplace/location"
	"go-marketplace/internal/marketplace/metrics"
	"go-marketplace/internal/marketplace/service"
	"go-marketplace/pkg/logging"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubServices struct{}

func (stubServices) Convert(_ context.Context, amount currency.Money, _ currency.Code) (service.Conversion, error) {
	return service.Conversion{Original: amount, Result: amount, Rate: decimal.NewFromInt(1)}, nil
}

func (stubServices) Register(context.Context, service.SignupInput) (data.Profile, string, error) {
	return data.Profile{}, "", service.ErrInvalidInput
}

func (stubServices) Capabilities(context.Context, int64) (access.Capabilities, error) {
	return access.Capabilities{CanBuy: true}, nil
}

func (stubServices) Price(context.Context, int64, currency.Money) (service.DisplayPrice, error) {
	return service.DisplayPrice{}, nil
}

func (stubServices) SetRate(context.Context, string, string, decimal.Decimal) (data.ExchangeRate, error) {
	return data.ExchangeRate{}, nil
}

func (stubServices) ListRates(context.Context) ([]data.ExchangeRate, error) {
	return []data.ExchangeRate{}, nil
}

func (stubServices) ListRules(context.Context, string) ([]access.Rule, error) {
	return []access.Rule{}, nil
}

func (stubServices) UpsertRule(context.Context, service.RuleInput) (access.Rule, error) {
	return access.Rule{}, nil
}

func (stubServices) UpdateRule(context.Context, uuid.UUID, bool, access.Config) (access.Rule, error) {
	return access.Rule{}, nil
}

func (stubServices) AddShippingProvider(context.Context, service.CatalogInput) (data.ShippingProvider, error) {
	return data.ShippingProvider{}, nil
}

func (stubServices) AddPaymentMethod(context.Context, service.CatalogInput) (data.PaymentMethod, error) {
	return data.PaymentMethod{}, nil
}

func (stubServices) ShippingProvidersFor(context.Context, string) ([]data.ShippingProvider, error) {
	return []data.ShippingProvider{}, nil
}

func (stubServices) PaymentMethodsFor(context.Context, string) ([]data.PaymentMethod, error) {
	return []data.PaymentMethod{}, nil
}

func (stubServices) RefreshRates(context.Context, []currency.Pair) (service.RefreshResult, error) {
	return service.RefreshResult{}, nil
}

func newTestMux(t *testing.T) (http.Handler, *jwtauth.JWTAuth) {
	t.Helper()
	registry, err := location.NewRegistry(currency.USD)
	require.NoError(t, err)
	tokenAuth := jwtauth.New("HS256", []byte("secret"), nil)
	stub := stubServices{}
	mux := NewMux(tokenAuth, Services{
		Conversion: stub,
		Locations:  registry,
		Profiles:   stub,
		Admin:      stub,
		Refresher:  stub,
		Metrics:    metrics.New().Handler(),
	}, logging.NewNop())
	return mux, tokenAuth
}

func TestMuxRoutes(t *testing.T) {
	mux, tokenAuth := newTestMux(t)

	token := func(role string) string {
		_, tkn, err := tokenAuth.Encode(map[string]any{
			service.ProfileIDClaimName: "1",
			service.RoleClaimName:      role,
		})
		require.NoError(t, err)
		return tkn
	}

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		expected int
	}{
		{name: "public convert", method: http.MethodGet, path: "/api/convert?amount=1&from=USD&to=USD", expected: http.StatusOK},
		{name: "public locations", method: http.MethodGet, path: "/api/locations/uk", expected: http.StatusOK},
		{name: "public catalog", method: http.MethodGet, path: "/api/payment-methods?location=uk", expected: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", expected: http.StatusOK},
		{name: "capabilities without token", method: http.MethodGet, path: "/api/user/capabilities", expected: http.StatusUnauthorized},
		{name: "capabilities", method: http.MethodGet, path: "/api/user/capabilities", token: token("USER"), expected: http.StatusOK},
		{name: "admin without token", method: http.MethodGet, path: "/api/admin/rates", expected: http.StatusUnauthorized},
		{name: "admin as vendor", method: http.MethodGet, path: "/api/admin/rates", token: token("VENDOR"), expected: http.StatusForbidden},
		{name: "admin rates", method: http.MethodGet, path: "/api/admin/rates", token: token("ADMIN"), expected: http.StatusOK},
		{name: "admin refresh", method: http.MethodPost, path: "/api/admin/rates/refresh", token: token("ADMIN"), expected: http.StatusOK},
		{name: "admin rules", method: http.MethodGet, path: "/api/admin/rules", token: token("ADMIN"), expected: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, path: "/api/orders", expected: http.StatusNotFound},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(test.method, test.path, nil)
			if test.token != "" {
				req.Header.Set("Authorization", "Bearer "+test.token)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			assert.Equal(t, test.expected, rec.Code)
		})
	}
}
