package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/service"
	"go-marketplace/pkg/logging"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicRecover(t *testing.T) {
	handler := NewPanicRecover(logging.NewNop()).CreateHandler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

func TestAccessCacheAttachesCache(t *testing.T) {
	var ctx context.Context
	handler := NewAccessCache().CreateHandler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, ctx)
	assert.NotEqual(t, context.Background(), ctx)
}

func TestRoleRequired(t *testing.T) {
	tokenAuth := jwtauth.New("HS256", []byte("secret"), nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := jwtauth.Verifier(tokenAuth)(
		NewRoleRequired(access.Admin, logging.NewNop()).CreateHandler(next),
	)

	tests := []struct {
		name     string
		role     string
		expected int
	}{
		{name: "admin", role: "ADMIN", expected: http.StatusNoContent},
		{name: "vendor", role: "VENDOR", expected: http.StatusForbidden},
		{name: "no role", role: "", expected: http.StatusForbidden},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			claims := map[string]any{service.ProfileIDClaimName: "1"}
			if test.role != "" {
				claims[service.RoleClaimName] = test.role
			}
			_, token, err := tokenAuth.Encode(claims)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, test.expected, rec.Code)
		})
	}
}
