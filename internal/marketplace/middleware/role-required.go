package middleware

import (
	"net/http"

	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/handlers"
	"go-marketplace/pkg/logging"

	"go.uber.org/zap"
)

// RoleRequired rejects verified tokens whose role claim is not role. It must
// run after jwtauth.Authenticator.
type RoleRequired struct {
	role   access.Role
	logger *logging.ZapLogger
}

func NewRoleRequired(role access.Role, logger *logging.ZapLogger) *RoleRequired {
	return &RoleRequired{
		role:   role,
		logger: logger,
	}
}

func (rr *RoleRequired) CreateHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if role := handlers.RoleFromCtx(r.Context()); role != rr.role {
			rr.logger.DebugCtx(r.Context(), "role not allowed", zap.String("role", string(role)))
			handlers.WriteError(r.Context(), w, rr.logger, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
