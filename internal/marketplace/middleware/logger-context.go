package middleware

import (
	"net/http"

	"go-marketplace/pkg/logging"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type LoggerContext struct{}

func NewLoggerContext() *LoggerContext {
	return &LoggerContext{}
}

// CreateHandler expects chi's RequestID middleware to run first.
func (lc *LoggerContext) CreateHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.WithContext(
			logging.WithContextFields(
				r.Context(),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
				zap.String("remote-addr", r.RemoteAddr),
				zap.String("request-id", chimiddleware.GetReqID(r.Context())),
			),
		)
		next.ServeHTTP(w, r)
	})
}
