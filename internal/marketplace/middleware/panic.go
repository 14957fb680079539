package middleware

import (
	"net/http"

	"go-marketplace/internal/marketplace/handlers"
	"go-marketplace/pkg/logging"

	"go.uber.org/zap"
)

type PanicRecover struct {
	logger *logging.ZapLogger
}

func NewPanicRecover(logger *logging.ZapLogger) *PanicRecover {
	return &PanicRecover{
		logger: logger,
	}
}

func (pr *PanicRecover) CreateHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rcv := recover(); rcv != nil {
				if rcv == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
					panic(rcv)
				}
				pr.logger.ErrorCtx(r.Context(), "panic in HTTP handler", zap.Any("recover", rcv))
				handlers.WriteError(r.Context(), w, pr.logger, http.StatusInternalServerError, "internal error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
