package middleware

import (
	"net/http"

	"go-marketplace/internal/marketplace/access"
)

// AccessCache lets every capability resolution of one request share rule reads.
type AccessCache struct{}

func NewAccessCache() *AccessCache {
	return &AccessCache{}
}

func (ac *AccessCache) CreateHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(access.WithRequestCache(r.Context())))
	})
}
