// Copyright 2025 James Ross
package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

func withMiddleware(next http.Handler, logger *zap.Logger) http.Handler {
	return recoveryMiddleware(logger, requestIDMiddleware(next))
}

// requestIDMiddleware tags every response with a request ID, generating one
// when the caller didn't supply one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware turns a handler panic into a 500 instead of killing the
// pacing/scheduler goroutines that share this process.
func recoveryMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered in management api",
					zap.Any("error", err),
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method))
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
