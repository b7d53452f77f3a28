package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/barangay-portal/resident-gateway/internal/backend"
	"github.com/barangay-portal/resident-gateway/internal/logger"
	"github.com/barangay-portal/resident-gateway/internal/services"
)

type ctxKey int

const (
	tokenKey ctxKey = iota
	residentKey
)

// RequireResident rejects requests whose bearer token the verifier does not
// accept and puts the token and resident id on the request context.
func RequireResident(verifier *services.TokenVerifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			residentID, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if errors.Is(err, backend.ErrUnauthorized) {
					logger.L.Info("rejected token", "path", r.URL.Path, "err", err)
				}
				handleServiceError(w, r, "verify_token", err)
				return
			}
			ctx := context.WithValue(r.Context(), tokenKey, token)
			ctx = context.WithValue(ctx, residentKey, residentID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func credentials(r *http.Request) (token, residentID string) {
	token, _ = r.Context().Value(tokenKey).(string)
	residentID, _ = r.Context().Value(residentKey).(string)
	return token, residentID
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Error("encode response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// handleServiceError maps service and backend errors onto responses. Details
// of unexpected failures are logged, never returned.
func handleServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var status *backend.StatusError
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, backend.SessionExpiredMessage)
	case errors.Is(err, backend.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrDraftNotFound):
		writeError(w, http.StatusNotFound, services.ErrDraftNotFound.Error())
	case errors.Is(err, services.ErrInvalidStep):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnknownDocumentType),
		errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidProfile),
		errors.Is(err, services.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logger.L.Warn("request timed out", "op", op, "path", r.URL.Path)
		writeError(w, http.StatusGatewayTimeout, "The barangay service took too long to respond")
	case errors.Is(err, context.Canceled):
		// client went away
	case errors.As(err, &status) && status.Code == http.StatusBadRequest:
		writeError(w, http.StatusBadRequest, "The request was rejected by the barangay service")
	case errors.As(err, &status):
		logger.L.Error("backend failure", "op", op, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadGateway, "The barangay service is unavailable")
	default:
		logger.L.Error("request failed", "op", op, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong")
	}
}
