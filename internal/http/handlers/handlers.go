package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/doriangym/contratos-backend/internal/domain"
	"github.com/doriangym/contratos-backend/internal/http/response"
	"github.com/doriangym/contratos-backend/internal/service"
	"github.com/doriangym/contratos-backend/pkg/auth"
	"github.com/doriangym/contratos-backend/pkg/config"
	"github.com/doriangym/contratos-backend/pkg/logger"
)

type Handlers struct {
	members service.MemberService
	admins  service.AdminService
	config  *config.Config
}

func New(members service.MemberService, admins service.AdminService, cfg *config.Config) *Handlers {
	return &Handlers{
		members: members,
		admins:  admins,
		config:  cfg,
	}
}

// RequireAdmin gates the admin panel surface with a bearer JWT.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(w, "Missing or invalid authorization header")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
		if err != nil {
			response.Unauthorized(w, "Invalid token")
			return
		}
		if claims.Role != "admin" {
			response.Forbidden(w, "Admin access required")
			return
		}

		ctx := context.WithValue(r.Context(), logger.AdminKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireQRViewToken gates the tokened status view. The token is time-boxed:
// once its validity window elapses the request is rejected regardless of the
// member's own state.
func (h *Handlers) RequireQRViewToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			response.WriteError(w, http.StatusUnauthorized, "Token parameter is required", response.CodeUnauthorized)
			return
		}

		claims, err := auth.Parse(token, h.config.Auth.QRTokenSecret)
		if err != nil || claims.Role != "qr-view" {
			response.WriteError(w, http.StatusUnauthorized, "Invalid or expired token", response.CodeExpiredToken)
			return
		}

		if id, err := memberID(r); err != nil || claims.Sub != id {
			response.WriteError(w, http.StatusUnauthorized, "Token does not match member", response.CodeExpiredToken)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireContractAccess admits either an admin bearer token or the member's
// own time-boxed view token. The welcome email carries the latter, so a new
// member can download their contract without panel credentials.
func (h *Handlers) RequireContractAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			claims, err := auth.Parse(strings.TrimPrefix(authHeader, "Bearer "), h.config.Auth.JWTSecret)
			if err != nil || claims.Role != "admin" {
				response.Unauthorized(w, "Invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), logger.AdminKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		h.RequireQRViewToken(next).ServeHTTP(w, r)
	})
}

func memberID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeServiceError maps domain sentinels onto the HTTP error taxonomy.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPlan):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidPlan)
	case errors.Is(err, domain.ErrConflict):
		response.Conflict(w, err.Error())
	case errors.Is(err, domain.ErrMissingArtifact):
		response.NotFound(w, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "Member not found")
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid credentials")
	default:
		response.InternalError(w, "Internal server error")
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
