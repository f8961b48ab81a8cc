package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/setupcatalog/internal/auth"
	"github.com/erazemk/setupcatalog/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
}

type tokenRequest struct {
	Client string `json:"client"`
	Secret string `json:"secret"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Token handles POST /api/auth/token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Client == "" || req.Secret == "" {
		jsonError(w, http.StatusBadRequest, "client and secret required")
		return
	}

	client, err := store.GetClientByName(r.Context(), h.DB, req.Client)
	if err != nil {
		slog.Error("failed to look up client", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if client == nil || client.DeletedAt != nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !auth.CheckSecret(client.SecretHash, req.Secret) {
		slog.Warn("token request failed", "client", req.Client, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, client.ID, client.Name, client.Role)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("token issued", "client", client.Name, "role", client.Role)
	jsonResponse(w, http.StatusOK, tokenResponse{Token: token})
}

// Logout handles POST /api/auth/logout by revoking the caller's token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		slog.Error("failed to revoke token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to revoke token")
		return
	}

	slog.Info("token revoked", "client", claims.Client)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
