package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/setupcatalog/internal/auth"
	"github.com/erazemk/setupcatalog/internal/model"
	"github.com/erazemk/setupcatalog/internal/store"
)

// ClientsHandler handles API client management endpoints (admin only).
type ClientsHandler struct {
	DB *sql.DB
}

type createClientRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
	Role   string `json:"role"`
}

type createClientResponse struct {
	Client *model.APIClient `json:"client"`
	// Secret is only returned when it was generated by the server.
	Secret string `json:"secret,omitempty"`
}

// List handles GET /api/clients.
func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := store.ListClients(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list clients", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list clients")
		return
	}
	if clients == nil {
		clients = []model.APIClient{}
	}
	jsonResponse(w, http.StatusOK, clients)
}

// Create handles POST /api/clients. When no secret is given one is generated
// and returned once.
func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Role == "" {
		jsonError(w, http.StatusBadRequest, "name and role required")
		return
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	var generated string
	if req.Secret == "" {
		s, err := auth.GenerateSecret()
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to generate secret")
			return
		}
		req.Secret, generated = s, s
	}
	if err := model.ValidateSecret(req.Secret); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashSecret(req.Secret)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash secret")
		return
	}

	client, err := store.CreateClient(r.Context(), h.DB, req.Name, hash, req.Role)
	if err != nil {
		jsonError(w, http.StatusConflict, "client already exists")
		return
	}

	slog.Info("client created", "client", client.Name, "role", client.Role, "by", actor(r))
	jsonResponse(w, http.StatusCreated, createClientResponse{Client: client, Secret: generated})
}

// Delete handles DELETE /api/clients/{id}.
func (h *ClientsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	if claims := GetClaims(r.Context()); claims != nil && claims.ClientID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete the calling client")
		return
	}

	client, err := store.GetClient(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get client")
		return
	}
	if client == nil || client.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "client not found")
		return
	}

	if err := store.DeleteClient(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete client")
		return
	}

	slog.Info("client deleted", "client", client.Name, "by", actor(r))
	w.WriteHeader(http.StatusNoContent)
}

// actor names the authenticated client for log lines.
func actor(r *http.Request) string {
	if claims := GetClaims(r.Context()); claims != nil {
		return claims.Client
	}
	return ""
}
