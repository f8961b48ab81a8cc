package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/erazemk/setupcatalog/internal/catalog"
	"github.com/erazemk/setupcatalog/internal/features"
	"github.com/erazemk/setupcatalog/internal/model"
	"github.com/erazemk/setupcatalog/internal/store"
)

// SetupsHandler handles setup endpoints.
type SetupsHandler struct {
	DB       *sql.DB
	Catalog  *catalog.Service
	Features features.Source
}

type createSetupRequest struct {
	Name   string               `json:"name"`
	Author string               `json:"author"`
	Avatar *model.ItemKey       `json:"avatar"`
	Items  []model.SetupItemRef `json:"items"`
}

type setupResponse struct {
	Setup            *model.Setup      `json:"setup"`
	Items            []model.SetupItem `json:"items"`
	FailedItemsCount int               `json:"failed_items_count"`
}

// Create handles POST /api/setups. Every referenced item is resolved through
// the catalog first, so the setup only ever points at cached items.
func (h *SetupsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSetupRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Author == "" {
		req.Author = actor(r)
	}

	for _, ref := range req.Items {
		if ref.Category != nil && !ref.Category.Valid() {
			jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid category %q", *ref.Category))
			return
		}
	}

	// Refs may omit the platform of a cached item or spell an id differently;
	// store the resolved key.
	keys := make([]*model.ItemKey, 0, len(req.Items)+1)
	if req.Avatar != nil {
		keys = append(keys, req.Avatar)
	}
	for i := range req.Items {
		keys = append(keys, &req.Items[i].Key)
	}

	snap := h.Features.Snapshot()
	for _, key := range keys {
		item, err := h.Catalog.GetItem(r.Context(), key.ID, key.Platform, snap)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				jsonError(w, http.StatusUnprocessableEntity, fmt.Sprintf("item %s not found", key))
				return
			}
			catalogError(w, err)
			return
		}
		*key = item.Key()
	}

	setup, err := store.CreateSetup(r.Context(), h.DB, &model.Setup{
		ID:     uuid.NewString(),
		Name:   req.Name,
		Author: req.Author,
		Avatar: req.Avatar,
	}, req.Items)
	if err != nil {
		slog.Error("failed to create setup", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create setup")
		return
	}

	slog.Info("setup created", "setup", setup.ID, "items", len(req.Items), "by", actor(r))
	jsonResponse(w, http.StatusCreated, setup)
}

// Get handles GET /api/setups/{id}.
func (h *SetupsHandler) Get(w http.ResponseWriter, r *http.Request) {
	setup, res, err := h.Catalog.ResolveSetup(r.Context(), r.PathValue("id"), h.Features.Snapshot())
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "setup not found")
			return
		}
		catalogError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, setupResponse{
		Setup:            setup,
		Items:            res.Items,
		FailedItemsCount: res.FailedItemsCount,
	})
}

// Delete handles DELETE /api/setups/{id}.
func (h *SetupsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	setup, err := store.GetSetup(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get setup")
		return
	}
	if setup == nil {
		jsonError(w, http.StatusNotFound, "setup not found")
		return
	}

	claims := GetClaims(r.Context())
	if claims != nil && claims.Role != model.RoleAdmin && setup.Author != claims.Client {
		jsonError(w, http.StatusForbidden, "only the author or an admin can delete a setup")
		return
	}

	if err := store.DeleteSetup(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete setup")
		return
	}

	slog.Info("setup deleted", "setup", id, "by", actor(r))
	w.WriteHeader(http.StatusNoContent)
}
