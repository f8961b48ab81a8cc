package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/setupcatalog/internal/catalog"
	"github.com/erazemk/setupcatalog/internal/features"
	"github.com/erazemk/setupcatalog/internal/imaging"
	"github.com/erazemk/setupcatalog/internal/model"
	"github.com/erazemk/setupcatalog/internal/store"
)

// ItemsHandler serves cached items.
type ItemsHandler struct {
	DB       *sql.DB
	Catalog  *catalog.Service
	Features features.Source

	ImageClient *http.Client
	UserAgent   string
}

// itemKey reads and validates the {platform}/{id} path values.
func itemKey(w http.ResponseWriter, r *http.Request) (model.ItemKey, bool) {
	p := model.Platform(r.PathValue("platform"))
	key := model.ItemKey{Platform: p, ID: model.NormalizeItemID(p, r.PathValue("id"))}
	if err := model.ValidateItemID(key.Platform, key.ID); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return key, false
	}
	return key, true
}

// Get handles GET /api/items/{platform}/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key, ok := itemKey(w, r)
	if !ok {
		return
	}

	item, err := h.Catalog.GetItem(r.Context(), key.ID, key.Platform, h.Features.Snapshot())
	if err != nil {
		catalogError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Refresh handles POST /api/items/{platform}/{id}/refresh.
func (h *ItemsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	key, ok := itemKey(w, r)
	if !ok {
		return
	}

	snap := h.Features.Snapshot().WithForceRefresh()
	item, err := h.Catalog.GetItem(r.Context(), key.ID, key.Platform, snap)
	if err != nil {
		catalogError(w, err)
		return
	}

	slog.Info("item refreshed", "item", key.String(), "by", actor(r))
	jsonResponse(w, http.StatusOK, item)
}

// MarkOutdated handles POST /api/items/{platform}/{id}/outdated.
func (h *ItemsHandler) MarkOutdated(w http.ResponseWriter, r *http.Request) {
	key, ok := itemKey(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.MarkOutdated(r.Context(), key.Platform, key.ID); err != nil {
		catalogError(w, err)
		return
	}

	slog.Info("item marked outdated", "item", key.String(), "by", actor(r))
	w.WriteHeader(http.StatusNoContent)
}

// GetImage handles GET /api/items/{platform}/{id}/image. The thumbnail is
// generated from the item's image URL on first request and cached until the
// URL changes.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	key, ok := itemKey(w, r)
	if !ok {
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, key.Platform, key.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil || item.ImageURL == "" {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	data, mime, sourceURL, err := store.GetItemImage(r.Context(), h.DB, key.Platform, key.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}

	if data == nil || sourceURL != item.ImageURL {
		thumb, err := imaging.Fetch(r.Context(), h.ImageClient, item.ImageURL, h.UserAgent)
		if err != nil {
			slog.Warn("fetching item image", "item", key.String(), "error", err)
			if data == nil {
				jsonError(w, http.StatusBadGateway, "image unavailable")
				return
			}
		} else {
			data, mime = thumb.Data, thumb.MIME
			if err := store.SetItemImage(r.Context(), h.DB, key.Platform, key.ID, item.ImageURL, data, mime); err != nil {
				slog.Warn("caching item image", "item", key.String(), "error", err)
			}
		}
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}

// GetHistory handles GET /api/items/{platform}/{id}/history.
func (h *ItemsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	key, ok := itemKey(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	history, err := store.ListRevalidations(r.Context(), h.DB, key.Platform, key.ID, limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get history")
		return
	}
	if history == nil {
		history = []model.Revalidation{}
	}
	jsonResponse(w, http.StatusOK, history)
}
