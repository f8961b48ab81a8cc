package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/setupcatalog/internal/catalog"
	"github.com/erazemk/setupcatalog/internal/features"
	"github.com/erazemk/setupcatalog/internal/model"
)

// Config holds the router's dependencies.
type Config struct {
	DB        *sql.DB
	JWTSecret string
	Catalog   *catalog.Service
	Features  features.Source

	// ImageClient fetches upstream item images for thumbnails.
	ImageClient *http.Client
	UserAgent   string
}

// NewRouter creates the API router with all endpoints registered.
//
// Item ids containing a slash (GitHub owner/repo) must be sent escaped as a
// single path segment, e.g. /api/items/github/octo%2Frepo.
func NewRouter(cfg Config) http.Handler {
	if cfg.Features == nil {
		cfg.Features = features.Static{}
	}
	if cfg.ImageClient == nil {
		cfg.ImageClient = http.DefaultClient
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: cfg.DB, JWTSecret: cfg.JWTSecret}
	clientsHandler := &ClientsHandler{DB: cfg.DB}
	itemsHandler := &ItemsHandler{
		DB:          cfg.DB,
		Catalog:     cfg.Catalog,
		Features:    cfg.Features,
		ImageClient: cfg.ImageClient,
		UserAgent:   cfg.UserAgent,
	}
	setupsHandler := &SetupsHandler{DB: cfg.DB, Catalog: cfg.Catalog, Features: cfg.Features}

	authMW := AuthMiddleware(cfg.JWTSecret, cfg.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireAuthor := RequireRole(model.RoleAuthor)

	// Public: token exchange.
	mux.HandleFunc("POST /api/auth/token", authHandler.Token)
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// API clients (admin only).
	mux.Handle("GET /api/clients", authMW(requireAdmin(http.HandlerFunc(clientsHandler.List))))
	mux.Handle("POST /api/clients", authMW(requireAdmin(http.HandlerFunc(clientsHandler.Create))))
	mux.Handle("DELETE /api/clients/{id}", authMW(requireAdmin(http.HandlerFunc(clientsHandler.Delete))))

	// Items: read (public), maintenance (admin).
	mux.HandleFunc("GET /api/items/{platform}/{id}", itemsHandler.Get)
	mux.HandleFunc("GET /api/items/{platform}/{id}/image", itemsHandler.GetImage)
	mux.HandleFunc("GET /api/items/{platform}/{id}/history", itemsHandler.GetHistory)
	mux.Handle("POST /api/items/{platform}/{id}/refresh", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Refresh))))
	mux.Handle("POST /api/items/{platform}/{id}/outdated", authMW(requireAdmin(http.HandlerFunc(itemsHandler.MarkOutdated))))

	// Setups: read (public), write (author+).
	mux.Handle("POST /api/setups", authMW(requireAuthor(http.HandlerFunc(setupsHandler.Create))))
	mux.HandleFunc("GET /api/setups/{id}", setupsHandler.Get)
	mux.Handle("DELETE /api/setups/{id}", authMW(requireAuthor(http.HandlerFunc(setupsHandler.Delete))))

	return mux
}
