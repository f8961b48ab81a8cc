// Package booth implements the platform adapter for the BOOTH marketplace.
package booth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/erazemk/setupcatalog/internal/model"
	"github.com/erazemk/setupcatalog/internal/platform"
)

// DefaultBaseURL is the public BOOTH site.
const DefaultBaseURL = "https://booth.pm"

// maxBodySize caps item documents read from upstream.
const maxBodySize = 4 << 20

// variationFreeDownload is the status of a variation that costs nothing.
const variationFreeDownload = "free_download"

// Options configures the adapter.
type Options struct {
	BaseURL   string
	UserAgent string
	// Timeout applies to each HTTP request. The caller's context may be shorter.
	Timeout time.Duration
	// RequestsPerSecond throttles upstream calls; zero means unlimited.
	RequestsPerSecond float64
	// Client overrides the HTTP client (Timeout is ignored when set).
	Client *http.Client
}

// Adapter fetches item documents from BOOTH.
type Adapter struct {
	baseURL   string
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// New creates a BOOTH adapter.
func New(opts Options) (*Adapter, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid booth base url: %w", err)
	}

	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = "setupcatalog/1.0"
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Adapter{
		baseURL:   strings.TrimRight(base, "/"),
		client:    client,
		userAgent: ua,
		limiter:   rate.NewLimiter(limit, 1),
	}, nil
}

// Platform implements platform.Adapter.
func (a *Adapter) Platform() model.Platform {
	return model.PlatformBooth
}

// Fetch implements platform.Adapter.
func (a *Adapter) Fetch(ctx context.Context, id string) (*platform.Listing, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("booth: item id is required")
	}

	body, err := a.get(ctx, a.baseURL+"/ja/items/"+url.PathEscape(id)+".json")
	if err != nil {
		return nil, err
	}

	var doc itemDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("booth: decoding item %s: %w", id, err)
	}
	return doc.listing(id)
}

func (a *Adapter) get(ctx context.Context, u string) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("booth: waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("booth: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("booth: http: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone,
		resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("booth: http %d: %w", resp.StatusCode, platform.ErrUnavailable)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("booth: http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("booth: read body: %w", err)
	}
	return body, nil
}

type itemDocument struct {
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Price          string      `json:"price"`
	IsAdult        bool        `json:"is_adult"`
	WishListsCount int         `json:"wish_lists_count"`
	Images         []struct {
		Original string `json:"original"`
		Resized  string `json:"resized"`
	} `json:"images"`
	Category *struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"category"`
	Shop *struct {
		Name         string `json:"name"`
		Subdomain    string `json:"subdomain"`
		ThumbnailURL string `json:"thumbnail_url"`
		Verified     bool   `json:"verified"`
	} `json:"shop"`
	Variations []struct {
		Status string `json:"status"`
	} `json:"variations"`
}

func (d *itemDocument) listing(id string) (*platform.Listing, error) {
	if strings.TrimSpace(d.Name) == "" {
		return nil, fmt.Errorf("booth: item %s has no name", id)
	}
	if d.Shop == nil || d.Shop.Subdomain == "" {
		return nil, fmt.Errorf("booth: item %s has no shop", id)
	}

	l := &platform.Listing{
		ID:          id,
		Name:        strings.TrimSpace(d.Name),
		Description: platform.PlainText(d.Description),
		Price:       d.normalizedPrice(),
		Likes:       d.WishListsCount,
		NSFW:        d.IsAdult,
		Shop: model.Shop{
			ID:       d.Shop.Subdomain,
			Platform: model.PlatformBooth,
			Name:     strings.TrimSpace(d.Shop.Name),
			ImageURL: d.Shop.ThumbnailURL,
			Verified: d.Shop.Verified,
		},
	}
	if l.Shop.Name == "" {
		l.Shop.Name = d.Shop.Subdomain
	}
	if len(d.Images) > 0 {
		l.ImageURL = d.Images[0].Original
		if l.ImageURL == "" {
			l.ImageURL = d.Images[0].Resized
		}
	}
	if d.Category != nil {
		l.CategoryID = d.Category.ID
	}
	return l, nil
}

// normalizedPrice applies the free-variation rule: any variation that can be
// downloaded for free makes the whole item FREE, whatever the listed price.
func (d *itemDocument) normalizedPrice() *string {
	for _, v := range d.Variations {
		if v.Status == variationFreeDownload {
			free := model.PriceFree
			return &free
		}
	}
	price := strings.TrimSpace(d.Price)
	if price == "" {
		return nil
	}
	return &price
}
