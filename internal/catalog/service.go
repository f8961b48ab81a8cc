// Package catalog resolves items referenced by setups.
//
// Cached records are served while fresh. Stale ones are refreshed from their
// platform, classified and written back. A failed refresh never deletes
// anything: an existing record is flagged outdated, an unseen one is simply
// not found.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/setupcatalog/internal/classify"
	"github.com/erazemk/setupcatalog/internal/enrich"
	"github.com/erazemk/setupcatalog/internal/model"
	"github.com/erazemk/setupcatalog/internal/platform"
	"github.com/erazemk/setupcatalog/internal/store"
)

// Default limits.
const (
	DefaultFetchTimeout         = 10 * time.Second
	DefaultMaxConcurrentRefresh = 8
)

// Enqueuer accepts background enrichment tasks. Schedule must not block and
// reports false when the task was skipped.
type Enqueuer interface {
	Schedule(ctx context.Context, t enrich.Task) bool
}

// Options configures a Service.
type Options struct {
	Booth  platform.Adapter
	GitHub platform.Adapter

	Classifier *classify.Classifier
	Enricher   Enqueuer
	Policy     Policy

	// FetchTimeout bounds each adapter call.
	FetchTimeout time.Duration
	// MaxConcurrentRefresh bounds adapter calls in flight per batch.
	MaxConcurrentRefresh int
}

// Service is the revalidation orchestrator.
type Service struct {
	db   *sql.DB
	opts Options

	now    func() time.Time
	tracer trace.Tracer
}

// New creates a Service.
func New(db *sql.DB, opts Options) *Service {
	if opts.Classifier == nil {
		opts.Classifier = classify.Default()
	}
	if opts.Policy == (Policy{}) {
		opts.Policy = DefaultPolicy()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.MaxConcurrentRefresh <= 0 {
		opts.MaxConcurrentRefresh = DefaultMaxConcurrentRefresh
	}
	return &Service{
		db:     db,
		opts:   opts,
		now:    time.Now,
		tracer: otel.Tracer("github.com/erazemk/setupcatalog/internal/catalog"),
	}
}

// adapter picks the adapter for p.
func (s *Service) adapter(p model.Platform) (platform.Adapter, error) {
	var a platform.Adapter
	switch p {
	case model.PlatformBooth:
		a = s.opts.Booth
	case model.PlatformGitHub:
		a = s.opts.GitHub
	default:
		return nil, fmt.Errorf("%w: unknown platform %q", ErrValidation, p)
	}
	if a == nil {
		return nil, fmt.Errorf("no adapter configured for %s", p)
	}
	return a, nil
}

// GetItem resolves a single item. platformHint may be empty when the item is
// already cached. A fresh cached record is returned without any network call.
func (s *Service) GetItem(ctx context.Context, id string, platformHint model.Platform, snap model.FeatureSnapshot) (*model.Item, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.GetItem", trace.WithAttributes(
		attribute.String("item.id", id),
		attribute.String("item.platform", string(platformHint)),
		attribute.Bool("force_refresh", snap.ForceRefresh),
	))
	defer span.End()

	item, err := s.getItem(ctx, id, platformHint, snap)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return item, err
}

func (s *Service) getItem(ctx context.Context, id string, hint model.Platform, snap model.FeatureSnapshot) (*model.Item, error) {
	id = model.NormalizeItemID(hint, id)
	if id == "" {
		return nil, fmt.Errorf("%w: item id is required", ErrValidation)
	}
	if hint != "" {
		if err := model.ValidateItemID(hint, id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	// The cached record is loaded even when a refresh is forced: whether it
	// exists decides between outdated and not found, and whether this is a
	// first ingest.
	cached, err := store.GetItem(ctx, s.db, hint, id)
	if err != nil {
		return nil, err
	}

	if cached != nil {
		ttl := s.opts.Policy.TTL(cached.Platform)
		if Assess(cached.UpdatedAt, cached.Outdated, ttl, snap.ForceRefresh, s.now()) == Fresh {
			s.attachShop(ctx, cached)
			return cached, nil
		}
	}

	p := hint
	if p == "" && cached != nil {
		p = cached.Platform
	}
	if p == "" {
		return nil, fmt.Errorf("%w: no platform for item %s", ErrNotFound, id)
	}
	if hint == "" {
		if err := model.ValidateItemID(p, id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	item, err := s.revalidate(ctx, model.ItemKey{Platform: p, ID: id}, cached, snap)
	if err != nil {
		return nil, err
	}
	s.attachShop(ctx, item)
	return item, nil
}

// revalidate fetches key from its platform and stores the result. cached is
// the record as it was before this call, or nil.
//
// On failure the returned error wraps ErrUpstreamUnavailable when cached
// exists (and the record is flagged outdated), ErrNotFound otherwise. A
// missing adapter is a configuration error and leaves the record untouched.
func (s *Service) revalidate(ctx context.Context, key model.ItemKey, cached *model.Item, snap model.FeatureSnapshot) (*model.Item, error) {
	a, err := s.adapter(key.Platform)
	if err != nil {
		return nil, err
	}

	listing, err := s.fetch(ctx, a, key, snap)
	if err != nil {
		if cached == nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, key, err)
		}
		if markErr := store.MarkItemOutdated(ctx, s.db, key.Platform, key.ID); markErr != nil {
			slog.Warn("marking item outdated", "platform", key.Platform, "id", key.ID, "error", markErr)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, key, err)
	}

	category, source := s.opts.Classifier.Resolve(key.Platform, listing.CategoryID, key.ID, snap.CategoryOverrides)
	if source == model.SourceDefault && cached != nil && cached.CategorySource == model.SourceAI {
		category, source = cached.Category, model.SourceAI
	}

	now := s.now().UTC()
	shop := listing.Shop
	shop.Platform = key.Platform
	shop.UpdatedAt = now

	item := &model.Item{
		ID:          key.ID,
		Platform:    key.Platform,
		Category:    category,
		Name:        listing.Name,
		Description: listing.Description,
		ImageURL:    listing.ImageURL,
		Price:       listing.Price,
		Likes:       listing.Likes,
		NSFW:        listing.NSFW,
		Version:     listing.Version,
		Authors:     listing.Authors,
		ShopID:      shop.ID,
		CreatedAt:   now,
		UpdatedAt:   now,

		CategorySource: source,
	}
	if cached != nil {
		item.NiceName = cached.NiceName
		item.CreatedAt = cached.CreatedAt
	}

	if err := store.SaveListing(ctx, s.db, &shop, item); err != nil {
		return nil, fmt.Errorf("saving %s: %w", key, err)
	}
	item.Shop = &shop

	outcome := model.OutcomeRefreshed
	if cached == nil {
		outcome = model.OutcomeIngested
		task := enrich.Task{
			Platform:      key.Platform,
			ItemID:        key.ID,
			Name:          item.Name,
			Description:   item.Description,
			Category:      category,
			Deterministic: source.Deterministic(),
		}
		if s.opts.Enricher == nil || !s.opts.Enricher.Schedule(ctx, task) {
			slog.Warn("enrichment skipped", "platform", key.Platform, "id", key.ID)
		}
	}
	s.record(ctx, key, outcome, "", 0)

	return item, nil
}

// fetch calls the platform adapter under FetchTimeout. Category allow-list
// violations are reported as platform.ErrUnavailable.
func (s *Service) fetch(ctx context.Context, a platform.Adapter, key model.ItemKey, snap model.FeatureSnapshot) (*platform.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.fetch", trace.WithAttributes(
		attribute.String("item.platform", string(key.Platform)),
		attribute.String("item.id", key.ID),
	))
	defer span.End()

	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	start := time.Now()
	listing, err := a.Fetch(fetchCtx, key.ID)
	elapsed := time.Since(start)

	if err == nil && key.Platform == model.PlatformBooth && !snap.CategoryAllowed(listing.CategoryID) {
		err = fmt.Errorf("category %d not allowed: %w", listing.CategoryID, platform.ErrUnavailable)
		s.record(ctx, key, model.OutcomeDisallowed, err.Error(), elapsed)
		span.SetAttributes(attribute.String("outcome", model.OutcomeDisallowed))
		return nil, err
	}

	switch {
	case err == nil:
		span.SetAttributes(attribute.String("outcome", "ok"))
		return listing, nil
	case errors.Is(err, platform.ErrUnavailable):
		slog.Info("item unavailable upstream", "platform", key.Platform, "id", key.ID, "error", err)
		s.record(ctx, key, model.OutcomeUnavailable, err.Error(), elapsed)
		span.SetAttributes(attribute.String("outcome", model.OutcomeUnavailable))
	default:
		slog.Warn("fetching item", "platform", key.Platform, "id", key.ID, "error", err)
		s.record(ctx, key, model.OutcomeError, err.Error(), elapsed)
		span.SetAttributes(attribute.String("outcome", model.OutcomeError))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return nil, err
}

// record writes a revalidation log row. Failures are logged and dropped.
func (s *Service) record(ctx context.Context, key model.ItemKey, outcome, detail string, d time.Duration) {
	err := store.RecordRevalidation(ctx, s.db, &model.Revalidation{
		Platform:    key.Platform,
		ItemID:      key.ID,
		Outcome:     outcome,
		Detail:      detail,
		Duration:    d,
		AttemptedAt: s.now(),
	})
	if err != nil {
		slog.Warn("recording revalidation", "platform", key.Platform, "id", key.ID, "error", err)
	}
}

func (s *Service) attachShop(ctx context.Context, item *model.Item) {
	if item.Shop != nil || item.ShopID == "" {
		return
	}
	shop, err := store.GetShop(ctx, s.db, item.Platform, item.ShopID)
	if err != nil {
		slog.Warn("loading shop", "platform", item.Platform, "shop", item.ShopID, "error", err)
		return
	}
	item.Shop = shop
}

// MarkOutdated flags a cached item so the next read refreshes it.
func (s *Service) MarkOutdated(ctx context.Context, p model.Platform, id string) error {
	id = model.NormalizeItemID(p, id)
	if err := model.ValidateItemID(p, id); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	cached, err := store.GetItem(ctx, s.db, p, id)
	if err != nil {
		return err
	}
	if cached == nil {
		return fmt.Errorf("%w: %s:%s", ErrNotFound, p, id)
	}
	return store.MarkItemOutdated(ctx, s.db, p, id)
}
