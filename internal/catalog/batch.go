package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/setupcatalog/internal/model"
	"github.com/erazemk/setupcatalog/internal/store"
)

// Resolution is the best-effort result of resolving a setup's items.
type Resolution struct {
	Items            []model.SetupItem `json:"items"`
	FailedItemsCount int               `json:"failed_items_count"`
}

// ResolveSetupItems resolves every reference of a setup. Fresh records are
// used as they are; stale ones are refreshed concurrently. A reference that
// cannot be resolved is dropped and counted, it never fails the call.
//
// A record that is still inside its TTL but flagged outdated is dropped
// without a refresh; it is retried once its TTL has elapsed.
func (s *Service) ResolveSetupItems(ctx context.Context, refs []model.SetupItemRef, snap model.FeatureSnapshot) Resolution {
	ctx, span := s.tracer.Start(ctx, "catalog.ResolveSetupItems", trace.WithAttributes(
		attribute.Int("refs", len(refs)),
		attribute.Bool("force_refresh", snap.ForceRefresh),
	))
	defer span.End()

	now := s.now()
	resolved := make([]*model.SetupItem, len(refs))
	var failed atomic.Int64
	var stale []int

	for i, ref := range refs {
		if ref.Item == nil {
			stale = append(stale, i)
			continue
		}
		ttl := s.opts.Policy.TTL(ref.Item.Platform)
		if Assess(ref.Item.UpdatedAt, false, ttl, snap.ForceRefresh, now) == Stale {
			stale = append(stale, i)
			continue
		}
		if ref.Item.Outdated {
			failed.Add(1)
			continue
		}
		s.attachShop(ctx, ref.Item)
		resolved[i] = merge(ref, ref.Item)
	}

	var g errgroup.Group
	g.SetLimit(s.opts.MaxConcurrentRefresh)
	for _, i := range stale {
		ref := refs[i]
		g.Go(func() error {
			item, err := s.revalidateRef(ctx, ref, snap)
			if err != nil {
				slog.Info("setup item unresolved", "platform", ref.Key.Platform, "id", ref.Key.ID, "error", err)
				failed.Add(1)
				return nil
			}
			resolved[i] = merge(ref, item)
			return nil
		})
	}
	g.Wait()

	res := Resolution{Items: make([]model.SetupItem, 0, len(refs)), FailedItemsCount: int(failed.Load())}
	for _, item := range resolved {
		if item != nil {
			res.Items = append(res.Items, *item)
		}
	}

	span.SetAttributes(
		attribute.Int("stale", len(stale)),
		attribute.Int("failed", res.FailedItemsCount),
	)
	return res
}

func (s *Service) revalidateRef(ctx context.Context, ref model.SetupItemRef, snap model.FeatureSnapshot) (*model.Item, error) {
	key := ref.Key
	key.ID = model.NormalizeItemID(key.Platform, key.ID)
	if ref.Item != nil {
		key = ref.Item.Key()
	}
	if err := model.ValidateItemID(key.Platform, key.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.revalidate(ctx, key, ref.Item, snap)
}

// merge combines canonical item data with the reference's own fields.
func merge(ref model.SetupItemRef, item *model.Item) *model.SetupItem {
	return &model.SetupItem{
		Item:             *item,
		CategoryOverride: ref.Category,
		Note:             ref.Note,
		Unsupported:      ref.Unsupported,
		Shapekeys:        ref.Shapekeys,
	}
}

// ResolveSetup loads a setup and resolves its items.
func (s *Service) ResolveSetup(ctx context.Context, setupID string, snap model.FeatureSnapshot) (*model.Setup, Resolution, error) {
	setup, err := store.GetSetup(ctx, s.db, setupID)
	if err != nil {
		return nil, Resolution{}, err
	}
	if setup == nil {
		return nil, Resolution{}, fmt.Errorf("%w: setup %s", ErrNotFound, setupID)
	}

	refs, err := store.ListSetupItemRefs(ctx, s.db, setupID)
	if err != nil {
		return nil, Resolution{}, err
	}
	return setup, s.ResolveSetupItems(ctx, refs, snap), nil
}
