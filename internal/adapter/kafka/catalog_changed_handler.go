package kafka

import (
	"context"
	"strings"

	"github.com/aq2208/gorder-checkout/internal/logging"
	"github.com/aq2208/gorder-checkout/internal/usecase"
)

// CatalogChangedHandler drops cached catalog entries when the catalog
// service announces a change.
type CatalogChangedHandler struct {
	Cache usecase.ProductCache
}

func NewCatalogChangedHandler(cache usecase.ProductCache) *CatalogChangedHandler {
	return &CatalogChangedHandler{Cache: cache}
}

func (h *CatalogChangedHandler) Handle(ctx context.Context, ev usecase.CatalogChangedMsg) error {
	switch strings.ToLower(ev.Kind) {
	case "", "product":
		if ev.ProductID == "" {
			logging.FromCtx(ctx).Warn("product change without id, skipped")
			return nil
		}
		return h.Cache.Evict(ctx, ev.ProductID)
	case "package":
		if ev.Slug == "" {
			logging.FromCtx(ctx).Warn("package change without slug, skipped")
			return nil
		}
		return h.Cache.EvictPackage(ctx, ev.Slug)
	default:
		logging.FromCtx(ctx).Warn("unknown catalog change kind, skipped", "kind", ev.Kind)
		return nil
	}
}
