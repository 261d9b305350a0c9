package importapp

import (
	"context"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// ImportIndexHandler records every imported product in the import index
// so later duplicate checks can skip the source_url query
type ImportIndexHandler struct {
	index catalog.ImportIndex
	ttl   time.Duration
}

// NewImportIndexHandler creates a new ImportIndexHandler
func NewImportIndexHandler(index catalog.ImportIndex, ttl time.Duration) *ImportIndexHandler {
	return &ImportIndexHandler{index: index, ttl: ttl}
}

// EventTypes returns the event types this handler processes
func (h *ImportIndexHandler) EventTypes() []string {
	return []string{catalog.EventTypeProductImported}
}

// Handle records the imported product's source URL
func (h *ImportIndexHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	imported, ok := event.(*catalog.ProductImportedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if imported.SourceURL == "" {
		return nil
	}
	if err := h.index.Remember(ctx, imported.SourceURL, imported.ProductID, h.ttl); err != nil {
		return fmt.Errorf("failed to index imported product %s: %w", imported.ProductID, err)
	}
	return nil
}

var _ shared.EventHandler = (*ImportIndexHandler)(nil)
