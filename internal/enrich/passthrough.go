package enrich

import (
	"context"

	"github.com/pragyanetra/console/internal/models"
)

// Passthrough resolves every reference to a raw item without touching the
// network. Used when no metadata API key is configured.
type Passthrough struct{}

func (Passthrough) Resolve(_ context.Context, refURL string) models.VideoItem {
	return models.RawItem(refURL)
}

func (Passthrough) ResolveAll(_ context.Context, refURLs []string) []models.VideoItem {
	items := make([]models.VideoItem, len(refURLs))
	for i, ref := range refURLs {
		items[i] = models.RawItem(ref)
	}
	return items
}
