package service

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// BuildFacets groups items for an administrator's management view. Mine holds the requester's
// uploads, Past the items whose classification instant is before now, Upcoming the rest.
// Each facet is ordered newest created first.
func BuildFacets[T any, P models.ContentPtr[T]](items []*T, requesterID string, now time.Time, logger *zap.Logger) models.ContentFacets[T] {
	facets := models.ContentFacets[T]{
		Mine:     make([]*T, 0),
		Past:     make([]*T, 0),
		Upcoming: make([]*T, 0),
	}
	for _, item := range withOwners[T, P](items, logger) {
		meta := P(item).Meta()
		if meta.IsOwnedBy(requesterID) {
			facets.Mine = append(facets.Mine, item)
		}
		if isPast(P(item), now) {
			facets.Past = append(facets.Past, item)
		} else {
			facets.Upcoming = append(facets.Upcoming, item)
		}
	}
	return facets
}

// VisibleItems returns the items viewer may see that are published and not yet expired,
// newest created first.
func VisibleItems[T any, P models.ContentPtr[T]](items []*T, viewer Viewer, now time.Time, logger *zap.Logger) []*T {
	visible := make([]*T, 0, len(items))
	for _, item := range withOwners[T, P](items, logger) {
		content := P(item)
		meta := content.Meta()
		if !IsVisible(meta.Audience, viewer) {
			continue
		}
		if meta.CreatedAt.After(now) || isPast(content, now) {
			continue
		}
		visible = append(visible, item)
	}
	return visible
}

func isPast(content models.Content, now time.Time) bool {
	until := content.ActiveUntil()
	return until != nil && until.Before(now)
}

// withOwners resolves uploader summaries, drops items whose owner row is gone
// and returns the rest sorted newest first.
func withOwners[T any, P models.ContentPtr[T]](items []*T, logger *zap.Logger) []*T {
	kept := make([]*T, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		meta := P(item).Meta()
		if !meta.ResolveOwner() {
			if logger != nil {
				logger.Warn("skipping content with missing owner",
					zap.String("content_id", meta.ID),
					zap.Stringp("owner_id", meta.OwnerID),
				)
			}
			continue
		}
		kept = append(kept, item)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return P(kept[i]).Meta().CreatedAt.After(P(kept[j]).Meta().CreatedAt)
	})
	return kept
}
