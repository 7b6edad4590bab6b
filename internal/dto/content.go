package dto

import (
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// richText sanitises free text that clients render as HTML.
var richText = bluemonday.UGCPolicy()

// ContentDraft is a validated create payload for content type T.
type ContentDraft[T any] interface {
	Build(ownerID string, now time.Time) *T
}

// ContentPatch is a partial update payload for content type T. Nil fields are left untouched.
type ContentPatch[T any] interface {
	Apply(item *T) error
}

func newBase(ownerID, audience string, now time.Time) models.ContentBase {
	base := models.ContentBase{
		Audience:  resolveAudience(audience),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ownerID != "" {
		owner := ownerID
		base.OwnerID = &owner
	}
	return base
}

func resolveAudience(audience string) string {
	audience = strings.TrimSpace(audience)
	if audience == "" || strings.EqualFold(audience, models.AudienceAll) {
		return models.AudienceAll
	}
	return audience
}

func cleanRich(s string) string {
	return strings.TrimSpace(richText.Sanitize(s))
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setRich(dst *string, src *string) {
	if src != nil {
		*dst = cleanRich(*src)
	}
}

func setTime(dst *time.Time, src *time.Time) {
	if src != nil {
		*dst = src.UTC()
	}
}

func setAudience(dst *string, src *string) {
	if src != nil {
		*dst = resolveAudience(*src)
	}
}
