package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// CreateAnnouncementRequest describes the create payload for announcements.
type CreateAnnouncementRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"required"`
	Audience    string     `json:"audience" validate:"omitempty,audience"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// Build implements ContentDraft.
func (r *CreateAnnouncementRequest) Build(ownerID string, now time.Time) *models.Announcement {
	item := &models.Announcement{
		ContentBase: newBase(ownerID, r.Audience, now),
		Title:       strings.TrimSpace(r.Title),
		Description: cleanRich(r.Description),
	}
	if r.ExpiresAt != nil {
		expires := r.ExpiresAt.UTC()
		item.ExpiresAt = &expires
	}
	return item
}

// UpdateAnnouncementRequest describes a partial announcement update.
type UpdateAnnouncementRequest struct {
	Title        *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description  *string    `json:"description" validate:"omitempty,min=1"`
	Audience     *string    `json:"audience" validate:"omitempty,audience"`
	ExpiresAt    *time.Time `json:"expires_at"`
	ClearExpires bool       `json:"clear_expires"`
}

// Apply implements ContentPatch.
func (r *UpdateAnnouncementRequest) Apply(item *models.Announcement) error {
	setString(&item.Title, r.Title)
	setRich(&item.Description, r.Description)
	setAudience(&item.Audience, r.Audience)
	switch {
	case r.ClearExpires:
		item.ExpiresAt = nil
	case r.ExpiresAt != nil:
		expires := r.ExpiresAt.UTC()
		item.ExpiresAt = &expires
	}
	return nil
}
