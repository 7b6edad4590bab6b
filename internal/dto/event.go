package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// CreateEventRequest describes the create payload for events.
type CreateEventRequest struct {
	Name        string    `json:"name" validate:"required,max=255"`
	Description string    `json:"description" validate:"required"`
	Time        string    `json:"time" validate:"required,max=32"`
	Venue       string    `json:"venue" validate:"required,max=255"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Audience    string    `json:"audience" validate:"omitempty,audience"`
}

// Build implements ContentDraft.
func (r *CreateEventRequest) Build(ownerID string, now time.Time) *models.Event {
	return &models.Event{
		ContentBase: newBase(ownerID, r.Audience, now),
		Name:        strings.TrimSpace(r.Name),
		Description: cleanRich(r.Description),
		Time:        strings.TrimSpace(r.Time),
		Venue:       strings.TrimSpace(r.Venue),
		ScheduledAt: r.ScheduledAt.UTC(),
	}
}

// UpdateEventRequest describes a partial event update.
type UpdateEventRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description" validate:"omitempty,min=1"`
	Time        *string    `json:"time" validate:"omitempty,min=1,max=32"`
	Venue       *string    `json:"venue" validate:"omitempty,min=1,max=255"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Audience    *string    `json:"audience" validate:"omitempty,audience"`
}

// Apply implements ContentPatch.
func (r *UpdateEventRequest) Apply(item *models.Event) error {
	setString(&item.Name, r.Name)
	setRich(&item.Description, r.Description)
	setString(&item.Time, r.Time)
	setString(&item.Venue, r.Venue)
	setTime(&item.ScheduledAt, r.ScheduledAt)
	setAudience(&item.Audience, r.Audience)
	return nil
}
