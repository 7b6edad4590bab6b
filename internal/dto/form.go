package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// CreateFormRequest describes the create payload for form links.
type CreateFormRequest struct {
	Title        string    `json:"title" validate:"required,max=255"`
	Description  string    `json:"description" validate:"required"`
	FormLink     string    `json:"form_link" validate:"required,url"`
	ResponseLink string    `json:"response_link" validate:"required,url"`
	Deadline     time.Time `json:"deadline" validate:"required"`
	Audience     string    `json:"audience" validate:"omitempty,audience"`
}

// Build implements ContentDraft.
func (r *CreateFormRequest) Build(ownerID string, now time.Time) *models.FormLink {
	return &models.FormLink{
		ContentBase:  newBase(ownerID, r.Audience, now),
		Title:        strings.TrimSpace(r.Title),
		Description:  cleanRich(r.Description),
		FormLink:     strings.TrimSpace(r.FormLink),
		ResponseLink: strings.TrimSpace(r.ResponseLink),
		Deadline:     r.Deadline.UTC(),
	}
}

// UpdateFormRequest describes a partial form link update.
type UpdateFormRequest struct {
	Title        *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description  *string    `json:"description" validate:"omitempty,min=1"`
	FormLink     *string    `json:"form_link" validate:"omitempty,url"`
	ResponseLink *string    `json:"response_link" validate:"omitempty,url"`
	Deadline     *time.Time `json:"deadline"`
	Audience     *string    `json:"audience" validate:"omitempty,audience"`
}

// Apply implements ContentPatch.
func (r *UpdateFormRequest) Apply(item *models.FormLink) error {
	setString(&item.Title, r.Title)
	setRich(&item.Description, r.Description)
	setString(&item.FormLink, r.FormLink)
	setString(&item.ResponseLink, r.ResponseLink)
	setTime(&item.Deadline, r.Deadline)
	setAudience(&item.Audience, r.Audience)
	return nil
}
