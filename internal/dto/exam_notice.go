package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

// CreateExamNoticeRequest describes the create payload for exam notices.
type CreateExamNoticeRequest struct {
	SubjectName string    `json:"subject_name" validate:"required,max=255"`
	Syllabus    string    `json:"syllabus" validate:"required"`
	Time        string    `json:"time" validate:"required,max=32"`
	Venue       string    `json:"venue" validate:"required,max=255"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Audience    string    `json:"audience" validate:"omitempty,audience"`
}

// Build implements ContentDraft.
func (r *CreateExamNoticeRequest) Build(ownerID string, now time.Time) *models.ExamNotice {
	return &models.ExamNotice{
		ContentBase: newBase(ownerID, r.Audience, now),
		SubjectName: strings.TrimSpace(r.SubjectName),
		Syllabus:    cleanRich(r.Syllabus),
		Time:        strings.TrimSpace(r.Time),
		Venue:       strings.TrimSpace(r.Venue),
		ScheduledAt: r.ScheduledAt.UTC(),
	}
}

// UpdateExamNoticeRequest describes a partial exam notice update.
type UpdateExamNoticeRequest struct {
	SubjectName *string    `json:"subject_name" validate:"omitempty,min=1,max=255"`
	Syllabus    *string    `json:"syllabus" validate:"omitempty,min=1"`
	Time        *string    `json:"time" validate:"omitempty,min=1,max=32"`
	Venue       *string    `json:"venue" validate:"omitempty,min=1,max=255"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	Audience    *string    `json:"audience" validate:"omitempty,audience"`
}

// Apply implements ContentPatch.
func (r *UpdateExamNoticeRequest) Apply(item *models.ExamNotice) error {
	setString(&item.SubjectName, r.SubjectName)
	setRich(&item.Syllabus, r.Syllabus)
	setString(&item.Time, r.Time)
	setString(&item.Venue, r.Venue)
	setTime(&item.ScheduledAt, r.ScheduledAt)
	setAudience(&item.Audience, r.Audience)
	return nil
}
