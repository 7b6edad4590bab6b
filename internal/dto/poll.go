package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/campus-portal-api/internal/models"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

// CreatePollRequest describes the create payload for polls.
type CreatePollRequest struct {
	Name     string    `json:"name" validate:"required,max=255"`
	Options  []string  `json:"options" validate:"required,min=2,max=20,dive,required,max=255"`
	Deadline time.Time `json:"deadline" validate:"required"`
	Audience string    `json:"audience" validate:"omitempty,audience"`
}

// Build implements ContentDraft. Counters start at zero.
func (r *CreatePollRequest) Build(ownerID string, now time.Time) *models.Poll {
	options := trimAll(r.Options)
	return &models.Poll{
		ContentBase: newBase(ownerID, r.Audience, now),
		Name:        strings.TrimSpace(r.Name),
		Options:     options,
		VoteCounts:  make([]int64, len(options)),
		TotalVotes:  0,
		Deadline:    r.Deadline.UTC(),
	}
}

// UpdatePollRequest describes a partial poll update. Options can only change before the first vote.
type UpdatePollRequest struct {
	Name     *string    `json:"name" validate:"omitempty,min=1,max=255"`
	Options  []string   `json:"options" validate:"omitempty,min=2,max=20,dive,required,max=255"`
	Deadline *time.Time `json:"deadline"`
	Audience *string    `json:"audience" validate:"omitempty,audience"`
}

// Apply implements ContentPatch.
func (r *UpdatePollRequest) Apply(item *models.Poll) error {
	if r.Options != nil {
		if item.TotalVotes > 0 {
			return appErrors.Clone(appErrors.ErrConflict, "poll options cannot change once votes exist")
		}
		item.Options = trimAll(r.Options)
		item.VoteCounts = make([]int64, len(item.Options))
	}
	setString(&item.Name, r.Name)
	setTime(&item.Deadline, r.Deadline)
	setAudience(&item.Audience, r.Audience)
	return nil
}

// VoteRequest is the body of a vote.
type VoteRequest struct {
	OptionIndex *int `json:"option_index" validate:"required"`
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
