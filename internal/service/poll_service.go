package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/repository"
	"github.com/noah-isme/campus-portal-api/pkg/cache"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type pollLoader interface {
	GetByID(ctx context.Context, id string) (*models.Poll, error)
}

type voteLedger interface {
	Cast(ctx context.Context, vote models.PollVote) (*models.PollTally, error)
	VotedPollIDs(ctx context.Context, voterID string, pollIDs []string) (map[string]bool, error)
}

// Vote outcomes reported to metrics.
const (
	voteResultAccepted     = "accepted"
	voteResultDuplicate    = "duplicate"
	voteResultClosed       = "closed"
	voteResultInvalid      = "invalid_option"
	voteResultStorageError = "error"
)

// PollService casts votes and annotates poll listings with the viewer's ledger state.
type PollService struct {
	polls     pollLoader
	votes     voteLedger
	validator *validator.Validate
	cache     cacheInvalidator
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewPollService constructs the service.
func NewPollService(polls pollLoader, votes voteLedger, validate *validator.Validate, cache cacheInvalidator, metrics *MetricsService, logger *zap.Logger) *PollService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PollService{
		polls:     polls,
		votes:     votes,
		validator: validate,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Vote records viewer's single vote on pollID and returns the updated tally.
func (s *PollService) Vote(ctx context.Context, viewer Viewer, pollID string, req dto.VoteRequest) (*models.PollTally, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid vote payload")
	}
	index := *req.OptionIndex
	now := s.now().UTC()

	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "poll not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load poll")
	}
	if !IsVisible(poll.Audience, viewer) || poll.CreatedAt.After(now) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "poll not found")
	}
	if index < 0 || index >= len(poll.Options) {
		s.metrics.RecordVote(voteResultInvalid)
		return nil, appErrors.ErrInvalidOption
	}
	if poll.Deadline.Before(now) {
		s.metrics.RecordVote(voteResultClosed)
		return nil, appErrors.ErrPollClosed
	}

	tally, err := s.votes.Cast(ctx, models.PollVote{
		PollID:      poll.ID,
		VoterID:     viewer.UserID,
		OptionIndex: index,
		VotedAt:     now,
	})
	switch {
	case errors.Is(err, repository.ErrDuplicateVote):
		s.metrics.RecordVote(voteResultDuplicate)
		return nil, appErrors.ErrAlreadyVoted
	case errors.Is(err, repository.ErrPollNotOpen):
		s.metrics.RecordVote(voteResultClosed)
		return nil, appErrors.ErrPollClosed
	case err != nil:
		s.metrics.RecordVote(voteResultStorageError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record vote")
	}

	s.metrics.RecordVote(voteResultAccepted)
	s.logger.Info("vote recorded",
		zap.String("poll_id", poll.ID),
		zap.String("user_id", viewer.UserID),
		zap.Int64("total_votes", tally.TotalVotes),
	)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, cache.DashboardPattern); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
	}
	return tally, nil
}

// Results loads a poll for administrators regardless of audience or deadline.
func (s *PollService) Results(ctx context.Context, pollID string) (*models.Poll, error) {
	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "poll not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load poll")
	}
	return poll, nil
}

// MarkVoted sets AlreadyVoted on each poll from the viewer's ledger entries.
func (s *PollService) MarkVoted(ctx context.Context, viewer Viewer, polls []*models.Poll) error {
	if len(polls) == 0 {
		return nil
	}
	ids := make([]string, len(polls))
	for i, poll := range polls {
		ids[i] = poll.ID
	}
	voted, err := s.votes.VotedPollIDs(ctx, viewer.UserID, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vote state")
	}
	for _, poll := range polls {
		flag := voted[poll.ID]
		poll.AlreadyVoted = &flag
	}
	return nil
}
