package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type announcementLister interface {
	Visible(ctx context.Context, viewer Viewer) ([]*models.Announcement, error)
}

type readMarkRepository interface {
	Mark(ctx context.Context, userID, announcementID string, markedAt time.Time) (bool, error)
	ReadIDs(ctx context.Context, userID string, announcementIDs []string) (map[string]bool, error)
}

// ReadStateService tracks which visible announcements a student has opened.
type ReadStateService struct {
	announcements announcementLister
	marks         readMarkRepository
	metrics       *MetricsService
	logger        *zap.Logger
	now           func() time.Time
}

// NewReadStateService constructs the service.
func NewReadStateService(announcements announcementLister, marks readMarkRepository, metrics *MetricsService, logger *zap.Logger) *ReadStateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadStateService{announcements: announcements, marks: marks, metrics: metrics, logger: logger, now: time.Now}
}

// List returns the viewer's visible announcements with their read flag.
func (s *ReadStateService) List(ctx context.Context, viewer Viewer) ([]models.AnnouncementWithReadState, error) {
	visible, read, err := s.visibleWithMarks(ctx, viewer)
	if err != nil {
		return nil, err
	}
	result := make([]models.AnnouncementWithReadState, 0, len(visible))
	for _, item := range visible {
		result = append(result, models.AnnouncementWithReadState{Announcement: item, IsRead: read[item.ID]})
	}
	return result, nil
}

// MarkRead records that viewer opened announcementID. Repeated calls are no-ops.
func (s *ReadStateService) MarkRead(ctx context.Context, viewer Viewer, announcementID string) (*models.MarkReadResult, error) {
	visible, err := s.announcements.Visible(ctx, viewer)
	if err != nil {
		return nil, err
	}
	found := false
	for _, item := range visible {
		if item.ID == announcementID {
			found = true
			break
		}
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
	}

	inserted, err := s.marks.Mark(ctx, viewer.UserID, announcementID, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark announcement as read")
	}
	s.metrics.RecordReadMark(inserted)
	if inserted {
		s.logger.Debug("announcement marked read",
			zap.String("user_id", viewer.UserID),
			zap.String("announcement_id", announcementID),
		)
	}
	return &models.MarkReadResult{AnnouncementID: announcementID, WasAlreadyRead: !inserted}, nil
}

// UnreadCount counts visible announcements without a read mark.
func (s *ReadStateService) UnreadCount(ctx context.Context, viewer Viewer) (int, error) {
	visible, read, err := s.visibleWithMarks(ctx, viewer)
	if err != nil {
		return 0, err
	}
	readVisible := 0
	for _, item := range visible {
		if read[item.ID] {
			readVisible++
		}
	}
	count := len(visible) - readVisible
	if count < 0 {
		count = 0
	}
	return count, nil
}

func (s *ReadStateService) visibleWithMarks(ctx context.Context, viewer Viewer) ([]*models.Announcement, map[string]bool, error) {
	visible, err := s.announcements.Visible(ctx, viewer)
	if err != nil {
		return nil, nil, err
	}
	if len(visible) == 0 {
		return visible, map[string]bool{}, nil
	}
	ids := make([]string, len(visible))
	for i, item := range visible {
		ids[i] = item.ID
	}
	read, err := s.marks.ReadIDs(ctx, viewer.UserID, ids)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load read marks")
	}
	return visible, read, nil
}
