package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/pkg/cache"
	"github.com/noah-isme/campus-portal-api/pkg/config"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type itemLister[T any] interface {
	List(ctx context.Context) ([]*T, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL     time.Duration
	PollStrategy string
	RecentForms  int
	Location     *time.Location
}

// DashboardService composes the statistics shown on a student's landing page.
type DashboardService struct {
	announcements itemLister[models.Announcement]
	polls         itemLister[models.Poll]
	exams         itemLister[models.ExamNotice]
	events        itemLister[models.Event]
	forms         itemLister[models.FormLink]
	users         userFinder
	pollDecorator VisibleDecorator[models.Poll]
	cache         dashboardCache
	logger        *zap.Logger
	now           func() time.Time
	cfg           DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Announcements itemLister[models.Announcement]
	Polls         itemLister[models.Poll]
	Exams         itemLister[models.ExamNotice]
	Events        itemLister[models.Event]
	Forms         itemLister[models.FormLink]
	Users         userFinder
	PollDecorator VisibleDecorator[models.Poll]
	Cache         dashboardCache
	Logger        *zap.Logger
	Config        DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.PollStrategy != config.PollStrategyFeed {
		cfg.PollStrategy = config.PollStrategyLatest
	}
	if cfg.RecentForms <= 0 {
		cfg.RecentForms = defaultRecentForms
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		announcements: params.Announcements,
		polls:         params.Polls,
		exams:         params.Exams,
		events:        params.Events,
		forms:         params.Forms,
		users:         params.Users,
		pollDecorator: params.PollDecorator,
		cache:         params.Cache,
		logger:        logger,
		now:           time.Now,
		cfg:           cfg,
	}
}

// Stats returns the viewer's dashboard and whether it came from cache.
func (s *DashboardService) Stats(ctx context.Context, viewer Viewer) (*dto.DashboardStats, bool, error) {
	if viewer.UserID == "" {
		return nil, false, appErrors.ErrUnauthorized
	}
	now := s.now()
	cacheKey := cache.DashboardKey(viewer.UserID, now, s.cfg.Location)
	if stats, hit := s.tryCache(ctx, cacheKey); hit {
		return stats, true, nil
	}

	input, err := s.load(ctx)
	if err != nil {
		return nil, false, err
	}
	if viewer.DisplayName == "" {
		viewer.DisplayName = s.displayName(ctx, viewer.UserID)
	}

	stats := ComposeStatistics(input, viewer, now, StatisticsOptions{
		Location:     s.cfg.Location,
		PollStrategy: s.cfg.PollStrategy,
		RecentForms:  s.cfg.RecentForms,
	}, s.logger)

	if err := HideResponseLink(ctx, viewer, stats.RecentForms); err != nil {
		return nil, false, err
	}
	if s.pollDecorator != nil {
		polls := stats.ActivePolls
		if stats.ActivePoll != nil {
			polls = []*models.Poll{stats.ActivePoll}
		}
		if err := s.pollDecorator(ctx, viewer, polls); err != nil {
			return nil, false, err
		}
	}

	s.persistCache(ctx, cacheKey, &stats)
	return &stats, false, nil
}

func (s *DashboardService) load(ctx context.Context) (StatisticsInput, error) {
	var (
		input StatisticsInput
		err   error
	)
	if input.Announcements, err = listAll(ctx, s.announcements, "announcements"); err != nil {
		return input, err
	}
	if input.Polls, err = listAll(ctx, s.polls, "polls"); err != nil {
		return input, err
	}
	if input.Exams, err = listAll(ctx, s.exams, "exam notices"); err != nil {
		return input, err
	}
	if input.Events, err = listAll(ctx, s.events, "events"); err != nil {
		return input, err
	}
	if input.Forms, err = listAll(ctx, s.forms, "forms"); err != nil {
		return input, err
	}
	return input, nil
}

func listAll[T any](ctx context.Context, lister itemLister[T], label string) ([]*T, error) {
	if lister == nil {
		return nil, nil
	}
	items, err := lister.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+label)
	}
	return items, nil
}

func (s *DashboardService) displayName(ctx context.Context, userID string) string {
	if s.users == nil {
		return ""
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("dashboard user lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return ""
	}
	return user.FullName
}

func (s *DashboardService) tryCache(ctx context.Context, key string) (*dto.DashboardStats, bool) {
	if s.cache == nil {
		return nil, false
	}
	var cached dto.DashboardStats
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !hit {
		return nil, false
	}
	return &cached, true
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
