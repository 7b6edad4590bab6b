package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/pkg/config"
)

const (
	defaultRecentForms = 3
	dueThisWeekWindow  = 7 * 24 * time.Hour
	endingSoonWindow   = 24 * time.Hour
)

// StatisticsInput holds every stored item of each type. Filtering happens in ComposeStatistics.
type StatisticsInput struct {
	Announcements []*models.Announcement
	Polls         []*models.Poll
	Exams         []*models.ExamNotice
	Events        []*models.Event
	Forms         []*models.FormLink
}

// StatisticsOptions tunes ComposeStatistics.
type StatisticsOptions struct {
	Location     *time.Location
	PollStrategy string
	RecentForms  int
}

// ComposeStatistics derives the dashboard figures viewer sees at now.
func ComposeStatistics(input StatisticsInput, viewer Viewer, now time.Time, opts StatisticsOptions, logger *zap.Logger) dto.DashboardStats {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	recent := opts.RecentForms
	if recent <= 0 {
		recent = defaultRecentForms
	}

	announcements := VisibleItems[models.Announcement](input.Announcements, viewer, now, logger)
	polls := VisibleItems[models.Poll](input.Polls, viewer, now, logger)
	exams := VisibleItems[models.ExamNotice](input.Exams, viewer, now, logger)
	events := VisibleItems[models.Event](input.Events, viewer, now, logger)
	forms := VisibleItems[models.FormLink](input.Forms, viewer, now, logger)

	stats := dto.DashboardStats{
		DisplayName:     viewer.DisplayName,
		ActiveForms:     len(forms),
		ActivePollCount: len(polls),
		ActiveEvents:    len(events),
		ActiveExams:     len(exams),
		Announcements:   len(announcements),
		RecentForms:     forms[:min(recent, len(forms))],
		PollStrategy:    opts.PollStrategy,
	}

	weekEnd := now.Add(dueThisWeekWindow)
	for _, form := range forms {
		if !form.Deadline.After(weekEnd) {
			stats.FormsDueThisWeek++
		}
	}
	soonEnd := now.Add(endingSoonWindow)
	for _, poll := range polls {
		if !poll.Deadline.After(soonEnd) {
			stats.PollsEndingSoon++
		}
	}

	weekStart := startOfDay(now.AddDate(0, 0, -7), loc)
	stats.NewThisWeek = countCreatedSince(announcements, weekStart) +
		countCreatedSince(polls, weekStart) +
		countCreatedSince(exams, weekStart) +
		countCreatedSince(events, weekStart) +
		countCreatedSince(forms, weekStart)

	dayStart := startOfDay(now, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	// Already-started events are not active but still count for today. Owner warnings were logged above.
	for _, event := range withOwners[models.Event](input.Events, nil) {
		if !IsVisible(event.Audience, viewer) || event.CreatedAt.After(now) {
			continue
		}
		if !event.ScheduledAt.Before(dayStart) && event.ScheduledAt.Before(dayEnd) {
			stats.TodayEvents++
		}
	}

	if len(announcements) > 0 {
		stats.LatestAnnouncement = announcements[0]
	}

	switch opts.PollStrategy {
	case config.PollStrategyFeed:
		stats.ActivePolls = polls
	default:
		stats.PollStrategy = config.PollStrategyLatest
		if len(polls) > 0 {
			stats.ActivePoll = polls[0]
		}
	}

	return stats
}

// countCreatedSince counts items created at or after since. Items are already published.
func countCreatedSince[T any, P models.ContentPtr[T]](items []*T, since time.Time) int {
	count := 0
	for _, item := range items {
		if !P(item).Meta().CreatedAt.Before(since) {
			count++
		}
	}
	return count
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
