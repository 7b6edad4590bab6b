package dto

import "github.com/noah-isme/campus-portal-api/internal/models"

// DashboardStats is the statistics payload shown on a student's landing page.
type DashboardStats struct {
	DisplayName        string               `json:"display_name"`
	ActiveForms        int                  `json:"active_forms"`
	ActivePollCount    int                  `json:"active_poll_count"`
	ActiveEvents       int                  `json:"active_events"`
	ActiveExams        int                  `json:"active_exams"`
	Announcements      int                  `json:"announcements"`
	FormsDueThisWeek   int                  `json:"forms_due_this_week"`
	PollsEndingSoon    int                  `json:"polls_ending_soon"`
	NewThisWeek        int                  `json:"new_this_week"`
	TodayEvents        int                  `json:"today_events"`
	RecentForms        []*models.FormLink   `json:"recent_forms"`
	PollStrategy       string               `json:"poll_strategy"`
	ActivePoll         *models.Poll         `json:"active_poll,omitempty"`
	ActivePolls        []*models.Poll       `json:"active_polls,omitempty"`
	LatestAnnouncement *models.Announcement `json:"latest_announcement,omitempty"`
}
