package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/pkg/cache"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

var serviceNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

var adminViewer = Viewer{UserID: "admin-1", IsAdmin: true, DisplayName: "Dr. Rao", Email: "rao@campus.edu"}

func newAnnouncementService(t *testing.T, repo *stubContentRepo[models.Announcement, *models.Announcement], cacheStub *stubCache) *ContentService[models.Announcement, *models.Announcement] {
	svc := NewContentService[models.Announcement, *models.Announcement]("announcement", repo, newTestValidator(t), cacheStub, nil)
	svc.now = func() time.Time { return serviceNow }
	return svc
}

func TestContentServiceCreateDefaultsAudience(t *testing.T) {
	repo := &stubContentRepo[models.Announcement, *models.Announcement]{}
	cacheStub := &stubCache{}
	svc := newAnnouncementService(t, repo, cacheStub)

	item, err := svc.Create(context.Background(), adminViewer, &dto.CreateAnnouncementRequest{
		Title:       "  Library hours  ",
		Description: "Open <b>late</b><script>alert(1)</script>",
	})
	require.NoError(t, err)

	assert.Equal(t, models.AudienceAll, item.Audience)
	assert.Equal(t, "Library hours", item.Title)
	assert.Equal(t, "Open <b>late</b>", item.Description)
	require.NotNil(t, item.OwnerID)
	assert.Equal(t, "admin-1", *item.OwnerID)
	assert.Equal(t, serviceNow, item.CreatedAt)
	require.NotNil(t, item.UploadedBy)
	assert.Equal(t, "Dr. Rao", item.UploadedBy.Name)
	assert.Len(t, repo.created, 1)
	assert.Equal(t, []string{cache.DashboardPattern}, cacheStub.invalidated)
}

func TestContentServiceCreateRejectsUnknownAudience(t *testing.T) {
	repo := &stubContentRepo[models.Announcement, *models.Announcement]{}
	svc := newAnnouncementService(t, repo, nil)

	_, err := svc.Create(context.Background(), adminViewer, &dto.CreateAnnouncementRequest{
		Title:       "Hello",
		Description: "World",
		Audience:    "99XYZ",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.created)
}

func TestContentServiceCreateRunsHooks(t *testing.T) {
	repo := &stubContentRepo[models.ExamNotice, *models.ExamNotice]{}
	svc := NewContentService[models.ExamNotice, *models.ExamNotice]("exam notice", repo, newTestValidator(t), nil, nil)
	var hooked []*models.ExamNotice
	svc.WithCreateHook(func(_ context.Context, item *models.ExamNotice) { hooked = append(hooked, item) })

	_, err := svc.Create(context.Background(), adminViewer, &dto.CreateExamNoticeRequest{
		SubjectName: "Compilers",
		Syllabus:    "Units 1-3",
		Time:        "10:00",
		Venue:       "Hall A",
		ScheduledAt: serviceNow.Add(48 * time.Hour),
		Audience:    "23DCE",
	})
	require.NoError(t, err)
	require.Len(t, hooked, 1)
	assert.Equal(t, "23DCE", hooked[0].Audience)
}

func TestContentServiceCreateStorageFailure(t *testing.T) {
	repo := &stubContentRepo[models.Announcement, *models.Announcement]{createErr: errStorage}
	svc := newAnnouncementService(t, repo, nil)

	_, err := svc.Create(context.Background(), adminViewer, &dto.CreateAnnouncementRequest{Title: "a", Description: "b"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.NotContains(t, appErr.Message, "connection reset")
}

func TestContentServiceUpdatePartial(t *testing.T) {
	expires := serviceNow.Add(time.Hour)
	repo := &stubContentRepo[models.Announcement, *models.Announcement]{items: []*models.Announcement{{
		ContentBase: models.ContentBase{ID: "ann-1", Audience: "23DCE", CreatedAt: serviceNow.Add(-time.Hour)},
		Title:       "Old",
		Description: "Body",
		ExpiresAt:   &expires,
	}}}
	cacheStub := &stubCache{}
	svc := newAnnouncementService(t, repo, cacheStub)

	title := "New"
	item, err := svc.Update(context.Background(), "ann-1", &dto.UpdateAnnouncementRequest{Title: &title, ClearExpires: true})
	require.NoError(t, err)

	assert.Equal(t, "New", item.Title)
	assert.Equal(t, "Body", item.Description)
	assert.Equal(t, "23DCE", item.Audience)
	assert.Nil(t, item.ExpiresAt)
	assert.Equal(t, serviceNow, item.UpdatedAt)
	assert.Len(t, cacheStub.invalidated, 1)
}

func TestContentServiceUpdateMissing(t *testing.T) {
	svc := newAnnouncementService(t, &stubContentRepo[models.Announcement, *models.Announcement]{}, nil)
	title := "x"
	_, err := svc.Update(context.Background(), "nope", &dto.UpdateAnnouncementRequest{Title: &title})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestContentServiceUpdatePollOptionsAfterVotes(t *testing.T) {
	repo := &stubContentRepo[models.Poll, *models.Poll]{items: []*models.Poll{
		newPoll("poll-1", "admin-1", "All", serviceNow.Add(-time.Hour), serviceNow.Add(time.Hour)),
	}}
	repo.items[0].VoteCounts = []int64{1, 0}
	repo.items[0].TotalVotes = 1
	svc := NewContentService[models.Poll, *models.Poll]("poll", repo, newTestValidator(t), nil, nil)

	_, err := svc.Update(context.Background(), "poll-1", &dto.UpdatePollRequest{Options: []string{"X", "Y", "Z"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, repo.updated)
}

func TestContentServiceDelete(t *testing.T) {
	repo := &stubContentRepo[models.Announcement, *models.Announcement]{items: []*models.Announcement{
		{ContentBase: models.ContentBase{ID: "ann-1", Audience: "All"}},
	}}
	cacheStub := &stubCache{}
	svc := newAnnouncementService(t, repo, cacheStub)

	require.NoError(t, svc.Delete(context.Background(), "ann-1"))
	assert.Equal(t, []string{"ann-1"}, repo.deleted)
	assert.Len(t, cacheStub.invalidated, 1)

	err := svc.Delete(context.Background(), "ann-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestContentServiceVisibleAppliesDecorators(t *testing.T) {
	repo := &stubContentRepo[models.FormLink, *models.FormLink]{items: []*models.FormLink{
		{
			ContentBase:  models.ContentBase{ID: "form-1", Audience: "All", CreatedAt: serviceNow.Add(-time.Hour)},
			FormLink:     "https://forms.example/a",
			ResponseLink: "https://forms.example/a/responses",
			Deadline:     serviceNow.Add(time.Hour),
		},
	}}
	svc := NewContentService[models.FormLink, *models.FormLink]("form", repo, newTestValidator(t), nil, nil).
		WithVisibleDecorator(HideResponseLink)
	svc.now = func() time.Time { return serviceNow }

	visible, err := svc.Visible(context.Background(), Viewer{UserID: "u1", Segment: "23DCE"})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Empty(t, visible[0].ResponseLink)

	facets, err := svc.Facets(context.Background(), adminViewer)
	require.NoError(t, err)
	require.Len(t, facets.Upcoming, 1)
	assert.NotEmpty(t, facets.Upcoming[0].ResponseLink)
}

func TestContentServiceListFailure(t *testing.T) {
	repo := &stubContentRepo[models.Announcement, *models.Announcement]{listErr: errStorage}
	svc := newAnnouncementService(t, repo, nil)

	_, err := svc.Visible(context.Background(), Viewer{Segment: "23DCE"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	_, err = svc.Facets(context.Background(), adminViewer)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestAnnouncementTargetedAtCohortScenario(t *testing.T) {
	repo := &stubContentRepo[models.Announcement, *models.Announcement]{}
	svc := newAnnouncementService(t, repo, nil)
	tomorrow := serviceNow.Add(24 * time.Hour)

	created, err := svc.Create(context.Background(), adminViewer, &dto.CreateAnnouncementRequest{
		Title:       "Lab shift",
		Description: "Lab moves to block C",
		Audience:    "23DCE",
		ExpiresAt:   &tomorrow,
	})
	require.NoError(t, err)
	repo.items[0].Owner = ownerCols("admin-1")

	inCohort := ViewerFromClaims(&models.JWTClaims{UserID: "s1", Identifier: "23DCE045"}, nil)
	visible, err := svc.Visible(context.Background(), inCohort)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, created.ID, visible[0].ID)

	otherCohort := ViewerFromClaims(&models.JWTClaims{UserID: "s2", Identifier: "24DIT012"}, nil)
	visible, err = svc.Visible(context.Background(), otherCohort)
	require.NoError(t, err)
	assert.Empty(t, visible)
}
