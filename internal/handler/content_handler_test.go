package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/service"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

type fakeContentSrv struct {
	visible     []*models.Announcement
	facets      models.ContentFacets[models.Announcement]
	err         error
	lastViewer  service.Viewer
	lastDraft   dto.ContentDraft[models.Announcement]
	lastPatch   dto.ContentPatch[models.Announcement]
	lastID      string
	facetsCalls int
}

func (f *fakeContentSrv) Create(_ context.Context, actor service.Viewer, draft dto.ContentDraft[models.Announcement]) (*models.Announcement, error) {
	f.lastViewer = actor
	f.lastDraft = draft
	if f.err != nil {
		return nil, f.err
	}
	item := draft.Build(actor.UserID, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	item.ID = "ann-new"
	return item, nil
}

func (f *fakeContentSrv) Update(_ context.Context, id string, patch dto.ContentPatch[models.Announcement]) (*models.Announcement, error) {
	f.lastID = id
	f.lastPatch = patch
	if f.err != nil {
		return nil, f.err
	}
	item := &models.Announcement{ContentBase: models.ContentBase{ID: id}, Title: "old"}
	_ = patch.Apply(item)
	return item, nil
}

func (f *fakeContentSrv) Delete(_ context.Context, id string) error {
	f.lastID = id
	return f.err
}

func (f *fakeContentSrv) Facets(_ context.Context, viewer service.Viewer) (models.ContentFacets[models.Announcement], error) {
	f.lastViewer = viewer
	f.facetsCalls++
	return f.facets, f.err
}

func (f *fakeContentSrv) Visible(_ context.Context, viewer service.Viewer) ([]*models.Announcement, error) {
	f.lastViewer = viewer
	return f.visible, f.err
}

func newAnnouncementHandler(srv *fakeContentSrv) *ContentHandler[models.Announcement] {
	return NewContentHandler[models.Announcement]("announcements", srv,
		func() dto.ContentDraft[models.Announcement] { return &dto.CreateAnnouncementRequest{} },
		func() dto.ContentPatch[models.Announcement] { return &dto.UpdateAnnouncementRequest{} },
		nil,
	)
}

func TestContentHandlerListAdminReturnsFacets(t *testing.T) {
	srv := &fakeContentSrv{facets: models.ContentFacets[models.Announcement]{
		Mine:     []*models.Announcement{{ContentBase: models.ContentBase{ID: "a1"}}},
		Past:     []*models.Announcement{},
		Upcoming: []*models.Announcement{{ContentBase: models.ContentBase{ID: "a1"}}},
	}}
	c, rec := newTestContext(http.MethodGet, "/content/announcements", nil, adminClaims())

	newAnnouncementHandler(srv).List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, srv.facetsCalls)
	envelope := decodeEnvelope(t, rec)
	var body map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(envelope.Data, &body))
	assert.Len(t, body["mine"], 1)
	assert.Len(t, body["past"], 0)
	assert.Len(t, body["upcoming"], 1)
}

func TestContentHandlerListStudentUsesSegment(t *testing.T) {
	srv := &fakeContentSrv{}
	c, rec := newTestContext(http.MethodGet, "/content/announcements", nil, studentClaims("23DCE109"))

	newAnnouncementHandler(srv).List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, srv.facetsCalls)
	assert.Equal(t, "23DCE", srv.lastViewer.Segment)
	envelope := decodeEnvelope(t, rec)
	assert.JSONEq(t, `[]`, string(envelope.Data))
	assert.EqualValues(t, 0, envelope.Meta["count"])
}

func TestContentHandlerListRequiresClaims(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/content/announcements", nil, nil)

	newAnnouncementHandler(&fakeContentSrv{}).List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestContentHandlerCreate(t *testing.T) {
	srv := &fakeContentSrv{}
	c, rec := newTestContext(http.MethodPost, "/content/announcements", map[string]interface{}{
		"title":       "Lab closed",
		"description": "Maintenance",
	}, adminClaims())

	newAnnouncementHandler(srv).Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "admin-1", srv.lastViewer.UserID)
	envelope := decodeEnvelope(t, rec)
	var item map[string]interface{}
	require.NoError(t, json.Unmarshal(envelope.Data, &item))
	assert.Equal(t, "ann-new", item["id"])
	assert.Equal(t, models.AudienceAll, item["audience"])
}

func TestContentHandlerCreateRejectsMalformedJSON(t *testing.T) {
	srv := &fakeContentSrv{}
	c, rec := newTestContext(http.MethodPost, "/content/announcements", "{not json", adminClaims())

	newAnnouncementHandler(srv).Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, srv.lastDraft)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code)
}

func TestContentHandlerCreateReportsFailingFields(t *testing.T) {
	validate, err := service.NewValidator([]string{"23DCE"})
	require.NoError(t, err)
	svc := service.NewContentService[models.Poll]("poll", nil, validate, nil, nil)
	h := NewContentHandler[models.Poll]("polls", svc,
		func() dto.ContentDraft[models.Poll] { return &dto.CreatePollRequest{} },
		func() dto.ContentPatch[models.Poll] { return &dto.UpdatePollRequest{} },
		nil,
	)
	c, rec := newTestContext(http.MethodPost, "/content/polls", map[string]interface{}{"options": []string{"A"}}, adminClaims())

	h.Create(c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "invalid poll payload", envelope.Message)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
	assert.Equal(t, "min", envelope.Error.Details["options"])
	assert.Equal(t, "required", envelope.Error.Details["name"])
}

func TestContentHandlerUpdatePassesPathID(t *testing.T) {
	srv := &fakeContentSrv{}
	c, rec := newTestContext(http.MethodPatch, "/content/announcements/"+announcementID, map[string]interface{}{"title": "new"}, adminClaims())
	c.Params = gin.Params{{Key: "id", Value: announcementID}}

	newAnnouncementHandler(srv).Update(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, announcementID, srv.lastID)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "announcement updated", envelope.Message)
	var item map[string]interface{}
	require.NoError(t, json.Unmarshal(envelope.Data, &item))
	assert.Equal(t, "new", item["title"])
}

func TestContentHandlerMalformedIDIsNotFound(t *testing.T) {
	for _, method := range []string{http.MethodPatch, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			srv := &fakeContentSrv{}
			h := newAnnouncementHandler(srv)
			c, rec := newTestContext(method, "/content/announcements/not-a-uuid", map[string]interface{}{"title": "x"}, adminClaims())
			c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

			if method == http.MethodPatch {
				h.Update(c)
			} else {
				h.Delete(c)
			}

			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Empty(t, srv.lastID)
			assert.Equal(t, "announcement not found", decodeEnvelope(t, rec).Message)
		})
	}
}

func TestContentHandlerDeleteNotFound(t *testing.T) {
	srv := &fakeContentSrv{err: appErrors.Clone(appErrors.ErrNotFound, "announcement not found")}
	c, rec := newTestContext(http.MethodDelete, "/content/announcements/"+announcementID, nil, adminClaims())
	c.Params = gin.Params{{Key: "id", Value: announcementID}}

	newAnnouncementHandler(srv).Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, announcementID, srv.lastID)
}

func TestContentHandlerDeleteConfirms(t *testing.T) {
	srv := &fakeContentSrv{}
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.DELETE("/content/announcements/:id", newAnnouncementHandler(srv).Delete)

	c, rec := newTestContext(http.MethodDelete, "/content/announcements/"+strings.ToUpper(announcementID), nil, nil)
	router.ServeHTTP(rec, c.Request)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, announcementID, srv.lastID)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "success", envelope.Status)
	assert.Equal(t, "announcement deleted", envelope.Message)
}
