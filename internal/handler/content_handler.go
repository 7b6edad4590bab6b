package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/service"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
	"github.com/noah-isme/campus-portal-api/pkg/logger"
	"github.com/noah-isme/campus-portal-api/pkg/response"
)

type contentService[T any] interface {
	Create(ctx context.Context, actor service.Viewer, draft dto.ContentDraft[T]) (*T, error)
	Update(ctx context.Context, id string, patch dto.ContentPatch[T]) (*T, error)
	Delete(ctx context.Context, id string) error
	Facets(ctx context.Context, viewer service.Viewer) (models.ContentFacets[T], error)
	Visible(ctx context.Context, viewer service.Viewer) ([]*T, error)
}

// ContentHandler serves the CRUD routes of one content type.
type ContentHandler[T any] struct {
	kind     string
	noun     string
	service  contentService[T]
	newDraft func() dto.ContentDraft[T]
	newPatch func() dto.ContentPatch[T]
	logger   *zap.Logger
}

// NewContentHandler builds a handler. newDraft and newPatch return fresh request structs to bind into.
func NewContentHandler[T any](kind string, svc contentService[T], newDraft func() dto.ContentDraft[T], newPatch func() dto.ContentPatch[T], log *zap.Logger) *ContentHandler[T] {
	return &ContentHandler[T]{
		kind:     kind,
		noun:     strings.TrimSuffix(kind, "s"),
		service:  svc,
		newDraft: newDraft,
		newPatch: newPatch,
		logger:   logger.OrNop(log),
	}
}

// Register mounts the routes under rg. Mutations require admin.
func (h *ContentHandler[T]) Register(rg *gin.RouterGroup, admin ...gin.HandlerFunc) {
	group := rg.Group("/" + h.kind)
	group.GET("", h.List)
	group.POST("", chain(admin, h.Create)...)
	group.PATCH("/:id", chain(admin, h.Update)...)
	group.DELETE("/:id", chain(admin, h.Delete)...)
}

func chain(guards []gin.HandlerFunc, final gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(guards)+1)
	out = append(out, guards...)
	return append(out, final)
}

// List godoc
// @Summary List content
// @Description Administrators receive {mine, past, upcoming}; students receive the items visible to their cohort.
// @Tags Content
// @Produce json
// @Param type path string true "announcements, polls, exams, events or forms"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /content/{type} [get]
func (h *ContentHandler[T]) List(c *gin.Context) {
	viewer, ok := viewerFromContext(c, h.logger)
	if !ok {
		return
	}
	if viewer.IsAdmin {
		facets, err := h.service.Facets(c.Request.Context(), viewer)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, facets)
		return
	}
	items, err := h.service.Visible(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []*T{}
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"count": len(items)})
}

// Create godoc
// @Summary Create content
// @Tags Content
// @Accept json
// @Produce json
// @Param type path string true "announcements, polls, exams, events or forms"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /content/{type} [post]
func (h *ContentHandler[T]) Create(c *gin.Context) {
	viewer, ok := viewerFromContext(c, h.logger)
	if !ok {
		return
	}
	draft := h.newDraft()
	if err := c.ShouldBindJSON(draft); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid "+h.noun+" payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), viewer, draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Partially update content
// @Tags Content
// @Accept json
// @Produce json
// @Param type path string true "announcements, polls, exams, events or forms"
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /content/{type}/{id} [patch]
func (h *ContentHandler[T]) Update(c *gin.Context) {
	id, ok := pathID(c, h.noun)
	if !ok {
		return
	}
	patch := h.newPatch()
	if err := c.ShouldBindJSON(patch); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid "+h.noun+" payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), id, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, h.noun+" updated", item)
}

// Delete godoc
// @Summary Delete content
// @Tags Content
// @Param type path string true "announcements, polls, exams, events or forms"
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /content/{type}/{id} [delete]
func (h *ContentHandler[T]) Delete(c *gin.Context) {
	id, ok := pathID(c, h.noun)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, h.noun+" deleted", nil)
}
