package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/service"
	"github.com/noah-isme/campus-portal-api/pkg/logger"
	"github.com/noah-isme/campus-portal-api/pkg/response"
)

type readStateService interface {
	List(ctx context.Context, viewer service.Viewer) ([]models.AnnouncementWithReadState, error)
	MarkRead(ctx context.Context, viewer service.Viewer, announcementID string) (*models.MarkReadResult, error)
	UnreadCount(ctx context.Context, viewer service.Viewer) (int, error)
}

// NotificationHandler exposes per-student announcement read state.
type NotificationHandler struct {
	service readStateService
	logger  *zap.Logger
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc readStateService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{service: svc, logger: logger.OrNop(log)}
}

// List godoc
// @Summary Announcements with read state
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	viewer, ok := viewerFromContext(c, h.logger)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []models.AnnouncementWithReadState{}
	}
	response.JSON(c, http.StatusOK, items)
}

// MarkRead godoc
// @Summary Mark an announcement read
// @Tags Notifications
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	viewer, ok := viewerFromContext(c, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(c, "announcement")
	if !ok {
		return
	}
	result, err := h.service.MarkRead(c.Request.Context(), viewer, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	message := "announcement marked as read"
	if result.WasAlreadyRead {
		message = "announcement already read"
	}
	response.Message(c, http.StatusOK, message, result)
}

// UnreadCount godoc
// @Summary Count unread announcements
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	viewer, ok := viewerFromContext(c, h.logger)
	if !ok {
		return
	}
	count, err := h.service.UnreadCount(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, count)
}
