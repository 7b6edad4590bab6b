package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/middleware"
	"github.com/noah-isme/campus-portal-api/internal/service"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
	"github.com/noah-isme/campus-portal-api/pkg/logger"
	"github.com/noah-isme/campus-portal-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context, viewer service.Viewer) (*dto.DashboardStats, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
	logger  *zap.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(svc dashboardService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: svc, logger: logger.OrNop(log)}
}

// Stats godoc
// @Summary Dashboard statistics for the requester
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	viewer, ok := viewerFromContext(c, h.logger)
	if !ok {
		return
	}
	stats, cacheHit, err := h.service.Stats(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, stats, responseMeta(c))
}
