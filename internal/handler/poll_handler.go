package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/dto"
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/service"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
	"github.com/noah-isme/campus-portal-api/pkg/logger"
	"github.com/noah-isme/campus-portal-api/pkg/response"
)

type voteService interface {
	Vote(ctx context.Context, viewer service.Viewer, pollID string, req dto.VoteRequest) (*models.PollTally, error)
}

type pollExporter interface {
	PollResults(ctx context.Context, pollID, format string) (*service.ExportFile, error)
}

// PollHandler serves voting and result export.
type PollHandler struct {
	votes    voteService
	exporter pollExporter
	logger   *zap.Logger
}

// NewPollHandler constructs the handler.
func NewPollHandler(votes voteService, exporter pollExporter, log *zap.Logger) *PollHandler {
	return &PollHandler{votes: votes, exporter: exporter, logger: logger.OrNop(log)}
}

// Vote godoc
// @Summary Cast a vote
// @Tags Polls
// @Accept json
// @Produce json
// @Param id path string true "Poll ID"
// @Param payload body dto.VoteRequest true "Vote payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /polls/{id}/vote [post]
func (h *PollHandler) Vote(c *gin.Context) {
	viewer, ok := viewerFromContext(c, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(c, "poll")
	if !ok {
		return
	}
	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid vote payload"))
		return
	}
	tally, err := h.votes.Vote(c.Request.Context(), viewer, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "vote recorded", tally)
}

// ExportResults godoc
// @Summary Export poll results
// @Tags Polls
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Poll ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /polls/{id}/results/export [get]
func (h *PollHandler) ExportResults(c *gin.Context) {
	id, ok := pathID(c, "poll")
	if !ok {
		return
	}
	file, err := h.exporter.PollResults(c.Request.Context(), id, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
