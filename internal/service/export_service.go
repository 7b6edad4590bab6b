package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-portal-api/internal/models"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
	"github.com/noah-isme/campus-portal-api/pkg/export"
)

type pollResultSource interface {
	Results(ctx context.Context, pollID string) (*models.Poll, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders poll results for administrators.
type ExportService struct {
	polls  pollResultSource
	csv    datasetRenderer
	pdf    datasetRenderer
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the package exporters.
func NewExportService(polls pollResultSource, loc *time.Location, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{polls: polls, csv: csv, pdf: pdf, loc: loc, logger: logger, now: time.Now}
}

// PollResults renders the tally of pollID in the requested format.
func (s *ExportService) PollResults(ctx context.Context, pollID, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Validation(err, "format must be csv or pdf")
	}
	poll, err := s.polls.Results(ctx, pollID)
	if err != nil {
		return nil, err
	}

	dataset := s.pollDataset(poll)
	var payload []byte
	switch format {
	case export.FormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render poll results")
	}

	s.logger.Info("poll results exported", zap.String("poll_id", poll.ID), zap.String("format", string(format)))
	return &ExportFile{
		Filename:    s.filename(poll, format),
		ContentType: format.ContentType(),
		Data:        payload,
	}, nil
}

func (s *ExportService) pollDataset(poll *models.Poll) export.Dataset {
	headers := []string{"Option", "Votes", "Share (%)"}
	rows := make([]map[string]string, 0, len(poll.Options))
	for i, option := range poll.Options {
		var votes int64
		if i < len(poll.VoteCounts) {
			votes = poll.VoteCounts[i]
		}
		share := 0.0
		if poll.TotalVotes > 0 {
			share = float64(votes) * 100 / float64(poll.TotalVotes)
		}
		rows = append(rows, map[string]string{
			"Option":    option,
			"Votes":     strconv.FormatInt(votes, 10),
			"Share (%)": fmt.Sprintf("%.1f", share),
		})
	}
	status := "open"
	if poll.Deadline.Before(s.now()) {
		status = "closed"
	}
	return export.Dataset{
		Title: poll.Name,
		Summary: []string{
			fmt.Sprintf("Audience: %s", poll.Audience),
			fmt.Sprintf("Deadline: %s (%s)", poll.Deadline.In(s.loc).Format("02 Jan 2006 15:04"), status),
			fmt.Sprintf("Total votes: %d", poll.TotalVotes),
		},
		Headers: headers,
		Rows:    rows,
	}
}

func (s *ExportService) filename(poll *models.Poll, format export.Format) string {
	stamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("poll_%s_%s.%s", sanitizeFilename(poll.Name), stamp, format.Extension())
}

func sanitizeFilename(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "results"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "", "__", "_")
	result := strings.ToLower(replacer.Replace(strings.TrimSpace(raw)))
	if len(result) > 60 {
		return result[:60]
	}
	return result
}
