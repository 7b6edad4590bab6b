package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

var baseColumns = []string{"id", "owner_id", "audience", "created_at", "updated_at"}

// ContentTable describes how a content type is laid out in its table.
type ContentTable struct {
	Name string
	// Columns lists the type specific columns, in insert and select order.
	Columns []string
	// Mutable lists the columns rewritten by Update.
	Mutable []string
	// UpdateExpr overrides the default "col = :col" assignment for a mutable column.
	UpdateExpr map[string]string
}

// Table layouts for every content type.
var (
	AnnouncementTable = ContentTable{
		Name:    "announcements",
		Columns: []string{"title", "description", "expires_at"},
		Mutable: []string{"title", "description", "expires_at"},
	}
	PollTable = ContentTable{
		Name:    "polls",
		Columns: []string{"name", "options", "vote_counts", "total_votes", "deadline"},
		Mutable: []string{"name", "options", "vote_counts", "deadline"},
		UpdateExpr: map[string]string{
			"options":     "CASE WHEN total_votes = 0 THEN :options ELSE options END",
			"vote_counts": "CASE WHEN total_votes = 0 THEN :vote_counts ELSE vote_counts END",
		},
	}
	ExamNoticeTable = ContentTable{
		Name:    "exam_notices",
		Columns: []string{"subject_name", "syllabus", "start_time", "venue", "scheduled_at"},
		Mutable: []string{"subject_name", "syllabus", "start_time", "venue", "scheduled_at"},
	}
	EventTable = ContentTable{
		Name:    "events",
		Columns: []string{"name", "description", "start_time", "venue", "scheduled_at"},
		Mutable: []string{"name", "description", "start_time", "venue", "scheduled_at"},
	}
	FormTable = ContentTable{
		Name:    "forms",
		Columns: []string{"title", "description", "form_link", "response_link", "deadline"},
		Mutable: []string{"title", "description", "form_link", "response_link", "deadline"},
	}
)

// ContentRepository provides persistence for one content type. Reads join the uploader from users.
type ContentRepository[T any, P models.ContentPtr[T]] struct {
	db    *sqlx.DB
	table ContentTable

	selectQuery string
	insertQuery string
	updateQuery string
	deleteQuery string
}

// NewContentRepository builds a repository for table.
func NewContentRepository[T any, P models.ContentPtr[T]](db *sqlx.DB, table ContentTable) *ContentRepository[T, P] {
	r := &ContentRepository[T, P]{db: db, table: table}
	r.selectQuery = buildSelect(table)
	r.insertQuery = buildInsert(table)
	r.updateQuery = buildUpdate(table)
	r.deleteQuery = fmt.Sprintf("DELETE FROM %s WHERE id = $1", table.Name)
	return r
}

// NewAnnouncementRepository builds the announcements repository.
func NewAnnouncementRepository(db *sqlx.DB) *ContentRepository[models.Announcement, *models.Announcement] {
	return NewContentRepository[models.Announcement](db, AnnouncementTable)
}

// NewPollRepository builds the polls repository.
func NewPollRepository(db *sqlx.DB) *ContentRepository[models.Poll, *models.Poll] {
	return NewContentRepository[models.Poll](db, PollTable)
}

// NewExamNoticeRepository builds the exam notices repository.
func NewExamNoticeRepository(db *sqlx.DB) *ContentRepository[models.ExamNotice, *models.ExamNotice] {
	return NewContentRepository[models.ExamNotice](db, ExamNoticeTable)
}

// NewEventRepository builds the events repository.
func NewEventRepository(db *sqlx.DB) *ContentRepository[models.Event, *models.Event] {
	return NewContentRepository[models.Event](db, EventTable)
}

// NewFormRepository builds the forms repository.
func NewFormRepository(db *sqlx.DB) *ContentRepository[models.FormLink, *models.FormLink] {
	return NewContentRepository[models.FormLink](db, FormTable)
}

// List returns every row, newest first.
func (r *ContentRepository[T, P]) List(ctx context.Context) ([]*T, error) {
	query := r.selectQuery + " ORDER BY c.created_at DESC, c.id"
	var items []*T
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table.Name, err)
	}
	return items, nil
}

// GetByID returns a row by identifier or sql.ErrNoRows.
func (r *ContentRepository[T, P]) GetByID(ctx context.Context, id string) (*T, error) {
	query := r.selectQuery + " WHERE c.id = $1"
	var item T
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get %s: %w", r.table.Name, err)
	}
	return &item, nil
}

// Create inserts a new row, assigning an id and timestamps when unset.
func (r *ContentRepository[T, P]) Create(ctx context.Context, item *T) error {
	meta := P(item).Meta()
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = meta.CreatedAt
	}
	if meta.Audience == "" {
		meta.Audience = models.AudienceAll
	}
	if _, err := r.db.NamedExecContext(ctx, r.insertQuery, item); err != nil {
		return fmt.Errorf("create %s: %w", r.table.Name, err)
	}
	return nil
}

// Update rewrites the mutable columns. It returns sql.ErrNoRows when the row is gone.
func (r *ContentRepository[T, P]) Update(ctx context.Context, item *T) error {
	meta := P(item).Meta()
	meta.UpdatedAt = time.Now().UTC()
	res, err := r.db.NamedExecContext(ctx, r.updateQuery, item)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.table.Name, err)
	}
	return requireAffected(res, r.table.Name)
}

// Delete removes a row. It returns sql.ErrNoRows when nothing was deleted.
func (r *ContentRepository[T, P]) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.deleteQuery, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.table.Name, err)
	}
	return requireAffected(res, r.table.Name)
}

func requireAffected(res sql.Result, table string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected on %s: %w", table, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func buildSelect(table ContentTable) string {
	cols := make([]string, 0, len(baseColumns)+len(table.Columns)+3)
	for _, col := range baseColumns {
		cols = append(cols, "c."+col)
	}
	for _, col := range table.Columns {
		cols = append(cols, "c."+col)
	}
	cols = append(cols,
		`u.full_name AS "uploader.full_name"`,
		`u.email AS "uploader.email"`,
		`u.avatar_url AS "uploader.avatar_url"`,
	)
	return fmt.Sprintf("SELECT %s FROM %s c LEFT JOIN users u ON u.id = c.owner_id", strings.Join(cols, ", "), table.Name)
}

func buildInsert(table ContentTable) string {
	cols := append(append([]string{}, baseColumns...), table.Columns...)
	params := make([]string, len(cols))
	for i, col := range cols {
		params[i] = ":" + col
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table.Name, strings.Join(cols, ", "), strings.Join(params, ", "))
}

func buildUpdate(table ContentTable) string {
	sets := make([]string, 0, len(table.Mutable)+2)
	sets = append(sets, "audience = :audience")
	for _, col := range table.Mutable {
		if expr, ok := table.UpdateExpr[col]; ok {
			sets = append(sets, fmt.Sprintf("%s = %s", col, expr))
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = :%s", col, col))
	}
	sets = append(sets, "updated_at = :updated_at")
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", table.Name, strings.Join(sets, ", "))
}
