package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ReadMarkRepository stores which announcements a user has opened.
type ReadMarkRepository struct {
	db *sqlx.DB
}

// NewReadMarkRepository creates the repository.
func NewReadMarkRepository(db *sqlx.DB) *ReadMarkRepository {
	return &ReadMarkRepository{db: db}
}

// Mark inserts a read mark when absent. It reports whether a new row was written.
func (r *ReadMarkRepository) Mark(ctx context.Context, userID, announcementID string, markedAt time.Time) (bool, error) {
	const query = `INSERT INTO announcement_reads (user_id, announcement_id, marked_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, announcement_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, userID, announcementID, markedAt)
	if err != nil {
		return false, fmt.Errorf("insert read mark: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read mark rows affected: %w", err)
	}
	return affected > 0, nil
}

// ReadIDs returns the subset of announcementIDs userID has marked read.
func (r *ReadMarkRepository) ReadIDs(ctx context.Context, userID string, announcementIDs []string) (map[string]bool, error) {
	read := make(map[string]bool)
	if len(announcementIDs) == 0 {
		return read, nil
	}
	const query = `SELECT announcement_id FROM announcement_reads WHERE user_id = $1 AND announcement_id = ANY($2)`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, userID, pq.Array(announcementIDs)); err != nil {
		return nil, fmt.Errorf("list read marks: %w", err)
	}
	for _, id := range ids {
		read[id] = true
	}
	return read, nil
}
