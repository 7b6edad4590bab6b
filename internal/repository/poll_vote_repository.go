package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-portal-api/internal/models"
)

var (
	// ErrDuplicateVote means the voter ledger already holds an entry for the pair.
	ErrDuplicateVote = errors.New("vote already recorded")
	// ErrPollNotOpen means the counter update matched no open poll.
	ErrPollNotOpen = errors.New("poll not open for voting")
)

// PollVoteRepository records votes in the ledger and bumps counters in place.
type PollVoteRepository struct {
	db *sqlx.DB
}

// NewPollVoteRepository creates the repository.
func NewPollVoteRepository(db *sqlx.DB) *PollVoteRepository {
	return &PollVoteRepository{db: db}
}

// Cast records vote and increments the chosen counter in one transaction.
func (r *PollVoteRepository) Cast(ctx context.Context, vote models.PollVote) (tally *models.PollTally, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin vote transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const ledgerQuery = `INSERT INTO poll_votes (poll_id, voter_id, option_index, voted_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (poll_id, voter_id) DO NOTHING`
	res, err := tx.ExecContext(ctx, ledgerQuery, vote.PollID, vote.VoterID, vote.OptionIndex, vote.VotedAt)
	if err != nil {
		return nil, fmt.Errorf("insert poll vote: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("poll vote rows affected: %w", err)
	}
	if inserted == 0 {
		err = ErrDuplicateVote
		return nil, err
	}

	// Postgres arrays are 1-based.
	const counterQuery = `UPDATE polls
SET vote_counts[$2] = vote_counts[$2] + 1, total_votes = total_votes + 1
WHERE id = $1 AND deadline >= $3 AND $2 BETWEEN 1 AND cardinality(vote_counts)
RETURNING total_votes, vote_counts`
	poll := models.Poll{ContentBase: models.ContentBase{ID: vote.PollID}}
	if err = tx.GetContext(ctx, &poll, counterQuery, vote.PollID, vote.OptionIndex+1, vote.VotedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrPollNotOpen
			return nil, err
		}
		return nil, fmt.Errorf("increment poll counters: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit poll vote: %w", err)
	}
	snapshot := poll.Tally()
	return &snapshot, nil
}

// VotedPollIDs returns the subset of pollIDs voterID has voted on.
func (r *PollVoteRepository) VotedPollIDs(ctx context.Context, voterID string, pollIDs []string) (map[string]bool, error) {
	voted := make(map[string]bool)
	if len(pollIDs) == 0 {
		return voted, nil
	}
	const query = `SELECT poll_id FROM poll_votes WHERE voter_id = $1 AND poll_id = ANY($2)`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, voterID, pq.Array(pollIDs)); err != nil {
		return nil, fmt.Errorf("list voted polls: %w", err)
	}
	for _, id := range ids {
		voted[id] = true
	}
	return voted, nil
}
