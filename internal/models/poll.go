package models

import (
	"time"

	"github.com/lib/pq"
)

// Poll is a single choice vote with per-option counters.
type Poll struct {
	ContentBase
	Name         string         `db:"name" json:"name"`
	Options      pq.StringArray `db:"options" json:"options"`
	VoteCounts   pq.Int64Array  `db:"vote_counts" json:"vote_counts"`
	TotalVotes   int64          `db:"total_votes" json:"total_votes"`
	Deadline     time.Time      `db:"deadline" json:"deadline"`
	AlreadyVoted *bool          `db:"-" json:"already_voted,omitempty"`
}

// ActiveUntil implements Content.
func (p *Poll) ActiveUntil() *time.Time { return &p.Deadline }

// Tally snapshots the counters.
func (p *Poll) Tally() PollTally {
	counts := make([]int64, len(p.VoteCounts))
	copy(counts, p.VoteCounts)
	return PollTally{PollID: p.ID, TotalVotes: p.TotalVotes, VoteCounts: counts}
}

// PollTally is the vote state returned after a vote.
type PollTally struct {
	PollID     string  `json:"poll_id"`
	TotalVotes int64   `json:"total_votes"`
	VoteCounts []int64 `json:"vote_counts"`
}

// PollVote is one voter ledger entry.
type PollVote struct {
	PollID      string    `db:"poll_id" json:"poll_id"`
	VoterID     string    `db:"voter_id" json:"voter_id"`
	OptionIndex int       `db:"option_index" json:"option_index"`
	VotedAt     time.Time `db:"voted_at" json:"voted_at"`
}
