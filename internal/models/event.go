package models

import "time"

// Event is a campus happening students may attend.
type Event struct {
	ContentBase
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Time        string    `db:"start_time" json:"time"`
	Venue       string    `db:"venue" json:"venue"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
}

// ActiveUntil implements Content.
func (e *Event) ActiveUntil() *time.Time { return &e.ScheduledAt }
