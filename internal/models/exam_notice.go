package models

import "time"

// ExamNotice announces an exam sitting for a subject.
type ExamNotice struct {
	ContentBase
	SubjectName string    `db:"subject_name" json:"subject_name"`
	Syllabus    string    `db:"syllabus" json:"syllabus"`
	Time        string    `db:"start_time" json:"time"`
	Venue       string    `db:"venue" json:"venue"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
}

// ActiveUntil implements Content.
func (e *ExamNotice) ActiveUntil() *time.Time { return &e.ScheduledAt }
