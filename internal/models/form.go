package models

import "time"

// FormLink points students at an external form. ResponseLink is for administrators only.
type FormLink struct {
	ContentBase
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	FormLink     string    `db:"form_link" json:"form_link"`
	ResponseLink string    `db:"response_link" json:"response_link,omitempty"`
	Deadline     time.Time `db:"deadline" json:"deadline"`
}

// ActiveUntil implements Content.
func (f *FormLink) ActiveUntil() *time.Time { return &f.Deadline }
