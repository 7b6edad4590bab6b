package models

import "time"

// Announcement is a broadcast notice. Students track read state against it.
type Announcement struct {
	ContentBase
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expires_at,omitempty"`
}

// ActiveUntil implements Content.
func (a *Announcement) ActiveUntil() *time.Time { return a.ExpiresAt }

// AnnouncementWithReadState pairs an announcement with the viewer's read flag.
type AnnouncementWithReadState struct {
	*Announcement
	IsRead bool `json:"is_read"`
}

// MarkReadResult is returned by the mark-read operation.
type MarkReadResult struct {
	AnnouncementID string `json:"announcement_id"`
	WasAlreadyRead bool   `json:"was_already_read"`
}
