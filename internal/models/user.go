package models

import "time"

// User represents a portal account stored in the users table.
type User struct {
	ID         string    `db:"id" json:"id"`
	Identifier string    `db:"identifier" json:"identifier"`
	FullName   string    `db:"full_name" json:"full_name"`
	Email      string    `db:"email" json:"email"`
	AvatarURL  *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	IsAdmin    bool      `db:"is_admin" json:"is_admin"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Recipient is a mail destination resolved for an audience.
type Recipient struct {
	Email    string `db:"email"`
	FullName string `db:"full_name"`
}
