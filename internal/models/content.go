package models

import "time"

// AudienceAll targets every student regardless of cohort.
const AudienceAll = "All"

// Content is implemented by every distributable content type.
type Content interface {
	Meta() *ContentBase
	// ActiveUntil returns the instant the item stops being current; nil means it never does.
	ActiveUntil() *time.Time
}

// ContentPtr constrains generic code to pointer receivers of content structs.
type ContentPtr[T any] interface {
	*T
	Content
}

// OwnerSummary describes the uploader of an item as shown to clients.
type OwnerSummary struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Avatar *string `json:"avatar,omitempty"`
}

// OwnerColumns holds the uploader columns joined from users. All fields are nil when no row matched.
type OwnerColumns struct {
	FullName  *string `db:"full_name"`
	Email     *string `db:"email"`
	AvatarURL *string `db:"avatar_url"`
}

// ContentBase carries the fields shared by every content table.
type ContentBase struct {
	ID         string        `db:"id" json:"id"`
	OwnerID    *string       `db:"owner_id" json:"owner_id,omitempty"`
	Audience   string        `db:"audience" json:"audience"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
	Owner      OwnerColumns  `db:"uploader" json:"-"`
	UploadedBy *OwnerSummary `db:"-" json:"uploaded_by,omitempty"`
}

// Meta exposes the shared fields.
func (b *ContentBase) Meta() *ContentBase { return b }

// IsOwnedBy reports whether userID uploaded the item.
func (b *ContentBase) IsOwnedBy(userID string) bool {
	return b.OwnerID != nil && userID != "" && *b.OwnerID == userID
}

// ResolveOwner fills UploadedBy from the joined columns. It returns false when the item
// references an owner whose user row no longer exists.
func (b *ContentBase) ResolveOwner() bool {
	if b.OwnerID == nil {
		b.UploadedBy = nil
		return true
	}
	if b.Owner.FullName == nil {
		return false
	}
	summary := &OwnerSummary{Name: *b.Owner.FullName, Avatar: b.Owner.AvatarURL}
	if b.Owner.Email != nil {
		summary.Email = *b.Owner.Email
	}
	b.UploadedBy = summary
	return true
}

// ContentFacets groups an administrator's management view. The facets overlap.
type ContentFacets[T any] struct {
	Mine     []*T `json:"mine"`
	Past     []*T `json:"past"`
	Upcoming []*T `json:"upcoming"`
}
