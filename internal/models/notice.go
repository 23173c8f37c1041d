package models

import "time"

// Notice is a posting on the board. Students only see active, unexpired
// notices; admins see everything.
type Notice struct {
	ID        string     `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	Content   string     `db:"content" json:"content"`
	Category  string     `db:"category" json:"category"`
	CreatedBy string     `db:"created_by" json:"createdBy"`
	ExpiresAt *time.Time `db:"expires_at" json:"expiresAt,omitempty"`
	IsActive  bool       `db:"is_active" json:"isActive"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// AvailableAt reports whether the notice accepts applications at the given
// instant: it must be active and not past its expiry.
func (n *Notice) AvailableAt(now time.Time) bool {
	if !n.IsActive {
		return false
	}
	return n.ExpiresAt == nil || now.Before(*n.ExpiresAt)
}

// NoticeAuthor is the joined author summary returned with a notice.
type NoticeAuthor struct {
	FirstName string `db:"author_first_name" json:"firstName"`
	LastName  string `db:"author_last_name" json:"lastName"`
	Email     string `db:"author_email" json:"email"`
}

// NoticeWithAuthor pairs a notice with its author's display fields.
type NoticeWithAuthor struct {
	Notice
	Author NoticeAuthor `json:"author"`
}

// CreateNoticeRequest is the admin payload for posting a notice.
type CreateNoticeRequest struct {
	Title     string     `json:"title" validate:"required,max=200"`
	Content   string     `json:"content" validate:"required"`
	Category  string     `json:"category" validate:"required,max=50"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// UpdateNoticeRequest carries partial updates; nil fields stay untouched.
type UpdateNoticeRequest struct {
	Title     *string    `json:"title,omitempty" validate:"omitempty,max=200"`
	Content   *string    `json:"content,omitempty"`
	Category  *string    `json:"category,omitempty" validate:"omitempty,max=50"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	IsActive  *bool      `json:"isActive,omitempty"`
}

// NoticeFilter captures listing criteria for notices.
type NoticeFilter struct {
	Category       string
	Search         string
	IsActive       *bool
	IncludeExpired bool
	CreatedBy      string
	Page           int
	PageSize       int
}
