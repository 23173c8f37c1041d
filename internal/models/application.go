package models

import (
	"encoding/json"
	"time"
)

// ApplicationStatus is the review state of a student application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// IsValidApplicationStatus reports whether the string names a known status.
func IsValidApplicationStatus(status string) bool {
	switch ApplicationStatus(status) {
	case ApplicationPending, ApplicationApproved, ApplicationRejected:
		return true
	}
	return false
}

// Application is a student's submission against a notice. One application
// per (notice, student) pair.
type Application struct {
	ID         string            `db:"id" json:"id"`
	NoticeID   string            `db:"notice_id" json:"noticeId"`
	StudentID  string            `db:"student_id" json:"studentId"`
	Status     ApplicationStatus `db:"status" json:"status"`
	Data       json.RawMessage   `db:"application_data" json:"applicationData,omitempty"`
	AdminNotes *string           `db:"admin_notes" json:"adminNotes,omitempty"`
	ReviewedBy *string           `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time        `db:"reviewed_at" json:"reviewedAt,omitempty"`
	CreatedAt  time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time         `db:"updated_at" json:"updatedAt"`
}

// ApplicationNotice is the joined notice summary on an application row.
type ApplicationNotice struct {
	Title     string     `db:"notice_title" json:"title"`
	Category  string     `db:"notice_category" json:"category"`
	ExpiresAt *time.Time `db:"notice_expires_at" json:"expiresAt,omitempty"`
}

// ApplicationStudent is the joined applicant summary.
type ApplicationStudent struct {
	FirstName string  `db:"student_first_name" json:"firstName"`
	LastName  string  `db:"student_last_name" json:"lastName"`
	Email     string  `db:"student_email" json:"email"`
	StudentID *string `db:"student_number" json:"studentId,omitempty"`
}

// ApplicationReviewer is the joined reviewer summary, present once reviewed.
type ApplicationReviewer struct {
	FirstName *string `db:"reviewer_first_name" json:"firstName,omitempty"`
	LastName  *string `db:"reviewer_last_name" json:"lastName,omitempty"`
	Email     *string `db:"reviewer_email" json:"email,omitempty"`
}

// ApplicationWithRelations is an application joined with notice, student and
// reviewer display fields.
type ApplicationWithRelations struct {
	Application
	Notice   ApplicationNotice    `json:"notice"`
	Student  ApplicationStudent   `json:"student"`
	Reviewer *ApplicationReviewer `json:"reviewer,omitempty"`
}

// CreateApplicationRequest is the student submission payload.
type CreateApplicationRequest struct {
	NoticeID string          `json:"noticeId" validate:"required,uuid4"`
	Data     json.RawMessage `json:"applicationData,omitempty"`
}

// ReviewApplicationRequest carries an admin decision's notes.
type ReviewApplicationRequest struct {
	AdminNotes string `json:"adminNotes,omitempty"`
}

// ApplicationFilter captures listing criteria for applications.
type ApplicationFilter struct {
	Status    *ApplicationStatus
	NoticeID  string
	StudentID string
	Page      int
	PageSize  int
}
