package domain

import "time"

type TicketStatus string

const (
	TicketOpen       TicketStatus = "OPEN"
	TicketInProgress TicketStatus = "IN_PROGRESS"
	TicketSubmitted  TicketStatus = "SUBMITTED"
	TicketApproved   TicketStatus = "APPROVED"
	TicketRejected   TicketStatus = "REJECTED"
)

type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:2048" json:"description"`
	CreatedBy   uint      `gorm:"index;not null" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Ticket struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	ProjectID   uint         `gorm:"index;not null" json:"project_id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"size:4096" json:"description"`
	Status      TicketStatus `gorm:"size:16;not null;default:OPEN" json:"status"`
	AssigneeID  *uint        `gorm:"index" json:"assignee_id,omitempty"`
	CreatedBy   uint         `gorm:"index;not null" json:"created_by"`
	DueAt       *time.Time   `json:"due_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	Submissions []Submission `json:"submissions,omitempty"`
}

// Submission is one file deliverable handed in against a ticket. ObjectKey
// points into the deliverable bucket; the file itself never touches the
// database.
type Submission struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	TicketID      uint       `gorm:"index;not null" json:"ticket_id"`
	MemberID      uint       `gorm:"index;not null" json:"member_id"`
	ObjectKey     string     `gorm:"size:512;not null" json:"object_key"`
	FileName      string     `gorm:"size:255" json:"file_name"`
	ContentType   string     `gorm:"size:128" json:"content_type"`
	SizeBytes     int64      `json:"size_bytes"`
	ReviewedBy    *uint      `gorm:"index" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewComment string     `gorm:"size:2048" json:"review_comment,omitempty"`
	Approved      *bool      `json:"approved,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
