package domain

import "time"

type Meeting struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Agenda         string     `gorm:"size:4096" json:"agenda"`
	Location       string     `gorm:"size:255" json:"location"`
	StartsAt       time.Time  `gorm:"index;not null" json:"starts_at"`
	CreatedBy      uint       `gorm:"index;not null" json:"created_by"`
	ReminderSentAt *time.Time `gorm:"index" json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
