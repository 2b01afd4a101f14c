package domain

import "time"

// Role is the coarse permission tier of a member. There is no per-resource
// ACL; handlers and services check the role directly.
type Role string

const (
	RoleMember  Role = "MEMBER"
	RoleBoard   Role = "BOARD"
	RoleCaptain Role = "CAPTAIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleBoard, RoleCaptain:
		return true
	}
	return false
}

// Member is an account. PasswordHash holds either an Argon2id PHC string or,
// for accounts that predate the migration, a bare SHA-256 hex digest that is
// upgraded on the next successful login.
type Member struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Email               string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name                string     `gorm:"size:255;not null" json:"name"`
	PasswordHash        string     `gorm:"size:255;not null" json:"-"`
	Role                Role       `gorm:"size:16;not null;default:MEMBER" json:"role"`
	// No column default on purpose: a default would make gorm skip the
	// zero value on insert, silently storing Active=false rows as active.
	Active              bool       `gorm:"not null" json:"active"`
	ResetTokenHash      *string    `gorm:"size:128;index" json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP         string     `gorm:"size:64" json:"-"`
	LastLoginUserAgent  string     `gorm:"size:512" json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
