package model

import "time"

// Role is the authorization role of a user.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
)

// User represents a registered identity. Admins never hold a workplace;
// members are expected to hold exactly one.
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"uniqueIndex;size:100;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	FullName     string     `json:"full_name" gorm:"size:200;not null"`
	Email        string     `json:"email" gorm:"size:200;not null"`
	Role         Role       `json:"role" gorm:"size:50;not null;default:'Member'"`
	WorkplaceID  *uint      `json:"workplace_id,omitempty" gorm:"index"`
	Active       bool       `json:"active" gorm:"default:true;index"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`

	// Relations
	Workplace *Workplace `json:"-" gorm:"foreignKey:WorkplaceID"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
