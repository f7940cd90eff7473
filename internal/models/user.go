// Package models contains data structures for the application's domain models.
package models

import "time"

// Role is a user's authorization level.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// DefaultProfilePic is assigned to users who never set a picture.
const DefaultProfilePic = "https://shorturl.at/Lx7ah"

// User represents a registered account.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"uniqueIndex;size:20;not null" json:"username"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"not null" json:"-"`
	Role       Role      `gorm:"size:16;not null;default:user;index" json:"role"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	ProfilePic string    `json:"profile_pic"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PublicUser is the profile view exposed to other users.
type PublicUser struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	ProfilePic string    `json:"profile_pic"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// Public strips private fields from the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		ProfilePic: u.ProfilePic,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
	}
}

// ValidRoleAssignment reports whether role may be set through moderation.
func ValidRoleAssignment(role Role) bool {
	return role == RoleAdmin || role == RoleUser
}
