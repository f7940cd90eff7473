package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reply on a post. Deletion is soft via DeletedAt.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PostID    uint           `gorm:"not null;index" json:"post_id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Author    User           `gorm:"foreignKey:UserID" json:"author"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Upvote records that a user endorsed a post. At most one row exists per
// (post, user) pair; the unique index enforces it.
type Upvote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_upvotes_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_upvotes_post_user;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// UpvoteAction is the outcome of a toggle.
type UpvoteAction string

const (
	UpvoteCreated   UpvoteAction = "created"
	UpvoteRemoved   UpvoteAction = "removed"
	UpvoteUnchanged UpvoteAction = "unchanged"
)

// Upvoted reports whether the upvote exists after the action.
func (a UpvoteAction) Upvoted() bool {
	return a != UpvoteRemoved
}

// DefaultBanReason is recorded when an admin bans without a reason.
const DefaultBanReason = "community guidelines"

// BanRecord is an append-only ledger entry written for every ban.
type BanRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Reason    string    `gorm:"not null" json:"reason"`
	BannedBy  uint      `gorm:"not null" json:"banned_by"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// BanAction is the outcome of a ban toggle.
type BanAction string

const (
	BanActionBanned   BanAction = "banned"
	BanActionUnbanned BanAction = "unbanned"
)
