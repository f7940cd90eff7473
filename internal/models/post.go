package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultCategory is used when a post is created without a category.
const DefaultCategory = "general"

// Post represents a reported community issue.
type Post struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Title    string  `gorm:"size:50;not null" json:"title"`
	Content  string  `gorm:"type:text;not null" json:"content"`
	Image    *string `json:"image"`
	Category string  `gorm:"size:64;not null;default:general;index" json:"category"`
	// Longitude and Latitude back Location; both are set or both are nil.
	Longitude *float64  `gorm:"index:idx_posts_location,priority:2" json:"-"`
	Latitude  *float64  `gorm:"index:idx_posts_location,priority:1" json:"-"`
	Location  *GeoPoint `gorm:"-" json:"location,omitempty"`
	Resolved  bool      `gorm:"not null;default:false;index" json:"resolved"`
	IsDeleted bool      `gorm:"not null;default:false;index" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Owner     User      `gorm:"foreignKey:UserID" json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Computed at read time, never stored.
	CommentCount int64    `gorm:"-" json:"comment_count"`
	UpvoteCount  int64    `gorm:"-" json:"upvote_count"`
	DistanceKm   *float64 `gorm:"-" json:"distance_km,omitempty"`
}

// SetLocation stores a point on the post.
func (p *Post) SetLocation(lng, lat float64) {
	p.Longitude = &lng
	p.Latitude = &lat
	p.Location = NewGeoPoint(lng, lat)
}

// AfterFind rebuilds Location from the stored coordinates.
func (p *Post) AfterFind(_ *gorm.DB) error {
	if p.Longitude != nil && p.Latitude != nil {
		p.Location = NewGeoPoint(*p.Longitude, *p.Latitude)
	} else {
		p.Location = nil
	}
	return nil
}

// ApplyCounts copies aggregated engagement counts onto the post.
func (p *Post) ApplyCounts(c EngagementCounts) {
	p.CommentCount = c.CommentCount
	p.UpvoteCount = c.UpvoteCount
}

// EngagementCounts holds the live comment and upvote totals for one post.
type EngagementCounts struct {
	CommentCount int64 `json:"comment_count"`
	UpvoteCount  int64 `json:"upvote_count"`
}

// PostDetail is a post together with its live comments and upvotes.
type PostDetail struct {
	*Post
	Comments []*Comment `json:"comments"`
	Upvotes  []*Upvote  `json:"upvotes"`
}
