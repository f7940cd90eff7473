package repository

import (
	"context"
	"errors"

	"civicboard/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows ListLive. Nil fields do not filter.
type PostFilter struct {
	Category *string
	Resolved *bool
	UserID   *uint
}

// BoundingBox is a latitude/longitude window.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetLive(ctx context.Context, id uint) (*models.Post, error)
	ListLive(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	ListLiveWithin(ctx context.Context, box BoundingBox) ([]*models.Post, error)
	SoftDelete(ctx context.Context, id uint) error
	SetResolved(ctx context.Context, id uint, resolved bool) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Post{}).Where("posts.is_deleted = ?", false)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Owner").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetLive returns the post unless it is missing or soft-deleted.
func (r *postRepository) GetLive(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.live(ctx).Preload("Owner").Where("posts.id = ?", id).Take(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) ListLive(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	q := r.live(ctx).Preload("Owner")
	if filter.Category != nil {
		q = q.Where("posts.category = ?", *filter.Category)
	}
	if filter.Resolved != nil {
		q = q.Where("posts.resolved = ?", *filter.Resolved)
	}
	if filter.UserID != nil {
		q = q.Where("posts.user_id = ?", *filter.UserID)
	}

	var posts []*models.Post
	if err := q.Order("posts.created_at DESC").Order("posts.id DESC").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ListLiveWithin returns located live posts whose point falls inside box.
func (r *postRepository) ListLiveWithin(ctx context.Context, box BoundingBox) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.live(ctx).Preload("Owner").
		Where("posts.latitude IS NOT NULL AND posts.longitude IS NOT NULL").
		Where("posts.latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("posts.longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// SoftDelete hides a live post. Comments and upvotes are left in place.
func (r *postRepository) SoftDelete(ctx context.Context, id uint) error {
	res := r.live(ctx).Where("id = ?", id).Update("is_deleted", true)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) SetResolved(ctx context.Context, id uint, resolved bool) error {
	res := r.live(ctx).Where("id = ?", id).Update("resolved", resolved)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}
