package repository

import (
	"context"

	"civicboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpvoteRepository defines persistence for the (post, user) upvote fact.
type UpvoteRepository interface {
	Toggle(ctx context.Context, postID, userID uint) (models.UpvoteAction, error)
	ListByPost(ctx context.Context, postID uint) ([]*models.Upvote, error)
	CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
}

type upvoteRepository struct {
	db *gorm.DB
}

// NewUpvoteRepository creates a new UpvoteRepository
func NewUpvoteRepository(db *gorm.DB) UpvoteRepository {
	return &upvoteRepository{db: db}
}

// Toggle removes the user's upvote if present and adds it otherwise. The
// post liveness check and the write share one transaction. When a concurrent
// toggle inserts the same pair first, the unique index turns the insert into
// a no-op and the result is UpvoteUnchanged.
func (r *upvoteRepository) Toggle(ctx context.Context, postID, userID uint) (models.UpvoteAction, error) {
	var action models.UpvoteAction
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockLivePost(tx, postID); err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Upvote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			action = models.UpvoteRemoved
			return nil
		}

		upvote := models.Upvote{PostID: postID, UserID: userID}
		res = tx.Omit("User").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&upvote)
		if res.Error != nil {
			if isUniqueConstraintError(res.Error) {
				action = models.UpvoteUnchanged
				return nil
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			action = models.UpvoteUnchanged
			return nil
		}
		action = models.UpvoteCreated
		return nil
	})
	if err != nil {
		return "", wrapDBError(err)
	}
	return action, nil
}

func (r *upvoteRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Upvote, error) {
	var upvotes []*models.Upvote
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&upvotes).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return upvotes, nil
}

// CountByPosts counts upvotes per post in one grouped query.
func (r *upvoteRepository) CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	if len(postIDs) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []countRow
	err := r.db.WithContext(ctx).
		Model(&models.Upvote{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rowsToCounts(rows), nil
}
