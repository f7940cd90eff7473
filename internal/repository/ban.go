package repository

import (
	"context"

	"civicboard/internal/models"

	"gorm.io/gorm"
)

// BanRepository manages the ban ledger and the account state it governs.
type BanRepository interface {
	Ban(ctx context.Context, record *models.BanRecord) error
	Unban(ctx context.Context, userID uint) error
	List(ctx context.Context, userID *uint) ([]*models.BanRecord, error)
}

type banRepository struct {
	db *gorm.DB
}

// NewBanRepository creates a new BanRepository
func NewBanRepository(db *gorm.DB) BanRepository {
	return &banRepository{db: db}
}

// Ban deactivates the user and appends the ledger entry atomically.
func (r *banRepository) Ban(ctx context.Context, record *models.BanRecord) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND is_active = ?", record.UserID, true).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Active user", record.UserID)
		}
		return tx.Omit("User").Create(record).Error
	})
	return wrapDBError(err)
}

// Unban reactivates the user. No ledger entry is written.
func (r *banRepository) Unban(ctx context.Context, userID uint) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_active = ?", userID, false).
		Update("is_active", true)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Banned user", userID)
	}
	return nil
}

// List returns ledger entries newest first, optionally for one user.
func (r *banRepository) List(ctx context.Context, userID *uint) ([]*models.BanRecord, error) {
	q := r.db.WithContext(ctx).Preload("User")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var records []*models.BanRecord
	if err := q.Order("created_at DESC").Order("id DESC").Find(&records).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return records, nil
}
