// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"civicboard/internal/database"
	"civicboard/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, pgUniqueViolation)
}

// wrapDBError passes AppErrors through and wraps everything else as internal.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

// lockLivePost verifies inside tx that the post exists and is not deleted.
// On PostgreSQL the row is share-locked so a concurrent soft delete waits
// for the surrounding transaction.
func lockLivePost(tx *gorm.DB, postID uint) error {
	q := tx.Model(&models.Post{}).Select("id").Where("id = ? AND is_deleted = ?", postID, false)
	if database.IsPostgres(tx) {
		q = q.Clauses(clause.Locking{Strength: "SHARE"})
	}
	var post models.Post
	if err := q.Take(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", postID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

type countRow struct {
	PostID uint
	Total  int64
}

func rowsToCounts(rows []countRow) map[uint]int64 {
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.PostID] = row.Total
	}
	return counts
}
