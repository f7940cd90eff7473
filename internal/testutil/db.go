// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"civicboard/internal/database"
	"civicboard/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Password is the plain-text password of every fixture user.
const Password = "password123"

var (
	dbSeq        atomic.Int64
	passwordOnce sync.Once
	passwordHash string
)

// NewDB opens an isolated in-memory SQLite database with the full schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:civicboard_test_%d_%d?mode=memory&cache=shared", os.Getpid(), dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// PasswordHash returns a cheap bcrypt hash of Password.
func PasswordHash() string {
	passwordOnce.Do(func() {
		hashed, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		passwordHash = string(hashed)
	})
	return passwordHash
}

// CreateUser inserts an active user with the given role.
func CreateUser(t testing.TB, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   PasswordHash(),
		Role:       role,
		IsActive:   true,
		ProfilePic: models.DefaultProfilePic,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateBannedUser inserts a deactivated user.
func CreateBannedUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := CreateUser(t, db, username, models.RoleUser)
	require.NoError(t, db.Model(user).Update("is_active", false).Error)
	user.IsActive = false
	return user
}

// CreatePost inserts a live post owned by ownerID.
func CreatePost(t testing.TB, db *gorm.DB, ownerID uint, title string) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:    title,
		Content:  "Details about " + title,
		Category: models.DefaultCategory,
		UserID:   ownerID,
	}
	require.NoError(t, db.Omit("Owner").Create(post).Error)
	return post
}

// CreateComment inserts a live comment.
func CreateComment(t testing.TB, db *gorm.DB, postID, userID uint, content string) *models.Comment {
	t.Helper()
	comment := &models.Comment{PostID: postID, UserID: userID, Content: content}
	require.NoError(t, db.Omit("Author").Create(comment).Error)
	return comment
}

// CreateUpvote inserts an upvote row.
func CreateUpvote(t testing.TB, db *gorm.DB, postID, userID uint) {
	t.Helper()
	require.NoError(t, db.Omit("User").Create(&models.Upvote{PostID: postID, UserID: userID}).Error)
}

// SoftDeletePost marks a post deleted.
func SoftDeletePost(t testing.TB, db *gorm.DB, postID uint) {
	t.Helper()
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", postID).Update("is_deleted", true).Error)
}
