package service

import (
	"context"
	"testing"

	"civicboard/internal/models"
	"civicboard/internal/repository"
	"civicboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sqliteServices struct {
	db         *gorm.DB
	posts      *PostService
	engagement *EngagementService
	moderation *ModerationService
}

func newSQLiteServices(t *testing.T) *sqliteServices {
	t.Helper()
	db := testutil.NewDB(t)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	upvoteRepo := repository.NewUpvoteRepository(db)
	return &sqliteServices{
		db:         db,
		posts:      NewPostService(postRepo, commentRepo, upvoteRepo, nil, 0),
		engagement: NewEngagementService(postRepo, commentRepo, upvoteRepo),
		moderation: NewModerationService(repository.NewUserRepository(db), repository.NewBanRepository(db)),
	}
}

func TestToggleUpvote_ParityWithSQLite(t *testing.T) {
	s := newSQLiteServices(t)
	ctx := context.Background()

	owner := testutil.CreateUser(t, s.db, "owner", models.RoleUser)
	voter := testutil.CreateUser(t, s.db, "voter", models.RoleUser)
	post := testutil.CreatePost(t, s.db, owner.ID, "Flooded underpass")

	for i := 1; i <= 5; i++ {
		res, err := s.engagement.ToggleUpvote(ctx, post.ID, voter)
		require.NoError(t, err)
		odd := i%2 == 1
		assert.Equal(t, odd, res.Upvoted, "toggle %d", i)
		if odd {
			assert.Equal(t, int64(1), res.UpvoteCount)
		} else {
			assert.Equal(t, int64(0), res.UpvoteCount)
		}
	}
}

func TestAggregateCounts_MatchesEnumeration(t *testing.T) {
	s := newSQLiteServices(t)
	ctx := context.Background()

	a := testutil.CreateUser(t, s.db, "alpha", models.RoleUser)
	b := testutil.CreateUser(t, s.db, "bravo", models.RoleUser)
	c := testutil.CreateUser(t, s.db, "charlie", models.RoleUser)

	p1 := testutil.CreatePost(t, s.db, a.ID, "Broken streetlight")
	p2 := testutil.CreatePost(t, s.db, b.ID, "Overflowing bins")
	p3 := testutil.CreatePost(t, s.db, c.ID, "Missing stop sign")

	testutil.CreateComment(t, s.db, p1.ID, b.ID, "Seen too")
	testutil.CreateComment(t, s.db, p1.ID, c.ID, "Same here")
	gone := testutil.CreateComment(t, s.db, p1.ID, a.ID, "Nevermind")
	require.NoError(t, s.db.Delete(gone).Error)
	testutil.CreateComment(t, s.db, p2.ID, a.ID, "Smells")

	testutil.CreateUpvote(t, s.db, p1.ID, b.ID)
	testutil.CreateUpvote(t, s.db, p2.ID, a.ID)
	testutil.CreateUpvote(t, s.db, p2.ID, c.ID)

	ids := []uint{p1.ID, p2.ID, p3.ID}
	counts, err := s.engagement.AggregateCounts(ctx, ids)
	require.NoError(t, err)

	for _, id := range ids {
		var comments, upvotes int64
		require.NoError(t, s.db.Model(&models.Comment{}).Where("post_id = ?", id).Count(&comments).Error)
		require.NoError(t, s.db.Model(&models.Upvote{}).Where("post_id = ?", id).Count(&upvotes).Error)
		assert.Equal(t, models.EngagementCounts{CommentCount: comments, UpvoteCount: upvotes}, counts[id], "post %d", id)
	}
	assert.Equal(t, int64(2), counts[p1.ID].CommentCount)
	assert.Equal(t, models.EngagementCounts{}, counts[p3.ID])
}

func TestSoftDeletedPost_HiddenFromReadPaths(t *testing.T) {
	s := newSQLiteServices(t)
	ctx := context.Background()

	owner := testutil.CreateUser(t, s.db, "owner", models.RoleUser)
	other := testutil.CreateUser(t, s.db, "other", models.RoleUser)
	post := testutil.CreatePost(t, s.db, owner.ID, "Broken streetlight")
	testutil.CreateComment(t, s.db, post.ID, other.ID, "Seen too")
	testutil.CreateUpvote(t, s.db, post.ID, other.ID)

	require.NoError(t, s.posts.DeletePost(ctx, post.ID, owner))

	_, err := s.posts.GetPost(ctx, post.ID)
	assertNotFoundError(t, err)

	list, err := s.posts.ListPosts(ctx, ListPostsInput{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.engagement.ListComments(ctx, post.ID)
	assertNotFoundError(t, err)

	_, err = s.engagement.ToggleUpvote(ctx, post.ID, other)
	assertNotFoundError(t, err)

	_, err = s.engagement.AddComment(ctx, AddCommentInput{PostID: post.ID, Author: other, Content: "late"})
	assertNotFoundError(t, err)

	var stored models.Post
	require.NoError(t, s.db.First(&stored, post.ID).Error)
	assert.True(t, stored.IsDeleted)

	var comments, upvotes int64
	require.NoError(t, s.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments).Error)
	require.NoError(t, s.db.Model(&models.Upvote{}).Where("post_id = ?", post.ID).Count(&upvotes).Error)
	assert.Equal(t, int64(1), comments)
	assert.Equal(t, int64(1), upvotes)
}

func TestListComments_ExcludesDeleted(t *testing.T) {
	s := newSQLiteServices(t)
	ctx := context.Background()

	owner := testutil.CreateUser(t, s.db, "owner", models.RoleUser)
	post := testutil.CreatePost(t, s.db, owner.ID, "Cracked pavement")

	first, err := s.engagement.AddComment(ctx, AddCommentInput{PostID: post.ID, Author: owner, Content: "first"})
	require.NoError(t, err)
	second, err := s.engagement.AddComment(ctx, AddCommentInput{PostID: post.ID, Author: owner, Content: "second"})
	require.NoError(t, err)

	require.NoError(t, s.engagement.DeleteComment(ctx, DeleteCommentInput{PostID: post.ID, CommentID: first.ID, Actor: owner}))

	comments, err := s.engagement.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, second.ID, comments[0].ID)
	assert.Equal(t, "owner", comments[0].Author.Username)

	err = s.engagement.DeleteComment(ctx, DeleteCommentInput{PostID: post.ID, CommentID: first.ID, Actor: owner})
	assertNotFoundError(t, err)
}

func TestBanToggle_WithSQLite(t *testing.T) {
	s := newSQLiteServices(t)
	ctx := context.Background()

	admin := testutil.CreateUser(t, s.db, "admin", models.RoleAdmin)
	target := testutil.CreateUser(t, s.db, "target", models.RoleUser)

	res, err := s.moderation.BanToggle(ctx, BanToggleInput{Actor: admin, UserID: target.ID, Reason: " spam "})
	require.NoError(t, err)
	assert.Equal(t, models.BanActionBanned, res.Action)

	bans, err := s.moderation.ListBans(ctx, admin, &target.ID)
	require.NoError(t, err)
	require.Len(t, bans, 1)
	assert.Equal(t, "spam", bans[0].Reason)
	assert.Equal(t, admin.ID, bans[0].BannedBy)

	_, err = s.moderation.ChangeRole(ctx, ChangeRoleInput{Actor: admin, UserID: target.ID, Role: models.RoleAdmin})
	assertNotFoundError(t, err)

	res, err = s.moderation.BanToggle(ctx, BanToggleInput{Actor: admin, UserID: target.ID})
	require.NoError(t, err)
	assert.Equal(t, models.BanActionUnbanned, res.Action)

	bans, err = s.moderation.ListBans(ctx, admin, nil)
	require.NoError(t, err)
	assert.Len(t, bans, 1)

	users, err := s.moderation.ListUsers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.True(t, users[1].IsActive)
}

// banAfterRead bans the user right after it is read, the way a concurrent
// moderator action would.
type banAfterRead struct {
	repository.UserRepository
	db *gorm.DB
}

func (r banAfterRead) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := r.UserRepository.GetByID(ctx, id)
	if err == nil && user.IsActive {
		err = r.db.Model(&models.User{}).Where("id = ?", id).Update("is_active", false).Error
	}
	return user, err
}

func TestUpdateProfile_DoesNotRevertConcurrentBan(t *testing.T) {
	s := newSQLiteServices(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, s.db, "alice", models.RoleUser)
	users := banAfterRead{UserRepository: repository.NewUserRepository(s.db), db: s.db}
	svc := NewUserService(users, s.posts)

	name := "alice_new"
	updated, err := svc.UpdateProfile(ctx, UpdateProfileInput{Actor: alice, Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "alice_new", updated.Username)

	var stored models.User
	require.NoError(t, s.db.First(&stored, alice.ID).Error)
	assert.Equal(t, "alice_new", stored.Username)
	assert.False(t, stored.IsActive, "profile update must not reactivate a banned account")
}
