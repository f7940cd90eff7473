package service

import (
	"context"
	"errors"
	"testing"

	"civicboard/internal/imagestore"
	"civicboard/internal/models"
	"civicboard/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateProfileFn func(context.Context, uint, string, string) error
	updateRoleFn    func(context.Context, uint, models.Role) error
	listFn          func(context.Context) ([]models.User, error)
	listByRoleFn    func(context.Context, models.Role) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, id uint, username, profilePic string) error {
	return s.updateProfileFn(ctx, id, username, profilePic)
}
func (s *userRepoStub) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	return s.updateRoleFn(ctx, id, role)
}
func (s *userRepoStub) List(ctx context.Context) ([]models.User, error) {
	return s.listFn(ctx)
}
func (s *userRepoStub) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	return s.listByRoleFn(ctx, role)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id, IsActive: true}, nil },
		getByEmailFn:    func(context.Context, string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:        func(context.Context, *models.User) error { return nil },
		updateProfileFn: func(context.Context, uint, string, string) error { return nil },
		updateRoleFn:    func(context.Context, uint, models.Role) error { return nil },
		listFn:          func(context.Context) ([]models.User, error) { return nil, nil },
		listByRoleFn:    func(context.Context, models.Role) ([]models.User, error) { return nil, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	getLiveFn        func(context.Context, uint) (*models.Post, error)
	listLiveFn       func(context.Context, repository.PostFilter) ([]*models.Post, error)
	listLiveWithinFn func(context.Context, repository.BoundingBox) ([]*models.Post, error)
	softDeleteFn     func(context.Context, uint) error
	setResolvedFn    func(context.Context, uint, bool) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetLive(ctx context.Context, id uint) (*models.Post, error) {
	return s.getLiveFn(ctx, id)
}
func (s *postRepoStub) ListLive(ctx context.Context, filter repository.PostFilter) ([]*models.Post, error) {
	return s.listLiveFn(ctx, filter)
}
func (s *postRepoStub) ListLiveWithin(ctx context.Context, box repository.BoundingBox) ([]*models.Post, error) {
	return s.listLiveWithinFn(ctx, box)
}
func (s *postRepoStub) SoftDelete(ctx context.Context, id uint) error {
	return s.softDeleteFn(ctx, id)
}
func (s *postRepoStub) SetResolved(ctx context.Context, id uint, resolved bool) error {
	return s.setResolvedFn(ctx, id, resolved)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:         func(context.Context, *models.Post) error { return nil },
		getLiveFn:        func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listLiveFn:       func(context.Context, repository.PostFilter) ([]*models.Post, error) { return nil, nil },
		listLiveWithinFn: func(context.Context, repository.BoundingBox) ([]*models.Post, error) { return nil, nil },
		softDeleteFn:     func(context.Context, uint) error { return nil },
		setResolvedFn:    func(context.Context, uint, bool) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createOnLivePostFn func(context.Context, *models.Comment) error
	getByIDFn          func(context.Context, uint) (*models.Comment, error)
	listByPostFn       func(context.Context, uint) ([]*models.Comment, error)
	softDeleteFn       func(context.Context, uint) error
	countByPostsFn     func(context.Context, []uint) (map[uint]int64, error)
}

func (s *commentRepoStub) CreateOnLivePost(ctx context.Context, comment *models.Comment) error {
	return s.createOnLivePostFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) SoftDelete(ctx context.Context, id uint) error {
	return s.softDeleteFn(ctx, id)
}
func (s *commentRepoStub) CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	return s.countByPostsFn(ctx, postIDs)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createOnLivePostFn: func(context.Context, *models.Comment) error { return nil },
		getByIDFn:          func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn:       func(context.Context, uint) ([]*models.Comment, error) { return nil, nil },
		softDeleteFn:       func(context.Context, uint) error { return nil },
		countByPostsFn:     func(context.Context, []uint) (map[uint]int64, error) { return map[uint]int64{}, nil },
	}
}

// upvoteRepoStub is a stub for repository.UpvoteRepository.
type upvoteRepoStub struct {
	toggleFn       func(context.Context, uint, uint) (models.UpvoteAction, error)
	listByPostFn   func(context.Context, uint) ([]*models.Upvote, error)
	countByPostsFn func(context.Context, []uint) (map[uint]int64, error)
}

func (s *upvoteRepoStub) Toggle(ctx context.Context, postID, userID uint) (models.UpvoteAction, error) {
	return s.toggleFn(ctx, postID, userID)
}
func (s *upvoteRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Upvote, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *upvoteRepoStub) CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	return s.countByPostsFn(ctx, postIDs)
}

func noopUpvoteRepo() *upvoteRepoStub {
	return &upvoteRepoStub{
		toggleFn:       func(context.Context, uint, uint) (models.UpvoteAction, error) { return models.UpvoteCreated, nil },
		listByPostFn:   func(context.Context, uint) ([]*models.Upvote, error) { return nil, nil },
		countByPostsFn: func(context.Context, []uint) (map[uint]int64, error) { return map[uint]int64{}, nil },
	}
}

// banRepoStub is a stub for repository.BanRepository.
type banRepoStub struct {
	banFn   func(context.Context, *models.BanRecord) error
	unbanFn func(context.Context, uint) error
	listFn  func(context.Context, *uint) ([]*models.BanRecord, error)
}

func (s *banRepoStub) Ban(ctx context.Context, record *models.BanRecord) error {
	return s.banFn(ctx, record)
}
func (s *banRepoStub) Unban(ctx context.Context, userID uint) error {
	return s.unbanFn(ctx, userID)
}
func (s *banRepoStub) List(ctx context.Context, userID *uint) ([]*models.BanRecord, error) {
	return s.listFn(ctx, userID)
}

func noopBanRepo() *banRepoStub {
	return &banRepoStub{
		banFn:   func(context.Context, *models.BanRecord) error { return nil },
		unbanFn: func(context.Context, uint) error { return nil },
		listFn:  func(context.Context, *uint) ([]*models.BanRecord, error) { return nil, nil },
	}
}

// uploaderStub is a stub for imagestore.Uploader.
type uploaderStub struct {
	uploadFn func(context.Context, *imagestore.Image) (string, error)
	calls    int
}

func (s *uploaderStub) Upload(ctx context.Context, img *imagestore.Image) (string, error) {
	s.calls++
	return s.uploadFn(ctx, img)
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeUnauthorized)
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeForbidden)
}

func assertConflictError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeConflict)
}
