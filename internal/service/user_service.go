package service

import (
	"context"
	"net/url"
	"strings"

	"civicboard/internal/models"
	"civicboard/internal/repository"
	"civicboard/internal/validation"
)

// UserService serves profile reads and self-service updates.
type UserService struct {
	users repository.UserRepository
	posts *PostService
}

// PublicProfile is what any visitor may see about a user.
type PublicProfile struct {
	User  models.PublicUser `json:"user"`
	Posts []*models.Post    `json:"posts"`
}

// UpdateProfileInput carries optional profile changes. Nil fields are left
// untouched.
type UpdateProfileInput struct {
	Actor      *models.User
	Username   *string
	ProfilePic *string
}

func NewUserService(users repository.UserRepository, posts *PostService) *UserService {
	return &UserService{users: users, posts: posts}
}

func (s *UserService) GetProfile(ctx context.Context, id uint) (*PublicProfile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListPostsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &PublicProfile{User: user.Public(), Posts: posts}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if in.Actor == nil {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	if in.Username == nil && in.ProfilePic == nil {
		return nil, models.NewValidationError("Nothing to update")
	}

	user, err := s.users.GetByID(ctx, in.Actor.ID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError("Username must be 3-20 characters of letters, numbers, underscores, or hyphens")
		}
		if username != user.Username {
			taken, err := s.users.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if taken != nil && taken.ID != user.ID {
				return nil, models.NewConflictError("Username is already taken")
			}
		}
		user.Username = username
	}

	if in.ProfilePic != nil {
		pic := strings.TrimSpace(*in.ProfilePic)
		if !isHTTPURL(pic) {
			return nil, models.NewValidationError("Profile picture must be an http or https URL")
		}
		user.ProfilePic = pic
	}

	if err := s.users.UpdateProfile(ctx, user.ID, user.Username, user.ProfilePic); err != nil {
		return nil, err
	}
	// Moderation may have changed the row since it was read.
	return s.users.GetByID(ctx, user.ID)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
