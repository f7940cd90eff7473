package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"civicboard/internal/auth"
	"civicboard/internal/middleware"
	"civicboard/internal/models"
	"civicboard/internal/repository"
	"civicboard/internal/session"
	"civicboard/internal/validation"
)

const invalidCredentials = "Invalid credentials"

// AuthService registers users and manages their sessions.
type AuthService struct {
	users       repository.UserRepository
	tokens      *auth.TokenManager
	revocations *session.RevocationStore
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the signed session token for the authenticated user.
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenManager,
	revocations *session.RevocationStore,
) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	creds := validation.Credentials{
		Username: strings.TrimSpace(in.Username),
		Email:    validation.NormalizeEmail(in.Email),
		Password: in.Password,
	}
	if err := validation.Struct(creds); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, creds.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email is already registered")
	}
	taken, err := s.users.GetByUsername(ctx, creds.Username)
	if err != nil {
		return nil, err
	}
	if taken != nil {
		return nil, models.NewConflictError("Username is already taken")
	}

	hashed, err := auth.HashPassword(creds.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:   creds.Username,
		Email:      creds.Email,
		Password:   hashed,
		Role:       models.RoleUser,
		IsActive:   true,
		ProfilePic: models.DefaultProfilePic,
	}
	// The unique indexes still decide concurrent registrations.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered", slog.Uint64("new_user_id", uint64(user.ID)))
	return user, nil
}

// Login verifies credentials and issues a session token. Unknown emails and
// wrong passwords yield the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := validation.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.Password, in.Password) {
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}

	token, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &LoginResult{User: user, Token: token, ExpiresAt: claims.ExpiresAt}, nil
}

// Authenticate resolves a token to its live, active user. The account is
// re-read on every call so bans take effect on the next request.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, models.NewUnauthorizedError("Authorization required")
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.JTI)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "token revocation lookup failed", slog.String("error", err.Error()))
	}
	if revoked {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("User no longer exists")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, models.NewUnauthorizedError("Account is banned")
	}

	return user, nil
}

// Logout revokes token when it is still valid. It never fails for a bad or
// missing token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		middleware.Logger.WarnContext(ctx, "token revocation failed", slog.String("error", err.Error()))
	}
	return nil
}
