package service

import (
	"context"
	"log/slog"
	"strings"

	"civicboard/internal/middleware"
	"civicboard/internal/models"
	"civicboard/internal/observability"
	"civicboard/internal/policy"
	"civicboard/internal/repository"
)

// ModerationService exposes the admin-only account operations.
type ModerationService struct {
	users repository.UserRepository
	bans  repository.BanRepository
}

type ChangeRoleInput struct {
	Actor  *models.User
	UserID uint
	Role   models.Role
}

type BanToggleInput struct {
	Actor  *models.User
	UserID uint
	Reason string
}

// BanResult reports what a ban toggle did and the target's new state.
type BanResult struct {
	Action models.BanAction `json:"action"`
	User   *models.User     `json:"user"`
}

func NewModerationService(users repository.UserRepository, bans repository.BanRepository) *ModerationService {
	return &ModerationService{users: users, bans: bans}
}

func requireAdmin(actor *models.User) error {
	if actor == nil {
		return models.NewUnauthorizedError("Authorization required")
	}
	if !policy.IsAdmin(actor) {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}

// ListUsers returns every account, banned ones included, ordered by id.
func (s *ModerationService) ListUsers(ctx context.Context, actor *models.User) ([]models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

func (s *ModerationService) ChangeRole(ctx context.Context, in ChangeRoleInput) (*models.User, error) {
	if err := requireAdmin(in.Actor); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, models.NewNotFoundError("User", in.UserID)
	}

	role := models.Role(strings.ToLower(strings.TrimSpace(string(in.Role))))
	if !models.ValidRoleAssignment(role) {
		return nil, models.NewValidationError("Role must be admin or user")
	}

	if err := s.users.UpdateRole(ctx, user.ID, role); err != nil {
		return nil, err
	}
	user.Role = role

	middleware.Logger.InfoContext(ctx, "user role changed",
		slog.Uint64("target_user_id", uint64(user.ID)),
		slog.String("role", string(role)),
	)
	return user, nil
}

// BanToggle bans an active user or reinstates a banned one. Admins cannot
// be banned.
func (s *ModerationService) BanToggle(ctx context.Context, in BanToggleInput) (*BanResult, error) {
	if err := requireAdmin(in.Actor); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if policy.IsAdmin(user) {
		return nil, models.NewForbiddenError("Admins cannot be banned")
	}

	var action models.BanAction
	if user.IsActive {
		reason := strings.TrimSpace(in.Reason)
		if reason == "" {
			reason = models.DefaultBanReason
		}
		if err := s.bans.Ban(ctx, &models.BanRecord{
			UserID:   user.ID,
			Reason:   reason,
			BannedBy: in.Actor.ID,
		}); err != nil {
			return nil, err
		}
		user.IsActive = false
		action = models.BanActionBanned
	} else {
		if err := s.bans.Unban(ctx, user.ID); err != nil {
			return nil, err
		}
		user.IsActive = true
		action = models.BanActionUnbanned
	}

	observability.BanActions.WithLabelValues(string(action)).Inc()
	middleware.Logger.InfoContext(ctx, "ban toggled",
		slog.Uint64("target_user_id", uint64(user.ID)),
		slog.String("action", string(action)),
	)
	return &BanResult{Action: action, User: user}, nil
}

// ListBans returns the ban ledger newest first, optionally for one user.
func (s *ModerationService) ListBans(ctx context.Context, actor *models.User, userID *uint) ([]*models.BanRecord, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.bans.List(ctx, userID)
}
