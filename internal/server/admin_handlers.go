package server

import (
	"strconv"

	"civicboard/internal/models"
	"civicboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetAllUsers handles GET /api/admin/users
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	users, err := s.moderation.ListUsers(c.UserContext(), currentUser(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondOK(c, fiber.StatusOK, fiber.Map{"users": users})
}

// ChangeUserRole handles POST /api/admin/users/:id with body {"role": "admin"|"user"}.
func (s *Server) ChangeUserRole(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Role string `json:"role"`
	}
	// A missing target is reported before an invalid role.
	_ = c.BodyParser(&req)

	user, err := s.moderation.ChangeRole(c.UserContext(), service.ChangeRoleInput{
		Actor:  currentUser(c),
		UserID: userID,
		Role:   models.Role(req.Role),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusOK, fiber.Map{
		"message": "Role updated",
		"user":    user,
	})
}

// ToggleBan handles POST /api/admin/users/ban/:id with optional body {"reason": "..."}.
func (s *Server) ToggleBan(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&req)

	res, err := s.moderation.BanToggle(c.UserContext(), service.BanToggleInput{
		Actor:  currentUser(c),
		UserID: userID,
		Reason: req.Reason,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusOK, fiber.Map{
		"action": res.Action,
		"user":   res.User,
	})
}

// GetBans handles GET /api/admin/bans?user_id=
func (s *Server) GetBans(c *fiber.Ctx) error {
	var userID *uint
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid user ID"))
		}
		uid := uint(id)
		userID = &uid
	}

	bans, err := s.moderation.ListBans(c.UserContext(), currentUser(c), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return respondOK(c, fiber.StatusOK, fiber.Map{"bans": bans})
}
