package server

import (
	"civicboard/internal/models"
	"civicboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/profile
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	return respondOK(c, fiber.StatusOK, fiber.Map{"user": currentUser(c)})
}

// GetUserProfile handles GET /api/profile/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.userService.GetProfile(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusOK, fiber.Map{
		"user":  profile.User,
		"posts": profile.Posts,
	})
}

// UpdateMyProfile handles PATCH /api/profile/update
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Username   *string `json:"username"`
		ProfilePic *string `json:"profile_pic"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		Actor:      currentUser(c),
		Username:   req.Username,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusOK, fiber.Map{
		"message": "Profile updated",
		"user":    user,
	})
}
