package server

import (
	"time"

	"civicboard/internal/auth"
	"civicboard/internal/models"
	"civicboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusCreated, fiber.Map{
		"message": "Registration successful",
		"user":    user,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	res, err := s.authService.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	c.Cookie(s.sessionCookie(res.Token, res.ExpiresAt))

	return respondOK(c, fiber.StatusOK, fiber.Map{
		"message": "Login successful",
		"token":   res.Token,
		"user":    res.User,
	})
}

// Logout handles POST /api/auth/logout. It always succeeds.
func (s *Server) Logout(c *fiber.Ctx) error {
	_ = s.authService.Logout(c.UserContext(), sessionToken(c))
	c.Cookie(s.sessionCookie("", time.Unix(0, 0)))

	return respondOK(c, fiber.StatusOK, fiber.Map{
		"message": "Logged out",
	})
}

// GetSession handles GET /api/auth
func (s *Server) GetSession(c *fiber.Ctx) error {
	return respondOK(c, fiber.StatusOK, fiber.Map{
		"user": currentUser(c),
	})
}

func (s *Server) sessionCookie(value string, expires time.Time) *fiber.Cookie {
	maxAge := int(auth.SessionTTL / time.Second)
	if value == "" {
		maxAge = -1
	}
	return &fiber.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}
