package server

import (
	"errors"
	"strings"
	"unicode"

	"civicboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// currentUser returns the user stored by AuthRequired, or nil.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// respondOK writes a success body merging payload into {"success": true}.
func respondOK(c *fiber.Ctx, status int, payload fiber.Map) error {
	body := fiber.Map{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// translateFiberError maps framework errors (unknown route, oversized body)
// to the application error shape.
func translateFiberError(fe *fiber.Error) *models.AppError {
	switch {
	case fe.Code == fiber.StatusNotFound:
		return &models.AppError{Code: models.CodeNotFound, Message: fe.Message}
	case fe.Code == fiber.StatusUnauthorized:
		return models.NewUnauthorizedError(fe.Message)
	case fe.Code == fiber.StatusForbidden:
		return models.NewForbiddenError(fe.Message)
	case fe.Code >= 400 && fe.Code < 500:
		return models.NewValidationError(fe.Message)
	default:
		return models.NewInternalError(fe)
	}
}
