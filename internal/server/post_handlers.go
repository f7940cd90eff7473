package server

import (
	"io"
	"strconv"
	"strings"

	"civicboard/internal/models"
	"civicboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/post/create (multipart/form-data).
// Fields: title, content, category, latitude, longitude and an optional
// "image" file.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	in := service.CreatePostInput{
		Owner:     currentUser(c),
		Title:     c.FormValue("title"),
		Content:   c.FormValue("content"),
		Category:  c.FormValue("category"),
		Latitude:  c.FormValue("latitude"),
		Longitude: c.FormValue("longitude"),
	}

	if file, err := c.FormFile("image"); err == nil {
		src, err := file.Open()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unable to read uploaded file"))
		}
		defer func() { _ = src.Close() }()

		content, err := io.ReadAll(src)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unable to read uploaded file"))
		}
		in.Image = content
	}

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusCreated, fiber.Map{
		"message": "Post created",
		"post":    post,
	})
}

// GetPosts handles GET /api/post?category=&resolved=
func (s *Server) GetPosts(c *fiber.Ctx) error {
	in := service.ListPostsInput{Category: c.Query("category")}

	if raw := strings.TrimSpace(c.Query("resolved")); raw != "" {
		resolved, err := strconv.ParseBool(raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("resolved must be true or false"))
		}
		in.Resolved = &resolved
	}

	posts, err := s.postService.ListPosts(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusOK, fiber.Map{"posts": posts})
}

// GetNearbyPosts handles GET /api/post/nearby?lat=&lng=&radius=
func (s *Server) GetNearbyPosts(c *fiber.Ctx) error {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("lat and lng are required numbers"))
	}

	var radius float64
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("radius must be a number"))
		}
		radius = r
	}

	posts, err := s.postService.NearbyPosts(c.UserContext(), service.NearbyInput{
		Latitude:  lat,
		Longitude: lng,
		RadiusKm:  radius,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusOK, fiber.Map{"posts": posts})
}

// GetPost handles GET /api/post/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusOK, fiber.Map{"post": detail})
}

// DeletePost handles DELETE /api/post/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), id, currentUser(c)); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusOK, fiber.Map{"message": "Post deleted"})
}

// ToggleResolved handles PATCH /api/post/:id/resolve
func (s *Server) ToggleResolved(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.ToggleResolved(c.UserContext(), id, currentUser(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusOK, fiber.Map{"post": post})
}
