package server

import (
	"civicboard/internal/models"
	"civicboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/post/:id/comment
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	// An unparsable body leaves Content empty; the service then reports a
	// missing post before the validation failure.
	_ = c.BodyParser(&req)

	comment, err := s.engagement.AddComment(c.UserContext(), service.AddCommentInput{
		PostID:  postID,
		Author:  currentUser(c),
		Content: req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusCreated, fiber.Map{"comment": comment})
}

// GetComments handles GET /api/post/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.engagement.ListComments(c.UserContext(), postID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusOK, fiber.Map{"comments": comments})
}

// DeleteComment handles DELETE /api/post/:id/comment/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.engagement.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		PostID:    postID,
		CommentID: commentID,
		Actor:     currentUser(c),
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusOK, fiber.Map{"message": "Comment deleted"})
}

// ToggleUpvote handles POST /api/post/:id/upvote
func (s *Server) ToggleUpvote(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	res, err := s.engagement.ToggleUpvote(c.UserContext(), postID, currentUser(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return respondOK(c, fiber.StatusOK, fiber.Map{
		"action":       res.Action,
		"upvoted":      res.Upvoted,
		"upvote_count": res.UpvoteCount,
	})
}
