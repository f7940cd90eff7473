package service

import (
	"context"

	"civicboard/internal/models"
	"civicboard/internal/observability"
	"civicboard/internal/policy"
	"civicboard/internal/repository"
	"civicboard/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const maxCommentLen = 10000

// EngagementService handles comments and upvotes on live posts.
type EngagementService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	upvoteRepo  repository.UpvoteRepository
}

type AddCommentInput struct {
	PostID  uint
	Author  *models.User
	Content string
}

type DeleteCommentInput struct {
	PostID    uint
	CommentID uint
	Actor     *models.User
}

// UpvoteResult describes the state after a toggle.
type UpvoteResult struct {
	Action      models.UpvoteAction `json:"action"`
	Upvoted     bool                `json:"upvoted"`
	UpvoteCount int64               `json:"upvote_count"`
}

func NewEngagementService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	upvoteRepo repository.UpvoteRepository,
) *EngagementService {
	return &EngagementService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		upvoteRepo:  upvoteRepo,
	}
}

func (s *EngagementService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if in.Author == nil {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	if _, err := s.postRepo.GetLive(ctx, in.PostID); err != nil {
		return nil, err
	}

	content := validation.SanitizeText(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment := &models.Comment{
		PostID:  in.PostID,
		UserID:  in.Author.ID,
		Content: content,
	}
	if err := s.commentRepo.CreateOnLivePost(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = *in.Author
	return comment, nil
}

// ListComments returns the post's live comments in creation order.
func (s *EngagementService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetLive(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID)
}

func (s *EngagementService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	if in.Actor == nil {
		return models.NewUnauthorizedError("Authorization required")
	}
	if _, err := s.postRepo.GetLive(ctx, in.PostID); err != nil {
		return err
	}

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if comment.PostID != in.PostID {
		return models.NewNotFoundError("Comment", in.CommentID)
	}
	if !policy.IsOwnerOrAdmin(in.Actor, comment.UserID) {
		return models.NewForbiddenError("You can only delete your own comments")
	}

	return s.commentRepo.SoftDelete(ctx, comment.ID)
}

// ToggleUpvote flips the actor's upvote on a live post.
func (s *EngagementService) ToggleUpvote(ctx context.Context, postID uint, actor *models.User) (result *UpvoteResult, err error) {
	if actor == nil {
		return nil, models.NewUnauthorizedError("Authorization required")
	}

	ctx, span := observability.StartSpan(ctx, "engagement.toggle_upvote",
		attribute.Int64("post.id", int64(postID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	action, err := s.upvoteRepo.Toggle(ctx, postID, actor.ID)
	if err != nil {
		return nil, err
	}
	observability.UpvoteToggles.WithLabelValues(string(action)).Inc()
	span.SetAttributes(attribute.String("upvote.action", string(action)))

	counts, err := s.upvoteRepo.CountByPosts(ctx, []uint{postID})
	if err != nil {
		return nil, err
	}

	return &UpvoteResult{
		Action:      action,
		Upvoted:     action.Upvoted(),
		UpvoteCount: counts[postID],
	}, nil
}

// AggregateCounts returns live comment and upvote totals for each post ID.
// It issues one grouped query per entity type regardless of len(postIDs).
func (s *EngagementService) AggregateCounts(ctx context.Context, postIDs []uint) (map[uint]models.EngagementCounts, error) {
	return aggregateCounts(ctx, s.commentRepo, s.upvoteRepo, postIDs)
}

func aggregateCounts(
	ctx context.Context,
	commentRepo repository.CommentRepository,
	upvoteRepo repository.UpvoteRepository,
	postIDs []uint,
) (map[uint]models.EngagementCounts, error) {
	result := make(map[uint]models.EngagementCounts, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	comments, err := commentRepo.CountByPosts(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	upvotes, err := upvoteRepo.CountByPosts(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range postIDs {
		result[id] = models.EngagementCounts{
			CommentCount: comments[id],
			UpvoteCount:  upvotes[id],
		}
	}
	return result, nil
}

func annotateCounts(
	ctx context.Context,
	commentRepo repository.CommentRepository,
	upvoteRepo repository.UpvoteRepository,
	posts []*models.Post,
) error {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	counts, err := aggregateCounts(ctx, commentRepo, upvoteRepo, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.ApplyCounts(counts[p.ID])
	}
	return nil
}
