package service

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"civicboard/internal/imagestore"
	"civicboard/internal/models"
	"civicboard/internal/observability"
	"civicboard/internal/policy"
	"civicboard/internal/repository"
	"civicboard/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	minTitleLen     = 5
	maxTitleLen     = 50
	maxCategoryLen  = 64
	defaultRadiusKm = 5.0
	maxRadiusKm     = 100.0
)

// PostService manages the lifecycle of reported issues.
type PostService struct {
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	upvoteRepo     repository.UpvoteRepository
	uploader       imagestore.Uploader
	maxUploadBytes int64
}

type CreatePostInput struct {
	Owner    *models.User
	Title    string
	Content  string
	Category string
	// Latitude and Longitude are raw form values; a point is stored only
	// when both parse as valid coordinates.
	Latitude  string
	Longitude string
	Image     []byte
}

type ListPostsInput struct {
	Category string
	Resolved *bool
}

type NearbyInput struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	upvoteRepo repository.UpvoteRepository,
	uploader imagestore.Uploader,
	maxUploadBytes int64,
) *PostService {
	return &PostService{
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		upvoteRepo:     upvoteRepo,
		uploader:       uploader,
		maxUploadBytes: maxUploadBytes,
	}
}

// CreatePost validates the input, uploads the image if one is attached and
// only then persists the post. A failed upload leaves nothing behind.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	if in.Owner == nil {
		return nil, models.NewUnauthorizedError("Authorization required")
	}

	ctx, span := observability.StartSpan(ctx, "post.create",
		attribute.Bool("post.has_image", len(in.Image) > 0),
	)
	defer func() { observability.EndSpan(span, err) }()

	title := validation.SanitizeText(in.Title)
	content := validation.SanitizeText(in.Content)
	if n := utf8.RuneCountInString(title); n < minTitleLen || n > maxTitleLen {
		return nil, models.NewValidationError("Title must be between 5 and 50 characters")
	}
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}

	category := strings.ToLower(validation.SanitizeText(in.Category))
	if category == "" {
		category = models.DefaultCategory
	}
	if utf8.RuneCountInString(category) > maxCategoryLen {
		return nil, models.NewValidationError("Category must not exceed 64 characters")
	}

	post = &models.Post{
		Title:    title,
		Content:  content,
		Category: category,
		UserID:   in.Owner.ID,
	}
	if lng, lat, ok := parseCoordinates(in.Longitude, in.Latitude); ok {
		post.SetLocation(lng, lat)
	}

	if len(in.Image) > 0 {
		img, err := imagestore.Inspect(in.Image, s.maxUploadBytes)
		if err != nil {
			return nil, err
		}
		if s.uploader == nil {
			return nil, models.NewUploadError(nil)
		}
		url, err := s.uploader.Upload(ctx, img)
		if err != nil {
			if models.IsCode(err, models.CodeUpload) {
				return nil, err
			}
			return nil, models.NewUploadError(err)
		}
		post.Image = &url
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	post.Owner = *in.Owner
	span.SetAttributes(attribute.Int64("post.id", int64(post.ID)))
	return post, nil
}

// parseCoordinates returns a point only when both values are present,
// numeric and in range.
func parseCoordinates(rawLng, rawLat string) (float64, float64, bool) {
	rawLng, rawLat = strings.TrimSpace(rawLng), strings.TrimSpace(rawLat)
	if rawLng == "" || rawLat == "" {
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(rawLng, 64)
	if err != nil {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return 0, 0, false
	}
	if !models.ValidCoordinates(lng, lat) {
		return 0, 0, false
	}
	return lng, lat, true
}

// ListPosts returns live posts newest first with engagement counts.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	filter := repository.PostFilter{Resolved: in.Resolved}
	if category := strings.ToLower(strings.TrimSpace(in.Category)); category != "" {
		filter.Category = &category
	}

	posts, err := s.postRepo.ListLive(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := annotateCounts(ctx, s.commentRepo, s.upvoteRepo, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListPostsByUser returns one owner's live posts with engagement counts.
func (s *PostService) ListPostsByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	posts, err := s.postRepo.ListLive(ctx, repository.PostFilter{UserID: &userID})
	if err != nil {
		return nil, err
	}
	if err := annotateCounts(ctx, s.commentRepo, s.upvoteRepo, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost returns a live post with its comments, upvotes and counts.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.PostDetail, error) {
	post, err := s.postRepo.GetLive(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	upvotes, err := s.upvoteRepo.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}

	post.ApplyCounts(models.EngagementCounts{
		CommentCount: int64(len(comments)),
		UpvoteCount:  int64(len(upvotes)),
	})
	return &models.PostDetail{Post: post, Comments: comments, Upvotes: upvotes}, nil
}

// DeletePost soft-deletes a post. Its comments and upvotes stay stored.
func (s *PostService) DeletePost(ctx context.Context, id uint, actor *models.User) error {
	post, err := s.authorizePostMutation(ctx, id, actor)
	if err != nil {
		return err
	}
	return s.postRepo.SoftDelete(ctx, post.ID)
}

// ToggleResolved flips the resolved flag of a live post.
func (s *PostService) ToggleResolved(ctx context.Context, id uint, actor *models.User) (*models.Post, error) {
	post, err := s.authorizePostMutation(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.postRepo.SetResolved(ctx, post.ID, !post.Resolved); err != nil {
		return nil, err
	}
	post.Resolved = !post.Resolved

	counts, err := aggregateCounts(ctx, s.commentRepo, s.upvoteRepo, []uint{post.ID})
	if err != nil {
		return nil, err
	}
	post.ApplyCounts(counts[post.ID])
	return post, nil
}

func (s *PostService) authorizePostMutation(ctx context.Context, id uint, actor *models.User) (*models.Post, error) {
	if actor == nil {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	post, err := s.postRepo.GetLive(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.IsOwnerOrAdmin(actor, post.UserID) {
		return nil, models.NewForbiddenError("You can only modify your own posts")
	}
	return post, nil
}

// NearbyPosts returns live located posts within the radius, nearest first.
func (s *PostService) NearbyPosts(ctx context.Context, in NearbyInput) ([]*models.Post, error) {
	if !models.ValidCoordinates(in.Longitude, in.Latitude) {
		return nil, models.NewValidationError("Invalid coordinates")
	}
	radius := in.RadiusKm
	if radius == 0 {
		radius = defaultRadiusKm
	}
	if radius < 0 || radius > maxRadiusKm || math.IsNaN(radius) {
		return nil, models.NewValidationError("Radius must be between 0 and 100 km")
	}

	minLat, maxLat, minLng, maxLng := models.BoundingBox(in.Latitude, in.Longitude, radius)
	candidates, err := s.postRepo.ListLiveWithin(ctx, repository.BoundingBox{
		MinLat: minLat, MaxLat: maxLat,
		MinLng: minLng, MaxLng: maxLng,
	})
	if err != nil {
		return nil, err
	}

	posts := make([]*models.Post, 0, len(candidates))
	for _, p := range candidates {
		if p.Location == nil {
			continue
		}
		d := models.HaversineKm(in.Latitude, in.Longitude, p.Location.Lat(), p.Location.Lng())
		if d > radius {
			continue
		}
		p.DistanceKm = &d
		posts = append(posts, p)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return *posts[i].DistanceKm < *posts[j].DistanceKm
	})

	if err := annotateCounts(ctx, s.commentRepo, s.upvoteRepo, posts); err != nil {
		return nil, err
	}
	return posts, nil
}
