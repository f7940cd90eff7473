package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"civicboard/internal/imagestore"
	"civicboard/internal/models"
	"civicboard/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	svc := NewPostService(noopPostRepo(), noopCommentRepo(), noopUpvoteRepo(), nil, 1<<20)
	ctx := context.Background()
	owner := &models.User{ID: 1}

	t.Run("title too short", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreatePost(ctx, CreatePostInput{Owner: owner, Title: "abcd", Content: "body"})
		assertValidationError(t, err)
	})

	t.Run("title too long", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreatePost(ctx, CreatePostInput{Owner: owner, Title: strings.Repeat("t", 51), Content: "body"})
		assertValidationError(t, err)
	})

	t.Run("title is measured after trimming", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreatePost(ctx, CreatePostInput{Owner: owner, Title: "   abcd   ", Content: "body"})
		assertValidationError(t, err)
	})

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreatePost(ctx, CreatePostInput{Owner: owner, Title: "Broken lamp", Content: "   "})
		assertValidationError(t, err)
	})

	t.Run("markup only content", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreatePost(ctx, CreatePostInput{Owner: owner, Title: "Broken lamp", Content: "<script></script>"})
		assertValidationError(t, err)
	})

	t.Run("missing owner", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreatePost(ctx, CreatePostInput{Title: "Broken lamp", Content: "body"})
		assertUnauthorizedError(t, err)
	})
}

func TestPostService_CreatePost_Defaults(t *testing.T) {
	t.Parallel()

	var stored *models.Post
	postRepo := noopPostRepo()
	postRepo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 7
		stored = p
		return nil
	}
	svc := NewPostService(postRepo, noopCommentRepo(), noopUpvoteRepo(), nil, 1<<20)

	owner := &models.User{ID: 3, Username: "reporter"}
	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		Owner:   owner,
		Title:   "  Pothole on <b>Main</b>  ",
		Content: "Deep one near the school",
	})
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, uint(7), post.ID)
	assert.Equal(t, "Pothole on Main", post.Title)
	assert.Equal(t, models.DefaultCategory, post.Category)
	assert.Equal(t, uint(3), post.UserID)
	assert.Equal(t, "reporter", post.Owner.Username)
	assert.Nil(t, post.Location)
	assert.Nil(t, post.Image)
}

func TestPostService_CreatePost_Location(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		lat, lng string
		want     bool
	}{
		{name: "both valid", lat: "48.85", lng: "2.35", want: true},
		{name: "latitude missing", lat: "", lng: "2.35"},
		{name: "longitude not numeric", lat: "48.85", lng: "east"},
		{name: "latitude out of range", lat: "91", lng: "2.35"},
		{name: "longitude out of range", lat: "10", lng: "-181"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewPostService(noopPostRepo(), noopCommentRepo(), noopUpvoteRepo(), nil, 1<<20)
			post, err := svc.CreatePost(context.Background(), CreatePostInput{
				Owner:     &models.User{ID: 1},
				Title:     "Graffiti wall",
				Content:   "Fresh tags",
				Latitude:  tt.lat,
				Longitude: tt.lng,
			})
			require.NoError(t, err)
			if !tt.want {
				assert.Nil(t, post.Location)
				assert.Nil(t, post.Latitude)
				return
			}
			require.NotNil(t, post.Location)
			assert.Equal(t, "Point", post.Location.Type)
			assert.InDelta(t, 2.35, post.Location.Lng(), 1e-9)
			assert.InDelta(t, 48.85, post.Location.Lat(), 1e-9)
		})
	}
}

func TestPostService_CreatePost_Image(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	owner := &models.User{ID: 1}

	t.Run("uploads before persisting", func(t *testing.T) {
		t.Parallel()
		uploader := &uploaderStub{uploadFn: func(_ context.Context, img *imagestore.Image) (string, error) {
			assert.Equal(t, "image/png", img.ContentType)
			return "https://cdn.example.com/posts/a.png", nil
		}}
		postRepo := noopPostRepo()
		postRepo.createFn = func(_ context.Context, p *models.Post) error {
			require.NotNil(t, p.Image)
			assert.Equal(t, 1, uploader.calls)
			return nil
		}
		svc := NewPostService(postRepo, noopCommentRepo(), noopUpvoteRepo(), uploader, 1<<20)

		post, err := svc.CreatePost(ctx, CreatePostInput{Owner: owner, Title: "Broken bench", Content: "Seat split", Image: pngBytes(t)})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/posts/a.png", *post.Image)
	})

	t.Run("upload failure persists nothing", func(t *testing.T) {
		t.Parallel()
		uploader := &uploaderStub{uploadFn: func(context.Context, *imagestore.Image) (string, error) {
			return "", errors.New("connection reset")
		}}
		postRepo := noopPostRepo()
		postRepo.createFn = func(context.Context, *models.Post) error {
			t.Fatal("post must not be persisted after a failed upload")
			return nil
		}
		svc := NewPostService(postRepo, noopCommentRepo(), noopUpvoteRepo(), uploader, 1<<20)

		_, err := svc.CreatePost(ctx, CreatePostInput{Owner: owner, Title: "Broken bench", Content: "Seat split", Image: pngBytes(t)})
		assertAppErrorCode(t, err, models.CodeUpload)
	})

	t.Run("invalid image is rejected without uploading", func(t *testing.T) {
		t.Parallel()
		uploader := &uploaderStub{uploadFn: func(context.Context, *imagestore.Image) (string, error) {
			return "unused", nil
		}}
		svc := NewPostService(noopPostRepo(), noopCommentRepo(), noopUpvoteRepo(), uploader, 1<<20)

		_, err := svc.CreatePost(ctx, CreatePostInput{Owner: owner, Title: "Broken bench", Content: "Seat split", Image: []byte("not an image")})
		assertValidationError(t, err)
		assert.Zero(t, uploader.calls)
	})
}

func TestPostService_ListPosts_AnnotatesCounts(t *testing.T) {
	t.Parallel()

	postRepo := noopPostRepo()
	postRepo.listLiveFn = func(_ context.Context, f repository.PostFilter) ([]*models.Post, error) {
		require.NotNil(t, f.Category)
		assert.Equal(t, "roads", *f.Category)
		return []*models.Post{{ID: 1}, {ID: 2}}, nil
	}

	commentCalls, upvoteCalls := 0, 0
	commentRepo := noopCommentRepo()
	commentRepo.countByPostsFn = func(_ context.Context, ids []uint) (map[uint]int64, error) {
		commentCalls++
		assert.ElementsMatch(t, []uint{1, 2}, ids)
		return map[uint]int64{1: 4}, nil
	}
	upvoteRepo := noopUpvoteRepo()
	upvoteRepo.countByPostsFn = func(context.Context, []uint) (map[uint]int64, error) {
		upvoteCalls++
		return map[uint]int64{2: 9}, nil
	}

	svc := NewPostService(postRepo, commentRepo, upvoteRepo, nil, 0)
	posts, err := svc.ListPosts(context.Background(), ListPostsInput{Category: " Roads "})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, 1, commentCalls)
	assert.Equal(t, 1, upvoteCalls)
	assert.Equal(t, int64(4), posts[0].CommentCount)
	assert.Equal(t, int64(0), posts[0].UpvoteCount)
	assert.Equal(t, int64(0), posts[1].CommentCount)
	assert.Equal(t, int64(9), posts[1].UpvoteCount)
}

func TestPostService_DeletePost_ErrorPrecedence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	postRepo := noopPostRepo()
	postRepo.getLiveFn = func(_ context.Context, id uint) (*models.Post, error) {
		if id == 404 {
			return nil, models.NewNotFoundError("Post", id)
		}
		return &models.Post{ID: id, UserID: 10}, nil
	}
	deleted := 0
	postRepo.softDeleteFn = func(context.Context, uint) error {
		deleted++
		return nil
	}
	svc := NewPostService(postRepo, noopCommentRepo(), noopUpvoteRepo(), nil, 0)

	assertUnauthorizedError(t, svc.DeletePost(ctx, 404, nil))
	assertNotFoundError(t, svc.DeletePost(ctx, 404, &models.User{ID: 11}))
	assertForbiddenError(t, svc.DeletePost(ctx, 1, &models.User{ID: 11, Role: models.RoleUser}))
	assert.Zero(t, deleted)

	require.NoError(t, svc.DeletePost(ctx, 1, &models.User{ID: 10}))
	require.NoError(t, svc.DeletePost(ctx, 1, &models.User{ID: 99, Role: models.RoleAdmin}))
	assert.Equal(t, 2, deleted)
}

func TestPostService_ToggleResolved(t *testing.T) {
	t.Parallel()

	postRepo := noopPostRepo()
	postRepo.getLiveFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 5, Resolved: false}, nil
	}
	var got *bool
	postRepo.setResolvedFn = func(_ context.Context, _ uint, resolved bool) error {
		got = &resolved
		return nil
	}
	svc := NewPostService(postRepo, noopCommentRepo(), noopUpvoteRepo(), nil, 0)

	post, err := svc.ToggleResolved(context.Background(), 3, &models.User{ID: 5})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, *got)
	assert.True(t, post.Resolved)

	_, err = svc.ToggleResolved(context.Background(), 3, &models.User{ID: 6})
	assertForbiddenError(t, err)
}

func TestPostService_NearbyPosts(t *testing.T) {
	t.Parallel()

	near := &models.Post{ID: 1}
	near.SetLocation(2.3530, 48.8570)
	nearer := &models.Post{ID: 2}
	nearer.SetLocation(2.3523, 48.8567)
	far := &models.Post{ID: 3}
	far.SetLocation(2.60, 48.95)

	postRepo := noopPostRepo()
	postRepo.listLiveWithinFn = func(_ context.Context, box repository.BoundingBox) ([]*models.Post, error) {
		assert.Less(t, box.MinLat, 48.8566)
		assert.Greater(t, box.MaxLat, 48.8566)
		return []*models.Post{near, far, nearer, {ID: 4}}, nil
	}
	svc := NewPostService(postRepo, noopCommentRepo(), noopUpvoteRepo(), nil, 0)

	posts, err := svc.NearbyPosts(context.Background(), NearbyInput{Latitude: 48.8566, Longitude: 2.3522, RadiusKm: 1})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, uint(2), posts[0].ID)
	assert.Equal(t, uint(1), posts[1].ID)
	require.NotNil(t, posts[0].DistanceKm)
	assert.Less(t, *posts[0].DistanceKm, *posts[1].DistanceKm)

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()
		_, err := svc.NearbyPosts(context.Background(), NearbyInput{Latitude: 95, Longitude: 0})
		assertValidationError(t, err)
		_, err = svc.NearbyPosts(context.Background(), NearbyInput{Latitude: 0, Longitude: 0, RadiusKm: 500})
		assertValidationError(t, err)
		_, err = svc.NearbyPosts(context.Background(), NearbyInput{Latitude: 0, Longitude: 0, RadiusKm: -1})
		assertValidationError(t, err)
	})
}
