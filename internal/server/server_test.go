package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"civicboard/internal/auth"
	"civicboard/internal/config"
	"civicboard/internal/imagestore"
	"civicboard/internal/models"
	"civicboard/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUploader struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeUploader) Upload(_ context.Context, img *imagestore.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", models.NewUploadError(f.err)
	}
	return "https://cdn.example.com/posts/test." + img.Ext, nil
}

type testEnv struct {
	db       *gorm.DB
	app      *fiber.App
	redis    *miniredis.Miniredis
	uploader *fakeUploader
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		JWTSecret:            "handler-test-secret-0123456789abcdef",
		Env:                  "test",
		ImageMaxUploadSizeMB: 1,
	}
	uploader := &fakeUploader{}
	s, err := NewServerWithDeps(cfg, db, client, uploader)
	require.NoError(t, err)

	return &testEnv{db: db, app: s.App(), redis: mr, uploader: uploader}
}

type apiResponse struct {
	status  int
	body    map[string]any
	cookies []*http.Cookie
}

func (e *testEnv) do(t *testing.T, req *http.Request, token string) apiResponse {
	t.Helper()
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := apiResponse{status: resp.StatusCode, cookies: resp.Cookies()}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out.body), "body: %s", raw)
	}
	return out
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body any, token string) apiResponse {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.do(t, req, token)
}

func (e *testEnv) createPost(t *testing.T, token string, fields map[string]string, img []byte) apiResponse {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if img != nil {
		part, err := w.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(img)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/post/create", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.do(t, req, token)
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	res := e.doJSON(t, http.MethodPost, "/api/auth/login", fiber.Map{
		"email":    email,
		"password": testutil.Password,
	}, "")
	require.Equal(t, http.StatusOK, res.status, "login body: %v", res.body)
	token, _ := res.body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func postIDOf(t *testing.T, res apiResponse) uint {
	t.Helper()
	post, ok := res.body["post"].(map[string]any)
	require.True(t, ok, "missing post in %v", res.body)
	return uint(post["id"].(float64))
}

func assertErrorBody(t *testing.T, res apiResponse, status int, code string) {
	t.Helper()
	assert.Equal(t, status, res.status, "body: %v", res.body)
	assert.Equal(t, false, res.body["success"])
	assert.Equal(t, code, res.body["code"])
	assert.NotEmpty(t, res.body["message"])
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var errStorageDown = errors.New("storage unavailable")

func postPath(id uint, suffix string) string {
	return fmt.Sprintf("/api/post/%d%s", id, suffix)
}

func uintPath(id uint) string {
	return fmt.Sprintf("%d", id)
}

func newBearerRequest(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return req
}
