package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillpost/internal/auth"
	"github.com/quillpost/internal/db"
	"github.com/quillpost/internal/handler"
	"github.com/quillpost/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "admin12345"
)

type testServer struct {
	router    *gin.Engine
	db        *gorm.DB
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(dsn, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	require.NoError(t, db.EnsureAdmin(gdb, testAdminEmail, testAdminPassword))

	uploadDir := t.TempDir()
	api := handler.NewAPI(gdb, handler.Options{
		Tokens:    auth.NewManager("router-test-secret", time.Hour),
		Notifier:  service.LogNotifier{},
		UploadDir: uploadDir,
		UploadURL: "/static/uploads",
	})
	r := SetupRouter(api, Options{
		SessionSecret: "router-test-secret",
		UploadDir:     uploadDir,
		UploadURLPath: "/static/uploads",
	})
	return &testServer{router: r, db: gdb, uploadDir: uploadDir}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), rr.Body.String())
}

type authBody struct {
	Token string `json:"token"`
	User  struct {
		ID   uint   `json:"ID"`
		Role string `json:"role"`
	} `json:"user"`
}

type postBody struct {
	Post struct {
		ID              uint   `json:"id"`
		Slug            string `json:"slug"`
		Status          string `json:"status"`
		Views           uint64 `json:"views"`
		Likes           int64  `json:"likesCount"`
		HTML            string `json:"html"`
		UniqueVisitors  uint64 `json:"uniqueVisitors"`
		RejectionReason string `json:"rejectionReason"`
	} `json:"post"`
}

type pageBody struct {
	Posts []struct {
		ID    uint   `json:"id"`
		Title string `json:"title"`
	} `json:"posts"`
	Pagination struct {
		Total      int64 `json:"total"`
		TotalPages int   `json:"totalPages"`
	} `json:"pagination"`
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     email,
		"password":  "writer123",
		"firstName": strings.Split(email, "@")[0],
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var body authBody
	decode(t, rr, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body authBody
	decode(t, rr, &body)
	return body.Token
}

func validPost(title string) gin.H {
	return gin.H{
		"title":    title,
		"content":  "# " + title + "\n\n" + strings.Repeat("A paragraph with enough words to pass validation. ", 5),
		"excerpt":  "A short teaser for " + title,
		"category": "Technology",
		"tags":     []string{"go", "testing"},
	}
}

func (s *testServer) createPost(t *testing.T, token, title string) postBody {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/api/posts", token, validPost(title))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var body postBody
	decode(t, rr, &body)
	return body
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rr.Body.String())
}

func TestSetupRouterServesUploadsAlias(t *testing.T) {
	s := newTestServer(t)

	fileName := "example.txt"
	fileContent := []byte("hello uploads")
	require.NoError(t, os.WriteFile(filepath.Join(s.uploadDir, fileName), fileContent, 0o644))

	for _, prefix := range []string{"/static/uploads/", "/uploads/"} {
		rr := s.do(t, http.MethodGet, prefix+fileName, "", nil)
		assert.Equal(t, http.StatusOK, rr.Code, prefix)
		assert.Equal(t, string(fileContent), rr.Body.String(), prefix)
	}
}

func TestPostLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	writer := s.register(t, "writer@example.com")
	admin := s.login(t, testAdminEmail, testAdminPassword)

	created := s.createPost(t, writer, "Shipping a Go service")
	assert.Equal(t, "pending", created.Post.Status)
	assert.Equal(t, "shipping-a-go-service", created.Post.Slug)
	postPath := fmt.Sprintf("/api/posts/%d", created.Post.ID)

	// pending posts are invisible to the public
	rr := s.do(t, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var listing pageBody
	decode(t, rr, &listing)
	assert.Empty(t, listing.Posts)

	rr = s.do(t, http.MethodGet, postPath, "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, http.MethodGet, postPath, writer, nil)
	assert.Equal(t, http.StatusOK, rr.Code, "author sees own pending post")

	approvePath := fmt.Sprintf("/api/admin/posts/%d/approve", created.Post.ID)
	rr = s.do(t, http.MethodPost, approvePath, writer, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, http.MethodPost, approvePath, admin, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var approved postBody
	decode(t, rr, &approved)
	assert.Equal(t, "published", approved.Post.Status)

	rr = s.do(t, http.MethodPost, approvePath, admin, nil)
	assert.Equal(t, http.StatusConflict, rr.Code, "approving twice is an invalid transition")

	rr = s.do(t, http.MethodGet, "/api/posts", "", nil)
	decode(t, rr, &listing)
	require.Len(t, listing.Posts, 1)
	assert.Equal(t, created.Post.ID, listing.Posts[0].ID)

	for want := uint64(1); want <= 2; want++ {
		rr = s.do(t, http.MethodGet, "/api/posts/"+created.Post.Slug, "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var detail postBody
		decode(t, rr, &detail)
		assert.Equal(t, want, detail.Post.Views)
		assert.Contains(t, detail.Post.HTML, "<h1")
	}

	reader := s.register(t, "reader@example.com")
	rr = s.do(t, http.MethodPost, postPath+"/like", reader, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"liked":true,"likesCount":1}`, rr.Body.String())

	rr = s.do(t, http.MethodPost, postPath+"/like", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodPost, postPath+"/comments", reader, gin.H{"content": "Great write-up"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var comment struct {
		Comment struct {
			ID uint `json:"ID"`
		} `json:"comment"`
	}
	decode(t, rr, &comment)

	rr = s.do(t, http.MethodPost, fmt.Sprintf("%s/comments/%d/replies", postPath, comment.Comment.ID), writer, gin.H{"content": "Thanks!"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodGet, postPath+"/comments", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var comments struct {
		Comments []struct {
			Content string `json:"content"`
			Replies []struct {
				Content string `json:"content"`
			} `json:"replies"`
		} `json:"comments"`
	}
	decode(t, rr, &comments)
	require.Len(t, comments.Comments, 1)
	require.Len(t, comments.Comments[0].Replies, 1)
	assert.Equal(t, "Thanks!", comments.Comments[0].Replies[0].Content)

	rr = s.do(t, http.MethodGet, "/api/admin/dashboard", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var dashboard struct {
		TotalPosts    int64 `json:"totalPosts"`
		TotalViews    int64 `json:"totalViews"`
		TotalLikes    int64 `json:"totalLikes"`
		TotalComments int64 `json:"totalComments"`
	}
	decode(t, rr, &dashboard)
	assert.Equal(t, int64(1), dashboard.TotalPosts)
	assert.Equal(t, int64(2), dashboard.TotalViews)
	assert.Equal(t, int64(1), dashboard.TotalLikes)
	assert.Equal(t, int64(1), dashboard.TotalComments)
}

func TestRejectAndResubmit(t *testing.T) {
	s := newTestServer(t)
	writer := s.register(t, "writer@example.com")
	admin := s.login(t, testAdminEmail, testAdminPassword)

	created := s.createPost(t, writer, "A post that needs work")
	adminPath := fmt.Sprintf("/api/admin/posts/%d", created.Post.ID)

	rr := s.do(t, http.MethodPost, adminPath+"/reject", admin, gin.H{"reason": "short"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, adminPath+"/reject", admin, gin.H{"reason": "Please cite the benchmark sources."})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var rejected postBody
	decode(t, rr, &rejected)
	assert.Equal(t, "rejected", rejected.Post.Status)

	rr = s.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", created.Post.ID), writer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var mine postBody
	decode(t, rr, &mine)
	assert.Equal(t, "Please cite the benchmark sources.", mine.Post.RejectionReason)

	rr = s.do(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/submit", created.Post.ID), writer, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resubmitted postBody
	decode(t, rr, &resubmitted)
	assert.Equal(t, "pending", resubmitted.Post.Status)
	assert.Empty(t, resubmitted.Post.RejectionReason)

	rr = s.do(t, http.MethodGet, "/api/admin/posts?status=pending", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var queue pageBody
	decode(t, rr, &queue)
	require.Len(t, queue.Posts, 1)
	assert.Equal(t, created.Post.ID, queue.Posts[0].ID)
}

func TestCreatePostValidation(t *testing.T) {
	s := newTestServer(t)
	writer := s.register(t, "writer@example.com")

	payload := validPost("short")
	payload["category"] = "Gardening"
	rr := s.do(t, http.MethodPost, "/api/posts", writer, payload)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decode(t, rr, &body)
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Fields, "title")
	assert.Contains(t, body.Fields, "category")
	assert.NotContains(t, body.Fields, "content")

	rr = s.do(t, http.MethodPost, "/api/posts", "", validPost("Anonymous post attempt"))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/posts?limit=500&sort=oldest", "", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	var queryErr struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, rr, &queryErr)
	assert.Contains(t, queryErr.Fields, "limit", "errors use query parameter names")
	assert.Contains(t, queryErr.Fields, "sort")
}

func TestAuthFlows(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "writer@example.com")

	rr := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "writer@example.com", "password": "writer123", "firstName": "Dup",
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "writer@example.com", "password": "wrong-pass1"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// the login cookie alone authenticates follow-up requests
	loginReq := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"writer@example.com","password":"writer123"}`))
	loginReq.Header.Set("Content-Type", "application/json")
	loginRR := httptest.NewRecorder()
	s.router.ServeHTTP(loginRR, loginReq)
	require.Equal(t, http.StatusOK, loginRR.Code)
	cookies := loginRR.Result().Cookies()
	require.NotEmpty(t, cookies)

	meReq := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, cookie := range cookies {
		meReq.AddCookie(cookie)
	}
	meRR := httptest.NewRecorder()
	s.router.ServeHTTP(meRR, meReq)
	require.Equal(t, http.StatusOK, meRR.Code, meRR.Body.String())
	assert.Contains(t, meRR.Body.String(), "writer@example.com")
}

func TestDeactivatedUserIsLockedOut(t *testing.T) {
	s := newTestServer(t)
	writer := s.register(t, "writer@example.com")
	admin := s.login(t, testAdminEmail, testAdminPassword)

	var stored db.User
	require.NoError(t, s.db.Where("email = ?", "writer@example.com").First(&stored).Error)

	rr := s.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/status", stored.ID), admin, gin.H{"active": false})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodPost, "/api/posts", writer, validPost("Posting while deactivated"))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "writer@example.com", "password": "writer123"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/status", stored.ID), admin, gin.H{})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "active is required")

	rr = s.do(t, http.MethodGet, "/api/admin/users?active=false", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "writer@example.com")
}

func TestUploadImage(t *testing.T) {
	s := newTestServer(t)
	writer := s.register(t, "writer@example.com")

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var pngData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, img))

	upload := func(name string, data []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("image", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+writer)
		rr := httptest.NewRecorder()
		s.router.ServeHTTP(rr, req)
		return rr
	}

	rr := upload("pixel.png", pngData.Bytes())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var result struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	}
	decode(t, rr, &result)
	assert.Equal(t, 4, result.Width)
	assert.Equal(t, 3, result.Height)
	assert.Equal(t, "png", result.Format)
	assert.True(t, strings.HasPrefix(result.URL, "/static/uploads/"), result.URL)

	served := s.do(t, http.MethodGet, result.URL, "", nil)
	assert.Equal(t, http.StatusOK, served.Code)

	rr = upload("notes.txt", []byte("definitely not an image"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
