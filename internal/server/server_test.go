package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"campusforum/internal/config"
	"campusforum/internal/models"
	"campusforum/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "quantum-leap-42"

type testApp struct {
	srv *Server
	app *fiber.App
	mr  *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                "0",
		Env:                 "test",
		JWTSecret:           "server-test-secret",
		JWTIssuer:           "campusforum",
		JWTAudience:         "campusforum-api",
		JWTAccessTTLMinutes: 15,
		JWTRefreshTTLHours:  24,
	}
}

func newTestApp(t *testing.T, withRedis bool) *testApp {
	t.Helper()

	var (
		mr  *miniredis.Miniredis
		rdb *redis.Client
	)
	if withRedis {
		mr = miniredis.RunT(t)
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
	}

	srv, err := NewServerWithDeps(testConfig(), testutil.NewDB(t), rdb)
	require.NoError(t, err)
	return &testApp{srv: srv, app: srv.App(), mr: mr}
}

// do sends a JSON request and decodes the JSON response into out when given.
func (a *testApp) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, out), string(raw))
		}
	}
	return resp.StatusCode
}

type session struct {
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
	User    models.User `json:"user"`
}

// register signs up email and, for non-student roles, promotes the account.
func (a *testApp) register(t *testing.T, email string, role models.Role) session {
	t.Helper()

	var s session
	status := a.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"email":      email,
		"password":   testPassword,
		"password2":  testPassword,
		"first_name": "Test",
		"last_name":  "User",
	}, &s)
	require.Equal(t, fiber.StatusCreated, status)

	if role != models.RoleStudent {
		_, err := a.srv.services.Users.SetRole(context.Background(), email, role)
		require.NoError(t, err)
		s.User.Role = role
	}
	return s
}

func TestHealthChecks(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		a := newTestApp(t, false)
		var body map[string]any
		assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodGet, "/health/live", "", nil, &body))
		assert.Equal(t, "up", body["status"])
	})

	t.Run("ready with redis", func(t *testing.T) {
		a := newTestApp(t, true)
		var body struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodGet, "/health/ready", "", nil, &body))
		assert.Equal(t, "healthy", body.Status)
		assert.Equal(t, "healthy", body.Checks["redis"])
	})

	t.Run("ready without redis", func(t *testing.T) {
		a := newTestApp(t, false)
		var body struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodGet, "/health/ready", "", nil, &body))
		assert.Equal(t, "unavailable", body.Checks["redis"])
	})

	t.Run("redis down", func(t *testing.T) {
		a := newTestApp(t, true)
		a.mr.Close()
		var body map[string]any
		assert.Equal(t, fiber.StatusServiceUnavailable, a.do(t, http.MethodGet, "/health/ready", "", nil, &body))
		assert.Equal(t, "unhealthy", body["status"])
	})
}

func TestAuthEndpoints(t *testing.T) {
	a := newTestApp(t, true)
	s := a.register(t, "ada@campus.test", models.RoleStudent)
	assert.NotEmpty(t, s.Access)
	assert.Equal(t, "ada@campus.test", s.User.Email)

	t.Run("duplicate registration", func(t *testing.T) {
		var errResp models.ErrorResponse
		status := a.do(t, http.MethodPost, "/api/auth/register", "", fiber.Map{
			"email": "ADA@campus.test", "password": testPassword, "password2": testPassword,
			"first_name": "Ada", "last_name": "Again",
		}, &errResp)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, models.CodeValidation, errResp.Code)
		assert.Contains(t, errResp.Fields, "email")
	})

	t.Run("login", func(t *testing.T) {
		var got session
		status := a.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "ada@campus.test", "password": testPassword}, &got)
		assert.Equal(t, fiber.StatusOK, status)
		assert.NotEmpty(t, got.Refresh)

		var errResp models.ErrorResponse
		status = a.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "ada@campus.test", "password": "wrong-pass-1"}, &errResp)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, models.CodeAuthenticationRequired, errResp.Code)
	})

	t.Run("me", func(t *testing.T) {
		var me models.User
		assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodGet, "/api/users/me", s.Access, nil, &me))
		assert.Equal(t, s.User.ID, me.ID)

		assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodPatch, "/api/users/me", s.Access, fiber.Map{"first_name": "Augusta"}, &me))
		assert.Equal(t, "Augusta", me.FirstName)
		assert.Equal(t, "User", me.LastName)

		var errResp models.ErrorResponse
		assert.Equal(t, fiber.StatusBadRequest, a.do(t, http.MethodPut, "/api/users/me", s.Access, fiber.Map{"first_name": "Only"}, &errResp))
		assert.Contains(t, errResp.Fields, "last_name")
	})

	t.Run("bad tokens", func(t *testing.T) {
		var errResp models.ErrorResponse
		assert.Equal(t, fiber.StatusUnauthorized, a.do(t, http.MethodGet, "/api/users/me", "", nil, &errResp))
		assert.Equal(t, models.CodeAuthenticationRequired, errResp.Code)

		assert.Equal(t, fiber.StatusUnauthorized, a.do(t, http.MethodGet, "/api/users/me", "not-a-jwt", nil, &errResp))
		assert.Equal(t, fiber.StatusUnauthorized, a.do(t, http.MethodGet, "/api/users/me", s.Refresh, nil, &errResp))
	})

	t.Run("refresh and logout", func(t *testing.T) {
		var refreshed map[string]string
		assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodPost, "/api/auth/refresh", "", fiber.Map{"refresh": s.Refresh}, &refreshed))
		assert.NotEmpty(t, refreshed["access"])

		assert.Equal(t, fiber.StatusResetContent, a.do(t, http.MethodPost, "/api/users/logout", s.Access, fiber.Map{"refresh": s.Refresh}, nil))

		var errResp models.ErrorResponse
		assert.Equal(t, fiber.StatusUnauthorized, a.do(t, http.MethodPost, "/api/auth/refresh", "", fiber.Map{"refresh": s.Refresh}, &errResp))
		assert.Equal(t, models.CodeAuthenticationRequired, errResp.Code)
	})
}

func TestForumFlow(t *testing.T) {
	a := newTestApp(t, true)
	prof := a.register(t, "prof@campus.test", models.RoleProfessor)
	student := a.register(t, "student@campus.test", models.RoleStudent)
	other := a.register(t, "other@campus.test", models.RoleStudent)

	var errResp models.ErrorResponse

	// Categories
	assert.Equal(t, fiber.StatusUnauthorized, a.do(t, http.MethodPost, "/api/categories", "", fiber.Map{"name": "Physics"}, &errResp))
	assert.Equal(t, fiber.StatusForbidden, a.do(t, http.MethodPost, "/api/categories", student.Access, fiber.Map{"name": "Physics"}, &errResp))
	assert.Equal(t, models.CodePermissionDenied, errResp.Code)

	var category models.Category
	require.Equal(t, fiber.StatusCreated, a.do(t, http.MethodPost, "/api/categories", prof.Access, fiber.Map{"name": "Physics", "description": "Waves"}, &category))
	assert.Equal(t, models.CategoryActive, category.Status)

	var categories []models.Category
	assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodGet, "/api/categories", "", nil, &categories))
	assert.Len(t, categories, 1)

	// Posts start as drafts and are hidden from others until published.
	var post models.Post
	require.Equal(t, fiber.StatusCreated, a.do(t, http.MethodPost, "/api/posts", student.Access, fiber.Map{
		"title":       "Quantum homework",
		"content":     "Does anyone understand problem three of the set?",
		"category_id": category.ID,
	}, &post))
	assert.Equal(t, models.PostDraft, post.Status)
	postPath := fmt.Sprintf("/api/posts/%d", post.ID)

	var posts []models.Post
	assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodGet, "/api/posts", "", nil, &posts))
	assert.Empty(t, posts)
	assert.Equal(t, fiber.StatusNotFound, a.do(t, http.MethodGet, postPath, other.Access, nil, &errResp))
	assert.Equal(t, fiber.StatusNotFound, a.do(t, http.MethodGet, postPath, "", nil, &errResp))
	assert.Equal(t, models.CodeNotFound, errResp.Code)
	assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodGet, "/api/posts/my-posts", student.Access, nil, &posts))
	assert.Len(t, posts, 1)

	assert.Equal(t, fiber.StatusForbidden, a.do(t, http.MethodPost, postPath+"/publish", other.Access, nil, &errResp))
	var transition map[string]string
	assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodPost, postPath+"/publish", student.Access, nil, &transition))
	assert.Equal(t, "PUBLISHED", transition["status"])
	assert.Equal(t, fiber.StatusConflict, a.do(t, http.MethodPost, postPath+"/publish", student.Access, nil, &errResp))
	assert.Equal(t, models.CodeInvalidTransition, errResp.Code)

	assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodGet, "/api/posts?search=quantum", "", nil, &posts))
	assert.Len(t, posts, 1)
	assert.Equal(t, fiber.StatusBadRequest, a.do(t, http.MethodGet, "/api/posts?category=abc", "", nil, &errResp))
	assert.Contains(t, errResp.Fields, "category")

	// A category with published posts cannot be deactivated or deleted.
	categoryPath := fmt.Sprintf("/api/categories/%d", category.ID)
	assert.Equal(t, fiber.StatusConflict, a.do(t, http.MethodPost, categoryPath+"/toggle_status", prof.Access, nil, &errResp))
	assert.Equal(t, models.CodeConflict, errResp.Code)
	assert.Equal(t, fiber.StatusConflict, a.do(t, http.MethodDelete, categoryPath, prof.Access, nil, &errResp))

	// Comments
	var comment models.Comment
	require.Equal(t, fiber.StatusCreated, a.do(t, http.MethodPost, "/api/comments", other.Access, fiber.Map{"post_id": post.ID, "content": "Try the operator method."}, &comment))
	var comments []models.Comment
	assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodGet, fmt.Sprintf("/api/comments?post=%d", post.ID), student.Access, nil, &comments))
	assert.Len(t, comments, 1)
	assert.Equal(t, fiber.StatusUnauthorized, a.do(t, http.MethodGet, "/api/comments", "", nil, &errResp))

	// Reports and moderation
	var report models.Report
	require.Equal(t, fiber.StatusCreated, a.do(t, http.MethodPost, "/api/reports", other.Access, fiber.Map{"type": "POST", "post_id": post.ID, "reason": "Homework answers"}, &report))
	assert.Equal(t, models.ReportPending, report.Status)
	reportPath := fmt.Sprintf("/api/reports/%d", report.ID)

	var reports []models.Report
	assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodGet, "/api/reports", student.Access, nil, &reports))
	assert.Empty(t, reports)
	assert.Equal(t, fiber.StatusForbidden, a.do(t, http.MethodPost, reportPath+"/resolve", other.Access, nil, &errResp))

	assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodPost, reportPath+"/review", prof.Access, nil, &transition))
	assert.Equal(t, "REVIEWED", transition["status"])
	assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodPost, reportPath+"/resolve", prof.Access, fiber.Map{"action_taken": "Archive the post"}, &transition))
	assert.Equal(t, "RESOLVED", transition["status"])
	assert.Equal(t, fiber.StatusConflict, a.do(t, http.MethodPost, reportPath+"/dismiss", prof.Access, nil, &errResp))

	assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodGet, postPath, prof.Access, nil, &post))
	assert.Equal(t, models.PostArchived, post.Status)

	// Analytics
	var stats models.PlatformStatistics
	assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodGet, "/api/analytics", student.Access, nil, &stats))
	assert.Equal(t, int64(3), stats.General.TotalUsers)
	assert.Equal(t, int64(1), stats.General.TotalComments)

	var catStats models.CategoryStatistics
	assert.Equal(t, fiber.StatusOK, a.do(t, http.MethodGet, fmt.Sprintf("/api/analytics/category/%d", category.ID), prof.Access, nil, &catStats))
	assert.Equal(t, "Physics", catStats.Category.Name)

	// Deleting the post frees the category.
	assert.Equal(t, fiber.StatusNoContent, a.do(t, http.MethodDelete, postPath, student.Access, nil, nil))
	assert.Equal(t, fiber.StatusNoContent, a.do(t, http.MethodDelete, categoryPath, prof.Access, nil, nil))
}

func TestRouteErrors(t *testing.T) {
	a := newTestApp(t, false)
	var errResp models.ErrorResponse

	assert.Equal(t, fiber.StatusNotFound, a.do(t, http.MethodGet, "/api/posts/abc", "", nil, &errResp))
	assert.Equal(t, models.CodeNotFound, errResp.Code)

	assert.Equal(t, fiber.StatusNotFound, a.do(t, http.MethodGet, "/api/nowhere", "", nil, &errResp))
	assert.Equal(t, models.CodeNotFound, errResp.Code)

	assert.Equal(t, fiber.StatusUnauthorized, a.do(t, http.MethodGet, "/api/analytics", "", nil, &errResp))
	assert.Equal(t, models.CodeAuthenticationRequired, errResp.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSecurityHeaders(t *testing.T) {
	a := newTestApp(t, false)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
