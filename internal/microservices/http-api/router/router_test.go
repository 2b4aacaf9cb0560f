package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// tokenAuth only authenticates; the permission tests never reach a handler
type tokenAuth struct {
	service.AuthService
	users map[string]*models.User
}

func (a tokenAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := a.users[token]; ok {
		return u, nil
	}
	return nil, service.ErrInvalidToken
}

type stubCategories struct{ service.CategoryService }

func (stubCategories) List(_ context.Context, _ string, page, pageSize int) (*dto.PaginatedResponse[dto.CategoryResponse], error) {
	return dto.NewPaginatedResponse[dto.CategoryResponse](nil, 0, page, pageSize), nil
}

func newTestEngine(ready func() error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := tokenAuth{users: map[string]*models.User{
		"user":  {ID: "u-1", Username: "alice", Role: models.RoleUser},
		"admin": {ID: "u-2", Username: "root", Role: models.RoleAdmin},
	}}
	return New(Services{Auth: auth, Categories: stubCategories{}}, Options{
		AuthRateLimit: 1,
		AuthRateBurst: 1,
		Ready:         ready,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serve(r http.Handler, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRouter_Permissions(t *testing.T) {
	r := newTestEngine(nil)
	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"anonymous reads categories", http.MethodGet, "/api/v1/categories", "", http.StatusOK},
		{"anonymous creates category", http.MethodPost, "/api/v1/categories", "", http.StatusUnauthorized},
		{"user creates category", http.MethodPost, "/api/v1/categories", "user", http.StatusForbidden},
		{"user deletes genre", http.MethodDelete, "/api/v1/genres/drama", "user", http.StatusForbidden},
		{"user lists accounts", http.MethodGet, "/api/v1/users", "user", http.StatusForbidden},
		{"anonymous lists accounts", http.MethodGet, "/api/v1/users", "", http.StatusUnauthorized},
		{"anonymous me", http.MethodGet, "/api/v1/users/me", "", http.StatusUnauthorized},
		{"user me", http.MethodGet, "/api/v1/users/me", "user", http.StatusOK},
		{"anonymous review", http.MethodPost, "/api/v1/titles/1/reviews", "", http.StatusUnauthorized},
		{"anonymous comment", http.MethodPatch, "/api/v1/titles/1/reviews/2/comments/3", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/v1/categories", "forged", http.StatusUnauthorized},
		{"anonymous signup reaches handler", http.MethodPost, "/api/v1/auth/signup", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(r, tt.method, tt.path, tt.token))
		})
	}
}

func TestRouter_Healthz(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(newTestEngine(nil), http.MethodGet, "/healthz", ""))
	down := newTestEngine(func() error { return errors.New("connection refused") })
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, http.MethodGet, "/healthz", ""))
}
