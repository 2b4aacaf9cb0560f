package handler

import (
	"net/http"
	"testing"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCategoryRouter(svc *MockCategoryService) http.Handler {
	router := setupRouter()
	NewCategoryHandler(svc, discardLogger()).RegisterRoutes(router.Group("/categories"))
	return router
}

func TestCategories_Create(t *testing.T) {
	svc := new(MockCategoryService)
	req := dto.CreateCategoryDTO{Name: "Movie", Slug: "movie"}
	svc.On("Create", mock.Anything, req).Return(&dto.CategoryResponse{Name: "Movie", Slug: "movie"}, nil)

	w := doJSON(newCategoryRouter(svc), http.MethodPost, "/categories", req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"name":"Movie","slug":"movie"}`, w.Body.String())
}

func TestCategories_CreateInvalidSlug(t *testing.T) {
	svc := new(MockCategoryService)
	w := doJSON(newCategoryRouter(svc), http.MethodPost, "/categories", map[string]string{"name": "Movie", "slug": "no spaces"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{service.FieldMessage("slug", "")}, decodeFields(w)["slug"])
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCategories_ListAndDelete(t *testing.T) {
	svc := new(MockCategoryService)
	svc.On("List", mock.Anything, "Movie", 1, dto.DefaultPageSize).
		Return(dto.NewPaginatedResponse([]dto.CategoryResponse{{Name: "Movie", Slug: "movie"}}, 1, 1, dto.DefaultPageSize), nil)
	svc.On("Delete", mock.Anything, "movie").Return(nil)
	svc.On("Delete", mock.Anything, "ghost").Return(service.ErrNotFound)
	router := newCategoryRouter(svc)

	w := doJSON(router, http.MethodGet, "/categories?search=Movie", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[{"name":"Movie","slug":"movie"}],"page":1,"page_size":10,"total":1,"total_pages":1}`, w.Body.String())

	assert.Equal(t, http.StatusNoContent, doJSON(router, http.MethodDelete, "/categories/movie", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodDelete, "/categories/ghost", nil).Code)
}
