package handler

import (
	"log/slog"
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
	logger      *slog.Logger
}

func NewUserHandler(userService service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// RegisterRoutes registers the admin account routes. The caller is expected to
// guard the group with the admin permission.
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("", h.List)
	router.POST("", h.Create)
	router.GET("/:username", h.Get)
	router.PATCH("/:username", h.Patch)
	router.PUT("/:username", h.Put)
	router.DELETE("/:username", h.Delete)
}

// RegisterMeRoutes registers the self-service routes on /users/me
func (h *UserHandler) RegisterMeRoutes(router *gin.RouterGroup) {
	router.GET("", h.GetMe)
	router.PATCH("", h.PatchMe)
}

// List returns accounts, optionally filtered by ?search=
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	q, ok := pageQuery(c)
	if !ok {
		return
	}
	resp, err := h.userService.List(c.Request.Context(), c.Query("search"), q.Page, q.PageSize)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create adds an account with any role
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GET /api/v1/users/:username
func (h *UserHandler) Get(c *gin.Context) {
	resp, err := h.userService.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PATCH /api/v1/users/:username
func (h *UserHandler) Patch(c *gin.Context) { h.update(c, true) }

// PUT /api/v1/users/:username
func (h *UserHandler) Put(c *gin.Context) { h.update(c, false) }

func (h *UserHandler) update(c *gin.Context, partial bool) {
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.userService.Update(c.Request.Context(), c.Param("username"), req, partial)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DELETE /api/v1/users/:username
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), c.Param("username")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMe returns the caller's own account
// GET /api/v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	me := middleware.CurrentUser(c)
	if me == nil {
		middleware.AbortDenied(c, middleware.CallerFrom(c))
		return
	}
	c.JSON(http.StatusOK, dto.UserFromModel(me))
}

// PatchMe edits the caller's own account; a submitted role is ignored
// PATCH /api/v1/users/me
func (h *UserHandler) PatchMe(c *gin.Context) {
	me := middleware.CurrentUser(c)
	if me == nil {
		middleware.AbortDenied(c, middleware.CallerFrom(c))
		return
	}
	var req dto.UpdateMeRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.userService.UpdateMe(c.Request.Context(), me, req.Update())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
