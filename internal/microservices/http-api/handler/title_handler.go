package handler

import (
	"log/slog"
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type TitleHandler struct {
	titleService service.TitleService
	logger       *slog.Logger
}

func NewTitleHandler(titleService service.TitleService, logger *slog.Logger) *TitleHandler {
	return &TitleHandler{titleService: titleService, logger: logger}
}

// RegisterRoutes registers title routes
func (h *TitleHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("", h.List)
	router.POST("", h.Create)
	router.GET("/:title_id", h.Get)
	router.PATCH("/:title_id", h.Patch)
	router.PUT("/:title_id", h.Put)
	router.DELETE("/:title_id", h.Delete)
}

// List returns titles filtered by category, genre, name and year
// GET /api/v1/titles?category=&genre=&name=&year=
func (h *TitleHandler) List(c *gin.Context) {
	q, ok := pageQuery(c)
	if !ok {
		return
	}
	var filter dto.TitleQuery
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"year": []string{"Enter a whole number."}})
		return
	}

	resp, err := h.titleService.List(c.Request.Context(), filter, q.Page, q.PageSize)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GET /api/v1/titles/:title_id
func (h *TitleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	resp, err := h.titleService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/v1/titles
func (h *TitleHandler) Create(c *gin.Context) {
	var req dto.CreateTitleDTO
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.titleService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// PATCH /api/v1/titles/:title_id
func (h *TitleHandler) Patch(c *gin.Context) { h.update(c, true) }

// PUT /api/v1/titles/:title_id
func (h *TitleHandler) Put(c *gin.Context) { h.update(c, false) }

func (h *TitleHandler) update(c *gin.Context, partial bool) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	var req dto.UpdateTitleDTO
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.titleService.Update(c.Request.Context(), id, req, partial)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DELETE /api/v1/titles/:title_id
func (h *TitleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	if err := h.titleService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
