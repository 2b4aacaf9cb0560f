// Package router assembles the HTTP engine: global middleware, the /api/v1 route
// tree and the permission attached to each resource group.
package router

import (
	"log/slog"
	"net/http"
	"time"

	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// Services are the dependencies the handlers are built from
type Services struct {
	Auth       service.AuthService
	Users      service.UserService
	Categories service.CategoryService
	Genres     service.GenreService
	Titles     service.TitleService
	Reviews    service.ReviewService
	Comments   service.CommentService
}

type Options struct {
	RequestTimeout time.Duration
	AuthRateLimit  float64
	AuthRateBurst  int
	// Ready reports store health for /healthz; nil always reports healthy
	Ready func() error
}

func New(svc Services, opts Options, logger *slog.Logger) *gin.Engine {
	handler.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.GET("/healthz", func(c *gin.Context) {
		if opts.Ready != nil {
			if err := opts.Ready(); err != nil {
				logger.Warn("health check failed", slog.Any("error", err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1", middleware.Authenticate(svc.Auth, logger))

	// Public routes (rate limited per client IP)
	limiter := middleware.NewIPRateLimiter(opts.AuthRateLimit, opts.AuthRateBurst)
	handler.NewAuthHandler(svc.Auth, logger).
		RegisterRoutes(api.Group("/auth", middleware.RateLimit(limiter), middleware.RequirePermission(permission.AllowAny{})))

	users := handler.NewUserHandler(svc.Users, logger)
	users.RegisterMeRoutes(api.Group("/users/me", middleware.RequirePermission(permission.Authenticated{})))
	users.RegisterRoutes(api.Group("/users", middleware.RequirePermission(permission.AdminOnly{})))

	catalog := middleware.RequirePermission(permission.AdminOrReadOnly{})
	handler.NewCategoryHandler(svc.Categories, logger).RegisterRoutes(api.Group("/categories", catalog))
	handler.NewGenreHandler(svc.Genres, logger).RegisterRoutes(api.Group("/genres", catalog))
	handler.NewTitleHandler(svc.Titles, logger).RegisterRoutes(api.Group("/titles", catalog))

	feedback := middleware.RequirePermission(permission.AuthorStaffOrReadOnly{})
	handler.NewReviewHandler(svc.Reviews, logger).
		RegisterRoutes(api.Group("/titles/:title_id/reviews", feedback))
	handler.NewCommentHandler(svc.Comments, logger).
		RegisterRoutes(api.Group("/titles/:title_id/reviews/:review_id/comments", feedback))

	return r
}
