package router

import (
	"fmt"
	"log/slog"

	"yamdb/internal/config"
	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/middleware/auth"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// NewServices wires repositories into services. rdb may be nil, which disables
// the rating cache.
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mail mailer.Sender, logger *slog.Logger) (Services, error) {
	codes, err := auth.NewConfirmationCodes(cfg.JWTSecret, cfg.ConfirmationCodeTTL)
	if err != nil {
		return Services{}, fmt.Errorf("confirmation codes: %w", err)
	}
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		return Services{}, fmt.Errorf("token manager: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	genreRepo := repository.NewGenreRepository(db)
	titleRepo := repository.NewTitleRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	ratings := service.NewRatings(reviewRepo, repository.NewRatingCache(rdb, cfg.CacheExpiry()), logger)

	return Services{
		Auth:       service.NewAuthService(userRepo, mail, codes, tokens, cfg.ConfirmationSingleUse, logger),
		Users:      service.NewUserService(userRepo, ratings, logger),
		Categories: service.NewCategoryService(categoryRepo, logger),
		Genres:     service.NewGenreService(genreRepo, logger),
		Titles:     service.NewTitleService(titleRepo, categoryRepo, genreRepo, ratings, logger),
		Reviews:    service.NewReviewService(reviewRepo, titleRepo, ratings, logger),
		Comments:   service.NewCommentService(commentRepo, reviewRepo, logger),
	}, nil
}
