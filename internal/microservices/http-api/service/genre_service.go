package service

import (
	"context"
	"errors"
	"log/slog"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"

	"gorm.io/gorm"
)

type GenreService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedResponse[dto.GenreResponse], error)
	Create(ctx context.Context, req dto.CreateGenreDTO) (*dto.GenreResponse, error)
	Delete(ctx context.Context, slug string) error
}

type genreService struct {
	repo   repository.GenreRepository
	logger *slog.Logger
}

func NewGenreService(repo repository.GenreRepository, logger *slog.Logger) GenreService {
	return &genreService{repo: repo, logger: logger}
}

func (s *genreService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedResponse[dto.GenreResponse], error) {
	list, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}
	data := make([]dto.GenreResponse, 0, len(list))
	for _, g := range list {
		data = append(data, dto.GenreFromModel(g))
	}
	return dto.NewPaginatedResponse(data, total, page, pageSize), nil
}

func (s *genreService) Create(ctx context.Context, req dto.CreateGenreDTO) (*dto.GenreResponse, error) {
	v := &ValidationError{}
	if req.Name == "" {
		v.Add("name", msgRequired)
	}
	validateMaxLength(v, "name", req.Name, models.MaxGenreNameLength)
	validateSlug(v, req.Slug)

	if len(v.Fields["slug"]) == 0 {
		taken, err := s.repo.ExistsBySlug(ctx, req.Slug)
		if err != nil {
			return nil, err
		}
		if taken {
			v.Add("slug", "genre with this slug already exists.")
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	g := &models.Genre{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Create(ctx, g); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("slug", "genre with this slug already exists.")
		}
		return nil, err
	}
	resp := dto.GenreFromModel(*g)
	return &resp, nil
}

func (s *genreService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.logger.Info("genre deleted", slog.String("slug", slug))
	return nil
}
