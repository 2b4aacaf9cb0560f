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

type CategoryService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedResponse[dto.CategoryResponse], error)
	Create(ctx context.Context, req dto.CreateCategoryDTO) (*dto.CategoryResponse, error)
	// Delete removes the category; titles that used it keep existing without one.
	Delete(ctx context.Context, slug string) error
}

type categoryService struct {
	repo   repository.CategoryRepository
	logger *slog.Logger
}

func NewCategoryService(repo repository.CategoryRepository, logger *slog.Logger) CategoryService {
	return &categoryService{repo: repo, logger: logger}
}

func (s *categoryService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedResponse[dto.CategoryResponse], error) {
	list, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}
	data := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		data = append(data, dto.CategoryFromModel(c))
	}
	return dto.NewPaginatedResponse(data, total, page, pageSize), nil
}

func (s *categoryService) Create(ctx context.Context, req dto.CreateCategoryDTO) (*dto.CategoryResponse, error) {
	v := &ValidationError{}
	if req.Name == "" {
		v.Add("name", msgRequired)
	}
	validateMaxLength(v, "name", req.Name, models.MaxCategoryNameLength)
	validateSlug(v, req.Slug)

	if len(v.Fields["name"]) == 0 {
		taken, err := s.repo.ExistsByName(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		if taken {
			v.Add("name", "category with this name already exists.")
		}
	}
	if len(v.Fields["slug"]) == 0 {
		taken, err := s.repo.ExistsBySlug(ctx, req.Slug)
		if err != nil {
			return nil, err
		}
		if taken {
			v.Add("slug", "category with this slug already exists.")
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	c := &models.Category{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("slug", "category with this slug already exists.")
		}
		return nil, err
	}
	resp := dto.CategoryFromModel(*c)
	return &resp, nil
}

func (s *categoryService) Delete(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.logger.Info("category deleted", slog.String("slug", slug))
	return nil
}

func validateSlug(v *ValidationError, slug string) {
	switch {
	case slug == "":
		v.Add("slug", msgRequired)
	case len(slug) > models.MaxSlugLength:
		v.Add("slug", msgMaxLength(models.MaxSlugLength))
	case !models.ValidSlug(slug):
		v.Add("slug", msgInvalidSlug)
	}
}
