package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"

	"gorm.io/gorm"
)

type TitleService interface {
	List(ctx context.Context, q dto.TitleQuery, page, pageSize int) (*dto.PaginatedResponse[dto.TitleResponse], error)
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, req dto.CreateTitleDTO) (*dto.TitleWriteResponse, error)
	// Update applies req; partial=false is a PUT and requires name, year and category.
	Update(ctx context.Context, id int64, req dto.UpdateTitleDTO, partial bool) (*dto.TitleWriteResponse, error)
	// Delete removes the title together with its reviews and their comments.
	Delete(ctx context.Context, id int64) error
}

// Ratings computes title ratings, reading through the cache
type Ratings struct {
	reviews repository.ReviewRepository
	cache   repository.RatingCache
	logger  *slog.Logger
}

func NewRatings(reviews repository.ReviewRepository, cache repository.RatingCache, logger *slog.Logger) *Ratings {
	return &Ratings{reviews: reviews, cache: cache, logger: logger}
}

// For returns the mean score of every title in ids that has reviews
func (r *Ratings) For(ctx context.Context, ids []int64) (map[int64]float64, error) {
	hits, misses, err := r.cache.Get(ctx, ids)
	if err != nil {
		r.logger.Warn("rating cache read failed", slog.Any("error", err))
		hits, misses = map[int64]float64{}, ids
	}
	if len(misses) == 0 {
		return hits, nil
	}

	computed, err := r.reviews.AverageScores(ctx, misses)
	if err != nil {
		return nil, err
	}

	fill := make(map[int64]float64, len(misses))
	for _, id := range misses {
		avg, ok := computed[id]
		if !ok {
			fill[id] = math.NaN()
			continue
		}
		fill[id] = avg
		hits[id] = avg
	}
	if err := r.cache.Set(ctx, fill); err != nil {
		r.logger.Warn("rating cache write failed", slog.Any("error", err))
	}
	return hits, nil
}

// Invalidate drops cached ratings after review writes
func (r *Ratings) Invalidate(ctx context.Context, ids ...int64) {
	if err := r.cache.Invalidate(ctx, ids...); err != nil {
		r.logger.Warn("rating cache invalidate failed", slog.Any("error", err))
	}
}

type titleService struct {
	titles     repository.TitleRepository
	categories repository.CategoryRepository
	genres     repository.GenreRepository
	ratings    *Ratings
	logger     *slog.Logger
	now        func() time.Time
}

func NewTitleService(
	titles repository.TitleRepository,
	categories repository.CategoryRepository,
	genres repository.GenreRepository,
	ratings *Ratings,
	logger *slog.Logger,
) TitleService {
	return &titleService{
		titles:     titles,
		categories: categories,
		genres:     genres,
		ratings:    ratings,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *titleService) List(ctx context.Context, q dto.TitleQuery, page, pageSize int) (*dto.PaginatedResponse[dto.TitleResponse], error) {
	filter := repository.TitleFilter{
		CategorySlug: q.Category,
		GenreSlug:    q.Genre,
		Name:         q.Name,
		Year:         q.Year,
	}
	list, total, err := s.titles.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(list))
	for _, t := range list {
		ids = append(ids, t.ID)
	}
	ratings, err := s.ratings.For(ctx, ids)
	if err != nil {
		return nil, err
	}

	data := make([]dto.TitleResponse, 0, len(list))
	for i := range list {
		data = append(data, dto.TitleFromModel(&list[i], ratingOf(ratings, list[i].ID)))
	}
	return dto.NewPaginatedResponse(data, total, page, pageSize), nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	ratings, err := s.ratings.For(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	resp := dto.TitleFromModel(t, ratingOf(ratings, id))
	return &resp, nil
}

func (s *titleService) Create(ctx context.Context, req dto.CreateTitleDTO) (*dto.TitleWriteResponse, error) {
	v := &ValidationError{}
	if req.Name == "" {
		v.Add("name", msgRequired)
	}
	validateMaxLength(v, "name", req.Name, models.MaxTitleNameLength)
	if req.Year == nil {
		v.Add("year", msgRequired)
	} else {
		validateYear(v, *req.Year, s.now())
	}
	if req.Category == "" {
		v.Add("category", msgRequired)
	}

	category, err := s.resolveCategory(ctx, v, req.Category)
	if err != nil {
		return nil, err
	}
	genres, err := s.resolveGenres(ctx, v, req.Genre)
	if err != nil {
		return nil, err
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	t := &models.Title{
		Name:        req.Name,
		Year:        *req.Year,
		Description: req.Description,
		CategoryID:  &category.ID,
	}
	if err := s.titles.Create(ctx, t, genres); err != nil {
		return nil, err
	}
	t.Category = category
	t.Genres = genres

	s.logger.Info("title created", slog.Int64("id", t.ID), slog.String("name", t.Name))
	resp := dto.TitleWriteFromModel(t)
	return &resp, nil
}

func (s *titleService) Update(ctx context.Context, id int64, req dto.UpdateTitleDTO, partial bool) (*dto.TitleWriteResponse, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	v := &ValidationError{}
	if !partial {
		if req.Name == nil {
			v.Add("name", msgRequired)
		}
		if req.Year == nil {
			v.Add("year", msgRequired)
		}
		if req.Category == nil {
			v.Add("category", msgRequired)
		}
	}
	if req.Name != nil {
		if *req.Name == "" {
			v.Add("name", msgRequired)
		}
		validateMaxLength(v, "name", *req.Name, models.MaxTitleNameLength)
	}
	if req.Year != nil {
		validateYear(v, *req.Year, s.now())
	}

	var category *models.Category
	if req.Category != nil {
		if category, err = s.resolveCategory(ctx, v, *req.Category); err != nil {
			return nil, err
		}
	}
	var genres []models.Genre
	if req.Genre != nil {
		if genres, err = s.resolveGenres(ctx, v, *req.Genre); err != nil {
			return nil, err
		}
		if genres == nil {
			genres = []models.Genre{}
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Year != nil {
		t.Year = *req.Year
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if category != nil {
		t.CategoryID = &category.ID
		t.Category = category
	}
	if err := s.titles.Update(ctx, t, genres); err != nil {
		return nil, err
	}
	if genres != nil {
		t.Genres = genres
	}

	resp := dto.TitleWriteFromModel(t)
	return &resp, nil
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	if err := s.titles.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.ratings.Invalidate(ctx, id)
	s.logger.Info("title deleted", slog.Int64("id", id))
	return nil
}

func (s *titleService) find(ctx context.Context, id int64) (*models.Title, error) {
	t, err := s.titles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *titleService) resolveCategory(ctx context.Context, v *ValidationError, slug string) (*models.Category, error) {
	if slug == "" {
		return nil, nil
	}
	c, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			v.Add("category", unknownSlug(slug))
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// resolveGenres keeps request order and drops repeated slugs
func (s *titleService) resolveGenres(ctx context.Context, v *ValidationError, slugs []string) ([]models.Genre, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	unique := make([]string, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if !seen[slug] {
			seen[slug] = true
			unique = append(unique, slug)
		}
	}

	found, err := s.genres.FindBySlugs(ctx, unique)
	if err != nil {
		return nil, err
	}
	bySlug := make(map[string]models.Genre, len(found))
	for _, g := range found {
		bySlug[g.Slug] = g
	}

	genres := make([]models.Genre, 0, len(unique))
	for _, slug := range unique {
		g, ok := bySlug[slug]
		if !ok {
			v.Add("genre", unknownSlug(slug))
			continue
		}
		genres = append(genres, g)
	}
	return genres, nil
}

func unknownSlug(slug string) string {
	return fmt.Sprintf("Object with slug=%s does not exist.", slug)
}

func ratingOf(ratings map[int64]float64, id int64) *float64 {
	avg, ok := ratings[id]
	if !ok {
		return nil
	}
	return &avg
}
