package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/repository"

	"gorm.io/gorm"
)

type ReviewService interface {
	List(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedResponse[dto.ReviewResponse], error)
	Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error)
	// Create fails with ErrDuplicateReview when the author already reviewed the title.
	Create(ctx context.Context, author *models.User, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error)
	Update(ctx context.Context, caller permission.Caller, titleID, reviewID int64, req dto.UpdateReviewDTO, partial bool) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, caller permission.Caller, titleID, reviewID int64) error
}

type reviewService struct {
	reviews repository.ReviewRepository
	titles  repository.TitleRepository
	ratings *Ratings
	policy  permission.Permission
	logger  *slog.Logger
}

func NewReviewService(
	reviews repository.ReviewRepository,
	titles repository.TitleRepository,
	ratings *Ratings,
	logger *slog.Logger,
) ReviewService {
	return &reviewService{
		reviews: reviews,
		titles:  titles,
		ratings: ratings,
		policy:  permission.AuthorStaffOrReadOnly{},
		logger:  logger,
	}
}

func (s *reviewService) List(ctx context.Context, titleID int64, page, pageSize int) (*dto.PaginatedResponse[dto.ReviewResponse], error) {
	title, err := s.title(ctx, titleID)
	if err != nil {
		return nil, err
	}
	list, total, err := s.reviews.ListByTitle(ctx, titleID, page, pageSize)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ReviewResponse, 0, len(list))
	for i := range list {
		data = append(data, dto.ReviewFromModel(&list[i], title.Name))
	}
	return dto.NewPaginatedResponse(data, total, page, pageSize), nil
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	title, review, err := s.find(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	resp := dto.ReviewFromModel(review, title.Name)
	return &resp, nil
}

func (s *reviewService) Create(ctx context.Context, author *models.User, titleID int64, req dto.CreateReviewDTO) (*dto.ReviewResponse, error) {
	title, err := s.title(ctx, titleID)
	if err != nil {
		return nil, err
	}

	v := &ValidationError{}
	if req.Text == "" {
		v.Add("text", msgRequired)
	}
	validateMaxLength(v, "text", req.Text, 1000)
	if req.Score == nil {
		v.Add("score", msgRequired)
	} else {
		validateScore(v, *req.Score)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	exists, err := s.reviews.ExistsByAuthorAndTitle(ctx, author.ID, titleID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: author.ID,
		Text:     req.Text,
		Score:    *req.Score,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateReview
		}
		return nil, err
	}
	review.Author = author
	s.ratings.Invalidate(ctx, titleID)

	s.logger.Info("review created",
		slog.Int64("title_id", titleID),
		slog.Int64("review_id", review.ID),
		slog.String("author", author.Username),
	)
	resp := dto.ReviewFromModel(review, title.Name)
	return &resp, nil
}

func (s *reviewService) Update(ctx context.Context, caller permission.Caller, titleID, reviewID int64, req dto.UpdateReviewDTO, partial bool) (*dto.ReviewResponse, error) {
	title, review, err := s.find(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	method := http.MethodPatch
	if !partial {
		method = http.MethodPut
	}
	if !s.policy.HasObjectPermission(caller, method, review) {
		return nil, ErrPermissionDenied
	}

	v := &ValidationError{}
	if !partial {
		if req.Text == nil {
			v.Add("text", msgRequired)
		}
		if req.Score == nil {
			v.Add("score", msgRequired)
		}
	}
	if req.Text != nil {
		if *req.Text == "" {
			v.Add("text", msgRequired)
		}
		validateMaxLength(v, "text", *req.Text, 1000)
	}
	if req.Score != nil {
		validateScore(v, *req.Score)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	s.ratings.Invalidate(ctx, titleID)

	resp := dto.ReviewFromModel(review, title.Name)
	return &resp, nil
}

func (s *reviewService) Delete(ctx context.Context, caller permission.Caller, titleID, reviewID int64) error {
	_, review, err := s.find(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if !s.policy.HasObjectPermission(caller, http.MethodDelete, review) {
		return ErrPermissionDenied
	}
	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.ratings.Invalidate(ctx, titleID)
	s.logger.Info("review deleted", slog.Int64("title_id", titleID), slog.Int64("review_id", reviewID))
	return nil
}

func (s *reviewService) title(ctx context.Context, id int64) (*models.Title, error) {
	t, err := s.titles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *reviewService) find(ctx context.Context, titleID, reviewID int64) (*models.Title, *models.Review, error) {
	t, err := s.title(ctx, titleID)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.reviews.GetByTitleAndID(ctx, titleID, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return t, r, nil
}
