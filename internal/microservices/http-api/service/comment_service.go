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

// CommentService works on comments under /titles/{title_id}/reviews/{review_id}.
// Every call checks that the review belongs to the title.
type CommentService interface {
	List(ctx context.Context, titleID, reviewID int64, page, pageSize int) (*dto.PaginatedResponse[dto.CommentResponse], error)
	Get(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error)
	Create(ctx context.Context, author *models.User, titleID, reviewID int64, req dto.CreateCommentDTO) (*dto.CommentResponse, error)
	Update(ctx context.Context, caller permission.Caller, titleID, reviewID, commentID int64, req dto.UpdateCommentDTO, partial bool) (*dto.CommentResponse, error)
	Delete(ctx context.Context, caller permission.Caller, titleID, reviewID, commentID int64) error
}

type commentService struct {
	comments repository.CommentRepository
	reviews  repository.ReviewRepository
	policy   permission.Permission
	logger   *slog.Logger
}

func NewCommentService(comments repository.CommentRepository, reviews repository.ReviewRepository, logger *slog.Logger) CommentService {
	return &commentService{
		comments: comments,
		reviews:  reviews,
		policy:   permission.AuthorStaffOrReadOnly{},
		logger:   logger,
	}
}

func (s *commentService) List(ctx context.Context, titleID, reviewID int64, page, pageSize int) (*dto.PaginatedResponse[dto.CommentResponse], error) {
	if _, err := s.review(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	list, total, err := s.comments.ListByReview(ctx, reviewID, page, pageSize)
	if err != nil {
		return nil, err
	}
	data := make([]dto.CommentResponse, 0, len(list))
	for i := range list {
		data = append(data, dto.CommentFromModel(&list[i]))
	}
	return dto.NewPaginatedResponse(data, total, page, pageSize), nil
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error) {
	c, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	resp := dto.CommentFromModel(c)
	return &resp, nil
}

func (s *commentService) Create(ctx context.Context, author *models.User, titleID, reviewID int64, req dto.CreateCommentDTO) (*dto.CommentResponse, error) {
	if _, err := s.review(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	v := &ValidationError{}
	if req.Text == "" {
		v.Add("text", msgRequired)
	}
	validateMaxLength(v, "text", req.Text, 200)
	if err := v.Err(); err != nil {
		return nil, err
	}

	c := &models.Comment{ReviewID: reviewID, AuthorID: author.ID, Text: req.Text}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	c.Author = author

	s.logger.Info("comment created",
		slog.Int64("review_id", reviewID),
		slog.Int64("comment_id", c.ID),
		slog.String("author", author.Username),
	)
	resp := dto.CommentFromModel(c)
	return &resp, nil
}

func (s *commentService) Update(ctx context.Context, caller permission.Caller, titleID, reviewID, commentID int64, req dto.UpdateCommentDTO, partial bool) (*dto.CommentResponse, error) {
	c, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	method := http.MethodPatch
	if !partial {
		method = http.MethodPut
	}
	if !s.policy.HasObjectPermission(caller, method, c) {
		return nil, ErrPermissionDenied
	}

	v := &ValidationError{}
	if !partial && req.Text == nil {
		v.Add("text", msgRequired)
	}
	if req.Text != nil {
		if *req.Text == "" {
			v.Add("text", msgRequired)
		}
		validateMaxLength(v, "text", *req.Text, 200)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if req.Text != nil {
		c.Text = *req.Text
		if err := s.comments.Update(ctx, c); err != nil {
			return nil, err
		}
	}
	resp := dto.CommentFromModel(c)
	return &resp, nil
}

func (s *commentService) Delete(ctx context.Context, caller permission.Caller, titleID, reviewID, commentID int64) error {
	c, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if !s.policy.HasObjectPermission(caller, http.MethodDelete, c) {
		return ErrPermissionDenied
	}
	if err := s.comments.Delete(ctx, c.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.logger.Info("comment deleted", slog.Int64("review_id", reviewID), slog.Int64("comment_id", commentID))
	return nil
}

func (s *commentService) review(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	r, err := s.reviews.GetByTitleAndID(ctx, titleID, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *commentService) find(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	if _, err := s.review(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	c, err := s.comments.GetByReviewAndID(ctx, reviewID, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}
