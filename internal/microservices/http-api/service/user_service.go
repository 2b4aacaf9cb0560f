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

type UserService interface {
	List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedResponse[dto.UserResponse], error)
	Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error)
	Get(ctx context.Context, username string) (*dto.UserResponse, error)
	// Update applies req to the account; partial=false is a PUT and requires
	// username and email.
	Update(ctx context.Context, username string, req dto.UpdateUserRequest, partial bool) (*dto.UserResponse, error)
	Delete(ctx context.Context, username string) error
	// UpdateMe is the self-service edit. The role field is replaced by the
	// caller's current role, never rejected.
	UpdateMe(ctx context.Context, me *models.User, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	CreateSuperuser(ctx context.Context, username, email string) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	ratings  *Ratings
	logger   *slog.Logger
}

func NewUserService(userRepo repository.UserRepository, ratings *Ratings, logger *slog.Logger) UserService {
	return &userService{userRepo: userRepo, ratings: ratings, logger: logger}
}

func (s *userService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedResponse[dto.UserResponse], error) {
	users, total, err := s.userRepo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}
	data := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		data = append(data, dto.UserFromModel(&users[i]))
	}
	return dto.NewPaginatedResponse(data, total, page, pageSize), nil
}

func (s *userService) Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	v := &ValidationError{}
	validateUsername(v, req.Username)
	validateEmail(v, req.Email, MaxEmailLength)
	validateProfile(v, req.FirstName, req.LastName, req.Bio)

	role := models.RoleUser
	if req.Role != "" {
		r, err := models.ParseRole(req.Role)
		if err != nil {
			v.Add("role", err.Error())
		}
		role = r
	}

	if err := checkUnique(ctx, s.userRepo, v, req.Username, req.Email, ""); err != nil {
		return nil, err
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("username", msgUsernameTaken)
		}
		return nil, err
	}

	s.logger.Info("account created", slog.String("username", user.Username), slog.String("role", string(user.Role)))
	resp := dto.UserFromModel(user)
	return &resp, nil
}

func (s *userService) Get(ctx context.Context, username string) (*dto.UserResponse, error) {
	user, err := s.find(ctx, username)
	if err != nil {
		return nil, err
	}
	resp := dto.UserFromModel(user)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, username string, req dto.UpdateUserRequest, partial bool) (*dto.UserResponse, error) {
	user, err := s.find(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, user, req, partial)
}

func (s *userService) UpdateMe(ctx context.Context, me *models.User, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	// re-read so a stale caller record is not written back
	user, err := s.userRepo.FindByID(ctx, me.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.Role != nil {
		current := string(user.Role)
		req.Role = &current
	}
	return s.apply(ctx, user, req, true)
}

func (s *userService) Delete(ctx context.Context, username string) error {
	user, err := s.find(ctx, username)
	if err != nil {
		return err
	}
	// the cascade takes the account's reviews, so their titles' ratings change
	titleIDs, err := s.userRepo.ReviewedTitleIDs(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.ratings.Invalidate(ctx, titleIDs...)
	s.logger.Info("account deleted", slog.String("username", username))
	return nil
}

func (s *userService) CreateSuperuser(ctx context.Context, username, email string) (*models.User, error) {
	v := &ValidationError{}
	validateUsername(v, username)
	validateEmail(v, email, MaxEmailLength)
	if err := checkUnique(ctx, s.userRepo, v, username, email, ""); err != nil {
		return nil, err
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	user := &models.User{
		Username:    username,
		Email:       email,
		Role:        models.RoleAdmin,
		IsSuperuser: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("username", msgUsernameTaken)
		}
		return nil, err
	}
	s.logger.Info("superuser created", slog.String("username", username))
	return user, nil
}

func (s *userService) find(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// apply validates req against user and saves the result
func (s *userService) apply(ctx context.Context, user *models.User, req dto.UpdateUserRequest, partial bool) (*dto.UserResponse, error) {
	v := &ValidationError{}
	if !partial {
		if req.Username == nil {
			v.Add("username", msgRequired)
		}
		if req.Email == nil {
			v.Add("email", msgRequired)
		}
	}

	var newUsername, newEmail string
	if req.Username != nil && *req.Username != user.Username {
		validateUsername(v, *req.Username)
		newUsername = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		validateEmail(v, *req.Email, MaxEmailLength)
		newEmail = *req.Email
	}
	validateProfile(v, deref(req.FirstName), deref(req.LastName), deref(req.Bio))

	var role models.Role
	if req.Role != nil {
		r, err := models.ParseRole(*req.Role)
		if err != nil {
			v.Add("role", err.Error())
		}
		role = r
	}

	if err := checkUnique(ctx, s.userRepo, v, newUsername, newEmail, user.ID); err != nil {
		return nil, err
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Role != nil {
		user.Role = role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("username", msgUsernameTaken)
		}
		return nil, err
	}
	resp := dto.UserFromModel(user)
	return &resp, nil
}

func validateProfile(v *ValidationError, firstName, lastName, bio string) {
	validateMaxLength(v, "first_name", firstName, 150)
	validateMaxLength(v, "last_name", lastName, 150)
	validateMaxLength(v, "bio", bio, 500)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
