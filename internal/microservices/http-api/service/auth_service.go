package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/middleware/auth"

	"gorm.io/gorm"
)

const signupMailSubject = "Your verification token"

type AuthService interface {
	// Signup creates an unconfirmed account and mails it a confirmation code.
	Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error)
	// IssueToken exchanges a confirmation code for a bearer access token.
	IssueToken(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error)
	// Authenticate resolves a bearer token to its account.
	Authenticate(ctx context.Context, token string) (*models.User, error)
	// ConfirmationCode returns a fresh code for the account.
	ConfirmationCode(user *models.User) string
}

type authService struct {
	userRepo  repository.UserRepository
	mail      mailer.Sender
	codes     *auth.ConfirmationCodes
	tokens    *auth.TokenManager
	singleUse bool
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	mail mailer.Sender,
	codes *auth.ConfirmationCodes,
	tokens *auth.TokenManager,
	singleUse bool,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		mail:      mail,
		codes:     codes,
		tokens:    tokens,
		singleUse: singleUse,
		logger:    logger,
		now:       time.Now,
	}
}

func subjectOf(u *models.User) auth.Subject {
	return auth.Subject{ID: u.ID, Email: u.Email, LastLogin: u.LastLogin}
}

func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error) {
	v := &ValidationError{}
	validateUsername(v, req.Username)
	validateEmail(v, req.Email, MaxSignupEmailLength)
	if err := checkUnique(ctx, s.userRepo, v, req.Username, req.Email, ""); err != nil {
		return nil, err
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	user := &models.User{Username: req.Username, Email: req.Email, Role: models.RoleUser}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race against a concurrent signup
			return nil, NewValidationError("username", msgUsernameTaken)
		}
		return nil, err
	}

	code := s.codes.Make(subjectOf(user))
	if err := s.mail.Send(ctx, user.Email, signupMailSubject, code); err != nil {
		return nil, fmt.Errorf("send confirmation code: %w", err)
	}

	s.logger.Info("account signed up", slog.String("username", user.Username))
	return &dto.SignupResponse{Username: user.Username, Email: user.Email}, nil
}

func (s *authService) IssueToken(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !s.codes.Check(subjectOf(user), req.ConfirmationCode) {
		s.logger.Warn("confirmation code rejected", slog.String("username", user.Username))
		return nil, ErrInvalidConfirmationCode
	}

	changed := false
	if !user.Confirmed {
		user.Confirmed = true
		changed = true
	}
	if s.singleUse {
		now := s.now().UTC()
		user.LastLogin = &now
		changed = true
	}
	if changed {
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	s.logger.Info("access token issued", slog.String("username", user.Username))
	return &dto.TokenResponse{Token: token}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// reload so role changes apply to tokens already issued
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) ConfirmationCode(user *models.User) string {
	return s.codes.Make(subjectOf(user))
}

// checkUnique records username/email collisions against accounts other than excludeID.
// Empty values and fields that already failed validation are skipped.
func checkUnique(ctx context.Context, repo repository.UserRepository, v *ValidationError, username, email, excludeID string) error {
	if username != "" && len(v.Fields["username"]) == 0 {
		taken, err := repo.ExistsByUsername(ctx, username, excludeID)
		if err != nil {
			return err
		}
		if taken {
			v.Add("username", msgUsernameTaken)
		}
	}
	if email != "" && len(v.Fields["email"]) == 0 {
		taken, err := repo.ExistsByEmail(ctx, email, excludeID)
		if err != nil {
			return err
		}
		if taken {
			v.Add("email", msgEmailTaken)
		}
	}
	return nil
}
