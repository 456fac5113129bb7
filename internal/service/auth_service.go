package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/educore-labs/educore-api/internal/authz"
	"github.com/educore-labs/educore-api/internal/dto"
	"github.com/educore-labs/educore-api/internal/models"
	"github.com/educore-labs/educore-api/internal/repository"
	"github.com/educore-labs/educore-api/pkg/token"
)

// Auth errors surfaced to the handler layer.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountDisabled    = errors.New("account is deactivated")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthService handles registration, token issuance and password rotation.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.TokenPairResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.TokenPairResponse, error)
	Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.TokenPairResponse, error)
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
	ChangePassword(ctx context.Context, actor authz.Actor, payload dto.ChangePasswordRequest) error
}

type authService struct {
	users      repository.UserRepository
	tx         repository.TxRunner
	audit      AuditRecorder
	tokens     *token.Issuer
	validator  *validator.Validate
	bcryptCost int
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users repository.UserRepository, tx repository.TxRunner, audit AuditRecorder, tokens *token.Issuer, validate *validator.Validate, bcryptCost int, logger zerolog.Logger) AuthService {
	return &authService{
		users:      users,
		tx:         tx,
		audit:      audit,
		tokens:     tokens,
		validator:  validate,
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("component", "auth_service").Logger(),
		now:        time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.TokenPairResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenPairResponse{}, err
	}

	role := payload.Role
	if role == "" {
		role = models.RoleStudent
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.bcryptCost)
	if err != nil {
		return dto.TokenPairResponse{}, err
	}

	user := models.User{
		Email:        payload.Email,
		PasswordHash: string(hash),
		Role:         role,
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		PhoneNumber:  payload.PhoneNumber,
		Bio:          payload.Bio,
		Active:       true,
	}

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, &user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return err
		}

		actor := authz.Actor{ID: user.ID, Role: user.Role}
		return s.audit.Record(ctx, actor, models.AuditActionUserRegistered, "user", &user.ID, map[string]interface{}{
			"email": user.Email,
			"role":  user.Role,
		})
	})
	if err != nil {
		return dto.TokenPairResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user registered")

	return s.issuePair(user)
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.TokenPairResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenPairResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenPairResponse{}, ErrInvalidCredentials
		}
		return dto.TokenPairResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.TokenPairResponse{}, ErrInvalidCredentials
	}

	if !user.Active {
		return dto.TokenPairResponse{}, ErrAccountDisabled
	}

	now := s.now()
	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
			return err
		}

		actor := authz.Actor{ID: user.ID, Role: user.Role}
		return s.audit.Record(ctx, actor, models.AuditActionUserLoggedIn, "user", &user.ID, nil)
	})
	if err != nil {
		return dto.TokenPairResponse{}, err
	}

	user.LastLoginAt = &now

	s.logger.Info().Uint("user_id", user.ID).Msg("user logged in")

	return s.issuePair(user)
}

func (s *authService) Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.TokenPairResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenPairResponse{}, err
	}

	claims, err := s.tokens.ParseRefresh(payload.RefreshToken)
	if err != nil {
		return dto.TokenPairResponse{}, ErrInvalidRefresh
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenPairResponse{}, ErrInvalidRefresh
		}
		return dto.TokenPairResponse{}, err
	}

	if !user.Active {
		return dto.TokenPairResponse{}, ErrAccountDisabled
	}

	return s.issuePair(user)
}

func (s *authService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *authService) ChangePassword(ctx context.Context, actor authz.Actor, payload dto.ChangePasswordRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.OldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)

	err = s.tx.Atomic(ctx, func(ctx context.Context) error {
		if err := s.users.Update(ctx, &user); err != nil {
			return err
		}
		return s.audit.Record(ctx, actor, models.AuditActionPasswordChanged, "user", &user.ID, nil)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("password changed")
	return nil
}

func (s *authService) issuePair(user models.User) (dto.TokenPairResponse, error) {
	access, err := s.tokens.IssueAccess(user.ID, user.Role)
	if err != nil {
		return dto.TokenPairResponse{}, err
	}

	refresh, err := s.tokens.IssueRefresh(user.ID, user.Role)
	if err != nil {
		return dto.TokenPairResponse{}, err
	}

	return dto.TokenPairResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         dto.NewUserResponse(user),
	}, nil
}
